package implementation

import (
	"context"
	"errors"

	"medibuddy-be/internal/entity"
	"medibuddy-be/internal/mapper"
	"medibuddy-be/internal/model"
	"medibuddy-be/internal/repository/contract"
	"medibuddy-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PrescriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PrescriptionMapper
}

func NewPrescriptionRepository(db *gorm.DB) contract.PrescriptionRepository {
	return &PrescriptionRepositoryImpl{
		db:     db,
		mapper: mapper.NewPrescriptionMapper(),
	}
}

func (r *PrescriptionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *PrescriptionRepositoryImpl) Create(ctx context.Context, prescription *entity.Prescription) error {
	m := r.mapper.ToModel(prescription)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*prescription = *r.mapper.ToEntity(m)
	return nil
}

func (r *PrescriptionRepositoryImpl) Update(ctx context.Context, prescription *entity.Prescription) error {
	m := r.mapper.ToModel(prescription)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*prescription = *r.mapper.ToEntity(m)
	return nil
}

// Delete removes the row for good. A soft-deleted row would keep occupying
// the (user_id, source_filename) unique pair and block re-uploading the same
// filename.
func (r *PrescriptionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&model.Prescription{}, id).Error
}

func (r *PrescriptionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Prescription, error) {
	var m model.Prescription
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *PrescriptionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Prescription, error) {
	var models []*model.Prescription
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *PrescriptionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Prescription{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
