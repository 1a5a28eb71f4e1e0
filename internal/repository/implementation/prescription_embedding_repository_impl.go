package implementation

import (
	"context"

	"medibuddy-be/internal/entity"
	"medibuddy-be/internal/mapper"
	"medibuddy-be/internal/model"
	"medibuddy-be/internal/repository/contract"
	"medibuddy-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type PrescriptionEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PrescriptionEmbeddingMapper
}

func NewPrescriptionEmbeddingRepository(db *gorm.DB) contract.PrescriptionEmbeddingRepository {
	return &PrescriptionEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewPrescriptionEmbeddingMapper(),
	}
}

func (r *PrescriptionEmbeddingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *PrescriptionEmbeddingRepositoryImpl) Create(ctx context.Context, embedding *entity.PrescriptionEmbedding) error {
	m := r.mapper.ToModel(embedding)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*embedding = *r.mapper.ToEntity(m)
	return nil
}

func (r *PrescriptionEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.PrescriptionEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}

	models := r.mapper.ToModels(embeddings)
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	// Update IDs back to entities
	for i, m := range models {
		*embeddings[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *PrescriptionEmbeddingRepositoryImpl) DeleteByPrescriptionId(ctx context.Context, prescriptionId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Where("prescription_id = ?", prescriptionId).
		Delete(&model.PrescriptionEmbedding{}).Error
}

func (r *PrescriptionEmbeddingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PrescriptionEmbedding, error) {
	var models []*model.PrescriptionEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *PrescriptionEmbeddingRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.PrescriptionEmbedding{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SearchSimilarChunks returns the user's chunks ordered by cosine similarity.
// Cosine distance in pgvector is 1 - cosine_similarity, so we compute
// 1 - (embedding_value <=> query_vector) = cosine_similarity.
func (r *PrescriptionEmbeddingRepositoryImpl) SearchSimilarChunks(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, prescriptionId *uuid.UUID) ([]*contract.ScoredPrescriptionEmbedding, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.PrescriptionEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("prescription_embeddings").
		Select("prescription_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("user_id = ?", userId).
		Where("deleted_at IS NULL")

	if prescriptionId != nil {
		query = query.Where("prescription_id = ?", *prescriptionId)
	}

	err := query.
		Order("similarity DESC, created_at DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredPrescriptionEmbedding, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredPrescriptionEmbedding{
			Embedding:  r.mapper.ToEntity(&res.PrescriptionEmbedding),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
