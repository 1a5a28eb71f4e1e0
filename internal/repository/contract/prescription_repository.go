package contract

import (
	"context"

	"medibuddy-be/internal/entity"
	"medibuddy-be/internal/repository/specification"

	"github.com/google/uuid"
)

type PrescriptionRepository interface {
	Create(ctx context.Context, prescription *entity.Prescription) error
	Update(ctx context.Context, prescription *entity.Prescription) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Prescription, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Prescription, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
