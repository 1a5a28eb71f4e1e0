package contract

import (
	"context"

	"medibuddy-be/internal/entity"
	"medibuddy-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredPrescriptionEmbedding pairs a chunk with its cosine similarity
// against the query vector.
type ScoredPrescriptionEmbedding struct {
	Embedding  *entity.PrescriptionEmbedding
	Similarity float64
}

type PrescriptionEmbeddingRepository interface {
	Create(ctx context.Context, embedding *entity.PrescriptionEmbedding) error
	CreateBulk(ctx context.Context, embeddings []*entity.PrescriptionEmbedding) error
	DeleteByPrescriptionId(ctx context.Context, prescriptionId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PrescriptionEmbedding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SearchSimilarChunks runs a cosine similarity search over the user's
	// chunks. A nil prescriptionId searches across every prescription the
	// user owns.
	SearchSimilarChunks(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, prescriptionId *uuid.UUID) ([]*ScoredPrescriptionEmbedding, error)
}
