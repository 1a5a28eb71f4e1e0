package service

import (
	"context"

	"medibuddy-be/internal/repository/unitofwork"
	"medibuddy-be/pkg/rag/retrieval"

	"github.com/google/uuid"
)

// ChunkSearcher adapts the embedding repository to the retriever's search
// interface.
type ChunkSearcher struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewChunkSearcher(uowFactory unitofwork.RepositoryFactory) *ChunkSearcher {
	return &ChunkSearcher{uowFactory: uowFactory}
}

func (s *ChunkSearcher) Search(ctx context.Context, embedding []float32, k int, userID uuid.UUID, prescriptionID *uuid.UUID) ([]retrieval.Chunk, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	scored, err := uow.PrescriptionEmbeddingRepository().SearchSimilarChunks(ctx, embedding, k, userID, prescriptionID)
	if err != nil {
		return nil, err
	}

	chunks := make([]retrieval.Chunk, len(scored))
	for i, sc := range scored {
		chunks[i] = retrieval.Chunk{
			PrescriptionID: sc.Embedding.PrescriptionId,
			Content:        sc.Embedding.Document,
			Similarity:     sc.Similarity,
			ChunkIndex:     sc.Embedding.ChunkIndex,
		}
	}
	return chunks, nil
}
