package retrieval

import (
	"context"
	"fmt"
	"log"
	"time"

	"medibuddy-be/pkg/embedding"
	"medibuddy-be/pkg/rag"
	"medibuddy-be/pkg/rag/scope"

	"github.com/google/uuid"
)

// Chunk is one retrieved slice of an indexed prescription, with its cosine
// similarity to the question.
type Chunk struct {
	PrescriptionID uuid.UUID
	Content        string
	Similarity     float64
	ChunkIndex     int
}

// Searcher runs the filtered vector search. Implemented over pgvector by the
// embedding repository; faked in tests.
type Searcher interface {
	// Search returns the top k chunks for the embedding, restricted to the
	// given user and, when prescriptionID is non-nil, to that prescription.
	Search(ctx context.Context, embedding []float32, k int, userID uuid.UUID, prescriptionID *uuid.UUID) ([]Chunk, error)
}

// Config encapsulates retrieval parameters
type Config struct {
	TopK    int
	Timeout time.Duration
}

// DefaultConfig returns default retrieval configuration
func DefaultConfig() Config {
	return Config{
		TopK:    6,
		Timeout: 10 * time.Second,
	}
}

// Retriever embeds the question and fetches the most similar chunks within
// the scope.
type Retriever struct {
	embeddingProvider embedding.EmbeddingProvider
	searcher          Searcher
	config            Config
	logger            *log.Logger
}

func NewRetriever(embeddingProvider embedding.EmbeddingProvider, searcher Searcher, config Config, logger *log.Logger) *Retriever {
	if config.TopK <= 0 {
		config.TopK = DefaultConfig().TopK
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return &Retriever{
		embeddingProvider: embeddingProvider,
		searcher:          searcher,
		config:            config,
		logger:            logger,
	}
}

// Retrieve returns at most TopK chunks ordered by similarity. An empty index
// or no matches yields an empty slice and a nil error; only backend failures
// are errors, wrapped with rag.ErrRetrievalUnavailable.
func (r *Retriever) Retrieve(ctx context.Context, sc scope.Scope, question string) ([]Chunk, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	embeddingRes, err := r.embeddingProvider.Generate(ctx, question, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding generation failed: %v", rag.ErrRetrievalUnavailable, err)
	}

	chunks, err := r.searcher.Search(ctx, embeddingRes.Embedding.Values, r.config.TopK, sc.UserID, sc.PrescriptionID)
	if err != nil {
		r.logger.Printf("[ERROR] Vector search failed: %v", err)
		return nil, fmt.Errorf("%w: %v", rag.ErrRetrievalUnavailable, err)
	}

	if chunks == nil {
		chunks = []Chunk{}
	}

	r.logger.Printf("[RETRIEVAL] scope=%s results=%d", sc.Kind, len(chunks))
	return chunks, nil
}
