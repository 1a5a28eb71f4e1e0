package retrieval

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibuddy-be/pkg/embedding"
	"medibuddy-be/pkg/rag"
	"medibuddy-be/pkg/rag/scope"
)

type fakeEmbedder struct {
	err error
	// block makes Generate wait for ctx cancellation, like a hung backend.
	block bool
}

func (f *fakeEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

type fakeSearcher struct {
	chunks []Chunk
	err    error

	gotK              int
	gotUserID         uuid.UUID
	gotPrescriptionID *uuid.UUID
}

func (f *fakeSearcher) Search(ctx context.Context, emb []float32, k int, userID uuid.UUID, prescriptionID *uuid.UUID) ([]Chunk, error) {
	f.gotK = k
	f.gotUserID = userID
	f.gotPrescriptionID = prescriptionID
	return f.chunks, f.err
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestRetrieve_PassesScopeFilters(t *testing.T) {
	userID := uuid.New()
	pID := uuid.New()
	searcher := &fakeSearcher{chunks: []Chunk{{PrescriptionID: pID, Content: "Metformin after food", Similarity: 0.91}}}
	r := NewRetriever(&fakeEmbedder{}, searcher, DefaultConfig(), testLogger())

	chunks, err := r.Retrieve(context.Background(), scope.Resolve(userID, &pID), "when do I take metformin?")

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 6, searcher.gotK)
	assert.Equal(t, userID, searcher.gotUserID)
	require.NotNil(t, searcher.gotPrescriptionID)
	assert.Equal(t, pID, *searcher.gotPrescriptionID)
}

func TestRetrieve_GlobalScopeHasNoPrescriptionFilter(t *testing.T) {
	searcher := &fakeSearcher{}
	r := NewRetriever(&fakeEmbedder{}, searcher, DefaultConfig(), testLogger())

	_, err := r.Retrieve(context.Background(), scope.Resolve(uuid.New(), nil), "what am I taking?")

	require.NoError(t, err)
	assert.Nil(t, searcher.gotPrescriptionID)
}

func TestRetrieve_EmptyIndexIsNotAnError(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{}, &fakeSearcher{chunks: nil}, DefaultConfig(), testLogger())

	chunks, err := r.Retrieve(context.Background(), scope.Resolve(uuid.New(), nil), "anything?")

	require.NoError(t, err)
	assert.NotNil(t, chunks)
	assert.Empty(t, chunks)
}

func TestRetrieve_SearchFailureWrapsSentinel(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{}, &fakeSearcher{err: errors.New("connection refused")}, DefaultConfig(), testLogger())

	_, err := r.Retrieve(context.Background(), scope.Resolve(uuid.New(), nil), "q")

	assert.ErrorIs(t, err, rag.ErrRetrievalUnavailable)
}

func TestRetrieve_EmbeddingFailureWrapsSentinel(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{err: errors.New("quota exceeded")}, &fakeSearcher{}, DefaultConfig(), testLogger())

	_, err := r.Retrieve(context.Background(), scope.Resolve(uuid.New(), nil), "q")

	assert.ErrorIs(t, err, rag.ErrRetrievalUnavailable)
}

func TestRetrieve_HungEmbeddingBackendIsBoundedByTimeout(t *testing.T) {
	cfg := Config{TopK: 6, Timeout: 50 * time.Millisecond}
	r := NewRetriever(&fakeEmbedder{block: true}, &fakeSearcher{}, cfg, testLogger())

	start := time.Now()
	_, err := r.Retrieve(context.Background(), scope.Resolve(uuid.New(), nil), "q")
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, rag.ErrRetrievalUnavailable)
	assert.Less(t, elapsed, time.Second, "retrieve must return once its timeout fires")
}
