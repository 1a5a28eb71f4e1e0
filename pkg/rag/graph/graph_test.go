package graph

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibuddy-be/pkg/llm"
	"medibuddy-be/pkg/rag"
	"medibuddy-be/pkg/rag/answer"
	"medibuddy-be/pkg/rag/retrieval"
	"medibuddy-be/pkg/rag/scope"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// indexRetriever simulates a per-user, per-prescription chunk index.
type indexRetriever struct {
	mu     sync.Mutex
	chunks map[uuid.UUID][]retrieval.Chunk // keyed by owner
	err    error

	lastScope scope.Scope
}

func (r *indexRetriever) Retrieve(ctx context.Context, sc scope.Scope, question string) ([]retrieval.Chunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastScope = sc
	if r.err != nil {
		return nil, r.err
	}

	var out []retrieval.Chunk
	for _, chunk := range r.chunks[sc.UserID] {
		if sc.PrescriptionID != nil && chunk.PrescriptionID != *sc.PrescriptionID {
			continue
		}
		out = append(out, chunk)
	}
	if out == nil {
		out = []retrieval.Chunk{}
	}
	return out, nil
}

// echoLLM answers by echoing the grounded excerpts it was given.
type echoLLM struct {
	mu         sync.Mutex
	lastPrompt string
	err        error
}

func (f *echoLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.lastPrompt = history[len(history)-1].Content
	return "grounded answer", nil
}

func (f *echoLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func newTestEngine(t *testing.T, retriever Retriever, provider llm.LLMProvider) *Engine {
	t.Helper()
	gen := answer.NewGenerator(provider, time.Second, testLogger())
	engine, err := NewEngine(context.Background(), retriever, gen, testLogger())
	require.NoError(t, err)
	return engine
}

func TestAnswer_MedicineTimingFromScopedSession(t *testing.T) {
	userID := uuid.New()
	pID := uuid.New()
	retriever := &indexRetriever{chunks: map[uuid.UUID][]retrieval.Chunk{
		userID: {{PrescriptionID: pID, Content: "- Metformin (Qty: 30): Morning: 1, Afternoon: , Night: 1, Instruction: after food, Freq: daily, Duration: 15 days", Similarity: 0.92}},
	}}
	provider := &echoLLM{}
	engine := newTestEngine(t, retriever, provider)

	got, err := engine.Answer(context.Background(), &ChatState{
		Question:       "When should I take Metformin?",
		UserID:         userID,
		PrescriptionID: &pID,
		Language:       rag.LanguageEnglish,
	})

	require.NoError(t, err)
	assert.Equal(t, "grounded answer", got)
	assert.Equal(t, scope.KindSingle, retriever.lastScope.Kind)
	assert.Contains(t, provider.lastPrompt, "Metformin")
	assert.Contains(t, provider.lastPrompt, "after food")
}

func TestAnswer_GlobalSessionSeesAllPrescriptions(t *testing.T) {
	userID := uuid.New()
	p1, p2 := uuid.New(), uuid.New()
	retriever := &indexRetriever{chunks: map[uuid.UUID][]retrieval.Chunk{
		userID: {
			{PrescriptionID: p1, Content: "- Metformin (Qty: 30)", Similarity: 0.9},
			{PrescriptionID: p2, Content: "- Atorvastatin (Qty: 15)", Similarity: 0.85},
		},
	}}
	provider := &echoLLM{}
	engine := newTestEngine(t, retriever, provider)

	_, err := engine.Answer(context.Background(), &ChatState{
		Question: "What medicines am I taking?",
		UserID:   userID,
		Language: rag.LanguageEnglish,
	})

	require.NoError(t, err)
	assert.Equal(t, scope.KindGlobal, retriever.lastScope.Kind)
	assert.Contains(t, provider.lastPrompt, "Metformin")
	assert.Contains(t, provider.lastPrompt, "Atorvastatin")
}

func TestAnswer_ScopedSessionExcludesOtherPrescriptions(t *testing.T) {
	userID := uuid.New()
	p1, p2 := uuid.New(), uuid.New()
	retriever := &indexRetriever{chunks: map[uuid.UUID][]retrieval.Chunk{
		userID: {
			{PrescriptionID: p1, Content: "- Metformin (Qty: 30)", Similarity: 0.9},
			{PrescriptionID: p2, Content: "- Atorvastatin (Qty: 15)", Similarity: 0.85},
		},
	}}
	provider := &echoLLM{}
	engine := newTestEngine(t, retriever, provider)

	_, err := engine.Answer(context.Background(), &ChatState{
		Question:       "What is in this prescription?",
		UserID:         userID,
		PrescriptionID: &p1,
		Language:       rag.LanguageEnglish,
	})

	require.NoError(t, err)
	assert.Contains(t, provider.lastPrompt, "Metformin")
	assert.NotContains(t, provider.lastPrompt, "Atorvastatin")
}

func TestAnswer_EmptyIndexGivesFixedAnswerWithoutModel(t *testing.T) {
	userID := uuid.New()
	retriever := &indexRetriever{chunks: map[uuid.UUID][]retrieval.Chunk{}}
	provider := &echoLLM{err: errors.New("model must not be called")}
	engine := newTestEngine(t, retriever, provider)

	got, err := engine.Answer(context.Background(), &ChatState{
		Question: "What do I take for headaches?",
		UserID:   userID,
		Language: rag.LanguageEnglish,
	})

	require.NoError(t, err)
	assert.Equal(t, answer.NoInfoAnswer(rag.LanguageEnglish), got)
}

func TestAnswer_LanguageChangesRenderingOnly(t *testing.T) {
	userID := uuid.New()
	pID := uuid.New()
	retriever := &indexRetriever{chunks: map[uuid.UUID][]retrieval.Chunk{
		userID: {{PrescriptionID: pID, Content: "- Metformin (Qty: 30)", Similarity: 0.9}},
	}}
	provider := &echoLLM{}
	engine := newTestEngine(t, retriever, provider)

	_, err := engine.Answer(context.Background(), &ChatState{
		Question: "मैं कौन सी दवाएँ ले रहा हूँ?",
		UserID:   userID,
		Language: rag.LanguageHindi,
	})
	require.NoError(t, err)
	assert.Contains(t, provider.lastPrompt, "in Hindi")
	assert.Contains(t, provider.lastPrompt, "Metformin")

	_, err = engine.Answer(context.Background(), &ChatState{
		Question: "What medicines am I taking?",
		UserID:   userID,
		Language: rag.LanguageEnglish,
	})
	require.NoError(t, err)
	assert.Contains(t, provider.lastPrompt, "in English")
}

func TestAnswer_RetrieverFailureAbortsTurn(t *testing.T) {
	retriever := &indexRetriever{err: rag.ErrRetrievalUnavailable}
	provider := &echoLLM{}
	engine := newTestEngine(t, retriever, provider)

	_, err := engine.Answer(context.Background(), &ChatState{
		Question: "q",
		UserID:   uuid.New(),
		Language: rag.LanguageEnglish,
	})

	assert.ErrorIs(t, err, rag.ErrRetrievalUnavailable)
}

func TestAnswer_GeneratorFailureAbortsTurn(t *testing.T) {
	userID := uuid.New()
	pID := uuid.New()
	retriever := &indexRetriever{chunks: map[uuid.UUID][]retrieval.Chunk{
		userID: {{PrescriptionID: pID, Content: "chunk", Similarity: 0.5}},
	}}
	provider := &echoLLM{err: errors.New("upstream 500")}
	engine := newTestEngine(t, retriever, provider)

	_, err := engine.Answer(context.Background(), &ChatState{
		Question: "q",
		UserID:   userID,
		Language: rag.LanguageEnglish,
	})

	assert.ErrorIs(t, err, rag.ErrGenerationUnavailable)
}

func TestAnswer_ConcurrentTurnsAreIsolated(t *testing.T) {
	u1, u2 := uuid.New(), uuid.New()
	p1, p2 := uuid.New(), uuid.New()
	retriever := &indexRetriever{chunks: map[uuid.UUID][]retrieval.Chunk{
		u1: {{PrescriptionID: p1, Content: "- Metformin", Similarity: 0.9}},
		u2: {{PrescriptionID: p2, Content: "- Ibuprofen", Similarity: 0.9}},
	}}
	engine := newTestEngine(t, retriever, &echoLLM{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		userID := u1
		if i%2 == 1 {
			userID = u2
		}
		wg.Add(1)
		go func(uid uuid.UUID) {
			defer wg.Done()
			_, err := engine.Answer(context.Background(), &ChatState{
				Question: "what am I taking?",
				UserID:   uid,
				Language: rag.LanguageEnglish,
			})
			assert.NoError(t, err)
		}(userID)
	}
	wg.Wait()
}
