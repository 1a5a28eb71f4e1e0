package service

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"medibuddy-be/internal/constant"
	"medibuddy-be/internal/dto"
	"medibuddy-be/internal/entity"
	"medibuddy-be/internal/repository/memory"
	"medibuddy-be/pkg/llm"
	"medibuddy-be/pkg/rag"
	"medibuddy-be/pkg/rag/graph"
	"medibuddy-be/pkg/rag/history"
	"medibuddy-be/pkg/rag/retrieval"
	"medibuddy-be/pkg/rag/scope"
	"medibuddy-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRetriever struct {
	chunks []retrieval.Chunk
	err    error
}

func (r *stubRetriever) Retrieve(ctx context.Context, sc scope.Scope, question string) ([]retrieval.Chunk, error) {
	return r.chunks, r.err
}

type stubGenerator struct {
	answer      string
	err         error
	lastLang    rag.Language
	lastHistory []llm.Message
}

func (g *stubGenerator) Generate(ctx context.Context, question string, lang rag.Language, chunks []retrieval.Chunk, hist []llm.Message) (string, error) {
	g.lastLang = lang
	g.lastHistory = hist
	return g.answer, g.err
}

func newTestEngine(t *testing.T, retriever graph.Retriever, generator graph.Generator) *graph.Engine {
	t.Helper()
	engine, err := graph.NewEngine(context.Background(), retriever, generator, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	return engine
}

func newChatFixture(t *testing.T, generator graph.Generator) (*fakeStore, IChatService) {
	t.Helper()
	store := newFakeStore()
	factory := &fakeUowFactory{store: store}
	engine := newTestEngine(t, &stubRetriever{}, generator)
	svc := NewChatService(factory, engine, history.NewLoader(factory), 10, memory.NewViewStateRepository())
	return store, svc
}

func seedSession(store *fakeStore, userId uuid.UUID) *entity.ChatSession {
	session := &entity.ChatSession{
		Id:     uuid.New(),
		UserId: userId,
		Title:  "Prescription: Dr. Rao",
	}
	store.sessions[session.Id] = session
	return session
}

func TestSendChatPersistsTurnWithSequences(t *testing.T) {
	ctx := context.Background()
	userId := uuid.New()
	generator := &stubGenerator{answer: "Take one tablet after breakfast."}
	fs, svc := newChatFixture(t, generator)
	session := seedSession(fs, userId)

	// Earlier turn already in the session.
	fs.messages = append(fs.messages,
		&entity.ChatMessage{Id: uuid.New(), ChatSessionId: session.Id, Role: constant.ChatMessageRoleUser, Content: "What is this for?", Sequence: 1},
		&entity.ChatMessage{Id: uuid.New(), ChatSessionId: session.Id, Role: constant.ChatMessageRoleAssistant, Content: "It treats fever.", Sequence: 2},
	)

	res, err := svc.SendChat(ctx, userId, &dto.SendChatRequest{
		ChatSessionId: session.Id,
		Question:      "When should I take it?",
		Language:      "Hindi",
	})

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, session.Id, res.ChatSessionId)
	assert.Equal(t, 3, res.Sent.Sequence)
	assert.Equal(t, 4, res.Reply.Sequence)
	assert.Equal(t, constant.ChatMessageRoleUser, res.Sent.Role)
	assert.Equal(t, constant.ChatMessageRoleAssistant, res.Reply.Role)
	assert.Equal(t, "Take one tablet after breakfast.", res.Reply.Content)
	assert.Len(t, fs.messages, 4)

	// Earlier turn reached the generator as chronological history.
	require.Len(t, generator.lastHistory, 2)
	assert.Equal(t, "user", generator.lastHistory[0].Role)
	assert.Equal(t, "What is this for?", generator.lastHistory[0].Content)
	assert.Equal(t, "assistant", generator.lastHistory[1].Role)
}

func TestSendChatGeneratorFailurePersistsNothing(t *testing.T) {
	ctx := context.Background()
	userId := uuid.New()
	fs, svc := newChatFixture(t, &stubGenerator{err: errors.New("model unavailable")})
	session := seedSession(fs, userId)

	res, err := svc.SendChat(ctx, userId, &dto.SendChatRequest{
		ChatSessionId: session.Id,
		Question:      "When should I take it?",
	})

	assert.Error(t, err)
	assert.Nil(t, res)
	assert.Empty(t, fs.messages)
}

func TestSendChatPartialWriteRollsBack(t *testing.T) {
	ctx := context.Background()
	userId := uuid.New()
	fs, svc := newChatFixture(t, &stubGenerator{answer: "ok"})
	session := seedSession(fs, userId)
	fs.failMessageCreateAfter = 2

	res, err := svc.SendChat(ctx, userId, &dto.SendChatRequest{
		ChatSessionId: session.Id,
		Question:      "When should I take it?",
	})

	assert.Error(t, err)
	assert.Nil(t, res)
	assert.Empty(t, fs.messages)
}

func TestSendChatUnknownSession(t *testing.T) {
	ctx := context.Background()
	fs, svc := newChatFixture(t, &stubGenerator{answer: "ok"})
	seedSession(fs, uuid.New()) // belongs to someone else

	res, err := svc.SendChat(ctx, uuid.New(), &dto.SendChatRequest{
		ChatSessionId: uuid.New(),
		Question:      "When should I take it?",
	})

	assert.Nil(t, res)
	assert.EqualError(t, err, "chat session not found")
}

func TestSendChatRejectsForeignSession(t *testing.T) {
	ctx := context.Background()
	fs, svc := newChatFixture(t, &stubGenerator{answer: "ok"})
	session := seedSession(fs, uuid.New())

	res, err := svc.SendChat(ctx, uuid.New(), &dto.SendChatRequest{
		ChatSessionId: session.Id,
		Question:      "When should I take it?",
	})

	assert.Nil(t, res)
	assert.EqualError(t, err, "chat session not found")
	assert.Empty(t, fs.messages)
}

func TestGetOrCreateGlobalSessionIdempotent(t *testing.T) {
	ctx := context.Background()
	userId := uuid.New()
	fs, svc := newChatFixture(t, &stubGenerator{answer: "ok"})

	first, err := svc.GetOrCreateGlobalSession(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, constant.GlobalSessionTitle, first.Title)
	assert.Nil(t, first.PrescriptionId)

	second, err := svc.GetOrCreateGlobalSession(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, first.Id, second.Id)
	assert.Len(t, fs.sessions, 1)
}

func TestGetOrCreateGlobalSessionLostRaceReturnsWinner(t *testing.T) {
	ctx := context.Background()
	userId := uuid.New()
	fs, svc := newChatFixture(t, &stubGenerator{answer: "ok"})

	// A concurrent request creates the global session between our find
	// and our create.
	winner := &entity.ChatSession{
		Id:     uuid.New(),
		UserId: userId,
		Title:  constant.GlobalSessionTitle,
	}
	fs.sessionCreateConflict = winner

	res, err := svc.GetOrCreateGlobalSession(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, winner.Id, res.Id)
	assert.Len(t, fs.sessions, 1)
}

func TestSendChatUpdatesViewState(t *testing.T) {
	ctx := context.Background()
	userId := uuid.New()
	fs := newFakeStore()
	factory := &fakeUowFactory{store: fs}
	viewStateRepo := memory.NewViewStateRepository()
	engine := newTestEngine(t, &stubRetriever{}, &stubGenerator{answer: "ok"})
	svc := NewChatService(factory, engine, history.NewLoader(factory), 10, viewStateRepo)
	session := seedSession(fs, userId)

	_, err := svc.SendChat(ctx, userId, &dto.SendChatRequest{
		ChatSessionId: session.Id,
		Question:      "When should I take it?",
		Language:      "Tamil",
	})
	require.NoError(t, err)

	state, found := viewStateRepo.Get(userId.String())
	require.True(t, found)
	assert.Equal(t, store.ViewChat, state.View)
	assert.Equal(t, session.Id.String(), state.SessionID)
	assert.Equal(t, "Tamil", state.Language)
	assert.Equal(t, "When should I take it?", state.LastQuery)
}

func TestSendChatUnknownLanguageFallsBackToEnglish(t *testing.T) {
	ctx := context.Background()
	userId := uuid.New()
	generator := &stubGenerator{answer: "ok"}
	fs, svc := newChatFixture(t, generator)
	session := seedSession(fs, userId)

	_, err := svc.SendChat(ctx, userId, &dto.SendChatRequest{
		ChatSessionId: session.Id,
		Question:      "When should I take it?",
		Language:      "Klingon",
	})

	require.NoError(t, err)
	assert.Equal(t, rag.LanguageEnglish, generator.lastLang)
}
