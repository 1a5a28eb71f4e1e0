package service

import (
	"context"
	"encoding/json"
	"testing"

	"medibuddy-be/internal/dto"
	"medibuddy-be/internal/entity"
	"medibuddy-be/internal/repository/memory"
	"medibuddy-be/pkg/extraction"
	"medibuddy-be/pkg/llm"
	"medibuddy-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const extractionJSON = `{
	"date": "2026-03-10",
	"medicines": [
		{"name": "Paracetamol 500mg", "quantity": "10", "timing": {"morning": "1", "afternoon": "", "night": "1", "instruction": "after food"}, "frequency": "twice daily", "duration": "5 days"}
	],
	"notes": "Plenty of fluids."
}`

type stubLLM struct {
	response      string
	generateCalls int
}

func (l *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return l.response, nil
}

func (l *stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	l.generateCalls++
	return l.response, nil
}

type recordingPublisher struct {
	payloads [][]byte
}

func (p *recordingPublisher) Publish(ctx context.Context, payload []byte) error {
	p.payloads = append(p.payloads, payload)
	return nil
}

func newPrescriptionFixture(llmResponse string) (*fakeStore, *stubLLM, *recordingPublisher, *memory.ViewStateRepository, IPrescriptionService) {
	fs := newFakeStore()
	factory := &fakeUowFactory{store: fs}
	model := &stubLLM{response: llmResponse}
	publisher := &recordingPublisher{}
	viewStateRepo := memory.NewViewStateRepository()
	svc := NewPrescriptionService(factory, extraction.NewExtractor(model), publisher, viewStateRepo)
	return fs, model, publisher, viewStateRepo, svc
}

func TestUploadCreatesPrescriptionAndScopedSession(t *testing.T) {
	ctx := context.Background()
	userId := uuid.New()
	fs, model, publisher, viewStateRepo, svc := newPrescriptionFixture(extractionJSON)

	res, err := svc.Upload(ctx, userId, &dto.UploadPrescriptionRequest{
		Filename: "dr-rao-march.pdf",
		Content:  "Rx Paracetamol 500mg, 1-0-1 after food, 5 days",
	})

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Duplicate)
	assert.Equal(t, 1, model.generateCalls)

	prescription, ok := fs.prescriptions[res.PrescriptionId]
	require.True(t, ok)
	assert.Equal(t, userId, prescription.UserId)
	assert.Equal(t, "dr-rao-march.pdf", prescription.SourceFilename)
	assert.Contains(t, prescription.Details, "Paracetamol 500mg")

	session, ok := fs.sessions[res.ChatSessionId]
	require.True(t, ok)
	require.NotNil(t, session.PrescriptionId)
	assert.Equal(t, prescription.Id, *session.PrescriptionId)
	assert.Equal(t, prescription.Title, session.Title)

	// Indexing gets queued with the new prescription's id.
	require.Len(t, publisher.payloads, 1)
	var msg dto.PublishEmbedPrescriptionMessage
	require.NoError(t, json.Unmarshal(publisher.payloads[0], &msg))
	assert.Equal(t, prescription.Id, msg.PrescriptionId)

	state, found := viewStateRepo.Get(userId.String())
	require.True(t, found)
	assert.Equal(t, store.ViewLibrary, state.View)
	assert.Equal(t, prescription.Id.String(), state.PrescriptionID)
}

func TestUploadDuplicateFilenameSkipsExtraction(t *testing.T) {
	ctx := context.Background()
	userId := uuid.New()
	fs, model, publisher, _, svc := newPrescriptionFixture(extractionJSON)

	existing := &entity.Prescription{
		Id:             uuid.New(),
		UserId:         userId,
		SourceFilename: "dr-rao-march.pdf",
		Title:          "Prescription: dr-rao-march",
	}
	fs.prescriptions[existing.Id] = existing
	session := &entity.ChatSession{
		Id:             uuid.New(),
		UserId:         userId,
		PrescriptionId: &existing.Id,
		Title:          existing.Title,
	}
	fs.sessions[session.Id] = session

	res, err := svc.Upload(ctx, userId, &dto.UploadPrescriptionRequest{
		Filename: "dr-rao-march.pdf",
		Content:  "same file again",
	})

	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, existing.Id, res.PrescriptionId)
	assert.Equal(t, session.Id, res.ChatSessionId)
	assert.Equal(t, 0, model.generateCalls)
	assert.Empty(t, publisher.payloads)
	assert.Len(t, fs.prescriptions, 1)
}

func TestUploadDuplicateRecreatesMissingSession(t *testing.T) {
	ctx := context.Background()
	userId := uuid.New()
	fs, model, _, _, svc := newPrescriptionFixture(extractionJSON)

	// Interrupted earlier upload: prescription persisted, session missing.
	existing := &entity.Prescription{
		Id:             uuid.New(),
		UserId:         userId,
		SourceFilename: "dr-rao-march.pdf",
		Title:          "Prescription: dr-rao-march",
	}
	fs.prescriptions[existing.Id] = existing

	res, err := svc.Upload(ctx, userId, &dto.UploadPrescriptionRequest{
		Filename: "dr-rao-march.pdf",
		Content:  "same file again",
	})

	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, 0, model.generateCalls)

	session, ok := fs.sessions[res.ChatSessionId]
	require.True(t, ok)
	require.NotNil(t, session.PrescriptionId)
	assert.Equal(t, existing.Id, *session.PrescriptionId)
}

func TestUploadScopedSessionLostRaceReturnsWinner(t *testing.T) {
	ctx := context.Background()
	userId := uuid.New()
	fs, _, _, _, svc := newPrescriptionFixture(extractionJSON)

	existing := &entity.Prescription{
		Id:             uuid.New(),
		UserId:         userId,
		SourceFilename: "dr-rao-march.pdf",
		Title:          "Prescription: dr-rao-march",
	}
	fs.prescriptions[existing.Id] = existing

	// A concurrent duplicate upload creates the scoped session between
	// our find and our create.
	winner := &entity.ChatSession{
		Id:             uuid.New(),
		UserId:         userId,
		PrescriptionId: &existing.Id,
		Title:          existing.Title,
	}
	fs.sessionCreateConflict = winner

	res, err := svc.Upload(ctx, userId, &dto.UploadPrescriptionRequest{
		Filename: "dr-rao-march.pdf",
		Content:  "same file again",
	})

	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, winner.Id, res.ChatSessionId)
	assert.Len(t, fs.sessions, 1)
}

func TestUploadSameFilenameDifferentUserIsNotDuplicate(t *testing.T) {
	ctx := context.Background()
	fs, model, _, _, svc := newPrescriptionFixture(extractionJSON)

	otherUser := uuid.New()
	existing := &entity.Prescription{
		Id:             uuid.New(),
		UserId:         otherUser,
		SourceFilename: "dr-rao-march.pdf",
		Title:          "Prescription: dr-rao-march",
	}
	fs.prescriptions[existing.Id] = existing

	res, err := svc.Upload(ctx, uuid.New(), &dto.UploadPrescriptionRequest{
		Filename: "dr-rao-march.pdf",
		Content:  "Rx Paracetamol",
	})

	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Equal(t, 1, model.generateCalls)
	assert.Len(t, fs.prescriptions, 2)
}

func TestUploadExtractionFailure(t *testing.T) {
	ctx := context.Background()
	fs, _, publisher, _, svc := newPrescriptionFixture("this is not json")

	res, err := svc.Upload(ctx, uuid.New(), &dto.UploadPrescriptionRequest{
		Filename: "blurry-photo.pdf",
		Content:  "unreadable scan",
	})

	assert.Nil(t, res)
	assert.ErrorIs(t, err, extraction.ErrExtractionFailed)
	assert.Empty(t, fs.prescriptions)
	assert.Empty(t, fs.sessions)
	assert.Empty(t, publisher.payloads)
}

func TestDeleteRemovesSessionAndMessages(t *testing.T) {
	ctx := context.Background()
	userId := uuid.New()
	fs, _, _, _, svc := newPrescriptionFixture(extractionJSON)

	prescription := &entity.Prescription{
		Id:             uuid.New(),
		UserId:         userId,
		SourceFilename: "dr-rao-march.pdf",
		Title:          "Prescription: dr-rao-march",
	}
	fs.prescriptions[prescription.Id] = prescription
	session := &entity.ChatSession{
		Id:             uuid.New(),
		UserId:         userId,
		PrescriptionId: &prescription.Id,
		Title:          prescription.Title,
	}
	fs.sessions[session.Id] = session
	fs.messages = append(fs.messages,
		&entity.ChatMessage{Id: uuid.New(), ChatSessionId: session.Id, Sequence: 1},
		&entity.ChatMessage{Id: uuid.New(), ChatSessionId: session.Id, Sequence: 2},
	)

	require.NoError(t, svc.Delete(ctx, userId, prescription.Id))

	assert.Empty(t, fs.prescriptions)
	assert.Empty(t, fs.sessions)
	assert.Empty(t, fs.messages)
}

func TestDeleteUnknownPrescription(t *testing.T) {
	ctx := context.Background()
	_, _, _, _, svc := newPrescriptionFixture(extractionJSON)

	err := svc.Delete(ctx, uuid.New(), uuid.New())
	assert.EqualError(t, err, "prescription not found")
}
