package service

import (
	"context"
	"errors"
	"time"

	"medibuddy-be/internal/constant"
	"medibuddy-be/internal/dto"
	"medibuddy-be/internal/entity"
	"medibuddy-be/internal/repository/memory"
	"medibuddy-be/internal/repository/specification"
	"medibuddy-be/internal/repository/unitofwork"
	"medibuddy-be/pkg/rag"
	"medibuddy-be/pkg/rag/graph"
	"medibuddy-be/pkg/rag/history"
	"medibuddy-be/pkg/store"

	"github.com/google/uuid"
)

type IChatService interface {
	SendChat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	SessionDetail(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.SessionDetailResponse, error)
	GetOrCreateGlobalSession(ctx context.Context, userId uuid.UUID) (*dto.GetAllSessionsResponse, error)
}

type chatService struct {
	uowFactory    unitofwork.RepositoryFactory
	engine        *graph.Engine
	historyLoader *history.Loader
	historyLimit  int
	viewStateRepo *memory.ViewStateRepository
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	engine *graph.Engine,
	historyLoader *history.Loader,
	historyLimit int,
	viewStateRepo *memory.ViewStateRepository,
) IChatService {
	return &chatService{
		uowFactory:    uowFactory,
		engine:        engine,
		historyLoader: historyLoader,
		historyLimit:  historyLimit,
		viewStateRepo: viewStateRepo,
	}
}

// SendChat runs one conversation turn through the retrieval graph. The user
// question and the answer are persisted together after the turn succeeds, so
// an aborted turn leaves no half-written history behind.
func (s *chatService) SendChat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: req.ChatSessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.New("chat session not found")
	}

	lang := rag.NormalizeLanguage(req.Language)

	msgs, err := s.historyLoader.LoadConversationHistory(ctx, session.Id, s.historyLimit)
	if err != nil {
		return nil, err
	}

	state := &graph.ChatState{
		Question:       req.Question,
		UserID:         userId,
		PrescriptionID: session.PrescriptionId,
		Language:       lang,
		History:        msgs,
	}

	answer, err := s.engine.Answer(ctx, state)
	if err != nil {
		return nil, err
	}

	maxSeq, err := uow.ChatMessageRepository().MaxSequence(ctx, session.Id)
	if err != nil {
		return nil, err
	}

	sent := &entity.ChatMessage{
		Id:            uuid.New(),
		Content:       req.Question,
		Role:          constant.ChatMessageRoleUser,
		ChatSessionId: session.Id,
		Sequence:      maxSeq + 1,
		CreatedAt:     time.Now(),
	}
	reply := &entity.ChatMessage{
		Id:            uuid.New(),
		Content:       answer,
		Role:          constant.ChatMessageRoleAssistant,
		ChatSessionId: session.Id,
		Sequence:      maxSeq + 2,
		CreatedAt:     time.Now(),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().Create(ctx, sent); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, reply); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if s.viewStateRepo != nil {
		prescriptionId := ""
		if session.PrescriptionId != nil {
			prescriptionId = session.PrescriptionId.String()
		}
		s.viewStateRepo.Save(&store.ViewState{
			UserID:         userId.String(),
			View:           store.ViewChat,
			PrescriptionID: prescriptionId,
			SessionID:      session.Id.String(),
			Language:       string(lang),
			LastQuery:      req.Question,
		})
	}

	return &dto.SendChatResponse{
		ChatSessionId:    session.Id,
		ChatSessionTitle: session.Title,
		Sent: &dto.SendChatResponseChat{
			Id:        sent.Id,
			Content:   sent.Content,
			Role:      sent.Role,
			Sequence:  sent.Sequence,
			CreatedAt: sent.CreatedAt,
		},
		Reply: &dto.SendChatResponseChat{
			Id:        reply.Id,
			Content:   reply.Content,
			Role:      reply.Role,
			Sequence:  reply.Sequence,
			CreatedAt: reply.CreatedAt,
		},
	}, nil
}

func (s *chatService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.GetAllSessionsResponse, len(sessions))
	for i, sess := range sessions {
		res[i] = &dto.GetAllSessionsResponse{
			Id:             sess.Id,
			Title:          sess.Title,
			PrescriptionId: sess.PrescriptionId,
			CreatedAt:      sess.CreatedAt,
			UpdatedAt:      sess.UpdatedAt,
		}
	}
	return res, nil
}

func (s *chatService) GetHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.New("chat session not found")
	}

	msgs, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: session.Id},
		specification.OrderBy{Field: "sequence", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.GetChatHistoryResponse, len(msgs))
	for i, m := range msgs {
		res[i] = &dto.GetChatHistoryResponse{
			Id:        m.Id,
			Role:      m.Role,
			Content:   m.Content,
			Sequence:  m.Sequence,
			CreatedAt: m.CreatedAt,
		}
	}
	return res, nil
}

func (s *chatService) SessionDetail(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.SessionDetailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.New("chat session not found")
	}

	res := &dto.SessionDetailResponse{
		Id:             session.Id,
		Title:          session.Title,
		PrescriptionId: session.PrescriptionId,
		CreatedAt:      session.CreatedAt,
	}

	// Scoped sessions carry the medicine summary of their prescription.
	if session.PrescriptionId != nil {
		prescription, err := uow.PrescriptionRepository().FindOne(ctx,
			specification.ByID{ID: *session.PrescriptionId},
			specification.UserOwnedBy{UserID: userId},
		)
		if err != nil {
			return nil, err
		}
		if prescription != nil {
			res.Details = prescription.Details
		}
	}
	return res, nil
}

// GetOrCreateGlobalSession returns the user's one cross-prescription session,
// creating it on first use. Calling it twice never creates a second one.
func (s *chatService) GetOrCreateGlobalSession(ctx context.Context, userId uuid.UUID) (*dto.GetAllSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.GlobalSessionOnly{},
	)
	if err != nil {
		return nil, err
	}

	if session == nil {
		session = &entity.ChatSession{
			Id:        uuid.New(),
			UserId:    userId,
			Title:     constant.GlobalSessionTitle,
			CreatedAt: time.Now(),
		}
		if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
			// A concurrent request may have won the unique index on the
			// global session. Return the winner instead of the error.
			existing, findErr := uow.ChatSessionRepository().FindOne(ctx,
				specification.UserOwnedBy{UserID: userId},
				specification.GlobalSessionOnly{},
			)
			if findErr != nil || existing == nil {
				return nil, err
			}
			session = existing
		}
	}

	return &dto.GetAllSessionsResponse{
		Id:             session.Id,
		Title:          session.Title,
		PrescriptionId: session.PrescriptionId,
		CreatedAt:      session.CreatedAt,
		UpdatedAt:      session.UpdatedAt,
	}, nil
}
