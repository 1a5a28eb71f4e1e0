package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"medibuddy-be/internal/dto"
	"medibuddy-be/internal/entity"
	"medibuddy-be/internal/repository/memory"
	"medibuddy-be/internal/repository/specification"
	"medibuddy-be/internal/repository/unitofwork"
	"medibuddy-be/pkg/extraction"
	"medibuddy-be/pkg/store"

	"github.com/google/uuid"
)

type IPrescriptionService interface {
	Upload(ctx context.Context, userId uuid.UUID, req *dto.UploadPrescriptionRequest) (*dto.UploadPrescriptionResponse, error)
	GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.PrescriptionResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.PrescriptionDetailResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type prescriptionService struct {
	uowFactory       unitofwork.RepositoryFactory
	extractor        *extraction.Extractor
	publisherService IPublisherService
	viewStateRepo    *memory.ViewStateRepository
}

func NewPrescriptionService(
	uowFactory unitofwork.RepositoryFactory,
	extractor *extraction.Extractor,
	publisherService IPublisherService,
	viewStateRepo *memory.ViewStateRepository,
) IPrescriptionService {
	return &prescriptionService{
		uowFactory:       uowFactory,
		extractor:        extractor,
		publisherService: publisherService,
		viewStateRepo:    viewStateRepo,
	}
}

// Upload extracts the structured medicine data from the document, stores the
// prescription with its scoped chat session and queues it for indexing.
// Re-uploading a filename the user already has does not re-extract, it
// redirects to the existing prescription's session.
func (s *prescriptionService) Upload(ctx context.Context, userId uuid.UUID, req *dto.UploadPrescriptionRequest) (*dto.UploadPrescriptionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.PrescriptionRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.BySourceFilename{Filename: req.Filename},
	)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		session, err := s.getOrCreateScopedSession(ctx, uow, existing)
		if err != nil {
			return nil, err
		}
		return &dto.UploadPrescriptionResponse{
			PrescriptionId: existing.Id,
			ChatSessionId:  session.Id,
			Title:          existing.Title,
			Duplicate:      true,
		}, nil
	}

	data, err := s.extractor.Extract(ctx, req.Content)
	if err != nil {
		return nil, err
	}

	extractedJson, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	prescription := &entity.Prescription{
		Id:             uuid.New(),
		UserId:         userId,
		SourceFilename: req.Filename,
		Title:          data.Title(req.Filename),
		Details:        data.Flatten(),
		Extracted:      extractedJson,
		CreatedAt:      time.Now(),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.PrescriptionRepository().Create(ctx, prescription); err != nil {
		return nil, err
	}

	session := &entity.ChatSession{
		Id:             uuid.New(),
		UserId:         userId,
		PrescriptionId: &prescription.Id,
		Title:          prescription.Title,
		CreatedAt:      time.Now(),
	}
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	msgPayload := dto.PublishEmbedPrescriptionMessage{
		PrescriptionId: prescription.Id,
	}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		return nil, err
	}
	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		return nil, err
	}

	if s.viewStateRepo != nil {
		s.viewStateRepo.Save(&store.ViewState{
			UserID:         userId.String(),
			View:           store.ViewLibrary,
			PrescriptionID: prescription.Id.String(),
			SessionID:      session.Id.String(),
		})
	}

	return &dto.UploadPrescriptionResponse{
		PrescriptionId: prescription.Id,
		ChatSessionId:  session.Id,
		Title:          prescription.Title,
	}, nil
}

// getOrCreateScopedSession returns the prescription's chat session, creating
// it if an earlier upload was interrupted before the session existed.
func (s *prescriptionService) getOrCreateScopedSession(ctx context.Context, uow unitofwork.UnitOfWork, prescription *entity.Prescription) (*entity.ChatSession, error) {
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: prescription.UserId},
		specification.ByPrescriptionID{PrescriptionID: prescription.Id},
	)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}

	session = &entity.ChatSession{
		Id:             uuid.New(),
		UserId:         prescription.UserId,
		PrescriptionId: &prescription.Id,
		Title:          prescription.Title,
		CreatedAt:      time.Now(),
	}
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		// A concurrent upload of the same file may have won the unique
		// index on (user, prescription). Return the winner.
		existing, findErr := uow.ChatSessionRepository().FindOne(ctx,
			specification.UserOwnedBy{UserID: prescription.UserId},
			specification.ByPrescriptionID{PrescriptionID: prescription.Id},
		)
		if findErr != nil || existing == nil {
			return nil, err
		}
		session = existing
	}
	return session, nil
}

func (s *prescriptionService) GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.PrescriptionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	prescriptions, err := uow.PrescriptionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.PrescriptionResponse, len(prescriptions))
	for i, p := range prescriptions {
		res[i] = &dto.PrescriptionResponse{
			Id:             p.Id,
			SourceFilename: p.SourceFilename,
			Title:          p.Title,
			Details:        p.Details,
			CreatedAt:      p.CreatedAt,
		}
	}
	return res, nil
}

func (s *prescriptionService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.PrescriptionDetailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	prescription, err := uow.PrescriptionRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if prescription == nil {
		return nil, nil
	}

	res := &dto.PrescriptionDetailResponse{
		PrescriptionResponse: dto.PrescriptionResponse{
			Id:             prescription.Id,
			SourceFilename: prescription.SourceFilename,
			Title:          prescription.Title,
			Details:        prescription.Details,
			CreatedAt:      prescription.CreatedAt,
		},
	}

	if len(prescription.Extracted) > 0 {
		var extracted extraction.PrescriptionData
		if err := json.Unmarshal(prescription.Extracted, &extracted); err == nil {
			res.Extracted = extracted
		}
	}
	return res, nil
}

// Delete removes the prescription together with its chunks, chat session and
// messages in one transaction.
func (s *prescriptionService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	prescription, err := uow.PrescriptionRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if prescription == nil {
		return errors.New("prescription not found")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.PrescriptionEmbeddingRepository().DeleteByPrescriptionId(ctx, prescription.Id); err != nil {
		return err
	}

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.ByPrescriptionID{PrescriptionID: prescription.Id},
	)
	if err != nil {
		return err
	}
	if session != nil {
		if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, session.Id); err != nil {
			return err
		}
		if err := uow.ChatSessionRepository().Delete(ctx, session.Id); err != nil {
			return err
		}
	}

	if err := uow.PrescriptionRepository().Delete(ctx, prescription.Id); err != nil {
		return err
	}

	return uow.Commit()
}
