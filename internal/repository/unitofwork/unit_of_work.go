package unitofwork

import (
	"context"

	"medibuddy-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	PrescriptionRepository() contract.PrescriptionRepository
	PrescriptionEmbeddingRepository() contract.PrescriptionEmbeddingRepository
	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
}
