package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"medibuddy-be/internal/entity"
	"medibuddy-be/internal/repository/specification"
	"medibuddy-be/internal/repository/unitofwork"
	"medibuddy-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.PrescriptionRepository())

	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check User Repository", func(t *testing.T) {
		count, err := uow.UserRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("User count: %d", count)
	})

	t.Run("Check Prescription Embedding Repository", func(t *testing.T) {
		count, err := uow.PrescriptionEmbeddingRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("PrescriptionEmbedding count: %d", count)
	})

	t.Run("Transactional prescription with session", func(t *testing.T) {
		ctx := context.Background()

		user := &entity.User{
			Id:       uuid.New(),
			Email:    "test-integration-" + uuid.New().String() + "@example.com",
			FullName: "Integration Test User",
			Role:     entity.UserRoleUser,
		}
		assert.NoError(t, uow.UserRepository().Create(ctx, user))

		txUow := uowFactory.NewUnitOfWork(ctx)
		assert.NoError(t, txUow.Begin(ctx))
		defer txUow.Rollback()

		prescription := &entity.Prescription{
			Id:             uuid.New(),
			UserId:         user.Id,
			SourceFilename: "integration.pdf",
			Title:          "Prescription: Integration",
			Details:        "Date: 2026-01-01\n\nMedicines:\n- Test (Qty: 1)\n\nNotes: none",
		}
		assert.NoError(t, txUow.PrescriptionRepository().Create(ctx, prescription))

		session := &entity.ChatSession{
			Id:             uuid.New(),
			UserId:         user.Id,
			PrescriptionId: &prescription.Id,
			Title:          prescription.Title,
		}
		assert.NoError(t, txUow.ChatSessionRepository().Create(ctx, session))
		assert.NoError(t, txUow.Commit())

		found, err := uow.ChatSessionRepository().FindOne(ctx,
			specification.UserOwnedBy{UserID: user.Id},
			specification.ByPrescriptionID{PrescriptionID: prescription.Id},
		)
		assert.NoError(t, err)
		if assert.NotNil(t, found) {
			assert.Equal(t, session.Id, found.Id)
		}

		// Cleanup
		assert.NoError(t, uow.ChatSessionRepository().Delete(ctx, session.Id))
		assert.NoError(t, uow.PrescriptionRepository().Delete(ctx, prescription.Id))
		assert.NoError(t, uow.UserRepository().Delete(ctx, user.Id))
	})

	t.Run("Delete frees the filename for re-upload", func(t *testing.T) {
		ctx := context.Background()

		user := &entity.User{
			Id:       uuid.New(),
			Email:    "test-reupload-" + uuid.New().String() + "@example.com",
			FullName: "Reupload Test User",
			Role:     entity.UserRoleUser,
		}
		assert.NoError(t, uow.UserRepository().Create(ctx, user))

		first := &entity.Prescription{
			Id:             uuid.New(),
			UserId:         user.Id,
			SourceFilename: "reupload.pdf",
			Title:          "Prescription: Reupload",
		}
		assert.NoError(t, uow.PrescriptionRepository().Create(ctx, first))
		assert.NoError(t, uow.PrescriptionRepository().Delete(ctx, first.Id))

		// The unique (user_id, source_filename) pair must be free again.
		second := &entity.Prescription{
			Id:             uuid.New(),
			UserId:         user.Id,
			SourceFilename: "reupload.pdf",
			Title:          "Prescription: Reupload",
		}
		assert.NoError(t, uow.PrescriptionRepository().Create(ctx, second))

		found, err := uow.PrescriptionRepository().FindOne(ctx,
			specification.UserOwnedBy{UserID: user.Id},
			specification.BySourceFilename{Filename: "reupload.pdf"},
		)
		assert.NoError(t, err)
		if assert.NotNil(t, found) {
			assert.Equal(t, second.Id, found.Id)
		}

		// Cleanup
		assert.NoError(t, uow.PrescriptionRepository().Delete(ctx, second.Id))
		assert.NoError(t, uow.UserRepository().Delete(ctx, user.Id))
	})
}
