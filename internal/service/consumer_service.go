package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"medibuddy-be/internal/dto"
	"medibuddy-be/internal/entity"
	"medibuddy-be/internal/repository/specification"
	"medibuddy-be/internal/repository/unitofwork"
	"medibuddy-be/pkg/embedding"
	"medibuddy-be/pkg/events"
	pktNats "medibuddy-be/pkg/nats"
	"medibuddy-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    *pktNats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher *pktNats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedPrescriptionMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing embedding for PrescriptionId: %s", payload.PrescriptionId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	prescription, err := uow.PrescriptionRepository().FindOne(ctx, specification.ByID{ID: payload.PrescriptionId})
	if err != nil {
		log.Printf("[ERROR] Failed to get prescription %s: %v", payload.PrescriptionId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if prescription == nil {
		log.Printf("[ERROR] Prescription not found: %s", payload.PrescriptionId)
		msg.Ack() // Deleted before indexing? Ack.
		return
	}

	content := fmt.Sprintf("Prescription: %s\nFile: %s\n\n%s",
		prescription.Title,
		prescription.SourceFilename,
		prescription.Details,
	)

	log.Printf("[INFO] Generating embeddings for prescription %s (content length: %d)", payload.PrescriptionId, len(content))

	// ChunkSize: 1500 chars (approx 375 tokens), Overlap: 200 chars
	chunks := utils.SplitText(content, 1500, 200)
	log.Printf("[INFO] Content split into %d chunks", len(chunks))

	var newEmbeddings []*entity.PrescriptionEmbedding

	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(ctx, chunk, embedding.TaskRetrievalDocument)
		if err != nil {
			log.Printf("[ERROR] Failed to generate embedding for chunk %d of prescription %s: %v", i, payload.PrescriptionId, err)
			msg.Nack()
			return
		}

		newEmbeddings = append(newEmbeddings, &entity.PrescriptionEmbedding{
			Id:             uuid.New(),
			Document:       chunk,
			EmbeddingValue: res.Embedding.Values,
			PrescriptionId: prescription.Id,
			UserId:         prescription.UserId,
			ChunkIndex:     i,
			SourceFilename: prescription.SourceFilename,
			CreatedAt:      time.Now(),
		})
	}

	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	log.Printf("[INFO] Deleting old embeddings for prescription %s", payload.PrescriptionId)
	if err := uow.PrescriptionEmbeddingRepository().DeleteByPrescriptionId(ctx, prescription.Id); err != nil {
		log.Printf("[ERROR] Failed to delete old embeddings: %v", err)
		msg.Nack()
		return
	}

	log.Printf("[INFO] Creating %d new embeddings for prescription %s", len(newEmbeddings), payload.PrescriptionId)
	if len(newEmbeddings) > 0 {
		if err := uow.PrescriptionEmbeddingRepository().CreateBulk(ctx, newEmbeddings); err != nil {
			log.Printf("[ERROR] Failed to create bulk embeddings: %v", err)
			msg.Nack()
			return
		}
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit transaction: %v", err)
		msg.Nack()
		return
	}

	// Indexing finished, let the notification system know.
	if cs.eventPublisher != nil {
		evt := events.NewPrescriptionIndexed(
			prescription.UserId.String(),
			prescription.Id.String(),
			prescription.Title,
			len(newEmbeddings),
		)
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish PRESCRIPTION_INDEXED event: %v", err)
		}
	}

	log.Printf("[SUCCESS] Prescription indexed: %d chunks for PrescriptionId: %s", len(newEmbeddings), payload.PrescriptionId)
	msg.Ack()
}
