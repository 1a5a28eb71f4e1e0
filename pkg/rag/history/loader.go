package history

import (
	"context"

	"medibuddy-be/internal/constant"
	"medibuddy-be/internal/repository/specification"
	"medibuddy-be/internal/repository/unitofwork"
	"medibuddy-be/pkg/llm"

	"github.com/google/uuid"
)

// Loader fetches recent conversation turns for LLM context.
type Loader struct {
	uowFactory unitofwork.RepositoryFactory
}

// NewLoader creates a new history loader
func NewLoader(uowFactory unitofwork.RepositoryFactory) *Loader {
	return &Loader{
		uowFactory: uowFactory,
	}
}

// LoadConversationHistory returns the last `limit` messages of a session in
// chronological order, mapped to provider-agnostic messages.
func (l *Loader) LoadConversationHistory(ctx context.Context, sessionId uuid.UUID, limit int) ([]llm.Message, error) {
	uow := l.uowFactory.NewUnitOfWork(ctx)

	msgs, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "sequence", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}

	// Newest-first from the query; flip back to chronological.
	messages := make([]llm.Message, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		msg := msgs[i]

		role := "user"
		if msg.Role == constant.ChatMessageRoleAssistant {
			role = "assistant"
		}
		messages = append(messages, llm.Message{
			Role:    role,
			Content: msg.Content,
		})
	}

	return messages, nil
}
