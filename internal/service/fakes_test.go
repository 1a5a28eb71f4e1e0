package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"medibuddy-be/internal/entity"
	"medibuddy-be/internal/repository/contract"
	"medibuddy-be/internal/repository/specification"
	"medibuddy-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// In-memory unit of work used by the service tests. The fake repositories
// interpret the small set of specifications the services actually use.

type fakeStore struct {
	mu            sync.Mutex
	users         map[uuid.UUID]*entity.User
	prescriptions map[uuid.UUID]*entity.Prescription
	sessions      map[uuid.UUID]*entity.ChatSession
	messages      []*entity.ChatMessage

	failMessageCreateAfter int // fail the nth Create call, 0 = never
	messageCreates         int

	// When set, the next session Create fails as if a concurrent request
	// won the unique index, and the winner's row appears in the store.
	sessionCreateConflict *entity.ChatSession
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         make(map[uuid.UUID]*entity.User),
		prescriptions: make(map[uuid.UUID]*entity.Prescription),
		sessions:      make(map[uuid.UUID]*entity.ChatSession),
	}
}

type fakeUowFactory struct {
	store *fakeStore
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

type fakeUow struct {
	store          *fakeStore
	inTx           bool
	messagesBackup []*entity.ChatMessage
}

func (u *fakeUow) Begin(ctx context.Context) error {
	if u.inTx {
		return errors.New("transaction already started")
	}
	u.inTx = true
	u.messagesBackup = append([]*entity.ChatMessage(nil), u.store.messages...)
	return nil
}

func (u *fakeUow) Commit() error {
	if !u.inTx {
		return errors.New("no transaction to commit")
	}
	u.inTx = false
	u.messagesBackup = nil
	return nil
}

func (u *fakeUow) Rollback() error {
	if !u.inTx {
		return errors.New("no transaction to rollback")
	}
	u.inTx = false
	u.store.messages = u.messagesBackup
	u.messagesBackup = nil
	return nil
}

func (u *fakeUow) UserRepository() contract.UserRepository {
	return &fakeUserRepo{store: u.store}
}

func (u *fakeUow) PrescriptionRepository() contract.PrescriptionRepository {
	return &fakePrescriptionRepo{store: u.store}
}

func (u *fakeUow) PrescriptionEmbeddingRepository() contract.PrescriptionEmbeddingRepository {
	return &fakeEmbeddingRepo{store: u.store}
}

func (u *fakeUow) ChatSessionRepository() contract.ChatSessionRepository {
	return &fakeSessionRepo{store: u.store}
}

func (u *fakeUow) ChatMessageRepository() contract.ChatMessageRepository {
	return &fakeMessageRepo{store: u.store}
}

// Users

type fakeUserRepo struct{ store *fakeStore }

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.users[user.Id] = user
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	return r.Create(ctx, user)
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.users, id)
	return nil
}

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if matchUser(u, specs) {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.User
	for _, u := range r.store.users {
		if matchUser(u, specs) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func matchUser(u *entity.User, specs []specification.Specification) bool {
	for _, sp := range specs {
		switch v := sp.(type) {
		case specification.ByID:
			if u.Id != v.ID {
				return false
			}
		case specification.ByEmail:
			if u.Email != v.Email {
				return false
			}
		}
	}
	return true
}

// Prescriptions

type fakePrescriptionRepo struct{ store *fakeStore }

func (r *fakePrescriptionRepo) Create(ctx context.Context, p *entity.Prescription) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.prescriptions[p.Id] = p
	return nil
}

func (r *fakePrescriptionRepo) Update(ctx context.Context, p *entity.Prescription) error {
	return r.Create(ctx, p)
}

func (r *fakePrescriptionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.prescriptions, id)
	return nil
}

func (r *fakePrescriptionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Prescription, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.prescriptions {
		if matchPrescription(p, specs) {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePrescriptionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Prescription, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Prescription
	for _, p := range r.store.prescriptions {
		if matchPrescription(p, specs) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePrescriptionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func matchPrescription(p *entity.Prescription, specs []specification.Specification) bool {
	for _, sp := range specs {
		switch v := sp.(type) {
		case specification.ByID:
			if p.Id != v.ID {
				return false
			}
		case specification.UserOwnedBy:
			if p.UserId != v.UserID {
				return false
			}
		case specification.BySourceFilename:
			if p.SourceFilename != v.Filename {
				return false
			}
		}
	}
	return true
}

// Embeddings

type fakeEmbeddingRepo struct{ store *fakeStore }

func (r *fakeEmbeddingRepo) Create(ctx context.Context, e *entity.PrescriptionEmbedding) error {
	return nil
}

func (r *fakeEmbeddingRepo) CreateBulk(ctx context.Context, es []*entity.PrescriptionEmbedding) error {
	return nil
}

func (r *fakeEmbeddingRepo) DeleteByPrescriptionId(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (r *fakeEmbeddingRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PrescriptionEmbedding, error) {
	return nil, nil
}

func (r *fakeEmbeddingRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}

func (r *fakeEmbeddingRepo) SearchSimilarChunks(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, prescriptionId *uuid.UUID) ([]*contract.ScoredPrescriptionEmbedding, error) {
	return nil, nil
}

// Sessions

type fakeSessionRepo struct{ store *fakeStore }

func (r *fakeSessionRepo) Create(ctx context.Context, s *entity.ChatSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if winner := r.store.sessionCreateConflict; winner != nil {
		r.store.sessionCreateConflict = nil
		r.store.sessions[winner.Id] = winner
		return errors.New("duplicate key value violates unique constraint")
	}
	r.store.sessions[s.Id] = s
	return nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, s *entity.ChatSession) error {
	return r.Create(ctx, s)
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.sessions, id)
	return nil
}

func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.sessions {
		if matchSession(s, specs) {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.ChatSession
	for _, s := range r.store.sessions {
		if matchSession(s, specs) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func matchSession(s *entity.ChatSession, specs []specification.Specification) bool {
	for _, sp := range specs {
		switch v := sp.(type) {
		case specification.ByID:
			if s.Id != v.ID {
				return false
			}
		case specification.UserOwnedBy:
			if s.UserId != v.UserID {
				return false
			}
		case specification.ByPrescriptionID:
			if s.PrescriptionId == nil || *s.PrescriptionId != v.PrescriptionID {
				return false
			}
		case specification.GlobalSessionOnly:
			if s.PrescriptionId != nil {
				return false
			}
		}
	}
	return true
}

// Messages

type fakeMessageRepo struct{ store *fakeStore }

func (r *fakeMessageRepo) Create(ctx context.Context, m *entity.ChatMessage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.messageCreates++
	if r.store.failMessageCreateAfter > 0 && r.store.messageCreates >= r.store.failMessageCreateAfter {
		return errors.New("message create failed")
	}
	r.store.messages = append(r.store.messages, m)
	return nil
}

func (r *fakeMessageRepo) Update(ctx context.Context, m *entity.ChatMessage) error {
	return nil
}

func (r *fakeMessageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (r *fakeMessageRepo) DeleteByChatSessionId(ctx context.Context, sessionId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var kept []*entity.ChatMessage
	for _, m := range r.store.messages {
		if m.ChatSessionId != sessionId {
			kept = append(kept, m)
		}
	}
	r.store.messages = kept
	return nil
}

func (r *fakeMessageRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*entity.ChatMessage
	desc := false
	for _, m := range r.store.messages {
		if matchMessage(m, specs) {
			out = append(out, m)
		}
	}
	for _, sp := range specs {
		if v, ok := sp.(specification.OrderBy); ok && v.Field == "sequence" {
			desc = v.Desc
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return out[i].Sequence > out[j].Sequence
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out, nil
}

func (r *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func (r *fakeMessageRepo) MaxSequence(ctx context.Context, sessionId uuid.UUID) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	max := 0
	for _, m := range r.store.messages {
		if m.ChatSessionId == sessionId && m.Sequence > max {
			max = m.Sequence
		}
	}
	return max, nil
}

func matchMessage(m *entity.ChatMessage, specs []specification.Specification) bool {
	for _, sp := range specs {
		switch v := sp.(type) {
		case specification.ByChatSessionID:
			if m.ChatSessionId != v.ChatSessionID {
				return false
			}
		}
	}
	return true
}
