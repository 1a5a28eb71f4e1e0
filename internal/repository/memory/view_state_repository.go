package memory

import (
	"time"

	"medibuddy-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// ViewStateRepository keeps the per-user UI view state (library vs chat,
// active session, preferred language) in process memory.
type ViewStateRepository struct {
	cache *cache.Cache
}

func NewViewStateRepository() *ViewStateRepository {
	// Default expiration of 1 hour, purge expired entries every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &ViewStateRepository{
		cache: c,
	}
}

func (r *ViewStateRepository) Save(state *store.ViewState) {
	r.cache.Set(state.UserID, state, cache.DefaultExpiration)
}

func (r *ViewStateRepository) Get(userID string) (*store.ViewState, bool) {
	if x, found := r.cache.Get(userID); found {
		return x.(*store.ViewState), true
	}
	return nil, false
}

func (r *ViewStateRepository) Delete(userID string) {
	r.cache.Delete(userID)
}
