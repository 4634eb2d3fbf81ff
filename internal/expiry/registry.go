package expiry

import (
	"context"
	"fmt"
	"sync"
)

// Registry hands out one Service per learning store key so that every
// request for the same user shares one lock
type Registry struct {
	mu       sync.Mutex
	store    Store
	opts     []Option
	services map[string]*Service
}

// NewRegistry creates a registry over a single Store backend
func NewRegistry(store Store, opts ...Option) *Registry {
	return &Registry{
		store:    store,
		opts:     opts,
		services: make(map[string]*Service),
	}
}

// UserKey is the store key for a user's learning data
func UserKey(userID int) string {
	return fmt.Sprintf("expiry_learning:%d", userID)
}

// For returns the service for a key, creating it on first use
func (r *Registry) For(key string) *Service {
	r.mu.Lock()
	defer r.mu.Unlock()

	if svc, ok := r.services[key]; ok {
		return svc
	}
	svc := New(r.store, key, r.opts...)
	r.services[key] = svc
	return svc
}

// ForUser is For(UserKey(userID))
func (r *Registry) ForUser(userID int) *Service {
	return r.For(UserKey(userID))
}

// Forget drops the cached service for a user. The next ForUser builds a
// fresh one.
func (r *Registry) Forget(userID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.services, UserKey(userID))
}

// CleanupAll runs Cleanup on every persisted store. It returns the number of
// stores visited, including those swept before ctx was cancelled; backends
// that cannot list keys visit none.
func (r *Registry) CleanupAll(ctx context.Context, maxAgeDays int) (int, error) {
	lister, ok := r.store.(KeyLister)
	if !ok {
		return 0, nil
	}

	keys, err := lister.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("list learning stores: %w", err)
	}

	visited := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return visited, err
		}
		r.For(key).Cleanup(ctx, maxAgeDays)
		visited++
	}
	return visited, nil
}
