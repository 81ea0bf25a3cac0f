package credentials

import (
	"context"
	"fmt"
	"sync"

	hubErrors "github.com/jrsteele09/sekai-hub/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu     sync.RWMutex
	scopes map[string]map[string]string // scope -> key -> value
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		scopes: make(map[string]map[string]string),
	}
}

func (r *InMemoryRepo) Get(_ context.Context, scope, key string) (string, error) {
	if scope == "" {
		return "", fmt.Errorf("scope is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.scopes[scope][key]
	if !ok {
		return "", hubErrors.ErrNotFound
	}
	return v, nil
}

func (r *InMemoryRepo) Set(_ context.Context, scope, key, value string) error {
	if scope == "" {
		return fmt.Errorf("scope is required")
	}
	if key == "" {
		return fmt.Errorf("key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.scopes[scope]; !ok {
		r.scopes[scope] = make(map[string]string)
	}
	r.scopes[scope][key] = value
	return nil
}

func (r *InMemoryRepo) Delete(_ context.Context, scope string, keys ...string) error {
	if scope == "" {
		return fmt.Errorf("scope is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	values, ok := r.scopes[scope]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(values, k)
	}

	// Clean up empty scope map
	if len(values) == 0 {
		delete(r.scopes, scope)
	}
	return nil
}
