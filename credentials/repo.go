package credentials

import "context"

// Repo is origin-scoped durable key-value persistence. A scope identifies one
// browser; keys inside a scope are the well-known credential keys.
//
// Get returns errors.ErrNotFound when the key is absent. Delete of an absent key
// is not an error.
type Repo interface {
	Get(ctx context.Context, scope, key string) (string, error)
	Set(ctx context.Context, scope, key, value string) error
	Delete(ctx context.Context, scope string, keys ...string) error
}
