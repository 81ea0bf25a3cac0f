package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	hubErrors "github.com/jrsteele09/sekai-hub/internal/errors"
)

var _ Repo = (*FileRepo)(nil)

// FileRepo keeps every scope in a single JSON document on disk. The whole
// document is rewritten on each mutation via a temp file and rename.
type FileRepo struct {
	mu     sync.RWMutex
	path   string
	scopes map[string]map[string]string
}

// NewFileRepo opens (or creates on first write) the credentials file at path.
func NewFileRepo(path string) (*FileRepo, error) {
	r := &FileRepo{
		path:   path,
		scopes: make(map[string]map[string]string),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, hubErrors.Wrapf(err, "[credentials NewFileRepo] read %s", path)
	}
	if len(data) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(data, &r.scopes); err != nil {
		return nil, hubErrors.Wrapf(err, "[credentials NewFileRepo] parse %s", path)
	}
	return r, nil
}

func (r *FileRepo) Get(_ context.Context, scope, key string) (string, error) {
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

func (r *FileRepo) Set(_ context.Context, scope, key, value string) error {
	if scope == "" {
		return fmt.Errorf("scope is required")
	}
	if key == "" {
		return fmt.Errorf("key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.cloneScopes()
	if _, ok := next[scope]; !ok {
		next[scope] = make(map[string]string)
	}
	next[scope][key] = value
	return r.commit(next)
}

func (r *FileRepo) Delete(_ context.Context, scope string, keys ...string) error {
	if scope == "" {
		return fmt.Errorf("scope is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.scopes[scope]; !ok {
		return nil
	}
	next := r.cloneScopes()
	for _, k := range keys {
		delete(next[scope], k)
	}
	if len(next[scope]) == 0 {
		delete(next, scope)
	}
	return r.commit(next)
}

// cloneScopes must be called with mu held.
func (r *FileRepo) cloneScopes() map[string]map[string]string {
	next := make(map[string]map[string]string, len(r.scopes))
	for scope, values := range r.scopes {
		copied := make(map[string]string, len(values))
		for k, v := range values {
			copied[k] = v
		}
		next[scope] = copied
	}
	return next
}

// commit writes next to disk and only then makes it visible to readers, so a
// failed write leaves the repo as it was. It must be called with mu held.
func (r *FileRepo) commit(next map[string]map[string]string) error {
	if err := r.flush(next); err != nil {
		return err
	}
	r.scopes = next
	return nil
}

func (r *FileRepo) flush(scopes map[string]map[string]string) error {
	data, err := json.MarshalIndent(scopes, "", "  ")
	if err != nil {
		return hubErrors.Wrapf(err, "[credentials FileRepo] encode")
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return hubErrors.Wrapf(err, "[credentials FileRepo] mkdir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return hubErrors.Wrapf(err, "[credentials FileRepo] create temp")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return hubErrors.Wrapf(err, "[credentials FileRepo] write")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return hubErrors.Wrapf(err, "[credentials FileRepo] chmod")
	}
	if err := tmp.Close(); err != nil {
		return hubErrors.Wrapf(err, "[credentials FileRepo] close")
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return hubErrors.Wrapf(err, "[credentials FileRepo] rename")
	}
	return nil
}
