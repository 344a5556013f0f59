package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/glossameta/internal/db"
	"github.com/kailas-cloud/glossameta/internal/domain"
	"github.com/kailas-cloud/glossameta/internal/domain/selection"
)

// store is the consumer interface for session persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Repo stores one selection per session id, expiring idle sessions.
type Repo struct {
	store  store
	prefix string
	ttl    time.Duration
}

// New creates a session repository.
// Keys are <prefix>session:<id>; every read or write extends the TTL.
func New(s store, prefix string, ttl time.Duration) *Repo {
	return &Repo{store: s, prefix: prefix, ttl: ttl}
}

// Save replaces the stored selection of a session.
func (r *Repo) Save(ctx context.Context, id string, sel selection.Selection) error {
	data, err := json.Marshal(selectionToDTO(sel))
	if err != nil {
		return fmt.Errorf("marshal selection: %w", err)
	}
	if err := r.store.SetWithTTL(ctx, r.key(id), data, r.ttl); err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return nil
}

// Load returns the stored selection of a session.
func (r *Repo) Load(ctx context.Context, id string) (selection.Selection, error) {
	key := r.key(id)
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return selection.Selection{}, domain.ErrSessionNotFound
		}
		return selection.Selection{}, fmt.Errorf("load session %s: %w", id, err)
	}

	var dto selectionDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return selection.Selection{}, fmt.Errorf("decode session %s: %w", id, err)
	}

	// Sliding expiry; losing the race against expiry is harmless because the
	// selection has already been read.
	if err := r.store.Expire(ctx, key, r.ttl); err != nil && !errors.Is(err, db.ErrKeyNotFound) {
		return selection.Selection{}, fmt.Errorf("touch session %s: %w", id, err)
	}

	return selectionFromDTO(dto), nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.key(id)); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (r *Repo) key(id string) string {
	return r.prefix + "session:" + id
}
