package filter

import (
	"context"

	"github.com/kailas-cloud/glossameta/internal/domain/selection"
)

// SessionRepository persists the selection of each filter session.
type SessionRepository interface {
	Save(ctx context.Context, id string, sel selection.Selection) error
	Load(ctx context.Context, id string) (selection.Selection, error)
	Delete(ctx context.Context, id string) error
}
