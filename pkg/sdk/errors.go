package glossameta

import "github.com/kailas-cloud/glossameta/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrSessionNotFound = domain.ErrSessionNotFound
	ErrUnknownCategory = domain.ErrUnknownCategory
	ErrInvalidSchema   = domain.ErrInvalidSchema
	ErrInvalidDataset  = domain.ErrInvalidDataset
	ErrInvalidRange    = domain.ErrInvalidRange
	ErrIndexNotReady   = domain.ErrIndexNotReady
)
