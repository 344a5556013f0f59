package glossameta

import (
	"context"
	"fmt"

	filteruc "github.com/kailas-cloud/glossameta/internal/usecase/filter"
)

// SessionService edits selections stored under a session id. Every call
// returns the re-evaluated result.
type SessionService struct {
	svc sessionUseCase
	obs *observer
}

// Create starts a session from the initial selection.
func (s *SessionService) Create(ctx context.Context) (Result, error) {
	return s.run("session.create", "", func() (filteruc.Result, error) {
		return s.svc.CreateSession(ctx)
	})
}

// Get evaluates the stored selection.
func (s *SessionService) Get(ctx context.Context, id string) (Result, error) {
	return s.run("session.get", "", func() (filteruc.Result, error) {
		return s.svc.Session(ctx, id)
	})
}

// Delete removes the session.
func (s *SessionService) Delete(ctx context.Context, id string) (err error) {
	call := startCall("session.delete", "")
	defer func() { s.obs.observe(call, err) }()

	if err = s.svc.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("session.delete: %w", err)
	}
	return nil
}

// AddValue selects v in the category.
func (s *SessionService) AddValue(ctx context.Context, id, categoryKey string, v Value) (Result, error) {
	return s.run("session.add_value", categoryKey, func() (filteruc.Result, error) {
		return s.svc.AddValue(ctx, id, categoryKey, v)
	})
}

// RemoveValue deselects v in the category.
func (s *SessionService) RemoveValue(ctx context.Context, id, categoryKey string, v Value) (Result, error) {
	return s.run("session.remove_value", categoryKey, func() (filteruc.Result, error) {
		return s.svc.RemoveValue(ctx, id, categoryKey, v)
	})
}

// SetRange selects the integers in [lo, hi] of an interval category and
// keeps null selected if it was.
func (s *SessionService) SetRange(ctx context.Context, id, categoryKey string, lo, hi int) (Result, error) {
	return s.run("session.set_range", categoryKey, func() (filteruc.Result, error) {
		return s.svc.SetRange(ctx, id, categoryKey, lo, hi)
	})
}

// Clear drops the category so it no longer constrains the result.
func (s *SessionService) Clear(ctx context.Context, id, categoryKey string) (Result, error) {
	return s.run("session.clear", categoryKey, func() (filteruc.Result, error) {
		return s.svc.ClearCategory(ctx, id, categoryKey)
	})
}

// Reset keeps the category with no values, so it matches nothing.
func (s *SessionService) Reset(ctx context.Context, id, categoryKey string) (Result, error) {
	return s.run("session.reset", categoryKey, func() (filteruc.Result, error) {
		return s.svc.ResetCategory(ctx, id, categoryKey)
	})
}

// SelectArea replaces the location selection with the locations inside area.
func (s *SessionService) SelectArea(ctx context.Context, id string, area Area) (Result, error) {
	return s.run("session.select_area", "", func() (filteruc.Result, error) {
		return s.svc.SelectArea(ctx, id, toInternalArea(area))
	})
}

func (s *SessionService) run(op, categoryKey string, fn func() (filteruc.Result, error)) (_ Result, err error) {
	call := startCall(op, categoryKey)
	defer func() { s.obs.observe(call, err) }()

	res, err := fn()
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	call = call.matched(res.RecordCount)
	return fromInternalResult(res), nil
}
