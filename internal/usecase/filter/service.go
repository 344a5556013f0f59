package filter

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/glossameta/internal/domain"
	"github.com/kailas-cloud/glossameta/internal/domain/category"
	"github.com/kailas-cloud/glossameta/internal/domain/dataset"
	"github.com/kailas-cloud/glossameta/internal/domain/geo"
	"github.com/kailas-cloud/glossameta/internal/domain/menu"
	"github.com/kailas-cloud/glossameta/internal/domain/selection"
	"github.com/kailas-cloud/glossameta/internal/domain/setindex"
	"github.com/kailas-cloud/glossameta/internal/metrics"
)

const lockStripes = 64

// snapshot is everything derived from one dataset load.
type snapshot struct {
	index    *setindex.Index
	menu     []menu.Entry
	initial  selection.Selection
	coords   geo.Coordinates
	loadedAt time.Time
}

// Service evaluates selections against the current index and keeps
// per-session selections.
type Service struct {
	schema    category.Schema
	sessions  SessionRepository
	logger    *zap.Logger
	nullToken string
	newID     func() string

	current atomic.Pointer[snapshot]
	locks   [lockStripes]sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithNullToken sets the dataset cell content that means "no value".
func WithNullToken(token string) Option {
	return func(s *Service) { s.nullToken = token }
}

// WithIDGenerator overrides session id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// New creates a filter service. No index is loaded until Load succeeds.
func New(schema category.Schema, sessions SessionRepository, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		schema:    schema,
		sessions:  sessions,
		logger:    logger,
		nullToken: setindex.DefaultNullToken,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load indexes a dataset and atomically replaces the current index.
// Readers keep the previous snapshot until the swap.
func (s *Service) Load(ds dataset.Dataset, coords geo.Coordinates) error {
	start := time.Now()
	ix, err := setindex.Build(ds, s.schema, setindex.WithNullToken(s.nullToken))
	if err != nil {
		metrics.IndexReloadsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("build index: %w", err)
	}

	entries := menu.Build(ix)
	snap := &snapshot{
		index:    ix,
		menu:     entries,
		initial:  menu.InitialSelection(ix, entries),
		coords:   coords,
		loadedAt: time.Now(),
	}
	s.current.Store(snap)

	metrics.IndexReloadsTotal.WithLabelValues("ok").Inc()
	metrics.IndexRecords.Set(float64(ix.Len()))
	s.logger.Info("Index loaded",
		zap.Int("records", ix.Len()),
		zap.Int("categories", len(s.schema.Categories())),
		zap.Int("coordinates", len(coords)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// HealthCheck fails until an index has been loaded.
func (s *Service) HealthCheck(_ context.Context) error {
	if s.current.Load() == nil {
		return domain.ErrIndexNotReady
	}
	return nil
}

// LoadedAt returns when the current index was built.
func (s *Service) LoadedAt() (time.Time, bool) {
	snap := s.current.Load()
	if snap == nil {
		return time.Time{}, false
	}
	return snap.loadedAt, true
}

// Menu returns the menu of the current index.
func (s *Service) Menu() ([]menu.Entry, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.menu, nil
}

// InitialSelection returns the all-selected starting state.
func (s *Service) InitialSelection() (selection.Selection, error) {
	snap, err := s.snapshot()
	if err != nil {
		return selection.Selection{}, err
	}
	return snap.initial, nil
}

// Markers returns the map markers for a selection.
func (s *Service) Markers(sel selection.Selection) ([]Marker, error) {
	res, err := s.Evaluate(sel)
	if err != nil {
		return nil, err
	}
	return res.Markers, nil
}

// Evaluate runs a selection against the current index without touching sessions.
func (s *Service) Evaluate(sel selection.Selection) (Result, error) {
	snap, err := s.snapshot()
	if err != nil {
		return Result{}, err
	}
	return s.evaluate(snap, "evaluate", sel)
}

// CreateSession starts a session at the initial selection.
func (s *Service) CreateSession(ctx context.Context) (Result, error) {
	snap, err := s.snapshot()
	if err != nil {
		return Result{}, err
	}

	id := s.newID()
	if err = s.sessions.Save(ctx, id, snap.initial); err != nil {
		return Result{}, fmt.Errorf("create session: %w", err)
	}
	metrics.SessionsCreatedTotal.Inc()

	res, err := s.evaluate(snap, "create_session", snap.initial)
	if err != nil {
		return Result{}, err
	}
	res.SessionID = id
	return res, nil
}

// Session evaluates the stored selection of a session.
func (s *Service) Session(ctx context.Context, id string) (Result, error) {
	snap, err := s.snapshot()
	if err != nil {
		return Result{}, err
	}
	sel, err := s.sessions.Load(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("load session: %w", err)
	}
	res, err := s.evaluate(snap, "session", sel)
	if err != nil {
		return Result{}, err
	}
	res.SessionID = id
	return res, nil
}

// DeleteSession removes a session.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// AddValue adds a value to a category of the session selection.
func (s *Service) AddValue(ctx context.Context, id, categoryKey string, v category.Value) (Result, error) {
	return s.mutate(ctx, id, categoryKey, "add_value",
		func(_ *snapshot, sel selection.Selection) (selection.Selection, error) {
			return sel.AddValue(categoryKey, v), nil
		})
}

// RemoveValue removes a value from a category of the session selection.
func (s *Service) RemoveValue(ctx context.Context, id, categoryKey string, v category.Value) (Result, error) {
	return s.mutate(ctx, id, categoryKey, "remove_value",
		func(_ *snapshot, sel selection.Selection) (selection.Selection, error) {
			return sel.RemoveValue(categoryKey, v), nil
		})
}

// SetRange replaces the integer values of an interval category with lo..hi.
// The null flag of the category is kept.
func (s *Service) SetRange(ctx context.Context, id, categoryKey string, lo, hi int) (Result, error) {
	return s.mutate(ctx, id, categoryKey, "set_range",
		func(snap *snapshot, sel selection.Selection) (selection.Selection, error) {
			c, _ := s.schema.Category(categoryKey)
			if c.Kind() != category.Interval {
				return selection.Selection{}, fmt.Errorf(
					"%w: category %q is %s", domain.ErrInvalidRange, categoryKey, c.Kind(),
				)
			}
			return sel.SetRange(categoryKey, lo, hi, snap.index), nil
		})
}

// ClearCategory drops a category from the selection so it no longer constrains.
func (s *Service) ClearCategory(ctx context.Context, id, categoryKey string) (Result, error) {
	return s.mutate(ctx, id, categoryKey, "clear",
		func(_ *snapshot, sel selection.Selection) (selection.Selection, error) {
			return sel.Clear(categoryKey), nil
		})
}

// ResetCategory empties a category, which then matches nothing.
func (s *Service) ResetCategory(ctx context.Context, id, categoryKey string) (Result, error) {
	return s.mutate(ctx, id, categoryKey, "reset",
		func(_ *snapshot, sel selection.Selection) (selection.Selection, error) {
			return sel.Reset(categoryKey), nil
		})
}

// SelectArea replaces the location selection with the locations inside area.
// An empty area restores every location.
func (s *Service) SelectArea(ctx context.Context, id string, area geo.Area) (Result, error) {
	loc := s.schema.LocationCategory()
	if loc == "" {
		return Result{}, fmt.Errorf("select area: %w", domain.NewUnknownCategory("location"))
	}
	return s.mutate(ctx, id, loc, "select_area",
		func(snap *snapshot, sel selection.Selection) (selection.Selection, error) {
			sel = sel.Reset(loc)
			if area.IsEmpty() && snap.index.HasNull(loc) {
				sel = sel.AddValue(loc, category.Null)
			}
			for _, l := range area.Locations(snap.coords) {
				sel = sel.AddValue(loc, category.String(l))
			}
			return sel, nil
		})
}

type mutation func(snap *snapshot, sel selection.Selection) (selection.Selection, error)

// mutate loads, edits and stores one session selection under its stripe lock.
func (s *Service) mutate(ctx context.Context, id, categoryKey, op string, fn mutation) (Result, error) {
	snap, err := s.snapshot()
	if err != nil {
		return Result{}, err
	}
	if !s.schema.Has(categoryKey) {
		return Result{}, domain.NewUnknownCategory(categoryKey)
	}

	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	sel, err := s.sessions.Load(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("load session: %w", err)
	}
	next, err := fn(snap, sel)
	if err != nil {
		return Result{}, err
	}
	res, err := s.evaluate(snap, op, next)
	if err != nil {
		return Result{}, err
	}
	if err = s.sessions.Save(ctx, id, next); err != nil {
		return Result{}, fmt.Errorf("save session: %w", err)
	}

	s.logger.Debug("Session updated",
		zap.String("session_id", id),
		zap.String("operation", op),
		zap.String("category", categoryKey),
		zap.Int("records", res.RecordCount),
	)
	res.SessionID = id
	return res, nil
}

func (s *Service) evaluate(snap *snapshot, op string, sel selection.Selection) (Result, error) {
	start := time.Now()
	set, err := snap.index.Select(sel)
	metrics.FilterEvaluationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FilterEvaluationsTotal.WithLabelValues(op, "error").Inc()
		return Result{}, fmt.Errorf("evaluate selection: %w", err)
	}
	metrics.FilterEvaluationsTotal.WithLabelValues(op, "ok").Inc()

	records := snap.index.Records(set)
	locations := snap.index.Locations(set)
	metrics.FilterResultRecords.Observe(float64(len(records)))

	return Result{
		Selection:     sel,
		RecordIDs:     records,
		Locations:     locations,
		RecordCount:   len(records),
		LocationCount: len(locations),
		Markers:       buildMarkers(snap.coords, s.schema.LocationCategory(), sel, locations),
	}, nil
}

func (s *Service) snapshot() (*snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, domain.ErrIndexNotReady
	}
	return snap, nil
}

func (s *Service) lockFor(id string) *sync.Mutex {
	return &s.locks[xxhash.Sum64String(id)%lockStripes]
}
