package glossameta

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/glossameta/internal/db"
	"github.com/kailas-cloud/glossameta/internal/db/memory"
	dbRedis "github.com/kailas-cloud/glossameta/internal/db/redis"
	"github.com/kailas-cloud/glossameta/internal/domain/category"
	domds "github.com/kailas-cloud/glossameta/internal/domain/dataset"
	"github.com/kailas-cloud/glossameta/internal/domain/geo"
	"github.com/kailas-cloud/glossameta/internal/domain/menu"
	"github.com/kailas-cloud/glossameta/internal/domain/selection"
	datasetrepo "github.com/kailas-cloud/glossameta/internal/repository/dataset"
	sessionrepo "github.com/kailas-cloud/glossameta/internal/repository/session"
	filteruc "github.com/kailas-cloud/glossameta/internal/usecase/filter"
	healthuc "github.com/kailas-cloud/glossameta/internal/usecase/health"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultIDColumn         = "tid"
)

// Internal interfaces for substitution in tests.
type filterUseCase interface {
	Load(ds domds.Dataset, coords geo.Coordinates) error
	Menu() ([]menu.Entry, error)
	InitialSelection() (selection.Selection, error)
	Evaluate(sel selection.Selection) (filteruc.Result, error)
	sessionUseCase
}

type sessionUseCase interface {
	CreateSession(ctx context.Context) (filteruc.Result, error)
	Session(ctx context.Context, id string) (filteruc.Result, error)
	DeleteSession(ctx context.Context, id string) error
	AddValue(ctx context.Context, id, categoryKey string, v category.Value) (filteruc.Result, error)
	RemoveValue(ctx context.Context, id, categoryKey string, v category.Value) (filteruc.Result, error)
	SetRange(ctx context.Context, id, categoryKey string, lo, hi int) (filteruc.Result, error)
	ClearCategory(ctx context.Context, id, categoryKey string) (filteruc.Result, error)
	ResetCategory(ctx context.Context, id, categoryKey string) (filteruc.Result, error)
	SelectArea(ctx context.Context, id string, area geo.Area) (filteruc.Result, error)
}

// Client is the glossameta SDK entry point.
type Client struct {
	store     db.Store
	idColumn  string
	filter    filterUseCase
	healthSvc healthUseCase
	obs       *observer

	closeOnce sync.Once
}

// New creates a Client and connects to the session store. Sessions are kept
// in process memory unless WithRedis or WithValkey is given. The provided
// context is used for the initial readiness check.
func New(ctx context.Context, schema Schema, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if schema.IDColumn == "" {
		schema.IDColumn = defaultIDColumn
	}
	internal, err := toInternalSchema(schema)
	if err != nil {
		return nil, fmt.Errorf("glossameta: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("glossameta: session store not ready: %w", err)
	}

	return wireClient(store, internal, cfg, obs), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "memory":
		return memory.NewStore(), nil
	case "valkey", "redis":
		if len(cfg.addrs) == 0 || cfg.addrs[0] == "" {
			return nil, fmt.Errorf("glossameta: %s address required", cfg.driver)
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Username: cfg.username,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("glossameta: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("glossameta: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, schema category.Schema, cfg *clientConfig, obs *observer) *Client {
	sessions := sessionrepo.New(store, cfg.keyPrefix, cfg.sessionTTL)
	filterSvc := filteruc.New(schema, sessions, zap.NewNop(), filteruc.WithNullToken(cfg.nullToken))

	return &Client{
		store:     store,
		idColumn:  schema.IDColumn(),
		filter:    filterSvc,
		healthSvc: healthuc.New(store, filterSvc),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if c.store != nil {
			c.store.Close()
		}
	})
}

// Ping checks session store connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	call := startCall("ping", "")
	defer func() { c.obs.observe(call, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// LoadFiles reads the metadata table and, when coordsPath is not empty,
// the location coordinates, then swaps in a fresh index. On error the
// previously loaded index stays in place.
func (c *Client) LoadFiles(ctx context.Context, metadataPath, coordsPath string) (err error) {
	call := startCall("load", "")
	defer func() { c.obs.observe(call, err) }()

	var (
		ds     domds.Dataset
		coords geo.Coordinates
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ds, err = datasetrepo.LoadTSV(metadataPath, c.idColumn)
		return err
	})
	if coordsPath != "" {
		g.Go(func() error {
			var err error
			coords, err = datasetrepo.LoadCoordinates(coordsPath)
			return err
		})
	}
	if err = g.Wait(); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	if err = c.filter.Load(ds, coords); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	return nil
}

// Load reads the metadata table and optional coordinates from readers.
// coords may be nil.
func (c *Client) Load(metadata, coords io.Reader) (err error) {
	call := startCall("load", "")
	defer func() { c.obs.observe(call, err) }()

	ds, err := datasetrepo.ReadTSV(metadata, c.idColumn)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	var pts geo.Coordinates
	if coords != nil {
		if pts, err = datasetrepo.ReadCoordinates(coords); err != nil {
			return fmt.Errorf("load: %w", err)
		}
	}
	if err = c.filter.Load(ds, pts); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	return nil
}

// Menu returns the filter menu of the loaded index.
func (c *Client) Menu() (_ []MenuEntry, err error) {
	call := startCall("menu", "")
	defer func() { c.obs.observe(call, err) }()

	entries, err := c.filter.Menu()
	if err != nil {
		return nil, fmt.Errorf("menu: %w", err)
	}
	return fromInternalMenu(entries), nil
}

// InitialSelection returns the selection new sessions start from.
func (c *Client) InitialSelection() (map[string][]Value, error) {
	sel, err := c.filter.InitialSelection()
	if err != nil {
		return nil, fmt.Errorf("initial selection: %w", err)
	}
	return sel.Map(), nil
}

// Evaluate runs a selection without storing it. A category missing from sel
// does not constrain the result; a category mapped to no values matches
// nothing, and so does an empty selection.
func (c *Client) Evaluate(sel map[string][]Value) (_ Result, err error) {
	call := startCall("evaluate", "")
	defer func() { c.obs.observe(call, err) }()

	res, err := c.filter.Evaluate(toInternalSelection(sel))
	if err != nil {
		return Result{}, fmt.Errorf("evaluate: %w", err)
	}
	call = call.matched(res.RecordCount)
	return fromInternalResult(res), nil
}

// Sessions returns the stored-selection service.
func (c *Client) Sessions() *SessionService {
	return &SessionService{svc: c.filter, obs: c.obs}
}
