package glossameta

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var testSchema = Schema{
	IDColumn:         "tid",
	LocationCategory: "place",
	Categories: []Category{
		{Key: "sex", DisplayName: "Sex"},
		{Key: "age", DisplayName: "Age", Kind: KindInterval},
		{Key: "dialect", DisplayName: "Dialect area"},
		{Key: "place", DisplayName: "Place", Kind: KindGeo},
	},
}

func newLoadedClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c, err := New(context.Background(), testSchema, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)

	err = c.LoadFiles(context.Background(),
		filepath.Join("..", "..", "testdata", "metadata.tsv"),
		filepath.Join("..", "..", "testdata", "coordinates.tsv"),
	)
	if err != nil {
		t.Fatalf("LoadFiles: %v", err)
	}
	return c
}

func sorted(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return out
}

func TestNew_InvalidSchema(t *testing.T) {
	_, err := New(context.Background(), Schema{IDColumn: "tid"})
	if !errors.Is(err, ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := &clientConfig{driver: "unknown"}
	if _, err := createStore(cfg); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestNew_ValkeyRequiresAddress(t *testing.T) {
	cfg := defaultConfig()
	WithValkey("", "").apply(cfg)
	if _, err := createStore(cfg); err == nil {
		t.Fatal("expected error when no address provided")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := defaultConfig()
	if cfg.driver != "memory" {
		t.Errorf("default driver = %q, want memory", cfg.driver)
	}

	WithRedis("localhost:6379", "secret").apply(cfg)
	WithUsername("app").apply(cfg)
	WithSessionTTL(time.Hour).apply(cfg)
	WithSessionTTL(0).apply(cfg)
	WithKeyPrefix("test:").apply(cfg)
	WithNullToken("NA").apply(cfg)
	WithNullToken("").apply(cfg)

	if cfg.driver != "redis" || cfg.addrs[0] != "localhost:6379" || cfg.password != "secret" {
		t.Errorf("redis option not applied: %+v", cfg)
	}
	if cfg.username != "app" {
		t.Errorf("username = %q", cfg.username)
	}
	if cfg.sessionTTL != time.Hour {
		t.Errorf("sessionTTL = %v, want 1h", cfg.sessionTTL)
	}
	if cfg.keyPrefix != "test:" {
		t.Errorf("keyPrefix = %q", cfg.keyPrefix)
	}
	if cfg.nullToken != "NA" {
		t.Errorf("nullToken = %q, want NA", cfg.nullToken)
	}
}

func TestClient_Close_Twice(t *testing.T) {
	c, err := New(context.Background(), testSchema)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Close()
	c.Close()
}

func TestClient_NotReadyBeforeLoad(t *testing.T) {
	c, err := New(context.Background(), testSchema)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if _, err := c.Menu(); !errors.Is(err, ErrIndexNotReady) {
		t.Errorf("Menu: expected ErrIndexNotReady, got %v", err)
	}
	if _, err := c.Sessions().Create(context.Background()); !errors.Is(err, ErrIndexNotReady) {
		t.Errorf("Create: expected ErrIndexNotReady, got %v", err)
	}
	if h := c.Health(context.Background()); h.Status != "degraded" || h.Checks["index"] != "error" {
		t.Errorf("Health = %+v, want degraded with index error", h)
	}
}

func TestClient_Menu(t *testing.T) {
	c := newLoadedClient(t)

	entries, err := c.Menu()
	if err != nil {
		t.Fatalf("Menu: %v", err)
	}
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	if !slices.Equal(keys, []string{"sex", "age", "dialect"}) {
		t.Fatalf("menu keys = %v", keys)
	}

	age := entries[1]
	if age.Bounds == nil || age.Bounds.Min != 23 || age.Bounds.Max != 67 {
		t.Errorf("age bounds = %+v, want 23..67", age.Bounds)
	}
	if !age.HasNull {
		t.Error("age should report null")
	}
	if !entries[0].HasNull {
		t.Error("sex should report null")
	}
	if entries[2].HasNull {
		t.Error("dialect has no null cells")
	}
}

func TestClient_Evaluate(t *testing.T) {
	c := newLoadedClient(t)

	tests := []struct {
		name string
		sel  map[string][]Value
		want []string
	}{
		{"empty selection", map[string][]Value{}, nil},
		{
			"every sex",
			map[string][]Value{"sex": {Text("m"), Text("f"), Null}},
			[]string{"t01", "t02", "t03", "t04", "t05", "t06"},
		},
		{"one value", map[string][]Value{"dialect": {Text("west")}}, []string{"t02", "t03"}},
		{"union", map[string][]Value{"dialect": {Text("west"), Text("north")}}, []string{"t01", "t02", "t03", "t06"}},
		{
			"intersection",
			map[string][]Value{"dialect": {Text("east")}, "sex": {Text("m")}},
			[]string{"t04"},
		},
		{"null", map[string][]Value{"sex": {Null}}, []string{"t05"}},
		{"present but empty", map[string][]Value{"dialect": {}}, nil},
		{"unknown value", map[string][]Value{"dialect": {Text("south")}}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := c.Evaluate(tc.sel)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if got := sorted(res.RecordIDs); !slices.Equal(got, tc.want) {
				t.Errorf("RecordIDs = %v, want %v", got, tc.want)
			}
			if res.RecordCount != len(tc.want) {
				t.Errorf("RecordCount = %d, want %d", res.RecordCount, len(tc.want))
			}
		})
	}
}

func TestClient_Evaluate_UnknownCategory(t *testing.T) {
	c := newLoadedClient(t)
	_, err := c.Evaluate(map[string][]Value{"colour": {Text("red")}})
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestClient_InitialSelection(t *testing.T) {
	c := newLoadedClient(t)

	sel, err := c.InitialSelection()
	if err != nil {
		t.Fatalf("InitialSelection: %v", err)
	}
	res, err := c.Evaluate(sel)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.RecordCount != 6 {
		t.Errorf("initial selection matches %d records, want 6", res.RecordCount)
	}
	if len(res.Markers) != 5 {
		t.Errorf("markers = %d, want 5", len(res.Markers))
	}
}

func TestClient_Load_KeepsPreviousIndexOnError(t *testing.T) {
	c := newLoadedClient(t)

	err := c.Load(strings.NewReader("tid\tsex\nx1\tm\nx1\tf\n"), nil)
	if !errors.Is(err, ErrInvalidDataset) {
		t.Fatalf("expected ErrInvalidDataset, got %v", err)
	}

	res, err := c.Evaluate(map[string][]Value{"sex": {Text("m"), Text("f"), Null}})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.RecordCount != 6 {
		t.Errorf("previous index lost: %d records", res.RecordCount)
	}
}

func TestClient_Load_Readers(t *testing.T) {
	c, err := New(context.Background(), testSchema)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	meta := "tid\tsex\tage\tdialect\tplace\n" +
		"a\tm\t10\teast\toslo\n" +
		"b\tf\t20\teast\tbergen\n"
	coords := "oslo\t59.91\t10.75\nbergen\t60.39\t5.32\n"
	if err := c.Load(strings.NewReader(meta), strings.NewReader(coords)); err != nil {
		t.Fatalf("Load: %v", err)
	}

	res, err := c.Evaluate(map[string][]Value{"place": {Text("bergen")}})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !slices.Equal(res.RecordIDs, []string{"b"}) {
		t.Errorf("RecordIDs = %v, want [b]", res.RecordIDs)
	}
	if h := c.Health(context.Background()); h.Status != "ok" {
		t.Errorf("Health = %+v, want ok", h)
	}
}

func TestClient_Ping(t *testing.T) {
	c := newLoadedClient(t)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestClient_WithPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newLoadedClient(t, WithPrometheus(reg))

	if _, err := c.Menu(); err != nil {
		t.Fatalf("Menu: %v", err)
	}

	// A second client on the same registry reuses the collectors.
	other, err := New(context.Background(), testSchema, WithPrometheus(reg))
	if err != nil {
		t.Fatalf("second client: %v", err)
	}
	defer other.Close()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != "glossameta_sdk_operations_total" {
			continue
		}
		ops := make(map[string]bool)
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "operation" {
					ops[l.GetValue()] = true
				}
			}
		}
		if !ops["load"] || !ops["menu"] {
			t.Errorf("operations = %v, want load and menu", ops)
		}
		return
	}
	t.Error("glossameta_sdk_operations_total not found")
}

func TestObserver_NilSafe(t *testing.T) {
	var obs *observer
	obs.observe(startCall("test", ""), nil)
	obs.observe(startCall("test", "sex").matched(3), errors.New("err"))
}

func TestObserver_IncompatibleCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "glossameta",
		Subsystem: "sdk",
		Name:      "operations_total",
		Help:      "Total SDK operations by type, edited category and status.",
	}, []string{"operation", "category", "status"}))

	if _, err := newObserver(nil, reg); err == nil {
		t.Fatal("expected error for incompatible collector")
	}
}

func TestObserver_WithLogger(t *testing.T) {
	obs, err := newObserver(slog.Default(), nil)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	obs.observe(startCall("test.op", ""), nil)
	obs.observe(startCall("test.op", "age").matched(2), nil)
	obs.observe(startCall("test.op", "age"), errors.New("test error"))
}
