package glossameta

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// noCategory labels operations that are not scoped to one category.
const noCategory = "-"

// sdkMetrics holds prometheus metrics registered for the SDK.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	matched    *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glossameta",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Total SDK operations by type, edited category and status.",
		}, []string{"operation", "category", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "glossameta",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation duration in seconds.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"operation"}),
		matched: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "glossameta",
			Subsystem: "sdk",
			Name:      "matched_records",
			Help:      "Records matched by a successful evaluation.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.matched); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one, so two
// clients can share a registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("glossameta: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("glossameta: register metric: %w", err)
	}
	return nil
}

// observer provides logging and metrics for SDK operations.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

// call describes one SDK operation. category is empty unless the operation
// edits a single category; records is set only for operations that evaluate
// a selection.
type call struct {
	op       string
	category string
	start    time.Time
	records  int
	result   bool
}

func startCall(op, categoryKey string) call {
	return call{op: op, category: categoryKey, start: time.Now()}
}

// matched records the size of an evaluation result.
func (c call) matched(n int) call {
	c.records = n
	c.result = true
	return c
}

func (o *observer) observe(c call, err error) {
	if o == nil {
		return
	}
	dur := time.Since(c.start)
	cat := c.category
	if cat == "" {
		cat = noCategory
	}

	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.operations.WithLabelValues(c.op, cat, status).Inc()
		o.metrics.duration.WithLabelValues(c.op).Observe(dur.Seconds())
		if c.result && err == nil {
			o.metrics.matched.WithLabelValues(c.op).Observe(float64(c.records))
		}
	}

	if o.logger == nil {
		return
	}
	attrs := []any{"op", c.op, "duration", dur}
	if c.category != "" {
		attrs = append(attrs, "category", c.category)
	}
	if err != nil {
		o.logger.Warn("operation failed", append(attrs, "error", err)...)
		return
	}
	if c.result {
		attrs = append(attrs, "records", c.records)
	}
	o.logger.Debug("operation completed", attrs...)
}
