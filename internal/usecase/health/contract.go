package health

import "context"

// DBPinger checks session store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker reports whether a dataset index is loaded.
type IndexChecker interface {
	HealthCheck(ctx context.Context) error
}
