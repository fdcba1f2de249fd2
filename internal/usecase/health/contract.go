package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ModelChecker reports whether a model is ready to serve.
type ModelChecker interface {
	Loaded() bool
}
