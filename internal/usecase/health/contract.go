package health

import "context"

// DBPinger checks cache/index store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexChecker verifies the served index matches the query embedder.
type IndexChecker interface {
	CheckVersion() error
}
