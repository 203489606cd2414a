package health

import (
	"context"

	"github.com/kailas-cloud/flyerdex/internal/index"
)

// DBPinger checks shared cache availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks completion/embedding provider availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}

// SnapshotLoader exposes the published catalog snapshot.
type SnapshotLoader interface {
	Load() (*index.Snapshot, error)
}
