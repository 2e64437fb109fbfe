// Package store defines the aggregate persistence interface. Each subsystem
// (job, audit) defines its own store interface; the composite Store composes
// them. Backends: Postgres (pgx), Bun, and Memory.
package store

import (
	"context"

	"github.com/xraph/booking/audit"
	"github.com/xraph/booking/job"
)

// Store is the aggregate persistence interface.
// Each subsystem store is a composable interface; a single backend
// (postgres, bun, memory) implements all of them.
type Store interface {
	job.Store
	audit.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
