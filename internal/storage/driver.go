package storage

import (
	"context"

	"telemetry/pkg/model"
)

// Conn is the narrow surface of a live store connection. The manager
// owns creation and teardown; store operations only ever see a Conn
// handed out by the manager.
type Conn interface {
	// Ping performs a liveness probe against the store.
	Ping(ctx context.Context) error

	// EnsureCollection creates the reading collection if it does not
	// exist yet. An "already exists" response is success.
	EnsureCollection(ctx context.Context) error

	// EnsureTimestampIndex creates the ascending index on the timestamp
	// field. The index is a read-path optimization; callers decide
	// whether a failure is fatal.
	EnsureTimestampIndex(ctx context.Context) error

	// InsertReading writes one reading and returns the store-assigned
	// identifier as a string.
	InsertReading(ctx context.Context, reading *model.SensorReading) (string, error)

	// ListReadings returns every stored reading sorted by timestamp
	// descending. A document that cannot be translated to the reading
	// shape fails the whole call.
	ListReadings(ctx context.Context) ([]model.SensorReading, error)

	// DeleteAllReadings removes every stored reading and returns the
	// number of documents removed.
	DeleteAllReadings(ctx context.Context) (int64, error)

	// CountReadings returns the number of stored readings.
	CountReadings(ctx context.Context) (int64, error)

	// CollectionStats returns storage-level statistics for the reading
	// collection. It fails when the collection has never been created.
	CollectionStats(ctx context.Context) (CollStats, error)

	// Close tears down the underlying connection.
	Close(ctx context.Context) error
}

// Dialer opens store connections. The indirection keeps the manager's
// lifecycle logic independent of the driver.
type Dialer interface {
	Dial(ctx context.Context, uri, database, collection string) (Conn, error)
}

// CollStats holds storage-level statistics for the reading collection.
type CollStats struct {
	DocumentCount int64
	StorageSize   int64
	Indexes       []string
}
