package storage

import (
	"context"
	"log/slog"
	"time"

	"telemetry/internal/storage/config"
	"telemetry/pkg/model"
)

// Store exposes the reading operations. Callers never deal with
// connection lifecycle: every operation ensures the connection exists
// first and transparently reconnects and retries exactly once when the
// store call fails on a stale connection. A second failure propagates
// unmodified.
type Store struct {
	mgr    *Manager
	cfg    config.Config
	logger *slog.Logger
}

// NewStore creates a reading store on top of the connection manager.
func NewStore(mgr *Manager, cfg config.Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		mgr:    mgr,
		cfg:    cfg,
		logger: logger,
	}
}

// run executes op against a live connection, applying the
// retry-once-on-stale policy.
func (s *Store) run(ctx context.Context, op func(Conn) error) error {
	conn, gen, err := s.mgr.Connection(ctx)
	if err != nil {
		return err
	}

	err = op(conn)
	if err == nil || !model.IsStaleConnection(err) {
		return err
	}

	s.logger.Warn("store call failed on stale connection, reconnecting",
		"generation", gen,
		"error", err,
	)
	s.mgr.Invalidate(gen)

	conn, _, err = s.mgr.Connection(ctx)
	if err != nil {
		return err
	}
	return op(conn)
}

// Insert stores one reading stamped with the current UTC time and
// returns the store-assigned identifier.
func (s *Store) Insert(ctx context.Context, input model.SensorInput) (string, error) {
	return s.InsertAt(ctx, input, time.Now().UTC())
}

// InsertAt stores one reading with an explicit timestamp. Used by the
// historical seed endpoint; regular ingestion goes through Insert.
func (s *Store) InsertAt(ctx context.Context, input model.SensorInput, ts time.Time) (string, error) {
	reading := model.SensorReading{
		Timestamp:     ts.UTC(),
		Temperature:   input.Temperature,
		Humidity:      input.Humidity,
		VOC:           input.VOC,
		Light:         input.Light,
		Sound:         input.Sound,
		Accelerometer: input.Accelerometer,
		Gyroscope:     input.Gyroscope,
	}

	var id string
	err := s.run(ctx, func(conn Conn) error {
		var err error
		id, err = conn.InsertReading(ctx, &reading)
		return err
	})
	return id, err
}

// ListAll returns every stored reading, most recent first.
func (s *Store) ListAll(ctx context.Context) ([]model.SensorReading, error) {
	var readings []model.SensorReading
	err := s.run(ctx, func(conn Conn) error {
		var err error
		readings, err = conn.ListReadings(ctx)
		return err
	})
	return readings, err
}

// ClearAll deletes every stored reading and returns the number removed.
func (s *Store) ClearAll(ctx context.Context) (int64, error) {
	var deleted int64
	err := s.run(ctx, func(conn Conn) error {
		var err error
		deleted, err = conn.DeleteAllReadings(ctx)
		return err
	})
	return deleted, err
}

// Stats returns a best-effort snapshot of the reading collection. When
// collection statistics are unavailable (typically because the
// collection has never been created) it returns a zero-valued snapshot
// instead of an error.
func (s *Store) Stats(ctx context.Context) (model.StoreStats, error) {
	stats := model.StoreStats{
		Database:   s.cfg.Database,
		Collection: s.cfg.Collection,
		Indexes:    []string{},
	}

	err := s.run(ctx, func(conn Conn) error {
		cs, err := conn.CollectionStats(ctx)
		if err != nil {
			if model.IsStaleConnection(err) {
				return err
			}
			s.logger.Debug("collection stats unavailable, returning empty snapshot",
				"collection", s.cfg.Collection,
				"error", err,
			)
			return nil
		}

		count, err := conn.CountReadings(ctx)
		if err != nil {
			return err
		}

		stats.DocumentCount = count
		stats.Exists = count > 0 || cs.StorageSize > 0
		if cs.Indexes != nil {
			stats.Indexes = cs.Indexes
		}
		return nil
	})
	return stats, err
}
