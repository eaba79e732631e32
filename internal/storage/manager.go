package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"telemetry/internal/storage/config"
	"telemetry/pkg/model"
)

// handle pairs a live connection with the generation it was created in.
// It is published atomically, so readers either see a complete handle or
// none at all.
type handle struct {
	conn       Conn
	generation uint64
}

// Manager guards lazy creation of the store connection. One instance is
// constructed at startup and shared by all request handlers; all state
// mutation happens inside its methods.
type Manager struct {
	cfg    config.Config
	dialer Dialer
	logger *slog.Logger

	// mu serializes the connect sequence and handle replacement. The
	// read fast path does not take it.
	mu         sync.Mutex
	current    atomic.Pointer[handle]
	generation uint64
}

// NewManager creates a connection manager. The connection is not opened
// until first use.
func NewManager(cfg config.Config, dialer Dialer, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:    cfg,
		dialer: dialer,
		logger: logger,
	}
}

// Connection returns the live connection and its generation,
// establishing the connection if none exists. The fast path performs no
// locking and no network calls. Concurrent first callers are serialized
// so that exactly one connect sequence runs; a connect failure is
// returned only to the caller that attempted it, and later callers
// retry from scratch.
func (m *Manager) Connection(ctx context.Context) (Conn, uint64, error) {
	if h := m.current.Load(); h != nil {
		return h.conn, h.generation, nil
	}
	return m.connect(ctx)
}

func (m *Manager) connect(ctx context.Context) (Conn, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Another caller may have connected while this one waited.
	if h := m.current.Load(); h != nil {
		return h.conn, h.generation, nil
	}

	if m.cfg.URI == "" {
		return nil, 0, model.ErrURINotConfigured
	}

	conn, err := m.dialer.Dial(ctx, m.cfg.URI, m.cfg.Database, m.cfg.Collection)
	if err != nil {
		return nil, 0, fmt.Errorf("connect to store: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		m.closeQuietly(ctx, conn)
		return nil, 0, fmt.Errorf("liveness probe failed: %w", err)
	}

	if err := conn.EnsureCollection(ctx); err != nil {
		m.closeQuietly(ctx, conn)
		return nil, 0, fmt.Errorf("prepare collection: %w", err)
	}

	// Index creation is best-effort: the index only speeds up the
	// sorted read path, so a failure must not fail the connect.
	if err := conn.EnsureTimestampIndex(ctx); err != nil {
		m.logger.Warn("failed to create timestamp index",
			"collection", m.cfg.Collection,
			"error", err,
		)
	}

	m.generation++
	m.current.Store(&handle{conn: conn, generation: m.generation})

	m.logger.Info("connected to store",
		"database", m.cfg.Database,
		"collection", m.cfg.Collection,
		"generation", m.generation,
	)
	return conn, m.generation, nil
}

// Invalidate discards the handle of the given generation without
// closing it. Called when a store operation failed on a connection whose
// transport is already unusable, so there is nothing left to close. A
// generation mismatch means the handle was already replaced and the
// successor must not be torn down.
func (m *Manager) Invalidate(generation uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.current.Load()
	if h == nil || h.generation != generation {
		return
	}

	m.current.Store(nil)
	m.logger.Warn("store connection invalidated", "generation", generation)
}

// Disconnect closes the underlying connection if present and clears all
// state. Close failures are logged, not returned.
func (m *Manager) Disconnect(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.current.Load()
	m.current.Store(nil)
	if h == nil {
		return
	}

	if err := h.conn.Close(ctx); err != nil {
		m.logger.Warn("error closing store connection", "error", err)
		return
	}
	m.logger.Info("disconnected from store")
}

// Connected reports whether a live handle exists. It performs no
// network calls.
func (m *Manager) Connected() bool {
	return m.current.Load() != nil
}

func (m *Manager) closeQuietly(ctx context.Context, conn Conn) {
	if err := conn.Close(ctx); err != nil {
		m.logger.Warn("error closing store connection after failed connect", "error", err)
	}
}
