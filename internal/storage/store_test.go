package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"telemetry/pkg/model"
)

// errStale mimics the driver error raised when a store call runs
// against a torn-down connection.
var errStale = errors.New("connection(localhost:27017) socket was unexpectedly closed: EOF")

func testInput() model.SensorInput {
	return model.SensorInput{
		Temperature:   21.5,
		Humidity:      48.2,
		VOC:           120,
		Light:         2048,
		Sound:         900,
		Accelerometer: model.Vector3{X: 0.1, Y: -0.2, Z: 9.8},
		Gyroscope:     model.Vector3{X: 0.01, Y: 0.02, Z: -0.01},
	}
}

func newTestStore(dialer Dialer) *Store {
	cfg := testConfig()
	mgr := NewManager(cfg, dialer, nil)
	return NewStore(mgr, cfg, nil)
}

func singleConnStore(conn Conn) *Store {
	dialer := new(MockDialer)
	dialer.On("Dial", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(conn, nil)
	return newTestStore(dialer)
}

func TestStore_InsertAssignsServerTimestamp(t *testing.T) {
	conn := healthyConn()
	var captured *model.SensorReading
	conn.On("InsertReading", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*model.SensorReading)
		}).
		Return("65f0a1b2c3d4e5f6a7b8c9d0", nil)

	store := singleConnStore(conn)

	before := time.Now().UTC()
	id, err := store.Insert(context.Background(), testInput())
	after := time.Now().UTC()

	require.NoError(t, err)
	assert.Equal(t, "65f0a1b2c3d4e5f6a7b8c9d0", id)

	require.NotNil(t, captured)
	assert.Equal(t, time.UTC, captured.Timestamp.Location())
	assert.False(t, captured.Timestamp.Before(before))
	assert.False(t, captured.Timestamp.After(after))
	assert.Empty(t, captured.ID)
	assert.Equal(t, 21.5, captured.Temperature)
	assert.Equal(t, model.Vector3{X: 0.1, Y: -0.2, Z: 9.8}, captured.Accelerometer)
}

func TestStore_InsertAtKeepsGivenTimestamp(t *testing.T) {
	conn := healthyConn()
	var captured *model.SensorReading
	conn.On("InsertReading", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*model.SensorReading)
		}).
		Return("65f0a1b2c3d4e5f6a7b8c9d0", nil)

	store := singleConnStore(conn)

	ts := time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC)
	_, err := store.InsertAt(context.Background(), testInput(), ts)
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.True(t, captured.Timestamp.Equal(ts))
}

func TestStore_StaleErrorReconnectsAndRetriesOnce(t *testing.T) {
	first := healthyConn()
	first.On("InsertReading", mock.Anything, mock.Anything).Return("", errStale)

	second := healthyConn()
	second.On("InsertReading", mock.Anything, mock.Anything).Return("65f0a1b2c3d4e5f6a7b8c9d0", nil)

	dialer := new(MockDialer)
	dialer.On("Dial", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(first, nil).Once()
	dialer.On("Dial", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(second, nil).Once()

	store := newTestStore(dialer)

	id, err := store.Insert(context.Background(), testInput())
	require.NoError(t, err)
	assert.Equal(t, "65f0a1b2c3d4e5f6a7b8c9d0", id)

	dialer.AssertNumberOfCalls(t, "Dial", 2)
	first.AssertNumberOfCalls(t, "InsertReading", 1)
	second.AssertNumberOfCalls(t, "InsertReading", 1)
	// Retry reconnects by invalidation, not teardown.
	first.AssertNotCalled(t, "Close", mock.Anything)
}

func TestStore_StaleErrorTwiceSurfacesAfterTwoAttempts(t *testing.T) {
	first := healthyConn()
	first.On("InsertReading", mock.Anything, mock.Anything).Return("", errStale)

	second := healthyConn()
	second.On("InsertReading", mock.Anything, mock.Anything).Return("", errStale)

	dialer := new(MockDialer)
	dialer.On("Dial", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(first, nil).Once()
	dialer.On("Dial", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(second, nil).Once()

	store := newTestStore(dialer)

	_, err := store.Insert(context.Background(), testInput())
	require.Error(t, err)
	assert.True(t, model.IsStaleConnection(err))

	// Exactly two attempts total, then the underlying error surfaces.
	first.AssertNumberOfCalls(t, "InsertReading", 1)
	second.AssertNumberOfCalls(t, "InsertReading", 1)
	dialer.AssertNumberOfCalls(t, "Dial", 2)
}

func TestStore_NonStaleErrorIsNotRetried(t *testing.T) {
	conn := healthyConn()
	conn.On("InsertReading", mock.Anything, mock.Anything).Return("", errors.New("document too large"))

	dialer := new(MockDialer)
	dialer.On("Dial", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(conn, nil)

	store := newTestStore(dialer)

	_, err := store.Insert(context.Background(), testInput())
	require.Error(t, err)
	assert.EqualError(t, err, "document too large")
	conn.AssertNumberOfCalls(t, "InsertReading", 1)
	dialer.AssertNumberOfCalls(t, "Dial", 1)
}

func TestStore_ConfigurationErrorPropagates(t *testing.T) {
	cfg := testConfig()
	cfg.URI = ""
	mgr := NewManager(cfg, new(MockDialer), nil)
	store := NewStore(mgr, cfg, nil)

	_, err := store.Insert(context.Background(), testInput())
	assert.ErrorIs(t, err, model.ErrURINotConfigured)

	_, err = store.ListAll(context.Background())
	assert.ErrorIs(t, err, model.ErrURINotConfigured)
}

func TestStore_ListAll(t *testing.T) {
	now := time.Now().UTC()
	readings := []model.SensorReading{
		{ID: "c", Timestamp: now},
		{ID: "b", Timestamp: now.Add(-time.Minute)},
		{ID: "a", Timestamp: now.Add(-2 * time.Minute)},
	}

	conn := healthyConn()
	conn.On("ListReadings", mock.Anything).Return(readings, nil)

	store := singleConnStore(conn)

	got, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, readings, got)
}

func TestStore_ListAllTranslationFailureIsFatal(t *testing.T) {
	conn := healthyConn()
	conn.On("ListReadings", mock.Anything).Return(nil, model.ErrInvalidDocument)

	store := singleConnStore(conn)

	_, err := store.ListAll(context.Background())
	assert.ErrorIs(t, err, model.ErrInvalidDocument)
	conn.AssertNumberOfCalls(t, "ListReadings", 1)
}

func TestStore_ClearAll(t *testing.T) {
	conn := healthyConn()
	conn.On("DeleteAllReadings", mock.Anything).Return(int64(42), nil)

	store := singleConnStore(conn)

	deleted, err := store.ClearAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), deleted)
}

func TestStore_Stats(t *testing.T) {
	t.Run("populated collection", func(t *testing.T) {
		conn := healthyConn()
		conn.On("CollectionStats", mock.Anything).Return(CollStats{
			DocumentCount: 10,
			StorageSize:   4096,
			Indexes:       []string{"_id_", "timestamp_1"},
		}, nil)
		conn.On("CountReadings", mock.Anything).Return(int64(10), nil)

		store := singleConnStore(conn)

		stats, err := store.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, model.StoreStats{
			Database:      "telemetry_test",
			Collection:    "sensor_readings",
			DocumentCount: 10,
			Exists:        true,
			Indexes:       []string{"_id_", "timestamp_1"},
		}, stats)
	})

	t.Run("empty collection with allocated storage", func(t *testing.T) {
		conn := healthyConn()
		conn.On("CollectionStats", mock.Anything).Return(CollStats{
			StorageSize: 4096,
			Indexes:     []string{"_id_"},
		}, nil)
		conn.On("CountReadings", mock.Anything).Return(int64(0), nil)

		store := singleConnStore(conn)

		stats, err := store.Stats(context.Background())
		require.NoError(t, err)
		assert.Zero(t, stats.DocumentCount)
		assert.True(t, stats.Exists)
	})

	t.Run("stats unavailable returns zero snapshot", func(t *testing.T) {
		conn := healthyConn()
		conn.On("CollectionStats", mock.Anything).Return(CollStats{}, errors.New("ns not found"))

		store := singleConnStore(conn)

		stats, err := store.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, model.StoreStats{
			Database:   "telemetry_test",
			Collection: "sensor_readings",
			Indexes:    []string{},
		}, stats)
		conn.AssertNotCalled(t, "CountReadings", mock.Anything)
	})

	t.Run("stale stats call is retried", func(t *testing.T) {
		first := healthyConn()
		first.On("CollectionStats", mock.Anything).Return(CollStats{}, errStale)

		second := healthyConn()
		second.On("CollectionStats", mock.Anything).Return(CollStats{DocumentCount: 3, StorageSize: 1024, Indexes: []string{"_id_"}}, nil)
		second.On("CountReadings", mock.Anything).Return(int64(3), nil)

		dialer := new(MockDialer)
		dialer.On("Dial", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(first, nil).Once()
		dialer.On("Dial", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(second, nil).Once()

		store := newTestStore(dialer)

		stats, err := store.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.DocumentCount)
		assert.True(t, stats.Exists)
	})
}
