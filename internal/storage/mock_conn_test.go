package storage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"telemetry/pkg/model"
)

// MockDialer is a mock implementation of Dialer
type MockDialer struct {
	mock.Mock
}

func (m *MockDialer) Dial(ctx context.Context, uri, database, collection string) (Conn, error) {
	args := m.Called(ctx, uri, database, collection)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Conn), args.Error(1)
}

// MockConn is a mock implementation of Conn
type MockConn struct {
	mock.Mock
}

func (m *MockConn) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockConn) EnsureCollection(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockConn) EnsureTimestampIndex(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockConn) InsertReading(ctx context.Context, reading *model.SensorReading) (string, error) {
	args := m.Called(ctx, reading)
	return args.String(0), args.Error(1)
}

func (m *MockConn) ListReadings(ctx context.Context) ([]model.SensorReading, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SensorReading), args.Error(1)
}

func (m *MockConn) DeleteAllReadings(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockConn) CountReadings(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockConn) CollectionStats(ctx context.Context) (CollStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(CollStats), args.Error(1)
}

func (m *MockConn) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// healthyConn returns a MockConn that accepts the full connect sequence.
func healthyConn() *MockConn {
	conn := new(MockConn)
	conn.On("Ping", mock.Anything).Return(nil)
	conn.On("EnsureCollection", mock.Anything).Return(nil)
	conn.On("EnsureTimestampIndex", mock.Anything).Return(nil)
	return conn
}
