package db

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/webtemplate/pkg/config"
	"github.com/angelmondragon/webtemplate/pkg/logger"
)

type flakyPinger struct {
	failures int32
	calls    atomic.Int32
}

func (p *flakyPinger) Ping(context.Context) error {
	if p.calls.Add(1) <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{}, nil)
	require.Error(t, err)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{DSN: "x", Driver: "oracle"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestNewSQLite(t *testing.T) {
	client, err := New(context.Background(), config.DBConfig{DSN: "file::memory:", Driver: "sqlite", MaxOpenConns: 1}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, DriverSQLite, client.Driver())
	require.NoError(t, client.Ping(context.Background()))
}

func TestWaitForReadyRetriesUntilPingSucceeds(t *testing.T) {
	p := &flakyPinger{failures: 2}

	err := WaitForReady(context.Background(), p, 5*time.Second, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, int32(3), p.calls.Load())
}

func TestWaitForReadyTimesOut(t *testing.T) {
	p := &flakyPinger{failures: 1 << 20}

	err := WaitForReady(context.Background(), p, 100*time.Millisecond, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
