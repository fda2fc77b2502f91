// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MKhiriev/go-sync-core/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spySyncer counts Sync calls.
type spySyncer struct {
	calls atomic.Int64
	err   error
}

func (s *spySyncer) Sync(context.Context) error {
	s.calls.Add(1)
	return s.err
}

// runFor runs w until d has passed and waits for it to return.
func runFor(t *testing.T, w Worker, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(d + time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

// ── NewSyncWorker ────────────────────────────────────────────────────────────

func TestNewSyncWorker_DefaultInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		w := NewSyncWorker(&spySyncer{}, interval, logger.Nop(), false)
		assert.Equal(t, DefaultSyncInterval, w.interval)
	}

	w := NewSyncWorker(&spySyncer{}, time.Minute, logger.Nop(), false)
	assert.Equal(t, time.Minute, w.interval)
}

// ── Run ──────────────────────────────────────────────────────────────────────

func TestSyncWorker_Run_SyncsOnTicker(t *testing.T) {
	spy := &spySyncer{}
	w := NewSyncWorker(spy, 10*time.Millisecond, logger.Nop(), false)

	runFor(t, w, 55*time.Millisecond)

	assert.GreaterOrEqual(t, spy.calls.Load(), int64(3))
}

func TestSyncWorker_Run_Immediate(t *testing.T) {
	spy := &spySyncer{}
	w := NewSyncWorker(spy, time.Hour, logger.Nop(), true)

	runFor(t, w, 20*time.Millisecond)

	assert.Equal(t, int64(1), spy.calls.Load())
}

func TestSyncWorker_Run_KeepsGoingAfterError(t *testing.T) {
	spy := &spySyncer{err: errors.New("server unavailable")}
	w := NewSyncWorker(spy, 10*time.Millisecond, logger.Nop(), false)

	runFor(t, w, 45*time.Millisecond)

	assert.GreaterOrEqual(t, spy.calls.Load(), int64(2))
}

func TestSyncWorker_Run_StopsOnCancel(t *testing.T) {
	spy := &spySyncer{}
	w := NewSyncWorker(spy, 10*time.Millisecond, logger.Nop(), false)

	runFor(t, w, 30*time.Millisecond)
	after := spy.calls.Load()
	time.Sleep(30 * time.Millisecond)

	require.Equal(t, after, spy.calls.Load(), "no syncs after the worker stopped")
}

func TestSyncWorker_Run_CancelledBeforeStart(t *testing.T) {
	spy := &spySyncer{}
	w := NewSyncWorker(spy, time.Millisecond, logger.Nop(), true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Run(ctx)

	assert.Zero(t, spy.calls.Load())
}
