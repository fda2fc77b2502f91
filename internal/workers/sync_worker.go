// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-sync-core/internal/logger"
)

const DefaultSyncInterval = 5 * time.Minute

// SyncWorker runs a full sync of every feature on a ticker.
type SyncWorker struct {
	syncer   Syncer
	interval time.Duration
	logger   *logger.Logger

	// immediate runs the first sync right away instead of after one interval.
	immediate bool
}

// NewSyncWorker creates a SyncWorker. A zero or negative interval falls back
// to DefaultSyncInterval.
func NewSyncWorker(syncer Syncer, interval time.Duration, logger *logger.Logger, immediate bool) *SyncWorker {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &SyncWorker{syncer: syncer, interval: interval, logger: logger, immediate: immediate}
}

// Run implements [Worker]. A failed sync is logged and the worker waits for
// the next tick.
func (w *SyncWorker) Run(ctx context.Context) {
	w.logger.Info().
		Str("func", "SyncWorker.Run").
		Dur("interval", w.interval).
		Msg("sync worker started")

	if w.immediate {
		w.tick(ctx)
	}

	t := time.NewTicker(w.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str("func", "SyncWorker.Run").Msg("sync worker stopped")
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *SyncWorker) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := w.syncer.Sync(ctx); err != nil {
		w.logger.Err(err).Str("func", "SyncWorker.tick").Msg("sync failed")
		return
	}
	w.logger.Debug().
		Str("func", "SyncWorker.tick").
		Dur("took", time.Since(start)).
		Msg("sync finished")
}
