// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-sync-core/internal/adapter"
	"github.com/MKhiriev/go-sync-core/internal/crypto"
	"github.com/MKhiriev/go-sync-core/internal/events"
	"github.com/MKhiriev/go-sync-core/internal/features"
	"github.com/MKhiriev/go-sync-core/internal/logger"
	"github.com/MKhiriev/go-sync-core/internal/store"
	"github.com/MKhiriev/go-sync-core/internal/utils"
	"github.com/MKhiriev/go-sync-core/models"
	"golang.org/x/sync/errgroup"
)

// Option customises a sync engine.
type Option func(*syncEngine)

// WithClock replaces time.Now for checkpoint timestamps and tombstones.
func WithClock(now func() time.Time) Option {
	return func(e *syncEngine) {
		e.now = now
	}
}

// WithDeviceIDGenerator replaces the UUIDv7 device id generator.
func WithDeviceIDGenerator(gen func() string) Option {
	return func(e *syncEngine) {
		e.newID = gen
	}
}

type syncEngine struct {
	storages *store.ClientStorages
	server   adapter.ServerAdapter
	crypto   crypto.Provider
	features *features.Registry
	events   *events.Publisher
	phases   *phaseLock

	now    func() time.Time
	newID  func() string
	logger *logger.Logger

	mu      sync.RWMutex
	account *models.Account
}

// NewSyncEngine wires the engine to its collaborators. The storages must be
// open; the engine never closes them.
func NewSyncEngine(
	storages *store.ClientStorages,
	server adapter.ServerAdapter,
	provider crypto.Provider,
	registry *features.Registry,
	logger *logger.Logger,
	opts ...Option,
) SyncEngine {
	e := &syncEngine{
		storages: storages,
		server:   server,
		crypto:   provider,
		features: registry,
		events:   events.NewPublisher(),
		phases:   newPhaseLock(),
		now:      time.Now,
		newID:    utils.NewUUIDGenerator().Generate,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe implements [SyncEngine].
func (e *syncEngine) Subscribe(buffer int) *events.Subscription {
	return e.events.Subscribe(buffer)
}

// Close implements [SyncEngine].
func (e *syncEngine) Close() {
	e.events.Close()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.account != nil {
		wipeKeys(e.account)
		e.account = nil
	}
}

// Send implements [SyncEngine].
func (e *syncEngine) Send(ctx context.Context, feats ...models.Feature) error {
	ctx = e.logger.WithContext(ctx)

	if _, ok := e.Account(); !ok {
		return ErrNoAccount
	}
	feats, err := e.resolve(feats)
	if err != nil {
		return err
	}

	return e.perFeature(ctx, feats, e.sendFeature)
}

// Fetch implements [SyncEngine].
func (e *syncEngine) Fetch(ctx context.Context, feats ...models.Feature) error {
	ctx = e.logger.WithContext(ctx)

	if _, ok := e.Account(); !ok {
		return ErrNoAccount
	}
	feats, err := e.resolve(feats)
	if err != nil {
		return err
	}

	return e.perFeature(ctx, feats, e.fetchFeature)
}

// Sync implements [SyncEngine]. A feature whose fetch fails is not sent.
func (e *syncEngine) Sync(ctx context.Context) error {
	ctx = e.logger.WithContext(ctx)

	if _, ok := e.Account(); !ok {
		return ErrNoAccount
	}

	return e.perFeature(ctx, e.features.Features(), func(ctx context.Context, f models.Feature) error {
		if err := e.fetchFeature(ctx, f); err != nil {
			return err
		}
		return e.sendFeature(ctx, f)
	})
}

// perFeature runs fn for every feature concurrently and joins the failures.
// One feature failing does not cancel the others.
func (e *syncEngine) perFeature(ctx context.Context, feats []models.Feature, fn func(context.Context, models.Feature) error) error {
	errs := make([]error, len(feats))

	var g errgroup.Group
	for i, f := range feats {
		g.Go(func() error {
			errs[i] = fn(ctx, f)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// resolve validates the requested features; none means all registered ones.
func (e *syncEngine) resolve(feats []models.Feature) ([]models.Feature, error) {
	if len(feats) == 0 {
		return e.features.Features(), nil
	}

	seen := make(map[models.Feature]struct{}, len(feats))
	out := make([]models.Feature, 0, len(feats))
	for _, f := range feats {
		if _, ok := e.features.Get(f); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, f)
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out, nil
}

func (e *syncEngine) adapterFor(f models.Feature) (features.Adapter, error) {
	a, ok := e.features.Get(f)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, f)
	}
	return a, nil
}

// key returns a copy of the primary key; the caller wipes it when done.
func (e *syncEngine) key() ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.account == nil {
		return nil, ErrNoAccount
	}
	return bytes.Clone(e.account.PrimaryKey), nil
}

// fail reverts the feature to needsRemoteDataFetch, keeping the cursor it had,
// and returns cause wrapped with the operation name. The revert survives a
// cancelled ctx.
func (e *syncEngine) fail(ctx context.Context, op string, cp models.FeatureSyncState, cause error) error {
	e.phases.advance(cp.Name, PhaseFailed)

	err := fmt.Errorf("%s %s: %w", op, cp.Name, cause)
	revertErr := e.storages.Metadata.Commit(context.WithoutCancel(ctx), cp.Name,
		models.StateNeedsRemoteDataFetch, cp.LastModified, cp.LastSyncLocalTimestamp)
	if revertErr != nil {
		e.logger.Err(revertErr).
			Str("func", "syncEngine.fail").
			Str("feature", string(cp.Name)).
			Msg("failed to revert checkpoint")
		err = errors.Join(err, fmt.Errorf("revert checkpoint: %w", revertErr))
	}

	e.logger.Warn().Err(cause).
		Str("func", "syncEngine.fail").
		Str("feature", string(cp.Name)).
		Str("op", op).
		Msg("sync step failed, feature needs remote data fetch")

	return err
}

func wipeKeys(a *models.Account) {
	crypto.Zero(a.PrimaryKey)
	crypto.Zero(a.SecretKey)
}

func cloneAccount(a models.Account) models.Account {
	a.PrimaryKey = bytes.Clone(a.PrimaryKey)
	a.SecretKey = bytes.Clone(a.SecretKey)
	return a
}
