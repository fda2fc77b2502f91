// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-sync-core/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// Transactor runs a unit of work in one SQL transaction. Every repository of
// this package joins the transaction carried by the context it is given.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// MetadataRepository keeps the per-feature checkpoints and the per-setting
// modification clock.
type MetadataRepository interface {
	// Checkpoint returns the checkpoint of feature, creating a fresh
	// needsRemoteDataFetch row on first use.
	Checkpoint(ctx context.Context, feature models.Feature) (models.FeatureSyncState, error)
	// Commit stores the outcome of a sync step in a single statement.
	Commit(ctx context.Context, feature models.Feature, state models.SyncState, cursor *models.Cursor, timestamp *time.Time) error
	// Reset drops every checkpoint, so the next fetch is a full snapshot.
	Reset(ctx context.Context) error

	SettingMetadata(ctx context.Context, key string) (models.SettingMetadata, error)
	UpdateSettingMetadata(ctx context.Context, key string, lastModified *time.Time) error
}

// OutboxRepository is the durable queue of records waiting to be sent.
type OutboxRepository interface {
	Stage(ctx context.Context, records ...models.SyncableRecord) error
	Pending(ctx context.Context, feature models.Feature) ([]models.OutboxEntry, error)
	Clear(ctx context.Context, feature models.Feature, seqs ...int64) error
	Purge(ctx context.Context) error
}

// AccountRepository persists the non-secret part of the device account.
type AccountRepository interface {
	LoadAccount(ctx context.Context) (models.Account, error)
	SaveAccount(ctx context.Context, account models.Account) error
	DeleteAccount(ctx context.Context) error
}

// EntityRepository is the local storage of native entities.
type EntityRepository interface {
	Get(ctx context.Context, feature models.Feature, objectID string) (models.Entity, error)
	List(ctx context.Context, feature models.Feature) ([]models.Entity, error)
	Upsert(ctx context.Context, entity models.Entity) error
	Delete(ctx context.Context, feature models.Feature, objectID string) error
}
