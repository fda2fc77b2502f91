// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-sync-core/internal/logger"
	"github.com/MKhiriev/go-sync-core/models"
)

type metadataRepository struct {
	db     *DB
	logger *logger.Logger
}

func NewMetadataRepository(db *DB, logger *logger.Logger) MetadataRepository {
	return &metadataRepository{
		db:     db,
		logger: logger,
	}
}

func (m *metadataRepository) Checkpoint(ctx context.Context, feature models.Feature) (models.FeatureSyncState, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildEnsureCheckpointQuery(feature)
	if err != nil {
		return models.FeatureSyncState{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	if _, err = m.db.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "metadataRepository.Checkpoint").
			Str("feature", string(feature)).
			Msg("failed to ensure checkpoint row")
		return models.FeatureSyncState{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	query, args, err = buildSelectCheckpointQuery(feature)
	if err != nil {
		return models.FeatureSyncState{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var (
		state        models.FeatureSyncState
		name, status string
		cursor       sql.NullString
		localTS      sql.NullTime
	)
	err = m.db.conn(ctx).QueryRowContext(ctx, query, args...).Scan(&name, &status, &cursor, &localTS)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FeatureSyncState{}, fmt.Errorf("%w: %s", ErrCheckpointNotFound, feature)
	}
	if err != nil {
		log.Err(err).
			Str("func", "metadataRepository.Checkpoint").
			Str("feature", string(feature)).
			Msg("failed to scan checkpoint row")
		return models.FeatureSyncState{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	state.Name = models.Feature(name)
	state.State = models.SyncState(status)
	if cursor.Valid {
		c := models.Cursor(cursor.String)
		state.LastModified = &c
	}
	if localTS.Valid {
		ts := localTS.Time
		state.LastSyncLocalTimestamp = &ts
	}

	return state, nil
}

func (m *metadataRepository) Commit(ctx context.Context, feature models.Feature, state models.SyncState, cursor *models.Cursor, timestamp *time.Time) error {
	query, args, err := buildCommitCheckpointQuery(feature, state, cursor, timestamp)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = m.db.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "metadataRepository.Commit").
			Str("feature", string(feature)).
			Str("state", string(state)).
			Msg("failed to commit checkpoint")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (m *metadataRepository) Reset(ctx context.Context) error {
	query, args, err := buildResetCheckpointsQuery()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = m.db.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "metadataRepository.Reset").Msg("failed to reset checkpoints")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// SettingMetadata returns the bookkeeping row of key. A key that was never
// modified locally yields metadata with a nil LastModified.
func (m *metadataRepository) SettingMetadata(ctx context.Context, key string) (models.SettingMetadata, error) {
	query, args, err := buildSelectSettingMetadataQuery(key)
	if err != nil {
		return models.SettingMetadata{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var (
		meta = models.SettingMetadata{Key: key}
		k    string
		at   sql.NullTime
	)
	err = m.db.conn(ctx).QueryRowContext(ctx, query, args...).Scan(&k, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return meta, nil
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "metadataRepository.SettingMetadata").
			Str("key", key).
			Msg("failed to scan setting metadata")
		return models.SettingMetadata{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	if at.Valid {
		ts := at.Time
		meta.LastModified = &ts
	}
	return meta, nil
}

func (m *metadataRepository) UpdateSettingMetadata(ctx context.Context, key string, lastModified *time.Time) error {
	query, args, err := buildUpsertSettingMetadataQuery(key, lastModified)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = m.db.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "metadataRepository.UpdateSettingMetadata").
			Str("key", key).
			Msg("failed to upsert setting metadata")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}
