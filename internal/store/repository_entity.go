// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-sync-core/internal/logger"
	"github.com/MKhiriev/go-sync-core/models"
)

// entityRepository stores native entities as JSON documents keyed by
// (feature, object id).
type entityRepository struct {
	db     *DB
	logger *logger.Logger
}

func NewEntityRepository(db *DB, logger *logger.Logger) EntityRepository {
	return &entityRepository{
		db:     db,
		logger: logger,
	}
}

func (e *entityRepository) Get(ctx context.Context, feature models.Feature, objectID string) (models.Entity, error) {
	query, args, err := buildSelectEntityQuery(feature, objectID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var data string
	err = e.db.conn(ctx).QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrEntityNotFound, feature, objectID)
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "entityRepository.Get").
			Str("feature", string(feature)).
			Str("object_id", objectID).
			Msg("failed to scan entity row")
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	entity, err := models.DecodeEntity(feature, []byte(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodingColumn, err)
	}
	return entity, nil
}

func (e *entityRepository) List(ctx context.Context, feature models.Feature) ([]models.Entity, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildListEntitiesQuery(feature)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := e.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "entityRepository.List").
			Str("feature", string(feature)).
			Msg("failed to query entities")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var entities []models.Entity
	for rows.Next() {
		var data string
		if err = rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		entity, decodeErr := models.DecodeEntity(feature, []byte(data))
		if decodeErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncodingColumn, decodeErr)
		}
		entities = append(entities, entity)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return entities, nil
}

func (e *entityRepository) Upsert(ctx context.Context, entity models.Entity) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncodingColumn, err)
	}

	query, args, err := buildUpsertEntityQuery(entity.Feature(), entity.ObjectID(), string(data), entity.Modified())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = e.db.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "entityRepository.Upsert").
			Str("feature", string(entity.Feature())).
			Str("object_id", entity.ObjectID()).
			Msg("failed to upsert entity")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// Delete removes the entity. Deleting an absent entity is not an error.
func (e *entityRepository) Delete(ctx context.Context, feature models.Feature, objectID string) error {
	query, args, err := buildDeleteEntityQuery(feature, objectID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = e.db.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "entityRepository.Delete").
			Str("feature", string(feature)).
			Str("object_id", objectID).
			Msg("failed to delete entity")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}
