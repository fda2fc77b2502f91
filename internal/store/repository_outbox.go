// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MKhiriev/go-sync-core/internal/logger"
	"github.com/MKhiriev/go-sync-core/models"
)

type outboxRepository struct {
	db     *DB
	logger *logger.Logger
	now    func() time.Time
}

func NewOutboxRepository(db *DB, logger *logger.Logger) OutboxRepository {
	return &outboxRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Stage persists records for the next send. A record replaces any entry
// already staged for the same object.
func (o *outboxRepository) Stage(ctx context.Context, records ...models.SyncableRecord) error {
	if len(records) == 0 {
		return nil
	}

	stagedAt := o.now()
	rows := make([]outboxRow, 0, len(records))
	for _, rec := range records {
		if rec.Feature == "" || rec.ObjectID == "" {
			return fmt.Errorf("%w: feature=%q object_id=%q", ErrInvalidOutboxRecord, rec.Feature, rec.ObjectID)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrEncodingColumn, err)
		}
		rows = append(rows, outboxRow{
			feature:  string(rec.Feature),
			objectID: rec.ObjectID,
			record:   string(data),
			stagedAt: stagedAt,
		})
	}

	query, args, err := buildStageOutboxQuery(rows...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = o.db.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "outboxRepository.Stage").
			Int("count", len(rows)).
			Msg("failed to stage records")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// Pending returns the staged entries of feature in staging order.
func (o *outboxRepository) Pending(ctx context.Context, feature models.Feature) ([]models.OutboxEntry, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildSelectOutboxQuery(feature)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := o.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "outboxRepository.Pending").
			Str("feature", string(feature)).
			Msg("failed to query outbox")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var entries []models.OutboxEntry
	for rows.Next() {
		var (
			entry    models.OutboxEntry
			feat     string
			rawValue string
		)
		if err = rows.Scan(&entry.Seq, &feat, &entry.ObjectID, &rawValue, &entry.StagedAt); err != nil {
			log.Err(err).
				Str("func", "outboxRepository.Pending").
				Str("feature", string(feature)).
				Msg("failed to scan outbox row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		entry.Feature = models.Feature(feat)
		if err = json.Unmarshal([]byte(rawValue), &entry.Record); err != nil {
			return nil, fmt.Errorf("%w: outbox entry %d: %w", ErrEncodingColumn, entry.Seq, err)
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return entries, nil
}

// Clear removes the given entries once the server accepted them. Entries
// restaged in the meantime carry a new sequence number and survive.
func (o *outboxRepository) Clear(ctx context.Context, feature models.Feature, seqs ...int64) error {
	if len(seqs) == 0 {
		return nil
	}

	query, args, err := buildClearOutboxQuery(feature, seqs)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = o.db.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "outboxRepository.Clear").
			Str("feature", string(feature)).
			Int("count", len(seqs)).
			Msg("failed to clear outbox entries")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (o *outboxRepository) Purge(ctx context.Context) error {
	query, args, err := buildPurgeOutboxQuery()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = o.db.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "outboxRepository.Purge").Msg("failed to purge outbox")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}
