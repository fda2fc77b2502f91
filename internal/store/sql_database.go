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
	"github.com/MKhiriev/go-sync-core/migrations"
)

// DB is the shared SQLite handle of all repositories.
type DB struct {
	*sql.DB
	logger *logger.Logger

	// errorClassificator decides which failed transactions are retried. Nil
	// disables retries.
	errorClassificator ErrorClassificator
}

const (
	txAttempts  = 3
	txRetryWait = 50 * time.Millisecond
)

func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB)
}

type txKey struct{}

// executor is the part of *sql.DB and *sql.Tx the repositories use.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the transaction carried by ctx, or the pool when there is none.
func (db *DB) conn(ctx context.Context) executor {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db.DB
}

// InTx runs fn inside a single transaction. Repositories called with the
// context passed to fn join that transaction. A nested InTx reuses the outer
// transaction; only the outermost call commits.
//
// A transaction that fails because the database is busy or locked is rolled
// back and run again, fn included, a bounded number of times.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	var err error
	for attempt := 1; ; attempt++ {
		err = db.runTx(ctx, fn)
		if err == nil || attempt == txAttempts || !db.retryable(err) {
			return err
		}

		logger.FromContext(ctx).Warn().Err(err).
			Str("func", "DB.InTx").
			Int("attempt", attempt).
			Msg("database busy, retrying transaction")

		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(txRetryWait * time.Duration(attempt)):
		}
	}
}

func (db *DB) retryable(err error) bool {
	return db.errorClassificator != nil && db.errorClassificator.Classify(err) == Retryable
}

func (db *DB) runTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "DB.InTx").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Err(rbErr).Str("func", "DB.InTx").Msg("failed to rollback transaction")
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", "DB.InTx").Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}
