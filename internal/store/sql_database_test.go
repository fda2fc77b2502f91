// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/MKhiriev/go-sync-core/internal/logger"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	return &DB{DB: sqlDB, logger: logger.Nop()}, mock
}

func TestInTx_CommitsOnSuccess(t *testing.T) {
	db, mock := newTestDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM outbox").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	repo := NewOutboxRepository(db, logger.Nop())
	err := db.InTx(context.Background(), func(ctx context.Context) error {
		return repo.Purge(ctx)
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_RollsBackOnError(t *testing.T) {
	db, mock := newTestDB(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := db.InTx(context.Background(), func(ctx context.Context) error {
		return boom
	})

	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_NestedReusesOuterTransaction(t *testing.T) {
	db, mock := newTestDB(t)

	// a single BEGIN/COMMIT pair even though InTx is entered twice
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM feature_sync_state").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	metadata := NewMetadataRepository(db, logger.Nop())
	err := db.InTx(context.Background(), func(ctx context.Context) error {
		return db.InTx(ctx, func(ctx context.Context) error {
			return metadata.Reset(ctx)
		})
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_BeginError(t *testing.T) {
	db, mock := newTestDB(t)

	mock.ExpectBegin().WillReturnError(errors.New("locked"))

	called := false
	err := db.InTx(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})

	require.ErrorIs(t, err, ErrBeginningTransaction)
	assert.False(t, called)
}

func TestInTx_CommitError(t *testing.T) {
	db, mock := newTestDB(t)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("disk full"))

	err := db.InTx(context.Background(), func(ctx context.Context) error { return nil })

	require.ErrorIs(t, err, ErrCommitingTransaction)
}

func TestInTx_RetriesBusyDatabase(t *testing.T) {
	db, mock := newTestDB(t)
	db.errorClassificator = NewSQLiteErrorClassifier()
	busy := sqlite3.Error{Code: sqlite3.ErrBusy}

	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	calls := 0
	err := db.InTx(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, busy)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_GivesUpAfterAttempts(t *testing.T) {
	db, mock := newTestDB(t)
	db.errorClassificator = NewSQLiteErrorClassifier()
	busy := sqlite3.Error{Code: sqlite3.ErrBusy}

	for range txAttempts {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}

	calls := 0
	err := db.InTx(context.Background(), func(ctx context.Context) error {
		calls++
		return busy
	})

	require.ErrorIs(t, err, busy)
	assert.Equal(t, txAttempts, calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_DoesNotRetryOtherErrors(t *testing.T) {
	db, mock := newTestDB(t)
	db.errorClassificator = NewSQLiteErrorClassifier()

	mock.ExpectBegin()
	mock.ExpectRollback()

	calls := 0
	err := db.InTx(context.Background(), func(ctx context.Context) error {
		calls++
		return sqlite3.Error{Code: sqlite3.ErrConstraint}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDsnWithOptions(t *testing.T) {
	assert.Equal(t, "sync.db?_busy_timeout=5000&_foreign_keys=on", dsnWithOptions("sync.db"))
	assert.Equal(t, "sync.db?mode=ro", dsnWithOptions("sync.db?mode=ro"))
	assert.Contains(t, dsnWithOptions(":memory:"), "memory")
}
