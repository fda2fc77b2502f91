// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-sync-core/internal/logger"
	"github.com/MKhiriev/go-sync-core/models"
)

type accountRepository struct {
	db     *DB
	logger *logger.Logger
}

func NewAccountRepository(db *DB, logger *logger.Logger) AccountRepository {
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

// LoadAccount returns the persisted account without key material. Keys live
// in the caller's secure storage.
func (a *accountRepository) LoadAccount(ctx context.Context) (models.Account, error) {
	query, args, err := buildSelectAccountQuery()
	if err != nil {
		return models.Account{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var account models.Account
	err = a.db.conn(ctx).QueryRowContext(ctx, query, args...).
		Scan(&account.DeviceID, &account.UserID, &account.DeviceName, &account.Token)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ErrAccountNotFound
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "accountRepository.LoadAccount").Msg("failed to scan account row")
		return models.Account{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return account, nil
}

func (a *accountRepository) SaveAccount(ctx context.Context, account models.Account) error {
	query, args, err := buildUpsertAccountQuery(account)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = a.db.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "accountRepository.SaveAccount").
			Str("device_id", account.DeviceID).
			Msg("failed to save account")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (a *accountRepository) DeleteAccount(ctx context.Context) error {
	query, args, err := buildDeleteAccountQuery()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = a.db.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "accountRepository.DeleteAccount").Msg("failed to delete account")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}
