// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-sync-core/internal/config"
	"github.com/MKhiriev/go-sync-core/internal/logger"
)

// ClientStorages groups all client-side repositories over one SQLite
// database so they can be passed to the service layer as a single value.
type ClientStorages struct {
	db *DB

	// Transactor opens the transaction every repository below joins.
	Transactor Transactor

	Metadata MetadataRepository
	Outbox   OutboxRepository
	Accounts AccountRepository
	Entities EntityRepository
}

// NewClientStorages initialises the client storage layer:
//  1. opens the SQLite file at cfg.DB.DSN, creating it when missing;
//  2. runs pending schema migrations via [DB.Migrate];
//  3. wires every repository to the same handle.
func NewClientStorages(ctx context.Context, cfg config.ClientStorage, logger *logger.Logger) (*ClientStorages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := NewConnectSQLite(ctx, cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err = db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return newClientStorages(db, logger), nil
}

func newClientStorages(db *DB, logger *logger.Logger) *ClientStorages {
	return &ClientStorages{
		db:         db,
		Transactor: db,
		Metadata:   NewMetadataRepository(db, logger),
		Outbox:     NewOutboxRepository(db, logger),
		Accounts:   NewAccountRepository(db, logger),
		Entities:   NewEntityRepository(db, logger),
	}
}

// Close releases the database handle.
func (s *ClientStorages) Close() error {
	return s.db.Close()
}
