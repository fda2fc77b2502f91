// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the transport between the sync engine and the sync
// server.
//
// The primary abstraction is [ServerAdapter], which decouples the service
// layer from the underlying protocol. The package ships an HTTP/REST
// implementation ([NewHTTPServerAdapter]).
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic
// error handling (e.g. [ErrConflict] for 409/412, [ErrUnauthorized] for 401).
package adapter

import (
	"context"

	"github.com/MKhiriev/go-sync-core/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_adapter_mock.go -package=mock

// ServerAdapter defines transport-agnostic communication with the sync
// server. Implementations are responsible for serialisation, authentication
// header management, and mapping transport-level errors to the sentinel
// values defined in this package.
type ServerAdapter interface {
	// SetToken stores the bearer token attached to all subsequent
	// authenticated requests.
	SetToken(token string)

	// Token returns the bearer token currently stored in the adapter, or an
	// empty string if no token has been set yet.
	Token() string

	// Register creates the device account on the server. On success the
	// returned token is stored via SetToken and the user id is read from its
	// subject claim.
	Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResponse, error)

	// Push uploads records of one feature against the expected cursor and
	// returns the feature's new cursor. Returns [ErrConflict] (wrapped) if
	// the server's cursor moved past expected.
	Push(ctx context.Context, feature models.Feature, records []models.SyncableRecord, expected models.Cursor) (models.Cursor, error)

	// Pull returns the records of feature changed after since, and the cursor
	// to continue from. [models.ZeroCursor] requests a full snapshot.
	Pull(ctx context.Context, feature models.Feature, since models.Cursor) ([]models.SyncableRecord, models.Cursor, error)
}
