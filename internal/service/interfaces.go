// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package service implements the sync engine: account lifecycle, the
// per-feature send and fetch protocol, conflict resolution and change
// notification.
//
// The engine owns no global state. Storage, transport, crypto and the feature
// adapters are passed to [NewSyncEngine] and live as long as the engine.
package service

import (
	"context"

	"github.com/MKhiriev/go-sync-core/internal/events"
	"github.com/MKhiriev/go-sync-core/models"
)

// SyncEngine is the public surface of the sync core.
type SyncEngine interface {
	// CreateAccount generates a device id, derives the account keys from
	// userID and password, registers the device with the server and persists
	// the account. Fails with ErrAccountExists if an account is active and
	// ErrAccountNotFound if the server rejects the credentials.
	//
	// The returned account carries the keys; the caller stores them.
	CreateAccount(ctx context.Context, userID, password, deviceName string) (models.Account, error)

	// UseAccount activates a previously created account whose keys the
	// caller loaded from secure storage.
	UseAccount(account models.Account) error

	// Account returns the active account, if any.
	Account() (models.Account, bool)

	// SignOut destroys the account: the persisted row, every checkpoint and
	// the outbox. Local entities are kept.
	SignOut(ctx context.Context) error

	// Sender starts a batch of local changes.
	Sender() *Sender

	// Send pushes what is pending in the outbox for the given features, or
	// for every feature when none are given.
	Send(ctx context.Context, features ...models.Feature) error

	// Fetch pulls and merges remote changes for the given features, or for
	// every feature when none are given.
	Fetch(ctx context.Context, features ...models.Feature) error

	// Sync runs a fetch followed by a send for every feature.
	Sync(ctx context.Context) error

	// Subscribe attaches to the change feed.
	Subscribe(buffer int) *events.Subscription

	// Close detaches every subscriber and wipes the keys from memory.
	Close()
}
