// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package features holds one adapter per synchronized feature. Adapters
// decide which fields are sensitive, encrypt them on the way out and check
// every fetched record before it may touch local storage.
package features

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/MKhiriev/go-sync-core/internal/crypto"
	"github.com/MKhiriev/go-sync-core/models"
)

var errInvalidURL = errors.New("not an absolute url")

// Option configures an adapter.
type Option func(*base)

// WithClock replaces time.Now for stamping modification times.
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		b.now = now
	}
}

// base carries what every adapter needs.
type base struct {
	crypto crypto.Provider
	now    func() time.Time
}

func newBase(provider crypto.Provider, opts ...Option) base {
	b := base{crypto: provider, now: time.Now}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// stamp returns modified or the current time, always in UTC.
func (b base) stamp(modified *time.Time) *time.Time {
	var at time.Time
	if modified != nil {
		at = modified.UTC()
	} else {
		at = b.now().UTC()
	}
	return &at
}

func (b base) encrypt(feature models.Feature, field, value string, key []byte) (string, error) {
	ct, err := b.crypto.Encrypt(value, key)
	if err != nil {
		return "", fmt.Errorf("encrypt %s %s: %w", feature, field, err)
	}
	return ct, nil
}

// decryptRequired opens a field that must be present.
func (b base) decryptRequired(rec models.SyncableRecord, field, value string, key []byte) (string, error) {
	if value == "" {
		return "", malformed(rec, "missing "+field)
	}
	plain, err := b.crypto.Decrypt(value, key)
	if err != nil {
		return "", malformedErr(rec, field, err)
	}
	return plain, nil
}

// decryptOptional opens a field that may be absent.
func (b base) decryptOptional(rec models.SyncableRecord, field, value string, key []byte) (string, error) {
	if value == "" {
		return "", nil
	}
	plain, err := b.crypto.Decrypt(value, key)
	if err != nil {
		return "", malformedErr(rec, field, err)
	}
	return plain, nil
}

// checkRecord rejects records no adapter can decode.
func checkRecord(rec models.SyncableRecord, feature models.Feature) error {
	if rec.Feature != feature {
		return malformed(rec, fmt.Sprintf("feature %q is not %q", rec.Feature, feature))
	}
	if rec.IsDeleted {
		return malformed(rec, "tombstone has no entity")
	}
	if err := rec.PayloadErr(); err != nil {
		return malformedErr(rec, "payload", err)
	}
	if rec.Payload == nil {
		return malformed(rec, "missing payload")
	}
	return nil
}

// validateURL accepts absolute URLs with a scheme and a host. The error never
// echoes the URL, which is user content.
func validateURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return errInvalidURL
	}
	if u.Scheme == "" || u.Host == "" {
		return errInvalidURL
	}
	return nil
}
