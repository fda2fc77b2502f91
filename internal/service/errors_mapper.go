// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-sync-core/internal/adapter"
)

// mapRegisterError translates the transport error of a registration into a
// service business error. Rejected credentials become ErrAccountNotFound.
func mapRegisterError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, adapter.ErrUnauthorized),
		errors.Is(err, adapter.ErrForbidden),
		errors.Is(err, adapter.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrAccountNotFound, err)
	case errors.Is(err, adapter.ErrConflict):
		return fmt.Errorf("%w: %w", ErrAccountExists, err)
	default:
		return fmt.Errorf("register device: %w", err)
	}
}

// mapPushError translates the transport error of a push. Precondition
// failures become ErrConflict; everything else passes through wrapped.
func mapPushError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, adapter.ErrConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return fmt.Errorf("push: %w", err)
	}
}
