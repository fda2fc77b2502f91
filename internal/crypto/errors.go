// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import "errors"

// Sentinel errors of the crypto provider. Callers match them with errors.Is.
var (
	// ErrInvalidArgs is returned when key derivation receives an empty user
	// id or password.
	ErrInvalidArgs = errors.New("invalid crypto arguments")

	// ErrUnknown is returned when an underlying hash primitive fails or is
	// given unusable key material.
	ErrUnknown = errors.New("unknown crypto error")

	// ErrEncryptionFailed is returned when sealing fails (bad key length or
	// no randomness available).
	ErrEncryptionFailed = errors.New("encryption failed")

	// ErrDecryptionFailed is returned when a ciphertext cannot be opened:
	// malformed encoding, truncated blob, tampering or wrong key.
	ErrDecryptionFailed = errors.New("decryption failed")
)
