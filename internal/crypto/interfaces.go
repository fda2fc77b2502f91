// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

//go:generate mockgen -source=interfaces.go -destination=../mock/crypto_provider_mock.go -package=mock

// Provider is the client-side cryptography of the sync engine. It knows
// nothing about the network, storage or records; it only derives keys and
// seals strings.
//
// Key hierarchy:
//
//	PrimaryKey   = Argon2id(password, salt(userID))          deterministic, recovery key
//	PasswordHash = KDF(PrimaryKey, 1, "Password")            sent to the server, one-way
//	StretchedKey = KDF(PrimaryKey, 2, "Password")            never stored
//	SecretKey    = random 32 bytes                           encrypts payload fields
//	Protected    = secretbox(SecretKey, StretchedKey)        sent to the server
type Provider interface {
	// DeriveKey derives the primary key and the password hash from the user's
	// credentials. The result is deterministic for the same pair, so a device
	// can recreate its primary key from credentials alone.
	// Returns ErrInvalidArgs if userID or password is empty.
	DeriveKey(userID, password string) (primaryKey, passwordHash []byte, err error)

	// HashPassword re-derives the server-safe password hash from an existing
	// primary key. Returns ErrUnknown if the key is unusable.
	HashPassword(primaryKey []byte) ([]byte, error)

	// StretchKey derives the key that protects the secret key.
	StretchKey(primaryKey []byte) ([]byte, error)

	// GenerateAccountKeys produces everything account creation needs:
	// primary key, password hash, a fresh secret key and the secret key
	// sealed under the stretched primary key.
	GenerateAccountKeys(userID, password string) (AccountKeys, error)

	// Encrypt seals plaintext with key and returns base64(box || nonce).
	Encrypt(plaintext string, key []byte) (string, error)

	// Decrypt opens a value produced by Encrypt. Returns ErrDecryptionFailed
	// for tampered input, truncated input or a mismatched key.
	Decrypt(ciphertext string, key []byte) (string, error)
}

// AccountKeys is the key material produced at account creation.
// PrimaryKey and SecretKey must be kept by the caller in secure storage;
// PasswordHash and ProtectedSecretKey are safe to send to the server.
type AccountKeys struct {
	PrimaryKey         []byte
	SecretKey          []byte
	ProtectedSecretKey []byte
	PasswordHash       []byte
}
