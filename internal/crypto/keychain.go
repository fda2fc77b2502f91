// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	PrimaryKeySize   = 32
	SecretKeySize    = 32
	PasswordHashSize = 32
	StretchedKeySize = 32

	nonceSize = 24
	saltSize  = 16

	// kdfContext scopes every subkey derivation to sync use only. It must be
	// exactly 8 bytes.
	kdfContext = "Password"

	passwordHashSubkeyID uint64 = 1
	stretchedKeySubkeyID uint64 = 2
)

// keyChain is the private implementation of [Provider].
type keyChain struct {
	// Argon2id tuning parameters, kept in the struct so tests and small
	// devices can lower them.
	argonTime    uint32
	argonMemory  uint32
	argonThreads uint8

	random io.Reader
}

// NewProvider constructs a [Provider] with the Argon2id parameters
// recommended by OWASP (2024):
//   - time cost:   1 iteration
//   - memory cost: 64 MiB
//   - parallelism: 4 threads
func NewProvider() Provider {
	return &keyChain{
		argonTime:    1,
		argonMemory:  64 * 1024,
		argonThreads: 4,
		random:       rand.Reader,
	}
}

// DeriveKey implements [Provider]. The Argon2id salt is a BLAKE2b-128 digest
// of the user id, which keeps the derivation deterministic per account while
// still separating users with equal passwords.
func (k *keyChain) DeriveKey(userID, password string) ([]byte, []byte, error) {
	if userID == "" {
		return nil, nil, fmt.Errorf("%w: empty user id", ErrInvalidArgs)
	}
	if password == "" {
		return nil, nil, fmt.Errorf("%w: empty password", ErrInvalidArgs)
	}

	salt, err := userSalt(userID)
	if err != nil {
		return nil, nil, err
	}

	primaryKey := argon2.IDKey([]byte(password), salt, k.argonTime, k.argonMemory, k.argonThreads, PrimaryKeySize)

	passwordHash, err := k.HashPassword(primaryKey)
	if err != nil {
		return nil, nil, err
	}

	return primaryKey, passwordHash, nil
}

// HashPassword implements [Provider].
func (k *keyChain) HashPassword(primaryKey []byte) ([]byte, error) {
	hash, err := deriveSubkey(primaryKey, passwordHashSubkeyID, PasswordHashSize)
	if err != nil {
		return nil, fmt.Errorf("create password hash: %w", err)
	}
	return hash, nil
}

// StretchKey implements [Provider].
func (k *keyChain) StretchKey(primaryKey []byte) ([]byte, error) {
	stretched, err := deriveSubkey(primaryKey, stretchedKeySubkeyID, StretchedKeySize)
	if err != nil {
		return nil, fmt.Errorf("create stretched primary key: %w", err)
	}
	return stretched, nil
}

// GenerateAccountKeys implements [Provider]. The stretched key only lives
// for the duration of the call.
func (k *keyChain) GenerateAccountKeys(userID, password string) (AccountKeys, error) {
	primaryKey, passwordHash, err := k.DeriveKey(userID, password)
	if err != nil {
		return AccountKeys{}, err
	}

	secretKey := make([]byte, SecretKeySize)
	if _, err = io.ReadFull(k.random, secretKey); err != nil {
		return AccountKeys{}, fmt.Errorf("%w: generate secret key: %v", ErrUnknown, err)
	}

	stretched, err := k.StretchKey(primaryKey)
	if err != nil {
		return AccountKeys{}, err
	}
	defer Zero(stretched)

	protected, err := k.seal(secretKey, stretched)
	if err != nil {
		return AccountKeys{}, fmt.Errorf("create protected secret key: %w", err)
	}

	return AccountKeys{
		PrimaryKey:         primaryKey,
		SecretKey:          secretKey,
		ProtectedSecretKey: protected,
		PasswordHash:       passwordHash,
	}, nil
}

// Encrypt implements [Provider].
func (k *keyChain) Encrypt(plaintext string, key []byte) (string, error) {
	blob, err := k.seal([]byte(plaintext), key)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt implements [Provider].
func (k *keyChain) Decrypt(ciphertext string, key []byte) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: decode base64: %v", ErrDecryptionFailed, err)
	}

	plain, err := open(blob, key)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// seal encrypts message with XSalsa20-Poly1305. Layout: box || nonce, the
// box already starting with the 16-byte MAC.
func (k *keyChain) seal(message, key []byte) ([]byte, error) {
	if len(key) != SecretKeySize {
		return nil, fmt.Errorf("%w: invalid key length %d", ErrEncryptionFailed, len(key))
	}

	var secret [SecretKeySize]byte
	copy(secret[:], key)
	defer Zero(secret[:])

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(k.random, nonce[:]); err != nil {
		return nil, fmt.Errorf("%w: generate nonce: %v", ErrEncryptionFailed, err)
	}

	box := secretbox.Seal(nil, message, &nonce, &secret)
	return append(box, nonce[:]...), nil
}

func open(blob, key []byte) ([]byte, error) {
	if len(key) != SecretKeySize {
		return nil, fmt.Errorf("%w: invalid key length %d", ErrDecryptionFailed, len(key))
	}
	if len(blob) < secretbox.Overhead+nonceSize {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}

	var secret [SecretKeySize]byte
	copy(secret[:], key)
	defer Zero(secret[:])

	var nonce [nonceSize]byte
	split := len(blob) - nonceSize
	copy(nonce[:], blob[split:])

	plain, ok := secretbox.Open(nil, blob[:split], &nonce, &secret)
	if !ok {
		return nil, ErrDecryptionFailed
	}
	return plain, nil
}

// deriveSubkey is a BLAKE2b keyed derivation over subkeyID (little endian)
// and the fixed context.
func deriveSubkey(key []byte, subkeyID uint64, size int) ([]byte, error) {
	if len(key) != PrimaryKeySize {
		return nil, fmt.Errorf("%w: invalid primary key length %d", ErrUnknown, len(key))
	}

	h, err := blake2b.New(size, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknown, err)
	}

	var id [8]byte
	binary.LittleEndian.PutUint64(id[:], subkeyID)
	h.Write(id[:])
	h.Write([]byte(kdfContext))

	return h.Sum(nil), nil
}

func userSalt(userID string) ([]byte, error) {
	h, err := blake2b.New(saltSize, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknown, err)
	}
	h.Write([]byte(userID))
	return h.Sum(nil), nil
}

// Zero overwrites b in place. Used to drop key material once an operation is
// done with it.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
