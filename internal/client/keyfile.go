// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/MKhiriev/go-sync-core/models"
)

const keyFileMode = 0o600

// keyFile is the on-disk form of the account keys. []byte fields are base64
// in JSON.
type keyFile struct {
	DeviceID   string `json:"device_id"`
	PrimaryKey []byte `json:"primary_key"`
	SecretKey  []byte `json:"secret_key"`
}

// SaveKeys writes the account keys to path, readable by the owner only. The
// file is replaced atomically.
func SaveKeys(path string, account models.Account) error {
	if !account.HasKeys() {
		return fmt.Errorf("%w: account has no keys", ErrInvalidKeyFile)
	}

	data, err := json.Marshal(keyFile{
		DeviceID:   account.DeviceID,
		PrimaryKey: account.PrimaryKey,
		SecretKey:  account.SecretKey,
	})
	if err != nil {
		return fmt.Errorf("encode key file: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create key file dir: %w", err)
	}

	tmp := path + ".tmp"
	if err = os.WriteFile(tmp, data, keyFileMode); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace key file: %w", err)
	}

	return nil
}

// LoadKeys fills the keys of account from path. The file must belong to the
// same device.
func LoadKeys(path string, account models.Account) (models.Account, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.Account{}, ErrNoKeyFile
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("read key file: %w", err)
	}

	var kf keyFile
	if err = json.Unmarshal(data, &kf); err != nil {
		return models.Account{}, fmt.Errorf("%w: %w", ErrInvalidKeyFile, err)
	}
	if kf.DeviceID != account.DeviceID {
		return models.Account{}, fmt.Errorf("%w: device %q", ErrInvalidKeyFile, kf.DeviceID)
	}

	account.PrimaryKey = kf.PrimaryKey
	account.SecretKey = kf.SecretKey
	if !account.HasKeys() {
		return models.Account{}, fmt.Errorf("%w: missing keys", ErrInvalidKeyFile)
	}

	return account, nil
}

// RemoveKeys deletes the key file. A missing file is not an error.
func RemoveKeys(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove key file: %w", err)
	}
	return nil
}
