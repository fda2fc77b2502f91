// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/MKhiriev/go-sync-core/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyedAccount() models.Account {
	return models.Account{
		DeviceID:   "device-1",
		UserID:     "user-1",
		PrimaryKey: bytes.Repeat([]byte{1}, 32),
		SecretKey:  bytes.Repeat([]byte{2}, 32),
	}
}

func TestSaveKeys_LoadKeys_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sync.key")

	require.NoError(t, SaveKeys(path, keyedAccount()))

	got, err := LoadKeys(path, models.Account{DeviceID: "device-1", UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, keyedAccount(), got)
}

func TestSaveKeys_FileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.key")
	require.NoError(t, SaveKeys(path, keyedAccount()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(keyFileMode), info.Mode().Perm())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSaveKeys_NoKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.key")

	err := SaveKeys(path, models.Account{DeviceID: "device-1"})
	assert.ErrorIs(t, err, ErrInvalidKeyFile)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadKeys_Errors(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), keyFileMode))
		return p
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{name: "missing", path: filepath.Join(dir, "absent.key"), want: ErrNoKeyFile},
		{name: "corrupt", path: write("corrupt.key", "{not json"), want: ErrInvalidKeyFile},
		{name: "other device", path: write("other.key", `{"device_id":"device-2","primary_key":"AQ==","secret_key":"Ag=="}`), want: ErrInvalidKeyFile},
		{name: "no keys", path: write("empty.key", `{"device_id":"device-1"}`), want: ErrInvalidKeyFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadKeys(tt.path, models.Account{DeviceID: "device-1"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRemoveKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.key")
	require.NoError(t, SaveKeys(path, keyedAccount()))

	require.NoError(t, RemoveKeys(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// already gone
	assert.NoError(t, RemoveKeys(path))
}
