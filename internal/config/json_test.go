package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_Success(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "config.json")

	jsonBody := `{
		"app": {"hash_key": "hk", "device_name": "laptop", "log_file": "sync.log"},
		"storage": {"db": {"dsn": "/var/lib/sync.db"}, "key_file": "/var/lib/sync.key"},
		"adapter": {"http_address": "localhost:8080", "request_timeout": "30s", "retry_count": 2, "retry_wait": "1s"},
		"workers": {"sync_interval": "5m"}
	}`
	require.NoError(t, os.WriteFile(p, []byte(jsonBody), 0o600))

	cfg, err := parseJSON(p)
	require.NoError(t, err)

	assert.Equal(t, "hk", cfg.App.HashKey)
	assert.Equal(t, "laptop", cfg.App.DeviceName)
	assert.Equal(t, "sync.log", cfg.App.LogFile)
	assert.Equal(t, "/var/lib/sync.db", cfg.Storage.DB.DSN)
	assert.Equal(t, "/var/lib/sync.key", cfg.Storage.KeyFile)
	assert.Equal(t, "localhost:8080", cfg.Adapter.HTTPAddress)
	assert.Equal(t, 30*time.Second, cfg.Adapter.RequestTimeout)
	assert.Equal(t, 2, cfg.Adapter.RetryCount)
	assert.Equal(t, time.Second, cfg.Adapter.RetryWait)
	assert.Equal(t, 5*time.Minute, cfg.Workers.SyncInterval)
	assert.Empty(t, cfg.JSONFilePath)
}

func TestParseJSON_FileNotFound(t *testing.T) {
	_, err := parseJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestParseJSON_BadDuration(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"workers": {"sync_interval": "often"}}`), 0o600))

	_, err := parseJSON(p)
	assert.Error(t, err)
}

func TestDuration_JSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Duration
	}{
		{name: "string", in: `"1m30s"`, want: 90 * time.Second},
		{name: "nanoseconds", in: `1000`, want: time.Microsecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			require.NoError(t, json.Unmarshal([]byte(tt.in), &d))
			assert.Equal(t, tt.want, time.Duration(d))
		})
	}

	out, err := json.Marshal(Duration(time.Minute))
	require.NoError(t, err)
	assert.JSONEq(t, `"1m0s"`, string(out))
}
