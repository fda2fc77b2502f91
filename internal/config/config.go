// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// EnvPrefix is prepended to every environment variable read by [parseEnv].
const EnvPrefix = "SYNC_"

// StructuredConfig is the top-level configuration container for the
// go-sync-core client. It aggregates all sub-configurations and is populated
// by merging values from command-line flags, environment variables, an
// optional JSON file and built-in defaults.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env:       direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings such as the transport hash key
	// and the name this device registers under.
	App App `envPrefix:"APP_"`

	// Storage holds the local SQLite database and key file locations.
	Storage Storage `envPrefix:"STORAGE_"`

	// Adapter holds the sync server address and request settings.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Workers holds configuration for background worker processes.
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the SYNC_CONFIG environment variable or the --config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// HashKey is the HMAC key used for request integrity checking
	// (the HashSHA256 header). Empty disables the header.
	// Env: SYNC_APP_HASH_KEY
	HashKey string `env:"HASH_KEY"`

	// DeviceName is the human readable name registered with the server.
	// Env: SYNC_APP_DEVICE_NAME
	DeviceName string `env:"DEVICE_NAME"`

	// LogFile is where the client writes its JSON log.
	// Env: SYNC_APP_LOG_FILE
	LogFile string `env:"LOG_FILE"`
}

// Storage groups the local persistence settings.
type Storage struct {
	// DB holds the SQLite connection settings.
	DB DB `envPrefix:"DB_"`

	// KeyFile is the path of the 0600 file holding the account keys.
	// Env: SYNC_STORAGE_KEY_FILE
	KeyFile string `env:"KEY_FILE"`
}

// DB holds connection settings for the local database.
type DB struct {
	// DSN is the SQLite file path (e.g. "sync.db").
	// Env: SYNC_STORAGE_DB_DSN
	DSN string `env:"DSN"`
}

// Adapter holds the outbound transport settings.
type Adapter struct {
	// HTTPAddress is the sync server base address, either "host:port" or a
	// full URL (e.g. "https://sync.example.com").
	// Env: SYNC_ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds a single outbound request (e.g. "30s").
	// Env: SYNC_ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// RetryCount is how many times a request failing at the transport level
	// is retried. Zero disables retries.
	// Env: SYNC_ADAPTER_RETRY_COUNT
	RetryCount int `env:"RETRY_COUNT"`

	// RetryWait is the initial wait between retries.
	// Env: SYNC_ADAPTER_RETRY_WAIT
	RetryWait time.Duration `env:"RETRY_WAIT"`
}

// Workers holds configuration for background worker processes.
type Workers struct {
	// SyncInterval is the period of the background sync cycle.
	// Env: SYNC_WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`
}

// Defaults used for every field no source sets.
const (
	DefaultDSN            = "sync.db"
	DefaultKeyFile        = "sync.key"
	DefaultLogFile        = "sync.log"
	DefaultDeviceName     = "go-sync-core"
	DefaultRequestTimeout = 30 * time.Second
	DefaultRetryWait      = 500 * time.Millisecond
	DefaultSyncInterval   = 5 * time.Minute
)

func defaultConfig() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			DeviceName: DefaultDeviceName,
			LogFile:    DefaultLogFile,
		},
		Storage: Storage{
			DB:      DB{DSN: DefaultDSN},
			KeyFile: DefaultKeyFile,
		},
		Adapter: Adapter{
			RequestTimeout: DefaultRequestTimeout,
			RetryWait:      DefaultRetryWait,
		},
		Workers: Workers{SyncInterval: DefaultSyncInterval},
	}
}

// GetStructuredConfig loads, merges, and validates the configuration from all
// available sources in the following priority order (first source wins for
// non-zero fields):
//  1. Command-line flags (flags may be nil)
//  2. Environment variables
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in defaults
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load or the final config fails validation.
func GetStructuredConfig(flags *Flags) (*StructuredConfig, error) {
	return newConfigBuilder().
		withFlags(flags).
		withEnv().
		withJSON().
		withDefaults().
		build()
}
