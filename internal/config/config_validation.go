// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "strings"

// validate checks that the final merged [StructuredConfig] is internally
// consistent. Source-specific checks (required client fields) happen in
// [ClientConfig.validate].
func (cfg *StructuredConfig) validate() error {
	if cfg.Adapter.RetryCount < 0 || cfg.Adapter.RetryWait < 0 {
		return ErrInvalidAdapterConfigs
	}
	return nil
}

// validate rejects in-memory databases: sync state has to survive restarts.
func (cfg *ClientConfig) validate() error {
	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, "memory") || cfg.Storage.KeyFile == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Workers.SyncInterval <= 0 {
		return ErrInvalidWorkerConfigs
	}

	if strings.TrimSpace(cfg.App.DeviceName) == "" {
		return ErrInvalidAppConfigs
	}

	return nil
}
