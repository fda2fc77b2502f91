// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// Account is the per-device sync identity. It is created once by account
// creation and destroyed on sign-out.
//
// PrimaryKey and SecretKey never leave memory through this package: they are
// excluded from JSON and must be stored by the caller in secure storage.
type Account struct {
	DeviceID   string `json:"device_id"`
	UserID     string `json:"user_id"`
	DeviceName string `json:"device_name"`
	Token      string `json:"-"`

	PrimaryKey []byte `json:"-"`
	SecretKey  []byte `json:"-"`
}

// HasKeys reports whether the account can encrypt and decrypt payloads.
func (a Account) HasKeys() bool {
	return len(a.PrimaryKey) > 0 && len(a.SecretKey) > 0
}
