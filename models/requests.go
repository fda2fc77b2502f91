// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// RegisterRequest registers a new device for a user. Binary values are
// standard base64.
type RegisterRequest struct {
	UserID                 string `json:"user_id"`
	HashedPassword         string `json:"hashed_password"`
	ProtectedEncryptionKey string `json:"protected_encryption_key"`
	DeviceID               string `json:"device_id"`
	DeviceName             string `json:"device_name"`
}

// RegisterResponse is the server answer to a successful registration.
type RegisterResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id,omitempty"`
}

// PushRequest uploads a batch of changes of one feature. ModifiedSince is the
// optimistic-concurrency precondition: the server rejects the batch when its
// cursor moved past it.
type PushRequest struct {
	ModifiedSince Cursor           `json:"modified_since"`
	Updates       []SyncableRecord `json:"updates"`
}

// PushResponse carries the feature cursor after the batch was accepted.
type PushResponse struct {
	LastModified Cursor `json:"last_modified"`
}

// PullResponse carries the changes after the requested cursor and the cursor
// to use next time.
type PullResponse struct {
	Entries      []SyncableRecord `json:"entries"`
	LastModified Cursor           `json:"last_modified"`
}
