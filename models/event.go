// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// ChangeKind classifies one applied remote change.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"

	// ChangeMalformed reports a fetched record that could not be decoded and
	// was skipped. Nothing was applied locally for it.
	ChangeMalformed ChangeKind = "malformed"
)

// ChangeEvent is published once per applied remote change. It never carries
// payload content or key material.
type ChangeEvent struct {
	Feature  Feature    `json:"feature"`
	ObjectID string     `json:"object_id"`
	Kind     ChangeKind `json:"kind"`
}
