// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"fmt"
	"time"
)

// Feature is a logical category of synchronized data. Every feature has its
// own change stream on the server and its own checkpoint row locally.
type Feature string

const (
	FeatureBookmarks Feature = "bookmarks"
	FeatureTabs      Feature = "tabs"
	FeatureSettings  Feature = "settings"
)

// AllFeatures lists the features known to the engine in a stable order.
func AllFeatures() []Feature {
	return []Feature{FeatureBookmarks, FeatureTabs, FeatureSettings}
}

// ParseFeature validates a feature name coming from the outside world
// (CLI arguments, config, wire payloads).
func ParseFeature(s string) (Feature, error) {
	for _, f := range AllFeatures() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown feature %q", s)
}

// Cursor is an opaque, server-issued ordering token marking how much of a
// feature's change stream has been consumed.
type Cursor string

// ZeroCursor is sent when no cursor has been recorded yet. The server answers
// it with a full snapshot of the feature.
const ZeroCursor Cursor = "0"

// SyncState is the durable state of a feature between sync cycles.
type SyncState string

const (
	// StateReadyToSync means the last fetch completed and the stored cursor
	// can be trusted for incremental pushes and pulls.
	StateReadyToSync SyncState = "readyToSync"

	// StateNeedsRemoteDataFetch means the last fetch failed, was interrupted
	// or never happened. A catch-up fetch is required before pushing.
	StateNeedsRemoteDataFetch SyncState = "needsRemoteDataFetch"
)

// FeatureSyncState is the checkpoint of a single feature. There is exactly
// one row per feature name.
type FeatureSyncState struct {
	Name                   Feature    `json:"name"`
	State                  SyncState  `json:"state"`
	LastModified           *Cursor    `json:"last_modified,omitempty"`
	LastSyncLocalTimestamp *time.Time `json:"last_sync_local_timestamp,omitempty"`
}

// Since returns the cursor to pull from. An absent cursor always means a
// full snapshot.
func (s FeatureSyncState) Since() Cursor {
	if s.LastModified == nil || *s.LastModified == "" {
		return ZeroCursor
	}
	return *s.LastModified
}

// LocallyModifiedSince reports whether a local modification time is newer
// than the last successful sync of the feature.
func (s FeatureSyncState) LocallyModifiedSince(modified *time.Time) bool {
	if modified == nil {
		return false
	}
	if s.LastSyncLocalTimestamp == nil {
		return true
	}
	return modified.After(*s.LastSyncLocalTimestamp)
}

// SettingMetadata tracks the local modification time of one synchronizable
// setting key.
type SettingMetadata struct {
	Key          string     `json:"key"`
	LastModified *time.Time `json:"last_modified,omitempty"`
}
