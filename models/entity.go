// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entity is a locally-owned native object that can be synchronized. Adapters
// translate entities to and from SyncableRecord.
type Entity interface {
	Feature() Feature
	ObjectID() string
	Modified() *time.Time
}

// Bookmark is a bookmark or a bookmark folder. Favorites are bookmarks with
// IsFavorite set.
type Bookmark struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	URL          string     `json:"url,omitempty"`
	IsFolder     bool       `json:"is_folder,omitempty"`
	IsFavorite   bool       `json:"is_favorite,omitempty"`
	ParentID     string     `json:"parent_id,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`

	// Extra keeps payload fields this client does not understand so they are
	// sent back unchanged.
	Extra map[string]json.RawMessage `json:"extra,omitempty"`
}

// Tab is an open browser tab on some device.
type Tab struct {
	ID           string     `json:"id"`
	Title        string     `json:"title,omitempty"`
	URL          string     `json:"url"`
	Index        int        `json:"index"`
	LastAccessed time.Time  `json:"last_accessed"`
	LastModified *time.Time `json:"last_modified,omitempty"`

	Extra map[string]json.RawMessage `json:"extra,omitempty"`
}

// Setting is one synchronizable key/value preference.
type Setting struct {
	Key          string     `json:"key"`
	Value        string     `json:"value"`
	LastModified *time.Time `json:"last_modified,omitempty"`

	Extra map[string]json.RawMessage `json:"extra,omitempty"`
}

func (Bookmark) Feature() Feature { return FeatureBookmarks }
func (Tab) Feature() Feature      { return FeatureTabs }
func (Setting) Feature() Feature  { return FeatureSettings }

func (b Bookmark) ObjectID() string { return b.ID }
func (t Tab) ObjectID() string      { return t.ID }
func (s Setting) ObjectID() string  { return s.Key }

func (b Bookmark) Modified() *time.Time { return b.LastModified }
func (t Tab) Modified() *time.Time      { return t.LastModified }
func (s Setting) Modified() *time.Time  { return s.LastModified }

// DecodeEntity restores a native entity of the given feature from its JSON
// form.
func DecodeEntity(feature Feature, data []byte) (Entity, error) {
	switch feature {
	case FeatureBookmarks:
		var b Bookmark
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("decode bookmark: %w", err)
		}
		return b, nil
	case FeatureTabs:
		var t Tab
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("decode tab: %w", err)
		}
		return t, nil
	case FeatureSettings:
		var s Setting
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("decode setting: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown feature %q", feature)
	}
}

// Stamp returns e with its modification time set to at if it has none. An
// entity that already carries a time is returned unchanged.
func Stamp(e Entity, at time.Time) Entity {
	if e.Modified() != nil {
		return e
	}
	at = at.UTC()
	switch v := e.(type) {
	case Bookmark:
		v.LastModified = &at
		return v
	case Tab:
		v.LastModified = &at
		return v
	case Setting:
		v.LastModified = &at
		return v
	default:
		return e
	}
}
