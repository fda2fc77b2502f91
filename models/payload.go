// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"fmt"
)

// Payload is the feature-specific content of a SyncableRecord. Exactly one
// variant exists per feature. Fields the client does not know about are kept
// in the variant's Unknown bucket and written back unchanged.
type Payload interface {
	Feature() Feature
	json.Marshaler
}

// BookmarkPayload is the wire content of a bookmark or folder. Title and URL
// travel encrypted.
type BookmarkPayload struct {
	Title      string `json:"title"`
	URL        string `json:"url,omitempty"`
	IsFolder   bool   `json:"folder,omitempty"`
	IsFavorite bool   `json:"favorite,omitempty"`
	ParentID   string `json:"parent,omitempty"`

	Unknown map[string]json.RawMessage `json:"-"`
}

// TabPayload is the wire content of an open tab. Title and URL travel
// encrypted; LastAccessed is an RFC 3339 date.
type TabPayload struct {
	Title        string `json:"title,omitempty"`
	URL          string `json:"url"`
	Index        int    `json:"index"`
	LastAccessed string `json:"last_accessed"`

	Unknown map[string]json.RawMessage `json:"-"`
}

// SettingPayload is the wire content of one setting. The key is the record's
// object id; the value travels encrypted.
type SettingPayload struct {
	Value string `json:"value"`

	Unknown map[string]json.RawMessage `json:"-"`
}

func (BookmarkPayload) Feature() Feature { return FeatureBookmarks }
func (TabPayload) Feature() Feature      { return FeatureTabs }
func (SettingPayload) Feature() Feature  { return FeatureSettings }

func (p BookmarkPayload) MarshalJSON() ([]byte, error) {
	type fields BookmarkPayload
	return mergeUnknown(fields(p), p.Unknown)
}

func (p *BookmarkPayload) UnmarshalJSON(b []byte) error {
	type fields BookmarkPayload
	var f fields
	unknown, err := splitUnknown(b, &f, "title", "url", "folder", "favorite", "parent")
	if err != nil {
		return err
	}
	*p = BookmarkPayload(f)
	p.Unknown = unknown
	return nil
}

func (p TabPayload) MarshalJSON() ([]byte, error) {
	type fields TabPayload
	return mergeUnknown(fields(p), p.Unknown)
}

func (p *TabPayload) UnmarshalJSON(b []byte) error {
	type fields TabPayload
	var f fields
	unknown, err := splitUnknown(b, &f, "title", "url", "index", "last_accessed")
	if err != nil {
		return err
	}
	*p = TabPayload(f)
	p.Unknown = unknown
	return nil
}

func (p SettingPayload) MarshalJSON() ([]byte, error) {
	type fields SettingPayload
	return mergeUnknown(fields(p), p.Unknown)
}

func (p *SettingPayload) UnmarshalJSON(b []byte) error {
	type fields SettingPayload
	var f fields
	unknown, err := splitUnknown(b, &f, "value")
	if err != nil {
		return err
	}
	*p = SettingPayload(f)
	p.Unknown = unknown
	return nil
}

// DecodePayload decodes raw JSON into the payload variant of feature.
func DecodePayload(feature Feature, raw json.RawMessage) (Payload, error) {
	switch feature {
	case FeatureBookmarks:
		var p BookmarkPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case FeatureTabs:
		var p TabPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case FeatureSettings:
		var p SettingPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("no payload variant for feature %q", feature)
	}
}

// mergeUnknown encodes known and lays it over the unknown bucket, so known
// fields always win over stale unknown ones with the same name.
func mergeUnknown(known any, unknown map[string]json.RawMessage) ([]byte, error) {
	raw, err := json.Marshal(known)
	if err != nil {
		return nil, err
	}
	if len(unknown) == 0 {
		return raw, nil
	}

	var fields map[string]json.RawMessage
	if err = json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	out := make(map[string]json.RawMessage, len(fields)+len(unknown))
	for k, v := range unknown {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return json.Marshal(out)
}

// splitUnknown decodes b into known and returns every top-level key not
// listed in keys.
func splitUnknown(b []byte, known any, keys ...string) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(b, known); err != nil {
		return nil, err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	for _, k := range keys {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}
