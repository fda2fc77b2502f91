// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package features

import (
	"fmt"
	"time"

	"github.com/MKhiriev/go-sync-core/internal/crypto"
	"github.com/MKhiriev/go-sync-core/models"
)

type tabsAdapter struct {
	base
}

func NewTabsAdapter(provider crypto.Provider, opts ...Option) Adapter {
	return &tabsAdapter{base: newBase(provider, opts...)}
}

func (a *tabsAdapter) Feature() models.Feature {
	return models.FeatureTabs
}

func (a *tabsAdapter) Encode(entity models.Entity, key []byte) (models.SyncableRecord, error) {
	tab, ok := entity.(models.Tab)
	if !ok {
		return models.SyncableRecord{}, fmt.Errorf("%w: %T for %s", ErrUnexpectedEntity, entity, a.Feature())
	}
	if tab.ID == "" {
		return models.SyncableRecord{}, models.ErrEmptyObjectID
	}

	modified := a.stamp(tab.LastModified)

	encURL, err := a.encrypt(a.Feature(), "url", tab.URL, key)
	if err != nil {
		return models.SyncableRecord{}, err
	}
	var title string
	if tab.Title != "" {
		if title, err = a.encrypt(a.Feature(), "title", tab.Title, key); err != nil {
			return models.SyncableRecord{}, err
		}
	}

	accessed := tab.LastAccessed
	if accessed.IsZero() {
		accessed = *modified
	}

	return models.SyncableRecord{
		Feature:  a.Feature(),
		ObjectID: tab.ID,
		Payload: models.TabPayload{
			Title:        title,
			URL:          encURL,
			Index:        tab.Index,
			LastAccessed: accessed.UTC().Format(time.RFC3339),
			Unknown:      tab.Extra,
		},
		LastModified: modified,
	}, nil
}

func (a *tabsAdapter) Decode(rec models.SyncableRecord, key []byte) (models.Entity, error) {
	if err := checkRecord(rec, a.Feature()); err != nil {
		return nil, err
	}
	p, ok := rec.Payload.(models.TabPayload)
	if !ok {
		return nil, malformed(rec, fmt.Sprintf("unexpected payload %T", rec.Payload))
	}

	link, err := a.decryptRequired(rec, "url", p.URL, key)
	if err != nil {
		return nil, err
	}
	if err = validateURL(link); err != nil {
		return nil, malformedErr(rec, "url", err)
	}

	title, err := a.decryptOptional(rec, "title", p.Title, key)
	if err != nil {
		return nil, err
	}

	if p.LastAccessed == "" {
		return nil, malformed(rec, "missing last_accessed")
	}
	accessed, err := time.Parse(time.RFC3339, p.LastAccessed)
	if err != nil {
		return nil, malformedErr(rec, "last_accessed", err)
	}
	if p.Index < 0 {
		return nil, malformed(rec, "negative index")
	}

	return models.Tab{
		ID:           rec.ObjectID,
		Title:        title,
		URL:          link,
		Index:        p.Index,
		LastAccessed: accessed,
		LastModified: rec.LastModified,
		Extra:        p.Unknown,
	}, nil
}
