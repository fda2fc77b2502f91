// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package features

import (
	"fmt"

	"github.com/MKhiriev/go-sync-core/internal/crypto"
	"github.com/MKhiriev/go-sync-core/models"
)

// bookmarksAdapter syncs bookmarks, folders and favorites. Title and URL are
// encrypted; the tree structure travels in clear so the server can keep it
// consistent.
type bookmarksAdapter struct {
	base
}

func NewBookmarksAdapter(provider crypto.Provider, opts ...Option) Adapter {
	return &bookmarksAdapter{base: newBase(provider, opts...)}
}

func (a *bookmarksAdapter) Feature() models.Feature {
	return models.FeatureBookmarks
}

func (a *bookmarksAdapter) Encode(entity models.Entity, key []byte) (models.SyncableRecord, error) {
	bm, ok := entity.(models.Bookmark)
	if !ok {
		return models.SyncableRecord{}, fmt.Errorf("%w: %T for %s", ErrUnexpectedEntity, entity, a.Feature())
	}
	if bm.ID == "" {
		return models.SyncableRecord{}, models.ErrEmptyObjectID
	}

	title, err := a.encrypt(a.Feature(), "title", bm.Title, key)
	if err != nil {
		return models.SyncableRecord{}, err
	}

	var encURL string
	if bm.URL != "" {
		if encURL, err = a.encrypt(a.Feature(), "url", bm.URL, key); err != nil {
			return models.SyncableRecord{}, err
		}
	}

	return models.SyncableRecord{
		Feature:  a.Feature(),
		ObjectID: bm.ID,
		Payload: models.BookmarkPayload{
			Title:      title,
			URL:        encURL,
			IsFolder:   bm.IsFolder,
			IsFavorite: bm.IsFavorite,
			ParentID:   bm.ParentID,
			Unknown:    bm.Extra,
		},
		LastModified: a.stamp(bm.LastModified),
	}, nil
}

func (a *bookmarksAdapter) Decode(rec models.SyncableRecord, key []byte) (models.Entity, error) {
	if err := checkRecord(rec, a.Feature()); err != nil {
		return nil, err
	}
	p, ok := rec.Payload.(models.BookmarkPayload)
	if !ok {
		return nil, malformed(rec, fmt.Sprintf("unexpected payload %T", rec.Payload))
	}

	title, err := a.decryptRequired(rec, "title", p.Title, key)
	if err != nil {
		return nil, err
	}

	// folders have no url; everything else must point somewhere
	var link string
	if p.IsFolder {
		link, err = a.decryptOptional(rec, "url", p.URL, key)
	} else {
		link, err = a.decryptRequired(rec, "url", p.URL, key)
	}
	if err != nil {
		return nil, err
	}
	if link != "" {
		if err = validateURL(link); err != nil {
			return nil, malformedErr(rec, "url", err)
		}
	}

	return models.Bookmark{
		ID:           rec.ObjectID,
		Title:        title,
		URL:          link,
		IsFolder:     p.IsFolder,
		IsFavorite:   p.IsFavorite,
		ParentID:     p.ParentID,
		LastModified: rec.LastModified,
		Extra:        p.Unknown,
	}, nil
}
