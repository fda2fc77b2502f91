// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package features

import (
	"fmt"

	"github.com/MKhiriev/go-sync-core/internal/crypto"
	"github.com/MKhiriev/go-sync-core/models"
)

// settingsAdapter syncs key/value preferences. The key is the object id and
// stays readable; the value is encrypted.
type settingsAdapter struct {
	base
}

func NewSettingsAdapter(provider crypto.Provider, opts ...Option) Adapter {
	return &settingsAdapter{base: newBase(provider, opts...)}
}

func (a *settingsAdapter) Feature() models.Feature {
	return models.FeatureSettings
}

func (a *settingsAdapter) Encode(entity models.Entity, key []byte) (models.SyncableRecord, error) {
	s, ok := entity.(models.Setting)
	if !ok {
		return models.SyncableRecord{}, fmt.Errorf("%w: %T for %s", ErrUnexpectedEntity, entity, a.Feature())
	}
	if s.Key == "" {
		return models.SyncableRecord{}, models.ErrEmptyObjectID
	}

	value, err := a.encrypt(a.Feature(), "value", s.Value, key)
	if err != nil {
		return models.SyncableRecord{}, err
	}

	return models.SyncableRecord{
		Feature:      a.Feature(),
		ObjectID:     s.Key,
		Payload:      models.SettingPayload{Value: value, Unknown: s.Extra},
		LastModified: a.stamp(s.LastModified),
	}, nil
}

func (a *settingsAdapter) Decode(rec models.SyncableRecord, key []byte) (models.Entity, error) {
	if err := checkRecord(rec, a.Feature()); err != nil {
		return nil, err
	}
	p, ok := rec.Payload.(models.SettingPayload)
	if !ok {
		return nil, malformed(rec, fmt.Sprintf("unexpected payload %T", rec.Payload))
	}

	value, err := a.decryptRequired(rec, "value", p.Value, key)
	if err != nil {
		return nil, err
	}

	return models.Setting{
		Key:          rec.ObjectID,
		Value:        value,
		LastModified: rec.LastModified,
		Extra:        p.Unknown,
	}, nil
}
