// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package features

import (
	"github.com/MKhiriev/go-sync-core/internal/crypto"
	"github.com/MKhiriev/go-sync-core/models"
)

// Registry maps feature names to their adapters. It is built once at startup
// and read concurrently afterwards.
type Registry struct {
	adapters map[models.Feature]Adapter
	order    []models.Feature
}

// NewRegistry registers adapters in the given order. A later adapter for the
// same feature replaces an earlier one.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[models.Feature]Adapter, len(adapters))}
	for _, a := range adapters {
		if _, exists := r.adapters[a.Feature()]; !exists {
			r.order = append(r.order, a.Feature())
		}
		r.adapters[a.Feature()] = a
	}
	return r
}

// NewDefaultRegistry registers bookmarks, tabs and settings.
func NewDefaultRegistry(provider crypto.Provider, opts ...Option) *Registry {
	return NewRegistry(
		NewBookmarksAdapter(provider, opts...),
		NewTabsAdapter(provider, opts...),
		NewSettingsAdapter(provider, opts...),
	)
}

func (r *Registry) Get(feature models.Feature) (Adapter, bool) {
	a, ok := r.adapters[feature]
	return a, ok
}

// Features returns the registered features in registration order.
func (r *Registry) Features() []models.Feature {
	out := make([]models.Feature, len(r.order))
	copy(out, r.order)
	return out
}
