package features

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-sync-core/models"
)

var (
	// ErrMalformedRecord is returned by Decode when a fetched record misses
	// required fields, cannot be decrypted or carries invalid values.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrUnexpectedEntity is returned by Encode when the entity belongs to a
	// different feature than the adapter.
	ErrUnexpectedEntity = errors.New("unexpected entity type")
)

func malformed(rec models.SyncableRecord, reason string) error {
	return fmt.Errorf("%w: %s/%s: %s", ErrMalformedRecord, rec.Feature, rec.ObjectID, reason)
}

func malformedErr(rec models.SyncableRecord, field string, err error) error {
	return fmt.Errorf("%w: %s/%s: %s: %w", ErrMalformedRecord, rec.Feature, rec.ObjectID, field, err)
}
