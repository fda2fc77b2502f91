package features

import (
	"github.com/MKhiriev/go-sync-core/models"
)

// Adapter translates between a native entity of one feature and its
// SyncableRecord. Sensitive fields are encrypted on Encode and decrypted on
// Decode with the account's secret key.
type Adapter interface {
	Feature() models.Feature

	// Encode builds the record for entity. A missing modification time is
	// stamped with the adapter's clock.
	Encode(entity models.Entity, key []byte) (models.SyncableRecord, error)

	// Decode restores the entity from a non-tombstone record. Any defect of
	// the record is reported as ErrMalformedRecord.
	Decode(record models.SyncableRecord, key []byte) (models.Entity, error)
}
