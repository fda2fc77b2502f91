// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// OutboxEntry is a record staged for sending but not yet acknowledged by the
// server. At most one entry exists per (feature, object id); restaging
// replaces it and assigns a new Seq.
type OutboxEntry struct {
	Seq      int64
	Feature  Feature
	ObjectID string
	Record   SyncableRecord
	StagedAt time.Time
}

// Records returns the staged records in outbox order.
func Records(entries []OutboxEntry) []SyncableRecord {
	records := make([]SyncableRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, e.Record)
	}
	return records
}
