// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-sync-core/models"
)

const (
	tableFeatureSyncState = "feature_sync_state"
	tableSettingMetadata  = "setting_metadata"
	tableOutbox           = "outbox"
	tableAccount          = "account"
	tableEntities         = "entities"

	// accountRowID pins the single account row of a device.
	accountRowID = 1
)

// sqlite placeholders
var sqlb = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// --- feature_sync_state ---

func buildEnsureCheckpointQuery(feature models.Feature) (string, []any, error) {
	return sqlb.Insert(tableFeatureSyncState).
		Columns("name", "state").
		Values(string(feature), string(models.StateNeedsRemoteDataFetch)).
		Suffix("ON CONFLICT (name) DO NOTHING").
		ToSql()
}

func buildSelectCheckpointQuery(feature models.Feature) (string, []any, error) {
	return sqlb.Select("name", "state", "last_modified", "last_sync_local_timestamp").
		From(tableFeatureSyncState).
		Where(sq.Eq{"name": string(feature)}).
		ToSql()
}

func buildCommitCheckpointQuery(feature models.Feature, state models.SyncState, cursor *models.Cursor, ts *time.Time) (string, []any, error) {
	var lastModified any
	if cursor != nil {
		lastModified = string(*cursor)
	}
	var localTS any
	if ts != nil {
		localTS = ts.UTC()
	}

	return sqlb.Insert(tableFeatureSyncState).
		Columns("name", "state", "last_modified", "last_sync_local_timestamp").
		Values(string(feature), string(state), lastModified, localTS).
		Suffix(`ON CONFLICT (name) DO UPDATE SET
			state = excluded.state,
			last_modified = excluded.last_modified,
			last_sync_local_timestamp = excluded.last_sync_local_timestamp`).
		ToSql()
}

func buildResetCheckpointsQuery() (string, []any, error) {
	return sqlb.Delete(tableFeatureSyncState).ToSql()
}

// --- setting_metadata ---

func buildSelectSettingMetadataQuery(key string) (string, []any, error) {
	return sqlb.Select("key", "last_modified").
		From(tableSettingMetadata).
		Where(sq.Eq{"key": key}).
		ToSql()
}

func buildUpsertSettingMetadataQuery(key string, lastModified *time.Time) (string, []any, error) {
	var at any
	if lastModified != nil {
		at = lastModified.UTC()
	}

	return sqlb.Insert(tableSettingMetadata).
		Columns("key", "last_modified").
		Values(key, at).
		Suffix("ON CONFLICT (key) DO UPDATE SET last_modified = excluded.last_modified").
		ToSql()
}

// --- outbox ---

// outboxRow is a staged record already encoded for storage.
type outboxRow struct {
	feature  string
	objectID string
	record   string
	stagedAt time.Time
}

// buildStageOutboxQuery replaces an existing entry for the same object, which
// gives the new version a fresh sequence number.
func buildStageOutboxQuery(rows ...outboxRow) (string, []any, error) {
	q := sqlb.Insert(tableOutbox).
		Options("OR REPLACE").
		Columns("feature", "object_id", "record", "staged_at")
	for _, r := range rows {
		q = q.Values(r.feature, r.objectID, r.record, r.stagedAt.UTC())
	}
	return q.ToSql()
}

func buildSelectOutboxQuery(feature models.Feature) (string, []any, error) {
	return sqlb.Select("id", "feature", "object_id", "record", "staged_at").
		From(tableOutbox).
		Where(sq.Eq{"feature": string(feature)}).
		OrderBy("id ASC").
		ToSql()
}

func buildClearOutboxQuery(feature models.Feature, seqs []int64) (string, []any, error) {
	return sqlb.Delete(tableOutbox).
		Where(sq.Eq{"feature": string(feature)}).
		Where(sq.Eq{"id": seqs}).
		ToSql()
}

func buildPurgeOutboxQuery() (string, []any, error) {
	return sqlb.Delete(tableOutbox).ToSql()
}

// --- account ---

func buildSelectAccountQuery() (string, []any, error) {
	return sqlb.Select("device_id", "user_id", "device_name", "token").
		From(tableAccount).
		Where(sq.Eq{"id": accountRowID}).
		ToSql()
}

func buildUpsertAccountQuery(account models.Account) (string, []any, error) {
	return sqlb.Insert(tableAccount).
		Columns("id", "device_id", "user_id", "device_name", "token").
		Values(accountRowID, account.DeviceID, account.UserID, account.DeviceName, account.Token).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			device_id = excluded.device_id,
			user_id = excluded.user_id,
			device_name = excluded.device_name,
			token = excluded.token`).
		ToSql()
}

func buildDeleteAccountQuery() (string, []any, error) {
	return sqlb.Delete(tableAccount).Where(sq.Eq{"id": accountRowID}).ToSql()
}

// --- entities ---

func buildSelectEntityQuery(feature models.Feature, objectID string) (string, []any, error) {
	return sqlb.Select("data").
		From(tableEntities).
		Where(sq.Eq{"feature": string(feature), "object_id": objectID}).
		ToSql()
}

func buildListEntitiesQuery(feature models.Feature) (string, []any, error) {
	return sqlb.Select("data").
		From(tableEntities).
		Where(sq.Eq{"feature": string(feature)}).
		OrderBy("object_id ASC").
		ToSql()
}

func buildUpsertEntityQuery(feature models.Feature, objectID, data string, lastModified *time.Time) (string, []any, error) {
	var at any
	if lastModified != nil {
		at = lastModified.UTC()
	}

	return sqlb.Insert(tableEntities).
		Columns("feature", "object_id", "data", "last_modified").
		Values(string(feature), objectID, data, at).
		Suffix(`ON CONFLICT (feature, object_id) DO UPDATE SET
			data = excluded.data,
			last_modified = excluded.last_modified`).
		ToSql()
}

func buildDeleteEntityQuery(feature models.Feature, objectID string) (string, []any, error) {
	return sqlb.Delete(tableEntities).
		Where(sq.Eq{"feature": string(feature), "object_id": objectID}).
		ToSql()
}
