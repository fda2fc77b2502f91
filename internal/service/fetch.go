package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-sync-core/internal/crypto"
	"github.com/MKhiriev/go-sync-core/internal/features"
	"github.com/MKhiriev/go-sync-core/internal/store"
	"github.com/MKhiriev/go-sync-core/models"
)

// fetchFeature pulls the changes of one feature after its stored cursor,
// merges them and advances the checkpoint in the same transaction. Events go
// out only after the commit and after the feature is idle again, so a slow
// subscriber never holds the feature.
func (e *syncEngine) fetchFeature(ctx context.Context, f models.Feature) error {
	applied, err := e.mergeFeature(ctx, f)
	if err != nil {
		return err
	}

	if err = e.events.Publish(ctx, applied...); err != nil {
		e.logger.Warn().Err(err).
			Str("func", "syncEngine.fetchFeature").
			Str("feature", string(f)).
			Msg("change events not fully delivered")
	}

	return nil
}

// mergeFeature runs the locked part of a fetch and returns the events to
// publish.
func (e *syncEngine) mergeFeature(ctx context.Context, f models.Feature) ([]models.ChangeEvent, error) {
	a, err := e.adapterFor(f)
	if err != nil {
		return nil, err
	}
	key, err := e.key()
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(key)

	if err = e.phases.acquire(f, PhaseFetching); err != nil {
		return nil, err
	}
	defer e.phases.release(f)

	cp, err := e.storages.Metadata.Checkpoint(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: load checkpoint: %w", f, err)
	}

	records, cursor, err := e.server.Pull(ctx, f, cp.Since())
	if err != nil {
		return nil, e.fail(ctx, "fetch", cp, fmt.Errorf("pull: %w", err))
	}

	var applied []models.ChangeEvent
	now := e.now().UTC()
	err = e.storages.Transactor.InTx(ctx, func(ctx context.Context) error {
		m, err := e.newMerger(ctx, a, key, cp)
		if err != nil {
			return err
		}
		applied = applied[:0]
		for _, rec := range records {
			ev, err := m.apply(ctx, rec)
			if err != nil {
				return err
			}
			if ev != nil {
				applied = append(applied, *ev)
			}
		}
		return e.storages.Metadata.Commit(ctx, f, models.StateReadyToSync, &cursor, &now)
	})
	if err != nil {
		return nil, e.fail(ctx, "fetch", cp, err)
	}
	e.phases.advance(f, PhaseMerged)

	e.logger.Info().
		Str("func", "syncEngine.mergeFeature").
		Str("feature", string(f)).
		Int("count", len(records)).
		Int("applied", len(applied)).
		Str("cursor", string(cursor)).
		Msg("feature fetched")

	return applied, nil
}

// merger applies fetched records of one feature inside a fetch transaction.
type merger struct {
	engine  *syncEngine
	adapter features.Adapter
	feature models.Feature
	key     []byte
	cp      models.FeatureSyncState

	// pending holds the unsent local changes of the feature by object id.
	pending map[string]models.OutboxEntry
}

func (e *syncEngine) newMerger(ctx context.Context, a features.Adapter, key []byte, cp models.FeatureSyncState) (*merger, error) {
	entries, err := e.storages.Outbox.Pending(ctx, a.Feature())
	if err != nil {
		return nil, fmt.Errorf("load outbox: %w", err)
	}

	return &merger{engine: e, adapter: a, feature: a.Feature(), key: key, cp: cp, pending: indexPending(entries)}, nil
}

// apply merges one record. It returns the event describing what changed
// locally, or nil when nothing did. Only storage failures are returned as
// errors; a record that cannot be decoded yields a malformed event.
//
// When the object was also changed locally since the last sync, the remote
// record wins only if it is strictly newer; otherwise the local version is
// kept and queued for the next send.
func (m *merger) apply(ctx context.Context, rec models.SyncableRecord) (*models.ChangeEvent, error) {
	log := m.engine.logger

	var remote models.Entity
	if rec.Feature != m.feature {
		log.Warn().
			Str("func", "merger.apply").
			Str("feature", string(m.feature)).
			Str("object_id", rec.ObjectID).
			Msg("record of another feature in batch, skipped")
		return m.event(rec.ObjectID, models.ChangeMalformed), nil
	}
	if !rec.IsDeleted {
		var err error
		if remote, err = m.adapter.Decode(rec, m.key); err != nil {
			if !errors.Is(err, features.ErrMalformedRecord) {
				return nil, fmt.Errorf("decode %s: %w", rec.ObjectID, err)
			}
			log.Warn().Err(err).
				Str("func", "merger.apply").
				Str("feature", string(m.feature)).
				Str("object_id", rec.ObjectID).
				Msg("malformed record skipped")
			return m.event(rec.ObjectID, models.ChangeMalformed), nil
		}
	}

	storages := m.engine.storages
	local, err := storages.Entities.Get(ctx, m.feature, rec.ObjectID)
	exists := err == nil
	if err != nil && !errors.Is(err, store.ErrEntityNotFound) {
		return nil, err
	}

	localModified, changed, err := m.localChange(ctx, rec.ObjectID, local)
	if err != nil {
		return nil, err
	}
	if changed && !rec.NewerThan(localModified) {
		return nil, m.keepLocal(ctx, local)
	}

	if rec.IsDeleted {
		if !exists {
			return nil, m.clearPending(ctx, rec.ObjectID)
		}
		if err = storages.Entities.Delete(ctx, m.feature, rec.ObjectID); err != nil {
			return nil, err
		}
		if err = m.settled(ctx, rec); err != nil {
			return nil, err
		}
		return m.event(rec.ObjectID, models.ChangeDeleted), nil
	}

	if err = storages.Entities.Upsert(ctx, remote); err != nil {
		return nil, err
	}
	if err = m.settled(ctx, rec); err != nil {
		return nil, err
	}
	if exists {
		return m.event(rec.ObjectID, models.ChangeUpdated), nil
	}
	return m.event(rec.ObjectID, models.ChangeCreated), nil
}

// localChange reports when the object was last changed on this device and
// whether that change is still unsynced. An object waiting in the outbox is
// always unsynced, whatever fetches ran since it was staged; otherwise its
// local clock is compared with the last sync of the feature.
func (m *merger) localChange(ctx context.Context, objectID string, local models.Entity) (*time.Time, bool, error) {
	if entry, ok := m.pending[objectID]; ok {
		return entry.Record.LastModified, true, nil
	}

	modified, err := m.localModified(ctx, objectID, local)
	if err != nil {
		return nil, false, err
	}
	return modified, m.cp.LocallyModifiedSince(modified), nil
}

// localModified returns when the object was last changed on this device, or
// nil if it has no local state. Settings use their metadata clock.
func (m *merger) localModified(ctx context.Context, objectID string, local models.Entity) (*time.Time, error) {
	if m.feature == models.FeatureSettings {
		meta, err := m.engine.storages.Metadata.SettingMetadata(ctx, objectID)
		if err != nil {
			return nil, err
		}
		if meta.LastModified != nil {
			return meta.LastModified, nil
		}
	}
	if local != nil {
		return local.Modified(), nil
	}
	return nil, nil
}

// keepLocal re-queues the local version. A local deletion is already queued.
func (m *merger) keepLocal(ctx context.Context, local models.Entity) error {
	if local == nil {
		return nil
	}
	rec, err := m.adapter.Encode(local, m.key)
	if err != nil {
		return fmt.Errorf("re-encode %s: %w", local.ObjectID(), err)
	}
	if err = m.engine.storages.Outbox.Stage(ctx, rec); err != nil {
		return err
	}
	return m.reloadPending(ctx)
}

// reloadPending refreshes the outbox view after a restage changed a Seq.
func (m *merger) reloadPending(ctx context.Context) error {
	entries, err := m.engine.storages.Outbox.Pending(ctx, m.feature)
	if err != nil {
		return fmt.Errorf("load outbox: %w", err)
	}
	m.pending = indexPending(entries)
	return nil
}

func indexPending(entries []models.OutboxEntry) map[string]models.OutboxEntry {
	pending := make(map[string]models.OutboxEntry, len(entries))
	for _, entry := range entries {
		pending[entry.ObjectID] = entry
	}
	return pending
}

// settled drops the now superseded local change and moves the setting clock
// to the remote time.
func (m *merger) settled(ctx context.Context, rec models.SyncableRecord) error {
	if err := m.clearPending(ctx, rec.ObjectID); err != nil {
		return err
	}
	if m.feature == models.FeatureSettings {
		return m.engine.storages.Metadata.UpdateSettingMetadata(ctx, rec.ObjectID, rec.LastModified)
	}
	return nil
}

func (m *merger) clearPending(ctx context.Context, objectID string) error {
	entry, ok := m.pending[objectID]
	if !ok {
		return nil
	}
	delete(m.pending, objectID)
	return m.engine.storages.Outbox.Clear(ctx, m.feature, entry.Seq)
}

func (m *merger) event(objectID string, kind models.ChangeKind) *models.ChangeEvent {
	return &models.ChangeEvent{Feature: m.feature, ObjectID: objectID, Kind: kind}
}
