package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-sync-core/internal/crypto"
	"github.com/MKhiriev/go-sync-core/models"
)

// Sender accumulates local changes and sends them in one go:
//
//	err := engine.Sender().
//		Stage(models.Bookmark{ID: "b1", Title: "Go", URL: "https://go.dev"}).
//		Delete(models.FeatureTabs, "t7").
//		Send(ctx)
//
// A Sender is not safe for concurrent use.
type Sender struct {
	engine  *syncEngine
	changes []change
}

type change struct {
	entity   models.Entity
	record   *models.SyncableRecord
	feature  models.Feature
	objectID string
}

// Sender implements [SyncEngine].
func (e *syncEngine) Sender() *Sender {
	return &Sender{engine: e}
}

// Stage queues a created or updated entity. It is written locally and encoded
// for the server when Send runs.
func (s *Sender) Stage(entity models.Entity) *Sender {
	s.changes = append(s.changes, change{entity: entity, feature: entity.Feature(), objectID: entity.ObjectID()})
	return s
}

// Delete queues the removal of a local object.
func (s *Sender) Delete(feature models.Feature, objectID string) *Sender {
	s.changes = append(s.changes, change{feature: feature, objectID: objectID})
	return s
}

// StageRecord queues an already encoded record as is.
func (s *Sender) StageRecord(rec models.SyncableRecord) *Sender {
	s.changes = append(s.changes, change{record: &rec, feature: rec.Feature, objectID: rec.ObjectID})
	return s
}

// Len returns the number of queued changes.
func (s *Sender) Len() int {
	return len(s.changes)
}

// Send writes the queued changes and their outbox records in one transaction,
// then pushes every touched feature. Once written, the changes survive a
// failed push and go out with the next send.
func (s *Sender) Send(ctx context.Context) error {
	e := s.engine
	ctx = e.logger.WithContext(ctx)

	if len(s.changes) == 0 {
		return nil
	}

	touched, err := e.stage(ctx, s.changes)
	if err != nil {
		return err
	}
	s.changes = nil

	return e.perFeature(ctx, touched, e.sendFeature)
}

// stage persists changes and returns the features they touch, in first-seen
// order.
func (e *syncEngine) stage(ctx context.Context, changes []change) ([]models.Feature, error) {
	key, err := e.key()
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(key)

	now := e.now().UTC()
	var touched []models.Feature
	seen := make(map[models.Feature]struct{})

	err = e.storages.Transactor.InTx(ctx, func(ctx context.Context) error {
		for _, c := range changes {
			if err := e.stageOne(ctx, c, key, now); err != nil {
				return fmt.Errorf("stage %s/%s: %w", c.feature, c.objectID, err)
			}
			if _, ok := seen[c.feature]; !ok {
				seen[c.feature] = struct{}{}
				touched = append(touched, c.feature)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug().
		Str("func", "syncEngine.stage").
		Int("count", len(changes)).
		Msg("changes staged")

	return touched, nil
}

func (e *syncEngine) stageOne(ctx context.Context, c change, key []byte, now time.Time) error {
	a, err := e.adapterFor(c.feature)
	if err != nil {
		return err
	}
	if c.objectID == "" {
		return models.ErrEmptyObjectID
	}

	var rec models.SyncableRecord
	switch {
	case c.record != nil:
		rec = *c.record
		if rec.LastModified == nil {
			rec.LastModified = &now
		}

	case c.entity == nil:
		if err = e.storages.Entities.Delete(ctx, c.feature, c.objectID); err != nil {
			return err
		}
		rec = models.NewTombstone(c.feature, c.objectID, now)

	default:
		entity := models.Stamp(c.entity, now)
		if rec, err = a.Encode(entity, key); err != nil {
			return err
		}
		if err = e.storages.Entities.Upsert(ctx, entity); err != nil {
			return err
		}
	}

	if c.feature == models.FeatureSettings {
		if err = e.storages.Metadata.UpdateSettingMetadata(ctx, c.objectID, rec.LastModified); err != nil {
			return err
		}
	}

	return e.storages.Outbox.Stage(ctx, rec)
}

// sendFeature pushes the outbox of one feature against its stored cursor.
func (e *syncEngine) sendFeature(ctx context.Context, f models.Feature) error {
	if _, err := e.adapterFor(f); err != nil {
		return err
	}
	if err := e.phases.acquire(f, PhaseSending); err != nil {
		return err
	}
	defer e.phases.release(f)

	cp, err := e.storages.Metadata.Checkpoint(ctx, f)
	if err != nil {
		return fmt.Errorf("send %s: load checkpoint: %w", f, err)
	}
	if cp.State != models.StateReadyToSync {
		return fmt.Errorf("%w: %s", ErrFetchRequired, f)
	}

	pending, err := e.storages.Outbox.Pending(ctx, f)
	if err != nil {
		return e.fail(ctx, "send", cp, fmt.Errorf("load outbox: %w", err))
	}
	if len(pending) == 0 {
		return nil
	}

	cursor, err := e.server.Push(ctx, f, models.Records(pending), cp.Since())
	if err != nil {
		return e.fail(ctx, "send", cp, mapPushError(err))
	}
	e.phases.advance(f, PhaseSent)

	seqs := make([]int64, len(pending))
	for i, p := range pending {
		seqs[i] = p.Seq
	}

	now := e.now().UTC()
	err = e.storages.Transactor.InTx(ctx, func(ctx context.Context) error {
		if err := e.storages.Outbox.Clear(ctx, f, seqs...); err != nil {
			return err
		}
		return e.storages.Metadata.Commit(ctx, f, models.StateReadyToSync, &cursor, &now)
	})
	if err != nil {
		return e.fail(ctx, "send", cp, fmt.Errorf("commit: %w", err))
	}

	e.logger.Info().
		Str("func", "syncEngine.sendFeature").
		Str("feature", string(f)).
		Int("count", len(pending)).
		Str("cursor", string(cursor)).
		Msg("feature sent")

	return nil
}
