package service

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/MKhiriev/go-sync-core/internal/adapter"
	"github.com/MKhiriev/go-sync-core/internal/store"
	"github.com/MKhiriev/go-sync-core/models"
)

// ── fakeStore ────────────────────────────────────────────────────────────────

type fakeTxKey struct{}

// fakeStore is an in-memory stand-in for the SQLite repositories. All access
// is serialised like a single SQLite connection, and a failed InTx restores
// the state it started from.
type fakeStore struct {
	txMu sync.Mutex

	checkpoints map[models.Feature]models.FeatureSyncState
	settings    map[string]*time.Time
	outbox      []models.OutboxEntry
	seq         int64
	account     *models.Account
	entities    map[models.Feature]map[string]models.Entity

	// failCommit makes Commit to readyToSync fail.
	failCommit error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		checkpoints: make(map[models.Feature]models.FeatureSyncState),
		settings:    make(map[string]*time.Time),
		entities:    make(map[models.Feature]map[string]models.Entity),
	}
}

func (s *fakeStore) storages() *store.ClientStorages {
	return &store.ClientStorages{Transactor: s, Metadata: s, Outbox: s, Accounts: s, Entities: s}
}

func (s *fakeStore) lock(ctx context.Context) func() {
	if ctx.Value(fakeTxKey{}) != nil {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

type fakeSnapshot struct {
	checkpoints map[models.Feature]models.FeatureSyncState
	settings    map[string]*time.Time
	outbox      []models.OutboxEntry
	seq         int64
	account     *models.Account
	entities    map[models.Feature]map[string]models.Entity
}

func (s *fakeStore) snapshot() fakeSnapshot {
	entities := make(map[models.Feature]map[string]models.Entity, len(s.entities))
	for f, m := range s.entities {
		entities[f] = maps.Clone(m)
	}
	return fakeSnapshot{
		checkpoints: maps.Clone(s.checkpoints),
		settings:    maps.Clone(s.settings),
		outbox:      slices.Clone(s.outbox),
		seq:         s.seq,
		account:     s.account,
		entities:    entities,
	}
}

func (s *fakeStore) restore(snap fakeSnapshot) {
	s.checkpoints = snap.checkpoints
	s.settings = snap.settings
	s.outbox = snap.outbox
	s.seq = snap.seq
	s.account = snap.account
	s.entities = snap.entities
}

func (s *fakeStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, fakeTxKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *fakeStore) Checkpoint(ctx context.Context, feature models.Feature) (models.FeatureSyncState, error) {
	defer s.lock(ctx)()

	cp, ok := s.checkpoints[feature]
	if !ok {
		cp = models.FeatureSyncState{Name: feature, State: models.StateNeedsRemoteDataFetch}
		s.checkpoints[feature] = cp
	}
	return cp, nil
}

func (s *fakeStore) Commit(ctx context.Context, feature models.Feature, state models.SyncState, cursor *models.Cursor, ts *time.Time) error {
	defer s.lock(ctx)()

	if s.failCommit != nil && state == models.StateReadyToSync {
		return s.failCommit
	}
	s.checkpoints[feature] = models.FeatureSyncState{Name: feature, State: state, LastModified: cursor, LastSyncLocalTimestamp: ts}
	return nil
}

func (s *fakeStore) Reset(ctx context.Context) error {
	defer s.lock(ctx)()
	s.checkpoints = make(map[models.Feature]models.FeatureSyncState)
	return nil
}

func (s *fakeStore) SettingMetadata(ctx context.Context, key string) (models.SettingMetadata, error) {
	defer s.lock(ctx)()
	return models.SettingMetadata{Key: key, LastModified: s.settings[key]}, nil
}

func (s *fakeStore) UpdateSettingMetadata(ctx context.Context, key string, lastModified *time.Time) error {
	defer s.lock(ctx)()
	s.settings[key] = lastModified
	return nil
}

func (s *fakeStore) Stage(ctx context.Context, records ...models.SyncableRecord) error {
	defer s.lock(ctx)()

	for _, rec := range records {
		s.outbox = slices.DeleteFunc(s.outbox, func(e models.OutboxEntry) bool {
			return e.Feature == rec.Feature && e.ObjectID == rec.ObjectID
		})
		s.seq++
		s.outbox = append(s.outbox, models.OutboxEntry{Seq: s.seq, Feature: rec.Feature, ObjectID: rec.ObjectID, Record: rec})
	}
	return nil
}

func (s *fakeStore) Pending(ctx context.Context, feature models.Feature) ([]models.OutboxEntry, error) {
	defer s.lock(ctx)()

	var out []models.OutboxEntry
	for _, e := range s.outbox {
		if e.Feature == feature {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) Clear(ctx context.Context, feature models.Feature, seqs ...int64) error {
	defer s.lock(ctx)()

	s.outbox = slices.DeleteFunc(s.outbox, func(e models.OutboxEntry) bool {
		return e.Feature == feature && slices.Contains(seqs, e.Seq)
	})
	return nil
}

func (s *fakeStore) Purge(ctx context.Context) error {
	defer s.lock(ctx)()
	s.outbox = nil
	return nil
}

func (s *fakeStore) LoadAccount(ctx context.Context) (models.Account, error) {
	defer s.lock(ctx)()
	if s.account == nil {
		return models.Account{}, store.ErrAccountNotFound
	}
	return *s.account, nil
}

func (s *fakeStore) SaveAccount(ctx context.Context, account models.Account) error {
	defer s.lock(ctx)()
	account.PrimaryKey, account.SecretKey = nil, nil
	s.account = &account
	return nil
}

func (s *fakeStore) DeleteAccount(ctx context.Context) error {
	defer s.lock(ctx)()
	s.account = nil
	return nil
}

func (s *fakeStore) Get(ctx context.Context, feature models.Feature, objectID string) (models.Entity, error) {
	defer s.lock(ctx)()
	e, ok := s.entities[feature][objectID]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", store.ErrEntityNotFound, feature, objectID)
	}
	return e, nil
}

func (s *fakeStore) List(ctx context.Context, feature models.Feature) ([]models.Entity, error) {
	defer s.lock(ctx)()
	ids := slices.Sorted(maps.Keys(s.entities[feature]))
	out := make([]models.Entity, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.entities[feature][id])
	}
	return out, nil
}

func (s *fakeStore) Upsert(ctx context.Context, entity models.Entity) error {
	defer s.lock(ctx)()
	if s.entities[entity.Feature()] == nil {
		s.entities[entity.Feature()] = make(map[string]models.Entity)
	}
	s.entities[entity.Feature()][entity.ObjectID()] = entity
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, feature models.Feature, objectID string) error {
	defer s.lock(ctx)()
	delete(s.entities[feature], objectID)
	return nil
}

// entity and checkpoint read the state directly for assertions.
func (s *fakeStore) entity(feature models.Feature, id string) (models.Entity, bool) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	e, ok := s.entities[feature][id]
	return e, ok
}

func (s *fakeStore) checkpoint(feature models.Feature) models.FeatureSyncState {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return s.checkpoints[feature]
}

func (s *fakeStore) pending(feature models.Feature) []models.OutboxEntry {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	var out []models.OutboxEntry
	for _, e := range s.outbox {
		if e.Feature == feature {
			out = append(out, e)
		}
	}
	return out
}

// ── fakeServer ───────────────────────────────────────────────────────────────

// fakeServer is an in-memory sync server shared by several engines. Each
// accepted push appends to the feature's log; the cursor is the log length.
type fakeServer struct {
	mu   sync.Mutex
	logs map[models.Feature][]models.SyncableRecord

	// pulls records the since cursor of every pull.
	pulls []models.Cursor
}

func newFakeServer() *fakeServer {
	return &fakeServer{logs: make(map[models.Feature][]models.SyncableRecord)}
}

func (s *fakeServer) cursor(feature models.Feature) models.Cursor {
	return models.Cursor(strconv.Itoa(len(s.logs[feature])))
}

func (s *fakeServer) Push(_ context.Context, feature models.Feature, records []models.SyncableRecord, expected models.Cursor) (models.Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expected != s.cursor(feature) {
		return "", fmt.Errorf("%w: expected %s, server at %s", adapter.ErrConflict, expected, s.cursor(feature))
	}
	s.logs[feature] = append(s.logs[feature], records...)
	return s.cursor(feature), nil
}

// Pull returns the latest record per object after since, in log order.
func (s *fakeServer) Pull(_ context.Context, feature models.Feature, since models.Cursor) ([]models.SyncableRecord, models.Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pulls = append(s.pulls, since)
	from, err := strconv.Atoi(string(since))
	if err != nil {
		return nil, "", err
	}

	log := s.logs[feature]
	latest := make(map[string]int)
	for i := from; i < len(log); i++ {
		latest[log[i].ObjectID] = i
	}
	var out []models.SyncableRecord
	for i := from; i < len(log); i++ {
		if latest[log[i].ObjectID] == i {
			out = append(out, log[i])
		}
	}
	return out, s.cursor(feature), nil
}

func (s *fakeServer) Register(context.Context, models.RegisterRequest) (models.RegisterResponse, error) {
	return models.RegisterResponse{Token: "token"}, nil
}

func (s *fakeServer) SetToken(string) {}
func (s *fakeServer) Token() string   { return "token" }

func (s *fakeServer) records(feature models.Feature) []models.SyncableRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.logs[feature])
}

func (s *fakeServer) sinceLog() []models.Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.pulls)
}

// ── clock ────────────────────────────────────────────────────────────────────

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
