package service

import (
	"fmt"
	"sync"

	"github.com/MKhiriev/go-sync-core/models"
)

// Phase is the in-memory protocol state of one feature.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseSending  Phase = "sending"
	PhaseSent     Phase = "sent"
	PhaseFetching Phase = "fetching"
	PhaseMerged   Phase = "merged"
	PhaseFailed   Phase = "failed"
)

// phaseLock is the per-feature lock. A feature runs one send or fetch at a
// time; different features never block each other.
type phaseLock struct {
	mu     sync.Mutex
	phases map[models.Feature]Phase
}

func newPhaseLock() *phaseLock {
	return &phaseLock{phases: make(map[models.Feature]Phase)}
}

// acquire moves an idle feature into p.
func (l *phaseLock) acquire(feature models.Feature, p Phase) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cur, ok := l.phases[feature]; ok && cur != PhaseIdle {
		return fmt.Errorf("%w: %s is %s", ErrSyncInProgress, feature, cur)
	}
	l.phases[feature] = p
	return nil
}

// advance moves a held feature to the next phase of its cycle.
func (l *phaseLock) advance(feature models.Feature, p Phase) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.phases[feature] = p
}

// release returns the feature to idle.
func (l *phaseLock) release(feature models.Feature) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.phases[feature] = PhaseIdle
}

func (l *phaseLock) phase(feature models.Feature) Phase {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p, ok := l.phases[feature]; ok {
		return p
	}
	return PhaseIdle
}
