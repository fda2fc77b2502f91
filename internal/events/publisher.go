// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package events fans applied remote changes out to in-process subscribers.
package events

import (
	"context"
	"errors"
	"sync"

	"github.com/MKhiriev/go-sync-core/models"
)

// ErrSubscriberDropped is returned by Publish when at least one subscription
// was disconnected because its buffer was full.
var ErrSubscriberDropped = errors.New("subscriber dropped: event buffer full")

// Publisher delivers change events to every live subscription.
type Publisher struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

func NewPublisher() *Publisher {
	return &Publisher{subs: make(map[*Subscription]struct{})}
}

// Subscribe attaches a new subscription with the given channel buffer. The
// buffer is at least one event.
func (p *Publisher) Subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}

	s := &Subscription{
		pub:  p,
		ch:   make(chan models.ChangeEvent, buffer),
		done: make(chan struct{}),
	}

	p.mu.Lock()
	p.subs[s] = struct{}{}
	p.mu.Unlock()

	return s
}

// Publish delivers events in order to every subscriber without blocking. A
// subscriber whose buffer cannot take the next event is cancelled, so it sees
// its channel close instead of a gap in the feed; Publish then returns
// ErrSubscriberDropped after serving everyone else.
func (p *Publisher) Publish(ctx context.Context, events ...models.ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.RLock()
	subs := make([]*Subscription, 0, len(p.subs))
	for s := range p.subs {
		subs = append(subs, s)
	}
	p.mu.RUnlock()

	var overflowed []*Subscription
	for _, s := range subs {
		for _, ev := range events {
			res := s.deliver(ev)
			if res == delivered {
				continue
			}
			if res == full {
				overflowed = append(overflowed, s)
			}
			break
		}
	}

	for _, s := range overflowed {
		s.Cancel()
	}
	if len(overflowed) > 0 {
		return ErrSubscriberDropped
	}
	return nil
}

// Len returns the number of live subscriptions.
func (p *Publisher) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}

// Close cancels every subscription.
func (p *Publisher) Close() {
	p.mu.RLock()
	subs := make([]*Subscription, 0, len(p.subs))
	for s := range p.subs {
		subs = append(subs, s)
	}
	p.mu.RUnlock()

	for _, s := range subs {
		s.Cancel()
	}
}

func (p *Publisher) remove(s *Subscription) {
	p.mu.Lock()
	delete(p.subs, s)
	p.mu.Unlock()
}

// Subscription is one consumer of the event feed.
type Subscription struct {
	pub  *Publisher
	ch   chan models.ChangeEvent
	done chan struct{}
	once sync.Once

	// mu serialises sends against closing ch.
	mu     sync.Mutex
	closed bool
}

// C returns the event channel. It is closed by Cancel.
func (s *Subscription) C() <-chan models.ChangeEvent {
	return s.ch
}

// Cancel detaches the subscription and closes its channel. Safe to call more
// than once and concurrently with Publish.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		close(s.done)
		s.pub.remove(s)

		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
	})
}

// Done is closed as soon as Cancel is called.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

type deliveryResult int

const (
	delivered deliveryResult = iota
	cancelled
	full
)

func (s *Subscription) deliver(ev models.ChangeEvent) deliveryResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return cancelled
	}

	select {
	case s.ch <- ev:
		return delivered
	default:
		return full
	}
}
