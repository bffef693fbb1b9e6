/*
 * Copyright 2026 The MassaPay Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package eventbus fans lifecycle events out to bridge sessions, in-process
// observers and optional external sinks.
package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/massapay/massa-agent/pkg/logger"
	"github.com/massapay/massa-agent/pkg/protocol"
	"github.com/massapay/massa-agent/pkg/session"
)

const (
	defaultObserverBuffer = 64
	sinkTimeout           = 5 * time.Second
)

// Sessions is the part of the session registry the bus writes to.
type Sessions interface {
	Range(fn func(id string, t session.Transport) bool)
	Send(id string, frame []byte) error
}

// Sink receives every published event, off the publisher's goroutine and in
// publish order.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// Bus never returns delivery errors to publishers. Failed session writes and
// slow observers are logged and skipped.
type Bus struct {
	sessions Sessions
	logger   logger.Logger

	sinks    []Sink
	sinkPool pond.Pool

	mu        sync.RWMutex
	observers map[uint64]*Subscription
	nextID    uint64
	closed    bool
}

// Option configures a Bus.
type Option func(*Bus)

// WithSink adds an external sink.
func WithSink(s Sink) Option {
	return func(b *Bus) { b.sinks = append(b.sinks, s) }
}

// WithPool runs sink deliveries on a single-worker subpool of pool.
func WithPool(pool pond.Pool) Option {
	return func(b *Bus) { b.sinkPool = pool.NewSubpool(1) }
}

// Subscription receives lifecycle events. Events are dropped when the buffer is full.
type Subscription struct {
	id   uint64
	ch   chan Event
	bus  *Bus
	once sync.Once
}

func New(sessions Sessions, log logger.Logger, opts ...Option) *Bus {
	b := &Bus{
		sessions:  sessions,
		logger:    log,
		observers: make(map[uint64]*Subscription),
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.sinkPool == nil {
		b.sinkPool = pond.NewPool(1)
	}

	return b
}

// Publish delivers ev to observers and sinks, then pushes its wire form to
// the sessions it is addressed to.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()

		return
	}

	for _, sub := range b.observers {
		select {
		case sub.ch <- ev:
		default:
			b.logger.Warn().Str("kind", string(ev.Kind())).Msg("Observer buffer full, dropping event")
		}
	}

	for _, sink := range b.sinks {
		b.submitSink(sink, ev)
	}
	b.mu.RUnlock()

	wire, audience, target := Route(ev)

	switch audience {
	case AudienceAll:
		b.Broadcast(wire)
	case AudienceSession:
		if err := b.PublishTo(target, wire); err != nil {
			b.logger.Debug().Err(err).Str("session_id", target).Str("type", wire.Type).Msg("Failed to push event to session")
		}
	case AudienceNone:
	}
}

func (b *Bus) submitSink(sink Sink, ev Event) {
	b.sinkPool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		defer cancel()

		if err := sink.Publish(ctx, ev); err != nil {
			b.logger.Warn().Err(err).Str("kind", string(ev.Kind())).Msg("Event sink publish failed")
		}
	})
}

// Broadcast encodes ev once and sends it to every session. It returns the
// number of sessions that accepted the frame.
func (b *Bus) Broadcast(ev protocol.Event) int {
	frame, err := protocol.EncodeEvent(ev)
	if err != nil {
		b.logger.Error().Err(err).Str("type", ev.Type).Msg("Failed to encode event")

		return 0
	}

	delivered := 0

	b.sessions.Range(func(id string, t session.Transport) bool {
		if err := t.Send(frame); err != nil {
			b.logger.Debug().Err(err).Str("session_id", id).Str("type", ev.Type).Msg("Failed to send event, skipping session")

			return true
		}

		delivered++

		return true
	})

	return delivered
}

// PublishTo sends ev to one session.
func (b *Bus) PublishTo(sessionID string, ev protocol.Event) error {
	frame, err := protocol.EncodeEvent(ev)
	if err != nil {
		return err
	}

	return b.sessions.Send(sessionID, frame)
}

// Subscribe registers an observer. buffer <= 0 selects a default size.
func (b *Bus) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = defaultObserverBuffer
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++

	sub := &Subscription{id: b.nextID, ch: make(chan Event, buffer), bus: b}

	if b.closed {
		close(sub.ch)

		return sub
	}

	b.observers[sub.id] = sub

	return sub
}

// Close waits for pending sink deliveries and closes all subscriptions.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()

		return
	}

	b.closed = true
	observers := b.observers
	b.observers = map[uint64]*Subscription{}
	b.mu.Unlock()

	b.sinkPool.StopAndWait()

	for _, sub := range observers {
		sub.once.Do(func() { close(sub.ch) })
	}
}

// C returns the event channel. It is closed by Close on the subscription or the bus.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Close detaches the subscription.
func (s *Subscription) Close() {
	s.bus.mu.Lock()
	_, attached := s.bus.observers[s.id]
	delete(s.bus.observers, s.id)
	s.bus.mu.Unlock()

	if attached {
		s.once.Do(func() { close(s.ch) })
	}
}
