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

// Package state owns the bridge's ServerState snapshot. Writers replace the
// whole value; observers receive the latest snapshot through subscriptions.
package state

import (
	"sync"
	"sync/atomic"

	"github.com/massapay/massa-agent/pkg/models"
)

// Store holds the current snapshot. Snapshots must be treated as read-only;
// the models.ServerState helpers always copy before changing the device list.
type Store struct {
	current atomic.Pointer[models.ServerState]

	subMu  sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
}

// Subscription delivers the latest snapshot. Slow readers skip intermediate
// snapshots but always see the newest one.
type Subscription struct {
	id    uint64
	ch    chan models.ServerState
	store *Store
	once  sync.Once
}

func NewStore(initial models.ServerState) *Store {
	s := &Store{subs: make(map[uint64]*Subscription)}
	s.current.Store(&initial)

	return s
}

// Snapshot returns the current state.
func (s *Store) Snapshot() models.ServerState {
	return *s.current.Load()
}

// Update installs fn(current). When another writer wins the race fn is
// applied again on top of its result.
func (s *Store) Update(fn func(models.ServerState) models.ServerState) models.ServerState {
	for {
		old := s.current.Load()
		next := fn(*old)

		if s.current.CompareAndSwap(old, &next) {
			s.notify(next)

			return next
		}
	}
}

// Set replaces the state unconditionally.
func (s *Store) Set(next models.ServerState) {
	s.current.Store(&next)
	s.notify(next)
}

// Subscribe registers an observer. The current snapshot is delivered first.
func (s *Store) Subscribe() *Subscription {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextID++

	sub := &Subscription{
		id:    s.nextID,
		ch:    make(chan models.ServerState, 1),
		store: s,
	}

	sub.ch <- s.Snapshot()
	s.subs[sub.id] = sub

	return sub
}

func (s *Store) notify(next models.ServerState) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, sub := range s.subs {
		select {
		case <-sub.ch:
		default:
		}

		sub.ch <- next
	}
}

// C returns the delivery channel. It is closed by Close.
func (sub *Subscription) C() <-chan models.ServerState {
	return sub.ch
}

// Close detaches the subscription. Safe to call more than once.
func (sub *Subscription) Close() {
	sub.once.Do(func() {
		sub.store.subMu.Lock()
		defer sub.store.subMu.Unlock()

		delete(sub.store.subs, sub.id)
		close(sub.ch)
	})
}
