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

package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/massapay/massa-agent/pkg/models"
)

func TestStoreUpdateReplacesSnapshot(t *testing.T) {
	s := NewStore(models.ServerState{Port: 8765})

	before := s.Snapshot()

	after := s.Update(func(st models.ServerState) models.ServerState {
		st.Running = true

		return st.WithDevice(models.Device{ID: "d1", Name: "Phone"})
	})

	assert.True(t, after.Running)
	assert.Len(t, after.ConnectedDevices, 1)

	assert.False(t, before.Running, "earlier snapshots are not mutated")
	assert.Empty(t, before.ConnectedDevices)
	assert.Equal(t, after, s.Snapshot())
}

func TestStoreSubscribeDeliversLatest(t *testing.T) {
	s := NewStore(models.ServerState{})

	sub := s.Subscribe()
	defer sub.Close()

	initial := <-sub.C()
	assert.False(t, initial.Running)

	s.Set(models.ServerState{Running: true, Port: 1})
	s.Set(models.ServerState{Running: true, Port: 2})

	latest := <-sub.C()
	assert.Equal(t, 2, latest.Port)
}

func TestSubscriptionClose(t *testing.T) {
	s := NewStore(models.ServerState{})
	sub := s.Subscribe()

	sub.Close()
	sub.Close()

	// drain the initial snapshot, then the channel is closed
	for range sub.C() {
	}

	s.Set(models.ServerState{Running: true})
}

func TestStoreConcurrentUpdatesKeepAllDevices(t *testing.T) {
	s := NewStore(models.ServerState{})

	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			s.Update(func(st models.ServerState) models.ServerState {
				return st.WithDevice(models.Device{ID: string(rune('a' + i))})
			})
		}(i)
	}

	wg.Wait()

	require.Len(t, s.Snapshot().ConnectedDevices, 20)
}
