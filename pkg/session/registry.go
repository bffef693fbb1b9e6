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

// Package session tracks live bridge connections and the device each one
// represents.
package session

import (
	"errors"
	"sort"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/massapay/massa-agent/pkg/models"
)

var (
	ErrSessionExists   = errors.New("session already registered")
	ErrSessionNotFound = errors.New("session not found")
	ErrRegistryFull    = errors.New("session limit reached")
)

// Transport is the outbound half of one peer connection.
type Transport interface {
	Send(frame []byte) error
	Close(code int, reason string) error
	RemoteAddr() string
}

// Registry maps session ids to transports and to the device bound on connect.
// Remove is the only place a device leaves the registry, so each device is
// reported gone at most once.
type Registry struct {
	maxSessions int
	count       atomic.Int64
	transports  *xsync.Map[string, Transport]
	devices     *xsync.Map[string, models.Device]
}

// NewRegistry creates a registry. maxSessions <= 0 disables the cap.
func NewRegistry(maxSessions int) *Registry {
	return &Registry{
		maxSessions: maxSessions,
		transports:  xsync.NewMap[string, Transport](),
		devices:     xsync.NewMap[string, models.Device](),
	}
}

// Register adds a live transport under id.
func (r *Registry) Register(id string, t Transport) error {
	if n := r.count.Add(1); r.maxSessions > 0 && n > int64(r.maxSessions) {
		r.count.Add(-1)

		return ErrRegistryFull
	}

	if _, loaded := r.transports.LoadOrStore(id, t); loaded {
		r.count.Add(-1)

		return ErrSessionExists
	}

	return nil
}

// BindDevice attaches device to a registered session. It reports whether the
// session had no device before.
func (r *Registry) BindDevice(id string, device models.Device) (bool, error) {
	if _, ok := r.transports.Load(id); !ok {
		return false, ErrSessionNotFound
	}

	device.ID = id

	_, existed := r.devices.Load(id)
	r.devices.Store(id, device)

	// lost a race with Remove
	if _, ok := r.transports.Load(id); !ok {
		r.devices.Delete(id)

		return false, ErrSessionNotFound
	}

	return !existed, nil
}

// UpdateDevice applies mutate to the bound device atomically.
func (r *Registry) UpdateDevice(id string, mutate func(models.Device) models.Device) (models.Device, bool) {
	return r.devices.Compute(id, func(old models.Device, loaded bool) (models.Device, xsync.ComputeOp) {
		if !loaded {
			return old, xsync.CancelOp
		}

		updated := mutate(old)
		updated.ID = id

		return updated, xsync.UpdateOp
	})
}

// Unbind drops the device but keeps the session registered.
func (r *Registry) Unbind(id string) (models.Device, bool) {
	return r.devices.LoadAndDelete(id)
}

// Remove drops the session and returns the device it carried, if any.
func (r *Registry) Remove(id string) (models.Device, bool) {
	if _, ok := r.transports.LoadAndDelete(id); ok {
		r.count.Add(-1)
	}

	return r.devices.LoadAndDelete(id)
}

// Transport returns the transport registered under id.
func (r *Registry) Transport(id string) (Transport, bool) {
	return r.transports.Load(id)
}

// Device returns the device bound to id.
func (r *Registry) Device(id string) (models.Device, bool) {
	return r.devices.Load(id)
}

// Send writes frame to one session.
func (r *Registry) Send(id string, frame []byte) error {
	t, ok := r.transports.Load(id)
	if !ok {
		return ErrSessionNotFound
	}

	return t.Send(frame)
}

// Range calls fn for every registered transport until fn returns false.
func (r *Registry) Range(fn func(id string, t Transport) bool) {
	r.transports.Range(fn)
}

// SessionIDs returns the registered ids in sorted order.
func (r *Registry) SessionIDs() []string {
	ids := make([]string, 0, r.transports.Size())

	r.transports.Range(func(id string, _ Transport) bool {
		ids = append(ids, id)

		return true
	})

	sort.Strings(ids)

	return ids
}

// DeviceIDs returns the ids of sessions that have a bound device, sorted.
func (r *Registry) DeviceIDs() []string {
	ids := make([]string, 0, r.devices.Size())

	r.devices.Range(func(id string, _ models.Device) bool {
		ids = append(ids, id)

		return true
	})

	sort.Strings(ids)

	return ids
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	return r.transports.Size()
}
