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

// Package poller watches the node from the background and keeps the node
// part of the server state fresh.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/massapay/massa-agent/pkg/eventbus"
	"github.com/massapay/massa-agent/pkg/logger"
	"github.com/massapay/massa-agent/pkg/models"
)

const DefaultInterval = 5 * time.Second

var errAlreadyStarted = errors.New("status poller already started")

// Poller publishes NodeStatusChanged only when reachability flips. While the
// node is reachable every tick also refreshes the stored NodeStatus.
type Poller struct {
	interval time.Duration
	probe    NodeProbe
	state    StateStore
	events   Publisher
	clock    Clock
	logger   logger.Logger

	mu        sync.Mutex
	started   bool
	stopped   bool
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a poller. A nil clock uses real time; interval <= 0 selects 5s.
func New(interval time.Duration, probe NodeProbe, state StateStore, events Publisher, clock Clock, log logger.Logger) *Poller {
	if clock == nil {
		clock = realClock{}
	}

	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Poller{
		interval: interval,
		probe:    probe,
		state:    state,
		events:   events,
		clock:    clock,
		logger:   log,
		done:     make(chan struct{}),
	}
}

// Start polls once immediately and then on every tick until ctx is done or
// Stop is called. It blocks. Start after Stop returns nil without polling.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()

		return errAlreadyStarted
	}

	p.started = true

	if p.stopped {
		p.mu.Unlock()

		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	defer p.wg.Done()
	defer cancel()

	ticker := p.clock.Ticker(p.interval)
	defer ticker.Stop()

	p.logger.Info().Dur("interval", p.interval).Msg("Starting node status poller")

	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			select {
			case <-p.done:
				return nil
			default:
				return ctx.Err()
			}
		case <-p.done:
			return nil
		case <-ticker.Chan():
			p.poll(ctx)
		}
	}
}

// Stop ends the loop and cancels an in-flight poll, waiting for it to
// unwind until ctx is done.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	p.stopped = true
	cancel := p.cancel
	p.mu.Unlock()

	p.closeOnce.Do(func() { close(p.done) })

	if cancel != nil {
		cancel()
	}

	finished := make(chan struct{})

	go func() {
		p.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) poll(ctx context.Context) {
	started := p.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Interface("panic", r).Msg("Recovered from panic during node poll")

			return
		}

		p.logger.Debug().Dur("took", p.clock.Now().Sub(started)).Msg("Node poll finished")
	}()

	reachable := p.probe.IsReachable(ctx)
	if ctx.Err() != nil {
		return
	}

	if reachable != p.state.Snapshot().NodeConnected {
		next := p.state.Update(func(s models.ServerState) models.ServerState {
			s.NodeConnected = reachable

			return s
		})

		p.logger.Info().Bool("connected", reachable).Msg("Node reachability changed")
		p.events.Publish(eventbus.NodeStatusChanged{Connected: reachable, Status: next.NodeStatus})
	}

	if !reachable {
		return
	}

	status, err := p.probe.GetNodeStatus(ctx)
	if ctx.Err() != nil {
		return
	}

	if err != nil {
		p.logger.Debug().Err(err).Msg("Node status refresh failed")

		return
	}

	p.state.Update(func(s models.ServerState) models.ServerState {
		s.NodeStatus = status

		return s
	})
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Ticker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct{ *time.Ticker }

func (t realTicker) Chan() <-chan time.Time { return t.C }
