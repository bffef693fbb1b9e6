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

// Package bridge is the composition root of the agent: it owns the HTTP
// listener, the session registry, the state store, the event bus and the
// node status poller, and exposes start/stop and device management.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/massapay/massa-agent/pkg/dispatcher"
	"github.com/massapay/massa-agent/pkg/eventbus"
	httpmw "github.com/massapay/massa-agent/pkg/http"
	"github.com/massapay/massa-agent/pkg/lifecycle"
	"github.com/massapay/massa-agent/pkg/logger"
	"github.com/massapay/massa-agent/pkg/models"
	"github.com/massapay/massa-agent/pkg/natsutil"
	"github.com/massapay/massa-agent/pkg/nodeclient"
	"github.com/massapay/massa-agent/pkg/poller"
	"github.com/massapay/massa-agent/pkg/session"
	"github.com/massapay/massa-agent/pkg/state"
)

const (
	instrumentation = "github.com/massapay/massa-agent/pkg/bridge"

	defaultWriteTimeout = 30 * time.Second
	closeReasonServer   = "Disconnected by server"
	closeReasonShutdown = "Server shutting down"
	closeReasonFull     = "Too many sessions"
)

var errNilConfig = errors.New("bridge config is nil")

// Server owns every component of a running agent. The zero value is not
// usable; construct it with New.
type Server struct {
	cfg     *models.BridgeConfig
	logger  logger.Logger
	rootLog logger.Logger

	node       *nodeclient.Client
	registry   *session.Registry
	store      *state.Store
	bus        *eventbus.Bus
	dispatcher *dispatcher.Dispatcher
	pool       pond.Pool
	clock      poller.Clock
	natsConn   *nats.Conn

	router   *mux.Router
	upgrader websocket.Upgrader
	sessions metric.Int64UpDownCounter
	discover func() string

	mu         sync.Mutex
	running    bool
	httpServer *http.Server
	listener   net.Listener
	poller     *poller.Poller
	cancelBase context.CancelFunc
	conns      sync.WaitGroup
	closed     bool
}

type options struct {
	meterProvider metric.MeterProvider
	sinks         []eventbus.Sink
	clock         poller.Clock
	nodeOptions   []nodeclient.Option
	discover      func() string
}

// Option configures a Server.
type Option func(*options)

// WithMeterProvider overrides the global OTel meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithSink mirrors every lifecycle event to sink.
func WithSink(sink eventbus.Sink) Option {
	return func(o *options) { o.sinks = append(o.sinks, sink) }
}

// WithClock replaces the poller clock.
func WithClock(clock poller.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithNodeOptions passes extra options to the node client.
func WithNodeOptions(opts ...nodeclient.Option) Option {
	return func(o *options) { o.nodeOptions = append(o.nodeOptions, opts...) }
}

// WithHostDiscovery replaces outward IPv4 discovery.
func WithHostDiscovery(discover func() string) Option {
	return func(o *options) { o.discover = discover }
}

// New wires the agent components from cfg. When cfg.NATS is enabled it
// connects to JetStream and mirrors lifecycle events there.
func New(ctx context.Context, cfg *models.BridgeConfig, log logger.Logger, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errNilConfig
	}

	o := &options{
		meterProvider: otel.GetMeterProvider(),
		discover:      OutwardIPv4,
	}

	for _, opt := range opts {
		opt(o)
	}

	s := &Server{
		cfg:      cfg,
		logger:   lifecycle.ComponentLogger(log, "bridge"),
		rootLog:  log,
		registry: session.NewRegistry(cfg.MaxSessions),
		pool:     pond.NewPool(cfg.MaxSessions),
		clock:    o.clock,
		discover: o.discover,
		sessions: newSessionGauge(o.meterProvider),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	s.store = state.NewStore(models.ServerState{
		NodeHost: cfg.NodeHost,
		NodePort: cfg.NodeRPCPort,
	})

	nodeOpts := append([]nodeclient.Option{nodeclient.WithMeterProvider(o.meterProvider)}, o.nodeOptions...)
	s.node = nodeclient.NewFromConfig(cfg, lifecycle.ComponentLogger(log, "nodeclient"), nodeOpts...)

	sinks := o.sinks

	if cfg.NATS != nil && cfg.NATS.Enabled {
		publisher, nc, err := natsutil.Connect(ctx, cfg.NATS, s.logger)
		if err != nil {
			s.pool.StopAndWait()

			return nil, fmt.Errorf("failed to connect event stream: %w", err)
		}

		s.natsConn = nc
		sinks = append(sinks, publisher)
	}

	busOpts := []eventbus.Option{eventbus.WithPool(s.pool)}
	for _, sink := range sinks {
		busOpts = append(busOpts, eventbus.WithSink(sink))
	}

	s.bus = eventbus.New(s.registry, lifecycle.ComponentLogger(log, "eventbus"), busOpts...)

	s.dispatcher = dispatcher.New(s.node, s.registry, s.store, s.bus,
		lifecycle.ComponentLogger(log, "dispatcher"),
		dispatcher.WithMeterProvider(o.meterProvider))

	s.router = mux.NewRouter()
	s.router.Use(httpmw.RequestLogger(s.logger), httpmw.Recoverer(s.logger))
	s.router.HandleFunc("/bridge", s.handleBridge)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	return s, nil
}

func newSessionGauge(mp metric.MeterProvider) metric.Int64UpDownCounter {
	gauge, err := mp.Meter(instrumentation).Int64UpDownCounter("massa_agent.bridge.sessions",
		metric.WithDescription("Open bridge WebSocket sessions"))
	if err != nil {
		gauge, _ = noop.Meter{}.Int64UpDownCounter("massa_agent.bridge.sessions")
	}

	return gauge
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the listener and begins serving. Calling Start on a running
// server is a no-op.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	addr := net.JoinHostPort(s.cfg.ListenHost, strconv.Itoa(s.cfg.BridgePort))

	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		s.logger.Error().Err(err).Str("addr", addr).Msg("Failed to bind bridge listener")
		s.bus.Publish(eventbus.Failure{Message: "Failed to start server: " + err.Error()})

		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	port := ln.Addr().(*net.TCPAddr).Port
	host := advertisedHost(s.cfg.ListenHost, s.discover)

	baseCtx, cancelBase := context.WithCancel(context.Background())

	s.cancelBase = cancelBase
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	s.running = true

	s.store.Update(func(st models.ServerState) models.ServerState {
		st.Running = true
		st.Host = host
		st.Port = port

		return st
	})

	srv := s.httpServer

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Bridge listener stopped unexpectedly")
			s.bus.Publish(eventbus.Failure{Message: "Server error: " + err.Error()})
		}
	}()

	s.poller = poller.New(time.Duration(s.cfg.PollInterval), s.node, s.store, s.bus, s.clock,
		lifecycle.ComponentLogger(s.rootLog, "poller"))

	p, pollCtx := s.poller, baseCtx

	go func() {
		if err := p.Start(pollCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn().Err(err).Msg("Node status poller exited")
		}
	}()

	s.logger.Info().Str("host", host).Int("port", port).Msg("Bridge server started")
	s.bus.Publish(eventbus.Started{Host: host, Port: port})

	return nil
}

// Stop closes the listener and the sessions. Sessions get the shutdown
// grace period to close cleanly and are then dropped. Stopping a stopped
// server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()

		return nil
	}

	s.running = false
	srv, p, cancelBase := s.httpServer, s.poller, s.cancelBase
	s.httpServer, s.poller, s.listener = nil, nil, nil
	s.mu.Unlock()

	_ = p.Stop(ctx)

	timeout := time.Duration(s.cfg.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		_ = srv.Close()
	}

	s.closeSessions(websocket.CloseGoingAway, closeReasonShutdown)

	if !s.waitConnections(time.Duration(s.cfg.ShutdownGrace)) {
		s.logger.Warn().Msg("Sessions still open after grace period, forcing close")
		s.abortSessions()
		s.waitConnections(timeout)
	}

	cancelBase()

	s.store.Update(func(st models.ServerState) models.ServerState {
		st.Running = false

		return st
	})

	s.logger.Info().Msg("Bridge server stopped")
	s.bus.Publish(eventbus.Stopped{})

	if errors.Is(err, context.DeadlineExceeded) {
		return nil
	}

	return err
}

// Close stops the server and releases the pool, the bus and the event
// stream connection. The server cannot be started again.
func (s *Server) Close(ctx context.Context) error {
	err := s.Stop(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()

		return err
	}

	s.closed = true
	s.mu.Unlock()

	s.bus.Close()
	s.pool.StopAndWait()

	if s.natsConn != nil {
		if drainErr := s.natsConn.Drain(); drainErr != nil {
			s.natsConn.Close()
		}
	}

	return err
}

// Running reports whether the listener is up.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// Addr returns the bound listener address, or nil when stopped.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}

	return s.listener.Addr()
}

// State returns the current server state snapshot.
func (s *Server) State() models.ServerState {
	return s.store.Snapshot()
}

// SubscribeState streams state snapshots, starting with the current one.
func (s *Server) SubscribeState() *state.Subscription {
	return s.store.Subscribe()
}

// Events subscribes to lifecycle events.
func (s *Server) Events(buffer int) *eventbus.Subscription {
	return s.bus.Subscribe(buffer)
}

// Node returns the node client the server talks through.
func (s *Server) Node() *nodeclient.Client {
	return s.node
}

// UpdateNodeConfig points the agent at another node. The next node call
// probes the candidate ports again.
func (s *Server) UpdateNodeConfig(host string, port int) {
	s.node.SetHost(host)

	s.store.Update(func(st models.ServerState) models.ServerState {
		st.NodeHost = host
		st.NodePort = port

		return st
	})

	s.logger.Info().Str("node_host", host).Int("node_port", port).Msg("Node configuration updated")
}

// track registers a connection handler so Stop can wait for it. It fails
// once Stop has begun.
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return false
	}

	s.conns.Add(1)

	return true
}

func (s *Server) waitConnections(d time.Duration) bool {
	done := make(chan struct{})

	go func() {
		s.conns.Wait()
		close(done)
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

func (s *Server) closeSessions(code int, reason string) {
	s.registry.Range(func(id string, t session.Transport) bool {
		if err := t.Close(code, reason); err != nil {
			s.logger.Debug().Err(err).Str("session_id", id).Msg("Session close failed")
		}

		return true
	})
}

type aborter interface {
	Abort() error
}

func (s *Server) abortSessions() {
	s.registry.Range(func(_ string, t session.Transport) bool {
		if a, ok := t.(aborter); ok {
			_ = a.Abort()
		}

		return true
	})
}
