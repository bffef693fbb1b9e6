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

// Package nodeclient talks JSON-RPC to a local Massa validator node. It
// finds the public API port by probing a fixed list of candidates and
// forgets it again when the node stops answering there.
package nodeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/massapay/massa-agent/pkg/logger"
	"github.com/massapay/massa-agent/pkg/models"
)

const (
	apiPath          = "/api/v2"
	maxResponseBytes = 16 << 20
	instrumentation  = "github.com/massapay/massa-agent/pkg/nodeclient"
)

// Flavor tells which node API a port serves.
type Flavor string

const (
	FlavorPublic  Flavor = "public"
	FlavorPrivate Flavor = "private"
)

// Endpoint is a detected, trusted node port.
type Endpoint struct {
	Port   int    `json:"port"`
	Flavor Flavor `json:"flavor"`
}

// ProbeOutcome classifies one candidate port during detection.
type ProbeOutcome string

const (
	ProbeAccepted    ProbeOutcome = "accepted"
	ProbeWrongAPI    ProbeOutcome = "wrong_api"
	ProbeUnreachable ProbeOutcome = "unreachable"
	ProbeRejected    ProbeOutcome = "rejected"
)

// ProbeResult records what one candidate port answered.
type ProbeResult struct {
	Port    int          `json:"port"`
	Outcome ProbeOutcome `json:"outcome"`
	Error   string       `json:"error,omitempty"`
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// Client is safe for concurrent use. At most one endpoint is trusted at a time.
type Client struct {
	httpClient     *http.Client
	candidatePorts []int
	privatePort    int
	password       string
	requestTimeout time.Duration
	logger         logger.Logger
	tracer         trace.Tracer
	metrics        *clientMetrics

	mu         sync.RWMutex
	host       string
	endpoint   *Endpoint
	generation uint64
	lastProbe  []ProbeResult

	detectGroup singleflight.Group
	nextID      atomic.Uint64
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithCandidatePorts(ports ...int) Option {
	return func(c *Client) { c.candidatePorts = append([]int(nil), ports...) }
}

func WithPrivateAPI(port int, password string) Option {
	return func(c *Client) {
		c.privatePort = port
		c.password = password
	}
}

func WithTimeouts(connect, request time.Duration) Option {
	return func(c *Client) {
		c.requestTimeout = request
		c.httpClient = newHTTPClient(connect, request)
	}
}

func WithLogger(log logger.Logger) Option {
	return func(c *Client) { c.logger = log }
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Client) { c.metrics = newClientMetrics(mp) }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = tp.Tracer(instrumentation) }
}

// New creates a client for the node at host with the default probe order,
// private port and timeouts.
func New(host string, opts ...Option) *Client {
	c := &Client{
		host:           host,
		candidatePorts: models.DefaultCandidatePorts(),
		privatePort:    models.DefaultPrivateAPIPort,
		requestTimeout: 30 * time.Second,
		httpClient:     newHTTPClient(10*time.Second, 30*time.Second),
		logger:         logger.NewTestLogger(),
		tracer:         otel.Tracer(instrumentation),
		metrics:        newClientMetrics(otel.GetMeterProvider()),
	}

	c.nextID.Store(uint64(time.Now().UnixMilli()))

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewFromConfig builds a client from the bridge configuration.
func NewFromConfig(cfg *models.BridgeConfig, log logger.Logger, opts ...Option) *Client {
	base := []Option{
		WithCandidatePorts(cfg.CandidatePorts...),
		WithPrivateAPI(cfg.PrivateAPIPort, cfg.PrivateAPIPassword),
		WithTimeouts(time.Duration(cfg.ConnectTimeout), time.Duration(cfg.RequestTimeout)),
		WithLogger(log),
	}

	return New(cfg.NodeHost, append(base, opts...)...)
}

func newHTTPClient(connect, request time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext:           (&net.Dialer{Timeout: connect}).DialContext,
			ResponseHeaderTimeout: request,
			MaxIdleConnsPerHost:   4,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// Host returns the node host currently targeted.
func (c *Client) Host() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.host
}

// SetHost repoints the client at another node and forgets the detected endpoint.
func (c *Client) SetHost(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.host = host
	c.endpoint = nil
	c.generation++
}

// ResetDetection forgets the detected endpoint so the next call probes again.
func (c *Client) ResetDetection() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.endpoint = nil
	c.generation++
}

// DetectedEndpoint reports the trusted endpoint, if any.
func (c *Client) DetectedEndpoint() (Endpoint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.endpoint == nil {
		return Endpoint{}, false
	}

	return *c.endpoint, true
}

// LastProbe returns what each candidate port answered in the latest detection.
func (c *Client) LastProbe() []ProbeResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]ProbeResult(nil), c.lastProbe...)
}

// DetectEndpoint probes the candidate ports in order and trusts the first
// that answers get_status with a result. Concurrent callers share one probe run.
func (c *Client) DetectEndpoint(ctx context.Context) (Endpoint, error) {
	v, err, _ := c.detectGroup.Do("detect", func() (interface{}, error) {
		return c.detect(ctx)
	})
	if err != nil {
		return Endpoint{}, err
	}

	return v.(Endpoint), nil
}

func (c *Client) detect(ctx context.Context) (Endpoint, error) {
	c.mu.RLock()
	host, generation := c.host, c.generation
	c.mu.RUnlock()

	ctx, span := c.tracer.Start(ctx, "nodeclient.detect", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	results := make([]ProbeResult, 0, len(c.candidatePorts))
	found := -1

	for _, port := range c.candidatePorts {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "canceled")

			return Endpoint{}, err
		}

		result := c.probe(ctx, host, port)
		results = append(results, result)

		if result.Outcome == ProbeWrongAPI {
			c.logger.Debug().Int("port", port).Msg("Port responds but serves the wrong API")
		}

		if result.Outcome == ProbeAccepted {
			found = port
			break
		}
	}

	c.mu.Lock()
	stale := c.generation != generation
	if !stale {
		c.lastProbe = results
		if found > 0 {
			c.endpoint = &Endpoint{Port: found, Flavor: FlavorPublic}
		}
	}
	c.mu.Unlock()

	if found < 0 {
		c.metrics.detection(ctx, "not_found")
		span.SetStatus(codes.Error, "no node found")
		c.logger.Debug().Str("host", host).Ints("ports", c.candidatePorts).Msg("No Massa node found on candidate ports")

		return Endpoint{}, ErrNodeUnreachable
	}

	c.metrics.detection(ctx, "found")
	span.SetAttributes(attribute.Int("massa.node.port", found))
	c.logger.Info().Str("host", host).Int("port", found).Msg("Detected Massa node API")

	return Endpoint{Port: found, Flavor: FlavorPublic}, nil
}

func (c *Client) probe(ctx context.Context, host string, port int) ProbeResult {
	_, err := c.post(ctx, host, port, "get_status", nil, false)

	var rpcErr *RPCError

	switch {
	case err == nil:
		return ProbeResult{Port: port, Outcome: ProbeAccepted}
	case errors.As(err, &rpcErr) && rpcErr.Code == WrongAPICode:
		return ProbeResult{Port: port, Outcome: ProbeWrongAPI, Error: rpcErr.Message}
	case errors.Is(err, ErrNodeUnreachable):
		return ProbeResult{Port: port, Outcome: ProbeUnreachable, Error: err.Error()}
	default:
		return ProbeResult{Port: port, Outcome: ProbeRejected, Error: err.Error()}
	}
}

func (c *Client) endpointOrDetect(ctx context.Context) (Endpoint, error) {
	if ep, ok := c.DetectedEndpoint(); ok {
		return ep, nil
	}

	return c.DetectEndpoint(ctx)
}

// invalidate clears the endpoint only if it still points at port, so a
// failure from an older endpoint never discards a newer detection.
func (c *Client) invalidate(port int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.endpoint != nil && c.endpoint.Port == port {
		c.endpoint = nil
	}
}

// Call invokes method on the public API, detecting the endpoint first if needed.
func (c *Client) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	ep, err := c.endpointOrDetect(ctx)
	if err != nil {
		return nil, err
	}

	result, err := c.post(ctx, c.Host(), ep.Port, method, params, false)
	if err == nil {
		return result, nil
	}

	var rpcErr *RPCError

	switch {
	case errors.As(err, &rpcErr) && rpcErr.Code == WrongAPICode:
		c.logger.Warn().Int("port", ep.Port).Str("method", method).Msg("Wrong API on detected port, will re-detect")
		c.invalidate(ep.Port)

		return nil, ErrAPIMismatch
	case errors.Is(err, ErrNodeUnreachable) && ctx.Err() == nil:
		c.logger.Debug().Int("port", ep.Port).Err(err).Msg("Node transport failure, will re-detect")
		c.invalidate(ep.Port)
	}

	return nil, err
}

// PrivateCall invokes method on the authenticated private API port.
func (c *Client) PrivateCall(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	return c.post(ctx, c.Host(), c.privatePort, method, params, true)
}

// IsReachable reports whether get_status currently succeeds.
func (c *Client) IsReachable(ctx context.Context) bool {
	_, err := c.Call(ctx, "get_status", nil)

	return err == nil
}

func (c *Client) post(
	ctx context.Context, host string, port int, method string, params interface{}, private bool,
) (json.RawMessage, error) {
	if params == nil {
		params = []interface{}{}
	}

	api := FlavorPublic
	if private {
		api = FlavorPrivate
	}

	ctx, span := c.tracer.Start(ctx, "nodeclient."+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("rpc.system", "jsonrpc"),
			attribute.String("rpc.method", method),
			attribute.String("massa.api", string(api)),
			attribute.Int("server.port", port),
		))
	defer span.End()

	start := time.Now()
	result, err := c.exchange(ctx, host, port, method, params, private)

	outcome := outcomeOf(err)
	c.metrics.call(ctx, method, api, outcome, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}

	return result, err
}

func (c *Client) exchange(
	ctx context.Context, host string, port int, method string, params interface{}, private bool,
) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	if c.requestTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	url := "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + apiPath

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", method, err)
	}

	req.Header.Set("Content-Type", "application/json")

	if private {
		req.SetBasicAuth("", c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Port: port, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Port: port, Err: err}
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return nil, fmt.Errorf("%w: HTTP %d from port %d", ErrMalformedResponse, resp.StatusCode, port)
	}

	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}

	if len(rpcResp.Result) == 0 {
		return nil, fmt.Errorf("%w: no result from port %d", ErrMalformedResponse, port)
	}

	return rpcResp.Result, nil
}

func outcomeOf(err error) string {
	var rpcErr *RPCError

	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &rpcErr) && rpcErr.Code == WrongAPICode:
		return "wrong_api"
	case errors.As(err, &rpcErr):
		return "rpc_error"
	case errors.Is(err, ErrNodeUnreachable):
		return "transport_error"
	default:
		return "malformed"
	}
}
