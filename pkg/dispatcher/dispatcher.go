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

// Package dispatcher routes decoded bridge requests to one handler per
// catalog method and turns every failure into a response.
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/massapay/massa-agent/pkg/eventbus"
	"github.com/massapay/massa-agent/pkg/logger"
	"github.com/massapay/massa-agent/pkg/models"
	"github.com/massapay/massa-agent/pkg/nodeclient"
	"github.com/massapay/massa-agent/pkg/protocol"
)

// User-facing failure messages.
const (
	MsgNodeUnreachable = "No Massa node found. Please ensure your node is running."
	MsgAPIMismatch     = "Node API mismatch, please retry"
	msgUnknownMethod   = "Unknown method: "
	msgRegisterFailed  = "Failed to register: "
	msgRemoveFailed    = "Failed: "
	msgKeyRegistered   = "Staking key registered on node"
	msgStakingStopped  = "Staking stopped for "
)

const instrumentation = "github.com/massapay/massa-agent/pkg/dispatcher"

var errNoSession = errors.New("session is not registered")

// Dispatcher is shared by all connection handlers.
type Dispatcher struct {
	node     NodeAPI
	devices  Devices
	state    StateUpdater
	events   Publisher
	logger   logger.Logger
	now      func() time.Time
	requests metric.Int64Counter
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock replaces time.Now for connectedAt and ping replies.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(d *Dispatcher) { d.requests = newRequestCounter(mp) }
}

func New(node NodeAPI, devices Devices, state StateUpdater, events Publisher, log logger.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		node:     node,
		devices:  devices,
		state:    state,
		events:   events,
		logger:   log,
		now:      time.Now,
		requests: newRequestCounter(otel.GetMeterProvider()),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func newRequestCounter(mp metric.MeterProvider) metric.Int64Counter {
	counter, err := mp.Meter(instrumentation).Int64Counter("massa_agent.bridge.requests",
		metric.WithDescription("Bridge requests handled by method and result"))
	if err != nil {
		counter, _ = noop.Meter{}.Int64Counter("massa_agent.bridge.requests")
	}

	return counter
}

// Handle decodes one inbound frame and answers it. Frames that do not
// decode are answered with protocol.SentinelID.
func (d *Dispatcher) Handle(ctx context.Context, sessionID string, frame []byte) protocol.Response {
	req, err := protocol.Decode(frame)
	if err != nil {
		d.logger.Debug().Err(err).Str("session_id", sessionID).Msg("Rejected malformed frame")

		return protocol.Failure(protocol.SentinelID, err.Error())
	}

	return d.Dispatch(ctx, sessionID, req)
}

// Dispatch validates the request params and runs the method handler.
func (d *Dispatcher) Dispatch(ctx context.Context, sessionID string, req *protocol.Request) protocol.Response {
	resp := d.dispatch(ctx, sessionID, req)

	d.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", req.Method),
		attribute.Bool("success", resp.Success),
	))

	return resp
}

func (d *Dispatcher) dispatch(ctx context.Context, sessionID string, req *protocol.Request) protocol.Response {
	params, err := req.BindParams()
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownMethod) {
			d.logger.Debug().Str("session_id", sessionID).Str("method", req.Method).Msg("Unknown method")

			return protocol.Failure(req.ID, msgUnknownMethod+req.Method)
		}

		return protocol.Failure(req.ID, err.Error())
	}

	d.logger.Debug().Str("session_id", sessionID).Str("method", req.Method).Str("request_id", req.ID).Msg("Handling request")

	result, err := d.route(ctx, sessionID, req.Method, params)
	if err != nil {
		msg := failureMessage(req.Method, err)

		d.logger.Debug().Err(err).Str("session_id", sessionID).Str("method", req.Method).Msg("Request failed")

		return protocol.Failure(req.ID, msg)
	}

	return protocol.Success(req.ID, result)
}

//nolint:gocyclo // one case per catalog method
func (d *Dispatcher) route(ctx context.Context, sessionID, method string, params protocol.Params) (interface{}, error) {
	switch method {
	case protocol.MethodConnect:
		return d.connect(ctx, sessionID, params.(*protocol.ConnectParams))
	case protocol.MethodDisconnect:
		return d.disconnect(sessionID), nil
	case protocol.MethodPing:
		return map[string]interface{}{"pong": d.now().UnixMilli()}, nil
	case protocol.MethodGetNodeStatus:
		return d.node.GetNodeStatus(ctx)
	case protocol.MethodGetNetworkInfo:
		return d.node.GetNetworkInfo(ctx)
	case protocol.MethodGetStakingInfo:
		return d.stakingInfo(ctx, sessionID, params.(*protocol.AddressParams).Address)
	case protocol.MethodBuyRolls:
		p := params.(*protocol.RollParams)

		return nodeclient.PrepareBuyRolls(p.Address, int(*p.RollCount), string(p.Fee)), nil
	case protocol.MethodSellRolls:
		p := params.(*protocol.RollParams)

		return nodeclient.PrepareSellRolls(p.Address, int(*p.RollCount), string(p.Fee)), nil
	case protocol.MethodGetStakingAddresses:
		return d.node.GetStakingAddressesPrivate(ctx)
	case protocol.MethodAddStakingKey:
		return d.addStakingKey(ctx, params.(*protocol.SecretKeyParams).SecretKey)
	case protocol.MethodRemoveStakingKey:
		return d.removeStakingKey(ctx, params.(*protocol.AddressParams).Address)
	case protocol.MethodGetRewards:
		return rewards(params.(*protocol.AddressParams).Address), nil
	case protocol.MethodGetAddresses:
		return d.node.GetAddresses(ctx, params.(*protocol.AddressListParams).Addresses)
	case protocol.MethodSendOperations:
		return d.node.SendOperations(ctx, params.(*protocol.SendOperationsParams).Operations)
	case protocol.MethodGetOperations:
		return d.operations(ctx, sessionID, params.(*protocol.OperationIDsParams).OperationIDs)
	default:
		return nil, protocol.ErrUnknownMethod
	}
}

func (d *Dispatcher) connect(ctx context.Context, sessionID string, p *protocol.ConnectParams) (interface{}, error) {
	device, known := d.devices.UpdateDevice(sessionID, func(old models.Device) models.Device {
		old.Name = p.DeviceName
		old.Platform = p.Platform

		if p.WalletAddress != nil {
			old.WalletAddress = p.WalletAddress
		}

		return old
	})

	if !known {
		device = models.Device{
			ID:            sessionID,
			Name:          p.DeviceName,
			Platform:      p.Platform,
			ConnectedAt:   d.now().UnixMilli(),
			WalletAddress: p.WalletAddress,
		}

		first, err := d.devices.BindDevice(sessionID, device)
		if err != nil {
			return nil, errNoSession
		}

		known = !first
	}

	// The session may be dropped concurrently; only a still-bound device
	// enters the state.
	bound := true

	d.state.Update(func(s models.ServerState) models.ServerState {
		if _, bound = d.devices.Device(sessionID); !bound {
			return s.WithoutDevice(sessionID)
		}

		return s.WithDevice(device)
	})

	if !bound {
		return nil, errNoSession
	}

	if !known {
		d.logger.Info().Str("session_id", sessionID).Str("device", device.Name).Str("platform", device.Platform).Msg("Device connected")
		d.events.Publish(eventbus.DeviceConnected{Device: device})
	}

	status, err := d.node.GetNodeStatus(ctx)
	if err != nil {
		d.logger.Debug().Err(err).Msg("Node status unavailable during connect")

		status = nil
	}

	return map[string]interface{}{
		"sessionId":     sessionID,
		"nodeConnected": status != nil && status.Connected,
		"nodeStatus":    status,
	}, nil
}

func (d *Dispatcher) disconnect(sessionID string) interface{} {
	if device, ok := d.devices.Unbind(sessionID); ok {
		d.state.Update(func(s models.ServerState) models.ServerState { return s.WithoutDevice(sessionID) })
		d.logger.Info().Str("session_id", sessionID).Str("device", device.Name).Msg("Device disconnected")
		d.events.Publish(eventbus.DeviceDisconnected{Device: device})
	}

	return map[string]interface{}{"disconnected": true}
}

func (d *Dispatcher) stakingInfo(ctx context.Context, sessionID, address string) (interface{}, error) {
	info, err := d.node.GetStakingInfo(ctx, address)
	if err != nil {
		return nil, err
	}

	cached := *info

	device, ok := d.devices.UpdateDevice(sessionID, func(old models.Device) models.Device {
		old.WalletAddress = models.Ptr(address)
		old.StakingInfo = &cached

		return old
	})
	if ok {
		d.state.Update(func(s models.ServerState) models.ServerState { return s.WithDevice(device) })
	}

	d.events.Publish(eventbus.StakingUpdated{SessionID: sessionID, Info: cached})

	return info, nil
}

func (d *Dispatcher) addStakingKey(ctx context.Context, secretKey string) (interface{}, error) {
	if err := d.node.AddStakingSecretKey(ctx, secretKey); err != nil {
		return nil, err
	}

	addresses, err := d.node.GetStakingAddressesPrivate(ctx)
	if err != nil || addresses == nil {
		addresses = []string{}
	}

	d.logger.Info().Strs("staking_addresses", addresses).Msg("Staking key registered")

	return map[string]interface{}{
		"success":          true,
		"message":          msgKeyRegistered,
		"stakingAddresses": addresses,
	}, nil
}

func (d *Dispatcher) removeStakingKey(ctx context.Context, address string) (interface{}, error) {
	if err := d.node.RemoveStakingAddress(ctx, address); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"success": true,
		"message": msgStakingStopped + address,
	}, nil
}

// rewards is a placeholder; the node exposes no rewards history.
func rewards(address string) interface{} {
	return map[string]interface{}{
		"address":      address,
		"totalRewards": "0",
		"cycleRewards": []interface{}{},
	}
}

type operationState struct {
	ID               string `json:"id"`
	IsOperationFinal *bool  `json:"is_operation_final"`
}

func (d *Dispatcher) operations(ctx context.Context, sessionID string, ids []string) (interface{}, error) {
	raw, err := d.node.GetOperations(ctx, ids)
	if err != nil {
		return nil, err
	}

	var states []operationState
	if err := json.Unmarshal(raw, &states); err == nil {
		for _, op := range states {
			if op.ID != "" && op.IsOperationFinal != nil && *op.IsOperationFinal {
				d.events.Publish(eventbus.OperationConfirmed{SessionID: sessionID, OperationID: op.ID})
			}
		}
	}

	return raw, nil
}

func failureMessage(method string, err error) string {
	msg := describe(err)

	switch method {
	case protocol.MethodAddStakingKey:
		return msgRegisterFailed + msg
	case protocol.MethodRemoveStakingKey:
		return msgRemoveFailed + msg
	default:
		return msg
	}
}

func describe(err error) string {
	var rpcErr *nodeclient.RPCError

	switch {
	case errors.Is(err, nodeclient.ErrAPIMismatch):
		return MsgAPIMismatch
	case errors.As(err, &rpcErr):
		return rpcErr.Error()
	case errors.Is(err, nodeclient.ErrNodeUnreachable):
		return MsgNodeUnreachable
	default:
		return err.Error()
	}
}
