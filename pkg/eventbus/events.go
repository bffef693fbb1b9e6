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

package eventbus

import (
	"github.com/massapay/massa-agent/pkg/models"
	"github.com/massapay/massa-agent/pkg/protocol"
)

// Kind discriminates lifecycle events.
type Kind string

const (
	KindStarted            Kind = "started"
	KindStopped            Kind = "stopped"
	KindDeviceConnected    Kind = "device_connected"
	KindDeviceDisconnected Kind = "device_disconnected"
	KindNodeStatusChanged  Kind = "node_status_changed"
	KindStakingUpdated     Kind = "staking_updated"
	KindOperationConfirmed Kind = "operation_confirmed"
	KindFailure            Kind = "failure"
)

// Event is one of the variants below. The set is closed.
type Event interface {
	Kind() Kind
	event()
}

type Started struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type Stopped struct{}

type DeviceConnected struct {
	Device models.Device `json:"device"`
}

type DeviceDisconnected struct {
	Device models.Device `json:"device"`
}

type NodeStatusChanged struct {
	Connected bool               `json:"connected"`
	Status    *models.NodeStatus `json:"status"`
}

// StakingUpdated is addressed to the session that asked for the data.
type StakingUpdated struct {
	SessionID string             `json:"sessionId"`
	Info      models.StakingInfo `json:"stakingInfo"`
}

// OperationConfirmed is addressed to the session that asked about the operation.
type OperationConfirmed struct {
	SessionID   string `json:"sessionId"`
	OperationID string `json:"operationId"`
}

type Failure struct {
	Message string `json:"message"`
}

func (Started) Kind() Kind            { return KindStarted }
func (Stopped) Kind() Kind            { return KindStopped }
func (DeviceConnected) Kind() Kind    { return KindDeviceConnected }
func (DeviceDisconnected) Kind() Kind { return KindDeviceDisconnected }
func (NodeStatusChanged) Kind() Kind  { return KindNodeStatusChanged }
func (StakingUpdated) Kind() Kind     { return KindStakingUpdated }
func (OperationConfirmed) Kind() Kind { return KindOperationConfirmed }
func (Failure) Kind() Kind            { return KindFailure }

func (Started) event()            {}
func (Stopped) event()            {}
func (DeviceConnected) event()    {}
func (DeviceDisconnected) event() {}
func (NodeStatusChanged) event()  {}
func (StakingUpdated) event()     {}
func (OperationConfirmed) event() {}
func (Failure) event()            {}

// Audience tells which sessions see the wire form of an event.
type Audience int

const (
	AudienceNone Audience = iota
	AudienceAll
	AudienceSession
)

// Route returns the wire event for ev, who receives it, and the target
// session for AudienceSession.
func Route(ev Event) (protocol.Event, Audience, string) {
	switch e := ev.(type) {
	case Started, Stopped, DeviceConnected, DeviceDisconnected:
		return protocol.Event{}, AudienceNone, ""
	case NodeStatusChanged:
		return protocol.Event{
			Type: protocol.EventNodeStatusChanged,
			Data: map[string]interface{}{"connected": e.Connected},
		}, AudienceAll, ""
	case StakingUpdated:
		return protocol.Event{Type: protocol.EventStakingUpdate, Data: e.Info}, AudienceSession, e.SessionID
	case OperationConfirmed:
		return protocol.Event{
			Type: protocol.EventOperationConfirmed,
			Data: map[string]interface{}{"operationId": e.OperationID},
		}, AudienceSession, e.SessionID
	case Failure:
		return protocol.Event{
			Type: protocol.EventError,
			Data: map[string]interface{}{"message": e.Message},
		}, AudienceAll, ""
	default:
		return protocol.Event{}, AudienceNone, ""
	}
}
