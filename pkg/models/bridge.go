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

// Package models holds the data shared between the bridge components and
// the mobile app wire protocol.
package models

// Device is the peer bound 1:1 to a bridge session. ID equals the session id.
type Device struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Platform      string       `json:"platform"`
	ConnectedAt   int64        `json:"connectedAt"`
	WalletAddress *string      `json:"walletAddress"`
	StakingInfo   *StakingInfo `json:"stakingInfo"`
}

// NodeStatus is replaced wholesale on every refresh; optional fields are
// null when the node did not report them.
type NodeStatus struct {
	Connected      bool    `json:"connected"`
	NodeIP         string  `json:"nodeIp"`
	NodePort       int     `json:"nodePort"`
	Version        *string `json:"version"`
	NetworkVersion *string `json:"networkVersion"`
	CurrentCycle   *int64  `json:"currentCycle"`
	CurrentPeriod  *int64  `json:"currentPeriod"`
	ConnectedPeers *int    `json:"connectedPeers"`
}

// StakingInfo is the staking view of one address. Amounts stay decimal strings.
type StakingInfo struct {
	Address          string  `json:"address"`
	Balance          string  `json:"balance"`
	CandidateBalance *string `json:"candidateBalance"`
	FinalRolls       int     `json:"finalRolls"`
	CandidateRolls   int     `json:"candidateRolls"`
	ActiveRolls      int     `json:"activeRolls"`
	StakingAddress   *string `json:"stakingAddress"`
	DeferredCredits  string  `json:"deferredCredits"`
}

// PairingType identifies massa-agent pairing payloads.
const PairingType = "massa-agent"

// PairingData is what the QR code carries. It is regenerated on demand and
// never persisted.
type PairingData struct {
	Type      string `json:"type"`
	Version   string `json:"version"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	SessionID string `json:"sessionId"`
	PublicKey string `json:"publicKey"`
}

// ServerState is an immutable snapshot. The With* helpers return copies and
// never share the device slice with the receiver.
type ServerState struct {
	Running          bool        `json:"isRunning"`
	Host             string      `json:"host"`
	Port             int         `json:"port"`
	NodeConnected    bool        `json:"nodeConnected"`
	NodeHost         string      `json:"nodeIp"`
	NodePort         int         `json:"nodePort"`
	NodeStatus       *NodeStatus `json:"nodeStatus"`
	ConnectedDevices []Device    `json:"connectedDevices"`
}

// WithDevice appends the device, or replaces the entry with the same id in place.
func (s ServerState) WithDevice(device Device) ServerState {
	devices := make([]Device, 0, len(s.ConnectedDevices)+1)
	replaced := false

	for _, d := range s.ConnectedDevices {
		if d.ID == device.ID {
			devices = append(devices, device)
			replaced = true

			continue
		}

		devices = append(devices, d)
	}

	if !replaced {
		devices = append(devices, device)
	}

	s.ConnectedDevices = devices

	return s
}

// WithoutDevice drops the device with the given id, keeping the order of the rest.
func (s ServerState) WithoutDevice(id string) ServerState {
	devices := make([]Device, 0, len(s.ConnectedDevices))

	for _, d := range s.ConnectedDevices {
		if d.ID != id {
			devices = append(devices, d)
		}
	}

	s.ConnectedDevices = devices

	return s
}

// Device looks up a connected device by id.
func (s ServerState) Device(id string) (Device, bool) {
	for _, d := range s.ConnectedDevices {
		if d.ID == id {
			return d, true
		}
	}

	return Device{}, false
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}
