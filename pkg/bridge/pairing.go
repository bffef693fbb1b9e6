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

package bridge

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/massapay/massa-agent/pkg/models"
	"github.com/massapay/massa-agent/pkg/version"
)

// NewPairingData builds pairing data for an agent reachable at host:port.
// The session id is fresh on every call and is not checked on connect.
func NewPairingData(host string, port int, now time.Time) models.PairingData {
	return models.PairingData{
		Type:      models.PairingType,
		Version:   version.ProtocolVersion,
		Host:      host,
		Port:      port,
		SessionID: uuid.NewString(),
		PublicKey: "pk_" + strconv.FormatInt(now.UnixMilli(), 10),
	}
}

// PairingDataFor builds pairing data from configuration alone, for agents
// that are not running in this process.
func PairingDataFor(cfg *models.BridgeConfig) models.PairingData {
	return NewPairingData(advertisedHost(cfg.ListenHost, OutwardIPv4), cfg.BridgePort, time.Now())
}

// GeneratePairingData returns what the mobile app needs to reach this agent.
func (s *Server) GeneratePairingData() models.PairingData {
	st := s.store.Snapshot()

	if !st.Running {
		return NewPairingData(advertisedHost(s.cfg.ListenHost, s.discover), s.cfg.BridgePort, time.Now())
	}

	return NewPairingData(st.Host, st.Port, time.Now())
}
