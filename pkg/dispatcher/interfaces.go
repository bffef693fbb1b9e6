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

package dispatcher

//go:generate mockgen -destination=mock_dispatcher.go -package=dispatcher github.com/massapay/massa-agent/pkg/dispatcher NodeAPI

import (
	"context"
	"encoding/json"

	"github.com/massapay/massa-agent/pkg/eventbus"
	"github.com/massapay/massa-agent/pkg/models"
)

// NodeAPI is the node client surface the handlers use.
type NodeAPI interface {
	GetNodeStatus(ctx context.Context) (*models.NodeStatus, error)
	GetNetworkInfo(ctx context.Context) (json.RawMessage, error)
	GetStakingInfo(ctx context.Context, address string) (*models.StakingInfo, error)
	GetAddresses(ctx context.Context, addresses []string) (json.RawMessage, error)
	GetStakingAddressesPrivate(ctx context.Context) ([]string, error)
	AddStakingSecretKey(ctx context.Context, secretKey string) error
	RemoveStakingAddress(ctx context.Context, address string) error
	SendOperations(ctx context.Context, operations []json.RawMessage) ([]string, error)
	GetOperations(ctx context.Context, ids []string) (json.RawMessage, error)
}

// Devices binds peers to sessions.
type Devices interface {
	BindDevice(id string, device models.Device) (bool, error)
	UpdateDevice(id string, mutate func(models.Device) models.Device) (models.Device, bool)
	Unbind(id string) (models.Device, bool)
	Device(id string) (models.Device, bool)
}

// StateUpdater replaces the server state snapshot.
type StateUpdater interface {
	Update(fn func(models.ServerState) models.ServerState) models.ServerState
}

// Publisher receives lifecycle events.
type Publisher interface {
	Publish(ev eventbus.Event)
}
