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

package nodeclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/massapay/massa-agent/pkg/models"
)

// Node JSON-RPC method names.
const (
	rpcGetStatus              = "get_status"
	rpcGetAddresses           = "get_addresses"
	rpcGetOperations          = "get_operations"
	rpcSendOperations         = "send_operations"
	rpcGetStakingAddresses    = "get_staking_addresses"
	rpcAddStakingSecretKeys   = "add_staking_secret_keys"
	rpcRemoveStakingAddresses = "remove_staking_addresses"
)

// Roll operation types understood by the wallet that signs them.
const (
	RollBuy  = "buy_rolls"
	RollSell = "sell_rolls"
)

// RollOperation is an unsigned roll purchase or sale for the peer to sign.
type RollOperation struct {
	Type      string `json:"type"`
	Address   string `json:"address"`
	RollCount int    `json:"roll_count"`
	Fee       string `json:"fee"`
}

type statusResult struct {
	Version        *string                    `json:"version"`
	CurrentCycle   *int64                     `json:"current_cycle"`
	CurrentPeriod  *int64                     `json:"current_period"`
	ConnectedNodes map[string]json.RawMessage `json:"connected_nodes"`
	Config         *struct {
		GenesisTimestamp json.RawMessage `json:"genesis_timestamp"`
	} `json:"config"`
}

type deferredCredit struct {
	Amount json.RawMessage `json:"amount"`
}

type addressInfo struct {
	Address            *string          `json:"address"`
	FinalBalance       json.RawMessage  `json:"final_balance"`
	CandidateBalance   json.RawMessage  `json:"candidate_balance"`
	FinalRollCount     *int             `json:"final_roll_count"`
	CandidateRollCount *int             `json:"candidate_roll_count"`
	ActiveRolls        *int             `json:"active_rolls"`
	DeferredCredits    []deferredCredit `json:"deferred_credits"`
}

// GetNetworkInfo returns the raw get_status result.
func (c *Client) GetNetworkInfo(ctx context.Context) (json.RawMessage, error) {
	return c.Call(ctx, rpcGetStatus, nil)
}

// GetNodeStatus summarizes get_status for the dashboard and the mobile app.
func (c *Client) GetNodeStatus(ctx context.Context) (*models.NodeStatus, error) {
	raw, err := c.Call(ctx, rpcGetStatus, nil)
	if err != nil {
		return nil, err
	}

	var status statusResult
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("%w: get_status: %w", ErrMalformedResponse, err)
	}

	port := 0
	if ep, ok := c.DetectedEndpoint(); ok {
		port = ep.Port
	}

	result := &models.NodeStatus{
		Connected:      true,
		NodeIP:         c.Host(),
		NodePort:       port,
		Version:        status.Version,
		CurrentCycle:   status.CurrentCycle,
		CurrentPeriod:  status.CurrentPeriod,
		ConnectedPeers: models.Ptr(len(status.ConnectedNodes)),
	}

	if status.Config != nil {
		if genesis, ok := rawString(status.Config.GenesisTimestamp); ok {
			result.NetworkVersion = &genesis
		}
	}

	return result, nil
}

// GetStakingInfo reads one address and sums its deferred credits exactly.
func (c *Client) GetStakingInfo(ctx context.Context, address string) (*models.StakingInfo, error) {
	raw, err := c.Call(ctx, rpcGetAddresses, [][]string{{address}})
	if err != nil {
		return nil, err
	}

	var infos []addressInfo
	if err := json.Unmarshal(raw, &infos); err != nil {
		return nil, fmt.Errorf("%w: get_addresses: %w", ErrMalformedResponse, err)
	}

	if len(infos) == 0 {
		return nil, ErrAddressNotFound
	}

	return stakingInfoFrom(address, &infos[0]), nil
}

func stakingInfoFrom(address string, info *addressInfo) *models.StakingInfo {
	result := &models.StakingInfo{
		Address:         address,
		Balance:         "0",
		StakingAddress:  info.Address,
		DeferredCredits: sumDeferredCredits(info.DeferredCredits).String(),
	}

	if candidate, ok := rawString(info.CandidateBalance); ok {
		result.Balance = candidate
		result.CandidateBalance = &candidate
	} else if final, ok := rawString(info.FinalBalance); ok {
		result.Balance = final
	}

	if info.FinalRollCount != nil {
		result.FinalRolls = *info.FinalRollCount
	}

	if info.CandidateRollCount != nil {
		result.CandidateRolls = *info.CandidateRollCount
	}

	switch {
	case info.ActiveRolls != nil:
		result.ActiveRolls = *info.ActiveRolls
	case info.CandidateRollCount != nil:
		result.ActiveRolls = *info.CandidateRollCount
	}

	return result
}

// sumDeferredCredits adds every credit amount. Unparseable amounts count as zero.
func sumDeferredCredits(credits []deferredCredit) decimal.Decimal {
	total := decimal.Zero

	for _, credit := range credits {
		amount, ok := rawString(credit.Amount)
		if !ok {
			continue
		}

		value, err := decimal.NewFromString(amount)
		if err != nil {
			continue
		}

		total = total.Add(value)
	}

	return total
}

// GetAddresses proxies get_addresses for several addresses.
func (c *Client) GetAddresses(ctx context.Context, addresses []string) (json.RawMessage, error) {
	return c.Call(ctx, rpcGetAddresses, [][]string{addresses})
}

// GetStakingAddressesPrivate lists the addresses the node stakes for.
func (c *Client) GetStakingAddressesPrivate(ctx context.Context) ([]string, error) {
	raw, err := c.PrivateCall(ctx, rpcGetStakingAddresses, nil)
	if err != nil {
		return nil, err
	}

	addresses := []string{}
	if err := json.Unmarshal(raw, &addresses); err != nil {
		return nil, fmt.Errorf("%w: get_staking_addresses: %w", ErrMalformedResponse, err)
	}

	if addresses == nil {
		addresses = []string{}
	}

	return addresses, nil
}

// AddStakingSecretKey hands a secret key to the node so it starts staking.
// The key is never logged.
func (c *Client) AddStakingSecretKey(ctx context.Context, secretKey string) error {
	if _, err := c.PrivateCall(ctx, rpcAddStakingSecretKeys, [][]string{{secretKey}}); err != nil {
		return err
	}

	c.logger.Info().Msg("Staking key added to node")

	return nil
}

// RemoveStakingAddress stops staking for address.
func (c *Client) RemoveStakingAddress(ctx context.Context, address string) error {
	if _, err := c.PrivateCall(ctx, rpcRemoveStakingAddresses, [][]string{{address}}); err != nil {
		return err
	}

	c.logger.Info().Str("address", address).Msg("Staking address removed from node")

	return nil
}

// SendOperations forwards signed operations and returns their ids.
func (c *Client) SendOperations(ctx context.Context, operations []json.RawMessage) ([]string, error) {
	raw, err := c.Call(ctx, rpcSendOperations, operations)
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("%w: send_operations: %w", ErrMalformedResponse, err)
	}

	return ids, nil
}

// GetOperations returns the node's view of the given operation ids.
func (c *Client) GetOperations(ctx context.Context, ids []string) (json.RawMessage, error) {
	return c.Call(ctx, rpcGetOperations, [][]string{ids})
}

// PrepareBuyRolls builds an unsigned buy descriptor; nothing is sent to the node.
func PrepareBuyRolls(address string, rollCount int, fee string) RollOperation {
	return RollOperation{Type: RollBuy, Address: address, RollCount: rollCount, Fee: fee}
}

// PrepareSellRolls builds an unsigned sell descriptor; nothing is sent to the node.
func PrepareSellRolls(address string, rollCount int, fee string) RollOperation {
	return RollOperation{Type: RollSell, Address: address, RollCount: rollCount, Fee: fee}
}

// rawString reads a JSON string or number as text. Null and absent values report false.
func rawString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if _, err := strconv.ParseFloat(n.String(), 64); err == nil {
			return n.String(), true
		}
	}

	return "", false
}
