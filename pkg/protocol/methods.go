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

package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Method names accepted on the bridge.
const (
	MethodConnect             = "connect"
	MethodDisconnect          = "disconnect"
	MethodPing                = "ping"
	MethodGetNodeStatus       = "get_node_status"
	MethodGetNetworkInfo      = "get_network_info"
	MethodGetStakingInfo      = "get_staking_info"
	MethodBuyRolls            = "buy_rolls"
	MethodSellRolls           = "sell_rolls"
	MethodGetStakingAddresses = "get_staking_addresses"
	MethodAddStakingKey       = "add_staking_key"
	MethodRemoveStakingKey    = "remove_staking_key"
	MethodGetRewards          = "get_rewards"
	MethodGetAddresses        = "get_addresses"
	MethodSendOperations      = "send_operations"
	MethodGetOperations       = "get_operations"
)

// DefaultRollFee applies when buy_rolls or sell_rolls omit fee.
const DefaultRollFee = "0.01"

// Params is the decoded, validated parameter set of one method.
type Params interface {
	Validate() error
}

//nolint:gochecknoglobals // static method catalog
var catalog = map[string]func() Params{
	MethodConnect:             func() Params { return &ConnectParams{} },
	MethodDisconnect:          func() Params { return &NoParams{} },
	MethodPing:                func() Params { return &NoParams{} },
	MethodGetNodeStatus:       func() Params { return &NoParams{} },
	MethodGetNetworkInfo:      func() Params { return &NoParams{} },
	MethodGetStakingInfo:      func() Params { return &AddressParams{} },
	MethodBuyRolls:            func() Params { return &RollParams{} },
	MethodSellRolls:           func() Params { return &RollParams{} },
	MethodGetStakingAddresses: func() Params { return &NoParams{} },
	MethodAddStakingKey:       func() Params { return &SecretKeyParams{} },
	MethodRemoveStakingKey:    func() Params { return &AddressParams{} },
	MethodGetRewards:          func() Params { return &AddressParams{} },
	MethodGetAddresses:        func() Params { return &AddressListParams{} },
	MethodSendOperations:      func() Params { return &SendOperationsParams{} },
	MethodGetOperations:       func() Params { return &OperationIDsParams{} },
}

// Methods lists every method in the catalog.
func Methods() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}

	return names
}

// BindParams decodes and validates the request params against the schema
// of its method. Unknown methods fail with ErrUnknownMethod.
func (r *Request) BindParams() (Params, error) {
	newParams, ok := catalog[r.Method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, r.Method)
	}

	params := newParams()

	if err := json.Unmarshal(r.Params, params); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return nil, invalid(typeErr.Field, errors.New("expected "+typeErr.Type.String()))
		}

		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			return nil, validationErr
		}

		return nil, &DecodeError{Err: err}
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	return params, nil
}

// NoParams is used by methods that take no parameters.
type NoParams struct{}

func (*NoParams) Validate() error { return nil }

type ConnectParams struct {
	DeviceName    string  `json:"deviceName"`
	Platform      string  `json:"platform"`
	WalletAddress *string `json:"walletAddress"`
}

func (p *ConnectParams) Validate() error {
	if strings.TrimSpace(p.DeviceName) == "" {
		return missing("deviceName")
	}

	if strings.TrimSpace(p.Platform) == "" {
		return missing("platform")
	}

	if p.WalletAddress != nil && *p.WalletAddress == "" {
		p.WalletAddress = nil
	}

	return nil
}

type AddressParams struct {
	Address string `json:"address"`
}

func (p *AddressParams) Validate() error {
	if strings.TrimSpace(p.Address) == "" {
		return missing("address")
	}

	return nil
}

type RollParams struct {
	Address   string   `json:"address"`
	RollCount *FlexInt `json:"rollCount"`
	Fee       Amount   `json:"fee"`
}

func (p *RollParams) Validate() error {
	if strings.TrimSpace(p.Address) == "" {
		return missing("address")
	}

	if p.RollCount == nil {
		return missing("rollCount")
	}

	if *p.RollCount <= 0 {
		return invalid("rollCount", errNotPositive)
	}

	if p.Fee == "" {
		p.Fee = DefaultRollFee
	}

	return nil
}

type SecretKeyParams struct {
	SecretKey string `json:"secretKey"`
}

func (p *SecretKeyParams) Validate() error {
	if strings.TrimSpace(p.SecretKey) == "" {
		return missing("secretKey")
	}

	return nil
}

// SendOperationsParams carries signed operations untouched to the node.
type SendOperationsParams struct {
	Operations []json.RawMessage `json:"operations"`
}

func (p *SendOperationsParams) Validate() error {
	if p.Operations == nil {
		return missing("operations")
	}

	if len(p.Operations) == 0 {
		return invalid("operations", errEmptyArray)
	}

	return nil
}

type OperationIDsParams struct {
	OperationIDs []string `json:"operationIds"`
}

func (p *OperationIDsParams) Validate() error {
	return validateStringList("operationIds", p.OperationIDs)
}

type AddressListParams struct {
	Addresses []string `json:"addresses"`
}

func (p *AddressListParams) Validate() error {
	return validateStringList("addresses", p.Addresses)
}

func validateStringList(field string, values []string) error {
	if values == nil {
		return missing(field)
	}

	if len(values) == 0 {
		return invalid(field, errEmptyArray)
	}

	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return invalid(field, errBlankArrayItem)
		}
	}

	return nil
}

// Amount is a coin amount sent either as a JSON string or a JSON number.
// Numbers keep their literal text so no precision is lost.
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	switch {
	case bytes.Equal(b, []byte("null")):
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return invalid("fee", errNotAmount)
		}

		*a = Amount(strings.TrimSpace(s))

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return invalid("fee", errNotAmount)
	}

	*a = Amount(n.String())

	return nil
}

// FlexInt accepts a JSON integer or a string holding one.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	raw := string(bytes.Trim(bytes.TrimSpace(b), `"`))

	n, err := strconv.Atoi(raw)
	if err != nil {
		return invalid("rollCount", errNotInteger)
	}

	*f = FlexInt(n)

	return nil
}
