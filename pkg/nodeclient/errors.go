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
	"errors"
	"fmt"
)

// WrongAPICode is returned by a node port serving the other API flavor.
const WrongAPICode = -32019

var (
	// ErrNodeUnreachable means no candidate port answered get_status.
	ErrNodeUnreachable = errors.New("no massa node found")
	// ErrAPIMismatch means the cached port answered with WrongAPICode and was dropped.
	ErrAPIMismatch = errors.New("node API mismatch, please retry")
	// ErrMalformedResponse means the node replied with something other than JSON-RPC.
	ErrMalformedResponse = errors.New("malformed JSON-RPC response")
	// ErrAddressNotFound means get_addresses returned no entry for the address.
	ErrAddressNotFound = errors.New("address not found")
)

// RPCError is a JSON-RPC error object returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("node RPC error %d", e.Code)
	}

	return e.Message
}

// TransportError wraps a failed HTTP exchange with the node. It matches
// ErrNodeUnreachable under errors.Is.
type TransportError struct {
	Port int
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("node transport failure on port %d: %v", e.Port, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (*TransportError) Is(target error) bool {
	return target == ErrNodeUnreachable
}
