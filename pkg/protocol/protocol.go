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

// Package protocol implements the bridge WebSocket envelope: requests from
// the mobile app, responses to them, and pushed events.
package protocol

import (
	"bytes"
	"encoding/json"
	"strings"
)

// SentinelID is the response id used when the request id could not be read.
const SentinelID = "error"

// Event types pushed to sessions.
const (
	EventConnected          = "connected"
	EventDisconnected       = "disconnected"
	EventNodeStatusChanged  = "node_status_changed"
	EventStakingUpdate      = "staking_update"
	EventOperationConfirmed = "operation_confirmed"
	EventError              = "error"
)

// Request is a method call from the mobile app. Params stays raw until
// BindParams decodes it against the method's schema.
type Request struct {
	ID     string
	Method string
	Params json.RawMessage
}

type wireRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// Response answers exactly one Request. Result is set on success and Error
// on failure; both keys are always present on the wire.
type Response struct {
	ID      string      `json:"id"`
	Success bool        `json:"success"`
	Result  interface{} `json:"result"`
	Error   string      `json:"error"`
}

type wireResponse struct {
	ID      string      `json:"id"`
	Success bool        `json:"success"`
	Result  interface{} `json:"result"`
	Error   *string     `json:"error"`
}

// Event is pushed to sessions without a preceding request.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Decode parses one text frame. Unknown fields are ignored; a missing
// params member decodes as an empty object.
func Decode(frame []byte) (*Request, error) {
	trimmed := bytes.TrimSpace(frame)
	if len(trimmed) == 0 {
		return nil, &DecodeError{Err: errEmptyFrame}
	}

	var wire wireRequest
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, &DecodeError{Err: err}
	}

	id, err := decodeID(wire.ID)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	if strings.TrimSpace(wire.Method) == "" {
		return nil, &DecodeError{Err: errMissingMethod}
	}

	params := bytes.TrimSpace(wire.Params)
	if len(params) == 0 || bytes.Equal(params, []byte("null")) {
		params = json.RawMessage("{}")
	} else if params[0] != '{' {
		return nil, &DecodeError{Err: errParamsNotMap}
	}

	return &Request{ID: id, Method: wire.Method, Params: params}, nil
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errMissingID
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", errMissingID
		}

		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}

	return "", errInvalidID
}

// Success builds a successful response. A nil result is sent as an empty object.
func Success(id string, result interface{}) Response {
	if result == nil {
		result = struct{}{}
	}

	return Response{ID: id, Success: true, Result: result}
}

// Failure builds a failed response carrying msg.
func Failure(id, msg string) Response {
	return Response{ID: id, Success: false, Error: msg}
}

// MarshalJSON keeps exactly one of result and error non-null.
func (r Response) MarshalJSON() ([]byte, error) {
	wire := wireResponse{ID: r.ID, Success: r.Success}

	if r.Success {
		wire.Result = r.Result
	} else {
		msg := r.Error
		wire.Error = &msg
	}

	return json.Marshal(wire)
}

// EncodeResponse serializes a response frame.
func EncodeResponse(r Response) ([]byte, error) {
	return json.Marshal(r)
}

// EncodeEvent serializes an event frame. Nil data becomes an empty object.
func EncodeEvent(e Event) ([]byte, error) {
	if e.Data == nil {
		e.Data = struct{}{}
	}

	return json.Marshal(e)
}
