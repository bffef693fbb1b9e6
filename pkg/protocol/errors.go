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
	"errors"
	"fmt"
)

var (
	ErrUnknownMethod  = errors.New("unknown method")
	errEmptyFrame     = errors.New("empty frame")
	errMissingID      = errors.New("missing request id")
	errMissingMethod  = errors.New("missing request method")
	errInvalidID      = errors.New("request id must be a string or number")
	errParamsNotMap   = errors.New("params must be an object")
	errNotInteger     = errors.New("must be an integer")
	errNotPositive    = errors.New("must be a positive integer")
	errNotAmount      = errors.New("must be a string or number")
	errEmptyArray     = errors.New("must be a non-empty array")
	errBlankArrayItem = errors.New("must not contain empty values")
)

// DecodeError reports an inbound frame that is not a well-formed request.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "invalid request: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ValidationError names the request parameter that is missing or invalid.
type ValidationError struct {
	Field  string
	Reason error
}

func (e *ValidationError) Error() string {
	if e.Reason == nil {
		return "missing required parameter: " + e.Field
	}

	return fmt.Sprintf("invalid parameter %s: %v", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

func missing(field string) error {
	return &ValidationError{Field: field}
}

func invalid(field string, reason error) error {
	return &ValidationError{Field: field, Reason: reason}
}
