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

package logger

import "github.com/rs/zerolog"

// Logger is the logging surface handed to every agent component. Components
// never reach for a global logger.
type Logger interface {
	Trace() *zerolog.Event
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
	Fatal() *zerolog.Event
	Panic() *zerolog.Event
	With() zerolog.Context
	WithComponent(component string) zerolog.Logger
	WithFields(fields map[string]interface{}) zerolog.Logger
	SetLevel(level zerolog.Level)
	SetDebug(debug bool)
}

// NewTestLogger returns a Logger that drops everything.
func NewTestLogger() Logger {
	return nopLogger{}
}

// nopLogger hands out nil events; zerolog treats every call on them as a no-op.
type nopLogger struct{}

func (nopLogger) Trace() *zerolog.Event { return nil }
func (nopLogger) Debug() *zerolog.Event { return nil }
func (nopLogger) Info() *zerolog.Event  { return nil }
func (nopLogger) Warn() *zerolog.Event  { return nil }
func (nopLogger) Error() *zerolog.Event { return nil }
func (nopLogger) Fatal() *zerolog.Event { return nil }
func (nopLogger) Panic() *zerolog.Event { return nil }

func (nopLogger) With() zerolog.Context { return zerolog.Nop().With() }

func (nopLogger) WithComponent(string) zerolog.Logger { return zerolog.Nop() }

func (nopLogger) WithFields(map[string]interface{}) zerolog.Logger { return zerolog.Nop() }

func (nopLogger) SetLevel(zerolog.Level) {}
func (nopLogger) SetDebug(bool)          {}
