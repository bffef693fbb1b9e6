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

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBridgeConfig(t *testing.T) {
	cfg := DefaultBridgeConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "127.0.0.1", cfg.NodeHost)
	assert.Equal(t, 8765, cfg.BridgePort)
	assert.Equal(t, []int{33035, 33034, 8080, 8545}, cfg.CandidatePorts)
	assert.Equal(t, 33034, cfg.PrivateAPIPort)
	assert.Equal(t, Duration(time.Hour), cfg.SessionTimeout)
	assert.Equal(t, Duration(5*time.Second), cfg.PollInterval)
}

func TestBridgeConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BridgeConfig)
		err    error
	}{
		{name: "missing node host", mutate: func(c *BridgeConfig) { c.NodeHost = "" }, err: errNodeHostRequired},
		{name: "bad bridge port", mutate: func(c *BridgeConfig) { c.BridgePort = 70000 }, err: errInvalidPort},
		{name: "bad candidate port", mutate: func(c *BridgeConfig) { c.CandidatePorts = []int{33035, 0} }, err: errInvalidPort},
		{name: "no candidate ports", mutate: func(c *BridgeConfig) { c.CandidatePorts = nil }, err: errNoCandidatePorts},
		{name: "zero poll interval", mutate: func(c *BridgeConfig) { c.PollInterval = 0 }, err: errInvalidInterval},
		{name: "zero max sessions", mutate: func(c *BridgeConfig) { c.MaxSessions = 0 }, err: errInvalidMaxSessions},
		{
			name:   "nats without url",
			mutate: func(c *BridgeConfig) { c.NATS = &NATSConfig{Enabled: true} },
			err:    errNATSURLRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultBridgeConfig()
			tt.mutate(cfg)

			require.ErrorIs(t, cfg.Validate(), tt.err)
		})
	}
}

func TestFilterSensitiveFields(t *testing.T) {
	cfg := DefaultBridgeConfig()
	cfg.PrivateAPIPassword = "hunter2"
	cfg.NATS = &NATSConfig{Enabled: true, URL: "nats://127.0.0.1:4222", Creds: "/etc/creds"}

	filtered, err := FilterSensitiveFields(cfg)
	require.NoError(t, err)

	assert.NotContains(t, filtered, "private_api_password")
	assert.Equal(t, "127.0.0.1", filtered["node_host"])

	nats, ok := filtered["nats"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "nats://127.0.0.1:4222", nats["url"])
	assert.NotContains(t, nats, "creds_file")
}

func TestFilterSensitiveFields_NonStruct(t *testing.T) {
	_, err := FilterSensitiveFields("plain")
	require.ErrorIs(t, err, errNotStruct)

	empty, err := FilterSensitiveFields(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
