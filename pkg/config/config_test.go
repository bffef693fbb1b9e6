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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/massapay/massa-agent/pkg/logger"
	"github.com/massapay/massa-agent/pkg/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadBridgeConfig_JSONFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	path := writeFile(t, "agent.json", `{
		"node_host": "10.0.0.5",
		"bridge_port": 9000,
		"poll_interval": "2s",
		"private_api_password": "secret"
	}`)

	cfg, err := LoadBridgeConfig(context.Background(), logger.NewTestLogger(), path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5", cfg.NodeHost)
	assert.Equal(t, 9000, cfg.BridgePort)
	assert.Equal(t, models.Duration(2*time.Second), cfg.PollInterval)
	assert.Equal(t, "secret", cfg.PrivateAPIPassword)
	assert.Equal(t, models.DefaultCandidatePorts(), cfg.CandidatePorts)
}

func TestLoadBridgeConfig_YAMLFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "file")

	path := writeFile(t, "agent.yaml", `
node_host: 192.168.1.20
candidate_ports: [33035, 8080]
shutdown_grace: 500ms
nats:
  enabled: true
  url: nats://127.0.0.1:4222
  stream: massa-agent
logging:
  level: debug
`)

	cfg, err := LoadBridgeConfig(context.Background(), logger.NewTestLogger(), path)
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.20", cfg.NodeHost)
	assert.Equal(t, []int{33035, 8080}, cfg.CandidatePorts)
	assert.Equal(t, models.Duration(500*time.Millisecond), cfg.ShutdownGrace)
	require.NotNil(t, cfg.NATS)
	assert.Equal(t, "massa-agent", cfg.NATS.Stream)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 8765, cfg.BridgePort)
}

func TestLoadBridgeConfig_NoPathUsesDefaults(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	cfg, err := LoadBridgeConfig(context.Background(), logger.NewTestLogger(), "")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultBridgeConfig().NodeHost, cfg.NodeHost)
}

func TestLoadBridgeConfig_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	_, err := LoadBridgeConfig(context.Background(), logger.NewTestLogger(), filepath.Join(t.TempDir(), "none.json"))
	require.Error(t, err)
}

func TestLoadBridgeConfig_InvalidSource(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "kv")

	_, err := LoadBridgeConfig(context.Background(), logger.NewTestLogger(), "")
	require.ErrorIs(t, err, errInvalidConfigSource)
}

func TestLoadBridgeConfig_ValidationFailure(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	path := writeFile(t, "agent.json", `{"bridge_port": 0}`)

	_, err := LoadBridgeConfig(context.Background(), logger.NewTestLogger(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bridge_port")
}

func TestLoadBridgeConfig_Env(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("MASSA_AGENT_NODE_HOST", "172.16.0.9")
	t.Setenv("MASSA_AGENT_BRIDGE_PORT", "9100")
	t.Setenv("MASSA_AGENT_CANDIDATE_PORTS", "33035, 8545")
	t.Setenv("MASSA_AGENT_POLL_INTERVAL", "10s")
	t.Setenv("MASSA_AGENT_PRIVATE_API_PASSWORD", "pw")
	t.Setenv("MASSA_AGENT_LOGGING_LEVEL", "warn")

	cfg, err := LoadBridgeConfig(context.Background(), logger.NewTestLogger(), "")
	require.NoError(t, err)

	assert.Equal(t, "172.16.0.9", cfg.NodeHost)
	assert.Equal(t, 9100, cfg.BridgePort)
	assert.Equal(t, []int{33035, 8545}, cfg.CandidatePorts)
	assert.Equal(t, models.Duration(10*time.Second), cfg.PollInterval)
	assert.Equal(t, "pw", cfg.PrivateAPIPassword)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Nil(t, cfg.NATS)
}

func TestLoadBridgeConfig_EnvJSONDocument(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("CONFIG_ENV_PREFIX", "AGENT_")
	t.Setenv("AGENT_CONFIG_JSON", `{"node_host": "node.lan", "max_sessions": 4}`)

	cfg, err := LoadBridgeConfig(context.Background(), logger.NewTestLogger(), "")
	require.NoError(t, err)

	assert.Equal(t, "node.lan", cfg.NodeHost)
	assert.Equal(t, 4, cfg.MaxSessions)
}

func TestEnvConfigLoader_RejectsNonPointer(t *testing.T) {
	loader := NewEnvConfigLoader(logger.NewTestLogger(), "X_UNUSED_")

	require.ErrorIs(t, loader.Load(context.Background(), "", models.BridgeConfig{}), ErrDstMustBeNonNilPointer)

	var n int
	require.ErrorIs(t, loader.Load(context.Background(), "", &n), ErrDstMustBePointerToStruct)
}
