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

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	t.Setenv("CONFIG_SOURCE", "")

	var out, errOut bytes.Buffer

	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())

	return out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "agent.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func statusNode(t *testing.T) int {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64 `json:"id"`
			Method string `json:"method"`
		}

		_ = json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if req.Method == "get_status" {
			resp["result"] = map[string]interface{}{
				"version":         "DEVN.28.3",
				"current_cycle":   7,
				"connected_nodes": map[string]interface{}{"P1": nil},
			}
		} else {
			resp["error"] = map[string]interface{}{"code": -32601, "message": "Method not found"}
		}

		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	return srv.Listener.Addr().(*net.TCPAddr).Port
}

func closedPort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	return port
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)

	assert.Contains(t, out, "massa-agent")
	assert.Contains(t, out, "protocol: 1.0.0")
}

func TestVersionCommandJSON(t *testing.T) {
	out, err := runCommand(t, "version", "--json")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))

	assert.Equal(t, "1.0.0", info["protocol"])
	assert.Equal(t, "dev", info["version"])
	assert.NotEmpty(t, info["go"])
}

func TestPairingPlainPrintsJSON(t *testing.T) {
	path := writeConfig(t, `{"listen_host": "10.0.0.4", "bridge_port": 9001}`)

	out, err := runCommand(t, "pairing", "--plain", "--config", path)
	require.NoError(t, err)

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &data))

	assert.Equal(t, "massa-agent", data["type"])
	assert.Equal(t, "10.0.0.4", data["host"])
	assert.InDelta(t, 9001, data["port"], 0)
	assert.NotEmpty(t, data["sessionId"])
}

func TestPairingCopyWritesClipboard(t *testing.T) {
	var copied string

	prev := writeClipboard
	writeClipboard = func(s string) error {
		copied = s

		return nil
	}

	t.Cleanup(func() { writeClipboard = prev })

	path := writeConfig(t, `{"listen_host": "10.0.0.4"}`)

	out, err := runCommand(t, "pairing", "--copy", "--config", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Pairing data copied to clipboard!")
	assert.Contains(t, out, "10.0.0.4")
	assert.Contains(t, copied, `"type":"massa-agent"`)
}

func TestPairingCopyFailure(t *testing.T) {
	prev := writeClipboard
	writeClipboard = func(string) error { return fmt.Errorf("no clipboard") }

	t.Cleanup(func() { writeClipboard = prev })

	_, err := runCommand(t, "pairing", "--copy", "--plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no clipboard")
}

func TestProbeReportsDetectedEndpoint(t *testing.T) {
	closed := closedPort(t)
	open := statusNode(t)

	path := writeConfig(t, fmt.Sprintf(`{"node_host": "127.0.0.1", "candidate_ports": [%d, %d]}`, closed, open))

	out, err := runCommand(t, "probe", "--config", path)
	require.NoError(t, err)

	assert.Contains(t, out, strconv.Itoa(closed))
	assert.Contains(t, out, strconv.Itoa(open))
	assert.Contains(t, out, "unreachable")
	assert.Contains(t, out, "accepted")
	assert.Contains(t, out, "DEVN.28.3")
}

func TestProbeFailsWithoutNode(t *testing.T) {
	path := writeConfig(t, fmt.Sprintf(`{"node_host": "127.0.0.1", "candidate_ports": [%d]}`, closedPort(t)))

	out, err := runCommand(t, "probe", "--config", path, "--timeout", "3s")
	require.Error(t, err)
	assert.Contains(t, out, "unreachable")
}

func TestRootRejectsUnknownCommand(t *testing.T) {
	_, err := runCommand(t, "teleport")
	require.Error(t, err)
}
