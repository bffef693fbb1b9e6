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

package bridge

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/massapay/massa-agent/pkg/eventbus"
	"github.com/massapay/massa-agent/pkg/logger"
	"github.com/massapay/massa-agent/pkg/models"
	"github.com/massapay/massa-agent/pkg/protocol"
	"github.com/massapay/massa-agent/pkg/version"
)

const waitFor = 3 * time.Second

// fakeNode answers get_status so the node looks reachable.
type fakeNode struct {
	srv   *httptest.Server
	mu    sync.Mutex
	calls []string
}

func newFakeNode(t *testing.T) *fakeNode {
	t.Helper()

	n := &fakeNode{}
	n.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64 `json:"id"`
			Method string `json:"method"`
		}

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)

			return
		}

		n.mu.Lock()
		n.calls = append(n.calls, req.Method)
		n.mu.Unlock()

		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}

		switch req.Method {
		case "get_status":
			resp["result"] = map[string]interface{}{
				"version":         "DEVN.28.3",
				"current_cycle":   42,
				"current_period":  5376,
				"connected_nodes": map[string]interface{}{"P1": []interface{}{}, "P2": []interface{}{}},
				"config":          map[string]interface{}{"genesis_timestamp": 1704289800000},
			}
		default:
			resp["error"] = map[string]interface{}{"code": -32601, "message": "Method not found"}
		}

		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(n.srv.Close)

	return n
}

func (n *fakeNode) port(t *testing.T) int {
	t.Helper()

	return portOf(t, n.srv.Listener.Addr())
}

func portOf(t *testing.T, addr net.Addr) int {
	t.Helper()

	_, p, err := net.SplitHostPort(addr.String())
	require.NoError(t, err)

	port, err := strconv.Atoi(p)
	require.NoError(t, err)

	return port
}

func testConfig(t *testing.T, nodePort int) *models.BridgeConfig {
	t.Helper()

	cfg := models.DefaultBridgeConfig()
	cfg.ListenHost = "127.0.0.1"
	cfg.BridgePort = 0
	cfg.CandidatePorts = []int{nodePort}
	cfg.PrivateAPIPort = nodePort
	cfg.MaxSessions = 8
	cfg.ShutdownGrace = models.Duration(200 * time.Millisecond)
	cfg.ShutdownTimeout = models.Duration(500 * time.Millisecond)

	return cfg
}

func newTestServer(t *testing.T, cfg *models.BridgeConfig) *Server {
	t.Helper()

	s, err := New(context.Background(), cfg, logger.NewTestLogger(),
		WithHostDiscovery(func() string { return "192.168.1.50" }))
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close(context.Background()) })

	return s
}

func startServer(t *testing.T) (*Server, *eventbus.Subscription) {
	t.Helper()

	node := newFakeNode(t)
	s := newTestServer(t, testConfig(t, node.port(t)))
	events := s.Events(128)

	require.NoError(t, s.Start(context.Background()))

	return s, events
}

func dial(t *testing.T, s *Server, path string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+s.Addr().String()+path, nil)
	require.NoError(t, err)

	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

// call sends a request and returns its response, skipping pushed events.
func call(t *testing.T, conn *websocket.Conn, id, method string, params interface{}) map[string]interface{} {
	t.Helper()

	req := map[string]interface{}{"id": id, "method": method}
	if params != nil {
		req["params"] = params
	}

	require.NoError(t, conn.WriteJSON(req))

	for {
		frame := readFrame(t, conn)
		if frame["id"] == id {
			return frame
		}
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &frame))

	return frame
}

func connectDevice(t *testing.T, conn *websocket.Conn, name string) string {
	t.Helper()

	resp := call(t, conn, "c-"+name, protocol.MethodConnect, map[string]string{
		"deviceName": name,
		"platform":   "android",
	})
	require.Equal(t, true, resp["success"], resp["error"])

	result, ok := resp["result"].(map[string]interface{})
	require.True(t, ok)

	id, ok := result["sessionId"].(string)
	require.True(t, ok)

	return id
}

// nextEvent returns the next lifecycle event of the given kind.
func nextEvent(t *testing.T, sub *eventbus.Subscription, kind eventbus.Kind) eventbus.Event {
	t.Helper()

	timeout := time.After(waitFor)

	for {
		select {
		case ev, ok := <-sub.C():
			require.True(t, ok, "subscription closed while waiting for %s", kind)

			if ev.Kind() == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %s event within %s", kind, waitFor)

			return nil
		}
	}
}

// countKind drains sub for d and counts events of kind.
func countKind(sub *eventbus.Subscription, kind eventbus.Kind, d time.Duration) int {
	timeout := time.After(d)
	count := 0

	for {
		select {
		case ev, ok := <-sub.C():
			if !ok {
				return count
			}

			if ev.Kind() == kind {
				count++
			}
		case <-timeout:
			return count
		}
	}
}

func TestStartIsIdempotent(t *testing.T) {
	s, events := startServer(t)

	started, ok := nextEvent(t, events, eventbus.KindStarted).(eventbus.Started)
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1", started.Host)
	assert.Equal(t, portOf(t, s.Addr()), started.Port)

	require.NoError(t, s.Start(context.Background()))
	assert.Zero(t, countKind(events, eventbus.KindStarted, 100*time.Millisecond))

	st := s.State()
	assert.True(t, st.Running)
	assert.Equal(t, started.Port, st.Port)
	assert.True(t, s.Running())
}

func TestStopPublishesStoppedOnce(t *testing.T) {
	s, events := startServer(t)

	require.NoError(t, s.Stop(context.Background()))
	nextEvent(t, events, eventbus.KindStopped)

	require.NoError(t, s.Stop(context.Background()))
	assert.Zero(t, countKind(events, eventbus.KindStopped, 100*time.Millisecond))

	assert.False(t, s.State().Running)
	assert.False(t, s.Running())
	assert.Nil(t, s.Addr())
}

func TestStopCancelsHungNodePoll(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})

	node := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case entered <- struct{}{}:
		default:
		}

		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(node.Close)
	t.Cleanup(func() { close(release) })

	cfg := testConfig(t, portOf(t, node.Listener.Addr()))
	cfg.RequestTimeout = models.Duration(4 * time.Second)

	s := newTestServer(t, cfg)
	events := s.Events(16)

	require.NoError(t, s.Start(context.Background()))

	select {
	case <-entered:
	case <-time.After(waitFor):
		t.Fatal("poller never reached the node")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, s.Stop(ctx))
	assert.Less(t, time.Since(start), 2*time.Second)

	nextEvent(t, events, eventbus.KindStopped)
	assert.False(t, s.State().NodeConnected)
}

func TestStartFailurePublishesFailure(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	defer busy.Close()

	node := newFakeNode(t)
	cfg := testConfig(t, node.port(t))
	cfg.BridgePort = portOf(t, busy.Addr())

	s := newTestServer(t, cfg)
	events := s.Events(16)

	require.Error(t, s.Start(context.Background()))

	failure, ok := nextEvent(t, events, eventbus.KindFailure).(eventbus.Failure)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(failure.Message, "Failed to start server: "), failure.Message)
	assert.False(t, s.State().Running)
}

func TestHealthOverWebSocket(t *testing.T) {
	s, _ := startServer(t)

	conn := dial(t, s, "/health")

	frame := readFrame(t, conn)
	assert.Equal(t, "ok", frame["status"])
	assert.Equal(t, version.ProtocolVersion, frame["version"])

	_, _, err := conn.ReadMessage()

	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
	assert.Equal(t, healthCloseReason, closeErr.Text)
}

func TestHealthOverPlainHTTP(t *testing.T) {
	s, _ := startServer(t)

	resp, err := http.Get("http://" + s.Addr().String() + "/health")
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok","version":"1.0.0"}`, string(body))
}

func TestConnectThenDisconnect(t *testing.T) {
	s, events := startServer(t)
	conn := dial(t, s, "/bridge")

	id := connectDevice(t, conn, "pixel")

	connected, ok := nextEvent(t, events, eventbus.KindDeviceConnected).(eventbus.DeviceConnected)
	require.True(t, ok)
	assert.Equal(t, id, connected.Device.ID)

	devices := s.ConnectedDevices()
	require.Len(t, devices, 1)
	assert.Equal(t, "pixel", devices[0].Name)

	resp := call(t, conn, "d1", protocol.MethodDisconnect, nil)
	require.Equal(t, true, resp["success"])
	assert.Equal(t, map[string]interface{}{"disconnected": true}, resp["result"])

	disconnected, ok := nextEvent(t, events, eventbus.KindDeviceDisconnected).(eventbus.DeviceDisconnected)
	require.True(t, ok)
	assert.Equal(t, id, disconnected.Device.ID)
	assert.Empty(t, s.ConnectedDevices())

	ping := call(t, conn, "p1", protocol.MethodPing, nil)
	assert.Equal(t, true, ping["success"])

	require.NoError(t, conn.Close())
	assert.Zero(t, countKind(events, eventbus.KindDeviceDisconnected, 200*time.Millisecond))
}

func TestTransportCloseDisconnectsDeviceOnce(t *testing.T) {
	s, events := startServer(t)
	conn := dial(t, s, "/bridge")

	id := connectDevice(t, conn, "iphone")
	nextEvent(t, events, eventbus.KindDeviceConnected)

	require.NoError(t, conn.Close())

	ev, ok := nextEvent(t, events, eventbus.KindDeviceDisconnected).(eventbus.DeviceDisconnected)
	require.True(t, ok)
	assert.Equal(t, id, ev.Device.ID)

	assert.Zero(t, countKind(events, eventbus.KindDeviceDisconnected, 200*time.Millisecond))
	assert.Empty(t, s.ConnectedDevices())
}

func TestUnknownMethodKeepsSessionOpen(t *testing.T) {
	s, _ := startServer(t)
	conn := dial(t, s, "/bridge")

	resp := call(t, conn, "u1", "teleport", nil)
	assert.Equal(t, false, resp["success"])
	assert.Contains(t, resp["error"], "teleport")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	for {
		frame := readFrame(t, conn)
		if frame["id"] == protocol.SentinelID {
			assert.Equal(t, false, frame["success"])

			break
		}
	}

	ping := call(t, conn, "p1", protocol.MethodPing, nil)
	assert.Equal(t, true, ping["success"])
}

func TestDisconnectAllDevices(t *testing.T) {
	s, events := startServer(t)

	assert.Zero(t, s.DisconnectAllDevices())

	first := dial(t, s, "/bridge")
	second := dial(t, s, "/bridge")

	connectDevice(t, first, "tablet")
	connectDevice(t, second, "phone")

	nextEvent(t, events, eventbus.KindDeviceConnected)
	nextEvent(t, events, eventbus.KindDeviceConnected)

	assert.Equal(t, 2, s.DisconnectAllDevices())
	assert.Empty(t, s.ConnectedDevices())

	for _, conn := range []*websocket.Conn{first, second} {
		for {
			require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))

			_, data, err := conn.ReadMessage()
			if err != nil {
				var closeErr *websocket.CloseError
				require.ErrorAs(t, err, &closeErr)
				assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
				assert.Equal(t, closeReasonServer, closeErr.Text)

				break
			}

			var ev protocol.Event
			require.NoError(t, json.Unmarshal(data, &ev))

			if ev.Type != protocol.EventNodeStatusChanged {
				assert.Equal(t, protocol.EventDisconnected, ev.Type)
			}
		}
	}

	assert.Equal(t, 2, countKind(events, eventbus.KindDeviceDisconnected, 300*time.Millisecond))
}

func TestDisconnectUnknownDevice(t *testing.T) {
	s, _ := startServer(t)

	require.Error(t, s.DisconnectDevice("missing"))
}

func TestSessionCapRejectsWithTryAgainLater(t *testing.T) {
	node := newFakeNode(t)
	cfg := testConfig(t, node.port(t))
	cfg.MaxSessions = 1

	s := newTestServer(t, cfg)
	require.NoError(t, s.Start(context.Background()))

	first := dial(t, s, "/bridge")
	ping := call(t, first, "p1", protocol.MethodPing, nil)
	require.Equal(t, true, ping["success"])

	second := dial(t, s, "/bridge")
	require.NoError(t, second.SetReadDeadline(time.Now().Add(waitFor)))

	_, _, err := second.ReadMessage()

	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseTryAgainLater, closeErr.Code)
}

func TestStopClosesOpenSessions(t *testing.T) {
	s, events := startServer(t)
	conn := dial(t, s, "/bridge")

	connectDevice(t, conn, "pixel")
	nextEvent(t, events, eventbus.KindDeviceConnected)

	require.NoError(t, s.Stop(context.Background()))

	nextEvent(t, events, eventbus.KindDeviceDisconnected)
	nextEvent(t, events, eventbus.KindStopped)
	assert.Empty(t, s.ConnectedDevices())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func TestPollerReportsNodeReachable(t *testing.T) {
	s, events := startServer(t)

	changed, ok := nextEvent(t, events, eventbus.KindNodeStatusChanged).(eventbus.NodeStatusChanged)
	require.True(t, ok)
	assert.True(t, changed.Connected)

	require.Eventually(t, func() bool {
		st := s.State()

		return st.NodeConnected && st.NodeStatus != nil
	}, waitFor, 10*time.Millisecond)
}

func TestGeneratePairingData(t *testing.T) {
	node := newFakeNode(t)
	s := newTestServer(t, testConfig(t, node.port(t)))

	idle := s.GeneratePairingData()
	assert.Equal(t, models.PairingType, idle.Type)
	assert.Equal(t, version.ProtocolVersion, idle.Version)
	assert.Equal(t, "127.0.0.1", idle.Host)
	assert.True(t, strings.HasPrefix(idle.PublicKey, "pk_"))
	assert.NotEmpty(t, idle.SessionID)

	require.NoError(t, s.Start(context.Background()))

	running := s.GeneratePairingData()
	assert.Equal(t, portOf(t, s.Addr()), running.Port)
	assert.NotEqual(t, idle.SessionID, running.SessionID)
}

func TestUpdateNodeConfig(t *testing.T) {
	node := newFakeNode(t)
	s := newTestServer(t, testConfig(t, node.port(t)))

	s.UpdateNodeConfig("10.0.0.7", 33035)

	st := s.State()
	assert.Equal(t, "10.0.0.7", st.NodeHost)
	assert.Equal(t, 33035, st.NodePort)
	assert.Equal(t, "10.0.0.7", s.Node().Host())

	_, detected := s.Node().DetectedEndpoint()
	assert.False(t, detected)
}

func TestNewRejectsNilConfig(t *testing.T) {
	_, err := New(context.Background(), nil, logger.NewTestLogger())
	require.ErrorIs(t, err, errNilConfig)
}

func TestNewPairingData(t *testing.T) {
	now := time.UnixMilli(1740830400000)

	data := NewPairingData("192.168.1.5", 8765, now)
	assert.Equal(t, "pk_1740830400000", data.PublicKey)
	assert.Equal(t, 8765, data.Port)
	assert.Equal(t, "192.168.1.5", data.Host)

	raw, err := json.Marshal(data)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "massa-agent", decoded["type"])
	assert.Equal(t, "1.0.0", decoded["version"])
	assert.Contains(t, decoded, "sessionId")
	assert.Contains(t, decoded, "publicKey")
}

func TestPairingDataForUsesConfiguredHost(t *testing.T) {
	cfg := models.DefaultBridgeConfig()
	cfg.ListenHost = "10.1.2.3"
	cfg.BridgePort = 9000

	data := PairingDataFor(cfg)
	assert.Equal(t, "10.1.2.3", data.Host)
	assert.Equal(t, 9000, data.Port)
}
