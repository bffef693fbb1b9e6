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

package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/massapay/massa-agent/pkg/lifecycle"
	"github.com/massapay/massa-agent/pkg/logger"
)

func captureLogger(buf *bytes.Buffer) logger.Logger {
	return lifecycle.NewLoggerFromZerolog(zerolog.New(buf).Level(zerolog.DebugLevel))
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()

	var lines []map[string]interface{}

	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(raw), &entry))

		lines = append(lines, entry)
	}

	return lines
}

func TestRequestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer

	handler := RequestLogger(captureLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	assert.Equal(t, http.StatusTeapot, rr.Code)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "/health", lines[0]["path"])
	assert.Equal(t, "GET", lines[0]["method"])
	assert.InDelta(t, float64(http.StatusTeapot), lines[0]["status"], 0)
	assert.Equal(t, false, lines[0]["upgraded"])
}

func TestRequestLoggerDefaultsToOK(t *testing.T) {
	var buf bytes.Buffer

	handler := RequestLogger(captureLogger(&buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.InDelta(t, float64(http.StatusOK), lines[0]["status"], 0)
}

func TestRecovererReturns500(t *testing.T) {
	var buf bytes.Buffer

	handler := Recoverer(captureLogger(&buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("handler exploded")
	}))

	rr := httptest.NewRecorder()

	require.NotPanics(t, func() {
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/bridge", http.NoBody))
	})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "handler exploded", lines[0]["panic"])
	assert.Equal(t, "error", lines[0]["level"])
}

func TestRecovererRepanicsOnAbortHandler(t *testing.T) {
	handler := Recoverer(logger.NewTestLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.Panics(t, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	})
}

func TestMiddlewareKeepsWebSocketUpgrade(t *testing.T) {
	var buf bytes.Buffer

	log := captureLogger(&buf)
	upgrader := websocket.Upgrader{}

	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}

		_ = conn.WriteMessage(mt, msg)
	})

	srv := httptest.NewServer(RequestLogger(log)(Recoverer(log)(echo)))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	defer conn.Close()
	defer resp.Body.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(msg))
}
