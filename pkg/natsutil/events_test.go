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

package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/massapay/massa-agent/pkg/eventbus"
	"github.com/massapay/massa-agent/pkg/logger"
	"github.com/massapay/massa-agent/pkg/models"
)

var errTestFixture = errors.New("fixture error")

func runJetStreamServer(t *testing.T) *server.Server {
	t.Helper()

	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
	}

	srv, err := server.NewServer(opts)
	require.NoError(t, err)

	go srv.Start()

	if !srv.ReadyForConnections(10 * time.Second) {
		srv.Shutdown()
		t.Fatalf("embedded NATS server not ready for connections")
	}

	require.Eventually(t, func() bool {
		return srv.JetStreamEnabled()
	}, 5*time.Second, 50*time.Millisecond, "embedded NATS server not ready for JetStream")

	t.Cleanup(srv.Shutdown)

	return srv
}

func TestPublishMirrorsEventAsCloudEvent(t *testing.T) {
	srv := runJetStreamServer(t)
	ctx := context.Background()

	publisher, nc, err := Connect(ctx, &models.NATSConfig{Enabled: true, URL: srv.ClientURL()}, logger.NewTestLogger())
	require.NoError(t, err)

	defer nc.Close()

	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	publisher.now = func() time.Time { return fixed }

	device := models.Device{ID: "s1", Name: "Pixel", Platform: "android", ConnectedAt: 1740830400000}
	require.NoError(t, publisher.Publish(ctx, eventbus.DeviceConnected{Device: device}))

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	stream, err := js.Stream(ctx, DefaultStream)
	require.NoError(t, err)

	msg, err := stream.GetLastMsgForSubject(ctx, DefaultSubject+".device_connected")
	require.NoError(t, err)

	var got struct {
		models.CloudEvent
		Data struct {
			Device models.Device `json:"device"`
		} `json:"data"`
	}

	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, "1.0", got.SpecVersion)
	assert.Equal(t, "massa-agent", got.Source)
	assert.Equal(t, "com.massapay.agent.device_connected", got.Type)
	assert.Equal(t, "massa.agent.events.device_connected", got.Subject)
	assert.NotEmpty(t, got.ID)
	require.NotNil(t, got.Time)
	assert.True(t, fixed.Equal(*got.Time))
	assert.Equal(t, device, got.Data.Device)
}

func TestConnectExtendsExistingStream(t *testing.T) {
	srv := runJetStreamServer(t)
	ctx := context.Background()

	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)

	defer nc.Close()

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{Name: "AGENT", Subjects: []string{"other.>"}})
	require.NoError(t, err)

	_, conn, err := Connect(ctx, &models.NATSConfig{URL: srv.ClientURL(), Stream: "AGENT", Subject: "agent.events"}, logger.NewTestLogger())
	require.NoError(t, err)

	defer conn.Close()

	stream, err := js.Stream(ctx, "AGENT")
	require.NoError(t, err)

	assert.Equal(t, []string{"other.>", "agent.events.>"}, stream.CachedInfo().Config.Subjects)
}

func TestConnectErrors(t *testing.T) {
	_, _, err := Connect(context.Background(), nil, logger.NewTestLogger())
	require.ErrorIs(t, err, errNilConfig)

	_, _, err = Connect(context.Background(), &models.NATSConfig{URL: "nats://127.0.0.1:1"}, logger.NewTestLogger())
	require.Error(t, err)
}

func TestEnsureSubjectList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		subjects []string
		subject  string
		want     []string
	}{
		{
			name:    "adds subject when list empty",
			subject: "massa.agent.events.>",
			want:    []string{"massa.agent.events.>"},
		},
		{
			name:     "keeps list when greater wildcard covers it",
			subjects: []string{"massa.>"},
			subject:  "massa.agent.events.>",
			want:     []string{"massa.>"},
		},
		{
			name:     "keeps list when identical",
			subjects: []string{"massa.agent.events.>"},
			subject:  "massa.agent.events.>",
			want:     []string{"massa.agent.events.>"},
		},
		{
			name:     "appends when unmatched",
			subjects: []string{"logs.syslog.*"},
			subject:  "massa.agent.events.>",
			want:     []string{"logs.syslog.*", "massa.agent.events.>"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ensureSubjectList(append([]string(nil), tc.subjects...), tc.subject)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMatchesSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pattern  string
		subject  string
		expected bool
	}{
		{"exact match", "massa.agent.events.stopped", "massa.agent.events.stopped", true},
		{"single wildcard", "massa.*.events.stopped", "massa.agent.events.stopped", true},
		{"greater wildcard", "massa.>", "massa.agent.events.stopped", true},
		{"no match length", "massa.*", "massa.agent.events", false},
		{"no match tokens", "logs.syslog.*", "massa.agent.events", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, matchesSubject(tc.pattern, tc.subject))
		})
	}
}

func TestIsStreamMissingErr(t *testing.T) {
	t.Parallel()

	assert.True(t, isStreamMissingErr(jetstream.ErrStreamNotFound))
	assert.True(t, isStreamMissingErr(nats.ErrNoResponders))
	assert.False(t, isStreamMissingErr(errTestFixture))
}
