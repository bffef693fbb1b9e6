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

// Package natsutil mirrors bridge lifecycle events to a NATS JetStream
// stream as CloudEvents.
package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/massapay/massa-agent/pkg/eventbus"
	"github.com/massapay/massa-agent/pkg/logger"
	"github.com/massapay/massa-agent/pkg/models"
)

const (
	DefaultStream      = "MASSA_AGENT_EVENTS"
	DefaultSubject     = "massa.agent.events"
	cloudEventTypeBase = "com.massapay.agent."
)

var errNilConfig = errors.New("nats config is nil")

// EventPublisher implements eventbus.Sink on top of JetStream.
type EventPublisher struct {
	js      jetstream.JetStream
	stream  string
	subject string
	now     func() time.Time
}

// NewEventPublisher creates a publisher writing under subject.<kind>.
func NewEventPublisher(js jetstream.JetStream, stream, subject string) *EventPublisher {
	return &EventPublisher{js: js, stream: stream, subject: subject, now: time.Now}
}

// SubjectFor returns the subject an event kind is published on.
func (p *EventPublisher) SubjectFor(kind eventbus.Kind) string {
	return p.subject + "." + string(kind)
}

// Publish wraps ev in a CloudEvent and waits for the JetStream ack.
func (p *EventPublisher) Publish(ctx context.Context, ev eventbus.Event) error {
	now := p.now().UTC()
	subject := p.SubjectFor(ev.Kind())

	event := models.CloudEvent{
		SpecVersion:     models.CloudEventSpecVersion,
		ID:              uuid.New().String(),
		Source:          models.CloudEventSource,
		Type:            cloudEventTypeBase + string(ev.Kind()),
		DataContentType: "application/json",
		Subject:         subject,
		Time:            &now,
		Data:            ev,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", ev.Kind(), err)
	}

	if _, err := p.js.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", ev.Kind(), err)
	}

	return nil
}

// Connect dials NATS, ensures the stream exists and returns a publisher.
// The caller owns the returned connection.
func Connect(ctx context.Context, cfg *models.NATSConfig, log logger.Logger) (*EventPublisher, *nats.Conn, error) {
	if cfg == nil {
		return nil, nil, errNilConfig
	}

	stream := cfg.Stream
	if stream == "" {
		stream = DefaultStream
	}

	subject := strings.TrimSuffix(cfg.Subject, ".")
	if subject == "" {
		subject = DefaultSubject
	}

	opts := []nats.Option{
		nats.Name(models.CloudEventSource),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Warn().Err(err).Msg("NATS error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	if cfg.Creds != "" {
		opts = append(opts, nats.UserCredentials(cfg.Creds))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()

		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if err := ensureStream(ctx, js, stream, subject+".>"); err != nil {
		nc.Close()

		return nil, nil, err
	}

	log.Info().Str("url", nc.ConnectedUrl()).Str("stream", stream).Str("subject", subject).Msg("Mirroring bridge events to NATS")

	return NewEventPublisher(js, stream, subject), nc, nil
}

func ensureStream(ctx context.Context, js jetstream.JetStream, name, subject string) error {
	stream, err := js.Stream(ctx, name)
	if err != nil {
		if !isStreamMissingErr(err) {
			return fmt.Errorf("failed to look up stream %s: %w", name, err)
		}

		_, err = js.CreateStream(ctx, jetstream.StreamConfig{Name: name, Subjects: []string{subject}})
		if err != nil {
			return fmt.Errorf("failed to create stream %s: %w", name, err)
		}

		return nil
	}

	cfg := stream.CachedInfo().Config
	subjects := ensureSubjectList(cfg.Subjects, subject)

	if len(subjects) == len(cfg.Subjects) {
		return nil
	}

	cfg.Subjects = subjects

	if _, err := js.UpdateStream(ctx, cfg); err != nil {
		return fmt.Errorf("failed to add %s to stream %s: %w", subject, name, err)
	}

	return nil
}

func isStreamMissingErr(err error) bool {
	return errors.Is(err, jetstream.ErrStreamNotFound) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrStreamNotFound) ||
		errors.Is(err, nats.ErrNoResponders)
}

// ensureSubjectList appends subject unless an existing pattern already covers it.
func ensureSubjectList(subjects []string, subject string) []string {
	for _, s := range subjects {
		if matchesSubject(s, subject) {
			return subjects
		}
	}

	return append(subjects, subject)
}

// matchesSubject reports whether pattern covers subject, honoring * and >.
// A pattern ending in > also covers an identical > subject.
func matchesSubject(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")

	for i, tok := range pt {
		if tok == ">" {
			return i < len(st)
		}

		if i >= len(st) {
			return false
		}

		if tok != "*" && tok != st[i] {
			return false
		}
	}

	return len(pt) == len(st)
}
