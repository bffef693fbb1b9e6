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
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/massapay/massa-agent/pkg/eventbus"
	"github.com/massapay/massa-agent/pkg/models"
	"github.com/massapay/massa-agent/pkg/protocol"
	"github.com/massapay/massa-agent/pkg/session"
)

// handleBridge upgrades the request, registers a session and serves its
// frames until the peer goes away. Requests of one session run in order on
// a subpool of the shared worker pool.
func (s *Server) handleBridge(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Failed to upgrade bridge connection")

		return
	}

	if !s.track() {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, closeReasonShutdown)
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()

		return
	}
	defer s.conns.Done()

	id := uuid.NewString()
	transport := session.NewWSTransport(conn, defaultWriteTimeout)

	if err := s.registry.Register(id, transport); err != nil {
		s.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Rejecting bridge session")
		_ = transport.Close(websocket.CloseTryAgainLater, closeReasonFull)

		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.sessions.Add(ctx, 1)
	defer s.sessions.Add(context.Background(), -1)

	s.logger.Info().Str("session_id", id).Str("remote_addr", transport.RemoteAddr()).Msg("Bridge session opened")

	s.serveSession(ctx, cancel, id, conn, transport)
}

func (s *Server) serveSession(
	ctx context.Context, cancel context.CancelFunc, id string, conn *websocket.Conn, transport *session.WSTransport,
) {
	tasks := s.pool.NewSubpool(1)

	defer func() {
		cancel()
		tasks.StopAndWait()
		_ = transport.Abort()
		s.endSession(id)
	}()

	for {
		messageType, frame, err := conn.ReadMessage()
		if err != nil {
			s.logReadError(id, err)

			return
		}

		if messageType != websocket.TextMessage {
			s.logger.Debug().Str("session_id", id).Int("type", messageType).Msg("Ignoring non-text frame")

			continue
		}

		tasks.Submit(func() {
			s.handleFrame(ctx, id, transport, frame)
		})
	}
}

func (s *Server) handleFrame(ctx context.Context, id string, transport session.Transport, frame []byte) {
	resp := s.dispatcher.Handle(ctx, id, frame)

	out, err := protocol.EncodeResponse(resp)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", id).Msg("Failed to encode response")

		return
	}

	if err := transport.Send(out); err != nil {
		s.logger.Debug().Err(err).Str("session_id", id).Msg("Failed to send response")
	}
}

func (s *Server) logReadError(id string, err error) {
	var closeErr *websocket.CloseError

	switch {
	case errors.As(err, &closeErr):
		s.logger.Info().
			Str("session_id", id).
			Int("close_code", closeErr.Code).
			Str("close_text", closeErr.Text).
			Msg("Bridge session closed")
	case errors.Is(err, websocket.ErrCloseSent):
		s.logger.Info().Str("session_id", id).Msg("Bridge session closed by server")
	default:
		s.logger.Debug().Err(err).Str("session_id", id).Msg("Bridge session ended")
	}
}

// endSession removes the session and, if a device was bound to it, drops
// the device from the state and announces the disconnect. A session
// already removed by DisconnectDevice reports nothing here.
func (s *Server) endSession(id string) {
	device, ok := s.registry.Remove(id)
	if !ok {
		return
	}

	s.forgetDevice(device)
}

func (s *Server) forgetDevice(device models.Device) {
	s.store.Update(func(st models.ServerState) models.ServerState {
		return st.WithoutDevice(device.ID)
	})

	s.logger.Info().Str("device_id", device.ID).Str("device_name", device.Name).Msg("Device disconnected")
	s.bus.Publish(eventbus.DeviceDisconnected{Device: device})
}

// DisconnectDevice tells the session its device is being dropped, removes
// it and closes the socket normally.
func (s *Server) DisconnectDevice(id string) error {
	transport, hasSession := s.registry.Transport(id)
	device, bound := s.registry.Remove(id)

	if !hasSession && !bound {
		return session.ErrSessionNotFound
	}

	if hasSession {
		frame, err := protocol.EncodeEvent(protocol.Event{
			Type: protocol.EventDisconnected,
			Data: map[string]string{"reason": closeReasonServer},
		})
		if err == nil {
			_ = transport.Send(frame)
		}

		if err := transport.Close(websocket.CloseNormalClosure, closeReasonServer); err != nil {
			s.logger.Debug().Err(err).Str("session_id", id).Msg("Session close failed")
		}
	}

	if bound {
		s.forgetDevice(device)
	}

	return nil
}

// DisconnectAllDevices disconnects every session that has a device and
// returns how many were dropped.
func (s *Server) DisconnectAllDevices() int {
	count := 0

	for _, id := range s.registry.DeviceIDs() {
		if err := s.DisconnectDevice(id); err == nil {
			count++
		}
	}

	return count
}

// ConnectedDevices returns the devices currently bound to sessions.
func (s *Server) ConnectedDevices() []models.Device {
	return s.store.Snapshot().ConnectedDevices
}
