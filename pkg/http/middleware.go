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

// Package http holds the middleware shared by the bridge HTTP routes.
package http

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/massapay/massa-agent/pkg/logger"
)

var errHijackUnsupported = errors.New("response writer does not support hijacking")

// statusRecorder remembers the status code written by the wrapped handler.
// It forwards Hijack so WebSocket upgrades keep working behind it.
type statusRecorder struct {
	http.ResponseWriter
	status int
	hijack bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}

	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}

	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errHijackUnsupported
	}

	conn, rw, err := h.Hijack()
	if err == nil {
		r.hijack = true
		r.status = http.StatusSwitchingProtocols
	}

	return conn, rw, err
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// RequestLogger logs one line per request once the handler returns. For
// upgraded connections that is when the socket is released.
func RequestLogger(log logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}

			log.Debug().
				Str("remote_addr", r.RemoteAddr).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Bool("upgraded", rec.hijack).
				Dur("duration", time.Since(start)).
				Msg("HTTP request handled")
		})
	}
}

// Recoverer turns a handler panic into a 500 and an error log line instead
// of tearing down the connection.
func Recoverer(log logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}

			defer func() {
				p := recover()
				if p == nil {
					return
				}

				if p == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
					panic(p)
				}

				log.Error().
					Interface("panic", p).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("Recovered from handler panic")

				if rec.status == 0 && !rec.hijack {
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
