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
	"errors"
	"fmt"
	"time"

	"github.com/massapay/massa-agent/pkg/logger"
)

// Duration accepts "5s" style strings or integer nanoseconds in config files.
type Duration = logger.Duration

const (
	DefaultNodeHost       = "127.0.0.1"
	DefaultNodeRPCPort    = 33034
	DefaultNodeGRPCPort   = 33035
	DefaultPrivateAPIPort = 33034
	DefaultBridgePort     = 8765
	DefaultMaxSessions    = 256
)

// DefaultCandidatePorts is the probe order for the public node API.
func DefaultCandidatePorts() []int {
	return []int{33035, 33034, 8080, 8545}
}

var (
	errNodeHostRequired   = errors.New("node_host is required")
	errInvalidPort        = errors.New("invalid port")
	errNoCandidatePorts   = errors.New("candidate_ports must not be empty")
	errInvalidInterval    = errors.New("poll_interval must be positive")
	errInvalidMaxSessions = errors.New("max_sessions must be positive")
	errNATSURLRequired    = errors.New("nats.url is required when nats is enabled")
)

// BridgeConfig is the configuration for a massa-agent instance.
type BridgeConfig struct {
	NodeHost           string         `json:"node_host" yaml:"node_host"`
	NodeRPCPort        int            `json:"node_rpc_port" yaml:"node_rpc_port"`
	NodeGRPCPort       int            `json:"node_grpc_port" yaml:"node_grpc_port"`
	CandidatePorts     []int          `json:"candidate_ports" yaml:"candidate_ports"`
	PrivateAPIPort     int            `json:"private_api_port" yaml:"private_api_port"`
	PrivateAPIPassword string         `json:"private_api_password" yaml:"private_api_password" sensitive:"true"`
	ListenHost         string         `json:"listen_host" yaml:"listen_host"`
	BridgePort         int            `json:"bridge_port" yaml:"bridge_port"`
	SessionTimeout     Duration       `json:"session_timeout" yaml:"session_timeout"`
	MaxSessions        int            `json:"max_sessions" yaml:"max_sessions"`
	PollInterval       Duration       `json:"poll_interval" yaml:"poll_interval"`
	ConnectTimeout     Duration       `json:"connect_timeout" yaml:"connect_timeout"`
	RequestTimeout     Duration       `json:"request_timeout" yaml:"request_timeout"`
	ShutdownGrace      Duration       `json:"shutdown_grace" yaml:"shutdown_grace"`
	ShutdownTimeout    Duration       `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	Logging            *logger.Config `json:"logging" yaml:"logging"`
	NATS               *NATSConfig    `json:"nats" yaml:"nats"`
}

// NATSConfig enables mirroring lifecycle events to a JetStream stream.
type NATSConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	URL     string `json:"url" yaml:"url"`
	Stream  string `json:"stream" yaml:"stream"`
	Subject string `json:"subject" yaml:"subject"`
	Creds   string `json:"creds_file" yaml:"creds_file" sensitive:"true"`
}

// DefaultBridgeConfig returns a config with every default filled in.
func DefaultBridgeConfig() *BridgeConfig {
	return &BridgeConfig{
		NodeHost:        DefaultNodeHost,
		NodeRPCPort:     DefaultNodeRPCPort,
		NodeGRPCPort:    DefaultNodeGRPCPort,
		CandidatePorts:  DefaultCandidatePorts(),
		PrivateAPIPort:  DefaultPrivateAPIPort,
		ListenHost:      "0.0.0.0",
		BridgePort:      DefaultBridgePort,
		SessionTimeout:  Duration(time.Hour),
		MaxSessions:     DefaultMaxSessions,
		PollInterval:    Duration(5 * time.Second),
		ConnectTimeout:  Duration(10 * time.Second),
		RequestTimeout:  Duration(30 * time.Second),
		ShutdownGrace:   Duration(time.Second),
		ShutdownTimeout: Duration(2 * time.Second),
		Logging:         logger.DefaultConfig(),
	}
}

// Validate implements config.Validator.
func (c *BridgeConfig) Validate() error {
	if c.NodeHost == "" {
		return errNodeHostRequired
	}

	for name, port := range map[string]int{
		"bridge_port":      c.BridgePort,
		"private_api_port": c.PrivateAPIPort,
	} {
		if !validPort(port) {
			return fmt.Errorf("%w: %s=%d", errInvalidPort, name, port)
		}
	}

	if len(c.CandidatePorts) == 0 {
		return errNoCandidatePorts
	}

	for _, port := range c.CandidatePorts {
		if !validPort(port) {
			return fmt.Errorf("%w: candidate_ports contains %d", errInvalidPort, port)
		}
	}

	if c.PollInterval <= 0 {
		return errInvalidInterval
	}

	if c.MaxSessions <= 0 {
		return errInvalidMaxSessions
	}

	if c.NATS != nil && c.NATS.Enabled && c.NATS.URL == "" {
		return errNATSURLRequired
	}

	return nil
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}
