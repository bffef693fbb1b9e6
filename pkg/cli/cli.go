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

// Package cli implements the massa-agent command line.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/massapay/massa-agent/pkg/config"
	"github.com/massapay/massa-agent/pkg/lifecycle"
	"github.com/massapay/massa-agent/pkg/logger"
	"github.com/massapay/massa-agent/pkg/models"
)

// Dracula theme colors.
const (
	draculaForeground = "#F8F8F2"
	draculaCyan       = "#8BE9FD"
	draculaGreen      = "#50FA7B"
	draculaOrange     = "#FFB86C"
	draculaPink       = "#FF79C6"
	draculaPurple     = "#BD93F9"
	draculaRed        = "#FF5555"
	draculaComment    = "#6272A4"
)

type styles struct {
	title, label, value, hint, success, failure, box lipgloss.Style
}

func newStyles() styles {
	return styles{
		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaPink)).
			Bold(true),
		label: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaComment)),
		value: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaForeground)),
		hint: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaOrange)),
		success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaGreen)),
		failure: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaRed)).
			Bold(true),
		box: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(draculaPurple)),
	}
}

// NewRootCommand assembles the massa-agent command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "massa-agent",
		Short: "Bridge between the Massa mobile app and a local Massa node",
		Long: `massa-agent runs next to a Massa validator node and exposes it to the
mobile app over a WebSocket bridge.

It detects which port serves the node's public JSON-RPC API, forwards app
requests to it, reports node reachability to connected devices and uses the
node's private API to manage staking keys.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "Path to agent config file (JSON or YAML)")

	root.AddCommand(ServeCmd())
	root.AddCommand(PairingCmd())
	root.AddCommand(ProbeCmd())
	root.AddCommand(VersionCmd())

	return root
}

func loadConfig(ctx context.Context, cmd *cobra.Command) (*models.BridgeConfig, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	return config.LoadBridgeConfig(ctx, quietLogger(cmd.ErrOrStderr()), path)
}

// quietLogger is used by the one-shot commands; only warnings reach the terminal.
func quietLogger(w io.Writer) logger.Logger {
	return lifecycle.NewLoggerFromZerolog(
		zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).Level(zerolog.WarnLevel).With().Timestamp().Logger(),
	)
}
