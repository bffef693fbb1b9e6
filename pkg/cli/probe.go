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
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/massapay/massa-agent/pkg/models"
	"github.com/massapay/massa-agent/pkg/nodeclient"
)

const defaultProbeTimeout = 15 * time.Second

// ProbeCmd runs one endpoint detection against the configured node and
// prints what each candidate port answered.
func ProbeCmd() *cobra.Command {
	var (
		host    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Detect the node API port and print node status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			if host != "" {
				cfg.NodeHost = host
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client := nodeclient.NewFromConfig(cfg, quietLogger(cmd.ErrOrStderr()))
			st := newStyles()
			out := cmd.OutOrStdout()

			endpoint, detectErr := client.DetectEndpoint(ctx)

			fmt.Fprintln(out, renderProbe(st, cfg.NodeHost, client.LastProbe()))

			if detectErr != nil {
				fmt.Fprintln(out, st.failure.Render(nodeclient.ErrNodeUnreachable.Error()))

				return detectErr
			}

			status, err := client.GetNodeStatus(ctx)
			if err != nil {
				return fmt.Errorf("node status: %w", err)
			}

			fmt.Fprintln(out, renderStatus(st, endpoint, status))

			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Node host, overriding the config")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultProbeTimeout, "Overall probe timeout")

	return cmd
}

func renderProbe(st styles, host string, results []nodeclient.ProbeResult) string {
	var b strings.Builder

	b.WriteString(st.title.Render("Probing " + host))
	b.WriteString("\n")

	for _, r := range results {
		outcome := string(r.Outcome)

		switch r.Outcome {
		case nodeclient.ProbeAccepted:
			outcome = st.success.Render(outcome)
		case nodeclient.ProbeWrongAPI, nodeclient.ProbeRejected:
			outcome = st.hint.Render(outcome)
		default:
			outcome = st.failure.Render(outcome)
		}

		b.WriteString(st.label.Render(fmt.Sprintf("  port %-6d", r.Port)))
		b.WriteString(outcome)

		if r.Error != "" {
			b.WriteString(st.label.Render("  " + r.Error))
		}

		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func renderStatus(st styles, endpoint nodeclient.Endpoint, status *models.NodeStatus) string {
	rows := [][2]string{
		{"Endpoint", strconv.Itoa(endpoint.Port) + " (" + string(endpoint.Flavor) + ")"},
		{"Version", deref(status.Version)},
		{"Network", deref(status.NetworkVersion)},
		{"Cycle", derefInt(status.CurrentCycle)},
		{"Period", derefInt(status.CurrentPeriod)},
	}

	peers := "-"
	if status.ConnectedPeers != nil {
		peers = strconv.Itoa(*status.ConnectedPeers)
	}

	rows = append(rows, [2]string{"Peers", peers})

	var b strings.Builder

	for _, row := range rows {
		b.WriteString(st.label.Render(fmt.Sprintf("%-9s", row[0])))
		b.WriteString(st.value.Render(row[1]))
		b.WriteString("\n")
	}

	return st.box.Render(strings.TrimRight(b.String(), "\n"))
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}

	return *s
}

func derefInt(n *int64) string {
	if n == nil {
		return "-"
	}

	return strconv.FormatInt(*n, 10)
}
