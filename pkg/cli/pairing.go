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
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/massapay/massa-agent/pkg/bridge"
	"github.com/massapay/massa-agent/pkg/models"
)

//nolint:gochecknoglobals // swapped in tests
var writeClipboard = clipboard.WriteAll

// PairingCmd prints the pairing payload the mobile app scans.
func PairingCmd() *cobra.Command {
	var (
		copyOut bool
		plain   bool
	)

	cmd := &cobra.Command{
		Use:   "pairing",
		Short: "Print pairing data for the mobile app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			data := bridge.PairingDataFor(cfg)

			payload, err := json.Marshal(data)
			if err != nil {
				return fmt.Errorf("failed to encode pairing data: %w", err)
			}

			out := cmd.OutOrStdout()

			if plain {
				fmt.Fprintln(out, string(payload))
			} else {
				fmt.Fprintln(out, renderPairing(newStyles(), data, string(payload)))
			}

			if copyOut {
				if err := writeClipboard(string(payload)); err != nil {
					return fmt.Errorf("failed to copy pairing data: %w", err)
				}

				if !plain {
					fmt.Fprintln(out, newStyles().success.Render("Pairing data copied to clipboard!"))
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&copyOut, "copy", false, "Copy the pairing JSON to the clipboard")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print only the pairing JSON")

	return cmd
}

func renderPairing(st styles, data models.PairingData, payload string) string {
	var b strings.Builder

	b.WriteString(st.title.Render("Massa agent pairing"))
	b.WriteString("\n\n")

	for _, row := range [][2]string{
		{"Host", data.Host},
		{"Port", strconv.Itoa(data.Port)},
		{"Session", data.SessionID},
		{"Protocol", data.Version},
	} {
		b.WriteString(st.label.Render(fmt.Sprintf("%-9s", row[0])))
		b.WriteString(st.value.Render(row[1]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(st.hint.Render("Scan or paste into the app:"))
	b.WriteString("\n")
	b.WriteString(st.box.Render(payload))

	return b.String()
}
