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
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/massapay/massa-agent/pkg/bridge"
	"github.com/massapay/massa-agent/pkg/config"
	"github.com/massapay/massa-agent/pkg/eventbus"
	"github.com/massapay/massa-agent/pkg/lifecycle"
	"github.com/massapay/massa-agent/pkg/logger"
	"github.com/massapay/massa-agent/pkg/models"
	"github.com/massapay/massa-agent/pkg/version"
)

const serviceName = "massa-agent"

// ServeCmd runs the bridge until SIGINT or SIGTERM.
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the WebSocket bridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(ctx, cmd)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *models.BridgeConfig) error {
	if cfg.Logging == nil {
		cfg.Logging = logger.DefaultConfig()
	}

	log, err := lifecycle.CreateComponentLogger(ctx, serviceName, cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() {
		if err := logger.Shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to shutdown logger: %v\n", err)
		}
	}()

	config.LogSafe(log, cfg)

	if err := initTelemetry(ctx, cfg, log); err != nil {
		return err
	}

	srv, err := bridge.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create bridge: %w", err)
	}

	events := srv.Events(0)
	go logEvents(events, log)

	if err := srv.Start(ctx); err != nil {
		_ = srv.Close(context.Background())

		return err
	}

	log.Info().
		Str("version", version.GetVersion()).
		Interface("pairing", srv.GeneratePairingData()).
		Msg("massa-agent ready")

	<-ctx.Done()

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ShutdownGrace)+time.Duration(cfg.ShutdownTimeout)*2)
	defer cancel()

	return srv.Close(shutdownCtx)
}

func initTelemetry(ctx context.Context, cfg *models.BridgeConfig, log logger.Logger) error {
	otelCfg := cfg.Logging.OTel

	_, err := logger.InitializeMetrics(ctx, logger.MetricsConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.GetVersion(),
		OTel:           &otelCfg,
	})
	if err != nil && !errors.Is(err, logger.ErrOTelMetricsDisabled) {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	if _, err := logger.InitializeTracing(ctx, logger.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.GetVersion(),
		Logger:         log,
		OTel:           &otelCfg,
	}); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	return nil
}

// logEvents writes every lifecycle event to the log until the bus closes.
func logEvents(sub *eventbus.Subscription, log logger.Logger) {
	for ev := range sub.C() {
		entry := log.Info()
		if ev.Kind() == eventbus.KindFailure {
			entry = log.Warn()
		}

		entry.Str("event", string(ev.Kind())).Interface("data", ev).Msg("Lifecycle event")
	}
}
