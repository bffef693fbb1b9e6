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

package logger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.31.0"
	"google.golang.org/grpc/credentials"

	"github.com/massapay/massa-agent/pkg/version"
)

var (
	ErrOTelLoggingDisabled  = errors.New("OTel logging is disabled")
	ErrOTelEndpointRequired = errors.New("OTel endpoint is required when enabled")
)

const (
	maxAttributeValueLength = 4096
	componentField          = "component"
)

type OTelConfig struct {
	Enabled      bool              `json:"enabled" yaml:"enabled"`
	Endpoint     string            `json:"endpoint" yaml:"endpoint"`
	Headers      map[string]string `json:"headers" yaml:"headers"`
	ServiceName  string            `json:"service_name" yaml:"service_name"`
	BatchTimeout Duration          `json:"batch_timeout" yaml:"batch_timeout"`
	Insecure     bool              `json:"insecure" yaml:"insecure"`
	TLS          *TLSConfig        `json:"tls,omitempty" yaml:"tls,omitempty"`
}

// OTelWriter is an io.Writer for zerolog that re-emits each JSON line as an
// OTel log record. The "component" field selects the instrumentation scope.
type OTelWriter struct {
	ctx      context.Context
	provider otellog.LoggerProvider
	scopes   sync.Map
}

//nolint:gochecknoglobals // the provider must outlive the writer for shutdown
var (
	logProvider   *sdklog.LoggerProvider
	logProviderMu sync.Mutex
)

// NewOTELWriter builds an OTLP/gRPC log pipeline from config and installs it
// as the global logger provider.
func NewOTELWriter(ctx context.Context, config OTelConfig) (*OTelWriter, error) {
	if !config.Enabled {
		return nil, ErrOTelLoggingDisabled
	}

	if config.Endpoint == "" {
		return nil, ErrOTelEndpointRequired
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(config.Endpoint)}

	switch {
	case config.Insecure:
		opts = append(opts, otlploggrpc.WithInsecure())
	case config.TLS != nil:
		tlsConfig, err := setupTLSConfig(config.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to setup TLS configuration: %w", err)
		}

		opts = append(opts, otlploggrpc.WithTLSCredentials(credentials.NewTLS(tlsConfig)))
	}

	if len(config.Headers) > 0 {
		opts = append(opts, otlploggrpc.WithHeaders(config.Headers))
	}

	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
	}

	res, err := newResource(ctx, config.ServiceName, "")
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(config.BatchTimeout)
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter, sdklog.WithExportTimeout(timeout))),
	)

	logProviderMu.Lock()
	logProvider = provider
	logProviderMu.Unlock()

	global.SetLoggerProvider(provider)

	return NewOTELWriterWithProvider(ctx, provider), nil
}

// NewOTELWriterWithProvider wraps a provider the caller owns.
func NewOTELWriterWithProvider(ctx context.Context, provider otellog.LoggerProvider) *OTelWriter {
	return &OTelWriter{ctx: ctx, provider: provider}
}

func newResource(ctx context.Context, serviceName, serviceVersion string) (*resource.Resource, error) {
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	if serviceVersion == "" {
		serviceVersion = version.GetVersion()
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return res, nil
}

// Write never fails: lines that are not JSON objects are dropped so the
// primary output keeps working.
func (w *OTelWriter) Write(p []byte) (int, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(p, &fields); err != nil {
		return len(p), nil
	}

	var record otellog.Record

	if raw, ok := fields[zerolog.TimestampFieldName].(string); ok {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			record.SetTimestamp(ts)
			delete(fields, zerolog.TimestampFieldName)
		}
	}

	if raw, ok := fields[zerolog.LevelFieldName].(string); ok {
		record.SetSeverity(severityFor(raw))
		record.SetSeverityText(raw)
		delete(fields, zerolog.LevelFieldName)
	}

	if msg, ok := fields[zerolog.MessageFieldName].(string); ok {
		record.SetBody(otellog.StringValue(msg))
		delete(fields, zerolog.MessageFieldName)
	}

	scope := defaultServiceName
	if component, ok := fields[componentField].(string); ok && component != "" {
		scope = component
	}

	delete(fields, componentField)

	for key, value := range fields {
		record.AddAttributes(otellog.KeyValue{Key: key, Value: attributeValue(value)})
	}

	w.loggerFor(scope).Emit(w.ctx, record)

	return len(p), nil
}

func (w *OTelWriter) loggerFor(scope string) otellog.Logger {
	if l, ok := w.scopes.Load(scope); ok {
		return l.(otellog.Logger)
	}

	l, _ := w.scopes.LoadOrStore(scope, w.provider.Logger(scope))

	return l.(otellog.Logger)
}

// attributeValue keeps JSON scalars typed; objects and arrays are re-encoded.
func attributeValue(value interface{}) otellog.Value {
	switch v := value.(type) {
	case nil:
		return otellog.StringValue("null")
	case string:
		return otellog.StringValue(truncate(v, maxAttributeValueLength))
	case bool:
		return otellog.BoolValue(v)
	case float64:
		if v == float64(int64(v)) {
			return otellog.Int64Value(int64(v))
		}

		return otellog.Float64Value(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return otellog.StringValue(fmt.Sprint(v))
		}

		return otellog.StringValue(truncate(string(encoded), maxAttributeValueLength))
	}
}

// truncate cuts s to at most limit bytes on a rune boundary, marking the cut with "...".
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	cut := s[:limit-3]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}

	return cut + "..."
}

func severityFor(level string) otellog.Severity {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		if level == "warning" {
			return otellog.SeverityWarn
		}

		return otellog.SeverityInfo
	}

	switch parsed {
	case zerolog.TraceLevel:
		return otellog.SeverityTrace
	case zerolog.DebugLevel:
		return otellog.SeverityDebug
	case zerolog.WarnLevel:
		return otellog.SeverityWarn
	case zerolog.ErrorLevel:
		return otellog.SeverityError
	case zerolog.FatalLevel, zerolog.PanicLevel:
		return otellog.SeverityFatal
	case zerolog.InfoLevel, zerolog.NoLevel, zerolog.Disabled:
		return otellog.SeverityInfo
	default:
		return otellog.SeverityInfo
	}
}

// ShutdownOTEL flushes and stops the log, metric and trace pipelines. The
// first error wins.
func ShutdownOTEL() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logProviderMu.Lock()
	provider := logProvider
	logProvider = nil
	logProviderMu.Unlock()

	var errs []error

	if provider != nil {
		errs = append(errs, provider.Shutdown(ctx))
	}

	errs = append(errs, shutdownMeterProvider(ctx), shutdownTracerProvider(ctx))

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}
