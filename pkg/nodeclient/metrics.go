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

package nodeclient

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type clientMetrics struct {
	calls      metric.Int64Counter
	latency    metric.Float64Histogram
	detections metric.Int64Counter
}

func newClientMetrics(mp metric.MeterProvider) *clientMetrics {
	meter := mp.Meter(instrumentation)
	fallback := noop.Meter{}

	calls, err := meter.Int64Counter("massa_agent.node.rpc.calls",
		metric.WithDescription("JSON-RPC calls sent to the node"))
	if err != nil {
		calls, _ = fallback.Int64Counter("massa_agent.node.rpc.calls")
	}

	latency, err := meter.Float64Histogram("massa_agent.node.rpc.duration",
		metric.WithDescription("JSON-RPC round trip time"),
		metric.WithUnit("s"))
	if err != nil {
		latency, _ = fallback.Float64Histogram("massa_agent.node.rpc.duration")
	}

	detections, err := meter.Int64Counter("massa_agent.node.endpoint.detections",
		metric.WithDescription("Endpoint detection runs by result"))
	if err != nil {
		detections, _ = fallback.Int64Counter("massa_agent.node.endpoint.detections")
	}

	return &clientMetrics{calls: calls, latency: latency, detections: detections}
}

func (m *clientMetrics) call(ctx context.Context, method string, api Flavor, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("api", string(api)),
		attribute.String("outcome", outcome),
	)

	m.calls.Add(ctx, 1, attrs)
	m.latency.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *clientMetrics) detection(ctx context.Context, outcome string) {
	m.detections.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
