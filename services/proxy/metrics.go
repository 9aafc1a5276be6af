// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package proxy

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/jsonrpc"
)

// Package-level tracer and meter for proxy traffic.
var (
	tracer = otel.Tracer("roslyn-ls.proxy")
	meter  = otel.Meter("roslyn-ls.proxy")
)

// Metrics for proxy traffic.
var (
	messagesTotal    metric.Int64Counter
	hookInvocations  metric.Int64Counter
	syntheticTotal   metric.Int64Counter
	pumpFailures     metric.Int64Counter
	dispatchDuration metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		messagesTotal, err = meter.Int64Counter(
			"proxy_messages_total",
			metric.WithDescription("Messages read by the proxy"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		hookInvocations, err = meter.Int64Counter(
			"proxy_hook_invocations_total",
			metric.WithDescription("Hook invocations by method and result"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		syntheticTotal, err = meter.Int64Counter(
			"proxy_synthetic_messages_total",
			metric.WithDescription("Messages made up by hooks"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		pumpFailures, err = meter.Int64Counter(
			"proxy_pump_failures_total",
			metric.WithDescription("Pumps that stopped with an error"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		dispatchDuration, err = meter.Float64Histogram(
			"proxy_dispatch_duration_seconds",
			metric.WithDescription("Time spent running hooks for one message"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startDispatchSpan creates a span for one pipeline dispatch.
func startDispatchSpan(ctx context.Context, dir Direction, msg jsonrpc.Message) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Pipeline.Dispatch",
		trace.WithAttributes(
			attribute.String("proxy.direction", dir.String()),
			attribute.String("proxy.kind", msg.Kind().String()),
			attribute.String("proxy.method", jsonrpc.MethodOf(msg)),
		),
	)
}

// recordDispatch records a dispatched message.
func recordDispatch(ctx context.Context, dir Direction, msg jsonrpc.Message, duration time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("direction", dir.String()),
		attribute.String("kind", msg.Kind().String()),
	)
	messagesTotal.Add(ctx, 1, attrs)
	dispatchDuration.Record(ctx, duration.Seconds(), attrs)
}

// recordHook records one hook invocation.
func recordHook(ctx context.Context, method, result string) {
	if err := initMetrics(); err != nil {
		return
	}
	hookInvocations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("result", result),
	))
}

// recordSynthetic records a message made up by a hook.
func recordSynthetic(ctx context.Context, dir Direction, method string) {
	if err := initMetrics(); err != nil {
		return
	}
	syntheticTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("direction", dir.String()),
		attribute.String("method", method),
	))
}

// recordPumpFailure records a pump that stopped with an error.
func recordPumpFailure(ctx context.Context, dir Direction) {
	if err := initMetrics(); err != nil {
		return
	}
	pumpFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("direction", dir.String()),
	))
}
