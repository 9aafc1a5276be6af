// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MikhailSiarko/roslyn-language-server/pkg/logging"
)

// LogMetrics is a logging.LogExporter that counts log entries by level.
//
// Description:
//
//	Hook failures and pump errors are logged rather than returned, so a
//	rising warn or error count is the signal that a session is degraded.
//	Entries carrying a "method" attribute are also counted per method.
//
// Thread Safety:
//
//	Safe for concurrent use.
type LogMetrics struct {
	entries metric.Int64Counter
}

// NewLogMetrics creates a LogMetrics on the global meter. Instruments
// created before Init start reporting once Init installs a provider.
func NewLogMetrics() (*LogMetrics, error) {
	return NewLogMetricsWithMeter(otel.Meter("roslyn-ls.logging"))
}

// NewLogMetricsWithMeter creates a LogMetrics recording on meter.
func NewLogMetricsWithMeter(meter metric.Meter) (*LogMetrics, error) {
	entries, err := meter.Int64Counter(
		"log_entries_total",
		metric.WithDescription("Log entries written by level"),
	)
	if err != nil {
		return nil, fmt.Errorf("create log counter: %w", err)
	}
	return &LogMetrics{entries: entries}, nil
}

// Export counts entry.
func (m *LogMetrics) Export(ctx context.Context, entry logging.LogEntry) error {
	attrs := []attribute.KeyValue{attribute.String("level", entry.Level.String())}
	if method, ok := entry.Attrs["method"].(string); ok && method != "" {
		attrs = append(attrs, attribute.String("method", method))
	}
	m.entries.Add(ctx, 1, metric.WithAttributes(attrs...))
	return nil
}

// Flush is a no-op; the meter provider owns export.
func (m *LogMetrics) Flush(context.Context) error { return nil }

// Close is a no-op.
func (m *LogMetrics) Close() error { return nil }

var _ logging.LogExporter = (*LogMetrics)(nil)
