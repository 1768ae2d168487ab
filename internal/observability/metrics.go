// Package observability provides OpenTelemetry metric instruments for the
// client. Exporter wiring is left to the embedding application; only the
// metric API is used here.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// QueryMetrics holds custom metrics for search queries
type QueryMetrics struct {
	queryDuration metric.Float64Histogram
	queryCounter  metric.Int64Counter
	errorCounter  metric.Int64Counter
}

// InitQueryMetrics initializes query metrics on the global meter provider.
func InitQueryMetrics() (*QueryMetrics, error) {
	meter := otel.Meter("riddle")

	queryDuration, err := meter.Float64Histogram(
		"sphinxql.query.duration",
		metric.WithDescription("Duration of SphinxQL queries in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create query duration histogram: %w", err)
	}

	queryCounter, err := meter.Int64Counter(
		"sphinxql.queries.total",
		metric.WithDescription("Total number of SphinxQL queries issued"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create query counter: %w", err)
	}

	errorCounter, err := meter.Int64Counter(
		"sphinxql.errors.total",
		metric.WithDescription("Total number of failed SphinxQL queries"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create error counter: %w", err)
	}

	return &QueryMetrics{
		queryDuration: queryDuration,
		queryCounter:  queryCounter,
		errorCounter:  errorCounter,
	}, nil
}

// RecordQuery records one issued query with its duration and outcome.
// statement is a coarse verb (SELECT, INSERT, CALL, SHOW), never the full
// query text, keeping metric cardinality bounded.
func (m *QueryMetrics) RecordQuery(ctx context.Context, statement string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("statement", statement))
	m.queryCounter.Add(ctx, 1, attrs)
	m.queryDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	if err != nil {
		m.errorCounter.Add(ctx, 1, attrs)
	}
}
