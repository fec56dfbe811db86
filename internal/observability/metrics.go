package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRunsTotal    = "detekt_ls.runs.total"
	metricRunDuration  = "detekt_ls.run.duration.seconds"
	metricRunsFailed   = "detekt_ls.runs.failed.total"
	metricInflightRuns = "detekt_ls.inflight.runs"

	attrState = "state"

	stateFailed = "failed"
)

// runDurationBoundaries covers 50ms to 300s: detekt runs range from a
// warm sub-second single file to a cold multi-minute JVM start.
var runDurationBoundaries = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// LintMetrics holds the OTel instruments for lint run telemetry.
type LintMetrics struct {
	runsTotal    metric.Int64Counter
	runDuration  metric.Float64Histogram
	runsFailed   metric.Int64Counter
	inflightRuns metric.Int64UpDownCounter
}

// NewLintMetrics creates the lint run instruments from the given meter.
func NewLintMetrics(mt metric.Meter) (*LintMetrics, error) {
	b := newMetricBuilder(mt)

	lm := &LintMetrics{
		runsTotal:    b.counter(metricRunsTotal, "Total number of lint runs", "{run}"),
		runDuration:  b.histogram(metricRunDuration, "Lint run duration in seconds", "s", runDurationBoundaries...),
		runsFailed:   b.counter(metricRunsFailed, "Total number of failed lint runs", "{run}"),
		inflightRuns: b.upDownCounter(metricInflightRuns, "Number of in-flight lint runs", "{run}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return lm, nil
}

// RecordRun records a completed run with its terminal state and duration.
func (lm *LintMetrics) RecordRun(ctx context.Context, state string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String(attrState, state))

	lm.runsTotal.Add(ctx, 1, attrs)
	lm.runDuration.Record(ctx, duration.Seconds(), attrs)

	if state == stateFailed {
		lm.runsFailed.Add(ctx, 1)
	}
}

// TrackInflight increments the in-flight gauge and returns a function
// to decrement it.
func (lm *LintMetrics) TrackInflight(ctx context.Context) func() {
	lm.inflightRuns.Add(ctx, 1)

	return func() {
		lm.inflightRuns.Add(ctx, -1)
	}
}
