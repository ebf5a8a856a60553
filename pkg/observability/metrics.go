package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricTokensTotal  = "symtab.intern.tokens.total"
	metricStringsTotal = "symtab.intern.strings.total"
	metricHitsTotal    = "symtab.intern.hits.total"
	metricMissesTotal  = "symtab.intern.misses.total"
	metricPayloadBytes = "symtab.intern.payload.bytes"
	metricInputsTotal  = "symtab.inputs.total"
	metricRunDuration  = "symtab.run.duration.seconds"

	attrBackend     = "backend"
	attrInputStatus = "status"

	inputStatusProcessed = "processed"
	inputStatusSkipped   = "skipped_binary"
)

// durationBucketBoundaries covers 1ms to 60s: single small files up to
// whole-corpus walks.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// RunStats holds the counters of one interning run, decoupled from the
// interner and CLI types.
type RunStats struct {
	Backend       string
	Tokens        int64
	Unique        int64
	Hits          int64
	Misses        int64
	PayloadBytes  int64
	Inputs        int64
	SkippedBinary int64
	Duration      time.Duration
}

// InternMetrics holds the OTel instruments for interning run metrics.
type InternMetrics struct {
	tokensTotal  metric.Int64Counter
	stringsTotal metric.Int64Counter
	hitsTotal    metric.Int64Counter
	missesTotal  metric.Int64Counter
	payloadBytes metric.Int64Counter
	inputsTotal  metric.Int64Counter
	runDuration  metric.Float64Histogram
}

// NewInternMetrics creates interning metric instruments from the given meter.
func NewInternMetrics(mt metric.Meter) (*InternMetrics, error) {
	tokens, err := mt.Int64Counter(metricTokensTotal,
		metric.WithDescription("Total tokens interned (duplicates included)"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTokensTotal, err)
	}

	strs, err := mt.Int64Counter(metricStringsTotal,
		metric.WithDescription("Unique strings stored"),
		metric.WithUnit("{string}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricStringsTotal, err)
	}

	hits, err := mt.Int64Counter(metricHitsTotal,
		metric.WithDescription("Dedup index hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricHitsTotal, err)
	}

	misses, err := mt.Int64Counter(metricMissesTotal,
		metric.WithDescription("Dedup index misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricMissesTotal, err)
	}

	payload, err := mt.Int64Counter(metricPayloadBytes,
		metric.WithDescription("Stored payload bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPayloadBytes, err)
	}

	inputs, err := mt.Int64Counter(metricInputsTotal,
		metric.WithDescription("Inputs by processing status"),
		metric.WithUnit("{input}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInputsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricRunDuration,
		metric.WithDescription("Interning run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunDuration, err)
	}

	return &InternMetrics{
		tokensTotal:  tokens,
		stringsTotal: strs,
		hitsTotal:    hits,
		missesTotal:  misses,
		payloadBytes: payload,
		inputsTotal:  inputs,
		runDuration:  duration,
	}, nil
}

// RecordRun records the counters of a completed interning run.
// Safe to call on a nil receiver (no-op).
func (im *InternMetrics) RecordRun(ctx context.Context, stats RunStats) {
	if im == nil {
		return
	}

	backendAttrs := metric.WithAttributes(attribute.String(attrBackend, stats.Backend))

	im.tokensTotal.Add(ctx, stats.Tokens, backendAttrs)
	im.stringsTotal.Add(ctx, stats.Unique, backendAttrs)
	im.hitsTotal.Add(ctx, stats.Hits, backendAttrs)
	im.missesTotal.Add(ctx, stats.Misses, backendAttrs)
	im.payloadBytes.Add(ctx, stats.PayloadBytes, backendAttrs)
	im.runDuration.Record(ctx, stats.Duration.Seconds(), backendAttrs)

	im.inputsTotal.Add(ctx, stats.Inputs, metric.WithAttributes(
		attribute.String(attrInputStatus, inputStatusProcessed),
	))
	im.inputsTotal.Add(ctx, stats.SkippedBinary, metric.WithAttributes(
		attribute.String(attrInputStatus, inputStatusSkipped),
	))
}
