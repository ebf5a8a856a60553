package commands

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/symtab/internal/report"
	"github.com/Sumatoshi-tech/symtab/pkg/config"
	"github.com/Sumatoshi-tech/symtab/pkg/observability"
	"github.com/Sumatoshi-tech/symtab/pkg/safeconv"
	"github.com/Sumatoshi-tech/symtab/pkg/version"
)

// observabilityInitFunc initializes telemetry providers. Injected so tests
// can substitute in-memory exporters or no-ops.
type observabilityInitFunc func(cfg observability.Config) (observability.Providers, error)

// Duration classes bucket run length into low-cardinality span attributes.
const (
	durationClassFast   = "fast"
	durationClassNormal = "normal"
	durationClassSlow   = "slow"

	durationClassFastLimit   = 10 * time.Second
	durationClassNormalLimit = time.Minute
)

func durationClass(d time.Duration) string {
	switch {
	case d < durationClassFastLimit:
		return durationClassFast
	case d < durationClassNormalLimit:
		return durationClassNormal
	default:
		return durationClassSlow
	}
}

// buildObservabilityConfig maps the loaded CLI configuration onto the
// observability package's config.
func buildObservabilityConfig(cfg *config.Config) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = observability.ModeCLI
	obsCfg.Environment = cfg.Telemetry.Environment
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.DebugTrace = cfg.Telemetry.DebugTrace
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.LogLevel = cfg.Logging.SlogLevel()
	obsCfg.LogJSON = cfg.Logging.Format == config.LogFormatJSON

	return obsCfg
}

// startSpan begins a root span, degrading to the context's (noop) span when
// no tracer was provided.
func startSpan(ctx context.Context, tracer trace.Tracer, name string) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	return tracer.Start(ctx, name)
}

func shutdownProviders(providers observability.Providers) {
	if providers.Shutdown == nil {
		return
	}

	_ = providers.Shutdown(context.Background())
}

// recordRunMetrics publishes a completed run's counters. A nil meter (noop
// observability) records nothing.
func recordRunMetrics(ctx context.Context, meter metric.Meter, rep *report.Report) error {
	if meter == nil {
		return nil
	}

	im, err := observability.NewInternMetrics(meter)
	if err != nil {
		return err
	}

	im.RecordRun(ctx, observability.RunStats{
		Backend:       rep.Backend,
		Tokens:        rep.Tokens,
		Unique:        int64(rep.UniqueStrings),
		Hits:          int64(safeconv.MustUint64ToInt(rep.Hits)),
		Misses:        int64(safeconv.MustUint64ToInt(rep.Misses)),
		PayloadBytes:  int64(rep.PayloadBytes),
		Inputs:        int64(len(rep.Inputs)),
		SkippedBinary: int64(rep.SkippedBinary),
		Duration:      rep.Duration,
	})

	return nil
}
