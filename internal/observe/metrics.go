// Package observe provides application-wide observability primitives for
// Lookout: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Lookout metrics.
const meterName = "github.com/MrWong99/lookout"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// SessionDuration tracks the time from an accepted trigger to the return
	// to idle. Use with attribute:
	//   attribute.String("outcome", ...)
	SessionDuration metric.Float64Histogram

	// StageDuration tracks time spent per session stage. Use with attribute:
	//   attribute.String("stage", ...)
	StageDuration metric.Float64Histogram

	// InferenceDuration tracks individual Detect calls.
	InferenceDuration metric.Float64Histogram

	// ModelLoadDuration tracks detection engine loads.
	ModelLoadDuration metric.Float64Histogram

	// --- Counters ---

	// Triggers counts trigger attempts. Use with attribute:
	//   attribute.String("result", "accepted"|"busy"|"debounced")
	Triggers metric.Int64Counter

	// Intents counts interpreted transcripts by intent.
	Intents metric.Int64Counter

	// Detections counts detections narrated to the user.
	Detections metric.Int64Counter

	// --- Error counters ---

	// SessionErrors counts sessions cut short by a collaborator failure. Use
	// with attributes:
	//   attribute.String("stage", ...), attribute.String("kind", ...)
	SessionErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions is 1 while a session is in flight and 0 otherwise.
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) covering
// single inference calls up to whole sessions including the dwell interval.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.SessionDuration, err = m.Float64Histogram("lookout.session.duration",
		metric.WithDescription("Time from accepted trigger to idle."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.StageDuration, err = m.Float64Histogram("lookout.stage.duration",
		metric.WithDescription("Time spent in each session stage."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.InferenceDuration, err = m.Float64Histogram("lookout.inference.duration",
		metric.WithDescription("Latency of a single object-detection pass."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ModelLoadDuration, err = m.Float64Histogram("lookout.model.load.duration",
		metric.WithDescription("Latency of loading the detection engine."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Triggers, err = m.Int64Counter("lookout.triggers",
		metric.WithDescription("Trigger attempts by result."),
	); err != nil {
		return nil, err
	}
	if met.Intents, err = m.Int64Counter("lookout.intents",
		metric.WithDescription("Interpreted transcripts by intent."),
	); err != nil {
		return nil, err
	}
	if met.Detections, err = m.Int64Counter("lookout.detections",
		metric.WithDescription("Detections narrated to the user."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.SessionErrors, err = m.Int64Counter("lookout.session.errors",
		metric.WithDescription("Sessions aborted by a collaborator failure, by stage and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("lookout.active_sessions",
		metric.WithDescription("Number of sessions in flight (0 or 1)."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("lookout.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordTrigger records a trigger attempt with its result.
func (m *Metrics) RecordTrigger(ctx context.Context, result string) {
	m.Triggers.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordIntent records an interpreted intent.
func (m *Metrics) RecordIntent(ctx context.Context, intent string) {
	m.Intents.Add(ctx, 1, metric.WithAttributes(attribute.String("intent", intent)))
}

// RecordStage records the duration of one session stage in seconds.
func (m *Metrics) RecordStage(ctx context.Context, stage string, seconds float64) {
	m.StageDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordSessionError records a session aborted in stage with the given error
// kind.
func (m *Metrics) RecordSessionError(ctx context.Context, stage, kind string) {
	m.SessionErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("kind", kind),
		),
	)
}
