// Package tracing records engine flushes and evaluations as OpenTelemetry
// spans.
//
// The tracer implements glint.Hook; attach it with glint.WithHook:
//
//	e := glint.New(glint.WithHook(tracing.New()))
package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/glint-dev/glint/pkg/glint"
)

// Default tracer name for glint engines.
const defaultTracerName = "glint"

// Config configures the OpenTelemetry hook.
type Config struct {
	// TracerName is the name of the tracer (default: "glint").
	TracerName string

	// EvaluationSpans additionally records a span per derivation
	// recompute and per observer run. Disabled by default: on hot
	// graphs this is a lot of spans.
	EvaluationSpans bool

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// Option configures the OpenTelemetry hook.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithEvaluationSpans enables per-recompute and per-observer-run spans.
func WithEvaluationSpans(enable bool) Option {
	return func(c *Config) {
		c.EvaluationSpans = enable
	}
}

// Tracer translates engine hook events into spans. Hook events arrive
// after the fact, so spans carry explicit start and end timestamps
// reconstructed from the reported durations.
type Tracer struct {
	glint.BaseHook

	config Config
}

// New creates the OpenTelemetry hook.
func New(opts ...Option) *Tracer {
	config := Config{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	return &Tracer{config: config}
}

// OnFlush implements glint.Hook.
func (t *Tracer) OnFlush(info glint.FlushInfo) {
	end := time.Now()
	_, span := t.config.tracer.Start(context.Background(), "glint.flush",
		trace.WithTimestamp(end.Add(-info.Duration)),
		trace.WithAttributes(
			attribute.Int("glint.flush.rounds", info.Rounds),
			attribute.Int("glint.flush.observer_runs", info.ObserverRuns),
		),
	)
	span.End(trace.WithTimestamp(end))
}

// OnRecompute implements glint.Hook.
func (t *Tracer) OnRecompute(node glint.NodeInfo, d time.Duration, err error) {
	if !t.config.EvaluationSpans {
		return
	}
	t.evaluationSpan("glint.recompute", node, d, err)
}

// OnObserverRun implements glint.Hook.
func (t *Tracer) OnObserverRun(node glint.NodeInfo, d time.Duration, err error) {
	if !t.config.EvaluationSpans {
		return
	}
	t.evaluationSpan("glint.observer_run", node, d, err)
}

func (t *Tracer) evaluationSpan(name string, node glint.NodeInfo, d time.Duration, err error) {
	end := time.Now()
	_, span := t.config.tracer.Start(context.Background(), name,
		trace.WithTimestamp(end.Add(-d)),
		trace.WithAttributes(
			attribute.Int64("glint.node.id", int64(node.ID)),
			attribute.String("glint.node.kind", node.Kind.String()),
			attribute.String("glint.node.label", node.Label),
		),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End(trace.WithTimestamp(end))
}
