// Package metrics exposes engine activity as Prometheus metrics.
//
// The collector implements glint.Hook; attach it with glint.WithHook:
//
//	col := metrics.New(metrics.WithRegistry(reg))
//	e := glint.New(glint.WithHook(col))
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/glint-dev/glint/pkg/glint"
)

// Config configures the Prometheus collector.
type Config struct {
	// Namespace is the metrics namespace (default: "glint").
	Namespace string

	// Subsystem is the metrics subsystem (default: "engine").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for evaluation durations.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// Option configures the Prometheus collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "glint",
		Subsystem: "engine",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector translates engine hook events into Prometheus metrics.
type Collector struct {
	glint.BaseHook

	nodesDeclared   *prometheus.CounterVec
	writesTotal     prometheus.Counter
	recomputesTotal *prometheus.CounterVec
	recomputeSec    prometheus.Histogram
	observerRuns    *prometheus.CounterVec
	observerRunSec  prometheus.Histogram
	flushesTotal    prometheus.Counter
	flushRounds     prometheus.Histogram
	flushSec        prometheus.Histogram
}

// New creates a collector and registers its metrics.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Collector{
		nodesDeclared: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "nodes_declared_total",
			Help:        "Total nodes declared, by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		writesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "writes_total",
			Help:        "Total signal writes",
			ConstLabels: config.ConstLabels,
		}),

		recomputesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "recomputes_total",
			Help:        "Total derivation recomputations, by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		recomputeSec: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "recompute_duration_seconds",
			Help:        "Derivation recomputation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		observerRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "observer_runs_total",
			Help:        "Total observer executions, by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		observerRunSec: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "observer_run_duration_seconds",
			Help:        "Observer execution duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		flushesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total completed flushes",
			ConstLabels: config.ConstLabels,
		}),

		flushRounds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_rounds",
			Help:        "Rounds needed per flush; above 1 means observers wrote signals",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 3, 5, 8, 13, 21},
		}),

		flushSec: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Flush duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

// OnDeclare implements glint.Hook.
func (c *Collector) OnDeclare(node glint.NodeInfo) {
	c.nodesDeclared.WithLabelValues(node.Kind.String()).Inc()
}

// OnWrite implements glint.Hook.
func (c *Collector) OnWrite(node glint.NodeInfo, rev uint64) {
	c.writesTotal.Inc()
}

// OnRecompute implements glint.Hook.
func (c *Collector) OnRecompute(node glint.NodeInfo, d time.Duration, err error) {
	c.recomputesTotal.WithLabelValues(status(err)).Inc()
	c.recomputeSec.Observe(d.Seconds())
}

// OnObserverRun implements glint.Hook.
func (c *Collector) OnObserverRun(node glint.NodeInfo, d time.Duration, err error) {
	c.observerRuns.WithLabelValues(status(err)).Inc()
	c.observerRunSec.Observe(d.Seconds())
}

// OnFlush implements glint.Hook.
func (c *Collector) OnFlush(info glint.FlushInfo) {
	c.flushesTotal.Inc()
	if info.Rounds > 0 {
		c.flushRounds.Observe(float64(info.Rounds))
	}
	c.flushSec.Observe(info.Duration.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
