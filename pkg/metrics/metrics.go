// Package metrics is a thin abstraction over Prometheus so a Log can be
// used with or without metrics: callers pass a Sink built by NewProm(reg)
// via dlog.WithMetrics, or pay nothing on the hot path when they don't,
// mirroring the no-op/real split in Voskan-arena-cache's metrics.go.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Sink is the internal interface pkg/dlog depends on, abstracting away
// the concrete backend (Prometheus vs noop).
type Sink interface {
	IncAppend()
	IncJoin()
	IncJoinDenied()
	IncSignatureInvalid()
	SetLogLength(n int)
	ObserveJoinDuration(d time.Duration)
}

// Noop discards every observation. It is the default Sink for a Log
// constructed without dlog.WithMetrics.
type Noop struct{}

func (Noop) IncAppend()                          {}
func (Noop) IncJoin()                            {}
func (Noop) IncJoinDenied()                      {}
func (Noop) IncSignatureInvalid()                {}
func (Noop) SetLogLength(int)                    {}
func (Noop) ObserveJoinDuration(time.Duration)   {}

// Prom is a Prometheus-backed Sink. Construct with NewProm and register
// its collectors against a *prometheus.Registry.
type Prom struct {
	appends          prometheus.Counter
	joins            prometheus.Counter
	joinDenied       prometheus.Counter
	signatureInvalid prometheus.Counter
	logLength        prometheus.Gauge
	joinDuration     prometheus.Histogram
}

// NewProm builds a Prom sink and registers its collectors on reg.
func NewProm(reg *prometheus.Registry) *Prom {
	p := &Prom{
		appends: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "driftlog",
			Name:      "appends_total",
			Help:      "Number of successful local appends.",
		}),
		joins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "driftlog",
			Name:      "joins_total",
			Help:      "Number of successful joins.",
		}),
		joinDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "driftlog",
			Name:      "join_denied_total",
			Help:      "Number of joins aborted by the access controller.",
		}),
		signatureInvalid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "driftlog",
			Name:      "signature_invalid_total",
			Help:      "Number of joined entries rejected for a bad signature.",
		}),
		logLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "driftlog",
			Name:      "log_length",
			Help:      "Current number of entries in the log's entryIndex.",
		}),
		joinDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "driftlog",
			Name:      "join_duration_seconds",
			Help:      "Wall-clock duration of Log.Join calls.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(p.appends, p.joins, p.joinDenied, p.signatureInvalid, p.logLength, p.joinDuration)
	return p
}

func (p *Prom) IncAppend()           { p.appends.Inc() }
func (p *Prom) IncJoin()             { p.joins.Inc() }
func (p *Prom) IncJoinDenied()       { p.joinDenied.Inc() }
func (p *Prom) IncSignatureInvalid() { p.signatureInvalid.Inc() }
func (p *Prom) SetLogLength(n int)   { p.logLength.Set(float64(n)) }
func (p *Prom) ObserveJoinDuration(d time.Duration) {
	p.joinDuration.Observe(d.Seconds())
}
