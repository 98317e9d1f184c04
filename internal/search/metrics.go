package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports search counters. A nil *Metrics records nothing.
type Metrics struct {
	attempts     prometheus.Counter
	restarts     prometheus.Counter
	improvements prometheus.Counter
	bestScore    prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		attempts: f.NewCounter(prometheus.CounterOpts{
			Name: "substsolve_attempts_total",
			Help: "Candidate keys scored",
		}),
		restarts: f.NewCounter(prometheus.CounterOpts{
			Name: "substsolve_restarts_total",
			Help: "Hill climbs started from a random key",
		}),
		improvements: f.NewCounter(prometheus.CounterOpts{
			Name: "substsolve_improvements_total",
			Help: "Times the best key was replaced",
		}),
		bestScore: f.NewGauge(prometheus.GaugeOpts{
			Name: "substsolve_best_score",
			Help: "Fitness of the best key so far, lower is better",
		}),
	}
}

func (m *Metrics) addAttempts(n uint64) {
	if m != nil && n > 0 {
		m.attempts.Add(float64(n))
	}
}

func (m *Metrics) addRestarts(n uint64) {
	if m != nil && n > 0 {
		m.restarts.Add(float64(n))
	}
}

func (m *Metrics) improved(score float64) {
	if m != nil {
		m.improvements.Inc()
		m.bestScore.Set(score)
	}
}
