// Package metrics exposes Prometheus collectors for the feed engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Hydration outcome label values.
const (
	OutcomeAccepted  = "accepted"
	OutcomeRejected  = "rejected"
	OutcomeDiscarded = "discarded"
)

// Reset mode label values.
const (
	ModeFullReset    = "full_reset"
	ModePartialPrune = "partial_prune"
)

// Feed holds the engine's collectors. A nil *Feed is valid everywhere it is
// accepted; recording on nil is a no-op so unit tests need no registry.
type Feed struct {
	hydrations *prometheus.CounterVec
	resets     *prometheus.CounterVec
	ready      prometheus.Gauge
	preparing  prometheus.Gauge
}

// NewFeed creates the feed collectors and registers them with reg.
func NewFeed(reg prometheus.Registerer) *Feed {
	f := &Feed{
		hydrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_hydration_total",
			Help: "Hydration attempts by card kind and outcome.",
		}, []string{"kind", "outcome"}),
		resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_resets_total",
			Help: "Preference reconciliations by mode.",
		}, []string{"mode"}),
		ready: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "feed_ready_cards",
			Help: "Cards currently buffered in the ready queue.",
		}),
		preparing: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "feed_preparing_cards",
			Help: "Cards currently mid-hydration.",
		}),
	}
	reg.MustRegister(f.hydrations, f.resets, f.ready, f.preparing)
	return f
}

// ObserveHydration records one hydration completion.
func (f *Feed) ObserveHydration(kind, outcome string) {
	if f == nil {
		return
	}
	f.hydrations.WithLabelValues(kind, outcome).Inc()
}

// ObserveReset records one reconciliation that cleared or pruned state.
func (f *Feed) ObserveReset(mode string) {
	if f == nil {
		return
	}
	f.resets.WithLabelValues(mode).Inc()
}

// SetDepth records the current ready/preparing occupancy.
func (f *Feed) SetDepth(ready, preparing int) {
	if f == nil {
		return
	}
	f.ready.Set(float64(ready))
	f.preparing.Set(float64(preparing))
}
