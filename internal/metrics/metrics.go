// Package metrics exposes checkout and cart counters for Prometheus.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg             *prometheus.Registry
	checkouts       *prometheus.CounterVec
	checkoutSeconds prometheus.Histogram
	conflicts       prometheus.Counter
	staleRefs       prometheus.Counter
	cartRejections  prometheus.Counter
	mirrorRefreshes *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shelfpos",
			Name:      "checkouts_total",
			Help:      "Checkout attempts by result.",
		}, []string{"result"}),
		checkoutSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shelfpos",
			Name:      "checkout_duration_seconds",
			Help:      "Time from checkout submission to commit or failure.",
			Buckets:   prometheus.DefBuckets,
		}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shelfpos",
			Name:      "checkout_conflicts_total",
			Help:      "Commits rejected because an item changed after it was read.",
		}),
		staleRefs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shelfpos",
			Name:      "checkout_stale_references_total",
			Help:      "Sale lines whose item no longer existed at checkout.",
		}),
		cartRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shelfpos",
			Name:      "cart_capacity_rejections_total",
			Help:      "Cart adds refused by the stock ceiling.",
		}),
		mirrorRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shelfpos",
			Name:      "mirror_refreshes_total",
			Help:      "Catalog mirror reloads by result.",
		}, []string{"result"}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.checkouts, m.checkoutSeconds, m.conflicts, m.staleRefs, m.cartRejections, m.mirrorRefreshes,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) Checkout(result string, started time.Time) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(result).Inc()
	m.checkoutSeconds.Observe(time.Since(started).Seconds())
}

func (m *Metrics) Conflict() {
	if m != nil {
		m.conflicts.Inc()
	}
}

func (m *Metrics) StaleReference() {
	if m != nil {
		m.staleRefs.Inc()
	}
}

func (m *Metrics) CartRejected() {
	if m != nil {
		m.cartRejections.Inc()
	}
}

func (m *Metrics) MirrorRefresh(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.mirrorRefreshes.WithLabelValues("ok").Inc()
	} else {
		m.mirrorRefreshes.WithLabelValues("error").Inc()
	}
}
