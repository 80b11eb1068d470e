// Package metrics exposes Prometheus counters for tracker activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the subset of metrics used by the persistence and verse layers.
type Recorder interface {
	RecordChange(collection, action string)
	RecordPersistFailure(collection string)
	RecordVerseFetch(state string)
}

// Collector records metrics into a Prometheus registry.
type Collector struct {
	changes        *prometheus.CounterVec
	persistFailure *prometheus.CounterVec
	verseFetch     *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lightfamily_changes_total",
			Help: "State mutations applied, by collection and action.",
		}, []string{"collection", "action"}),
		persistFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lightfamily_persist_failures_total",
			Help: "Failed writes of a collection to the local store.",
		}, []string{"collection"}),
		verseFetch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lightfamily_verse_fetch_total",
			Help: "Verse of the day fetch outcomes.",
		}, []string{"state"}),
	}

	reg.MustRegister(c.changes, c.persistFailure, c.verseFetch)
	return c
}

// RecordChange counts one tracker mutation.
func (c *Collector) RecordChange(collection, action string) {
	c.changes.WithLabelValues(collection, action).Inc()
}

func (c *Collector) RecordPersistFailure(collection string) {
	c.persistFailure.WithLabelValues(collection).Inc()
}

func (c *Collector) RecordVerseFetch(state string) {
	c.verseFetch.WithLabelValues(state).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordChange(string, string) {}
func (Nop) RecordPersistFailure(string) {}
func (Nop) RecordVerseFetch(string) {}
