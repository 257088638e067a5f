// File: control/prometheus.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Prometheus collector over pool statistics. Collect walks the live
// registry on each scrape, so no background updater is needed.

package control

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/momentics/typepool/api"
)

// PoolCollector exports per-pool statistics as Prometheus metrics,
// labeled by object type.
type PoolCollector struct {
	registry api.Registry

	live      *prometheus.Desc
	capacity  *prometheus.Desc
	freeSlots *prometheus.Desc
	acquires  *prometheus.Desc
	releases  *prometheus.Desc
	growths   *prometheus.Desc
	helpedOps *prometheus.Desc
}

var _ prometheus.Collector = (*PoolCollector)(nil)

// NewPoolCollector builds a collector over the given registry.
func NewPoolCollector(registry api.Registry) *PoolCollector {
	labels := []string{"type"}
	return &PoolCollector{
		registry: registry,
		live: prometheus.NewDesc(
			"typepool_live_objects",
			"Objects currently acquired from the pool.",
			labels, nil),
		capacity: prometheus.NewDesc(
			"typepool_capacity_slots",
			"Total slots across all slabs of the pool.",
			labels, nil),
		freeSlots: prometheus.NewDesc(
			"typepool_free_slots",
			"Slots currently on the free list.",
			labels, nil),
		acquires: prometheus.NewDesc(
			"typepool_acquires_total",
			"Total successful acquire operations.",
			labels, nil),
		releases: prometheus.NewDesc(
			"typepool_releases_total",
			"Total release operations.",
			labels, nil),
		growths: prometheus.NewDesc(
			"typepool_growths_total",
			"Total slab growth events.",
			labels, nil),
		helpedOps: prometheus.NewDesc(
			"typepool_helped_ops_total",
			"Free-list operations completed through the helping path.",
			labels, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.live
	ch <- c.capacity
	ch <- c.freeSlots
	ch <- c.acquires
	ch <- c.releases
	ch <- c.growths
	ch <- c.helpedOps
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	for _, st := range c.registry.Stats() {
		ch <- prometheus.MustNewConstMetric(c.live, prometheus.GaugeValue, float64(st.Live), st.Type)
		ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(st.Capacity), st.Type)
		ch <- prometheus.MustNewConstMetric(c.freeSlots, prometheus.GaugeValue, float64(st.FreeSlots), st.Type)
		ch <- prometheus.MustNewConstMetric(c.acquires, prometheus.CounterValue, float64(st.Acquires), st.Type)
		ch <- prometheus.MustNewConstMetric(c.releases, prometheus.CounterValue, float64(st.Releases), st.Type)
		ch <- prometheus.MustNewConstMetric(c.growths, prometheus.CounterValue, float64(st.Growths), st.Type)
		ch <- prometheus.MustNewConstMetric(c.helpedOps, prometheus.CounterValue, float64(st.HelpedOps), st.Type)
	}
}
