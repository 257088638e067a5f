// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime control surface for the pool subsystem: dynamic configuration
// with hot-reload listeners, metrics aggregation over pool statistics,
// debug probes, a bounded event journal, and a Prometheus collector.
//
// Everything here lives off the allocation hot path. Pools report into
// this package only on cold transitions (growth, creation, violations).
package control
