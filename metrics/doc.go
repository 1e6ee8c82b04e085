// Package metrics exposes Prometheus counters and histograms for sandbox
// operations on a dedicated registry.
package metrics
