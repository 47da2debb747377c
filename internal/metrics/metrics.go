// Package metrics holds the Prometheus collectors recorded by sparkfleet.
//
// sparkfleet is a short-lived CLI, so nothing is served over HTTP. The
// registry is dumped with WriteTextfile for the node-exporter textfile
// collector when --metrics-file is set.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the registry every sparkfleet collector is registered with.
var Registry = prometheus.NewRegistry()

var (
	// EC2 API metrics
	providerCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sparkfleet",
			Subsystem: "ec2",
			Name:      "api_calls_total",
			Help:      "Total number of EC2 API calls by operation and result",
		},
		[]string{"operation", "result"},
	)

	providerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sparkfleet",
			Subsystem: "ec2",
			Name:      "api_latency_seconds",
			Help:      "Latency of EC2 API calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 8), // 50ms to ~6s
		},
		[]string{"operation"},
	)

	// Launch metrics
	launchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sparkfleet",
			Subsystem: "launch",
			Name:      "duration_seconds",
			Help:      "Duration of cluster launches in seconds",
			Buckets:   prometheus.ExponentialBuckets(15, 2, 8), // 15s to ~32min
		},
		[]string{"strategy", "result"},
	)

	rollbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sparkfleet",
			Subsystem: "launch",
			Name:      "rollbacks_total",
			Help:      "Total number of launch rollbacks by outcome",
		},
		[]string{"outcome"},
	)

	// Lifecycle metrics
	lifecycleTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sparkfleet",
			Subsystem: "cluster",
			Name:      "operations_total",
			Help:      "Total number of cluster lifecycle operations by operation and result",
		},
		[]string{"operation", "result"},
	)
)

func init() {
	Registry.MustRegister(
		providerCallsTotal,
		providerLatency,
		launchDuration,
		rollbacksTotal,
		lifecycleTotal,
	)
}

// RecordProviderCall records one EC2 API call.
func RecordProviderCall(operation, result string, latency float64) {
	providerCallsTotal.WithLabelValues(operation, result).Inc()
	providerLatency.WithLabelValues(operation).Observe(latency)
}

// RecordLaunch records the outcome of a launch.
func RecordLaunch(strategy, result string, duration float64) {
	launchDuration.WithLabelValues(strategy, result).Observe(duration)
}

// RecordRollback records a rollback outcome (completed, failed, declined).
func RecordRollback(outcome string) {
	rollbacksTotal.WithLabelValues(outcome).Inc()
}

// RecordLifecycle records a start/stop/destroy/run-command/copy-file outcome.
func RecordLifecycle(operation, result string) {
	lifecycleTotal.WithLabelValues(operation, result).Inc()
}

// WriteTextfile writes the registry in the text exposition format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
