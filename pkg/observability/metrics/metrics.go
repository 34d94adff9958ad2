/*
 * Copyright 2024 The Memwarden Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package metrics implements prometheus metrics and exposes the metrics HTTP listener
package metrics

import (
	"net/http"
	"strconv"

	"github.com/memwarden/memwarden/pkg/observability/logging"
	"github.com/memwarden/memwarden/pkg/observability/logging/logger"
	"github.com/memwarden/memwarden/pkg/observability/pprof"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricNamespace    = "memwarden"
	cacheSubsystem     = "cache"
	poolSubsystem      = "pool"
	memorySubsystem    = "memory"
	supervisorSubystem = "supervisor"
)

// Default histogram buckets used by memwarden
var (
	defaultBuckets = []float64{0.05, 0.1, 0.5, 1, 5, 10, 20}
)

// CacheObjectOperations is a Counter of operations (in # of objects) performed on a cache
var CacheObjectOperations *prometheus.CounterVec

// CacheByteOperations is a Counter of operations (in # of bytes) performed on a cache
var CacheByteOperations *prometheus.CounterVec

// CacheEvents is a Counter of events performed on a cache
var CacheEvents *prometheus.CounterVec

// CacheObjects is a Gauge representing the number of objects in a cache
var CacheObjects *prometheus.GaugeVec

// CacheBytes is a Gauge representing the number of bytes in a cache
var CacheBytes *prometheus.GaugeVec

// CacheMaxObjects is a Gauge for the cache's Max Object Threshold for triggering an eviction exercise
var CacheMaxObjects *prometheus.GaugeVec

// CacheMaxBytes is a Gauge for the cache's Max Byte Threshold for triggering an eviction exercise
var CacheMaxBytes *prometheus.GaugeVec

// CacheHitRate is a Gauge of the observed hit rate for a cache
var CacheHitRate *prometheus.GaugeVec

// MemoryUsedPercent is a Gauge of the sampled system memory utilization percentage
var MemoryUsedPercent prometheus.Gauge

// MemoryAvailableBytes is a Gauge of the sampled available system memory
var MemoryAvailableBytes prometheus.Gauge

// MemoryPressureLevel is a Gauge of the classified memory pressure level ordinal
var MemoryPressureLevel prometheus.Gauge

// MemoryHeapAllocBytes is a Gauge of the process's allocated heap bytes
var MemoryHeapAllocBytes prometheus.Gauge

// MemorySwapUsedPercent is a Gauge of the sampled swap utilization percentage
var MemorySwapUsedPercent prometheus.Gauge

// TrackedResourceObjects is a Gauge of live resources registered with a tracker
var TrackedResourceObjects *prometheus.GaugeVec

// TrackedResourceBytes is a Gauge of the estimated bytes of live tracked resources
var TrackedResourceBytes *prometheus.GaugeVec

// OptimizationRuns is a Counter of memory optimization passes and their outcomes
var OptimizationRuns *prometheus.CounterVec

// OptimizationFreedBytes is a Counter of bytes freed by optimization strategies
var OptimizationFreedBytes *prometheus.CounterVec

// OptimizationDuration is a Histogram of time required in seconds to run an optimization pass
var OptimizationDuration prometheus.Histogram

// PoolResources is a Gauge of pooled resources by lifecycle state
var PoolResources *prometheus.GaugeVec

// PoolAcquireQueueLength is a Gauge of callers waiting on pool acquisition
var PoolAcquireQueueLength *prometheus.GaugeVec

// PoolResourceEvents is a Counter of pooled resource lifecycle events
var PoolResourceEvents *prometheus.CounterVec

// PoolAcquireDuration is a Histogram of time required in seconds to acquire a pooled resource
var PoolAcquireDuration *prometheus.HistogramVec

// SupervisorHealthScore is a Gauge of the most recent composite health score
var SupervisorHealthScore prometheus.Gauge

// SupervisorHealthState is a Gauge of the most recent health state ordinal
var SupervisorHealthState prometheus.Gauge

// SupervisorOptimizationScore is a Gauge of the most recent optimization score
var SupervisorOptimizationScore prometheus.Gauge

func init() {

	CacheObjectOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: cacheSubsystem,
			Name:      "operation_objects_total",
			Help:      "Count (in # of objects) of operations performed on a memwarden cache.",
		},
		[]string{"cache_name", "provider", "operation", "status"},
	)

	CacheByteOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: cacheSubsystem,
			Name:      "operation_bytes_total",
			Help:      "Count (in bytes) of operations performed on a memwarden cache.",
		},
		[]string{"cache_name", "provider", "operation", "status"},
	)

	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: cacheSubsystem,
			Name:      "events_total",
			Help:      "Count of events performed on a memwarden cache.",
		},
		[]string{"cache_name", "provider", "event", "reason"},
	)

	CacheObjects = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: cacheSubsystem,
			Name:      "usage_objects",
			Help:      "Number of objects in a memwarden cache.",
		},
		[]string{"cache_name", "provider"},
	)

	CacheBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: cacheSubsystem,
			Name:      "usage_bytes",
			Help:      "Number of bytes in a memwarden cache.",
		},
		[]string{"cache_name", "provider"},
	)

	CacheMaxObjects = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: cacheSubsystem,
			Name:      "max_usage_objects",
			Help:      "The cache's Max Object Threshold for triggering an eviction exercise.",
		},
		[]string{"cache_name", "provider"},
	)

	CacheMaxBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: cacheSubsystem,
			Name:      "max_usage_bytes",
			Help:      "The cache's Max Byte Threshold for triggering an eviction exercise.",
		},
		[]string{"cache_name", "provider"},
	)

	CacheHitRate = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: cacheSubsystem,
			Name:      "hit_rate",
			Help:      "Observed hit rate (0.0-1.0) for a memwarden cache.",
		},
		[]string{"cache_name"},
	)

	MemoryUsedPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: memorySubsystem,
			Name:      "used_percent",
			Help:      "Sampled system memory utilization percentage.",
		},
	)

	MemoryAvailableBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: memorySubsystem,
			Name:      "available_bytes",
			Help:      "Sampled available system memory in bytes.",
		},
	)

	MemoryPressureLevel = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: memorySubsystem,
			Name:      "pressure_level",
			Help:      "Classified memory pressure level ordinal (0=low 1=moderate 2=high 3=critical).",
		},
	)

	MemoryHeapAllocBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: memorySubsystem,
			Name:      "heap_alloc_bytes",
			Help:      "Allocated heap bytes of the running process.",
		},
	)

	MemorySwapUsedPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: memorySubsystem,
			Name:      "swap_used_percent",
			Help:      "Sampled swap utilization percentage.",
		},
	)

	TrackedResourceObjects = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: memorySubsystem,
			Name:      "tracked_resources",
			Help:      "Number of live resources registered with a memwarden resource tracker.",
		},
		[]string{"component"},
	)

	TrackedResourceBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: memorySubsystem,
			Name:      "tracked_resource_bytes",
			Help:      "Estimated bytes of live resources registered with a memwarden resource tracker.",
		},
		[]string{"component"},
	)

	OptimizationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: memorySubsystem,
			Name:      "optimizations_total",
			Help:      "Count of memory optimization passes and their outcomes.",
		},
		[]string{"trigger", "result"},
	)

	OptimizationFreedBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: memorySubsystem,
			Name:      "optimization_freed_bytes_total",
			Help:      "Bytes freed by memory optimization strategies.",
		},
		[]string{"strategy", "measurement"},
	)

	OptimizationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricNamespace,
			Subsystem: memorySubsystem,
			Name:      "optimization_duration_seconds",
			Help:      "Time required in seconds to run a memory optimization pass.",
			Buckets:   defaultBuckets,
		},
	)

	PoolResources = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: poolSubsystem,
			Name:      "resources",
			Help:      "Number of pooled resources by lifecycle state.",
		},
		[]string{"pool_name", "state"},
	)

	PoolAcquireQueueLength = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: poolSubsystem,
			Name:      "acquire_queue_length",
			Help:      "Number of callers waiting to acquire a pooled resource.",
		},
		[]string{"pool_name"},
	)

	PoolResourceEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: poolSubsystem,
			Name:      "resource_events_total",
			Help:      "Count of pooled resource lifecycle events.",
		},
		[]string{"pool_name", "event"},
	)

	PoolAcquireDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricNamespace,
			Subsystem: poolSubsystem,
			Name:      "acquire_duration_seconds",
			Help:      "Time required in seconds to acquire a pooled resource.",
			Buckets:   defaultBuckets,
		},
		[]string{"pool_name"},
	)

	SupervisorHealthScore = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: supervisorSubystem,
			Name:      "health_score",
			Help:      "Most recent composite health score (0.0-1.0).",
		},
	)

	SupervisorHealthState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: supervisorSubystem,
			Name:      "health_state",
			Help:      "Most recent health state ordinal (0=critical 1=poor 2=fair 3=good 4=excellent).",
		},
	)

	SupervisorOptimizationScore = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: supervisorSubystem,
			Name:      "optimization_score",
			Help:      "Most recent composite optimization score (0.0-1.0).",
		},
	)

	// Register Metrics
	prometheus.MustRegister(CacheObjectOperations)
	prometheus.MustRegister(CacheByteOperations)
	prometheus.MustRegister(CacheEvents)
	prometheus.MustRegister(CacheObjects)
	prometheus.MustRegister(CacheBytes)
	prometheus.MustRegister(CacheMaxObjects)
	prometheus.MustRegister(CacheMaxBytes)
	prometheus.MustRegister(CacheHitRate)
	prometheus.MustRegister(MemoryUsedPercent)
	prometheus.MustRegister(MemoryAvailableBytes)
	prometheus.MustRegister(MemoryPressureLevel)
	prometheus.MustRegister(MemoryHeapAllocBytes)
	prometheus.MustRegister(MemorySwapUsedPercent)
	prometheus.MustRegister(TrackedResourceObjects)
	prometheus.MustRegister(TrackedResourceBytes)
	prometheus.MustRegister(OptimizationRuns)
	prometheus.MustRegister(OptimizationFreedBytes)
	prometheus.MustRegister(OptimizationDuration)
	prometheus.MustRegister(PoolResources)
	prometheus.MustRegister(PoolAcquireQueueLength)
	prometheus.MustRegister(PoolResourceEvents)
	prometheus.MustRegister(PoolAcquireDuration)
	prometheus.MustRegister(SupervisorHealthScore)
	prometheus.MustRegister(SupervisorHealthState)
	prometheus.MustRegister(SupervisorOptimizationScore)
}

// Handler returns the http handler for the metrics listener
func Handler() http.Handler {
	return promhttp.Handler()
}

// ListenAndServe starts the metrics HTTP endpoint on the provided address and
// port in a background goroutine. A port of 0 disables the listener.
func ListenAndServe(address string, port int) {
	if port <= 0 {
		return
	}
	go func() {
		logger.Info("metrics http endpoint starting",
			logging.Pairs{"address": address, "port": port})
		mux := http.NewServeMux()
		mux.Handle("/metrics", Handler())
		pprof.RegisterHandlers(mux)
		if err := http.ListenAndServe(address+":"+strconv.Itoa(port),
			mux); err != nil {
			logger.Error("unable to start metrics http server",
				logging.Pairs{"detail": err.Error()})
		}
	}()
}
