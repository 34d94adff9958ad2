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

// Package stats tracks per-cache lookup and write counters along with a
// smoothed retrieval latency, for health evaluation and the hit rate gauge
package stats

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/memwarden/memwarden/pkg/observability/metrics"
	"github.com/memwarden/memwarden/pkg/util/atomicx"
)

// emaAlpha is the smoothing factor for the retrieval latency moving average
const emaAlpha = 0.2

// UsageFunc reports the current object count and byte size of a cache
type UsageFunc func() (objects, bytes int64)

// Recorder accumulates cache statistics. All methods are safe for
// concurrent use.
type Recorder struct {
	cacheName     string
	provider      string
	hits          atomic.Int64
	misses        atomic.Int64
	errors        atomic.Int64
	writes        atomic.Int64
	droppedWrites atomic.Int64
	latency       atomic.Uint64
	lastUpdated   atomicx.Time
	usage         atomic.Pointer[UsageFunc]
}

// Stats is a point-in-time snapshot of a Recorder
type Stats struct {
	CacheName        string        `json:"cache_name,omitempty"`
	Provider         string        `json:"provider,omitempty"`
	Hits             int64         `json:"hits"`
	Misses           int64         `json:"misses"`
	Errors           int64         `json:"errors"`
	Writes           int64         `json:"writes"`
	DroppedWrites    int64         `json:"dropped_writes"`
	HitRate          float64       `json:"hit_rate"`
	AvgRetrievalTime time.Duration `json:"avg_retrieval_time"`
	Objects          int64         `json:"objects"`
	SizeBytes        int64         `json:"size_bytes"`
	LastUpdated      time.Time     `json:"last_updated"`
}

// New returns a Recorder for the named cache
func New(cacheName, provider string) *Recorder {
	return &Recorder{cacheName: cacheName, provider: provider}
}

// SetUsageFunc attaches the source of the cache's object count and byte
// size, included in each Snapshot
func (r *Recorder) SetUsageFunc(f UsageFunc) {
	if f != nil {
		r.usage.Store(&f)
	}
}

// ObserveHit records a cache hit and its retrieval latency
func (r *Recorder) ObserveHit(elapsed time.Duration) {
	r.hits.Add(1)
	r.observeLatency(elapsed)
	r.publishHitRate()
	r.lastUpdated.Store(time.Now())
}

// ObserveMiss records a cache miss and its retrieval latency
func (r *Recorder) ObserveMiss(elapsed time.Duration) {
	r.misses.Add(1)
	r.observeLatency(elapsed)
	r.publishHitRate()
	r.lastUpdated.Store(time.Now())
}

// ObserveError records a failed retrieval
func (r *Recorder) ObserveError() {
	r.errors.Add(1)
	r.lastUpdated.Store(time.Now())
}

// ObserveWrite records a successful write
func (r *Recorder) ObserveWrite() {
	r.writes.Add(1)
	r.lastUpdated.Store(time.Now())
}

// ObserveDroppedWrite records a write dropped under memory pressure
func (r *Recorder) ObserveDroppedWrite() {
	r.droppedWrites.Add(1)
	r.lastUpdated.Store(time.Now())
}

// HitRate returns hits / (hits + misses), or 0 when no lookups have occurred
func (r *Recorder) HitRate() float64 {
	hits := r.hits.Load()
	lookups := hits + r.misses.Load()
	if lookups == 0 {
		return 0
	}
	return float64(hits) / float64(lookups)
}

// AvgRetrievalTime returns the exponential moving average of observed
// retrieval latencies
func (r *Recorder) AvgRetrievalTime() time.Duration {
	secs := math.Float64frombits(r.latency.Load())
	return time.Duration(secs * float64(time.Second))
}

// Snapshot returns a point-in-time copy of the Recorder's counters
func (r *Recorder) Snapshot() Stats {
	s := Stats{
		CacheName:        r.cacheName,
		Provider:         r.provider,
		Hits:             r.hits.Load(),
		Misses:           r.misses.Load(),
		Errors:           r.errors.Load(),
		Writes:           r.writes.Load(),
		DroppedWrites:    r.droppedWrites.Load(),
		HitRate:          r.HitRate(),
		AvgRetrievalTime: r.AvgRetrievalTime(),
		LastUpdated:      r.lastUpdated.Load(),
	}
	if f := r.usage.Load(); f != nil {
		s.Objects, s.SizeBytes = (*f)()
	}
	return s
}

func (r *Recorder) observeLatency(elapsed time.Duration) {
	v := elapsed.Seconds()
	for {
		old := r.latency.Load()
		prev := math.Float64frombits(old)
		next := v
		if prev != 0 {
			next = emaAlpha*v + (1-emaAlpha)*prev
		}
		if r.latency.CompareAndSwap(old, math.Float64bits(next)) {
			return
		}
	}
}

func (r *Recorder) publishHitRate() {
	metrics.CacheHitRate.WithLabelValues(r.cacheName).Set(r.HitRate())
}

// Totals combines the provided snapshots into a single aggregate. The
// aggregate hit rate is recomputed from the summed counters, and the average
// retrieval time is the lookup-weighted mean of the inputs.
func Totals(snaps ...Stats) Stats {
	var out Stats
	var weightedLatency float64
	for _, s := range snaps {
		out.Hits += s.Hits
		out.Misses += s.Misses
		out.Errors += s.Errors
		out.Writes += s.Writes
		out.DroppedWrites += s.DroppedWrites
		out.Objects += s.Objects
		out.SizeBytes += s.SizeBytes
		if s.LastUpdated.After(out.LastUpdated) {
			out.LastUpdated = s.LastUpdated
		}
		weightedLatency += float64(s.Hits+s.Misses) * s.AvgRetrievalTime.Seconds()
	}
	if lookups := out.Hits + out.Misses; lookups > 0 {
		out.HitRate = float64(out.Hits) / float64(lookups)
		out.AvgRetrievalTime = time.Duration(
			weightedLatency / float64(lookups) * float64(time.Second))
	}
	return out
}
