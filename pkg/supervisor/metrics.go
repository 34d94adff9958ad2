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

package supervisor

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/memwarden/memwarden/pkg/cache/stats"
	"github.com/memwarden/memwarden/pkg/memory/pressure"
	"github.com/memwarden/memwarden/pkg/observability/metrics"
)

// scoring weights of the performance analysis pass
const (
	scoreWeightHitRate   = 0.5
	scoreWeightLatency   = 0.3
	scoreWeightAdmission = 0.2
)

// retrievalLatencyBudget is the average retrieval time treated as fully
// performant; slower averages shrink the latency component proportionally
const retrievalLatencyBudget = 50 * time.Millisecond

// adviceMinLookups is the minimum lookup count before a cache's hit rate is
// meaningful enough to warrant an advisory
const adviceMinLookups = 100

// SystemMetrics is a point-in-time reading of every supervised subsystem,
// with the composite scores derived from it
type SystemMetrics struct {
	Time              time.Time       `json:"time"`
	Memory            pressure.Sample `json:"memory"`
	CacheStats        stats.Stats     `json:"cache_stats"`
	CacheHitRate      float64         `json:"cache_hit_rate"`
	PoolsInUse        int             `json:"pools_in_use"`
	PoolsTotal        int             `json:"pools_total"`
	PoolUtilization   float64         `json:"pool_utilization"`
	TrackedObjects    int64           `json:"tracked_objects"`
	TrackedBytes      int64           `json:"tracked_bytes"`
	OptimizationScore float64         `json:"optimization_score"`
	HealthScore       float64         `json:"health_score"`
	Health            HealthState     `json:"health"`
}

// Metrics samples every subsystem and returns the current SystemMetrics,
// publishing the derived scores as gauges
func (s *Supervisor) Metrics() *SystemMetrics {
	snaps := s.cacheSnapshots()
	agg := stats.Totals(snaps...)
	inUse, total := s.poolUsage()
	var utilization float64
	if total > 0 {
		utilization = float64(inUse) / float64(total)
	}
	score, _ := s.analyzePerformance(snaps)
	usage := s.tracker.TotalUsage()
	m := &SystemMetrics{
		Time:              time.Now(),
		Memory:            s.monitor.Current(),
		CacheStats:        agg,
		CacheHitRate:      effectiveHitRate(agg),
		PoolsInUse:        inUse,
		PoolsTotal:        total,
		PoolUtilization:   utilization,
		TrackedObjects:    usage.ResourceCount,
		TrackedBytes:      usage.SizeBytes,
		OptimizationScore: score,
	}
	m.HealthScore = HealthScore(m)
	m.Health = HealthFromScore(m.HealthScore)
	metrics.SupervisorHealthScore.Set(m.HealthScore)
	metrics.SupervisorHealthState.Set(float64(m.Health))
	metrics.SupervisorOptimizationScore.Set(m.OptimizationScore)
	return m
}

func (s *Supervisor) cacheSnapshots() []stats.Stats {
	snaps := make([]stats.Stats, 0, len(s.caches))
	for _, c := range s.caches {
		snaps = append(snaps, c.Stats().Snapshot())
	}
	slices.SortFunc(snaps, func(a, b stats.Stats) int {
		return strings.Compare(a.CacheName, b.CacheName)
	})
	return snaps
}

func (s *Supervisor) poolUsage() (inUse, total int) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	for _, p := range s.pools {
		st := p.Status()
		inUse += st.InUse
		total += st.Total
	}
	return inUse, total
}

// effectiveHitRate treats a cache with no lookups yet as fully performing,
// so that a cold start does not read as degraded health
func effectiveHitRate(agg stats.Stats) float64 {
	if agg.Hits+agg.Misses == 0 {
		return 1.0
	}
	return agg.HitRate
}

// analyzePerformance scores the caches on hit rate, retrieval latency and
// write admission, and collects advisories for caches dragging the
// aggregate down
func (s *Supervisor) analyzePerformance(snaps []stats.Stats) (float64, []string) {
	agg := stats.Totals(snaps...)
	hitRate := effectiveHitRate(agg)
	latency := 1.0
	if agg.AvgRetrievalTime > retrievalLatencyBudget {
		latency = float64(retrievalLatencyBudget) / float64(agg.AvgRetrievalTime)
	}
	admission := 1.0
	if writes := agg.Writes + agg.DroppedWrites; writes > 0 {
		admission = float64(agg.Writes) / float64(writes)
	}
	score := scoreWeightHitRate*hitRate + scoreWeightLatency*latency +
		scoreWeightAdmission*admission
	var advisories []string
	for _, cs := range snaps {
		if cs.Hits+cs.Misses >= adviceMinLookups && cs.HitRate < s.o.HitRateThreshold {
			advisories = append(advisories,
				fmt.Sprintf("cache %s: hit rate %.2f below %.2f",
					cs.CacheName, cs.HitRate, s.o.HitRateThreshold))
		}
		if cs.DroppedWrites > cs.Writes {
			advisories = append(advisories,
				fmt.Sprintf("cache %s: %d of %d writes dropped under memory pressure",
					cs.CacheName, cs.DroppedWrites, cs.Writes+cs.DroppedWrites))
		}
	}
	return score, advisories
}

// evaluate reports the reason the current metrics warrant an optimization
// cycle, if any
func (s *Supervisor) evaluate(m *SystemMetrics) (string, bool) {
	switch {
	case m.Health <= HealthPoor:
		return "health", true
	case m.Memory.Level >= pressure.LevelHigh:
		return "pressure", true
	case m.CacheHitRate < s.o.HitRateThreshold:
		return "hit_rate", true
	case m.OptimizationScore < s.o.OptimizationScoreThreshold:
		return "score", true
	}
	return "", false
}
