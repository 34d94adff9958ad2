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
	"github.com/memwarden/memwarden/pkg/memory/tracker"
	"github.com/memwarden/memwarden/pkg/pool"
)

// MemoryStatus couples the most recent memory sample with the tracked
// resource ledger totals
type MemoryStatus struct {
	Sample  pressure.Sample    `json:"sample"`
	Tracked tracker.TotalUsage `json:"tracked"`
}

// MemoryStatus returns the current memory pressure sample and the tracked
// resource usage
func (s *Supervisor) MemoryStatus() MemoryStatus {
	return MemoryStatus{
		Sample:  s.monitor.Current(),
		Tracked: s.tracker.TotalUsage(),
	}
}

// StatusReport is a comprehensive account of the supervised system, suited
// for a status endpoint or an operator dump
type StatusReport struct {
	Time             time.Time           `json:"time"`
	Uptime           time.Duration       `json:"uptime"`
	Health           string              `json:"health"`
	Metrics          *SystemMetrics      `json:"metrics"`
	Caches           []stats.Stats       `json:"caches"`
	Pools            []*pool.Status      `json:"pools,omitempty"`
	Tracked          tracker.TotalUsage  `json:"tracked"`
	LastOptimization *OptimizationReport `json:"last_optimization,omitempty"`
	EvaluationCycles int64               `json:"evaluation_cycles"`
}

// StatusReport assembles the full system status: composite metrics,
// per-cache statistics, per-pool status and the most recent optimization
// report
func (s *Supervisor) StatusReport() *StatusReport {
	m := s.Metrics()
	return &StatusReport{
		Time:             m.Time,
		Uptime:           time.Since(s.started),
		Health:           m.Health.String(),
		Metrics:          m,
		Caches:           s.cacheSnapshots(),
		Pools:            s.poolStatuses(),
		Tracked:          s.tracker.TotalUsage(),
		LastOptimization: s.lastOpt.Load(),
		EvaluationCycles: s.cycles.Load(),
	}
}

func (s *Supervisor) poolStatuses() []*pool.Status {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	out := make([]*pool.Status, 0, len(s.pools))
	for _, p := range s.pools {
		out = append(out, p.Status())
	}
	slices.SortFunc(out, func(a, b *pool.Status) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// String renders the report as a multi-section operator summary
func (r *StatusReport) String() string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "system status at %s (up %s)\n",
		r.Time.Format(time.RFC3339), r.Uptime.Round(time.Second))
	fmt.Fprintf(sb, "health: %s (score %.2f)\n", r.Health,
		r.Metrics.HealthScore)
	fmt.Fprintf(sb, "memory: %.1f%% used, pressure %s, heap %s\n",
		r.Metrics.Memory.UsedPercent, r.Metrics.Memory.Level,
		byteCount(int64(r.Metrics.Memory.HeapAllocBytes)))
	fmt.Fprintf(sb, "caches: hit rate %.2f, optimization score %.2f\n",
		r.Metrics.CacheHitRate, r.Metrics.OptimizationScore)
	for _, c := range r.Caches {
		fmt.Fprintf(sb, "  %s (%s): %d hits, %d misses, %d writes, %d dropped\n",
			c.CacheName, c.Provider, c.Hits, c.Misses, c.Writes,
			c.DroppedWrites)
	}
	if len(r.Pools) > 0 {
		fmt.Fprintf(sb, "pools: %d in use of %d\n",
			r.Metrics.PoolsInUse, r.Metrics.PoolsTotal)
		for _, p := range r.Pools {
			fmt.Fprintf(sb, "  %s: %d available, %d in use, %d queued\n",
				p.Name, p.Available, p.InUse, p.QueueSize)
		}
	}
	fmt.Fprintf(sb, "tracked resources: %d (%s)\n",
		r.Tracked.ResourceCount, byteCount(r.Tracked.SizeBytes))
	if o := r.LastOptimization; o != nil {
		fmt.Fprintf(sb, "last optimization: %s trigger, freed %s in %s\n",
			o.Trigger, byteCount(o.FreedBytes), o.Duration.Round(time.Millisecond))
	}
	fmt.Fprintf(sb, "evaluation cycles: %d\n", r.EvaluationCycles)
	return sb.String()
}

// byteCount renders a byte total in a compact human-readable unit
func byteCount(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
