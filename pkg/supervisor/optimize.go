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
	"maps"
	"slices"
	"time"

	"github.com/memwarden/memwarden/pkg/memory/optimizer"
	"github.com/memwarden/memwarden/pkg/observability/logging"
	"github.com/memwarden/memwarden/pkg/observability/logging/logger"
)

// aggressiveTargetFactor scales the reclamation target of an aggressive
// optimization cycle
const aggressiveTargetFactor = 2

// Observer is notified whenever an optimization cycle completes
type Observer interface {
	OnOptimization(*OptimizationReport)
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(*OptimizationReport)

// OnOptimization calls f
func (f ObserverFunc) OnOptimization(r *OptimizationReport) { f(r) }

// OptimizationReport summarizes one optimization cycle: the cache evictions,
// the pool trim, the memory reclamation pass, and the performance analysis
// that followed
type OptimizationReport struct {
	Time         time.Time         `json:"time"`
	Trigger      string            `json:"trigger"`
	Aggressive   bool              `json:"aggressive"`
	CacheObjects int64             `json:"cache_objects_evicted"`
	CacheBytes   int64             `json:"cache_bytes_evicted"`
	PoolsTrimmed int               `json:"pool_resources_trimmed"`
	Memory       *optimizer.Result `json:"memory"`
	FreedBytes   int64             `json:"freed_bytes"`
	Score        float64           `json:"optimization_score"`
	Advisories   []string          `json:"advisories,omitempty"`
	Duration     time.Duration     `json:"duration"`
}

// Subscribe registers an Observer for optimization reports. A panicking
// observer is logged and skipped; the remaining observers are still
// notified.
func (s *Supervisor) Subscribe(o Observer) {
	if o == nil {
		return
	}
	s.mtx.Lock()
	s.observers = append(s.observers, o)
	s.mtx.Unlock()
}

// Optimize runs a full optimization cycle: on-demand cache cleanup, a
// memory reclamation pass, then a performance analysis. When aggressive,
// the reclamation target is scaled by aggressiveTargetFactor. Returns nil
// on a shut-down Supervisor.
func (s *Supervisor) Optimize(aggressive bool) *OptimizationReport {
	return s.optimize("manual", aggressive)
}

// OptimizeIfNeeded samples the system and optimizes when the health state,
// pressure level, hit rate or optimization score warrants it, or always
// when force is set. The second return indicates whether a cycle ran. An
// unforced cycle runs aggressively when health is critical.
func (s *Supervisor) OptimizeIfNeeded(force bool) (*OptimizationReport, bool) {
	m := s.Metrics()
	trigger, needed := s.evaluate(m)
	if !needed {
		if !force {
			return nil, false
		}
		trigger = "forced"
	}
	r := s.optimize(trigger, m.Health == HealthCritical)
	return r, r != nil
}

func (s *Supervisor) optimize(trigger string, aggressive bool) *OptimizationReport {
	s.mtx.Lock()
	if s.closed {
		s.mtx.Unlock()
		logger.Warn("optimization requested after shutdown",
			logging.Pairs{"trigger": trigger})
		return nil
	}
	s.mtx.Unlock()
	start := time.Now()
	var cacheObjects, cacheBytes int64
	for _, c := range s.caches {
		if cl, ok := c.(cleaner); ok {
			objects, bytes := cl.Cleanup()
			cacheObjects += objects
			cacheBytes += bytes
		}
	}
	s.mtx.Lock()
	pools := slices.Collect(maps.Values(s.pools))
	s.mtx.Unlock()
	var poolsTrimmed int
	for _, p := range pools {
		poolsTrimmed += p.TrimIdle()
	}
	target := s.o.OptimizeTargetMB << 20
	if aggressive {
		target *= aggressiveTargetFactor
	}
	res := s.optimizer.Optimize(trigger, target)
	score, advisories := s.analyzePerformance(s.cacheSnapshots())
	r := &OptimizationReport{
		Time:         start,
		Trigger:      trigger,
		Aggressive:   aggressive,
		CacheObjects: cacheObjects,
		CacheBytes:   cacheBytes,
		PoolsTrimmed: poolsTrimmed,
		Memory:       res,
		FreedBytes:   cacheBytes + res.FreedBytes,
		Score:        score,
		Advisories:   advisories,
		Duration:     time.Since(start),
	}
	s.lastOpt.Store(r)
	for _, a := range advisories {
		logger.Debug("performance advisory", logging.Pairs{"advisory": a})
	}
	logger.Info("optimization cycle complete", logging.Pairs{
		"trigger": trigger, "aggressive": aggressive,
		"cacheBytes": cacheBytes, "poolsTrimmed": poolsTrimmed,
		"freedBytes": r.FreedBytes, "score": score,
		"duration": r.Duration})
	s.notify(r)
	return r
}

func (s *Supervisor) notify(r *OptimizationReport) {
	s.mtx.Lock()
	obs := slices.Clone(s.observers)
	s.mtx.Unlock()
	for _, o := range obs {
		s.dispatch(o, r)
	}
}

func (s *Supervisor) dispatch(o Observer, r *OptimizationReport) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("optimization observer panic",
				logging.Pairs{"error": rec})
		}
	}()
	o.OnOptimization(r)
}
