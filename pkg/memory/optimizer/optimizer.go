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

// Package optimizer reclaims process memory on demand by composing
// progressively more invasive strategies: a standard collection pass, a
// sweep of stale tracked resources, registered reclamation callbacks, and
// an aggressive collection pass. Success is judged by the measured change
// in available system memory rather than by what each strategy reports.
package optimizer

import (
	"runtime"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pbnjay/memory"

	"github.com/memwarden/memwarden/pkg/memory/optimizer/options"
	"github.com/memwarden/memwarden/pkg/memory/tracker"
	"github.com/memwarden/memwarden/pkg/observability/logging"
	"github.com/memwarden/memwarden/pkg/observability/logging/logger"
	"github.com/memwarden/memwarden/pkg/observability/metrics"
)

// SuccessFraction is the share of the target that must be measurably freed
// for an optimization pass to report success
const SuccessFraction = 0.8

const (
	// StrategyGC is a standard garbage collection pass
	StrategyGC = "gc"
	// StrategyStaleSweep removes stale entries from the resource tracker
	StrategyStaleSweep = "stale_sweep"
	// StrategyCallbacks invokes the registered reclamation callbacks
	StrategyCallbacks = "callbacks"
	// StrategyAggressive collects repeatedly under a lowered GC target and
	// returns retained memory to the operating system
	StrategyAggressive = "aggressive_gc"
)

// Callback is a registered reclamation hook that returns the number of
// bytes it believes it freed
type Callback func() int64

type namedCallback struct {
	name string
	fn   Callback
}

// Result summarizes a completed optimization pass. FreedBytes is the
// measured available-memory delta; ReportedBytes is the sum of what the
// strategies claimed, which may differ.
type Result struct {
	Trigger        string        `json:"trigger"`
	StrategiesUsed []string      `json:"strategies_used"`
	TargetBytes    int64         `json:"target_bytes"`
	FreedBytes     int64         `json:"freed_bytes"`
	ReportedBytes  int64         `json:"reported_bytes"`
	Success        bool          `json:"success"`
	Duration       time.Duration `json:"duration"`
}

// Optimizer reclaims process memory up to a target by trying progressively
// more invasive strategies
type Optimizer struct {
	o  *options.Options
	tr *tracker.Tracker

	mtx       sync.Mutex
	callbacks []namedCallback

	// availableMemory is swappable so tests can simulate reclamation
	availableMemory func() uint64
}

// New returns an Optimizer. tr may be nil when no resource tracker is in
// play; the stale-sweep strategy is skipped in that case.
func New(tr *tracker.Tracker, o *options.Options) *Optimizer {
	if o == nil {
		o = options.New()
	} else {
		o = o.Clone()
	}
	if o.StaleAge <= 0 {
		o.StaleAge = options.DefaultStaleAge
	}
	if o.AggressiveGCPercent <= 0 {
		o.AggressiveGCPercent = options.DefaultAggressiveGCPercent
	}
	if o.AggressivePasses <= 0 {
		o.AggressivePasses = options.DefaultAggressivePasses
	}
	return &Optimizer{o: o, tr: tr, availableMemory: memory.FreeMemory}
}

// RegisterCallback adds a named reclamation hook invoked during the
// callback strategy of an optimization pass
func (op *Optimizer) RegisterCallback(name string, fn Callback) {
	if fn == nil {
		return
	}
	op.mtx.Lock()
	op.callbacks = append(op.callbacks, namedCallback{name, fn})
	op.mtx.Unlock()
}

// UnregisterCallback removes the named reclamation hook. Unknown names are
// ignored.
func (op *Optimizer) UnregisterCallback(name string) {
	op.mtx.Lock()
	op.callbacks = slices.DeleteFunc(op.callbacks,
		func(c namedCallback) bool { return c.name == name })
	op.mtx.Unlock()
}

// Optimize tries progressively more invasive reclamation strategies until
// at least targetFreeBytes of system memory is measurably freed or the
// strategies are exhausted. trigger names the initiator for logs and
// metrics.
func (op *Optimizer) Optimize(trigger string, targetFreeBytes int64) *Result {
	start := time.Now()
	before := int64(op.availableMemory())
	res := &Result{Trigger: trigger, TargetBytes: targetFreeBytes}
	measured := func() int64 {
		if d := int64(op.availableMemory()) - before; d > 0 {
			return d
		}
		return 0
	}

	runtime.GC()
	res.StrategiesUsed = append(res.StrategiesUsed, StrategyGC)
	freed := measured()
	recordStage(StrategyGC, freed, 0)

	if freed < targetFreeBytes && op.tr != nil {
		objects, reported := op.tr.SweepStale(op.o.StaleAge)
		runtime.GC()
		prev := freed
		freed = measured()
		res.StrategiesUsed = append(res.StrategiesUsed, StrategyStaleSweep)
		res.ReportedBytes += reported
		recordStage(StrategyStaleSweep, freed-prev, reported)
		logger.Debug("stale resources swept for optimization",
			logging.Pairs{"objects": objects, "reportedBytes": reported})
	}

	if freed < targetFreeBytes {
		reported := op.runCallbacks()
		runtime.GC()
		prev := freed
		freed = measured()
		res.StrategiesUsed = append(res.StrategiesUsed, StrategyCallbacks)
		res.ReportedBytes += reported
		recordStage(StrategyCallbacks, freed-prev, reported)
	}

	if freed < targetFreeBytes {
		op.aggressive()
		prev := freed
		freed = measured()
		res.StrategiesUsed = append(res.StrategiesUsed, StrategyAggressive)
		recordStage(StrategyAggressive, freed-prev, 0)
	}

	res.FreedBytes = freed
	res.Success = float64(freed) >= SuccessFraction*float64(targetFreeBytes)
	res.Duration = time.Since(start)

	result := "failure"
	if res.Success {
		result = "success"
	}
	metrics.OptimizationRuns.WithLabelValues(trigger, result).Inc()
	metrics.OptimizationDuration.Observe(res.Duration.Seconds())
	logger.Info("memory optimization complete", logging.Pairs{
		"trigger": trigger, "targetBytes": targetFreeBytes,
		"freedBytes": res.FreedBytes, "reportedBytes": res.ReportedBytes,
		"strategies": strings.Join(res.StrategiesUsed, ","),
		"success":    res.Success})
	return res
}

// runCallbacks invokes every registered callback, isolating failures so
// one misbehaving callback cannot block the others
func (op *Optimizer) runCallbacks() int64 {
	op.mtx.Lock()
	cbs := slices.Clone(op.callbacks)
	op.mtx.Unlock()
	var total int64
	for _, cb := range cbs {
		total += op.invoke(cb)
	}
	return total
}

func (op *Optimizer) invoke(cb namedCallback) (reported int64) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("optimization callback panic",
				logging.Pairs{"callback": cb.name, "panic": rec})
			reported = 0
		}
	}()
	if n := cb.fn(); n > 0 {
		reported = n
	}
	return
}

// aggressive temporarily lowers the collector's target percentage, forces
// several collection passes and returns retained memory to the operating
// system, then restores the previous setting
func (op *Optimizer) aggressive() {
	prev := debug.SetGCPercent(op.o.AggressiveGCPercent)
	for range op.o.AggressivePasses {
		runtime.GC()
	}
	debug.FreeOSMemory()
	debug.SetGCPercent(prev)
}

// recordStage publishes a stage's measured and reported contributions
func recordStage(strategy string, measuredDelta, reportedBytes int64) {
	if measuredDelta > 0 {
		metrics.OptimizationFreedBytes.WithLabelValues(strategy, "measured").
			Add(float64(measuredDelta))
	}
	if reportedBytes > 0 {
		metrics.OptimizationFreedBytes.WithLabelValues(strategy, "reported").
			Add(float64(reportedBytes))
	}
}
