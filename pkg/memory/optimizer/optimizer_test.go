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

package optimizer

import (
	"runtime"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/memwarden/memwarden/pkg/memory/optimizer/options"
	"github.com/memwarden/memwarden/pkg/memory/tracker"
)

// simMemory simulates reclaimable system memory for deterministic tests
type simMemory struct {
	available atomic.Int64
}

func (s *simMemory) free(n int64) {
	s.available.Add(n)
}

func (s *simMemory) read() uint64 {
	return uint64(s.available.Load())
}

func newTestOptimizer(tr *tracker.Tracker, o *options.Options) (*Optimizer, *simMemory) {
	sim := &simMemory{}
	sim.available.Store(1 << 30)
	op := New(tr, o)
	op.availableMemory = sim.read
	return op, sim
}

func TestOptimizeMeasuredGate(t *testing.T) {
	op, sim := newTestOptimizer(nil, nil)
	// the callback claims 150MB but only 50MB of the 100MB target shows
	// up in the measured delta, so the pass must not report success
	op.RegisterCallback("over-reporter", func() int64 {
		sim.free(50 << 20)
		return 150 << 20
	})
	res := op.Optimize("test", 100<<20)
	if res.Success {
		t.Error("expected failure when measured delta is under 80% of target")
	}
	if res.ReportedBytes != 150<<20 {
		t.Errorf("expected 150MB reported got %d", res.ReportedBytes)
	}
	if res.FreedBytes != 50<<20 {
		t.Errorf("expected 50MB measured got %d", res.FreedBytes)
	}
	if !slices.Contains(res.StrategiesUsed, StrategyCallbacks) {
		t.Errorf("expected the callback strategy, got %v", res.StrategiesUsed)
	}
	if !slices.Contains(res.StrategiesUsed, StrategyAggressive) {
		t.Errorf("expected the aggressive pass, got %v", res.StrategiesUsed)
	}
}

func TestOptimizeSuccess(t *testing.T) {
	op, sim := newTestOptimizer(nil, nil)
	op.RegisterCallback("cache-cleanup", func() int64 {
		sim.free(100 << 20)
		return 100 << 20
	})
	res := op.Optimize("test", 100<<20)
	if !res.Success {
		t.Error("expected success once the full target was freed")
	}
	if res.FreedBytes != 100<<20 {
		t.Errorf("expected 100MB measured got %d", res.FreedBytes)
	}
	if slices.Contains(res.StrategiesUsed, StrategyAggressive) {
		t.Error("expected no aggressive pass once the target was met")
	}
	if res.Duration <= 0 {
		t.Error("expected a positive duration")
	}
}

func TestOptimizeGCMeetsTarget(t *testing.T) {
	op, _ := newTestOptimizer(nil, nil)
	var calls atomic.Int64
	base := int64(1 << 30)
	op.availableMemory = func() uint64 {
		if calls.Add(1) == 1 {
			return uint64(base)
		}
		return uint64(base + 200<<20)
	}
	called := false
	op.RegisterCallback("untouched", func() int64 {
		called = true
		return 0
	})
	res := op.Optimize("test", 100<<20)
	if !res.Success {
		t.Error("expected success from the collection pass alone")
	}
	if len(res.StrategiesUsed) != 1 || res.StrategiesUsed[0] != StrategyGC {
		t.Errorf("expected only the gc strategy, got %v", res.StrategiesUsed)
	}
	if called {
		t.Error("expected later strategies to be skipped")
	}
}

func TestCallbackIsolation(t *testing.T) {
	op, sim := newTestOptimizer(nil, nil)
	var ran atomic.Int64
	op.RegisterCallback("faulty", func() int64 {
		panic("callback failure")
	})
	op.RegisterCallback("healthy", func() int64 {
		ran.Add(1)
		sim.free(10 << 20)
		return 10 << 20
	})
	op.RegisterCallback("negative", func() int64 {
		return -5
	})
	op.RegisterCallback("nil", nil)
	res := op.Optimize("test", 1<<30)
	if ran.Load() != 1 {
		t.Error("expected the healthy callback to run despite the panic")
	}
	if res.ReportedBytes != 10<<20 {
		t.Errorf("expected 10MB reported got %d", res.ReportedBytes)
	}
}

func TestUnregisterCallback(t *testing.T) {
	op, _ := newTestOptimizer(nil, nil)
	var ran atomic.Int64
	op.RegisterCallback("retired", func() int64 {
		ran.Add(1)
		return 0
	})
	op.UnregisterCallback("retired")
	op.UnregisterCallback("never-registered")
	op.Optimize("test", 1<<30)
	if ran.Load() != 0 {
		t.Error("expected the unregistered callback not to run")
	}
}

func TestStaleSweepStrategy(t *testing.T) {
	tr := tracker.New()
	buf := make([]byte, 2048)
	tracker.Track(tr, "model", "stale-handle", &buf, 2048)
	o := options.New()
	o.StaleAge = time.Nanosecond
	op, _ := newTestOptimizer(tr, o)
	time.Sleep(5 * time.Millisecond)
	res := op.Optimize("test", 1<<30)
	if !slices.Contains(res.StrategiesUsed, StrategyStaleSweep) {
		t.Errorf("expected a stale sweep, got %v", res.StrategiesUsed)
	}
	if res.ReportedBytes != 2048 {
		t.Errorf("expected 2048 reported bytes got %d", res.ReportedBytes)
	}
	if tu := tr.TotalUsage(); tu.ResourceCount != 0 {
		t.Errorf("expected an empty tracker, got %d resources", tu.ResourceCount)
	}
	runtime.KeepAlive(&buf)
}

func TestOptimizeZeroTarget(t *testing.T) {
	op, _ := newTestOptimizer(nil, nil)
	res := op.Optimize("test", 0)
	if !res.Success {
		t.Error("expected success for a zero target")
	}
	if len(res.StrategiesUsed) != 1 {
		t.Errorf("expected only the gc strategy, got %v", res.StrategiesUsed)
	}
}
