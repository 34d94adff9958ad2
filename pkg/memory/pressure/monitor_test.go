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

package pressure

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/memwarden/memwarden/pkg/memory/pressure/options"
)

// newTestMonitor returns a Monitor whose system reader reports the provided
// used percentage against a fixed 1000-byte total, with no swap
func newTestMonitor(interval time.Duration, usedPercent *atomic.Int64) *Monitor {
	o := options.New()
	if interval > 0 {
		o.SampleInterval = interval
	}
	m := New(o)
	m.systemMemory = func() (uint64, uint64) {
		used := uint64(usedPercent.Load())
		return 1000, 1000 - used*10
	}
	m.swapMemory = func() (uint64, uint64) { return 0, 0 }
	return m
}

func TestSampleNow(t *testing.T) {
	var used atomic.Int64
	used.Store(75)
	m := newTestMonitor(0, &used)

	s := m.SampleNow()
	if s.UsedPercent < 74.99 || s.UsedPercent > 75.01 {
		t.Errorf("expected 75%% used, got %f", s.UsedPercent)
	}
	if s.Level != LevelModerate {
		t.Errorf("expected %s got %s", LevelModerate, s.Level)
	}
	if s.UsedBytes != 750 {
		t.Errorf("expected 750 bytes used, got %d", s.UsedBytes)
	}
	if s.SwapPercent != 0 {
		t.Errorf("expected no swap use, got %f", s.SwapPercent)
	}
	if s.HeapAllocBytes == 0 {
		t.Error("expected non-zero heap allocation")
	}

	m.swapMemory = func() (uint64, uint64) { return 2000, 500 }
	s = m.SampleNow()
	if s.SwapTotalBytes != 2000 || s.SwapUsedBytes != 500 {
		t.Errorf("expected swap 500/2000, got %d/%d",
			s.SwapUsedBytes, s.SwapTotalBytes)
	}
	if s.SwapPercent != 25 {
		t.Errorf("expected 25%% swap used, got %f", s.SwapPercent)
	}

	if c := m.Current(); c.Time != s.Time {
		t.Error("expected Current to return the latest sample")
	}
	if up := m.UsedPercent(); up != s.UsedPercent {
		t.Errorf("expected %f got %f", s.UsedPercent, up)
	}

	used.Store(95)
	s = m.SampleNow()
	if s.Level != LevelCritical {
		t.Errorf("expected %s got %s", LevelCritical, s.Level)
	}
}

func TestCurrentWithoutStart(t *testing.T) {
	m := New(nil)
	s := m.Current()
	if s.Time.IsZero() {
		t.Error("expected Current to take a sample on first use")
	}
	if s.UsedPercent < 0 || s.UsedPercent > 100 {
		t.Errorf("used percent out of range: %f", s.UsedPercent)
	}
}

func TestObserverIsolation(t *testing.T) {
	var used atomic.Int64
	used.Store(50)
	m := newTestMonitor(0, &used)

	var first, third atomic.Int64
	m.Subscribe(ObserverFunc(func(Sample) { first.Add(1) }))
	m.Subscribe(ObserverFunc(func(Sample) { panic("observer failure") }))
	m.Subscribe(ObserverFunc(func(Sample) { third.Add(1) }))
	m.Subscribe(nil)

	m.SampleNow()
	m.SampleNow()

	if first.Load() != 2 {
		t.Errorf("expected 2 notifications, got %d", first.Load())
	}
	// the panicking observer must not prevent later observers from running
	if third.Load() != 2 {
		t.Errorf("expected 2 notifications, got %d", third.Load())
	}
}

func TestUnsubscribe(t *testing.T) {
	var used atomic.Int64
	used.Store(50)
	m := newTestMonitor(0, &used)

	var kept, removed atomic.Int64
	m.Subscribe(ObserverFunc(func(Sample) { kept.Add(1) }))
	cancel := m.Subscribe(ObserverFunc(func(Sample) { removed.Add(1) }))

	m.SampleNow()
	cancel()
	cancel() // canceling twice must not disturb other observers
	m.SampleNow()

	if kept.Load() != 2 {
		t.Errorf("expected 2 notifications, got %d", kept.Load())
	}
	if removed.Load() != 1 {
		t.Errorf("expected 1 notification before unsubscribe, got %d",
			removed.Load())
	}
}

func TestStartStop(t *testing.T) {
	var used atomic.Int64
	used.Store(50)
	m := newTestMonitor(10*time.Millisecond, &used)

	var samples atomic.Int64
	m.Subscribe(ObserverFunc(func(Sample) { samples.Add(1) }))

	m.Start()
	m.Start() // second call must not spawn another sampler

	time.Sleep(55 * time.Millisecond)
	m.Stop()
	m.Stop() // second call must not panic

	got := samples.Load()
	if got < 2 {
		t.Errorf("expected at least 2 background samples, got %d", got)
	}
	if got > 8 {
		t.Errorf("expected a single sampler, got %d samples", got)
	}

	// restartable after stop
	m.Start()
	m.Stop()
}
