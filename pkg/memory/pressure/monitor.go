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

// Package pressure samples system and process memory usage on an interval,
// classifies each sample into a pressure level, and fans samples out to
// subscribed observers
package pressure

import (
	"context"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/memwarden/memwarden/pkg/memory/pressure/options"
	"github.com/memwarden/memwarden/pkg/observability/logging"
	"github.com/memwarden/memwarden/pkg/observability/logging/logger"
	"github.com/memwarden/memwarden/pkg/observability/metrics"

	"github.com/pbnjay/memory"
)

// Sample is a point-in-time observation of system and process memory usage
type Sample struct {
	Time           time.Time `json:"time"`
	UsedPercent    float64   `json:"used_percent"`
	TotalBytes     uint64    `json:"total_bytes"`
	AvailableBytes uint64    `json:"available_bytes"`
	UsedBytes      uint64    `json:"used_bytes"`
	SwapTotalBytes uint64    `json:"swap_total_bytes"`
	SwapUsedBytes  uint64    `json:"swap_used_bytes"`
	SwapPercent    float64   `json:"swap_percent"`
	HeapAllocBytes uint64    `json:"heap_alloc_bytes"`
	HeapSysBytes   uint64    `json:"heap_sys_bytes"`
	Level          Level     `json:"level"`
}

// Observer is notified of each memory sample taken by the Monitor
type Observer interface {
	OnMemorySample(Sample)
}

// ObserverFunc adapts an ordinary function to the Observer interface
type ObserverFunc func(Sample)

// OnMemorySample calls f(s)
func (f ObserverFunc) OnMemorySample(s Sample) {
	f(s)
}

// subscription wraps an Observer so it can be removed by identity even when
// the Observer's dynamic type is not comparable
type subscription struct {
	o Observer
}

// Monitor periodically samples memory usage and notifies observers.
// A misbehaving observer cannot interrupt sampling or starve its peers.
// The zero Monitor is not usable; use New.
type Monitor struct {
	interval  time.Duration
	mtx       sync.Mutex
	observers []*subscription
	cancel    context.CancelFunc
	latest    atomic.Value // Sample

	// systemMemory reports total and available system memory in bytes and
	// swapMemory reports total and used swap; swappable so tests can
	// simulate pressure
	systemMemory func() (uint64, uint64)
	swapMemory   func() (uint64, uint64)
}

// New returns a Monitor configured with the provided Options
func New(o *options.Options) *Monitor {
	if o == nil {
		o = options.New()
	}
	interval := o.SampleInterval
	if interval <= 0 {
		interval = options.DefaultSampleInterval
	}
	return &Monitor{
		interval:     interval,
		systemMemory: readSystemMemory,
		swapMemory:   readSwapMemory,
	}
}

func readSystemMemory() (uint64, uint64) {
	total, available := memory.TotalMemory(), memory.FreeMemory()
	if mi, ok := readMeminfo(); ok && mi.availableBytes > 0 {
		available = mi.availableBytes
	}
	return total, available
}

func readSwapMemory() (uint64, uint64) {
	mi, ok := readMeminfo()
	if !ok || mi.swapTotalBytes == 0 {
		return 0, 0
	}
	return mi.swapTotalBytes, mi.swapTotalBytes - mi.swapFreeBytes
}

// Subscribe registers the observer for sample notifications and returns a
// function that unsubscribes it
func (m *Monitor) Subscribe(o Observer) func() {
	if o == nil {
		return func() {}
	}
	s := &subscription{o}
	m.mtx.Lock()
	m.observers = append(m.observers, s)
	m.mtx.Unlock()
	return func() {
		m.mtx.Lock()
		m.observers = slices.DeleteFunc(m.observers,
			func(x *subscription) bool { return x == s })
		m.mtx.Unlock()
	}
}

// Start begins background sampling. Starting a running Monitor has no effect.
func (m *Monitor) Start() {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go m.run(ctx)
	logger.Info("memory pressure monitor started",
		logging.Pairs{"sampleInterval": m.interval})
}

// Stop halts background sampling. Stopping a stopped Monitor has no effect.
func (m *Monitor) Stop() {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.cancel = nil
	logger.Info("memory pressure monitor stopped", nil)
}

func (m *Monitor) run(ctx context.Context) {
	m.SampleNow()
MONITOR:
	for {
		select {
		case <-ctx.Done():
			break MONITOR
		case <-time.After(m.interval):
			m.SampleNow()
		}
	}
}

// SampleNow takes an immediate sample, publishes gauges, notifies observers,
// and returns the sample
func (m *Monitor) SampleNow() Sample {
	s := m.sample()
	prev, _ := m.latest.Load().(Sample)
	m.latest.Store(s)

	metrics.MemoryUsedPercent.Set(s.UsedPercent)
	metrics.MemoryAvailableBytes.Set(float64(s.AvailableBytes))
	metrics.MemoryPressureLevel.Set(float64(s.Level))
	metrics.MemoryHeapAllocBytes.Set(float64(s.HeapAllocBytes))
	metrics.MemorySwapUsedPercent.Set(s.SwapPercent)

	if !prev.Time.IsZero() && prev.Level != s.Level {
		logger.Info("memory pressure level changed",
			logging.Pairs{"from": prev.Level.String(), "to": s.Level.String(),
				"usedPercent": s.UsedPercent})
	}

	m.notify(s)
	return s
}

func (m *Monitor) sample() Sample {
	total, available := m.systemMemory()
	var used float64
	if total > 0 {
		used = 100 * (1 - (float64(available) / float64(total)))
	}
	swapTotal, swapUsed := m.swapMemory()
	var swapPercent float64
	if swapTotal > 0 {
		swapPercent = 100 * float64(swapUsed) / float64(swapTotal)
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return Sample{
		Time:           time.Now(),
		UsedPercent:    used,
		TotalBytes:     total,
		AvailableBytes: available,
		UsedBytes:      total - available,
		SwapTotalBytes: swapTotal,
		SwapUsedBytes:  swapUsed,
		SwapPercent:    swapPercent,
		HeapAllocBytes: ms.HeapAlloc,
		HeapSysBytes:   ms.HeapSys,
		Level:          Classify(used),
	}
}

// Current returns the most recent sample, taking one first if none has been
// taken yet
func (m *Monitor) Current() Sample {
	if s, ok := m.latest.Load().(Sample); ok {
		return s
	}
	return m.SampleNow()
}

// UsedPercent returns the system memory used percentage from the most recent
// sample. It implements the PressureSource consulted by governed caches.
func (m *Monitor) UsedPercent() float64 {
	return m.Current().UsedPercent
}

func (m *Monitor) notify(s Sample) {
	m.mtx.Lock()
	subs := slices.Clone(m.observers)
	m.mtx.Unlock()
	for _, sub := range subs {
		m.dispatch(sub.o, s)
	}
}

// dispatch isolates observer failures so one misbehaving observer cannot
// prevent the others from being notified
func (m *Monitor) dispatch(o Observer, s Sample) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("memory observer panic",
				logging.Pairs{"level": s.Level.String(), "panic": r})
		}
	}()
	o.OnMemorySample(s)
}
