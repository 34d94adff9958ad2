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

package stats

import (
	"math"
	"testing"
	"time"
)

func TestHitRate(t *testing.T) {

	r := New("test", "memory")
	if r.HitRate() != 0 {
		t.Errorf("expected %f got %f", 0.0, r.HitRate())
	}

	r.ObserveHit(time.Millisecond)
	r.ObserveHit(time.Millisecond)
	r.ObserveHit(time.Millisecond)
	r.ObserveMiss(time.Millisecond)

	if r.HitRate() != 0.75 {
		t.Errorf("expected %f got %f", 0.75, r.HitRate())
	}

	s := r.Snapshot()
	if s.Hits != 3 || s.Misses != 1 {
		t.Errorf("expected 3 hits and 1 miss, got %d and %d", s.Hits, s.Misses)
	}
	if s.HitRate != 0.75 {
		t.Errorf("expected %f got %f", 0.75, s.HitRate)
	}
}

func TestAvgRetrievalTime(t *testing.T) {

	r := New("test", "memory")
	if r.AvgRetrievalTime() != 0 {
		t.Errorf("expected %d got %d", 0, r.AvgRetrievalTime())
	}

	// the first observation seeds the moving average
	r.ObserveHit(100 * time.Millisecond)
	if r.AvgRetrievalTime() != 100*time.Millisecond {
		t.Errorf("expected %s got %s", 100*time.Millisecond, r.AvgRetrievalTime())
	}

	// subsequent observations are smoothed: 0.2*200ms + 0.8*100ms = 120ms
	r.ObserveMiss(200 * time.Millisecond)
	got := r.AvgRetrievalTime()
	if math.Abs(got.Seconds()-0.12) > 0.0001 {
		t.Errorf("expected %s got %s", 120*time.Millisecond, got)
	}
}

func TestCounters(t *testing.T) {

	r := New("test", "memory")
	r.ObserveError()
	r.ObserveWrite()
	r.ObserveWrite()
	r.ObserveDroppedWrite()

	s := r.Snapshot()
	if s.Errors != 1 {
		t.Errorf("expected %d got %d", 1, s.Errors)
	}
	if s.Writes != 2 {
		t.Errorf("expected %d got %d", 2, s.Writes)
	}
	if s.DroppedWrites != 1 {
		t.Errorf("expected %d got %d", 1, s.DroppedWrites)
	}
	if s.CacheName != "test" || s.Provider != "memory" {
		t.Errorf("expected test/memory got %s/%s", s.CacheName, s.Provider)
	}
}

func TestUsage(t *testing.T) {

	r := New("test", "memory")
	s := r.Snapshot()
	if s.Objects != 0 || s.SizeBytes != 0 {
		t.Errorf("expected zero usage, got %d objects and %d bytes", s.Objects, s.SizeBytes)
	}
	if !s.LastUpdated.IsZero() {
		t.Errorf("expected zero last updated, got %s", s.LastUpdated)
	}

	r.SetUsageFunc(func() (int64, int64) { return 7, 7168 })
	r.ObserveWrite()

	s = r.Snapshot()
	if s.Objects != 7 || s.SizeBytes != 7168 {
		t.Errorf("expected 7 objects and 7168 bytes, got %d and %d", s.Objects, s.SizeBytes)
	}
	if s.LastUpdated.IsZero() {
		t.Error("expected last updated to be set after a write")
	}
}

func TestTotals(t *testing.T) {

	a := Stats{Hits: 8, Misses: 2, Writes: 5, AvgRetrievalTime: 100 * time.Millisecond,
		Objects: 10, SizeBytes: 1000, LastUpdated: time.Unix(100, 0)}
	b := Stats{Hits: 5, Misses: 5, DroppedWrites: 1, AvgRetrievalTime: 200 * time.Millisecond,
		Objects: 5, SizeBytes: 500, LastUpdated: time.Unix(200, 0)}

	out := Totals(a, b)
	if out.Hits != 13 || out.Misses != 7 {
		t.Errorf("expected 13 hits and 7 misses, got %d and %d", out.Hits, out.Misses)
	}
	if out.Writes != 5 || out.DroppedWrites != 1 {
		t.Errorf("expected 5 writes and 1 dropped, got %d and %d", out.Writes, out.DroppedWrites)
	}
	if out.HitRate != 0.65 {
		t.Errorf("expected %f got %f", 0.65, out.HitRate)
	}
	if out.Objects != 15 || out.SizeBytes != 1500 {
		t.Errorf("expected 15 objects and 1500 bytes, got %d and %d", out.Objects, out.SizeBytes)
	}
	if !out.LastUpdated.Equal(time.Unix(200, 0)) {
		t.Errorf("expected latest update time, got %s", out.LastUpdated)
	}

	// lookup-weighted average: (10*0.1 + 10*0.2) / 20 = 0.15
	if math.Abs(out.AvgRetrievalTime.Seconds()-0.15) > 0.0001 {
		t.Errorf("expected %s got %s", 150*time.Millisecond, out.AvgRetrievalTime)
	}

	// no lookups yields zero rate and latency
	empty := Totals(Stats{Writes: 2})
	if empty.HitRate != 0 || empty.AvgRetrievalTime != 0 {
		t.Errorf("expected zero rate and latency, got %f and %s",
			empty.HitRate, empty.AvgRetrievalTime)
	}
}
