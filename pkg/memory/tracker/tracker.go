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

// Package tracker maintains bookkeeping for the approximate memory held by
// named in-process resources. The tracker references each resource weakly,
// so tracking never extends a resource's lifetime, and an entry removes
// itself once its resource is garbage-collected.
package tracker

import (
	"runtime"
	"sync"
	"time"
	"weak"

	"github.com/memwarden/memwarden/pkg/observability/logging"
	"github.com/memwarden/memwarden/pkg/observability/logging/logger"
	"github.com/memwarden/memwarden/pkg/observability/metrics"
	"github.com/memwarden/memwarden/pkg/util/atomicx"
)

// DefaultStaleAge is the default last-access age beyond which a tracked
// resource is considered stale
const DefaultStaleAge = 30 * time.Minute

// ResourceInfo describes a single tracked resource
type ResourceInfo struct {
	Component  string    `json:"component"`
	ResourceID string    `json:"resource_id"`
	SizeBytes  int64     `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at"`
	LastAccess time.Time `json:"last_access"`
}

// Usage aggregates the live resources registered under one component
type Usage struct {
	Component     string         `json:"component"`
	ResourceCount int64          `json:"resource_count"`
	SizeBytes     int64          `json:"size_bytes"`
	Resources     []ResourceInfo `json:"resources,omitempty"`
}

// TotalUsage aggregates the live resources across all components
type TotalUsage struct {
	ResourceCount int64             `json:"resource_count"`
	SizeBytes     int64             `json:"size_bytes"`
	Components    map[string]*Usage `json:"components"`
}

type entry struct {
	component  string
	resourceID string
	size       int64
	created    time.Time
	lastAccess atomicx.Time
	alive      func() bool
}

func (e *entry) info() ResourceInfo {
	return ResourceInfo{Component: e.component, ResourceID: e.resourceID,
		SizeBytes: e.size, CreatedAt: e.created, LastAccess: e.lastAccess.Load()}
}

// Tracker is a weak-reference ledger of named resources, keyed by
// (component, resource id). All methods are safe for concurrent use.
type Tracker struct {
	mtx     sync.Mutex
	entries map[string]*entry
}

// New returns an empty Tracker
func New() *Tracker {
	return &Tracker{entries: make(map[string]*entry)}
}

func entryKey(component, resourceID string) string {
	return component + "/" + resourceID
}

// Track registers the resource under (component, resourceID) with the
// provided size estimate. The Tracker holds only a weak reference; when the
// resource is collected, its entry is removed automatically. Registering an
// existing id replaces the prior entry.
func Track[T any](tr *Tracker, component, resourceID string, res *T, sizeBytes int64) {
	if tr == nil || res == nil {
		return
	}
	wp := weak.Make(res)
	now := time.Now()
	e := &entry{
		component:  component,
		resourceID: resourceID,
		size:       sizeBytes,
		created:    now,
		alive:      func() bool { return wp.Value() != nil },
	}
	e.lastAccess.Store(now)
	tr.insert(e)
	runtime.AddCleanup(res, tr.drop, e)
}

func (tr *Tracker) insert(e *entry) {
	k := entryKey(e.component, e.resourceID)
	tr.mtx.Lock()
	old, replaced := tr.entries[k]
	tr.entries[k] = e
	tr.mtx.Unlock()
	if replaced {
		tr.unpublish(old)
	}
	metrics.TrackedResourceObjects.WithLabelValues(e.component).Inc()
	metrics.TrackedResourceBytes.WithLabelValues(e.component).Add(float64(e.size))
	logger.Debug("resource registered",
		logging.Pairs{"component": e.component, "resource": e.resourceID,
			"sizeBytes": e.size})
}

// drop is the GC cleanup path. A stale cleanup for an entry that has since
// been replaced or removed is a no-op.
func (tr *Tracker) drop(e *entry) {
	k := entryKey(e.component, e.resourceID)
	tr.mtx.Lock()
	cur, ok := tr.entries[k]
	if !ok || cur != e {
		tr.mtx.Unlock()
		return
	}
	delete(tr.entries, k)
	tr.mtx.Unlock()
	tr.unpublish(e)
	logger.Debug("resource released",
		logging.Pairs{"component": e.component, "resource": e.resourceID})
}

func (tr *Tracker) unpublish(e *entry) {
	metrics.TrackedResourceObjects.WithLabelValues(e.component).Dec()
	metrics.TrackedResourceBytes.WithLabelValues(e.component).Sub(float64(e.size))
}

// Touch updates the last-access time for the identified resource, returning
// false if it is not registered
func (tr *Tracker) Touch(component, resourceID string) bool {
	tr.mtx.Lock()
	e, ok := tr.entries[entryKey(component, resourceID)]
	tr.mtx.Unlock()
	if !ok {
		return false
	}
	e.lastAccess.Store(time.Now())
	return true
}

// Remove immediately deletes the identified resource from the ledger,
// returning false if it was not registered
func (tr *Tracker) Remove(component, resourceID string) bool {
	k := entryKey(component, resourceID)
	tr.mtx.Lock()
	e, ok := tr.entries[k]
	if ok {
		delete(tr.entries, k)
	}
	tr.mtx.Unlock()
	if !ok {
		return false
	}
	tr.unpublish(e)
	return true
}

// Usage aggregates the currently-live resources of one component. Resources
// whose objects have been collected but not yet cleaned up are excluded, so
// totals never count dead resources.
func (tr *Tracker) Usage(component string) Usage {
	u := Usage{Component: component}
	tr.mtx.Lock()
	defer tr.mtx.Unlock()
	for _, e := range tr.entries {
		if e.component != component || !e.alive() {
			continue
		}
		u.ResourceCount++
		u.SizeBytes += e.size
		u.Resources = append(u.Resources, e.info())
	}
	return u
}

// TotalUsage aggregates the currently-live resources across all components
func (tr *Tracker) TotalUsage() TotalUsage {
	t := TotalUsage{Components: make(map[string]*Usage)}
	tr.mtx.Lock()
	defer tr.mtx.Unlock()
	for _, e := range tr.entries {
		if !e.alive() {
			continue
		}
		u, ok := t.Components[e.component]
		if !ok {
			u = &Usage{Component: e.component}
			t.Components[e.component] = u
		}
		u.ResourceCount++
		u.SizeBytes += e.size
		t.ResourceCount++
		t.SizeBytes += e.size
	}
	return t
}

// FindStale returns the live resources whose last access is older than the
// provided age. A non-positive age applies DefaultStaleAge.
func (tr *Tracker) FindStale(olderThan time.Duration) []ResourceInfo {
	if olderThan <= 0 {
		olderThan = DefaultStaleAge
	}
	cutoff := time.Now().Add(-olderThan)
	var stale []ResourceInfo
	tr.mtx.Lock()
	defer tr.mtx.Unlock()
	for _, e := range tr.entries {
		if !e.alive() {
			continue
		}
		if e.lastAccess.Load().Before(cutoff) {
			stale = append(stale, e.info())
		}
	}
	return stale
}

// SweepStale removes entries stale for longer than olderThan and returns the
// object and byte counts removed
func (tr *Tracker) SweepStale(olderThan time.Duration) (int64, int64) {
	stale := tr.FindStale(olderThan)
	var objects, bytes int64
	for _, r := range stale {
		if tr.Remove(r.Component, r.ResourceID) {
			objects++
			bytes += r.SizeBytes
		}
	}
	if objects > 0 {
		logger.Debug("stale resources swept",
			logging.Pairs{"objects": objects, "bytes": bytes})
	}
	return objects, bytes
}
