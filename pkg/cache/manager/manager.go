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

package manager

import (
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/memwarden/memwarden/pkg/cache"
	"github.com/memwarden/memwarden/pkg/cache/index"
	"github.com/memwarden/memwarden/pkg/cache/metrics"
	"github.com/memwarden/memwarden/pkg/cache/options"
	"github.com/memwarden/memwarden/pkg/cache/stats"
	"github.com/memwarden/memwarden/pkg/cache/status"
	"github.com/memwarden/memwarden/pkg/locks"
	"github.com/memwarden/memwarden/pkg/observability/logging"
	"github.com/memwarden/memwarden/pkg/observability/logging/logger"
	"golang.org/x/sync/singleflight"
)

// evictionFraction is the minimum share of entries removed by a
// pressure-triggered cleanup pass
const evictionFraction = 0.25

// CacheOptions provides initialization options to the Manager / cache.Cache creation
type CacheOptions struct {
	UseIndex     bool
	IndexCliOpts index.IndexedClientOptions
}

func NewCache(cli cache.Client, cacheOpts CacheOptions, cacheConfig *options.Options) cache.Cache {
	cm := &Manager{
		Client:      cli,
		originalCli: cli,
		config:      cacheConfig,
		opts:        cacheOpts,
		stats:       stats.New(cacheConfig.Name, cacheConfig.Provider),
	}
	cm.stats.SetUsageFunc(cm.Usage)
	cm.locker = locks.NewNamedLocker()
	return cm
}

// Manager implements the cache.Cache interface for Memwarden, providing an
// abstracted cache layer with metrics, locking, statistics, write admission
// under memory pressure, and optional index / LRU-key-reaper.
type Manager struct {
	cache.Client
	originalCli cache.Client
	sf          singleflight.Group
	config      *options.Options
	locker      locks.NamedLocker
	opts        CacheOptions
	stats       *stats.Recorder
	pressure    atomic.Value // cache.PressureSource
}

func (cm *Manager) lockName(cacheKey string) string {
	return filepath.Join(cm.config.Name, cm.config.Provider, cacheKey)
}

func (cm *Manager) pressureSource() cache.PressureSource {
	if v := cm.pressure.Load(); v != nil {
		return v.(cache.PressureSource)
	}
	return nil
}

// SetPressureSource attaches the memory utilization source consulted on
// writes. Until one is set, writes are always admitted.
func (cm *Manager) SetPressureSource(ps cache.PressureSource) {
	if ps != nil {
		cm.pressure.Store(ps)
	}
}

// underWritePressure reports whether the write should be dropped because
// system memory utilization is at or above the configured ceiling
func (cm *Manager) underWritePressure(cacheKey string, size int) bool {
	ps := cm.pressureSource()
	if ps == nil || cm.config.WriteDropPercent <= 0 {
		return false
	}
	used := ps.UsedPercent()
	if used < cm.config.WriteDropPercent {
		return false
	}
	cm.stats.ObserveDroppedWrite()
	metrics.ObserveCacheEvent(cm.config.Name, cm.config.Provider, "write_dropped",
		"memory utilization at or above write drop threshold")
	logger.Warn("cache write dropped under memory pressure",
		logging.Pairs{"key": cacheKey, "provider": cm.config.Provider,
			"usedPercent": used, "size": size})
	return true
}

// maybeCleanup evicts the oldest entries and forces a garbage collection
// pass when system memory utilization is at or above the cleanup threshold,
// or when admitting the incoming bytes would exceed the cache size budget
func (cm *Manager) maybeCleanup(incoming int64) {
	ev, ok := cm.Client.(cache.Evictor)
	if !ok {
		return
	}
	var pressured bool
	if ps := cm.pressureSource(); ps != nil && cm.config.CleanupPercent > 0 {
		pressured = ps.UsedPercent() >= cm.config.CleanupPercent
	}
	var bytesNeeded int64
	if ur, ok := cm.Client.(cache.UsageReporter); ok && cm.config.Index != nil &&
		cm.config.Index.MaxSizeBytes > 0 {
		if _, byteSize := ur.Usage(); byteSize+incoming > cm.config.Index.MaxSizeBytes {
			bytesNeeded = byteSize + incoming - cm.config.Index.MaxSizeBytes +
				cm.config.Index.MaxSizeBackoffBytes
		}
	}
	if !pressured && bytesNeeded == 0 {
		return
	}
	objects, bytes := ev.EvictOldest(evictionFraction, bytesNeeded)
	logger.Debug("pre-store cache cleanup",
		logging.Pairs{"provider": cm.config.Provider, "underPressure": pressured,
			"objectsEvicted": objects, "bytesEvicted": bytes})
	runtime.GC()
}

// Cleanup evicts the oldest resident entries and forces a collection pass,
// returning the evicted object and byte counts. It is the on-demand form of
// the pre-store cleanup, for callers orchestrating reclamation across caches.
func (cm *Manager) Cleanup() (int64, int64) {
	ev, ok := cm.Client.(cache.Evictor)
	if !ok {
		return 0, 0
	}
	objects, bytes := ev.EvictOldest(evictionFraction, 0)
	logger.Debug("on-demand cache cleanup",
		logging.Pairs{"provider": cm.config.Provider,
			"objectsEvicted": objects, "bytesEvicted": bytes})
	runtime.GC()
	return objects, bytes
}

func (cm *Manager) Store(cacheKey string, byteData []byte, ttl time.Duration) error {
	cm.maybeCleanup(int64(len(byteData)))
	if cm.underWritePressure(cacheKey, len(byteData)) {
		return nil
	}
	nl, _ := cm.locker.Acquire(cm.lockName(cacheKey))
	defer nl.Release()
	metrics.ObserveCacheOperation(cm.config.Name, cm.config.Provider, "set", "none", float64(len(byteData)))
	logger.Debug("cache store", logging.Pairs{"key": cacheKey, "provider": cm.config.Provider})
	err := cm.Client.Store(cacheKey, byteData, ttl)
	if err == nil {
		cm.stats.ObserveWrite()
	}
	return err
}

func (cm *Manager) StoreReference(cacheKey string, data cache.ReferenceObject, ttl time.Duration) error {
	cm.maybeCleanup(int64(data.Size()))
	if cm.underWritePressure(cacheKey, data.Size()) {
		return nil
	}
	nl, _ := cm.locker.Acquire(cm.lockName(cacheKey))
	defer nl.Release()
	metrics.ObserveCacheOperation(cm.config.Name, cm.config.Provider, "setDirect", "none", float64(data.Size()))
	logger.Debug("cache store", logging.Pairs{"key": cacheKey, "provider": cm.config.Provider})
	err := cm.Client.(cache.MemoryCache).StoreReference(cacheKey, data, ttl)
	if err == nil {
		cm.stats.ObserveWrite()
	}
	return err
}

func (cm *Manager) observeRetrieval(cacheKey string, elapsed time.Duration, size int,
	s status.LookupStatus, err error) {
	if err == cache.ErrKNF || s == status.LookupStatusKeyMiss {
		cm.stats.ObserveMiss(elapsed)
		logger.Debug("cache miss", logging.Pairs{"key": cacheKey, "provider": cm.config.Provider})
		metrics.ObserveCacheMiss(cm.config.Name, cm.config.Provider)
	} else if err != nil {
		cm.stats.ObserveError()
		logger.Debug("cache retrieve failed", logging.Pairs{"key": cacheKey, "provider": cm.config.Provider})
		metrics.ObserveCacheEvent(cm.config.Name, cm.config.Provider, "error", "failed to retrieve cache entry")
	} else if s == status.LookupStatusHit {
		cm.stats.ObserveHit(elapsed)
		logger.Debug("cache retrieve", logging.Pairs{"key": cacheKey, "provider": cm.config.Provider})
		metrics.ObserveCacheOperation(cm.config.Name, cm.config.Provider, "get", "hit", float64(size))
	}
}

func (cm *Manager) RetrieveReference(cacheKey string) (any, status.LookupStatus, error) {
	nl, _ := cm.locker.RAcquire(cm.lockName(cacheKey))
	defer nl.RRelease()
	start := time.Now()
	v, s, err := cm.Client.(cache.MemoryCache).RetrieveReference(cacheKey)
	if ro, ok := v.(cache.ReferenceObject); ok {
		cm.observeRetrieval(cacheKey, time.Since(start), ro.Size(), s, err)
	} else {
		cm.observeRetrieval(cacheKey, time.Since(start), 0, s, err)
	}
	return v, s, err
}

type retrieveResult struct {
	Data   any
	Status status.LookupStatus
}

func (cm *Manager) Retrieve(cacheKey string) ([]byte, status.LookupStatus, error) {
	val, err, _ := cm.sf.Do(cacheKey, func() (any, error) {
		nl, _ := cm.locker.RAcquire(cm.lockName(cacheKey))
		defer nl.RRelease()
		start := time.Now()
		b, s, err := cm.Client.Retrieve(cacheKey)
		cm.observeRetrieval(cacheKey, time.Since(start), len(b), s, err)
		return &retrieveResult{
			Data:   b,
			Status: s,
		}, err
	})
	rr := val.(*retrieveResult)
	return rr.Data.([]byte), rr.Status, err
}

func (cm *Manager) Remove(cacheKeys ...string) error {
	for _, k := range cacheKeys {
		nl, _ := cm.locker.Acquire(cm.lockName(k))
		defer nl.Release()
	}
	metrics.ObserveCacheDel(cm.config.Name, cm.config.Provider, float64(len(cacheKeys)))
	logger.Debug("cache remove", logging.Pairs{"keys": cacheKeys, "provider": cm.config.Provider})
	return cm.Client.Remove(cacheKeys...)
}

func (cm *Manager) Connect() error {
	if err := cm.originalCli.Connect(); err != nil {
		return err
	}
	if cm.opts.UseIndex {
		cm.Client = index.NewIndexedClient(
			cm.config.Name,
			cm.config.Provider,
			cm.config.Index,
			cm.originalCli,
			func(ico *index.IndexedClientOptions) {
				*ico = cm.opts.IndexCliOpts
			},
		)
	}
	return nil
}

// Usage reports the object count and byte size of the underlying cache, or
// zeros when the backend does not report usage
func (cm *Manager) Usage() (int64, int64) {
	if ur, ok := cm.Client.(cache.UsageReporter); ok {
		return ur.Usage()
	}
	return 0, 0
}

func (cm *Manager) Configuration() *options.Options {
	return cm.config
}

// Stats returns the cache's statistics recorder
func (cm *Manager) Stats() *stats.Recorder {
	return cm.stats
}

func (cm *Manager) Locker() locks.NamedLocker {
	return cm.locker
}
func (cm *Manager) SetLocker(l locks.NamedLocker) {
	cm.locker = l
}
