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

package index

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/memwarden/memwarden/pkg/cache"
	"github.com/memwarden/memwarden/pkg/cache/index/options"
	"github.com/memwarden/memwarden/pkg/cache/metrics"
	"github.com/memwarden/memwarden/pkg/cache/status"
	"github.com/memwarden/memwarden/pkg/observability/logging"
	"github.com/memwarden/memwarden/pkg/observability/logging/logger"
	"github.com/memwarden/memwarden/pkg/util/atomicx"
	"github.com/memwarden/memwarden/pkg/util/sets"
)

var (
	// IndexedClient implements the cache.Client and cache.MemoryCache interfaces
	_ cache.Client        = &IndexedClient{}
	_ cache.MemoryCache   = &IndexedClient{}
	_ cache.UsageReporter = &IndexedClient{}
	_ cache.Evictor       = &IndexedClient{}
)

var (
	ErrIndexInvalidCacheKey = errors.New("cannot store index")
	ErrInvalidCacheBackend  = errors.New("invalid cache backend for reference access")
)

// IndexedClientOptions modify an IndexedClient's behavior.
type IndexedClientOptions struct {
	// NeedsFlushInterval persists the index through the underlying client so it
	// can be restored on the next run. Only meaningful for durable backends.
	NeedsFlushInterval bool
}

func NewIndexedClient(
	cacheName, cacheProvider string,
	o *options.Options,
	client cache.Client,
	opts ...func(*IndexedClientOptions),
) *IndexedClient {
	if o == nil {
		o = options.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	idx := &IndexedClient{
		Client:        client,
		name:          cacheName,
		cacheProvider: cacheProvider,
		cancel:        cancel,
	}
	idx.options.Store(o)

	ico := &IndexedClientOptions{}
	for _, opt := range opts {
		opt(ico)
	}
	idx.ico = *ico

	if ico.NeedsFlushInterval {
		// check to see if an index was persisted from a previous run
		b, s, err := client.Retrieve(IndexKey)
		if err != nil && err != cache.ErrKNF {
			logger.Warn("cache index was not loaded",
				logging.Pairs{"cacheName": cacheName, "error": err.Error()})
		} else if len(b) > 0 && s == status.LookupStatusHit {
			if _, err := idx.UnmarshalMsg(b); err != nil {
				logger.Warn("cache index restore failed",
					logging.Pairs{"cacheName": cacheName, "error": err.Error()})
			}
		}
		if o.FlushInterval > 0 {
			go idx.flusher(ctx)
		} else {
			logger.Warn("cache index flusher was not started",
				logging.Pairs{"cacheName": idx.name, "flushInterval": o.FlushInterval})
		}
	}

	if o.ReapInterval > 0 {
		go idx.reaper(ctx)
	} else {
		logger.Warn("cache reaper was not started",
			logging.Pairs{"cacheName": idx.name, "reapInterval": o.ReapInterval})
	}

	metrics.ObserveCacheSizeLimits(cacheName, cacheProvider, o.MaxSizeBytes, o.MaxSizeObjects)
	return idx
}

// The IndexedClient maintains metadata about a cache.Client when Retention enforcement is managed
// internally, like memory or bbolt. It is not used for independently managed caches like Redis.
type IndexedClient struct {
	// Client is the underlying cache client used by the Index
	Client cache.Client `msg:"-"`
	// CacheSize represents the size of the cache in bytes
	CacheSize int64 `msg:"cache_size"`
	// ObjectCount represents the count of objects in the Cache
	ObjectCount int64 `msg:"object_count"`
	// Objects is a map of Objects in the Cache
	Objects SyncObjects `msg:"objects"`

	// internal index configuration
	name          string               `msg:"-"`
	cacheProvider string               `msg:"-"`
	options       atomic.Value         `msg:"-"`
	ico           IndexedClientOptions `msg:"-"`
	lastWrite     atomicx.Time         `msg:"-"`
	isClosing     atomic.Bool
	cancel        context.CancelFunc
	flusherExited atomic.Bool
	reaperExited  atomic.Bool
}

// Clear the index from its currently tracked cache objects
func (idx *IndexedClient) Clear() {
	idx.Objects.Clear()
	atomic.StoreInt64(&idx.CacheSize, 0)
	atomic.StoreInt64(&idx.ObjectCount, 0)
}

// UpdateOptions updates the existing IndexedClient with a new Options reference
func (idx *IndexedClient) UpdateOptions(o *options.Options) {
	idx.options.Store(o)
}

// No-op -- implements the cache.Client interface
func (idx *IndexedClient) Connect() error {
	return nil
}

// Usage reports the object count and byte size currently tracked by the index
func (idx *IndexedClient) Usage() (int64, int64) {
	return atomic.LoadInt64(&idx.ObjectCount), atomic.LoadInt64(&idx.CacheSize)
}

func (idx *IndexedClient) updateIndex(cacheKey string, size int64, la, lw, e time.Time) {
	// store the object (except for the data) in the index
	obj := &Object{
		Key:  cacheKey,
		Size: size,
	}
	obj.LastAccess.Store(la)
	obj.LastWrite.Store(lw)
	if !e.IsZero() {
		obj.Expiration.Store(e)
	}

	// update the index totals
	var cacheSize, count int64
	if o, ok := idx.Objects.Load(cacheKey); ok {
		oldObj := o.(*Object)
		cacheSize = atomic.AddInt64(&idx.CacheSize, obj.Size-oldObj.Size)
		count = atomic.LoadInt64(&idx.ObjectCount)
	} else {
		cacheSize = atomic.AddInt64(&idx.CacheSize, obj.Size)
		count = atomic.AddInt64(&idx.ObjectCount, 1)
	}
	metrics.ObserveCacheSizeChange(idx.name, idx.cacheProvider, cacheSize, count)
	idx.lastWrite.Store(time.Now())
	idx.Objects.Store(cacheKey, obj)
}

func (idx *IndexedClient) StoreReference(cacheKey string, data cache.ReferenceObject, ttl time.Duration) error {
	if cacheKey == IndexKey {
		return ErrIndexInvalidCacheKey
	}
	mc, ok := idx.Client.(cache.MemoryCache)
	if !ok {
		return ErrInvalidCacheBackend
	}
	if err := mc.StoreReference(cacheKey, data, ttl); err != nil {
		return err
	}
	size := int64(data.Size())
	if size <= 0 {
		size = FallbackObjectSize
	}
	now := time.Now()
	var expiry time.Time
	if ttl > 0 {
		expiry = now.Add(ttl)
	}
	idx.updateIndex(cacheKey, size, now, now, expiry)
	return nil
}

func (idx *IndexedClient) Store(cacheKey string, byteData []byte, ttl time.Duration) error {
	if cacheKey == IndexKey {
		return ErrIndexInvalidCacheKey
	}
	// wrap input value with Object + timing/size information
	obj := getObject()
	obj.Key = cacheKey
	obj.Value = byteData
	obj.Size = int64(len(byteData))
	now := time.Now()
	obj.LastAccess.Store(now)
	obj.LastWrite.Store(now)
	var expiry time.Time
	if ttl > 0 {
		expiry = now.Add(ttl)
		obj.Expiration.Store(expiry)
	}
	b, err := obj.MarshalMsg(getObjectMsgBuf())
	size := obj.Size
	putObject(obj)
	if err != nil {
		return err
	}
	// store the object in the cache
	if err := idx.Client.Store(cacheKey, b, ttl); err != nil {
		return err
	}
	if _, isMem := idx.Client.(cache.MemoryCache); !isMem {
		// memory clients retain the serialized slice; recycle only for copying backends
		putObjectMsgBuf(b)
	}
	idx.updateIndex(cacheKey, size, now, now, expiry)
	return nil
}

func (idx *IndexedClient) updateAccessTime(cacheKey string) {
	o, ok := idx.Objects.Load(cacheKey)
	if !ok {
		return
	}
	obj := o.(*Object)
	obj.LastAccess.Store(time.Now())
}

func (idx *IndexedClient) RetrieveReference(cacheKey string) (any, status.LookupStatus, error) {
	if cacheKey == IndexKey {
		return nil, status.LookupStatusError, ErrIndexInvalidCacheKey
	}
	mc, ok := idx.Client.(cache.MemoryCache)
	if !ok {
		return nil, status.LookupStatusError, ErrInvalidCacheBackend
	}
	go idx.updateAccessTime(cacheKey)
	return mc.RetrieveReference(cacheKey)
}

// Retrieve implements the cache.Client interface, looking up the object and updating
// the index last access time. An object past its expiration is never returned, even
// if the reaper has not swept it yet.
func (idx *IndexedClient) Retrieve(cacheKey string) ([]byte, status.LookupStatus, error) {
	if cacheKey == IndexKey {
		return nil, status.LookupStatusError, ErrIndexInvalidCacheKey
	}
	data, s, err := idx.Client.Retrieve(cacheKey)
	if err != nil {
		return nil, s, err
	}
	if s != status.LookupStatusHit {
		return nil, s, err
	}
	o := getObject()
	if _, err = o.UnmarshalMsg(data); err != nil {
		putObject(o)
		return nil, status.LookupStatusError, err
	}
	value := o.Value
	expiration := o.Expiration.Load()
	o.Value = nil // the value escapes to the caller; do not recycle it with the envelope
	putObject(o)
	if !expiration.IsZero() && expiration.Before(time.Now()) {
		idx.Remove(cacheKey)
		return nil, status.LookupStatusExpired, cache.ErrKNF
	}
	go idx.updateAccessTime(cacheKey)
	return value, status.LookupStatusHit, nil
}

// Remove implements the cache.Client interface and removes the objects from the cache and index
func (idx *IndexedClient) Remove(cacheKeys ...string) error {
	// remove the objects from the index
	for _, key := range cacheKeys {
		if o, ok := idx.Objects.Load(key); ok {
			obj := o.(*Object)
			size := atomic.AddInt64(&idx.CacheSize, -obj.Size)
			count := atomic.AddInt64(&idx.ObjectCount, -1)
			metrics.ObserveCacheDel(idx.name, idx.cacheProvider, float64(obj.Size))
			idx.Objects.Delete(key)
			metrics.ObserveCacheSizeChange(idx.name, idx.cacheProvider, size, count)
		}
	}
	idx.lastWrite.Store(time.Now())
	return idx.Client.Remove(cacheKeys...)
}

// Close stops the indexed cache, flushes its state, and closes the underlying cache.
// Close is idempotent; calls after the first are no-ops.
func (idx *IndexedClient) Close() error {
	if !idx.isClosing.CompareAndSwap(false, true) {
		return nil
	}
	idx.cancel() // stop the reaper & flusher
	if idx.ico.NeedsFlushInterval {
		idx.flushOnce()
	}
	idx.Clear()
	return idx.Client.Close()
}

// flusher periodically calls the cache's index flush func that writes the cache index to the client
func (idx *IndexedClient) flusher(ctx context.Context) {
	var lastFlush time.Time
FLUSHER:
	for {
		fi := idx.options.Load().(*options.Options).FlushInterval
		select {
		case <-ctx.Done():
			break FLUSHER
		case <-time.After(fi):
			if idx.lastWrite.Load().Before(lastFlush) {
				continue
			}
			idx.flushOnce()
			lastFlush = time.Now()
		}
	}
	idx.flusherExited.Store(true)
}

func (idx *IndexedClient) flushOnce() {
	b, err := idx.MarshalMsg(getObjectMsgBuf())
	if err != nil {
		logger.Warn("unable to serialize index for flushing",
			logging.Pairs{"cacheName": idx.name, "detail": err.Error()})
		return
	}
	idx.Client.Store(IndexKey, b, 31536000*time.Second)
	if _, isMem := idx.Client.(cache.MemoryCache); !isMem {
		putObjectMsgBuf(b)
	}
}

// reaper continually iterates through the cache to find expired elements and removes them
func (idx *IndexedClient) reaper(ctx context.Context) {
REAPER:
	for {
		ri := idx.options.Load().(*options.Options).ReapInterval
		select {
		case <-ctx.Done():
			break REAPER
		case <-time.After(ri):
			idx.reap()
		}
	}
	idx.reaperExited.Store(true)
}

// Reap makes a single iteration through the cache index to find and remove expired
// elements and evict least-recently-accessed elements to maintain the maximum
// allowed cache size, returning the object and byte counts evicted
func (idx *IndexedClient) Reap() (int64, int64) {
	return idx.reap()
}

func (idx *IndexedClient) reap() (objects, bytes int64) {
	cacheSize := atomic.LoadInt64(&idx.CacheSize)
	if cacheSize < 0 {
		cacheSize = 0
	}
	removals := make([]string, 0)
	remainders := make(objectsAtime, 0, atomic.LoadInt64(&idx.ObjectCount))

	var removalBytes int64
	var cacheChanged bool

	now := time.Now()

	idx.Objects.Range(func(_, value any) bool {
		o := value.(*Object)
		if exp := o.Expiration.Load(); !exp.IsZero() && exp.Before(now) {
			removals = append(removals, o.Key)
			removalBytes += o.Size
		} else {
			remainders = append(remainders, o)
		}
		return true
	})

	if len(removals) > 0 {
		metrics.ObserveCacheEvent(idx.name, idx.cacheProvider, "eviction", "ttl")
		if err := idx.Remove(removals...); err != nil {
			logger.Error("reap remove error", logging.Pairs{"cacheName": idx.name, "error": err})
		}
		objects += int64(len(removals))
		bytes += removalBytes
		cacheChanged = true
		cacheSize = atomic.LoadInt64(&idx.CacheSize)
	}
	objectCount := atomic.LoadInt64(&idx.ObjectCount)
	opts := idx.options.Load().(*options.Options)

	if ((opts.MaxSizeBytes > 0 && cacheSize > opts.MaxSizeBytes) ||
		(opts.MaxSizeObjects > 0 && objectCount > opts.MaxSizeObjects)) &&
		len(remainders) > 0 {

		var evictionType string
		switch {
		case opts.MaxSizeBytes > 0 && cacheSize > opts.MaxSizeBytes:
			evictionType = "size_bytes"
		case opts.MaxSizeObjects > 0 && objectCount > opts.MaxSizeObjects:
			evictionType = "size_objects"
		}

		logger.Debug(
			"max cache size reached. evicting least-recently-accessed records",
			logging.Pairs{
				"reason":         evictionType,
				"cacheSizeBytes": cacheSize, "maxSizeBytes": opts.MaxSizeBytes,
				"cacheSizeObjects": objectCount, "maxSizeObjects": opts.MaxSizeObjects,
			},
		)

		removals = removals[:0]
		removalBytes = 0

		sort.Sort(remainders)

		i := 0
		j := len(remainders)

		if evictionType == "size_bytes" {
			bytesNeeded := (cacheSize - opts.MaxSizeBytes)
			if opts.MaxSizeBytes > opts.MaxSizeBackoffBytes {
				bytesNeeded += opts.MaxSizeBackoffBytes
			}
			bytesSelected := int64(0)
			for bytesSelected < bytesNeeded && i < j {
				removals = append(removals, remainders[i].Key)
				bytesSelected += remainders[i].Size
				i++
			}
			removalBytes = bytesSelected
		} else {
			objectsNeeded := (objectCount - opts.MaxSizeObjects)
			if opts.MaxSizeObjects > opts.MaxSizeBackoffObjects {
				objectsNeeded += opts.MaxSizeBackoffObjects
			}
			objectsSelected := int64(0)
			for objectsSelected < objectsNeeded && i < j {
				removals = append(removals, remainders[i].Key)
				removalBytes += remainders[i].Size
				objectsSelected++
				i++
			}
		}

		if len(removals) > 0 {
			metrics.ObserveCacheEvent(idx.name, idx.cacheProvider, "eviction", evictionType)
			if err := idx.Remove(removals...); err != nil {
				logger.Error("reap remove error", logging.Pairs{"cacheName": idx.name, "error": err})
			}
			objects += int64(len(removals))
			bytes += removalBytes
			cacheChanged = true
		}

		logger.Debug("size-based cache eviction exercise completed",
			logging.Pairs{
				"reason":         evictionType,
				"cacheSizeBytes": cacheSize, "maxSizeBytes": opts.MaxSizeBytes,
				"cacheSizeObjects": objectCount, "maxSizeObjects": opts.MaxSizeObjects,
			})

	}
	if cacheChanged {
		idx.lastWrite.Store(time.Now())
	}
	return objects, bytes
}

// EvictOldest removes at least minFraction of the tracked objects, preferring entries
// that are both least-recently-accessed and large, and keeps walking in LRU order
// until bytesNeeded bytes have been freed. Expired entries are swept first and count
// toward the totals.
func (idx *IndexedClient) EvictOldest(minFraction float64, bytesNeeded int64) (int64, int64) {
	now := time.Now()
	expired := make([]string, 0)
	remainders := make(objectsAtime, 0, atomic.LoadInt64(&idx.ObjectCount))

	var expiredBytes int64
	idx.Objects.Range(func(_, value any) bool {
		o := value.(*Object)
		if exp := o.Expiration.Load(); !exp.IsZero() && exp.Before(now) {
			expired = append(expired, o.Key)
			expiredBytes += o.Size
		} else {
			remainders = append(remainders, o)
		}
		return true
	})

	objects := int64(len(expired))
	bytes := expiredBytes
	if len(expired) > 0 {
		metrics.ObserveCacheEvent(idx.name, idx.cacheProvider, "eviction", "ttl")
		if err := idx.Remove(expired...); err != nil {
			logger.Error("evict remove error", logging.Pairs{"cacheName": idx.name, "error": err})
		}
		bytesNeeded -= expiredBytes
	}

	n := len(remainders)
	if n == 0 {
		return objects, bytes
	}

	sort.Sort(remainders)

	target := int(math.Ceil(float64(n) * minFraction))
	if target < 1 {
		target = 1
	}
	if target > n {
		target = n
	}

	// bias selection toward large entries: rank the older half of the cache by
	// size and take the largest entries within it first
	window := n / 2
	if window < target {
		window = target
	}
	candidates := make([]*Object, window)
	copy(candidates, remainders[:window])
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Size > candidates[j].Size
	})

	selected := sets.NewStringSet()
	removals := make([]string, 0, target)
	var selectedBytes int64
	for _, o := range candidates[:target] {
		selected.Add(o.Key)
		removals = append(removals, o.Key)
		selectedBytes += o.Size
	}

	// keep walking LRU-first until enough bytes are freed
	for _, o := range remainders {
		if selectedBytes >= bytesNeeded {
			break
		}
		if selected.Contains(o.Key) {
			continue
		}
		selected.Add(o.Key)
		removals = append(removals, o.Key)
		selectedBytes += o.Size
	}

	metrics.ObserveCacheEvent(idx.name, idx.cacheProvider, "eviction", "memory_pressure")
	logger.Debug("memory pressure eviction",
		logging.Pairs{"cacheName": idx.name, "objects": len(removals), "bytes": selectedBytes})
	if err := idx.Remove(removals...); err != nil {
		logger.Error("evict remove error", logging.Pairs{"cacheName": idx.name, "error": err})
	}

	return objects + int64(len(removals)), bytes + selectedBytes
}
