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

// Package cache defines the memwarden cache interfaces and provides
// general cache functionality
package cache

import (
	"errors"
	"time"

	"github.com/memwarden/memwarden/pkg/cache/options"
	"github.com/memwarden/memwarden/pkg/cache/stats"
	"github.com/memwarden/memwarden/pkg/cache/status"
	"github.com/memwarden/memwarden/pkg/locks"
)

// ErrKNF represents the error "key not found in cache"
var ErrKNF = errors.New("key not found in cache")

// Client is the interface for the supported caching backends.
// When making new cache providers, Retrieve() must return ErrKNF on cache miss
type Client interface {
	Connect() error
	Store(cacheKey string, data []byte, ttl time.Duration) error
	Retrieve(cacheKey string) ([]byte, status.LookupStatus, error)
	Remove(cacheKeys ...string) error
	Close() error
}

// MemoryCache is the interface for an in-memory cache client
// This offers additional methods for storing references to bypass serialization
type MemoryCache interface {
	Client
	StoreReference(cacheKey string, data ReferenceObject, ttl time.Duration) error
	RetrieveReference(cacheKey string) (any, status.LookupStatus, error)
}

// Cache is the fully-governed cache surface the application interacts with,
// wrapping a Client with locking, metrics, memory governance and retention
type Cache interface {
	Client
	Configuration() *options.Options
	Locker() locks.NamedLocker
	SetLocker(locks.NamedLocker)
	Stats() *stats.Recorder
	SetPressureSource(PressureSource)
}

// Lookup is a map of Caches keyed by name
type Lookup map[string]Cache

// PressureSource reports the current system memory utilization as a
// percentage in the range 0-100. A Cache consults its PressureSource to
// decide whether to admit writes and when to run pre-store cleanup.
type PressureSource interface {
	UsedPercent() float64
}

// ReferenceObject defines an interface for a cache object possessing the ability to report
// the approximate comprehensive byte size of its members, to assist with cache size management
type ReferenceObject interface {
	Size() int
}

// UsageReporter is implemented by caches that can report their current
// object and byte usage
type UsageReporter interface {
	Usage() (objectCount, byteSize int64)
}

// Evictor is implemented by caches that support synchronous retention
// enforcement: reaping expired entries and evicting least-recently-accessed
// entries down to the configured size budget
type Evictor interface {
	// Reap removes expired entries and enforces the size budget, returning
	// the count and byte size of removed entries
	Reap() (objects, bytes int64)
	// EvictOldest removes at least minFraction of entries in
	// least-recently-accessed order, preferring larger entries among the
	// oldest, and continues until at least bytesNeeded bytes are reclaimed
	EvictOldest(minFraction float64, bytesNeeded int64) (objects, bytes int64)
}
