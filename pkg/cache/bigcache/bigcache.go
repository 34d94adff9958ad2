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

// Package bigcache is the BigCache implementation of the Memwarden Cache.
// BigCache holds entries off-heap of the garbage collector and evicts by
// a cache-wide LifeWindow, so per-object TTLs are enforced at read time
// from an expiration epoch prepended to each stored entry.
package bigcache

import (
	"context"
	"encoding/binary"
	"errors"
	"time"

	"github.com/memwarden/memwarden/pkg/cache"
	"github.com/memwarden/memwarden/pkg/cache/options"
	"github.com/memwarden/memwarden/pkg/cache/status"

	"github.com/allegro/bigcache/v3"
)

var (
	// CacheClient implements the cache.Client interface
	_ cache.Client = &CacheClient{}
)

// ErrInvalidEntry is returned when a cache entry is too short to carry
// the expiration epoch header
var ErrInvalidEntry = errors.New("invalid cache entry")

const headerLen = 8

// CacheClient describes a BigCache CacheClient
type CacheClient struct {
	Name   string
	Config *options.Options
	client *bigcache.BigCache
}

func New(name string, cfg *options.Options) *CacheClient {
	if cfg == nil {
		cfg = options.New()
	}
	c := &CacheClient{
		Name:   name,
		Config: cfg,
	}
	return c
}

// Connect initializes the BigCache shards
func (c *CacheClient) Connect() error {
	o := c.Config.BigCache
	cfg := bigcache.DefaultConfig(o.LifeWindow)
	cfg.Shards = o.Shards
	cfg.CleanWindow = o.CleanWindow
	cfg.HardMaxCacheSize = o.HardMaxCacheSizeMB
	cfg.Verbose = false

	var err error
	c.client, err = bigcache.New(context.Background(), cfg)
	return err
}

// Store places an object in the cache, prepending the expiration epoch.
// A non-positive ttl stores the object with no expiration; the cache-wide
// LifeWindow still applies.
func (c *CacheClient) Store(cacheKey string, data []byte, ttl time.Duration) error {
	var expiration int64
	if ttl > 0 {
		expiration = time.Now().Add(ttl).UnixNano()
	}
	entry := make([]byte, headerLen+len(data))
	binary.BigEndian.PutUint64(entry, uint64(expiration)) // #nosec G115 - expiration epochs are positive
	copy(entry[headerLen:], data)
	return c.client.Set(cacheKey, entry)
}

// Retrieve looks for an object in cache and returns it (or an error if not found).
// An object past its expiration epoch is removed and returned as a miss.
func (c *CacheClient) Retrieve(cacheKey string) ([]byte, status.LookupStatus, error) {
	entry, err := c.client.Get(cacheKey)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return nil, status.LookupStatusKeyMiss, cache.ErrKNF
		}
		return nil, status.LookupStatusError, err
	}
	if len(entry) < headerLen {
		return nil, status.LookupStatusError, ErrInvalidEntry
	}
	expiration := int64(binary.BigEndian.Uint64(entry)) // #nosec G115 - expiration epochs are positive
	if expiration > 0 && expiration < time.Now().UnixNano() {
		c.client.Delete(cacheKey)
		return nil, status.LookupStatusExpired, cache.ErrKNF
	}
	return entry[headerLen:], status.LookupStatusHit, nil
}

// Remove removes the provided keys from the cache
func (c *CacheClient) Remove(cacheKeys ...string) error {
	for _, k := range cacheKeys {
		if err := c.client.Delete(k); err != nil &&
			!errors.Is(err, bigcache.ErrEntryNotFound) {
			return err
		}
	}
	return nil
}

// Close releases the BigCache shards
func (c *CacheClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
