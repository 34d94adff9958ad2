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

// Package registry instantiates the configured cache providers and wraps
// each in its governing manager
package registry

import (
	"github.com/memwarden/memwarden/pkg/cache"
	"github.com/memwarden/memwarden/pkg/cache/badger"
	"github.com/memwarden/memwarden/pkg/cache/bbolt"
	"github.com/memwarden/memwarden/pkg/cache/bigcache"
	"github.com/memwarden/memwarden/pkg/cache/index"
	"github.com/memwarden/memwarden/pkg/cache/manager"
	"github.com/memwarden/memwarden/pkg/cache/memory"
	"github.com/memwarden/memwarden/pkg/cache/options"
	"github.com/memwarden/memwarden/pkg/cache/providers"
	"github.com/memwarden/memwarden/pkg/cache/redis"
)

// LoadCaches iterates the cache configurations and connects/maps each Cache.
// If any cache fails to connect, the already-connected caches are closed and
// the error is returned.
func LoadCaches(cfgs options.Lookup) (cache.Lookup, error) {
	caches := make(cache.Lookup, len(cfgs))
	for k, v := range cfgs {
		c, err := NewCache(k, v)
		if err != nil {
			CloseCaches(caches)
			return nil, err
		}
		caches[k] = c
	}
	return caches, nil
}

// CloseCaches iterates the set of caches and closes each
func CloseCaches(caches cache.Lookup) error {
	for _, c := range caches {
		if err := c.Close(); err != nil {
			return err
		}
	}
	return nil
}

// NewCache returns a connected Cache based on the provided cache options
func NewCache(cacheName string, cfg *options.Options) (cache.Cache, error) {

	var c cache.Cache

	switch cfg.ProviderID {
	case providers.RedisID:
		c = manager.NewCache(redis.New(cacheName, cfg), manager.CacheOptions{}, cfg)
	case providers.BBoltID:
		c = manager.NewCache(bbolt.New(cacheName, "", "", cfg), manager.CacheOptions{
			UseIndex: true,
			IndexCliOpts: index.IndexedClientOptions{
				NeedsFlushInterval: true,
			},
		}, cfg)
	case providers.BadgerDBID:
		c = manager.NewCache(badger.New(cacheName, cfg), manager.CacheOptions{}, cfg)
	case providers.BigCacheID:
		c = manager.NewCache(bigcache.New(cacheName, cfg), manager.CacheOptions{}, cfg)
	default:
		// Default to MemoryCache
		c = manager.NewCache(memory.New(cacheName, cfg), manager.CacheOptions{
			UseIndex: true,
		}, cfg)
	}
	if err := c.Connect(); err != nil {
		return nil, err
	}
	return c, nil
}
