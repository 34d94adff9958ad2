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

// Package memory is the in-process memory implementation of the Memwarden
// Cache and uses a sync.Map to manage cache objects. Retention (TTL and
// size budget) is governed by the index that wraps this client.
package memory

import (
	"sync"
	"time"

	"github.com/memwarden/memwarden/pkg/cache"
	"github.com/memwarden/memwarden/pkg/cache/options"
	"github.com/memwarden/memwarden/pkg/cache/status"
)

var (
	// Cache implements the cache.Client and cache.MemoryCache interfaces
	_ cache.Client      = &Cache{}
	_ cache.MemoryCache = &Cache{}
)

// Cache defines a Memory Cache client that conforms to the Client interface
type Cache struct {
	Name   string
	Config *options.Options
	client sync.Map
}

// New returns a new memory cache client
func New(name string, cfg *options.Options) *Cache {
	if cfg == nil {
		cfg = options.New()
	}
	c := &Cache{
		Name:   name,
		Config: cfg,
	}
	return c
}

// Connect initializes the Cache
func (c *Cache) Connect() error {
	return nil
}

// Store places an object in the cache using the specified key. The ttl is
// ignored here; expiration is enforced by the wrapping index.
func (c *Cache) Store(cacheKey string, data []byte, _ time.Duration) error {
	if data == nil {
		return nil
	}
	c.client.Store(cacheKey, data)
	return nil
}

// StoreReference stores an object directly to the memory cache without
// requiring serialization
func (c *Cache) StoreReference(cacheKey string, data cache.ReferenceObject,
	_ time.Duration) error {
	if data == nil {
		return nil
	}
	c.client.Store(cacheKey, data)
	return nil
}

// Retrieve looks for an object in cache and returns it (or an error if not found)
func (c *Cache) Retrieve(cacheKey string) ([]byte, status.LookupStatus, error) {
	o, s, err := c.retrieve(cacheKey)
	if err != nil {
		return nil, s, err
	}
	if b, ok := o.([]byte); ok {
		return b, s, nil
	}
	return nil, s, nil
}

// RetrieveReference looks for an object in cache and returns it (or an error if not found)
func (c *Cache) RetrieveReference(cacheKey string) (any,
	status.LookupStatus, error) {
	return c.retrieve(cacheKey)
}

func (c *Cache) retrieve(cacheKey string) (any,
	status.LookupStatus, error) {
	record, ok := c.client.Load(cacheKey)
	if ok {
		return record, status.LookupStatusHit, nil
	}
	return nil, status.LookupStatusKeyMiss, cache.ErrKNF
}

// Remove removes the provided keys from the cache
func (c *Cache) Remove(cacheKeys ...string) error {
	for _, k := range cacheKeys {
		c.client.Delete(k)
	}
	return nil
}

// Close drops all entries from the cache
func (c *Cache) Close() error {
	c.client.Clear()
	return nil
}
