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

package options

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	badger "github.com/memwarden/memwarden/pkg/cache/badger/options"
	bbolt "github.com/memwarden/memwarden/pkg/cache/bbolt/options"
	bigcache "github.com/memwarden/memwarden/pkg/cache/bigcache/options"
	index "github.com/memwarden/memwarden/pkg/cache/index/options"
	"github.com/memwarden/memwarden/pkg/cache/providers"
	redis "github.com/memwarden/memwarden/pkg/cache/redis/options"
	"github.com/memwarden/memwarden/pkg/util/sets"
)

// Lookup is a map of Options
type Lookup map[string]*Options

// Options is a collection of defining the Memwarden Caching Behavior
type Options struct {
	// Name is the Name of the cache, taken from the Key in the Caches map[string]*Options
	Name string `yaml:"-"`
	// Provider represents the type of cache that we wish to use:
	// "memory", "bigcache", "bbolt", "badger" or "redis"
	Provider string `yaml:"provider,omitempty"`
	// Index provides options for the Cache Index
	Index *index.Options `yaml:"index,omitempty"`
	// Redis provides options for Redis caching
	Redis *redis.Options `yaml:"redis,omitempty"`
	// BBolt provides options for BBolt caching
	BBolt *bbolt.Options `yaml:"bbolt,omitempty"`
	// Badger provides options for BadgerDB caching
	Badger *badger.Options `yaml:"badger,omitempty"`
	// BigCache provides options for BigCache caching
	BigCache *bigcache.Options `yaml:"bigcache,omitempty"`

	// WriteDropPercent is the system memory used percentage at or above which
	// new writes to the cache are silently dropped
	WriteDropPercent float64 `yaml:"write_drop_percent,omitempty"`
	// CleanupPercent is the system memory used percentage at or above which
	// a write triggers an eviction cycle before being admitted
	CleanupPercent float64 `yaml:"cleanup_percent,omitempty"`

	//  Synthetic Values

	// ProviderID represents the internal constant for the provided Provider string
	// and is automatically populated at startup
	ProviderID providers.Provider `yaml:"-"`
}

var restrictedNames = sets.New([]string{"", "none"})

// ErrInvalidName indicates a reserved or empty cache name
var ErrInvalidName = errors.New("invalid cache name")

var errMaxSizeBackoffBytesTooBig = errors.New("MaxSizeBackoffBytes can't be larger than MaxSizeBytes")
var errMaxSizeBackoffObjectsTooBig = errors.New("MaxSizeBackoffObjects can't be larger than MaxSizeObjects")
var errInvalidPressurePercent = errors.New("pressure percents must be in the range (0, 100]")

// New will return a pointer to a cache Options with the default configuration settings
func New() *Options {
	return &Options{
		Provider:         DefaultCacheProvider,
		ProviderID:       DefaultCacheProviderID,
		Redis:            redis.New(),
		BBolt:            bbolt.New(),
		Badger:           badger.New(),
		BigCache:         bigcache.New(),
		Index:            index.New(),
		WriteDropPercent: DefaultWriteDropPercent,
		CleanupPercent:   DefaultCleanupPercent,
	}
}

// Clone returns an exact copy of the subject Options
func (c *Options) Clone() *Options {
	out := New()
	out.Name = c.Name
	out.Provider = c.Provider
	out.ProviderID = c.ProviderID
	out.WriteDropPercent = c.WriteDropPercent
	out.CleanupPercent = c.CleanupPercent
	if c.Index != nil {
		out.Index = c.Index.Clone()
	}
	if c.Redis != nil {
		o2 := *c.Redis
		o2.Endpoints = slices.Clone(c.Redis.Endpoints)
		out.Redis = &o2
	}
	if c.BBolt != nil {
		o2 := *c.BBolt
		out.BBolt = &o2
	}
	if c.Badger != nil {
		o2 := *c.Badger
		out.Badger = &o2
	}
	if c.BigCache != nil {
		o2 := *c.BigCache
		out.BigCache = &o2
	}
	return out
}

// Equal returns true if all values in the Options references and their
// child Option references are completely identical
func (c *Options) Equal(c2 *Options) bool {
	if c2 == nil {
		return false
	}
	return c.Name == c2.Name &&
		c.Provider == c2.Provider &&
		c.ProviderID == c2.ProviderID &&
		c.WriteDropPercent == c2.WriteDropPercent &&
		c.CleanupPercent == c2.CleanupPercent &&
		c.Index.Equal(c2.Index) &&
		c.Redis.Equal(c2.Redis) &&
		c.BBolt.Equal(c2.BBolt) &&
		c.Badger.Equal(c2.Badger) &&
		c.BigCache.Equal(c2.BigCache)
}

func (c *Options) Validate() error {
	if restrictedNames.Contains(c.Name) {
		return ErrInvalidName
	}
	if c.Index.MaxSizeBytes > 0 && c.Index.MaxSizeBackoffBytes > c.Index.MaxSizeBytes {
		return errMaxSizeBackoffBytesTooBig
	}
	if c.Index.MaxSizeObjects > 0 && c.Index.MaxSizeBackoffObjects > c.Index.MaxSizeObjects {
		return errMaxSizeBackoffObjectsTooBig
	}
	if c.WriteDropPercent <= 0 || c.WriteDropPercent > 100 ||
		c.CleanupPercent <= 0 || c.CleanupPercent > 100 {
		return errInvalidPressurePercent
	}
	return nil
}

// Initialize sets up the cache Options with default values and overlays
// any values that were set during YAML unmarshaling
func (c *Options) Initialize(name string) error {
	c.Name = name

	if c.Provider != "" {
		c.Provider = strings.ToLower(c.Provider)
		if n, ok := providers.Names[c.Provider]; ok {
			c.ProviderID = n
		}
	}

	if c.Index == nil {
		c.Index = index.New()
	} else {
		c.Index.Initialize()
	}
	if c.Redis == nil {
		c.Redis = redis.New()
	}
	if c.BBolt == nil {
		c.BBolt = bbolt.New()
	}
	if c.Badger == nil {
		c.Badger = badger.New()
	}
	if c.BigCache == nil {
		c.BigCache = bigcache.New()
	}

	if c.WriteDropPercent == 0 {
		c.WriteDropPercent = DefaultWriteDropPercent
	}
	if c.CleanupPercent == 0 {
		c.CleanupPercent = DefaultCleanupPercent
	}

	return nil
}

// Initialize initializes all cache options in the lookup with default values
// and overlays any values that were set during YAML unmarshaling
func (l Lookup) Initialize(activeCaches sets.Set[string]) ([]string, error) {
	var warnings []string

	for k := range l {
		if _, ok := activeCaches[k]; !ok {
			delete(l, k)
		}
	}

	for k, v := range l {
		if err := v.Initialize(k); err != nil {
			return nil, err
		}

		if v.ProviderID == providers.RedisID {
			var hasEndpoint, hasEndpoints bool

			if v.Redis.Endpoint != "" {
				hasEndpoint = true
			}
			if len(v.Redis.Endpoints) > 0 {
				hasEndpoints = true
			}

			if v.Redis.ClientType == "standard" {
				if hasEndpoints && !hasEndpoint {
					warnings = append(warnings,
						"'standard' redis type configured, but 'endpoints' value is provided instead of 'endpoint'")
				}
			} else {
				if hasEndpoint && !hasEndpoints {
					warnings = append(warnings, fmt.Sprintf(
						"'%s' redis type configured, but 'endpoint' value is provided instead of 'endpoints'",
						v.Redis.ClientType))
				}
			}
		}
	}
	return warnings, nil
}

func (l Lookup) Validate() error {
	for k, c := range l {
		c.Name = k
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}
