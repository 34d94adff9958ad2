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

import "time"

// Options is a collection of Configurations for storing cached data in BigCache shards
type Options struct {
	// Shards is the number of cache shards; the value must be a power of two
	Shards int `yaml:"shards,omitempty"`
	// LifeWindow is the maximum time any entry may remain in the cache,
	// regardless of its object TTL
	LifeWindow time.Duration `yaml:"life_window,omitempty"`
	// CleanWindow is the interval between removals of entries older than LifeWindow;
	// a value of 0 disables background cleanup
	CleanWindow time.Duration `yaml:"clean_window,omitempty"`
	// HardMaxCacheSizeMB caps the cache size in MB; BigCache drops the oldest
	// entries once the cap is reached. A value of 0 means no cap.
	HardMaxCacheSizeMB int `yaml:"hard_max_cache_size_mb,omitempty"`
}

// New returns a reference to a new BigCache Options
func New() *Options {
	return &Options{
		Shards:             DefaultBigCacheShards,
		LifeWindow:         DefaultBigCacheLifeWindow,
		CleanWindow:        DefaultBigCacheCleanWindow,
		HardMaxCacheSizeMB: DefaultBigCacheHardMaxSizeMB,
	}
}

// UnmarshalYAML applies defaults before overlaying YAML-parsed values
func (o *Options) UnmarshalYAML(unmarshal func(any) error) error {
	type loadOptions Options
	lo := loadOptions(*(New()))
	if err := unmarshal(&lo); err != nil {
		return err
	}
	*o = Options(lo)
	return nil
}

// Equal returns true if all values in the Options are identical
func (o *Options) Equal(o2 *Options) bool {
	if o2 == nil {
		return false
	}
	return o.Shards == o2.Shards &&
		o.LifeWindow == o2.LifeWindow &&
		o.CleanWindow == o2.CleanWindow &&
		o.HardMaxCacheSizeMB == o2.HardMaxCacheSizeMB
}
