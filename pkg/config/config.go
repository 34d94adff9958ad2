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

// Package config provides Memwarden configuration abilities, including
// parsing and printing configuration files, command line parameters, and
// environment variables, as well as default values and state.
package config

import (
	"maps"
	"os"
	"slices"
	"time"

	cache "github.com/memwarden/memwarden/pkg/cache/options"
	"github.com/memwarden/memwarden/pkg/cache/providers"
	d "github.com/memwarden/memwarden/pkg/config/defaults"
	oo "github.com/memwarden/memwarden/pkg/memory/optimizer/options"
	pr "github.com/memwarden/memwarden/pkg/memory/pressure/options"
	lo "github.com/memwarden/memwarden/pkg/observability/logging/options"
	mo "github.com/memwarden/memwarden/pkg/observability/metrics/options"
	po "github.com/memwarden/memwarden/pkg/pool/options"
	so "github.com/memwarden/memwarden/pkg/supervisor/options"
	"github.com/memwarden/memwarden/pkg/util/sets"
	"github.com/memwarden/memwarden/pkg/util/yamlx"

	"github.com/pbnjay/memory"
	"gopkg.in/yaml.v3"
)

// DefaultCacheName is the name of the cache that is automatically defined
// when the configuration provides none of its own
const DefaultCacheName = "default"

// Config is the main configuration object
type Config struct {
	// Main is the primary MainConfig section
	Main *MainConfig `yaml:"main,omitempty"`
	// Caches is a map of cache configurations keyed by cache name
	Caches cache.Lookup `yaml:"caches,omitempty"`
	// Pools is a map of resource pool configurations keyed by pool name
	Pools po.Lookup `yaml:"pools,omitempty"`
	// Pressure configures the memory pressure monitor
	Pressure *pr.Options `yaml:"memory_pressure,omitempty"`
	// Optimizer configures the memory optimizer
	Optimizer *oo.Options `yaml:"optimizer,omitempty"`
	// Supervisor configures the integration supervisor and its background
	// evaluation loop
	Supervisor *so.Options `yaml:"supervisor,omitempty"`
	// Logging provides configurations that affect logging behavior
	Logging *lo.Options `yaml:"logging,omitempty"`
	// Metrics provides configurations for collecting Metrics about the application
	Metrics *mo.Options `yaml:"metrics,omitempty"`

	// LoaderWarnings holds warnings generated during config load
	LoaderWarnings []string `yaml:"-"`

	metadata yamlx.KeyLookup
}

// MainConfig is a collection of general configuration values
type MainConfig struct {
	// InstanceID represents a unique ID for the current instance, when
	// multiple instances run on the same host
	InstanceID int `yaml:"instance_id,omitempty"`
	// MaxCacheMemoryMB is the aggregate memory budget, in MB, shared by all
	// caches that do not set an explicit index size. A value of 0 selects a
	// default based on the host's total system memory.
	MaxCacheMemoryMB int64 `yaml:"max_cache_memory_mb,omitempty"`
	// ServerName represents the name conveyed in logs for this instance;
	// defaults to os.Hostname
	ServerName string `yaml:"server_name,omitempty"`

	configFilePath     string
	configLastModified time.Time
}

// NewConfig returns a Config initialized with default values
func NewConfig() *Config {
	hn, _ := os.Hostname()
	return &Config{
		Caches: cache.Lookup{
			DefaultCacheName: cache.New(),
		},
		Pools:      po.Lookup{},
		Pressure:   pr.New(),
		Optimizer:  oo.New(),
		Supervisor: so.New(),
		Logging:    lo.New(),
		Metrics:    mo.New(),
		Main: &MainConfig{
			ServerName:       hn,
			MaxCacheMemoryMB: DefaultCacheMemoryMB(),
		},
		LoaderWarnings: make([]string, 0),
	}
}

// DefaultCacheMemoryMB returns the default aggregate cache memory budget for
// the host: 512MB below 8GB of system memory, 1GB below 16GB, and 2GB at or
// above 16GB
func DefaultCacheMemoryMB() int64 {
	total := memory.TotalMemory()
	switch {
	case total >= d.MemoryTierLargeBytes:
		return d.DefaultCacheMemoryLargeMB
	case total >= d.MemoryTierMediumBytes:
		return d.DefaultCacheMemoryMediumMB
	default:
		return d.DefaultCacheMemorySmallMB
	}
}

// loadFile loads application configuration from a YAML-formatted file.
func (c *Config) loadFile(flags *Flags) error {
	b, err := os.ReadFile(flags.ConfigPath)
	if err != nil {
		c.setDefaults(yamlx.KeyLookup{})
		return err
	}
	return c.loadYAMLConfig(string(b), flags)
}

// loadYAMLConfig loads application configuration from a YAML-formatted byte slice.
func (c *Config) loadYAMLConfig(yml string, flags *Flags) error {

	if err := yaml.Unmarshal([]byte(yml), c); err != nil {
		c.setDefaults(yamlx.KeyLookup{})
		return err
	}
	md, err := yamlx.GetKeyList(yml)
	if err != nil {
		c.setDefaults(yamlx.KeyLookup{})
		return err
	}
	err = c.setDefaults(md)
	if err == nil && flags != nil {
		c.Main.configFilePath = flags.ConfigPath
		c.Main.configLastModified = c.CheckFileLastModified()
	}
	return err
}

// CheckFileLastModified returns the last modified date of the running config file, if present
func (c *Config) CheckFileLastModified() time.Time {
	if c.Main == nil || c.Main.configFilePath == "" {
		return time.Time{}
	}
	file, err := os.Stat(c.Main.configFilePath)
	if err != nil {
		return time.Time{}
	}
	return file.ModTime()
}

func (c *Config) setDefaults(metadata yamlx.KeyLookup) error {

	c.metadata = metadata

	if c.Main == nil {
		hn, _ := os.Hostname()
		c.Main = &MainConfig{ServerName: hn}
	}
	if c.Main.ServerName == "" {
		hn, _ := os.Hostname()
		c.Main.ServerName = hn
	}
	if c.Main.MaxCacheMemoryMB <= 0 {
		c.Main.MaxCacheMemoryMB = DefaultCacheMemoryMB()
	}
	if c.Logging == nil {
		c.Logging = lo.New()
	}
	if c.Metrics == nil {
		c.Metrics = mo.New()
	}
	if c.Pressure == nil {
		c.Pressure = pr.New()
	}
	if c.Optimizer == nil {
		c.Optimizer = oo.New()
	}
	if c.Supervisor == nil {
		c.Supervisor = so.New()
	}

	if c.Caches == nil {
		c.Caches = cache.Lookup{}
	}
	// when the configuration defines its own caches, the auto-created
	// default cache is not used unless the file names it directly
	if metadata.IsDefined("caches") && !metadata.IsDefined("caches", DefaultCacheName) {
		delete(c.Caches, DefaultCacheName)
	}
	for k, v := range c.Caches {
		if v == nil {
			c.Caches[k] = cache.New()
		}
	}
	if len(c.Caches) == 0 {
		c.Caches[DefaultCacheName] = cache.New()
	}

	if c.Pools == nil {
		c.Pools = po.Lookup{}
	}
	for k, v := range c.Pools {
		if v == nil {
			c.Pools[k] = po.New()
			continue
		}
		if v.MaxSize == 0 {
			v.MaxSize = po.DefaultMaxSize
		}
		if v.ValidationInterval <= 0 {
			v.ValidationInterval = po.DefaultValidationInterval
		}
	}

	activeCaches := sets.New(slices.Collect(maps.Keys(c.Caches)))
	lw, err := c.Caches.Initialize(activeCaches)
	if err != nil {
		return err
	}
	c.LoaderWarnings = append(c.LoaderWarnings, lw...)

	c.applyMemoryBudget(metadata)

	return nil
}

// applyMemoryBudget divides the aggregate cache memory budget evenly among
// index-governed caches that did not configure an explicit index size
func (c *Config) applyMemoryBudget(metadata yamlx.KeyLookup) {
	unsized := make([]*cache.Options, 0, len(c.Caches))
	for k, v := range c.Caches {
		if v == nil || v.Index == nil || !providers.UsesIndex(v.Provider) {
			continue
		}
		if metadata.IsDefined("caches", k, "index", "max_size_bytes") {
			continue
		}
		unsized = append(unsized, v)
	}
	if len(unsized) == 0 {
		return
	}
	share := (c.Main.MaxCacheMemoryMB << 20) / int64(len(unsized))
	for _, v := range unsized {
		v.Index.MaxSizeBytes = share
		if v.Index.MaxSizeBackoffBytes >= share {
			v.Index.MaxSizeBackoffBytes = share / 8
		}
	}
}

// Validate checks the sections of the Config for validity once all defaults
// and overrides have been applied
func (c *Config) Validate() error {
	if err := c.Caches.Validate(); err != nil {
		return err
	}
	return c.Pools.Validate()
}

// Clone returns an exact copy of the subject *Config
func (c *Config) Clone() *Config {

	nc := NewConfig()
	delete(nc.Caches, DefaultCacheName)

	nc.Main.InstanceID = c.Main.InstanceID
	nc.Main.MaxCacheMemoryMB = c.Main.MaxCacheMemoryMB
	nc.Main.ServerName = c.Main.ServerName

	nc.Main.configFilePath = c.Main.configFilePath
	nc.Main.configLastModified = c.Main.configLastModified

	if c.Logging != nil {
		nc.Logging = c.Logging.Clone()
	}
	if c.Metrics != nil {
		nc.Metrics = c.Metrics.Clone()
	}
	if c.Pressure != nil {
		nc.Pressure = c.Pressure.Clone()
	}
	if c.Optimizer != nil {
		nc.Optimizer = c.Optimizer.Clone()
	}
	if c.Supervisor != nil {
		nc.Supervisor = c.Supervisor.Clone()
	}

	for k, v := range c.Caches {
		nc.Caches[k] = v.Clone()
	}
	for k, v := range c.Pools {
		nc.Pools[k] = v.Clone()
	}

	nc.LoaderWarnings = slices.Clone(c.LoaderWarnings)

	return nc
}

func (c *Config) String() string {
	cp := c.Clone()

	// strip Redis password
	for k, v := range cp.Caches {
		if v != nil && cp.Caches[k].Redis.Password != "" {
			cp.Caches[k].Redis.Password = "*****"
		}
	}

	b, err := yaml.Marshal(cp)
	if err == nil {
		return string(b)
	}
	return ""
}

// ConfigFilePath returns the file path from which this configuration is based
func (c *Config) ConfigFilePath() string {
	if c.Main != nil {
		return c.Main.configFilePath
	}
	return ""
}
