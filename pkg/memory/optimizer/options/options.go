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

// Options is a collection of configurations for the memory optimizer
type Options struct {
	// StaleAge is the last-access age beyond which tracked resources are
	// swept during an optimization pass
	StaleAge time.Duration `yaml:"stale_age,omitempty"`
	// AggressiveGCPercent is the GC target percentage applied temporarily
	// during an aggressive collection pass
	AggressiveGCPercent int `yaml:"aggressive_gc_percent,omitempty"`
	// AggressivePasses is the number of forced collections run during an
	// aggressive collection pass
	AggressivePasses int `yaml:"aggressive_passes,omitempty"`
}

// New returns a reference to a new optimizer Options with default values
func New() *Options {
	return &Options{
		StaleAge:            DefaultStaleAge,
		AggressiveGCPercent: DefaultAggressiveGCPercent,
		AggressivePasses:    DefaultAggressivePasses,
	}
}

// Clone returns an exact copy of the subject Options
func (o *Options) Clone() *Options {
	out := *o
	return &out
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
	return o.StaleAge == o2.StaleAge &&
		o.AggressiveGCPercent == o2.AggressiveGCPercent &&
		o.AggressivePasses == o2.AggressivePasses
}
