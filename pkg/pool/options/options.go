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
	"time"
)

// ErrInvalidPoolSize is the error for invalid pool size bounds
var ErrInvalidPoolSize = errors.New("max_size must be >= 1 and >= min_size")

// Lookup is a map of pool Options keyed by pool name
type Lookup map[string]*Options

// Validate validates each Options in the Lookup
func (l Lookup) Validate() error {
	for name, o := range l {
		if o == nil {
			return fmt.Errorf("invalid pool config: %s", name)
		}
		if err := o.Validate(); err != nil {
			return fmt.Errorf("pool [%s]: %w", name, err)
		}
	}
	return nil
}

// Options is a collection of configurations for a resource pool
type Options struct {
	// MinSize is the minimum number of resources maintenance keeps on hand
	MinSize int `yaml:"min_size"`
	// MaxSize is the maximum number of resources the pool will hold
	MaxSize int `yaml:"max_size,omitempty"`
	// MaxIdleTime is how long an available resource may remain unused
	// before it is expired
	MaxIdleTime time.Duration `yaml:"max_idle_time,omitempty"`
	// MaxLifetime is the total time a resource may live before it is expired
	MaxLifetime time.Duration `yaml:"max_lifetime,omitempty"`
	// ValidationInterval is the time between pool maintenance passes
	ValidationInterval time.Duration `yaml:"validation_interval,omitempty"`
}

// New returns a reference to a new pool Options with default values
func New() *Options {
	return &Options{
		MinSize:            DefaultMinSize,
		MaxSize:            DefaultMaxSize,
		MaxIdleTime:        DefaultMaxIdleTime,
		MaxLifetime:        DefaultMaxLifetime,
		ValidationInterval: DefaultValidationInterval,
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

// Validate returns an error if the Options are not usable by a pool
func (o *Options) Validate() error {
	if o.MinSize < 0 || o.MaxSize < 1 || o.MinSize > o.MaxSize {
		return ErrInvalidPoolSize
	}
	return nil
}

// Equal returns true if all values in the Options are identical
func (o *Options) Equal(o2 *Options) bool {
	if o2 == nil {
		return false
	}
	return o.MinSize == o2.MinSize &&
		o.MaxSize == o2.MaxSize &&
		o.MaxIdleTime == o2.MaxIdleTime &&
		o.MaxLifetime == o2.MaxLifetime &&
		o.ValidationInterval == o2.ValidationInterval
}
