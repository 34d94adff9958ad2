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

// Options is a collection of configurations for the integration supervisor
// and its background evaluation loop
type Options struct {
	// Interval is the time between background health evaluations
	Interval time.Duration `yaml:"interval,omitempty"`
	// FailureBackoff is how long the loop waits before retrying after a
	// failed evaluation cycle
	FailureBackoff time.Duration `yaml:"failure_backoff,omitempty"`
	// HitRateThreshold triggers an optimization cycle when the aggregate
	// cache hit rate falls below it
	HitRateThreshold float64 `yaml:"hit_rate_threshold,omitempty"`
	// OptimizationScoreThreshold triggers an optimization cycle when the
	// derived optimization score falls below it
	OptimizationScoreThreshold float64 `yaml:"optimization_score_threshold,omitempty"`
	// OptimizeTargetMB is how much memory, in MB, a triggered optimization
	// cycle tries to free
	OptimizeTargetMB int64 `yaml:"optimize_target_mb,omitempty"`
}

// New returns a reference to a new supervisor Options with default values set
func New() *Options {
	return &Options{
		Interval:                   DefaultInterval,
		FailureBackoff:             DefaultFailureBackoff,
		HitRateThreshold:           DefaultHitRateThreshold,
		OptimizationScoreThreshold: DefaultOptimizationScoreThreshold,
		OptimizeTargetMB:           DefaultOptimizeTargetMB,
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
	return o.Interval == o2.Interval &&
		o.FailureBackoff == o2.FailureBackoff &&
		o.HitRateThreshold == o2.HitRateThreshold &&
		o.OptimizationScoreThreshold == o2.OptimizationScoreThreshold &&
		o.OptimizeTargetMB == o2.OptimizeTargetMB
}
