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

const (
	// DefaultInterval is the default cadence of the background evaluation loop
	DefaultInterval = 15 * time.Minute
	// DefaultFailureBackoff is the default delay before the evaluation loop
	// retries after a failed cycle
	DefaultFailureBackoff = time.Minute
	// DefaultHitRateThreshold is the aggregate cache hit rate below which the
	// evaluation loop triggers an optimization cycle
	DefaultHitRateThreshold = 0.5
	// DefaultOptimizationScoreThreshold is the optimization score below which
	// the evaluation loop triggers an optimization cycle
	DefaultOptimizationScoreThreshold = 0.4
	// DefaultOptimizeTargetMB is how much memory, in MB, a triggered
	// optimization cycle tries to free
	DefaultOptimizeTargetMB = 256
)
