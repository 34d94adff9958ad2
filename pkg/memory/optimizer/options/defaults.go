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
	// DefaultStaleAge is the default last-access age beyond which tracked
	// resources are swept during an optimization pass
	DefaultStaleAge = 30 * time.Minute
	// DefaultAggressiveGCPercent is the GC target percentage applied
	// temporarily during an aggressive collection pass
	DefaultAggressiveGCPercent = 10
	// DefaultAggressivePasses is the number of forced collections run
	// during an aggressive collection pass
	DefaultAggressivePasses = 3
)
