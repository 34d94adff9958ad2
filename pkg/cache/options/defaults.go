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

import "github.com/memwarden/memwarden/pkg/cache/providers"

const (
	// DefaultCacheProvider is the default cache provider name
	DefaultCacheProvider = "memory"
	// DefaultCacheProviderID is the default cache provider internal id
	DefaultCacheProviderID = providers.MemoryID
	// DefaultWriteDropPercent is the default system memory used percentage
	// at or above which cache writes are dropped
	DefaultWriteDropPercent = 90.0
	// DefaultCleanupPercent is the default system memory used percentage
	// at or above which a write triggers an eviction cycle
	DefaultCleanupPercent = 80.0
)
