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

package defaults

const (
	// DefaultConfigPath is the default path to the running configuration file
	DefaultConfigPath = "/etc/memwarden/memwarden.yaml"

	// DefaultCacheMemorySmallMB is the aggregate cache memory budget for
	// hosts with less than 8GB of system memory
	DefaultCacheMemorySmallMB = 512
	// DefaultCacheMemoryMediumMB is the aggregate cache memory budget for
	// hosts with 8GB to 16GB of system memory
	DefaultCacheMemoryMediumMB = 1024
	// DefaultCacheMemoryLargeMB is the aggregate cache memory budget for
	// hosts with 16GB or more of system memory
	DefaultCacheMemoryLargeMB = 2048

	// MemoryTierMediumBytes is the total system memory at or above which the
	// medium cache budget applies
	MemoryTierMediumBytes = 8 << 30
	// MemoryTierLargeBytes is the total system memory at or above which the
	// large cache budget applies
	MemoryTierLargeBytes = 16 << 30
)
