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
	// DefaultBigCacheShards is the default BigCache shard count
	DefaultBigCacheShards = 1024
	// DefaultBigCacheLifeWindow is the default maximum entry lifetime,
	// sized to outlive the longest object TTL issued by the typed views
	DefaultBigCacheLifeWindow = 168 * time.Hour
	// DefaultBigCacheCleanWindow is the default cleanup interval
	DefaultBigCacheCleanWindow = 5 * time.Minute
	// DefaultBigCacheHardMaxSizeMB is the default cache size cap in MB
	DefaultBigCacheHardMaxSizeMB = 512
)
