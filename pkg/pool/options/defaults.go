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
	// DefaultMinSize is the default minimum number of resources maintenance
	// keeps on hand
	DefaultMinSize = 2
	// DefaultMaxSize is the default maximum number of resources a pool holds
	DefaultMaxSize = 10
	// DefaultMaxIdleTime is the default duration an available resource may
	// remain unused before it is expired
	DefaultMaxIdleTime = 5 * time.Minute
	// DefaultMaxLifetime is the default total lifetime of a pooled resource
	DefaultMaxLifetime = 30 * time.Minute
	// DefaultValidationInterval is the default time between maintenance passes
	DefaultValidationInterval = 30 * time.Second
)
