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

const (
	// DefaultMetricsListenPort is the default port for the HTTP metrics endpoint.
	// A value of 0 disables the metrics listener.
	DefaultMetricsListenPort = 8481
	// DefaultMetricsListenAddress is the default address for the HTTP metrics endpoint
	DefaultMetricsListenAddress = ""
)
