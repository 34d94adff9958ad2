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

package main

import "fmt"

const usageText = `
Memwarden Usage:

 Print Version Info:
  memwarden -version

 Validate a configuration file:
  memwarden -validate-config -config /path/to/memwarden.yaml

 Run with a configuration file:
  memwarden -config /path/to/memwarden.yaml [-log-level debug|info|warn|error] [-metrics-port 8481]

 Run with defaults, overriding the cache memory budget:
  memwarden -max-cache-memory-mb 1024

------

Without -config, Memwarden looks for /etc/memwarden/memwarden.yaml and falls
back to built-in defaults when the file is absent: one in-process memory
cache sized to the host's RAM tier, sampling memory pressure every 5s.

Default log level is info. Set in a config file, or override with -log-level.
Metrics are served at /metrics on the metrics port; a port of 0 disables the
listener.
`

func version() string {
	return fmt.Sprintf("Memwarden version: %s, buildInfo: %s %s",
		applicationVersion, applicationBuildTime, applicationGitCommitID)
}

func printVersion() {
	fmt.Println(version())
}

func printUsage() {
	fmt.Println()
	fmt.Println(version())
	fmt.Printf("%s\n", usageText)
}
