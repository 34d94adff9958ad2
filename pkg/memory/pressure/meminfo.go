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

package pressure

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// meminfo carries the fields of interest from the kernel's meminfo table
type meminfo struct {
	availableBytes uint64
	swapTotalBytes uint64
	swapFreeBytes  uint64
}

// parseMeminfo extracts MemAvailable, SwapTotal and SwapFree from a
// /proc/meminfo-formatted stream. Values are reported by the kernel in
// kibibytes.
func parseMeminfo(r io.Reader) (meminfo, bool) {
	var mi meminfo
	var found int
	scanner := bufio.NewScanner(r)
	for scanner.Scan() && found < 3 {
		line := scanner.Text()
		i := strings.IndexByte(line, ':')
		if i < 0 {
			continue
		}
		var dst *uint64
		switch line[:i] {
		case "MemAvailable":
			dst = &mi.availableBytes
		case "SwapTotal":
			dst = &mi.swapTotalBytes
		case "SwapFree":
			dst = &mi.swapFreeBytes
		default:
			continue
		}
		fields := strings.Fields(line[i+1:])
		if len(fields) == 0 {
			continue
		}
		v, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			continue
		}
		*dst = v << 10
		found++
	}
	return mi, found > 0
}
