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
	"strings"
	"testing"
)

const testMeminfo = `MemTotal:       16316920 kB
MemFree:         1031740 kB
MemAvailable:   10723148 kB
Buffers:          892024 kB
Cached:          8372044 kB
SwapCached:         1024 kB
SwapTotal:       2097148 kB
SwapFree:        2031612 kB
Dirty:               340 kB
`

func TestParseMeminfo(t *testing.T) {
	mi, ok := parseMeminfo(strings.NewReader(testMeminfo))
	if !ok {
		t.Fatal("expected a successful parse")
	}
	if mi.availableBytes != 10723148<<10 {
		t.Errorf("expected available %d got %d", 10723148<<10, mi.availableBytes)
	}
	if mi.swapTotalBytes != 2097148<<10 {
		t.Errorf("expected swap total %d got %d", 2097148<<10, mi.swapTotalBytes)
	}
	if mi.swapFreeBytes != 2031612<<10 {
		t.Errorf("expected swap free %d got %d", 2031612<<10, mi.swapFreeBytes)
	}
}

func TestParseMeminfoMalformed(t *testing.T) {
	if _, ok := parseMeminfo(strings.NewReader("not a meminfo table\n")); ok {
		t.Error("expected parse failure for malformed input")
	}
	// a partial table still reports what it carries
	mi, ok := parseMeminfo(strings.NewReader("SwapTotal: 100 kB\n"))
	if !ok || mi.swapTotalBytes != 100<<10 {
		t.Errorf("expected partial parse, ok=%t total=%d", ok, mi.swapTotalBytes)
	}
}
