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

import "os"

// readMeminfo reads the kernel's memory table for the available-memory and
// swap figures the cross-platform probe cannot provide
func readMeminfo() (meminfo, bool) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return meminfo{}, false
	}
	defer f.Close()
	return parseMeminfo(f)
}
