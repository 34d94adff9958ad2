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

// Package md5 provides normalized md5 checksum functionality
package md5

import (
	// md5 is used to derive stable cache key names, not for cryptography
	"crypto/md5" // #nosec G501
	"fmt"
	"io"
)

// Checksum returns the md5 checksum of the input string in hexadecimal format
func Checksum(input string) string {
	h := md5.New() // #nosec G401
	io.WriteString(h, input)
	return fmt.Sprintf("%x", h.Sum(nil))
}
