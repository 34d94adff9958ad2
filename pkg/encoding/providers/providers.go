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

package providers

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

const (
	Zstandard Provider = 1 << iota
	Brotli             // 2
	GZip               // 4
	Deflate            // 8
	Snappy             // 16
	Identity  Provider = 0 // no encoding
	// capacity for more encoding types @ 32, 64, 128

	// canonical config values
	ZstandardValue = "zstd"
	BrotliValue    = "brotli"
	GZipValue      = "gzip"
	DeflateValue   = "deflate"
	SnappyValue    = "snappy"
	// accepted alternate config values
	ZstandardAltValue = "zstandard"
	BrotliAltValue    = "br"
)

type (
	Provider      byte
	Lookup        map[string]Provider
	ReverseLookup map[Provider]string
)

// Update whenever a new encoder provider is added
var providerVals = []Provider{1, 2, 4, 8, 16}

// Update whenever a new encoder provider is added
var providerValLookup = ReverseLookup{
	Zstandard: ZstandardValue,
	Brotli:    BrotliValue,
	GZip:      GZipValue,
	Deflate:   DeflateValue,
	Snappy:    SnappyValue,
}

// these are populated in init based on providerVals and providerValLookup
var (
	providers      []string
	providerLookup Lookup
)

func init() {
	providers = make([]string, 0, len(providerVals))
	providerLookup = make(Lookup)
	for _, p := range providerVals {
		s := providerValLookup[p]
		providers = append(providers, s)
		providerLookup[s] = p
	}
	providerLookup[BrotliAltValue] = Brotli
	providerLookup[ZstandardAltValue] = Zstandard
}

func (p Provider) String() string {
	if v, ok := providerValLookup[p]; ok {
		return v
	}
	return strconv.Itoa(int(p))
}

// Providers returns the list of supported encoding provider names
func Providers() []string {
	return slices.Clone(providers)
}

// Clone returns a perfect copy of the lookup
func (l Lookup) Clone() Lookup {
	return maps.Clone(l)
}

// ProviderID returns the byte value of the provided encoding provider name
func ProviderID(providerName string) Provider {
	if b, ok := providerLookup[strings.ToLower(providerName)]; ok {
		return b
	}
	return 0
}
