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

import "strconv"

// Provider enumerates the cache providers
type Provider int

const (
	// MemoryID indicates a memory cache
	MemoryID = Provider(iota)
	// BigCacheID indicates a BigCache-backed memory cache
	BigCacheID
	// RedisID indicates a Redis cache
	RedisID
	// BBoltID indicates a BBolt cache
	BBoltID
	// BadgerDBID indicates a BadgerDB cache
	BadgerDBID

	Memory   = "memory"
	BigCache = "bigcache"
	Redis    = "redis"
	BBolt    = "bbolt"
	BadgerDB = "badger"
)

// Names is a map of cache providers keyed by name
var Names = map[string]Provider{
	Memory:   MemoryID,
	BigCache: BigCacheID,
	Redis:    RedisID,
	BBolt:    BBoltID,
	BadgerDB: BadgerDBID,
}

// Values is a map of cache providers keyed by internal id
var Values = make(map[Provider]string)

func init() {
	for k, v := range Names {
		Values[v] = k
	}
}

func (p Provider) String() string {
	if v, ok := Values[p]; ok {
		return v
	}
	return strconv.Itoa(int(p))
}

// UsesIndex returns true if the named provider relies on the governing index
// for retention. Providers that manage their own retention (redis, badger,
// bigcache) bypass the index.
// providerName is expected to already be lowercase/no-space
func UsesIndex(providerName string) bool {
	return providerName != BadgerDB && providerName != Redis &&
		providerName != BigCache
}
