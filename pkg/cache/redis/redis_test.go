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

package redis

import (
	"strconv"
	"testing"
	"time"

	"github.com/memwarden/memwarden/pkg/cache"
	co "github.com/memwarden/memwarden/pkg/cache/options"
	ro "github.com/memwarden/memwarden/pkg/cache/redis/options"
	"github.com/memwarden/memwarden/pkg/cache/status"
	"github.com/memwarden/memwarden/pkg/observability/logging"
	"github.com/memwarden/memwarden/pkg/observability/logging/level"
	"github.com/memwarden/memwarden/pkg/observability/logging/logger"

	"github.com/alicebob/miniredis"
)

const cacheKey = `cacheKey`

func setupRedisCache(t testing.TB, ct clientType) (*CacheClient, *miniredis.Miniredis) {
	logger.SetLogger(logging.ConsoleLogger(level.Error))
	s, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	rcfg := &ro.Options{Endpoint: s.Addr(), ClientType: ct.String()}
	if ct != clientTypeStandard {
		rcfg.Endpoint = ""
		rcfg.Endpoints = []string{s.Addr()}
		if ct == clientTypeSentinel {
			rcfg.SentinelMaster = s.Addr()
		}
	}
	cacheConfig := &co.Options{Provider: "redis", Redis: rcfg}
	return New(t.Name(), cacheConfig), s
}

func storeBenchmark(b *testing.B) *CacheClient {
	rc, _ := setupRedisCache(b, clientTypeStandard)
	err := rc.Connect()
	if err != nil {
		b.Error(err)
	}
	for n := 0; n < b.N; n++ {
		err := rc.Store(cacheKey+strconv.Itoa(n), []byte("data"+strconv.Itoa(n)), time.Minute)
		if err != nil {
			b.Error(err)
		}
	}
	return rc
}

func TestClientOpts(t *testing.T) {
	rc, _ := setupRedisCache(t, clientTypeStandard)

	// test empty endpoint
	rc.Config.Redis.Endpoint = ""
	err := rc.Connect()
	if err != ErrInvalidEndpointConfig {
		t.Errorf("expected error for %s", ErrInvalidEndpointConfig)
	}
}

func TestSentinelOpts(t *testing.T) {
	rc, _ := setupRedisCache(t, clientTypeSentinel)

	// test empty endpoints
	endpoints := rc.Config.Redis.Endpoints
	rc.Config.Redis.Endpoints = nil
	err := rc.Connect()
	if err != ErrInvalidEndpointsConfig {
		t.Errorf("expected error for %s", ErrInvalidEndpointsConfig)
	}

	// test empty SentinelMaster
	rc.Config.Redis.Endpoints = endpoints
	rc.Config.Redis.SentinelMaster = ""
	err = rc.Connect()
	if err != ErrInvalidSentinalMasterConfig {
		t.Errorf("expected error for %s", ErrInvalidSentinalMasterConfig)
	}
}

func TestClusterOpts(t *testing.T) {
	rc, _ := setupRedisCache(t, clientTypeCluster)

	// test empty endpoints
	rc.Config.Redis.Endpoints = nil
	err := rc.Connect()
	if err != ErrInvalidEndpointsConfig {
		t.Errorf("expected error for %s", ErrInvalidEndpointsConfig)
	}
}

func TestRedisCache_Connect(t *testing.T) {
	rc, _ := setupRedisCache(t, clientTypeStandard)

	// it should connect
	err := rc.Connect()
	if err != nil {
		t.Error(err)
	}
	rc.Close()
}

func TestRedisCache_Store(t *testing.T) {
	rc, _ := setupRedisCache(t, clientTypeStandard)

	err := rc.Connect()
	if err != nil {
		t.Error(err)
	}
	defer rc.Close()

	// it should store a value
	err = rc.Store(cacheKey, []byte("data"), time.Minute)
	if err != nil {
		t.Error(err)
	}
}

func BenchmarkCache_Store(b *testing.B) {
	rc := storeBenchmark(b)
	defer rc.Close()
}

func TestRedisCache_Retrieve(t *testing.T) {
	rc, s := setupRedisCache(t, clientTypeStandard)

	err := rc.Connect()
	if err != nil {
		t.Error(err)
	}
	defer rc.Close()

	err = rc.Store(cacheKey, []byte("data"), time.Minute)
	if err != nil {
		t.Error(err)
	}

	// it should retrieve a value
	data, ls, err := rc.Retrieve(cacheKey)
	if err != nil {
		t.Error(err)
	}
	if ls != status.LookupStatusHit {
		t.Errorf("expected %s got %s", status.LookupStatusHit, ls)
	}
	if string(data) != "data" {
		t.Errorf("wanted \"%s\". got \"%s\"", "data", data)
	}

	// redis enforces the ttl; advancing the server clock expires the key
	s.FastForward(2 * time.Minute)

	_, ls, err = rc.Retrieve(cacheKey)
	if err != cache.ErrKNF {
		t.Errorf("expected error for %s", cache.ErrKNF)
	}
	if ls != status.LookupStatusKeyMiss {
		t.Errorf("expected %s got %s", status.LookupStatusKeyMiss, ls)
	}
}

func BenchmarkCache_Retrieve(b *testing.B) {
	rc := storeBenchmark(b)
	defer rc.Close()

	for n := 0; n < b.N; n++ {
		data, ls, err := rc.Retrieve(cacheKey + strconv.Itoa(n))
		if err != nil {
			b.Error(err)
		}
		if ls != status.LookupStatusHit {
			b.Errorf("expected %s got %s", status.LookupStatusHit, ls)
		}
		if string(data) != "data"+strconv.Itoa(n) {
			b.Errorf("wanted \"%s\". got \"%s\".", "data"+strconv.Itoa(n), data)
		}
	}
}

func TestRedisCache_Remove(t *testing.T) {
	rc, _ := setupRedisCache(t, clientTypeStandard)

	err := rc.Connect()
	if err != nil {
		t.Error(err)
	}
	defer rc.Close()

	// it should store a value
	err = rc.Store(cacheKey, []byte("data"), time.Minute)
	if err != nil {
		t.Error(err)
	}

	// it should retrieve a value
	data, ls, err := rc.Retrieve(cacheKey)
	if err != nil {
		t.Error(err)
	}
	if string(data) != "data" {
		t.Errorf("wanted \"%s\". got \"%s\".", "data", data)
	}
	if ls != status.LookupStatusHit {
		t.Errorf("expected %s got %s", status.LookupStatusHit, ls)
	}

	rc.Remove(cacheKey)

	// it should be a cache miss
	_, ls, err = rc.Retrieve(cacheKey)
	if err == nil {
		t.Errorf("expected key not found error for %s", cacheKey)
	}
	if ls != status.LookupStatusKeyMiss {
		t.Errorf("expected %s got %s", status.LookupStatusKeyMiss, ls)
	}
}

func BenchmarkCache_Remove(b *testing.B) {
	rc := storeBenchmark(b)
	defer rc.Close()

	for n := 0; n < b.N; n++ {
		rc.Remove(cacheKey + strconv.Itoa(n))

		_, ls, err := rc.Retrieve(cacheKey + strconv.Itoa(n))
		if err == nil {
			b.Errorf("expected key not found error for %s", cacheKey+strconv.Itoa(n))
		}
		if ls != status.LookupStatusKeyMiss {
			b.Errorf("expected %s got %s", status.LookupStatusKeyMiss, ls)
		}
	}
}

func TestRedisCache_BulkRemove(t *testing.T) {
	rc, _ := setupRedisCache(t, clientTypeStandard)

	err := rc.Connect()
	if err != nil {
		t.Error(err)
	}
	defer rc.Close()

	keys := make([]string, 4)
	for n := range keys {
		keys[n] = cacheKey + strconv.Itoa(n)
		if err = rc.Store(keys[n], []byte("data"), time.Minute); err != nil {
			t.Error(err)
		}
	}

	rc.Remove(keys...)

	// they should all be cache misses
	for _, k := range keys {
		_, ls, err := rc.Retrieve(k)
		if err == nil {
			t.Errorf("expected key not found error for %s", k)
		}
		if ls != status.LookupStatusKeyMiss {
			t.Errorf("expected %s got %s", status.LookupStatusKeyMiss, ls)
		}
	}
}

func TestRedisCache_Close(t *testing.T) {
	rc, _ := setupRedisCache(t, clientTypeStandard)

	// close before connect is a no-op
	if err := rc.Close(); err != nil {
		t.Error(err)
	}

	err := rc.Connect()
	if err != nil {
		t.Error(err)
	}

	// it should close
	err = rc.Close()
	if err != nil {
		t.Error(err)
	}
}
