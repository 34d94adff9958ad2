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

package config

import (
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/memwarden/memwarden/pkg/cache/providers"
	po "github.com/memwarden/memwarden/pkg/pool/options"
)

func TestLoadConfiguration(t *testing.T) {
	// it should not error if config path is not set
	conf, _, err := Load("memwarden-test", "0", []string{})
	if err != nil {
		t.Fatal(err)
	}

	dc, ok := conf.Caches[DefaultCacheName]
	if !ok {
		t.Fatal("expected default cache")
	}
	if dc.Provider != "memory" {
		t.Errorf("expected memory got %s", dc.Provider)
	}
	if conf.Main.MaxCacheMemoryMB != DefaultCacheMemoryMB() {
		t.Errorf("expected %d got %d", DefaultCacheMemoryMB(), conf.Main.MaxCacheMemoryMB)
	}
	if dc.Index.MaxSizeBytes != conf.Main.MaxCacheMemoryMB<<20 {
		t.Errorf("expected %d got %d", conf.Main.MaxCacheMemoryMB<<20, dc.Index.MaxSizeBytes)
	}
	if dc.Index.ReapInterval != 3*time.Second {
		t.Errorf("expected 3s got %s", dc.Index.ReapInterval)
	}
	if conf.Pressure.SampleInterval != 5*time.Second {
		t.Errorf("expected 5s got %s", conf.Pressure.SampleInterval)
	}
	if conf.Supervisor.Interval != 15*time.Minute {
		t.Errorf("expected 15m got %s", conf.Supervisor.Interval)
	}
	if conf.Optimizer.StaleAge != 30*time.Minute {
		t.Errorf("expected 30m got %s", conf.Optimizer.StaleAge)
	}
	if len(conf.Pools) != 0 {
		t.Errorf("expected no pools got %d", len(conf.Pools))
	}
}

const testYAML = `
main:
  max_cache_memory_mb: 64
logging:
  log_level: debug
metrics:
  listen_port: 9091
caches:
  objects:
    provider: memory
    index:
      max_size_bytes: 67108864
  embeddings:
    provider: memory
  sessions:
    provider: redis
    redis:
      client_type: standard
      endpoint: redis:6379
      password: sekrit
pools:
  models:
    min_size: 1
    max_size: 4
memory_pressure:
  sample_interval: 10s
optimizer:
  stale_age: 1h
supervisor:
  interval: 5m
  optimize_target_mb: 64
`

func writeTestConfig(t *testing.T, yml string) string {
	t.Helper()
	path := t.TempDir() + "/memwarden_test_config.yaml"
	if err := os.WriteFile(path, []byte(yml), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFullLoadConfiguration(t *testing.T) {

	path := writeTestConfig(t, testYAML)
	conf, flags, err := Load("memwarden-test", "0", []string{"-config", path})
	if err != nil {
		t.Fatal(err)
	}
	if flags.ConfigPath != path {
		t.Errorf("expected config path %s got %s", path, flags.ConfigPath)
	}
	if !flags.customPath {
		t.Error("expected custom config path")
	}
	if conf.ConfigFilePath() != path {
		t.Errorf("expected %s got %s", path, conf.ConfigFilePath())
	}

	// the auto-created default cache is dropped when the file defines its own
	if _, ok := conf.Caches[DefaultCacheName]; ok {
		t.Error("expected default cache to be dropped")
	}
	if len(conf.Caches) != 3 {
		t.Fatalf("expected 3 caches got %d", len(conf.Caches))
	}

	oc := conf.Caches["objects"]
	if oc.Index.MaxSizeBytes != 67108864 {
		t.Errorf("expected explicit index size to be kept, got %d", oc.Index.MaxSizeBytes)
	}

	// the sole unsized index-governed cache receives the full budget; the
	// redis cache manages its own retention and is skipped
	ec := conf.Caches["embeddings"]
	if ec.Index.MaxSizeBytes != 64<<20 {
		t.Errorf("expected %d got %d", int64(64<<20), ec.Index.MaxSizeBytes)
	}

	sc := conf.Caches["sessions"]
	if sc.ProviderID != providers.RedisID {
		t.Errorf("expected redis provider got %d", sc.ProviderID)
	}
	if string(sc.Redis.Password) != "sekrit" {
		t.Errorf("unexpected password %s", sc.Redis.Password)
	}

	mp, ok := conf.Pools["models"]
	if !ok {
		t.Fatal("expected models pool")
	}
	if mp.MinSize != 1 || mp.MaxSize != 4 {
		t.Errorf("expected 1/4 got %d/%d", mp.MinSize, mp.MaxSize)
	}
	if mp.ValidationInterval != po.DefaultValidationInterval {
		t.Errorf("expected %s got %s", po.DefaultValidationInterval, mp.ValidationInterval)
	}
	if mp.MaxIdleTime != po.DefaultMaxIdleTime {
		t.Errorf("expected %s got %s", po.DefaultMaxIdleTime, mp.MaxIdleTime)
	}

	if conf.Pressure.SampleInterval != 10*time.Second {
		t.Errorf("expected 10s got %s", conf.Pressure.SampleInterval)
	}
	if conf.Optimizer.StaleAge != time.Hour {
		t.Errorf("expected 1h got %s", conf.Optimizer.StaleAge)
	}
	if conf.Supervisor.Interval != 5*time.Minute {
		t.Errorf("expected 5m got %s", conf.Supervisor.Interval)
	}
	if conf.Supervisor.OptimizeTargetMB != 64 {
		t.Errorf("expected 64 got %d", conf.Supervisor.OptimizeTargetMB)
	}
	if conf.Supervisor.HitRateThreshold != 0.5 {
		t.Errorf("expected 0.5 got %f", conf.Supervisor.HitRateThreshold)
	}
	if conf.Logging.LogLevel != "debug" {
		t.Errorf("expected debug got %s", conf.Logging.LogLevel)
	}
	if conf.Metrics.ListenPort != 9091 {
		t.Errorf("expected 9091 got %d", conf.Metrics.ListenPort)
	}
	if conf.Main.MaxCacheMemoryMB != 64 {
		t.Errorf("expected 64 got %d", conf.Main.MaxCacheMemoryMB)
	}
}

func TestLoadConfigurationFileFailures(t *testing.T) {

	tests := []struct {
		yml      string
		expected string
	}{
		{ // Case 0: invalid yaml
			"invalid: [ unclosed\n",
			"yaml",
		},
		{ // Case 1: invalid pool bounds
			"pools:\n  broken:\n    min_size: 5\n    max_size: 2\n",
			po.ErrInvalidPoolSize.Error(),
		},
	}

	for i, test := range tests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			path := writeTestConfig(t, test.yml)
			_, _, err := Load("memwarden-test", "0", []string{"-config", path})
			if err == nil {
				t.Errorf("expected error `%s` got nothing", test.expected)
			} else if !strings.Contains(err.Error(), test.expected) {
				t.Errorf("expected error `%s` got `%s`", test.expected, err.Error())
			}
		})
	}

	// a user-provided path that does not exist is a hard failure
	if _, _, err := Load("memwarden-test", "0",
		[]string{"-config", "/this/path/does/not/exist.yaml"}); err == nil {
		t.Error("expected error for missing custom config path")
	}
}

func TestLoadEnvVars(t *testing.T) {

	t.Setenv(evCacheMemory, "96")
	t.Setenv(evMetricsPort, "4002")
	t.Setenv(evLogLevel, "warn")

	conf, _, err := Load("memwarden-test", "0", []string{})
	if err != nil {
		t.Fatal(err)
	}

	if conf.Main.MaxCacheMemoryMB != 96 {
		t.Errorf("expected 96 got %d", conf.Main.MaxCacheMemoryMB)
	}
	if conf.Caches[DefaultCacheName].Index.MaxSizeBytes != 96<<20 {
		t.Errorf("expected %d got %d", int64(96<<20),
			conf.Caches[DefaultCacheName].Index.MaxSizeBytes)
	}
	if conf.Metrics.ListenPort != 4002 {
		t.Errorf("expected 4002 got %d", conf.Metrics.ListenPort)
	}
	if conf.Logging.LogLevel != "warn" {
		t.Errorf("expected warn got %s", conf.Logging.LogLevel)
	}
}

func TestLoadFlags(t *testing.T) {

	a := []string{
		"-log-level", "error",
		"-metrics-port", "9999",
		"-max-cache-memory-mb", "128",
		"-instance-id", "2",
	}
	conf, flags, err := Load("memwarden-test", "0", a)
	if err != nil {
		t.Fatal(err)
	}
	if flags.customPath {
		t.Error("expected non-custom config path")
	}
	if conf.Logging.LogLevel != "error" {
		t.Errorf("expected error got %s", conf.Logging.LogLevel)
	}
	if conf.Metrics.ListenPort != 9999 {
		t.Errorf("expected 9999 got %d", conf.Metrics.ListenPort)
	}
	if conf.Main.InstanceID != 2 {
		t.Errorf("expected 2 got %d", conf.Main.InstanceID)
	}
	if conf.Main.MaxCacheMemoryMB != 128 {
		t.Errorf("expected 128 got %d", conf.Main.MaxCacheMemoryMB)
	}
	if conf.Caches[DefaultCacheName].Index.MaxSizeBytes != 128<<20 {
		t.Errorf("expected %d got %d", int64(128<<20),
			conf.Caches[DefaultCacheName].Index.MaxSizeBytes)
	}
}

func TestPrintVersion(t *testing.T) {
	conf, flags, err := Load("memwarden-test", "0", []string{"-version"})
	if err != nil {
		t.Fatal(err)
	}
	if conf != nil {
		t.Error("expected nil config")
	}
	if !flags.PrintVersion {
		t.Error("expected PrintVersion to be true")
	}
}

func TestCloneAndString(t *testing.T) {

	path := writeTestConfig(t, testYAML)
	conf, _, err := Load("memwarden-test", "0", []string{"-config", path})
	if err != nil {
		t.Fatal(err)
	}

	c2 := conf.Clone()
	if c2.Main.MaxCacheMemoryMB != conf.Main.MaxCacheMemoryMB {
		t.Error("clone mismatch on MaxCacheMemoryMB")
	}
	if len(c2.Caches) != len(conf.Caches) {
		t.Error("clone mismatch on cache count")
	}
	if !c2.Supervisor.Equal(conf.Supervisor) {
		t.Error("clone mismatch on supervisor options")
	}
	if !c2.Pools["models"].Equal(conf.Pools["models"]) {
		t.Error("clone mismatch on pool options")
	}

	s := conf.String()
	if strings.Contains(s, "sekrit") {
		t.Error("expected redis password to be redacted")
	}
	if !strings.Contains(s, "*****") {
		t.Error("expected redaction marker in config output")
	}
}

func TestCheckFileLastModified(t *testing.T) {

	path := writeTestConfig(t, testYAML)
	conf, _, err := Load("memwarden-test", "0", []string{"-config", path})
	if err != nil {
		t.Fatal(err)
	}
	if conf.CheckFileLastModified().IsZero() {
		t.Error("expected non-zero last modified time")
	}

	c2 := NewConfig()
	if !c2.CheckFileLastModified().IsZero() {
		t.Error("expected zero last modified time")
	}
}
