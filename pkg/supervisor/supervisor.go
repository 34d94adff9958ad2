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

// Package supervisor composes the caches, memory pressure monitor, resource
// tracker, pools and optimizer into one supervised unit with a single
// lifecycle. A Supervisor periodically scores the health of its subsystems
// and runs optimization cycles when the score, the cache hit rate or the
// memory pressure level calls for one.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/memwarden/memwarden/pkg/cache"
	"github.com/memwarden/memwarden/pkg/cache/registry"
	"github.com/memwarden/memwarden/pkg/cache/views"
	"github.com/memwarden/memwarden/pkg/config"
	"github.com/memwarden/memwarden/pkg/memory/optimizer"
	"github.com/memwarden/memwarden/pkg/memory/pressure"
	"github.com/memwarden/memwarden/pkg/memory/tracker"
	"github.com/memwarden/memwarden/pkg/observability/logging"
	"github.com/memwarden/memwarden/pkg/observability/logging/logger"
	"github.com/memwarden/memwarden/pkg/pool"
	po "github.com/memwarden/memwarden/pkg/pool/options"
	so "github.com/memwarden/memwarden/pkg/supervisor/options"
)

// ErrNoCaches indicates a configuration with no cache entries
var ErrNoCaches = errors.New("no caches configured")

// cleaner is the on-demand eviction surface a cache may offer
type cleaner interface {
	Cleanup() (int64, int64)
}

// Supervisor is the integration point over the library's subsystems. The
// zero value is not usable; construct with New and release with Shutdown.
type Supervisor struct {
	o         *so.Options
	caches    cache.Lookup
	poolOpts  po.Lookup
	monitor   *pressure.Monitor
	tracker   *tracker.Tracker
	optimizer *optimizer.Optimizer

	embeddings      *views.Embeddings
	entities        *views.Entities
	classifications *views.Classifications
	responses       *views.Responses

	mtx       sync.Mutex
	pools     map[string]pool.StatusReporter
	observers []Observer
	cancel    context.CancelFunc
	closed    bool

	started time.Time
	cycles  atomic.Int64
	lastOpt atomic.Pointer[OptimizationReport]
}

// New instantiates the configured caches and wires them to a pressure
// monitor, resource tracker and optimizer, returning the Supervisor that
// owns them. conf may be nil, in which case defaults apply throughout.
func New(conf *config.Config) (*Supervisor, error) {
	if conf == nil {
		conf = config.NewConfig()
	}
	// hand-built configurations may omit cache names; stats and lock
	// scoping require them
	for k, v := range conf.Caches {
		if v != nil && v.Name == "" {
			v.Name = k
		}
	}
	caches, err := registry.LoadCaches(conf.Caches)
	if err != nil {
		return nil, err
	}
	if len(caches) == 0 {
		return nil, ErrNoCaches
	}
	o := conf.Supervisor
	if o == nil {
		o = so.New()
	} else {
		o = o.Clone()
	}
	if o.Interval <= 0 {
		o.Interval = so.DefaultInterval
	}
	if o.FailureBackoff <= 0 {
		o.FailureBackoff = so.DefaultFailureBackoff
	}
	if o.HitRateThreshold <= 0 {
		o.HitRateThreshold = so.DefaultHitRateThreshold
	}
	if o.OptimizationScoreThreshold <= 0 {
		o.OptimizationScoreThreshold = so.DefaultOptimizationScoreThreshold
	}
	if o.OptimizeTargetMB <= 0 {
		o.OptimizeTargetMB = so.DefaultOptimizeTargetMB
	}
	tr := tracker.New()
	s := &Supervisor{
		o:         o,
		caches:    caches,
		poolOpts:  conf.Pools,
		monitor:   pressure.New(conf.Pressure),
		tracker:   tr,
		optimizer: optimizer.New(tr, conf.Optimizer),
		pools:     make(map[string]pool.StatusReporter),
		started:   time.Now(),
	}
	// every cache consults the monitor before admitting writes
	for _, c := range caches {
		c.SetPressureSource(s.monitor)
	}
	// cache eviction doubles as a reclamation callback for the optimizer
	for k, c := range caches {
		if cl, ok := c.(cleaner); ok {
			s.optimizer.RegisterCallback("cache:"+k, func() int64 {
				_, bytes := cl.Cleanup()
				return bytes
			})
		}
	}
	s.embeddings = views.NewEmbeddings(s.viewCache("embeddings"))
	s.entities = views.NewEntities(s.viewCache("entities"))
	s.classifications = views.NewClassifications(s.viewCache("classifications"))
	s.responses = views.NewResponses(s.viewCache("responses"))
	return s, nil
}

// viewCache selects the backing cache for a typed view: a cache configured
// under the view's own name wins, then the default cache, then the first
// configured cache by name.
func (s *Supervisor) viewCache(name string) cache.Cache {
	if c, ok := s.caches[name]; ok {
		return c
	}
	if c, ok := s.caches[config.DefaultCacheName]; ok {
		return c
	}
	names := slices.Sorted(maps.Keys(s.caches))
	return s.caches[names[0]]
}

// Cache returns the named cache, or nil when none is configured by that name
func (s *Supervisor) Cache(name string) cache.Cache {
	return s.caches[name]
}

// Embeddings returns the embedding view
func (s *Supervisor) Embeddings() *views.Embeddings { return s.embeddings }

// Entities returns the entity extraction view
func (s *Supervisor) Entities() *views.Entities { return s.entities }

// Classifications returns the classification view
func (s *Supervisor) Classifications() *views.Classifications {
	return s.classifications
}

// Responses returns the model response view
func (s *Supervisor) Responses() *views.Responses { return s.responses }

// Monitor returns the memory pressure monitor
func (s *Supervisor) Monitor() *pressure.Monitor { return s.monitor }

// Tracker returns the weak-reference resource tracker
func (s *Supervisor) Tracker() *tracker.Tracker { return s.tracker }

// Optimizer returns the memory optimizer
func (s *Supervisor) Optimizer() *optimizer.Optimizer { return s.optimizer }

// PoolOptions returns the configured options for the named pool, or defaults
// when the name does not appear in the configuration
func (s *Supervisor) PoolOptions(name string) *po.Options {
	if o, ok := s.poolOpts[name]; ok && o != nil {
		return o.Clone()
	}
	return po.New()
}

// RegisterPool places a pool under supervision, so that its utilization
// contributes to system metrics and Shutdown disposes it with everything
// else. Registering a second pool by the same name replaces the first.
func (s *Supervisor) RegisterPool(p pool.StatusReporter) {
	if p == nil {
		return
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.closed {
		logger.Warn("pool registered after shutdown",
			logging.Pairs{"pool": p.Name()})
		return
	}
	s.pools[p.Name()] = p
}

// RegisterResource places res under weak-reference tracking, attributed to
// the named component. The Supervisor never extends the resource's
// lifetime; collected resources leave the ledger on the next sweep.
func RegisterResource[T any](s *Supervisor, component, resourceID string, res *T, sizeBytes int64) {
	tracker.Track(s.tracker, component, resourceID, res, sizeBytes)
}

// Start begins memory sampling and the background evaluation loop. Start is
// a no-op on a running or shut-down Supervisor.
func (s *Supervisor) Start() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.closed || s.cancel != nil {
		return
	}
	s.monitor.Start()
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(ctx)
	logger.Info("supervisor started",
		logging.Pairs{"interval": s.o.Interval, "caches": len(s.caches)})
}

// Stop halts sampling and the evaluation loop without releasing any caches,
// pools or tracked resources. A stopped Supervisor can be started again.
func (s *Supervisor) Stop() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.stopLocked()
}

func (s *Supervisor) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	s.monitor.Stop()
}

// Shutdown stops background activity, disposes all supervised pools and
// closes all caches. Shutdown is idempotent.
func (s *Supervisor) Shutdown() {
	s.mtx.Lock()
	if s.closed {
		s.mtx.Unlock()
		return
	}
	s.closed = true
	s.stopLocked()
	pools := slices.Collect(maps.Values(s.pools))
	s.pools = make(map[string]pool.StatusReporter)
	s.mtx.Unlock()
	for _, p := range pools {
		p.Shutdown()
	}
	if err := registry.CloseCaches(s.caches); err != nil {
		logger.Error("cache close failed during shutdown",
			logging.Pairs{"error": err.Error()})
	}
	logger.Info("supervisor shutdown complete", logging.Pairs{})
}

// run is the background evaluation loop. Each tick scores the system and
// optimizes when warranted; a failed cycle is logged and retried after the
// configured backoff rather than ending the loop.
func (s *Supervisor) run(ctx context.Context) {
	interval := s.o.Interval
SUPERVISE:
	for {
		select {
		case <-ctx.Done():
			break SUPERVISE
		case <-time.After(interval):
			if err := s.cycle(); err != nil {
				logger.Error("supervision cycle failed",
					logging.Pairs{"error": err.Error(),
						"retryIn": s.o.FailureBackoff})
				interval = s.o.FailureBackoff
				continue
			}
			interval = s.o.Interval
		}
	}
}

func (s *Supervisor) cycle() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("supervision cycle panic: %v", r)
		}
	}()
	s.cycles.Add(1)
	r, ran := s.OptimizeIfNeeded(false)
	if ran {
		logger.Debug("supervision cycle optimized",
			logging.Pairs{"trigger": r.Trigger, "freedBytes": r.FreedBytes})
	}
	return nil
}
