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

// Package pool provides a generic bounded pool of reusable resources
// produced by a caller-supplied Factory. A background maintenance loop
// expires aged and idle resources, validates the remainder, and replenishes
// the pool to its configured minimum size.
package pool

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/memwarden/memwarden/pkg/observability/logging"
	"github.com/memwarden/memwarden/pkg/observability/logging/logger"
	"github.com/memwarden/memwarden/pkg/observability/metrics"
	"github.com/memwarden/memwarden/pkg/pool/options"
)

// ErrPoolClosed is returned by Acquire after the pool has been shut down
var ErrPoolClosed = errors.New("pool is closed")

// Factory creates, inspects and destroys the resources managed by a Pool
type Factory[T any] interface {
	// Create constructs a new resource. Errors are propagated to the
	// Acquire call that triggered the creation.
	Create(id string) (T, error)
	// Validate reports whether an idle resource is still usable. A
	// resource failing validation is expired and disposed; the result is
	// never surfaced to callers.
	Validate(res T) bool
	// Dispose destroys a resource. Errors are logged and never propagated.
	Dispose(res T) error
	// SizeOf estimates the resource's memory footprint in bytes, for
	// reporting only.
	SizeOf(res T) int64
}

// Pool maintains a bounded set of reusable resources. Acquire prefers an
// idle resource, creates one while under the maximum size, and otherwise
// blocks until a resource is released or the caller's context is done.
type Pool[T any] struct {
	name    string
	factory Factory[T]
	o       *options.Options
	cancel  context.CancelFunc

	expired       atomic.Int64
	totalUses     atomic.Int64
	totalUseNanos atomic.Int64

	// mtx guards the resource table, the idle list and the waiter queue
	mtx       sync.Mutex
	resources map[string]*Resource[T]
	idle      []*Resource[T]
	waiters   []chan *Resource[T]
	creating  int
	closed    bool
}

// Status is a point-in-time summary of a pool's contents
type Status struct {
	Name        string           `json:"name"`
	Total       int              `json:"total"`
	Available   int              `json:"available"`
	InUse       int              `json:"in_use"`
	Expired     int64            `json:"expired"`
	QueueSize   int              `json:"queue_size"`
	AvgUseCount float64          `json:"avg_use_count"`
	AvgUseTime  time.Duration    `json:"avg_use_time"`
	Config      *options.Options `json:"config"`
}

// StatusReporter describes a pool of any resource type, for callers that
// aggregate pools without knowing what they hold
type StatusReporter interface {
	Name() string
	Status() *Status
	TrimIdle() int
	Shutdown()
}

// New returns a Pool managing resources produced by factory, preloaded to
// its minimum size, and starts its maintenance loop. Preload failures are
// logged, not returned; maintenance retries the replenishment. Callers must
// Shutdown the pool when finished with it.
func New[T any](name string, factory Factory[T], o *options.Options) (*Pool[T], error) {
	if factory == nil {
		return nil, errors.New("pool factory must not be nil")
	}
	if o == nil {
		o = options.New()
	} else {
		o = o.Clone()
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if o.ValidationInterval <= 0 {
		o.ValidationInterval = options.DefaultValidationInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool[T]{
		name:      name,
		factory:   factory,
		o:         o,
		cancel:    cancel,
		resources: make(map[string]*Resource[T]),
	}
	p.topUp()
	p.publishGauges()
	go p.maintain(ctx)
	logger.Info("resource pool started", logging.Pairs{"pool": name,
		"minSize": o.MinSize, "maxSize": o.MaxSize})
	return p, nil
}

// Name returns the name of the pool
func (p *Pool[T]) Name() string {
	return p.name
}

// Acquire returns an idle resource, creating one when the pool is below its
// maximum size. When the pool is at capacity and nothing is idle, Acquire
// blocks until a resource is released or ctx is done, and returns ok=false
// if ctx expires first. An error is returned only when the factory fails to
// create a resource or the pool has been shut down.
func (p *Pool[T]) Acquire(ctx context.Context) (*Resource[T], bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	p.mtx.Lock()
	if p.closed {
		p.mtx.Unlock()
		return nil, false, ErrPoolClosed
	}
	if r := p.popIdleLocked(); r != nil {
		p.mtx.Unlock()
		p.checkout(r, start)
		return r, true, nil
	}
	if len(p.resources)+p.creating < p.o.MaxSize {
		p.creating++
		p.mtx.Unlock()
		r, err := p.create()
		p.mtx.Lock()
		p.creating--
		if err != nil {
			p.mtx.Unlock()
			return nil, false, err
		}
		if p.closed {
			p.mtx.Unlock()
			p.destroy(r)
			return nil, false, ErrPoolClosed
		}
		r.setState(StateAvailable)
		p.resources[r.id] = r
		p.mtx.Unlock()
		p.checkout(r, start)
		return r, true, nil
	}
	// at capacity; wait for a release or a replenished resource
	w := make(chan *Resource[T], 1)
	p.waiters = append(p.waiters, w)
	metrics.PoolAcquireQueueLength.WithLabelValues(p.name).Set(float64(len(p.waiters)))
	p.mtx.Unlock()
	select {
	case r, ok := <-w:
		if !ok {
			return nil, false, ErrPoolClosed
		}
		p.checkout(r, start)
		return r, true, nil
	case <-ctx.Done():
		p.mtx.Lock()
		found := p.removeWaiterLocked(w)
		p.mtx.Unlock()
		if !found {
			// a release already committed this waiter a resource; take
			// the handoff rather than stranding it
			if r, ok := <-w; ok && r != nil {
				p.checkout(r, start)
				return r, true, nil
			}
			return nil, false, ErrPoolClosed
		}
		return nil, false, nil
	}
}

// TryAcquire is the non-blocking form of Acquire: it returns an idle
// resource, creates one when the pool is below its maximum size, and
// otherwise returns ok=false immediately instead of queueing
func (p *Pool[T]) TryAcquire() (*Resource[T], bool, error) {
	start := time.Now()
	p.mtx.Lock()
	if p.closed {
		p.mtx.Unlock()
		return nil, false, ErrPoolClosed
	}
	if r := p.popIdleLocked(); r != nil {
		p.mtx.Unlock()
		p.checkout(r, start)
		return r, true, nil
	}
	if len(p.resources)+p.creating >= p.o.MaxSize {
		p.mtx.Unlock()
		return nil, false, nil
	}
	p.creating++
	p.mtx.Unlock()
	r, err := p.create()
	p.mtx.Lock()
	p.creating--
	if err != nil {
		p.mtx.Unlock()
		return nil, false, err
	}
	if p.closed {
		p.mtx.Unlock()
		p.destroy(r)
		return nil, false, ErrPoolClosed
	}
	r.setState(StateAvailable)
	p.resources[r.id] = r
	p.mtx.Unlock()
	p.checkout(r, start)
	return r, true, nil
}

// Release returns an acquired resource to the pool and records its usage
// duration. Releasing a resource that is not checked out is a no-op.
func (p *Pool[T]) Release(r *Resource[T]) {
	if r == nil {
		return
	}
	r.mtx.Lock()
	if r.state != StateInUse {
		state := r.state
		r.mtx.Unlock()
		logger.Warn("pool release of resource not in use",
			logging.Pairs{"pool": p.name, "resource": r.id,
				"state": state.String()})
		return
	}
	r.state = StateAvailable
	r.mtx.Unlock()
	now := time.Now()
	if acq := r.acquired.Load(); !acq.IsZero() {
		d := now.Sub(acq)
		r.totalUse.Add(int64(d))
		p.totalUses.Add(1)
		p.totalUseNanos.Add(int64(d))
	}
	r.lastUsed.Store(now)
	metrics.PoolResourceEvents.WithLabelValues(p.name, "released").Inc()
	p.mtx.Lock()
	if p.closed {
		delete(p.resources, r.id)
		p.mtx.Unlock()
		p.destroy(r)
		return
	}
	if w := p.popWaiterLocked(); w != nil {
		p.mtx.Unlock()
		w <- r
	} else {
		p.idle = append(p.idle, r)
		p.mtx.Unlock()
	}
	p.publishGauges()
}

// Status returns a point-in-time summary of the pool
func (p *Pool[T]) Status() *Status {
	st := &Status{Name: p.name, Config: p.o.Clone(),
		Expired: p.expired.Load()}
	var uses int64
	p.mtx.Lock()
	st.QueueSize = len(p.waiters)
	st.Total = len(p.resources) + p.creating
	for _, r := range p.resources {
		switch r.State() {
		case StateAvailable:
			st.Available++
		case StateInUse:
			st.InUse++
		}
		uses += r.UseCount()
	}
	n := len(p.resources)
	p.mtx.Unlock()
	if n > 0 {
		st.AvgUseCount = float64(uses) / float64(n)
	}
	if t := p.totalUses.Load(); t > 0 {
		st.AvgUseTime = time.Duration(p.totalUseNanos.Load() / t)
	}
	return st
}

// TrimIdle disposes idle resources beyond the pool's minimum size, oldest
// first, and returns the number disposed. Checked-out resources are never
// trimmed.
func (p *Pool[T]) TrimIdle() int {
	var victims []*Resource[T]
	p.mtx.Lock()
	if !p.closed {
		excess := len(p.resources) + p.creating - p.o.MinSize
		for excess > 0 && len(p.idle) > 0 {
			r := p.idle[0]
			p.idle = p.idle[1:]
			delete(p.resources, r.id)
			victims = append(victims, r)
			excess--
		}
	}
	p.mtx.Unlock()
	for _, r := range victims {
		p.expire(r, "idle trim")
	}
	if len(victims) > 0 {
		p.publishGauges()
	}
	return len(victims)
}

// Shutdown stops the maintenance loop and disposes all pooled resources,
// including any currently checked out. Shutdown is idempotent; Acquire
// calls made after shutdown return ErrPoolClosed.
func (p *Pool[T]) Shutdown() {
	p.mtx.Lock()
	if p.closed {
		p.mtx.Unlock()
		return
	}
	p.closed = true
	waiters := p.waiters
	p.waiters = nil
	doomed := make([]*Resource[T], 0, len(p.resources))
	for id, r := range p.resources {
		delete(p.resources, id)
		doomed = append(doomed, r)
	}
	p.idle = nil
	p.mtx.Unlock()
	p.cancel()
	for _, w := range waiters {
		close(w)
	}
	for _, r := range doomed {
		p.destroy(r)
	}
	p.publishGauges()
	logger.Info("resource pool stopped",
		logging.Pairs{"pool": p.name, "disposed": len(doomed)})
}

// maintain runs the pool's periodic maintenance until ctx is canceled
func (p *Pool[T]) maintain(ctx context.Context) {
MAINTENANCE:
	for {
		select {
		case <-ctx.Done():
			break MAINTENANCE
		case <-time.After(p.o.ValidationInterval):
			p.expireAged()
			p.validateIdle()
			p.topUp()
			p.publishGauges()
		}
	}
}

// expireAged removes idle resources that have exceeded the pool's maximum
// lifetime or idle time. Checked-out resources are never force-expired.
func (p *Pool[T]) expireAged() {
	type victim struct {
		r      *Resource[T]
		reason string
	}
	var victims []victim
	p.mtx.Lock()
	kept := p.idle[:0]
	for _, r := range p.idle {
		switch {
		case p.o.MaxLifetime > 0 && r.Age() > p.o.MaxLifetime:
			delete(p.resources, r.id)
			victims = append(victims, victim{r, "max lifetime exceeded"})
		case p.o.MaxIdleTime > 0 && r.IdleFor() > p.o.MaxIdleTime:
			delete(p.resources, r.id)
			victims = append(victims, victim{r, "max idle time exceeded"})
		default:
			kept = append(kept, r)
		}
	}
	p.idle = kept
	p.mtx.Unlock()
	for _, v := range victims {
		p.expire(v.r, v.reason)
	}
}

// validateIdle runs the factory's validation over idle resources, expiring
// any that fail. One bad resource never halts the pass.
func (p *Pool[T]) validateIdle() {
	p.mtx.Lock()
	snapshot := slices.Clone(p.idle)
	p.mtx.Unlock()
	for _, r := range snapshot {
		if p.safeValidate(r) {
			continue
		}
		p.mtx.Lock()
		removed := p.removeIdleLocked(r)
		p.mtx.Unlock()
		// skip resources acquired since the snapshot was taken
		if removed {
			p.expire(r, "validation failed")
		}
	}
}

// topUp replenishes the pool to its minimum size, and to its maximum while
// callers are queued, creating resources one at a time
func (p *Pool[T]) topUp() {
	for {
		p.mtx.Lock()
		total := len(p.resources) + p.creating
		need := !p.closed && (total < p.o.MinSize ||
			(len(p.waiters) > 0 && total < p.o.MaxSize))
		if !need {
			p.mtx.Unlock()
			return
		}
		p.creating++
		p.mtx.Unlock()
		r, err := p.safeCreate()
		p.mtx.Lock()
		p.creating--
		if err != nil {
			p.mtx.Unlock()
			logger.Warn("pool replenishment failed",
				logging.Pairs{"pool": p.name, "error": err.Error()})
			return
		}
		if p.closed {
			p.mtx.Unlock()
			p.destroy(r)
			return
		}
		if w := p.popWaiterLocked(); w != nil {
			p.resources[r.id] = r
			p.mtx.Unlock()
			w <- r
			continue
		}
		r.setState(StateAvailable)
		p.resources[r.id] = r
		p.idle = append(p.idle, r)
		p.mtx.Unlock()
	}
}

// create constructs a new Resource via the factory. The returned Resource
// is not yet registered in the pool's table.
func (p *Pool[T]) create() (*Resource[T], error) {
	id := p.name + "-" + uuid.NewString()
	value, err := p.factory.Create(id)
	if err != nil {
		metrics.PoolResourceEvents.WithLabelValues(p.name, "create_failed").Inc()
		return nil, err
	}
	r := &Resource[T]{
		id:      id,
		value:   value,
		size:    p.factory.SizeOf(value),
		created: time.Now(),
		state:   StateCreating,
	}
	metrics.PoolResourceEvents.WithLabelValues(p.name, "created").Inc()
	logger.Debug("pool resource created", logging.Pairs{"pool": p.name,
		"resource": id, "sizeBytes": r.size})
	return r, nil
}

// safeCreate converts a factory create panic into an error so maintenance
// survives a misbehaving factory
func (p *Pool[T]) safeCreate() (r *Resource[T], err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("factory create panic: %v", rec)
		}
	}()
	return p.create()
}

func (p *Pool[T]) safeValidate(r *Resource[T]) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("pool validation panic",
				logging.Pairs{"pool": p.name, "resource": r.id,
					"panic": rec})
			ok = false
		}
	}()
	return p.factory.Validate(r.value)
}

// checkout marks a resource checked out and records acquisition metrics
func (p *Pool[T]) checkout(r *Resource[T], start time.Time) {
	r.setState(StateInUse)
	r.useCount.Add(1)
	r.acquired.Store(time.Now())
	metrics.PoolResourceEvents.WithLabelValues(p.name, "acquired").Inc()
	metrics.PoolAcquireDuration.WithLabelValues(p.name).
		Observe(time.Since(start).Seconds())
	p.publishGauges()
}

// expire marks a resource expired and disposes it
func (p *Pool[T]) expire(r *Resource[T], reason string) {
	r.setState(StateExpired)
	p.expired.Add(1)
	metrics.PoolResourceEvents.WithLabelValues(p.name, "expired").Inc()
	logger.Debug("pool resource expired", logging.Pairs{"pool": p.name,
		"resource": r.id, "reason": reason})
	p.destroy(r)
}

// destroy disposes a resource exactly once, absorbing factory errors and
// panics
func (p *Pool[T]) destroy(r *Resource[T]) {
	if !r.disposed.CompareAndSwap(false, true) {
		return
	}
	r.setState(StateDisposed)
	metrics.PoolResourceEvents.WithLabelValues(p.name, "disposed").Inc()
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("pool dispose panic",
					logging.Pairs{"pool": p.name, "resource": r.id,
						"panic": rec})
			}
		}()
		if err := p.factory.Dispose(r.value); err != nil {
			logger.Warn("pool resource disposal failed",
				logging.Pairs{"pool": p.name, "resource": r.id,
					"error": err.Error()})
		}
	}()
}

func (p *Pool[T]) popIdleLocked() *Resource[T] {
	if len(p.idle) == 0 {
		return nil
	}
	r := p.idle[0]
	p.idle = p.idle[1:]
	return r
}

func (p *Pool[T]) removeIdleLocked(r *Resource[T]) bool {
	i := slices.Index(p.idle, r)
	if i < 0 {
		return false
	}
	p.idle = slices.Delete(p.idle, i, i+1)
	delete(p.resources, r.id)
	return true
}

func (p *Pool[T]) popWaiterLocked() chan *Resource[T] {
	if len(p.waiters) == 0 {
		return nil
	}
	w := p.waiters[0]
	p.waiters = p.waiters[1:]
	metrics.PoolAcquireQueueLength.WithLabelValues(p.name).Set(float64(len(p.waiters)))
	return w
}

func (p *Pool[T]) removeWaiterLocked(w chan *Resource[T]) bool {
	i := slices.Index(p.waiters, w)
	if i < 0 {
		return false
	}
	p.waiters = slices.Delete(p.waiters, i, i+1)
	metrics.PoolAcquireQueueLength.WithLabelValues(p.name).Set(float64(len(p.waiters)))
	return true
}

// publishGauges updates the per-state resource gauges and queue length
func (p *Pool[T]) publishGauges() {
	counts := make(map[State]int, 5)
	p.mtx.Lock()
	counts[StateCreating] = p.creating
	for _, r := range p.resources {
		counts[r.State()]++
	}
	qs := len(p.waiters)
	p.mtx.Unlock()
	for s := StateCreating; s <= StateDisposed; s++ {
		metrics.PoolResources.WithLabelValues(p.name, s.String()).
			Set(float64(counts[s]))
	}
	metrics.PoolAcquireQueueLength.WithLabelValues(p.name).Set(float64(qs))
}
