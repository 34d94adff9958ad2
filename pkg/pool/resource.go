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

package pool

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/memwarden/memwarden/pkg/util/atomicx"
)

// Resource wraps a pooled value with its lifecycle bookkeeping. State
// transitions are made while holding the Resource's own lock, which is
// narrower than the pool's table lock.
type Resource[T any] struct {
	id       string
	value    T
	size     int64
	created  time.Time
	lastUsed atomicx.Time
	acquired atomicx.Time
	useCount atomic.Int64
	totalUse atomic.Int64 // cumulative time in use, in nanoseconds
	disposed atomic.Bool
	mtx      sync.Mutex
	state    State
}

// ID returns the pool-unique identifier of the Resource
func (r *Resource[T]) ID() string {
	return r.id
}

// Value returns the underlying pooled value
func (r *Resource[T]) Value() T {
	return r.value
}

// Size returns the factory's byte size estimate for the Resource. The
// estimate is informational and does not bound the pool.
func (r *Resource[T]) Size() int64 {
	return r.size
}

// State returns the current lifecycle state of the Resource
func (r *Resource[T]) State() State {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return r.state
}

func (r *Resource[T]) setState(s State) {
	r.mtx.Lock()
	r.state = s
	r.mtx.Unlock()
}

// UseCount returns the number of times the Resource has been acquired
func (r *Resource[T]) UseCount() int64 {
	return r.useCount.Load()
}

// Age returns the time elapsed since the Resource was created
func (r *Resource[T]) Age() time.Duration {
	return time.Since(r.created)
}

// IdleFor returns the time elapsed since the Resource was last released,
// or since creation if it has never been used
func (r *Resource[T]) IdleFor() time.Duration {
	lu := r.lastUsed.Load()
	if lu.IsZero() {
		return time.Since(r.created)
	}
	return time.Since(lu)
}
