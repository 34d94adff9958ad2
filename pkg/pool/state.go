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

import "strconv"

// State describes the lifecycle state of a pooled resource
type State int

const (
	// StateCreating indicates the resource is being constructed by the factory
	StateCreating = State(iota)
	// StateAvailable indicates the resource is idle and ready for acquisition
	StateAvailable
	// StateInUse indicates the resource is checked out by a caller
	StateInUse
	// StateExpired indicates the resource has aged out or failed validation
	// and is awaiting disposal
	StateExpired
	// StateDisposed indicates the resource has been destroyed
	StateDisposed
)

var stateNames = map[State]string{
	StateCreating:  "creating",
	StateAvailable: "available",
	StateInUse:     "in_use",
	StateExpired:   "expired",
	StateDisposed:  "disposed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return strconv.Itoa(int(s))
}
