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

// Package index defines the Memwarden Cache Index
package index

import (
	"bytes"

	"github.com/memwarden/memwarden/pkg/cache"
	"github.com/memwarden/memwarden/pkg/util/atomicx"
)

// IndexKey is the reserved key under which the index will write itself to its
// associated cache. User writes to this key are rejected.
const IndexKey = "warden.index"

// FallbackObjectSize is the fixed per-entry accounting size applied when a
// stored reference cannot report its own byte size. Sizing problems degrade
// to this estimate instead of failing the write.
const FallbackObjectSize = 1 << 10

// Object contains metadata about an item in the Cache
type Object struct {
	// Key represents the name of the Object and is the
	// accessor in a hashed collection of Cache Objects
	Key string `msg:"key"`
	// Expiration represents the time that the Object expires from Cache
	Expiration atomicx.Time `msg:"expiration"`
	// LastWrite is the time the object was last Written
	LastWrite atomicx.Time `msg:"lastwrite"`
	// LastAccess is the time the object was last Accessed
	LastAccess atomicx.Time `msg:"lastaccess"`
	// Size the size of the Object in bytes
	Size int64 `msg:"size"`
	// Value is the value of the Object stored in the Cache
	// It is used by Caches but not by the Index
	Value []byte `msg:"value"`
	// ReferenceValue is an interface value for storing objects by reference in a memory cache
	// Since we'd never recover a memory cache index from memory on startup, it is not serialized
	ReferenceValue cache.ReferenceObject `msg:"-"`
}

func (o *Object) Equal(other *Object) bool {
	return o.Key == other.Key &&
		o.Expiration.Load().Equal(other.Expiration.Load()) &&
		o.LastWrite.Load().Equal(other.LastWrite.Load()) &&
		o.LastAccess.Load().Equal(other.LastAccess.Load()) &&
		o.Size == other.Size &&
		((o.ReferenceValue != nil && o.ReferenceValue == other.ReferenceValue) || bytes.Equal(o.Value, other.Value))
}

// ToBytes returns a serialized byte slice representing the Object
func (o *Object) ToBytes() []byte {
	bytes, _ := o.MarshalMsg(nil)
	return bytes
}

// ObjectFromBytes returns a deserialized Cache Object from a serialized byte slice
func ObjectFromBytes(data []byte) (*Object, error) {
	o := &Object{}
	_, err := o.UnmarshalMsg(data)
	return o, err
}

// objectsAtime sorts a slice of Objects by LastAccess, oldest first
type objectsAtime []*Object

// Len returns the number of elements in the subject slice
func (o objectsAtime) Len() int {
	return len(o)
}

// Less returns true if i comes before j
func (o objectsAtime) Less(i, j int) bool {
	return o[i].LastAccess.Load().Before(o[j].LastAccess.Load())
}

// Swap modifies the subject slice by swapping the values in indexes i and j
func (o objectsAtime) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
}
