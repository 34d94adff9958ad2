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

// Package atomicx provides atomic wrappers for types not covered by
// sync/atomic
package atomicx

import (
	"sync/atomic"
	"time"

	"github.com/tinylib/msgp/msgp"
)

// NewTime returns a Time initialized to the provided time.Time
func NewTime(in time.Time) *Time {
	t := &Time{}
	t.Store(in)
	return t
}

// Time is a wrapper for atomic.Int64 that holds a unix nanosecond timestamp
// and implements the msgp encoding interfaces. The zero value of Time holds
// the zero time.
type Time struct {
	v atomic.Int64
}

// Load returns the currently stored time
func (t *Time) Load() time.Time {
	n := t.v.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Store atomically replaces the stored time with t2
func (t *Time) Store(t2 time.Time) {
	if t2.IsZero() {
		t.v.Store(0)
		return
	}
	t.v.Store(t2.UnixNano())
}

// IsZero returns true if the stored time is the zero value
func (t *Time) IsZero() bool {
	return t.v.Load() == 0
}

// Before returns true if the stored time is before t2
func (t *Time) Before(t2 time.Time) bool {
	return t.Load().Before(t2)
}

// EncodeMsg implements msgp.Encodable
func (t *Time) EncodeMsg(en *msgp.Writer) error {
	return en.WriteInt64(t.v.Load())
}

// DecodeMsg implements msgp.Decodable
func (t *Time) DecodeMsg(dc *msgp.Reader) error {
	i, err := dc.ReadInt64()
	if err != nil {
		return err
	}
	t.v.Store(i)
	return nil
}

// MarshalMsg implements msgp.Marshaler
func (t *Time) MarshalMsg(b []byte) ([]byte, error) {
	return msgp.AppendInt64(b, t.v.Load()), nil
}

// UnmarshalMsg implements msgp.Unmarshaler
func (t *Time) UnmarshalMsg(b []byte) ([]byte, error) {
	i, o, err := msgp.ReadInt64Bytes(b)
	if err != nil {
		return o, err
	}
	t.v.Store(i)
	return o, nil
}

// Msgsize implements msgp.Sizer
func (t *Time) Msgsize() int {
	return msgp.Int64Size
}
