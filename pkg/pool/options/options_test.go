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

package options

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestNew(t *testing.T) {
	o := New()
	if o.MinSize != DefaultMinSize {
		t.Errorf("expected %d got %d", DefaultMinSize, o.MinSize)
	}
	if o.ValidationInterval != DefaultValidationInterval {
		t.Errorf("expected %v got %v", DefaultValidationInterval,
			o.ValidationInterval)
	}
}

func TestCloneAndEqual(t *testing.T) {
	o := New()
	o.MaxSize = 3
	o2 := o.Clone()
	if !o.Equal(o2) {
		t.Error("expected cloned options to be equal")
	}
	o2.MaxIdleTime = time.Minute
	if o.Equal(o2) {
		t.Error("expected options to be unequal")
	}
	if o.Equal(nil) {
		t.Error("expected false for nil comparison")
	}
}

func TestValidate(t *testing.T) {
	o := New()
	if err := o.Validate(); err != nil {
		t.Error(err)
	}
	o.MinSize = 5
	o.MaxSize = 3
	if err := o.Validate(); err != ErrInvalidPoolSize {
		t.Errorf("expected %v got %v", ErrInvalidPoolSize, err)
	}
	o.MinSize = -1
	o.MaxSize = 3
	if err := o.Validate(); err != ErrInvalidPoolSize {
		t.Errorf("expected %v got %v", ErrInvalidPoolSize, err)
	}
}

func TestUnmarshalYAML(t *testing.T) {
	data := []byte("min_size: 0\nmax_size: 4\n")
	o := &Options{}
	if err := yaml.Unmarshal(data, o); err != nil {
		t.Error(err)
	}
	if o.MinSize != 0 {
		t.Errorf("expected 0 got %d", o.MinSize)
	}
	if o.MaxSize != 4 {
		t.Errorf("expected 4 got %d", o.MaxSize)
	}
	// unset keys retain their defaults
	if o.MaxLifetime != DefaultMaxLifetime {
		t.Errorf("expected %v got %v", DefaultMaxLifetime, o.MaxLifetime)
	}
}
