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

import (
	"testing"
)

func TestProviderIDString(t *testing.T) {

	t1 := MemoryID
	t2 := BBoltID
	var t3 Provider = 13

	if t1.String() != "memory" {
		t.Errorf("expected %s got %s", "memory", t1.String())
	}

	if t2.String() != "bbolt" {
		t.Errorf("expected %s got %s", "bbolt", t2.String())
	}

	if t3.String() != "13" {
		t.Errorf("expected %s got %s", "13", t3.String())
	}

}

func TestUsesIndex(t *testing.T) {
	tests := []struct {
		provider string
		expected bool
	}{
		{Memory, true},
		{BBolt, true},
		{BigCache, false},
		{Redis, false},
		{BadgerDB, false},
	}
	for _, test := range tests {
		if b := UsesIndex(test.provider); b != test.expected {
			t.Errorf("expected %t got %t for %s", test.expected, b, test.provider)
		}
	}
}
