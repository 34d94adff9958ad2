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

package status

import "testing"

func TestLookupStatusString(t *testing.T) {
	cases := []struct {
		lookup LookupStatus
		want   string
	}{
		{LookupStatusHit, "hit"},
		{LookupStatusKeyMiss, "kmiss"},
		{LookupStatusExpired, "expired"},
		{LookupStatusPurge, "purge"},
		{LookupStatusError, "error"},
		{LookupStatus(99), "99"},
	}
	for _, c := range cases {
		if s := c.lookup.String(); s != c.want {
			t.Errorf("expected %s got %s", c.want, s)
		}
	}
}

func TestLookupStatusNames(t *testing.T) {
	// the name and value mappings must mirror each other
	for name, status := range cacheLookupStatusNames {
		if v, ok := cacheLookupStatusValues[status]; !ok || v != name {
			t.Errorf("expected %s got %s", name, v)
		}
	}
}
