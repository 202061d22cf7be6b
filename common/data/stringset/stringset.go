// Copyright 2026 The LUCI Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package stringset is an exceedingly simple 'set' implementation for strings.
//
// It's not threadsafe.
package stringset

import (
	"sort"
)

// Set is the interface for all string set implementations in this package.
type Set map[string]struct{}

// New returns a new string Set implementation.
func New(sizeHint int) Set {
	return make(Set, sizeHint)
}

// NewFromSlice returns a new string Set implementation, initialized with the
// values in the provided slice.
func NewFromSlice(vals ...string) Set {
	ret := New(len(vals))
	for _, v := range vals {
		ret.Add(v)
	}
	return ret
}

// Has returns true iff the Set contains value.
func (s Set) Has(value string) bool {
	_, ret := s[value]
	return ret
}

// Add ensures that Set contains value, and returns true if it was added (i.e.
// it returns false if the Set already contained the value).
func (s Set) Add(value string) bool {
	ret := !s.Has(value)
	s[value] = struct{}{}
	return ret
}

// Del removes value from the set, and returns true if it was deleted (i.e. it
// returns false if the Set did not already contain the value).
func (s Set) Del(value string) bool {
	ret := s.Has(value)
	delete(s, value)
	return ret
}

// Len returns the number of items in this Set.
func (s Set) Len() int {
	return len(s)
}

// ToSortedSlice returns the values of the Set in sorted order.
func (s Set) ToSortedSlice() []string {
	ret := make([]string, 0, len(s))
	for v := range s {
		ret = append(ret, v)
	}
	sort.Strings(ret)
	return ret
}
