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

package errors

// Walk performs a depth-first traversal of the supplied error, unfolding it and
// invoking the supplied callback for each layered error recursively. If the
// callback returns true, Walk will continue its traversal.
//
//   - If Walk encounters a MultiError (or any error with `Unwrap() []error`),
//     the callback is called once for the outer error, then once for each
//     inner error.
//   - If Walk encounters a wrapped error, the callback is called for the outer
//     and inner error.
//
// If err is nil, the callback will not be invoked.
func Walk(err error, fn func(error) bool) {
	_ = walkVisit(err, fn)
}

func walkVisit(err error, fn func(error) bool) bool {
	if err == nil {
		return true
	}

	if !fn(err) {
		return false
	}

	switch t := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range t.Unwrap() {
			if !walkVisit(e, fn) {
				return false
			}
		}

	case interface{ Unwrap() error }:
		return walkVisit(t.Unwrap(), fn)
	}

	return true
}

// Any performs a Walk traversal of an error, returning true (and
// short-circuiting) if the supplied filter function returns true for any
// visited error.
//
// If err is nil, Any will return false.
func Any(err error, fn func(error) bool) (any bool) {
	Walk(err, func(err error) bool {
		any = fn(err)
		return !any
	})
	return
}

// Contains performs a Walk traversal of an error, returning true if it is or
// contains the supplied sentinel error.
func Contains(err, sentinel error) bool {
	return Any(err, func(err error) bool {
		return err == sentinel
	})
}
