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

import (
	"fmt"
)

// annotatedError is an error with a reason and a set of tags wrapped around an
// optional inner error.
type annotatedError struct {
	inner  error
	reason string
	tags   map[TagKey]any
}

func (e *annotatedError) Error() string {
	switch {
	case e.inner == nil:
		return e.reason
	case e.reason == "":
		return e.inner.Error()
	default:
		return e.reason + ": " + e.inner.Error()
	}
}

// Unwrap returns the annotated error.
func (e *annotatedError) Unwrap() error { return e.inner }

// Annotator is a builder for annotating errors. Obtain one by calling
// Annotate or Reason, and finish it with Err.
//
// All methods are nil-safe: annotating a nil error yields a nil error.
type Annotator struct {
	inner  error
	reason string
	tags   map[TagKey]any
}

// Annotate captures err and starts building an annotation for it. The reason
// is formatted with fmt.Sprintf when args are given.
//
// If err is nil, Annotate returns nil, and Err on that nil Annotator returns
// nil too, so `return errors.Annotate(err, "...").Err()` is safe to write
// without checking err first.
func Annotate(err error, reason string, args ...any) *Annotator {
	if err == nil {
		return nil
	}
	return &Annotator{inner: err, reason: format(reason, args)}
}

// Reason builds a new error with the given reason and no inner error.
func Reason(reason string, args ...any) *Annotator {
	return &Annotator{reason: format(reason, args)}
}

// Tag adds tags to the error being built.
func (a *Annotator) Tag(tags ...TagValueGenerator) *Annotator {
	if a == nil {
		return nil
	}
	for _, t := range tags {
		v := t.GenerateErrorTagValue()
		if a.tags == nil {
			a.tags = make(map[TagKey]any, len(tags))
		}
		a.tags[v.Key] = v.Value
	}
	return a
}

// Err returns the finished error.
func (a *Annotator) Err() error {
	if a == nil {
		return nil
	}
	return &annotatedError{inner: a.inner, reason: a.reason, tags: a.tags}
}

func format(reason string, args []any) string {
	if len(args) == 0 {
		return reason
	}
	return fmt.Sprintf(reason, args...)
}
