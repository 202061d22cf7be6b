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

// Package assertions contains goconvey assertions for errors.
package assertions

import (
	"fmt"

	"github.com/smarty/assertions"

	"github.com/osoy/osoy/common/errors"
)

// ShouldContainErr checks if an `errors.MultiError` on the left side contains
// as one of its errors an `error` or `string` on the right side. If nothing is
// provided on the right, checks that the left side contains at least one non-nil
// error.
//
// To avoid confusion, explicitly rejects the special case where the right side is
// an `errors.MultiError`.
func ShouldContainErr(actual any, expected ...any) string {
	if len(expected) > 1 {
		return fmt.Sprintf("ShouldContainErr requires 0 or 1 expected value, got %d", len(expected))
	}

	if actual == nil {
		return assertions.ShouldNotBeNil(actual)
	}

	me, ok := actual.(errors.MultiError)
	if !ok {
		return assertions.ShouldHaveSameTypeAs(actual, errors.MultiError{})
	}

	if len(expected) == 0 {
		return assertions.ShouldNotBeNil(me.First())
	}

	switch expected[0].(type) {
	case string, error:
		if _, isME := expected[0].(errors.MultiError); isME {
			return "expected value must not be a MultiError"
		}
	default:
		return fmt.Sprintf("unexpected argument type %T, expected string or error", expected[0])
	}

	for _, err := range me {
		if err != nil && ShouldErrLike(err, expected[0]) == "" {
			return ""
		}
	}
	return fmt.Sprintf("expected MultiError to contain %q", expected[0])
}

// ShouldErrLike compares an `error` or `string` on the left side, to an `error`
// or `string` on the right side.
//
// If the righthand side is omitted, this expects `actual` to be nil.
//
// Example:
//
//	// Usage                             Equivalent To
//	So(err, ShouldErrLike, "custom")    // `err.Error()` ShouldContainSubstring "custom"
//	So(err, ShouldErrLike, io.EOF)      // `err.Error()` ShouldContainSubstring io.EOF.Error()
//	So(nilErr, ShouldErrLike)           // nilErr ShouldBeNil
//	So(nonNilErr, ShouldErrLike, "")    // nonNilErr ShouldNotBeNil
func ShouldErrLike(actual any, expected ...any) string {
	if len(expected) == 0 {
		return assertions.ShouldBeNil(actual)
	}
	if len(expected) != 1 {
		return fmt.Sprintf("ShouldErrLike requires 0 or 1 expected value, got %d", len(expected))
	}

	if expected[0] == nil {
		return assertions.ShouldBeNil(actual)
	} else if actual == nil {
		return assertions.ShouldNotBeNil(actual)
	}

	ae, ok := actual.(error)
	if !ok {
		return assertions.ShouldImplement(actual, (*error)(nil))
	}

	switch x := expected[0].(type) {
	case string:
		return assertions.ShouldContainSubstring(ae.Error(), x)
	case error:
		return assertions.ShouldContainSubstring(ae.Error(), x.Error())
	}
	return fmt.Sprintf("unexpected argument type %T, expected string or error", expected[0])
}

// ShouldHaveTag asserts that the error on the left carries the errors.BoolTag
// on the right.
func ShouldHaveTag(actual any, expected ...any) string {
	if len(expected) != 1 {
		return fmt.Sprintf("ShouldHaveTag requires exactly one expected value, got %d", len(expected))
	}
	tag, ok := expected[0].(errors.BoolTag)
	if !ok {
		return fmt.Sprintf("ShouldHaveTag requires an errors.BoolTag, got %T", expected[0])
	}
	err, ok := actual.(error)
	if !ok || err == nil {
		return fmt.Sprintf("ShouldHaveTag requires a non-nil error, got %v", actual)
	}
	if !tag.In(err) {
		return fmt.Sprintf("expected %q to be tagged with %s", err, tag)
	}
	return ""
}
