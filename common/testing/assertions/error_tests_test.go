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

package assertions

import (
	"errors"
	"testing"

	multierror "github.com/osoy/osoy/common/errors"

	. "github.com/smartystreets/goconvey/convey"
)

type customError struct{}

func (customError) Error() string { return "customError noob" }

func TestShouldErrLike(t *testing.T) {
	t.Parallel()

	ce := customError{}
	e := errors.New("e is for error")
	f := errors.New("f is not for error")
	me := multierror.MultiError{
		e,
		nil,
		ce,
	}

	Convey("Test ShouldContainErr", t, func() {
		Convey("too many params", func() {
			So(ShouldContainErr(nil, nil, nil), ShouldContainSubstring, "requires 0 or 1")
		})
		Convey("no expectation", func() {
			So(ShouldContainErr(me), ShouldEqual, "")
		})
		Convey("nil actual", func() {
			So(ShouldContainErr(nil, "wut"), ShouldContainSubstring, "Expected '<nil>' to NOT be nil")
		})
		Convey("string actual", func() {
			So(ShouldContainErr(me, "is for error"), ShouldEqual, "")
			So(ShouldContainErr(me, "customError"), ShouldEqual, "")
			So(ShouldContainErr(me, "is not for error"), ShouldContainSubstring, "expected MultiError to contain")
		})
		Convey("error actual", func() {
			So(ShouldContainErr(me, e), ShouldEqual, "")
			So(ShouldContainErr(me, f), ShouldContainSubstring, "expected MultiError to contain")
		})
		Convey("bad expected type", func() {
			So(ShouldContainErr(me, 20), ShouldContainSubstring, "unexpected argument type int")
		})
	})

	Convey("Test ShouldErrLike", t, func() {
		Convey("too many params", func() {
			So(ShouldErrLike(nil, nil, nil), ShouldContainSubstring, "requires 0 or 1")
		})
		Convey("no expectation", func() {
			So(ShouldErrLike(nil), ShouldEqual, "")
			So(ShouldErrLike(e), ShouldContainSubstring, "Expected: nil")
		})
		Convey("substring", func() {
			So(ShouldErrLike(e, "is for"), ShouldEqual, "")
			So(ShouldErrLike(ce, "noob"), ShouldEqual, "")
			So(ShouldErrLike(e, "nope"), ShouldNotEqual, "")
		})
		Convey("error expectation", func() {
			So(ShouldErrLike(ce, ce), ShouldEqual, "")
			So(ShouldErrLike(e, f), ShouldNotEqual, "")
		})
		Convey("nil actual", func() {
			So(ShouldErrLike(nil, "wut"), ShouldNotEqual, "")
		})
	})

	Convey("Test ShouldHaveTag", t, func() {
		tag := multierror.BoolTag{Key: multierror.NewTagKey("test tag")}
		So(ShouldHaveTag(tag.Apply(e), tag), ShouldEqual, "")
		So(ShouldHaveTag(e, tag), ShouldContainSubstring, "to be tagged with test tag")
		So(ShouldHaveTag(e, tag), ShouldNotContainSubstring, "&{")
		So(ShouldHaveTag(nil, tag), ShouldContainSubstring, "non-nil error")
	})
}
