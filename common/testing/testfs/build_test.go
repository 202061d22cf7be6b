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

package testfs

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	Convey("Build", t, func() {
		base := t.TempDir()
		err := Build(base, map[string]string{
			"empty/":      "",
			"a/b/file":    "hello",
			"a/b/script*": "#!/bin/sh\n",
		})
		So(err, ShouldBeNil)

		st, err := os.Stat(filepath.Join(base, "empty"))
		So(err, ShouldBeNil)
		So(st.IsDir(), ShouldBeTrue)

		data, err := os.ReadFile(filepath.Join(base, "a", "b", "file"))
		So(err, ShouldBeNil)
		So(string(data), ShouldEqual, "hello")

		st, err = os.Stat(filepath.Join(base, "a", "b", "script"))
		So(err, ShouldBeNil)
		So(st.Mode().Perm()&0100, ShouldNotEqual, 0)
	})
}
