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

package cli

import (
	"context"
	"testing"

	"github.com/maruel/subcommands"

	. "github.com/smartystreets/goconvey/convey"
)

type ctxKey string

type fakeRun struct {
	subcommands.CommandRunBase
}

func (r *fakeRun) ModifyContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey("run"), "yes")
}

func (r *fakeRun) Run(subcommands.Application, []string, subcommands.Env) int { return 0 }

func TestGetContext(t *testing.T) {
	t.Parallel()

	Convey("GetContext", t, func() {
		app := &Application{
			Name: "test",
			Context: func(ctx context.Context) context.Context {
				return context.WithValue(ctx, ctxKey("app"), "yes")
			},
		}
		env := subcommands.Env{"SOME_VAR": subcommands.EnvVar{Value: "value", Exists: true}}

		ctx := GetContext(app, &fakeRun{}, env)
		So(ctx.Value(ctxKey("app")), ShouldEqual, "yes")
		So(ctx.Value(ctxKey("run")), ShouldEqual, "yes")
		So(Getenv(ctx, "SOME_VAR"), ShouldEqual, "value")
	})
}
