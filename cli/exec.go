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
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/maruel/subcommands"

	"github.com/osoy/osoy/common/cli"
	"github.com/osoy/osoy/common/ctxcmd"
	"github.com/osoy/osoy/location"
	"github.com/osoy/osoy/repos"
)

func joinArgs(argv []string) string {
	return strings.Join(argv, " ")
}

func cmdExec(p Params) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "exec [flags] TARGET COMMAND [ARG...]",
		ShortDesc: "run a command in repositories",
		LongDesc: doc(`
			Run COMMAND in every repository matching TARGET and report its exit
			status. Command output is shown with -v and discarded otherwise.

			The exit code is the number of repositories where the command failed.
		`) + "\n\n" + location.About(),
		CommandRun: func() subcommands.CommandRun {
			r := &execRun{}
			r.registerBaseFlags(p)
			r.match.register(&r.Flags)
			return r
		},
	}
}

type execRun struct {
	baseRun

	match matchFlags
}

func (r *execRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, r, env)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if len(args) < 2 {
		return r.usage(a, "expecting a target and a command")
	}
	m, err := r.match.matcher(args[:1])
	if err != nil {
		return r.done(a, err)
	}
	cfg, err := r.config(ctx)
	if err != nil {
		return r.done(a, err)
	}
	paths, err := repos.MatchingExists(cfg.Src, m)
	if err != nil {
		return r.done(a, err)
	}

	color := painter(isTerminal(a.GetOut()))
	var stdout, stderr io.Writer = io.Discard, io.Discard
	if r.verbose {
		stdout, stderr = a.GetOut(), a.GetErr()
	}
	failed := 0
	for _, path := range paths {
		rel := repos.Relative(cfg.Src, path)
		cmd := ctxcmd.Command(ctx, args[1], args[2:]...)
		cmd.CancelSignal = os.Interrupt
		cmd.Dir = path
		cmd.Env = append(os.Environ(), "PWD="+path)
		cmd.Stdout, cmd.Stderr = stdout, stderr

		err := cmd.Run()
		if ctx.Err() != nil {
			return r.done(a, ctx.Err())
		}
		if err == nil {
			fmt.Fprintf(a.GetOut(), "%s %s\n", rel, color.paint("ok", "green"))
			continue
		}
		failed++
		if code, ok := ctxcmd.ExitCode(err); ok {
			fmt.Fprintf(a.GetOut(), "%s %s\n", rel, color.paint(fmt.Sprintf("exit code %d", code), "red"))
		} else {
			fmt.Fprintf(a.GetOut(), "%s %s: %s\n", rel, color.paint("failed", "red"), err)
		}
	}
	return failures(failed)
}

func cmdVersion(p Params) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "version",
		ShortDesc: "print the version",
		LongDesc:  "Print the version of osoy.",
		CommandRun: func() subcommands.CommandRun {
			r := &versionRun{}
			r.registerBaseFlags(p)
			return r
		},
	}
}

type versionRun struct {
	baseRun
}

func (r *versionRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	version := r.params.Version
	if version == "" {
		version = "unknown"
	}
	fmt.Fprintf(a.GetOut(), "%s %s\n", a.GetName(), version)
	return 0
}
