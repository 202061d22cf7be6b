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
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/maruel/subcommands"

	"github.com/osoy/osoy/builder"
	"github.com/osoy/osoy/common/cli"
	"github.com/osoy/osoy/common/data/stringset"
	"github.com/osoy/osoy/common/errors"
	"github.com/osoy/osoy/common/logging"
	"github.com/osoy/osoy/config"
	"github.com/osoy/osoy/link"
	"github.com/osoy/osoy/location"
	"github.com/osoy/osoy/repos"
)

// linkRun holds the flags of commands creating links.
type linkRun struct {
	baseRun

	match matchFlags
	force bool
}

func (r *linkRun) registerLinkFlags(p Params) {
	r.registerBaseFlags(p)
	r.match.register(&r.Flags)
	r.Flags.BoolVar(&r.force, "force", false, "Do not ask for confirmation.")
}

// repoExecutables lists the executables built by the repository at path.
func repoExecutables(path string) []string {
	var ret []string
	for _, dir := range builder.OutputDirs(path, builder.Detect(path)) {
		exes, err := link.Executables(dir)
		if err != nil {
			continue
		}
		ret = append(ret, exes...)
	}
	return ret
}

// linkAll links the executables of paths into bin, asking about each one
// unless forced. Executables already linked are skipped, as are later
// executables whose name is taken by an earlier one. Failed links are
// reported and returned.
func (r *linkRun) linkAll(a subcommands.Application, cfg *config.Config, paths []string) (errs errors.MultiError) {
	names := stringset.New(0)
	for _, path := range paths {
		for _, exe := range repoExecutables(path) {
			name := filepath.Base(exe)
			if !names.Add(name) {
				continue
			}
			sym := filepath.Join(cfg.Bin, name)
			if dest, err := filepath.EvalSymlinks(sym); err == nil {
				if abs, err := filepath.EvalSymlinks(exe); err == nil && abs == dest {
					continue
				}
			}

			rel := repos.Relative(cfg.Src, exe)
			if !r.force && !r.confirm(fmt.Sprintf("link %q?", rel)) {
				continue
			}
			if _, err := link.Create(cfg.Bin, exe); err != nil {
				fail(a, &errs, rel, err)
				continue
			}
			if r.verbose {
				fmt.Fprintf(a.GetOut(), "%s -> %s\n", name, rel)
			}
		}
	}
	return errs
}

func cmdLink(p Params) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "link [flags] [TARGET...]",
		ShortDesc: "link executables into the bin directory",
		LongDesc: doc(`
			Create symbolic links in the bin directory for the executables of the
			repositories matching any target.

			Executables are looked up in the repository root, in its bin
			directory and, for cargo projects, in target/release.
		`) + "\n\n" + location.About(),
		CommandRun: func() subcommands.CommandRun {
			r := &linkRun{}
			r.registerLinkFlags(p)
			return r
		},
	}
}

func (r *linkRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, r, env)
	m, err := r.match.matcher(args)
	if err != nil {
		return r.done(a, err)
	}
	cfg, err := r.config(ctx)
	if err != nil {
		return r.done(a, err)
	}

	var errs errors.MultiError
	err = config.WithLock(ctx, cfg, func(ctx context.Context) error {
		paths, err := repos.MatchingExists(cfg.Src, m)
		if err != nil {
			return err
		}
		errs = r.linkAll(a, cfg, paths)
		return nil
	})
	if err != nil {
		return r.done(a, err)
	}
	return exitCode(errs)
}

func cmdUnlink(p Params) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "unlink [flags] TARGET [TARGET...]",
		ShortDesc: "remove links of repositories",
		LongDesc: doc(`
			Remove the symbolic links in the bin directory pointing into the
			repositories matching any target.
		`) + "\n\n" + location.About(),
		CommandRun: func() subcommands.CommandRun {
			r := &unlinkRun{}
			r.registerLinkFlags(p)
			return r
		},
	}
}

type unlinkRun struct {
	linkRun
}

func (r *unlinkRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, r, env)
	if len(args) == 0 {
		return r.usage(a, "no targets given")
	}
	m, err := r.match.matcher(args)
	if err != nil {
		return r.done(a, err)
	}
	cfg, err := r.config(ctx)
	if err != nil {
		return r.done(a, err)
	}

	var errs errors.MultiError
	err = config.WithLock(ctx, cfg, func(ctx context.Context) error {
		paths, err := repos.MatchingExists(cfg.Src, m)
		if err != nil {
			return err
		}
		links, err := link.Links(cfg.Bin, paths)
		if err != nil {
			return err
		}
		for _, l := range links {
			name := filepath.Base(l.Path)
			if !r.force && !r.confirm(fmt.Sprintf("unlink %q?", repos.Relative(cfg.Src, l.Target))) {
				continue
			}
			if err := os.Remove(l.Path); err != nil {
				fail(a, &errs, name, err)
				continue
			}
			if r.verbose {
				fmt.Fprintf(a.GetOut(), "removed %s\n", name)
			}
		}
		return nil
	})
	if err != nil {
		return r.done(a, err)
	}
	return exitCode(errs)
}

func cmdBuild(p Params) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "build [flags] [TARGET...]",
		ShortDesc: "build repositories and link their executables",
		LongDesc: doc(`
			Build the repositories matching any target with make or cargo, then
			link their executables like the link command.

			Repositories without a Makefile or Cargo.toml are skipped. Build
			output goes to stderr.
		`) + "\n\n" + location.About(),
		CommandRun: func() subcommands.CommandRun {
			r := &buildRun{}
			r.registerLinkFlags(p)
			r.Flags.StringVar(&r.target, "target", "", "Make target to build.")
			return r
		},
	}
}

type buildRun struct {
	linkRun

	target string
}

func (r *buildRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, r, env)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	m, err := r.match.matcher(args)
	if err != nil {
		return r.done(a, err)
	}
	cfg, err := r.config(ctx)
	if err != nil {
		return r.done(a, err)
	}

	var errs errors.MultiError
	err = config.WithLock(ctx, cfg, func(ctx context.Context) error {
		paths, err := repos.MatchingExists(cfg.Src, m)
		if err != nil {
			return err
		}
		built := 0
		for _, path := range paths {
			rel := repos.Relative(cfg.Src, path)
			method := builder.Detect(path)
			if method == builder.None {
				logging.Debugf(ctx, "No build method for %s", rel)
				continue
			}
			fmt.Fprintf(a.GetOut(), "%s\n> %s\n", rel, joinArgs(builder.Command(method, r.target)))
			err := builder.Build(ctx, path, builder.Options{
				Target: r.target,
				Stdout: a.GetErr(),
				Stderr: a.GetErr(),
			})
			switch {
			case ctx.Err() != nil:
				return ctx.Err()
			case err != nil:
				fail(a, &errs, rel, err)
			default:
				built++
			}
		}
		fmt.Fprintf(a.GetOut(), "%d repositories built\n", built)
		errs = append(errs, r.linkAll(a, cfg, paths)...)
		return nil
	})
	if err != nil {
		return r.done(a, errors.Annotate(err, "building").Err())
	}
	return exitCode(errs)
}
