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

	"github.com/maruel/subcommands"

	"github.com/osoy/osoy/common/cli"
	"github.com/osoy/osoy/common/data/stringset"
	"github.com/osoy/osoy/common/logging"
	"github.com/osoy/osoy/config"
	"github.com/osoy/osoy/location"
	"github.com/osoy/osoy/repos"
	"github.com/osoy/osoy/transfer"
)

// transferRun holds the flags of commands moving objects over the network.
type transferRun struct {
	baseRun

	parallel    int
	maxAttempts int
}

func (r *transferRun) registerTransferFlags(p Params) {
	r.registerBaseFlags(p)
	r.Flags.IntVar(&r.parallel, "parallel", DefaultParallel, "Number of transfers to run at once.")
	r.Flags.IntVar(&r.parallel, "j", DefaultParallel, "Alias for -parallel.")
	r.Flags.IntVar(&r.maxAttempts, "auth-attempts", transfer.DefaultMaxAuthAttempts,
		"How many times credentials are asked for per repository.")
}

func (r *transferRun) options(cfg *config.Config) transfer.Options {
	return transfer.Options{
		Board: transfer.NewBoard(),
		Auth: transfer.NewAuthCache(transfer.AuthOptions{
			Prompter: r.params.Prompter,
			SSHKey:   cfg.SSHKey,
		}),
		MaxAuthAttempts: r.maxAttempts,
	}
}

func cmdClone(p Params) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "clone [flags] TARGET [TARGET...]",
		ShortDesc: "clone repositories",
		LongDesc: doc(`
			Clone repositories into the source tree.

			Repositories are cloned concurrently. A clone that fails is removed
			together with any links into it. Targets whose destination already
			exists are reported as failed and left untouched.

			The exit code is the number of failed clones.
		`) + "\n\n" + location.About(),
		CommandRun: func() subcommands.CommandRun {
			r := &cloneRun{}
			r.registerTransferFlags(p)
			return r
		},
	}
}

type cloneRun struct {
	transferRun
}

func (r *cloneRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, r, env)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if len(args) == 0 {
		return r.usage(a, "no targets given")
	}
	locs, err := location.ParseAll(args)
	if err != nil {
		return r.done(a, err)
	}
	cfg, err := r.config(ctx)
	if err != nil {
		return r.done(a, err)
	}

	failed := 0
	err = config.WithLock(ctx, cfg, func(ctx context.Context) (err error) {
		failed, err = r.clone(ctx, a, cfg, locs)
		return
	})
	if err != nil {
		return r.done(a, err)
	}
	return failures(failed)
}

func (r *cloneRun) clone(ctx context.Context, a subcommands.Application, cfg *config.Config, locs []*location.Location) (int, error) {
	rp := newReporter(&r.baseRun, a.GetOut(), a.GetErr(), cfg.Src)

	failed := 0
	seen := stringset.New(len(locs))
	targets := make([]transfer.CloneTarget, 0, len(locs))
	for _, loc := range locs {
		path := loc.Path(cfg.Src)
		if !seen.Add(path) {
			continue
		}
		if _, err := os.Lstat(path); err == nil {
			failed++
			fmt.Fprintln(a.GetOut(), rp.line(transfer.Event{Kind: transfer.EventDone, ID: path, Err: repos.ErrDestinationExists}))
			continue
		}
		targets = append(targets, transfer.CloneTarget{URL: loc.URL(), Path: path})
	}
	if len(targets) == 0 {
		return failed, nil
	}

	events, err := transfer.Clone(ctx, targets, r.parallel, r.options(cfg))
	if err != nil {
		return failed, err
	}
	failed += rp.drain(events, func(ev transfer.Event) {
		if ev.Err == nil {
			return
		}
		if _, _, err := repos.Remove(cfg.Bin, ev.ID); err != nil {
			logging.Warningf(ctx, "Failed to clean up %s: %s", ev.ID, err)
		}
	})
	if r.verbose {
		fmt.Fprintln(a.GetErr(), summary("cloned", seen.Len(), failed))
	}
	return failed, nil
}

func cmdPull(p Params) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "pull [flags] [TARGET...]",
		ShortDesc: "pull repositories",
		LongDesc: doc(`
			Fetch the current branch of repositories from origin and fast-forward
			them.

			Without targets every repository in the source tree is pulled. Each
			repository is reported with its outcome: up-to-date, fast-forward, or
			overwritten when -force reset a diverged branch to origin.

			The exit code is the number of failed pulls.
		`) + "\n\n" + location.About(),
		CommandRun: func() subcommands.CommandRun {
			r := &pullRun{}
			r.registerTransferFlags(p)
			r.match.register(&r.Flags)
			r.Flags.BoolVar(&r.force, "force", false, "Reset diverged branches to origin.")
			return r
		},
	}
}

type pullRun struct {
	transferRun

	match matchFlags
	force bool
}

func (r *pullRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
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

	failed := 0
	err = config.WithLock(ctx, cfg, func(ctx context.Context) error {
		paths, err := repos.MatchingExists(cfg.Src, m)
		if err != nil {
			return err
		}
		opts := r.options(cfg)
		opts.Force = r.force
		events, err := transfer.Pull(ctx, paths, r.parallel, opts)
		if err != nil {
			return err
		}
		rp := newReporter(&r.baseRun, a.GetOut(), a.GetErr(), cfg.Src)
		rp.outcome = true
		failed = rp.drain(events, nil)
		if r.verbose {
			fmt.Fprintln(a.GetErr(), summary("pulled", len(paths), failed))
		}
		return nil
	})
	if err != nil {
		return r.done(a, err)
	}
	return failures(failed)
}

