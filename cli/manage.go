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

	"github.com/maruel/subcommands"

	"github.com/osoy/osoy/common/cli"
	"github.com/osoy/osoy/common/errors"
	"github.com/osoy/osoy/common/logging"
	"github.com/osoy/osoy/config"
	"github.com/osoy/osoy/link"
	"github.com/osoy/osoy/location"
	"github.com/osoy/osoy/repos"
)

func cmdNew(p Params) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "new [flags] TARGET [TARGET...]",
		ShortDesc: "create empty repositories",
		LongDesc: doc(`
			Create an empty repository for every target, with the target's URL as
			its origin. Existing repositories are replaced after confirmation.
		`) + "\n\n" + location.About(),
		CommandRun: func() subcommands.CommandRun {
			r := &newRun{}
			r.registerBaseFlags(p)
			r.Flags.BoolVar(&r.force, "force", false, "Replace existing repositories without asking.")
			return r
		},
	}
}

type newRun struct {
	baseRun

	force bool
}

func (r *newRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, r, env)
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

	var errs errors.MultiError
	err = config.WithLock(ctx, cfg, func(ctx context.Context) error {
		for _, loc := range locs {
			if err := r.create(cfg, loc); err != nil {
				fail(a, &errs, loc.ID(), err)
				continue
			}
			fmt.Fprintf(a.GetOut(), "created %s\n", loc.ID())
			if r.verbose {
				fmt.Fprintf(a.GetOut(), "origin %s\n", loc.URL())
			}
		}
		return nil
	})
	if err != nil {
		return r.done(a, err)
	}
	return exitCode(errs)
}

func (r *newRun) create(cfg *config.Config, loc *location.Location) error {
	path := loc.Path(cfg.Src)
	if _, err := os.Lstat(path); err == nil {
		if !r.force && !r.confirm(fmt.Sprintf("repository %q exists, overwrite?", loc.ID())) {
			return errors.New("skipped")
		}
		if err := os.RemoveAll(path); err != nil {
			return errors.Annotate(err, "removing existing repository").Err()
		}
	}
	return repos.Init(path, loc.URL())
}

func cmdRename(p Params) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "rename [flags] TARGET DESTINATION",
		ShortDesc: "move a repository",
		LongDesc: doc(`
			Move the single repository matching TARGET to the place of
			DESTINATION and point its origin to DESTINATION's URL.

			Renaming a repository onto itself only updates the origin.
		`) + "\n\n" + location.About(),
		CommandRun: func() subcommands.CommandRun {
			r := &renameRun{}
			r.registerBaseFlags(p)
			r.match.register(&r.Flags)
			return r
		},
	}
}

type renameRun struct {
	baseRun

	match matchFlags
}

func (r *renameRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, r, env)
	if len(args) != 2 {
		return r.usage(a, "expecting a target and a destination")
	}
	target, err := location.Parse(args[0])
	if err != nil {
		return r.done(a, err)
	}
	dest, err := location.Parse(args[1])
	if err != nil {
		return r.done(a, err)
	}
	cfg, err := r.config(ctx)
	if err != nil {
		return r.done(a, err)
	}

	err = config.WithLock(ctx, cfg, func(ctx context.Context) error {
		path, err := repos.Unique(cfg.Src, target, r.match.mode())
		if err != nil {
			return err
		}
		destPath := dest.Path(cfg.Src)
		removed, err := repos.Rename(path, destPath)
		switch {
		case err == repos.ErrDestinationExists && destPath == path:
		case err != nil:
			return err
		default:
			logging.Debugf(ctx, "Removed %d empty directories", removed)
			if r.verbose {
				fmt.Fprintf(a.GetOut(), "renamed %s to %s\n", repos.Relative(cfg.Src, path), dest.ID())
			}
		}
		if err := repos.SetOrigin(destPath, dest.URL()); err != nil {
			return errors.Annotate(err, "setting origin").Err()
		}
		if r.verbose {
			fmt.Fprintf(a.GetOut(), "origin %s\n", dest.URL())
		}
		return nil
	})
	return r.done(a, err)
}

func cmdRemove(p Params) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "remove [flags] TARGET [TARGET...]",
		ShortDesc: "remove repositories",
		LongDesc: doc(`
			Remove the repositories matching any target, together with their
			links in the bin directory. Links left dangling by earlier removals
			are cleaned up as well.
		`) + "\n\n" + location.About(),
		CommandRun: func() subcommands.CommandRun {
			r := &removeRun{}
			r.registerBaseFlags(p)
			r.match.register(&r.Flags)
			r.Flags.BoolVar(&r.force, "force", false, "Do not ask for confirmation.")
			return r
		},
	}
}

type removeRun struct {
	baseRun

	match matchFlags
	force bool
}

func (r *removeRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
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
		if !r.force {
			fmt.Fprintf(a.GetOut(), "removing %d repositories:\n", len(paths))
			for _, path := range paths {
				fmt.Fprintf(a.GetOut(), "  %s\n", repos.Relative(cfg.Src, path))
			}
			if !r.confirm("proceed?") {
				return nil
			}
		}

		for _, path := range paths {
			rel := repos.Relative(cfg.Src, path)
			links, _, err := repos.Remove(cfg.Bin, path)
			if err != nil {
				fail(a, &errs, rel, err)
				continue
			}
			fmt.Fprintf(a.GetOut(), "%s removed\n", rel)
			if r.verbose && links > 0 {
				fmt.Fprintf(a.GetOut(), "%d links removed\n", links)
			}
		}
		return removeOrphans(ctx, cfg.Bin)
	})
	if err != nil {
		return r.done(a, err)
	}
	return exitCode(errs)
}

// removeOrphans deletes links in bin whose executable is gone.
func removeOrphans(ctx context.Context, bin string) error {
	orphans, err := link.Orphans(bin)
	if err != nil {
		return err
	}
	var errs errors.MultiError
	for _, l := range orphans {
		if err := os.Remove(l.Path); err != nil {
			errs.MaybeAdd(errors.Annotate(err, "removing orphaned link").Err())
			continue
		}
		logging.Debugf(ctx, "Removed orphaned link %s", l.Path)
	}
	return errs.AsError()
}
