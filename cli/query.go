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
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/maruel/subcommands"

	"github.com/osoy/osoy/common/cli"
	"github.com/osoy/osoy/link"
	"github.com/osoy/osoy/location"
	"github.com/osoy/osoy/repos"
)

func cmdList(p Params) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "list [flags] [TARGET...]",
		ShortDesc: "list repositories",
		LongDesc:  doc(`
			List the repositories in the source tree matching any target, or all
			of them without targets.

			With -l every repository is followed by its current branch and the
			number of its executables linked into the bin directory.
		`) + "\n\n" + location.About(),
		CommandRun: func() subcommands.CommandRun {
			r := &listRun{}
			r.registerBaseFlags(p)
			r.match.register(&r.Flags)
			r.Flags.BoolVar(&r.long, "l", false, "Show branches and linked executables.")
			return r
		},
	}
}

type listRun struct {
	baseRun

	match matchFlags
	long  bool
}

func (r *listRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, r, env)
	m, err := r.match.matcher(args)
	if err != nil {
		return r.done(a, err)
	}
	cfg, err := r.config(ctx)
	if err != nil {
		return r.done(a, err)
	}

	color := painter(isTerminal(a.GetOut()))
	err = repos.WalkMatching(cfg.Src, m, func(path string) error {
		line := repos.Relative(cfg.Src, path)
		if r.long {
			if branch, err := repos.Branch(path); err == nil && branch != "" {
				line += " " + color.paint("@"+branch, "yellow")
			}
			if links, err := link.Links(cfg.Bin, []string{path}); err == nil {
				line += " " + color.paint(fmt.Sprintf("<%d>", len(links)), "cyan")
			}
		}
		_, err := fmt.Fprintln(a.GetOut(), line)
		return err
	})
	return r.done(a, err)
}

func cmdStatus(p Params) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "status [flags] [TARGET...]",
		ShortDesc: "show repositories with local changes",
		LongDesc:  doc(`
			Show the repositories which have uncommitted changes, are not even
			with their upstream, or have no upstream at all.

			Each repository is printed with its branch, the number of commits
			ahead and behind its upstream, and the changed files in the format
			of git status --short.
		`) + "\n\n" + location.About(),
		CommandRun: func() subcommands.CommandRun {
			r := &statusRun{}
			r.registerBaseFlags(p)
			r.match.register(&r.Flags)
			r.Flags.BoolVar(&r.all, "a", false, "Show clean repositories too.")
			r.Flags.BoolVar(&r.quiet, "q", false, "Summarize changed files as counts.")
			return r
		},
	}
}

type statusRun struct {
	baseRun

	match matchFlags
	all   bool
	quiet bool
}

func (r *statusRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, r, env)
	m, err := r.match.matcher(args)
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
	failed := 0
	for _, path := range paths {
		rel := repos.Relative(cfg.Src, path)
		info, err := repos.Status(path)
		if err != nil {
			failed++
			fmt.Fprintf(a.GetErr(), "%s: %s\n", rel, err)
			continue
		}
		if !r.all && info.Clean() && info.Upstream != "" {
			continue
		}
		fmt.Fprint(a.GetOut(), formatStatus(rel, info, color, r.quiet))
	}
	return failures(failed)
}

// statusColors maps change codes to ansi styles.
var statusColors = map[git.StatusCode]string{
	git.Added:              "green",
	git.Untracked:          "green",
	git.Modified:           "yellow",
	git.Deleted:            "red",
	git.Renamed:            "blue",
	git.Copied:             "blue",
	git.UpdatedButUnmerged: "magenta",
}

func formatStatus(rel string, info *repos.Info, color painter, quiet bool) string {
	var sb strings.Builder
	sb.WriteString(rel)
	if info.Branch != "" {
		sb.WriteString(" " + color.paint("@"+info.Branch, "yellow"))
	} else {
		sb.WriteString(" " + color.paint("(detached)", "yellow"))
	}
	if info.Upstream != "" {
		counts := fmt.Sprintf("[%d:%d]", info.Ahead, info.Behind)
		if info.Ahead > 0 || info.Behind > 0 {
			counts = color.paint(counts, "blue+b")
		}
		fmt.Fprintf(&sb, " %s (%s)", counts, info.Upstream)
	} else {
		sb.WriteString(" (no remote)")
	}

	if quiet {
		counts := map[git.StatusCode]int{}
		for _, f := range info.Files {
			counts[changeCode(f)]++
		}
		for _, c := range []git.StatusCode{git.Deleted, git.Added, git.Untracked, git.Modified, git.Renamed, git.Copied, git.UpdatedButUnmerged} {
			if n := counts[c]; n > 0 {
				sb.WriteString(" " + color.paint(fmt.Sprintf("%c%d", c, n), statusColors[c]))
			}
		}
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString("\n")
	for _, f := range info.Files {
		fmt.Fprintf(&sb, "  %s%s %s\n",
			color.paint(string(rune(f.Staging)), statusColors[f.Staging]),
			color.paint(string(rune(f.Worktree)), statusColors[f.Worktree]),
			f.Path)
	}
	return sb.String()
}

// changeCode picks the code summarizing a change, preferring the staged
// one.
func changeCode(f repos.FileChange) git.StatusCode {
	if f.Staging != git.Unmodified && f.Staging != git.Untracked {
		return f.Staging
	}
	return f.Worktree
}

func cmdDir(p Params) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "dir [flags] TARGET",
		ShortDesc: "print the directory of a repository",
		LongDesc:  doc(`
			Print the absolute path of the single repository matching TARGET.
			It is an error for TARGET to match no repository or several.
		`) + "\n\n" + location.About(),
		CommandRun: func() subcommands.CommandRun {
			r := &dirRun{}
			r.registerBaseFlags(p)
			r.match.register(&r.Flags)
			return r
		},
	}
}

type dirRun struct {
	baseRun

	match matchFlags
}

func (r *dirRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, r, env)
	if len(args) != 1 {
		return r.usage(a, "expecting exactly one target")
	}
	target, err := location.Parse(args[0])
	if err != nil {
		return r.done(a, err)
	}
	cfg, err := r.config(ctx)
	if err != nil {
		return r.done(a, err)
	}
	path, err := repos.Unique(cfg.Src, target, r.match.mode())
	if err != nil {
		return r.done(a, err)
	}
	fmt.Fprintln(a.GetOut(), path)
	return 0
}
