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

// Package cli implements the osoy subcommands.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/maruel/subcommands"
	"github.com/mgutz/ansi"
	"golang.org/x/term"

	"github.com/osoy/osoy/common/cli"
	"github.com/osoy/osoy/common/data/text"
	"github.com/osoy/osoy/common/errors"
	"github.com/osoy/osoy/common/logging"
	"github.com/osoy/osoy/common/logging/gologger"
	"github.com/osoy/osoy/config"
	"github.com/osoy/osoy/location"
	"github.com/osoy/osoy/repos"
	"github.com/osoy/osoy/transfer"
)

// DefaultParallel is the default number of concurrent transfers.
const DefaultParallel = 10

// maxExitCode caps exit codes derived from failure counts.
const maxExitCode = 125

// Params parametrizes the application.
type Params struct {
	// Version is printed by the version subcommand.
	Version string
	// Prompter answers confirmations and credential prompts. Defaults to a
	// transfer.TerminalPrompter.
	Prompter transfer.Prompter
	// Out and Err default to os.Stdout and os.Stderr.
	Out io.Writer
	Err io.Writer
}

// Application returns the osoy command line application.
func Application(p Params) *cli.Application {
	if p.Prompter == nil {
		p.Prompter = transfer.NewTerminalPrompter()
	}
	return &cli.Application{
		Name:  "osoy",
		Title: "Manage git repositories and the executables they build.",
		Context: func(ctx context.Context) context.Context {
			return gologger.StdConfig.Use(ctx)
		},
		EnvVars: map[string]subcommands.EnvVarDefinition{
			config.HomeEnvVar: {
				ShortDesc: "Directory holding the src and bin trees. Defaults to ~/.osoy.",
			},
		},
		Out: p.Out,
		Err: p.Err,
		Commands: []*subcommands.Command{
			cmdClone(p),
			cmdPull(p),
			{}, // a separator
			cmdList(p),
			cmdStatus(p),
			cmdDir(p),
			{},
			cmdNew(p),
			cmdRename(p),
			cmdRemove(p),
			{},
			cmdBuild(p),
			cmdLink(p),
			cmdUnlink(p),
			{},
			cmdExec(p),
			cmdVersion(p),
			subcommands.CmdHelp,
		},
	}
}

// Main runs the application with the given arguments and returns the exit
// code.
func Main(p Params, args []string) int {
	return subcommands.Run(Application(p), args)
}

func doc(s string) string {
	return text.Doc(s)
}

// baseRun provides flags and helpers shared by all subcommands.
type baseRun struct {
	subcommands.CommandRunBase

	params  Params
	logCfg  logging.Config
	verbose bool
}

func (r *baseRun) registerBaseFlags(p Params) {
	r.params = p
	r.logCfg.Level = logging.Warning
	r.logCfg.AddFlags(&r.Flags)
	r.Flags.BoolVar(&r.verbose, "v", false, "Print what is being done, and error details.")
}

// ModifyContext implements cli.ContextModificator.
func (r *baseRun) ModifyContext(ctx context.Context) context.Context {
	return r.logCfg.Set(ctx)
}

// config resolves the configuration from the command's environment.
func (r *baseRun) config(ctx context.Context) (*config.Config, error) {
	return config.FromEnv(func(key string) (string, bool) {
		v := cli.Getenv(ctx, key)
		return v, v != ""
	})
}

// done prints err, if any, and returns the exit code.
func (r *baseRun) done(a subcommands.Application, err error) int {
	if err != nil {
		fmt.Fprintf(a.GetErr(), "%s: %s\n", a.GetName(), err)
		return 1
	}
	return 0
}

// usage reports a command line error.
func (r *baseRun) usage(a subcommands.Application, format string, args ...any) int {
	fmt.Fprintf(a.GetErr(), "%s: %s\n", a.GetName(), fmt.Sprintf(format, args...))
	return 1
}

// failures turns a failure count into an exit code.
func failures(n int) int {
	return min(n, maxExitCode)
}

// fail prints the error of the named item and collects it into errs.
func fail(a subcommands.Application, errs *errors.MultiError, name string, err error) {
	fmt.Fprintf(a.GetErr(), "%s: %s\n", name, err)
	errs.MaybeAdd(errors.Annotate(err, "%s", name).Err())
}

// exitCode turns the collected errors into an exit code.
func exitCode(errs errors.MultiError) int {
	n, _ := errs.Summary()
	return failures(n)
}

// confirm asks a yes/no question defaulting to no.
func (r *baseRun) confirm(question string) bool {
	ans, err := r.params.Prompter.Line(question + " [y/N] ")
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(ans)) {
	case "y", "yes":
		return true
	}
	return false
}

// matchFlags selects how location arguments are matched against
// repositories.
type matchFlags struct {
	regex bool
	glob  bool
}

func (f *matchFlags) register(fs *flag.FlagSet) {
	fs.BoolVar(&f.regex, "regex", false, "Treat every part of a target as a regular expression.")
	fs.BoolVar(&f.glob, "glob", false, "Treat targets as doublestar globs.")
}

func (f *matchFlags) mode() repos.MatchMode {
	switch {
	case f.glob:
		return repos.MatchGlob
	case f.regex:
		return repos.MatchRegexp
	}
	return repos.MatchExact
}

func (f *matchFlags) matcher(args []string) (repos.Matcher, error) {
	targets, err := location.ParseAll(args)
	if err != nil {
		return repos.Matcher{}, err
	}
	return repos.Matcher{Targets: targets, Mode: f.mode()}, nil
}

// isTerminal reports whether w writes to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// painter colors words when writing to a terminal.
type painter bool

func (p painter) paint(s, style string) string {
	if !p || style == "" {
		return s
	}
	return ansi.Color(s, style)
}
