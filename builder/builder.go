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

// Package builder detects how a repository is built and runs its build tool.
package builder

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/osoy/osoy/common/ctxcmd"
	"github.com/osoy/osoy/common/errors"
	"github.com/osoy/osoy/common/logging"
)

// ErrNoMethod is returned by Build for repositories with no known build
// method.
var ErrNoMethod = errors.New("no build method detected")

// Method is a way of building a repository.
type Method int

const (
	// None means the repository is not built.
	None Method = iota
	// Make runs make with an optional target.
	Make
	// Cargo runs a release cargo build.
	Cargo
)

func (m Method) String() string {
	switch m {
	case Make:
		return "make"
	case Cargo:
		return "cargo"
	}
	return "none"
}

func isFile(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

// Detect returns the build method of the repository at dir.
func Detect(dir string) Method {
	switch {
	case isFile(filepath.Join(dir, "Makefile")) || isFile(filepath.Join(dir, "makefile")):
		return Make
	case isFile(filepath.Join(dir, "Cargo.toml")):
		return Cargo
	}
	return None
}

// Options configures Build.
type Options struct {
	// Target is passed to make. Ignored for cargo.
	Target string
	// Stdout and Stderr receive the build tool's output. Both default to
	// io.Discard.
	Stdout io.Writer
	Stderr io.Writer
}

// Command is the command line Build runs for method, or nil for None.
func Command(method Method, target string) []string {
	switch method {
	case Make:
		if target != "" {
			return []string{"make", target}
		}
		return []string{"make"}
	case Cargo:
		return []string{"cargo", "build", "--release"}
	}
	return nil
}

// Build builds the repository at dir.
//
// Cancelling ctx interrupts the build tool.
func Build(ctx context.Context, dir string, opts Options) error {
	method := Detect(dir)
	argv := Command(method, opts.Target)
	if argv == nil {
		return ErrNoMethod
	}
	logging.Debugf(ctx, "Building %s: %s", dir, strings.Join(argv, " "))

	cmd := ctxcmd.Command(ctx, argv[0], argv[1:]...)
	cmd.CancelSignal = os.Interrupt
	cmd.Dir = dir
	cmd.Stdout, cmd.Stderr = opts.Stdout, opts.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = io.Discard
	}
	if cmd.Stderr == nil {
		cmd.Stderr = io.Discard
	}
	if err := cmd.Run(); err != nil {
		if code, ok := ctxcmd.ExitCode(err); ok {
			return errors.Reason("%s failed with exit code %d", method, code).Err()
		}
		return errors.Annotate(err, "%s failed", method).Err()
	}
	return nil
}

// OutputDirs lists the directories under dir where the build of method
// leaves executables, in lookup order. Only existing directories are
// returned.
func OutputDirs(dir string, method Method) []string {
	candidates := []string{dir}
	if method == Cargo {
		candidates = append(candidates, filepath.Join(dir, "target", "release"))
	}
	candidates = append(candidates, filepath.Join(dir, "bin"))

	ret := candidates[:0]
	for _, c := range candidates {
		if st, err := os.Stat(c); err == nil && st.IsDir() {
			ret = append(ret, c)
		}
	}
	return ret
}
