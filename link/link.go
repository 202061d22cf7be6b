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

// Package link manages the symlinks osoy places in its bin directory.
package link

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/osoy/osoy/common/errors"
)

// Link is a symlink in the bin directory.
type Link struct {
	// Path is the symlink itself.
	Path string
	// Target is where it points, made absolute relative to the bin directory.
	Target string
}

// within reports whether path is dir or inside it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// All returns every symlink in bin. A missing bin has no links.
func All(bin string) ([]Link, error) {
	entries, err := os.ReadDir(bin)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Annotate(err, "reading %s", bin).Err()
	}
	var ret []Link
	for _, e := range entries {
		if e.Type()&fs.ModeSymlink == 0 {
			continue
		}
		p := filepath.Join(bin, e.Name())
		dest, err := os.Readlink(p)
		if err != nil {
			continue
		}
		if !filepath.IsAbs(dest) {
			dest = filepath.Join(bin, dest)
		}
		ret = append(ret, Link{Path: p, Target: filepath.Clean(dest)})
	}
	return ret, nil
}

// Links returns the symlinks in bin pointing into any of repos.
func Links(bin string, repos []string) ([]Link, error) {
	all, err := All(bin)
	if err != nil {
		return nil, err
	}
	var ret []Link
	for _, l := range all {
		for _, r := range repos {
			if within(l.Target, r) {
				ret = append(ret, l)
				break
			}
		}
	}
	return ret, nil
}

// Orphans returns the symlinks in bin whose target is no longer an
// executable.
func Orphans(bin string) ([]Link, error) {
	all, err := All(bin)
	if err != nil {
		return nil, err
	}
	var ret []Link
	for _, l := range all {
		if !IsExecutable(l.Target) {
			ret = append(ret, l)
		}
	}
	return ret, nil
}

// Create symlinks exe into bin under its base name and returns the link
// path. The bin directory is created if missing.
func Create(bin, exe string) (string, error) {
	name := filepath.Base(exe)
	if name == "." || name == string(filepath.Separator) {
		return "", errors.Reason("no file name found in %q", exe).Err()
	}
	if err := os.MkdirAll(bin, 0755); err != nil {
		return "", errors.Annotate(err, "creating %s", bin).Err()
	}
	abs, err := filepath.Abs(exe)
	if err != nil {
		return "", errors.Annotate(err, "resolving %s", exe).Err()
	}
	p := filepath.Join(bin, name)
	if err := os.Symlink(abs, p); err != nil {
		return "", errors.Annotate(err, "linking %s", name).Err()
	}
	return p, nil
}

// IsExecutable reports whether path, after following symlinks, is a
// regular file runnable by its owner. On Windows the extension decides.
func IsExecutable(path string) bool {
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		ext := strings.ToLower(filepath.Ext(path))
		return ext == ".exe" || ext == ".bat"
	}
	return st.Mode().Perm()&0100 != 0
}

// Executables returns the executables directly inside dir.
func Executables(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Annotate(err, "reading %s", dir).Err()
	}
	var ret []string
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if IsExecutable(p) {
			ret = append(ret, p)
		}
	}
	return ret, nil
}
