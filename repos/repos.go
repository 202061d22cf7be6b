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

// Package repos discovers and manages the git repositories under the osoy
// source directory.
package repos

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/osoy/osoy/common/errors"
	"github.com/osoy/osoy/link"
	"github.com/osoy/osoy/location"
)

var (
	// ErrNoRepositories is returned when the source directory does not exist.
	ErrNoRepositories = errors.New("no repositories found")
	// ErrNoMatch is returned by MatchingExists.
	ErrNoMatch = errors.New("no matching entities found")
	// ErrAmbiguous is returned by Unique when several repositories match.
	ErrAmbiguous = errors.New("multiple entities match query")
	// ErrNotFound is returned by Unique when nothing matches.
	ErrNotFound = errors.New("no entities match query")
	// ErrDestinationExists is returned by Rename.
	ErrDestinationExists = errors.New("destination entity already exists")
)

// Stop may be returned by a WalkFunc, possibly annotated, to end the walk
// early without error.
var Stop = errors.New("stop walking")

// WalkFunc is called for every repository root found by Walk.
type WalkFunc func(path string) error

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Lstat(filepath.Join(dir, ".git"))
	return err == nil
}

// Walk calls fn for every repository under root, depth first in lexical
// order. A directory containing ".git" is reported and not descended into.
//
// Unreadable subdirectories are skipped. A missing root yields
// ErrNoRepositories.
func Walk(root string, fn WalkFunc) error {
	if _, err := os.Stat(root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNoRepositories
		}
		return errors.Annotate(err, "could not access '%s'", root).Err()
	}
	err := walk(root, fn, true)
	if errors.Contains(err, Stop) {
		return nil
	}
	return err
}

func walk(dir string, fn WalkFunc, top bool) error {
	if IsRepo(dir) {
		return fn(dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if top {
			return errors.Annotate(err, "could not access '%s'", dir).Err()
		}
		return nil
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := walk(filepath.Join(dir, e.Name()), fn, false); err != nil {
			return err
		}
	}
	return nil
}

// Iterate returns every repository under root.
func Iterate(root string) ([]string, error) {
	var ret []string
	err := Walk(root, func(path string) error {
		ret = append(ret, path)
		return nil
	})
	return ret, err
}

// MatchMode selects how a Matcher compares locations with paths.
type MatchMode int

const (
	// MatchExact compares path components literally.
	MatchExact MatchMode = iota
	// MatchRegexp treats every location part as a regular expression.
	MatchRegexp
	// MatchGlob treats the location as a doublestar glob.
	MatchGlob
)

// Matcher selects repositories matching any of its targets.
//
// A Matcher with no targets matches everything.
type Matcher struct {
	Targets []*location.Location
	Mode    MatchMode
}

// Match reports whether path matches.
func (m Matcher) Match(path string) bool {
	if len(m.Targets) == 0 {
		return true
	}
	for _, t := range m.Targets {
		var ok bool
		switch m.Mode {
		case MatchRegexp:
			ok = t.MatchesRegexp(path)
		case MatchGlob:
			ok = t.MatchesGlob(path)
		default:
			ok = t.Matches(path)
		}
		if ok {
			return true
		}
	}
	return false
}

// WalkMatching is like Walk, but only reports repositories matched by m.
func WalkMatching(root string, m Matcher, fn WalkFunc) error {
	return Walk(root, func(path string) error {
		if m.Match(path) {
			return fn(path)
		}
		return nil
	})
}

// Matching returns the repositories under root matched by m.
func Matching(root string, m Matcher) ([]string, error) {
	var ret []string
	err := WalkMatching(root, m, func(path string) error {
		ret = append(ret, path)
		return nil
	})
	return ret, err
}

// MatchingExists is like Matching, but returns ErrNoMatch when nothing
// matches.
func MatchingExists(root string, m Matcher) ([]string, error) {
	ret, err := Matching(root, m)
	if err == nil && len(ret) == 0 {
		err = ErrNoMatch
	}
	return ret, err
}

// Unique returns the single repository under root matching target.
func Unique(root string, target *location.Location, mode MatchMode) (string, error) {
	var found []string
	err := WalkMatching(root, Matcher{Targets: []*location.Location{target}, Mode: mode}, func(path string) error {
		found = append(found, path)
		if len(found) > 1 {
			return Stop
		}
		return nil
	})
	switch {
	case err != nil:
		return "", err
	case len(found) > 1:
		return "", ErrAmbiguous
	case len(found) == 0:
		return "", ErrNotFound
	}
	return found[0], nil
}

// Relative returns path relative to root, using forward slashes. It falls
// back to path when path is not under root.
func Relative(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// removeEmptyParents removes dir and its ancestors while they are empty and
// returns how many were removed.
func removeEmptyParents(dir string) int {
	n := 0
	for {
		if err := os.Remove(dir); err != nil {
			return n
		}
		n++
		parent := filepath.Dir(dir)
		if parent == dir {
			return n
		}
		dir = parent
	}
}

// Remove deletes the repository at dir together with the symlinks in bin
// pointing into it. Parent directories of dir left empty are removed too,
// as is bin itself once empty.
//
// It returns the number of removed links and directories.
func Remove(bin, dir string) (links, parents int, err error) {
	err = os.RemoveAll(dir)
	parents = removeEmptyParents(filepath.Dir(dir))
	if err != nil {
		return 0, parents, errors.Annotate(err, "removing %s", dir).Err()
	}

	ls, lerr := link.Links(bin, []string{dir})
	if lerr == nil {
		for _, l := range ls {
			if os.Remove(l.Path) == nil {
				links++
			}
		}
	}
	if links > 0 {
		parents += removeEmptyParents(bin)
	}
	return links, parents, nil
}

// Rename moves the repository at target to dest, creating dest's parents
// and removing target's parents left empty. It returns the number of
// removed parent directories.
func Rename(target, dest string) (int, error) {
	if _, err := os.Lstat(dest); err == nil {
		return 0, ErrDestinationExists
	}
	destParent := filepath.Dir(dest)
	if err := os.MkdirAll(destParent, 0755); err != nil {
		return 0, errors.Annotate(err, "creating %s", destParent).Err()
	}
	if err := os.Rename(target, dest); err != nil {
		removeEmptyParents(destParent)
		return 0, errors.Annotate(err, "renaming %s", target).Err()
	}
	return removeEmptyParents(filepath.Dir(target)), nil
}
