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

// Package location parses the textual repository addresses accepted by osoy.
//
// A location is either a URL ("https://host/author/package"), an scp-like
// address ("git@host:author/package" or "host:author/package") or a bare
// "[[domain/]author/]package" shorthand, which defaults to github.com.
package location

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar"

	"github.com/osoy/osoy/common/errors"
)

// DefaultDomain is assumed for bare locations with fewer than three parts.
const DefaultDomain = "github.com"

// ErrInvalidLocation is returned by Parse for unusable input.
var ErrInvalidLocation = errors.New("invalid location")

var (
	reScheme = regexp.MustCompile(`^([^:/]+)://`)
	reSCP    = regexp.MustCompile(`^git@([^:]+):|^([^:/@]+):`)
)

const (
	// protocolSCP marks "git@host:path" addresses.
	protocolSCP = "git"
	// protocolFile marks local repositories, whose absolute path becomes
	// the ID.
	protocolFile = "file"
)

// Location is a parsed repository address.
type Location struct {
	// protocol is the URL scheme, protocolSCP, or "" for bare locations.
	protocol string
	parts    []string
}

// About describes the accepted syntax, for usage strings.
func About() string {
	return "<[[domain/]author/]package> or url"
}

// Parse parses s into a Location.
func Parse(s string) (*Location, error) {
	s = strings.TrimSpace(s)
	l := &Location{}
	var rest string
	switch {
	case reScheme.MatchString(s):
		l.protocol = reScheme.FindStringSubmatch(s)[1]
		rest = reScheme.ReplaceAllString(s, "")
		if l.protocol == protocolFile {
			rest = strings.TrimLeft(rest, "/")
		}
	case reSCP.MatchString(s):
		l.protocol = protocolSCP
		rest = reSCP.ReplaceAllString(s, "$1$2/")
	default:
		rest = s
	}

	rest = strings.TrimRight(rest, "/")
	if rest == "" {
		return nil, ErrInvalidLocation
	}
	l.parts = strings.Split(rest, "/")
	for _, p := range l.parts {
		if p == "" {
			return nil, errors.Annotate(ErrInvalidLocation, "empty path segment in %q", s).Err()
		}
	}
	return l, nil
}

// MustParse is like Parse, but panics on error.
func MustParse(s string) *Location {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

// ParseAll parses every string, stopping at the first error.
func ParseAll(ss []string) ([]*Location, error) {
	ret := make([]*Location, 0, len(ss))
	for _, s := range ss {
		l, err := Parse(s)
		if err != nil {
			return nil, errors.Annotate(err, "%q", s).Err()
		}
		ret = append(ret, l)
	}
	return ret, nil
}

// ID is the canonical "domain/author/package" identity, which is also the
// repository's path relative to the source directory.
func (l *Location) ID() string {
	joined := strings.Join(l.parts, "/")
	if l.protocol != "" {
		return joined
	}
	switch len(l.parts) {
	case 1:
		return DefaultDomain + "/" + l.parts[0] + "/" + joined
	case 2:
		return DefaultDomain + "/" + joined
	}
	return joined
}

// URL is the remote address to clone from.
func (l *Location) URL() string {
	switch l.protocol {
	case "":
		return "https://" + l.ID()
	case protocolSCP:
		return "git@" + l.parts[0] + ":" + strings.Join(l.parts[1:], "/")
	case protocolFile:
		return "file:///" + strings.Join(l.parts, "/")
	}
	return l.protocol + "://" + strings.Join(l.parts, "/")
}

// Path is the location's directory under src.
func (l *Location) Path(src string) string {
	return filepath.Join(src, filepath.FromSlash(l.ID()))
}

// String returns the location as typed, without any protocol.
func (l *Location) String() string {
	return strings.Join(l.parts, "/")
}

// Matches reports whether the trailing components of path equal the
// location's parts.
func (l *Location) Matches(path string) bool {
	return l.matchTail(path, func(part, component string) bool {
		return part == component
	})
}

// MatchesRegexp is like Matches, but treats every part as an anchored
// regular expression. Invalid expressions never match.
func (l *Location) MatchesRegexp(path string) bool {
	return l.matchTail(path, func(part, component string) bool {
		re, err := regexp.Compile("^(?:" + part + ")$")
		return err == nil && re.MatchString(component)
	})
}

// MatchesGlob reports whether path ends with components matching the
// location as a glob pattern. "**" matches any number of components.
//
// Invalid patterns never match.
func (l *Location) MatchesGlob(path string) bool {
	ok, err := doublestar.Match("**/"+l.String(), filepath.ToSlash(path))
	return err == nil && ok
}

func (l *Location) matchTail(path string, eq func(part, component string) bool) bool {
	path = filepath.Clean(path)
	for i := len(l.parts) - 1; i >= 0; i-- {
		base := filepath.Base(path)
		if base == string(filepath.Separator) || base == "." || !eq(l.parts[i], base) {
			return false
		}
		path = filepath.Dir(path)
	}
	return true
}
