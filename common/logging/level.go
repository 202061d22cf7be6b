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

package logging

import (
	"context"
	"flag"
	"fmt"
	"strings"
)

// Level is an enumeration consisting of supported log levels.
type Level int

// Level implements flag.Value.
var _ flag.Value = (*Level)(nil)

// Defined log levels.
const (
	Debug Level = iota
	Info
	Warning
	Error
)

// DefaultLevel is the default Level value.
const DefaultLevel = Info

// String returns a human-readable string representation of the level.
func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Set implements flag.Value.
func (l *Level) Set(v string) error {
	switch strings.ToLower(v) {
	case "debug":
		*l = Debug
	case "info":
		*l = Info
	case "warning", "warn":
		*l = Warning
	case "error":
		*l = Error
	default:
		return fmt.Errorf("unknown log level %q", v)
	}
	return nil
}

// SetLevel sets the Level for this context.
//
// It can be read with GetLevel.
func SetLevel(ctx context.Context, l Level) context.Context {
	return context.WithValue(ctx, levelKey, l)
}

// GetLevel returns the Level for this context. It will return DefaultLevel if
// none is defined.
func GetLevel(ctx context.Context) Level {
	if l, ok := ctx.Value(levelKey).(Level); ok {
		return l
	}
	return DefaultLevel
}

// Config is a logging configuration structure.
type Config struct {
	Level Level
}

// AddFlags adds common flags to a supplied FlagSet.
func (c *Config) AddFlags(fs *flag.FlagSet) {
	fs.Var(&c.Level, "log-level",
		"The logging level. Valid options are: debug, info, warning, error.")
}

// Set returns a context that logs at the configured level.
func (c *Config) Set(ctx context.Context) context.Context {
	return SetLevel(ctx, c.Level)
}
