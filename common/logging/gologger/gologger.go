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

// Package gologger is a compatibility layer between go-logging library and
// the context-carried logging.Logger interface.
package gologger

import (
	"context"
	"io"
	"os"

	gol "github.com/op/go-logging"

	"github.com/osoy/osoy/common/logging"
)

// StandardFormat is the format used by the standard logger: a one letter level
// and a timestamp, process ID and the file that emitted the message, all
// colored; then the message.
const StandardFormat = `%{color}[%{level:.1s}%{time:2006-01-02T15:04:05.000000Z07:00} ` +
	`%{pid} 0 %{shortfile}]%{color:reset} %{message}`

// TerseFormat prints only the colored level and the message. Suitable for
// interactive command line tools.
const TerseFormat = `%{color}%{level:.4s}%{color:reset} %{message}`

// StdConfig is the LoggerConfig instance used by the package-level methods.
var StdConfig = LoggerConfig{Out: os.Stderr}

// LoggerConfig owns a go-logging backend and produces logging.Logger
// instances writing into it.
type LoggerConfig struct {
	Format string    // see go-logging docs for format syntax, StandardFormat if empty
	Out    io.Writer // where to write the log to, stderr if nil
}

// NewLogger returns a new logging.Logger instance bound to the given context.
//
// The context is used to look up the minimal level and fields.
func (lc *LoggerConfig) NewLogger(ctx context.Context) logging.Logger {
	if ctx == nil {
		ctx = context.Background()
	}
	return &loggerImpl{ctx: ctx, backend: lc.newBackend()}
}

// Use registers a go-logging based logger factory in the context.
func (lc *LoggerConfig) Use(ctx context.Context) context.Context {
	backend := lc.newBackend()
	return logging.SetFactory(ctx, func(ctx context.Context) logging.Logger {
		return &loggerImpl{ctx: ctx, backend: backend}
	})
}

func (lc *LoggerConfig) newBackend() gol.LeveledBackend {
	format := lc.Format
	if format == "" {
		format = StandardFormat
	}
	out := lc.Out
	if out == nil {
		out = os.Stderr
	}
	// Level filtering happens in LogCall against the context level, the
	// backend itself passes everything.
	backend := gol.AddModuleLevel(gol.NewBackendFormatter(
		gol.NewLogBackend(out, "", 0),
		gol.MustStringFormatter(format)))
	backend.SetLevel(gol.DEBUG, "")
	return backend
}

// Use adds a default go-logging logger writing to stderr to the context.
func Use(ctx context.Context) context.Context {
	return StdConfig.Use(ctx)
}

type loggerImpl struct {
	ctx     context.Context
	backend gol.LeveledBackend
}

func (li *loggerImpl) Debugf(format string, args ...any) {
	li.LogCall(logging.Debug, 1, format, args)
}

func (li *loggerImpl) Infof(format string, args ...any) {
	li.LogCall(logging.Info, 1, format, args)
}

func (li *loggerImpl) Warningf(format string, args ...any) {
	li.LogCall(logging.Warning, 1, format, args)
}

func (li *loggerImpl) Errorf(format string, args ...any) {
	li.LogCall(logging.Error, 1, format, args)
}

func (li *loggerImpl) LogCall(level logging.Level, calldepth int, format string, args []any) {
	if !logging.IsLogging(li.ctx, level) {
		return
	}
	if fields := logging.GetFields(li.ctx); len(fields) > 0 {
		format += " " + escape(fields.String())
	}

	// A fresh go-logging Logger per call, so the caller depth is exact for
	// the shortfile verb: one frame for LogCall plus calldepth frames above.
	l := gol.Logger{ExtraCalldepth: calldepth + 1}
	l.SetBackend(li.backend)

	switch level {
	case logging.Debug:
		l.Debugf(format, args...)
	case logging.Info:
		l.Infof(format, args...)
	case logging.Warning:
		l.Warningf(format, args...)
	default:
		l.Errorf(format, args...)
	}
}

// escape makes a string safe to append to a printf format.
func escape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' {
			out = append(out, '%')
		}
		out = append(out, s[i])
	}
	return string(out)
}
