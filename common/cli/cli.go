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

// Package cli is a helper package for the "github.com/maruel/subcommands"
// package that carries a root context.Context through to the commands.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/maruel/subcommands"
)

// ContextModificator takes a context, adds something, and returns a new one.
//
// It is used by Application to tweak the root context.
type ContextModificator func(context.Context) context.Context

// Application is like subcommands.DefaultApplication, except it also
// implements ContextModificator.
type Application struct {
	Name     string
	Title    string
	Context  ContextModificator
	Commands []*subcommands.Command
	EnvVars  map[string]subcommands.EnvVarDefinition

	// Out and Err default to os.Stdout and os.Stderr.
	Out io.Writer
	Err io.Writer
}

var _ interface {
	subcommands.Application
	ModifyContext(context.Context) context.Context
} = (*Application)(nil)

// GetName implements subcommands.Application.
func (a *Application) GetName() string {
	return a.Name
}

// GetTitle implements subcommands.Application.
func (a *Application) GetTitle() string {
	return a.Title
}

// GetCommands implements subcommands.Application.
func (a *Application) GetCommands() []*subcommands.Command {
	return a.Commands
}

// GetOut implements subcommands.Application.
func (a *Application) GetOut() io.Writer {
	if a.Out != nil {
		return a.Out
	}
	return os.Stdout
}

// GetErr implements subcommands.Application.
func (a *Application) GetErr() io.Writer {
	if a.Err != nil {
		return a.Err
	}
	return os.Stderr
}

// GetEnvVars implements subcommands.Application.
func (a *Application) GetEnvVars() map[string]subcommands.EnvVarDefinition {
	return a.EnvVars
}

// ModifyContext implements ContextModificator.
func (a *Application) ModifyContext(ctx context.Context) context.Context {
	if a.Context != nil {
		return a.Context(ctx)
	}
	return ctx
}

type envKey struct{}

// GetContext sniffs ContextModificator in the app and in the subcommand
// run object and uses them to derive the context for the command.
//
// The environment visible to the command is put into the context as well,
// see Getenv.
func GetContext(app subcommands.Application, r subcommands.CommandRun, env subcommands.Env) context.Context {
	ctx := context.Background()
	if m, ok := app.(interface {
		ModifyContext(context.Context) context.Context
	}); ok {
		ctx = m.ModifyContext(ctx)
	}
	if m, ok := r.(interface {
		ModifyContext(context.Context) context.Context
	}); ok {
		ctx = m.ModifyContext(ctx)
	}
	if env != nil {
		ctx = context.WithValue(ctx, envKey{}, env)
	}
	return ctx
}

// Getenv returns the value of an environment variable declared in the
// application's EnvVars, as seen by the running command.
//
// Variables which were not declared fall back to the process environment.
func Getenv(ctx context.Context, key string) string {
	if env, ok := ctx.Value(envKey{}).(subcommands.Env); ok {
		if v, ok := env[key]; ok {
			return v.Value
		}
	}
	return os.Getenv(key)
}
