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

// Package config resolves the osoy directory layout from the environment.
package config

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/danjacques/gofslock/fslock"
	"github.com/mitchellh/go-homedir"

	"github.com/osoy/osoy/common/errors"
	"github.com/osoy/osoy/common/logging"
)

// HomeEnvVar overrides the osoy home directory.
const HomeEnvVar = "OSOY_HOME"

// lockRetryDelay is how long WithLock sleeps between attempts.
const lockRetryDelay = 100 * time.Millisecond

// Config is the resolved osoy layout.
type Config struct {
	// Home is the osoy home directory, OSOY_HOME or $HOME/.osoy.
	Home string
	// Src holds the cloned repositories.
	Src string
	// Bin holds the symlinks to executables.
	Bin string

	// SSHKey and SSHPubKey are the key pair offered for ssh remotes.
	SSHKey    string
	SSHPubKey string
}

// LookupFunc looks up an environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// FromEnv resolves the configuration using lookup.
//
// A nil lookup uses the process environment.
func FromEnv(lookup LookupFunc) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	userHome, err := userHome(lookup)
	if err != nil {
		return nil, err
	}

	home := ""
	if v, ok := lookup(HomeEnvVar); ok && v != "" {
		home = v
	} else {
		home = filepath.Join(userHome, ".osoy")
	}
	if home, err = filepath.Abs(home); err != nil {
		return nil, errors.Annotate(err, "resolving %s", HomeEnvVar).Err()
	}

	return &Config{
		Home:      home,
		Src:       filepath.Join(home, "src"),
		Bin:       filepath.Join(home, "bin"),
		SSHKey:    filepath.Join(userHome, ".ssh", "id_rsa"),
		SSHPubKey: filepath.Join(userHome, ".ssh", "id_rsa.pub"),
	}, nil
}

func userHome(lookup LookupFunc) (string, error) {
	if v, ok := lookup("HOME"); ok && v != "" {
		return v, nil
	}
	h, err := homedir.Dir()
	if err != nil {
		return "", errors.Annotate(err, "could not determine home directory").Err()
	}
	return h, nil
}

// LockPath is the file guarding mutating commands.
func (c *Config) LockPath() string {
	return filepath.Join(c.Home, ".lock")
}

// WithLock runs fn while holding the osoy home lock.
//
// If another osoy process holds the lock, WithLock waits until it is
// released or ctx is done.
func WithLock(ctx context.Context, cfg *Config, fn func(context.Context) error) error {
	if err := os.MkdirAll(cfg.Home, 0755); err != nil {
		return errors.Annotate(err, "creating %s", cfg.Home).Err()
	}

	waited := false
	blocker := func() error {
		if !waited {
			logging.Infof(ctx, "Waiting for another osoy process to release %s", cfg.LockPath())
			waited = true
		}
		select {
		case <-ctx.Done():
			return fslock.ErrLockHeld
		case <-time.After(lockRetryDelay):
			return nil
		}
	}
	return fslock.WithBlocking(cfg.LockPath(), blocker, func() error {
		return fn(ctx)
	})
}
