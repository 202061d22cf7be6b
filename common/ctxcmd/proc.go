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

// Package ctxcmd runs processes which are stopped when their Context is
// cancelled.
package ctxcmd

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/osoy/osoy/common/errors"
)

// DefaultWaitDelay bounds how long a cancelled process may linger after it
// was signalled, before it is killed.
const DefaultWaitDelay = 5 * time.Second

// CtxCmd is a wrapper around an exec.Cmd that responds to a Context's
// cancellation by terminating the process.
type CtxCmd struct {
	*exec.Cmd

	// CancelSignal, if not nil, is the signal that is sent to the process to
	// terminate it when it is cancelled. If nil, the os.Kill signal will be sent.
	CancelSignal os.Signal

	ctx context.Context
}

// Command returns a CtxCmd bound to ctx.
func Command(ctx context.Context, name string, args ...string) *CtxCmd {
	cc := &CtxCmd{Cmd: exec.CommandContext(ctx, name, args...), ctx: ctx}
	cc.Cmd.Cancel = cc.cancel
	cc.Cmd.WaitDelay = DefaultWaitDelay
	return cc
}

// Run starts the process, blocking until it has exited.
//
// If the Context is cancelled first, the process is signalled and Run
// returns the Context's error.
func (cc *CtxCmd) Run() error {
	if err := cc.ctx.Err(); err != nil {
		return err
	}
	err := cc.Cmd.Run()
	if err != nil {
		if ctxErr := cc.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}

func (cc *CtxCmd) cancel() error {
	if cc.CancelSignal != nil {
		return cc.Process.Signal(cc.CancelSignal)
	}
	return cc.Process.Kill()
}

// ExitCode returns the process exit code given an error. If no exit code is
// present, 0 will be returned.
func ExitCode(err error) (int, bool) {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode(), true
	}
	return 0, false
}
