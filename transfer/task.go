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

package transfer

import (
	"context"
	"sync/atomic"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/osoy/osoy/common/logging"
)

// Phase is the stage a running transfer is in.
type Phase int32

const (
	// PhaseNegotiating is set until the remote starts sending objects.
	PhaseNegotiating Phase = iota
	// PhaseTransferring is set while objects are streamed.
	PhaseTransferring
	// PhaseIntegrating is set while refs and the working tree are updated.
	PhaseIntegrating
)

func (p Phase) String() string {
	switch p {
	case PhaseNegotiating:
		return "negotiating"
	case PhaseTransferring:
		return "transferring"
	case PhaseIntegrating:
		return "integrating"
	}
	return "unknown"
}

// Task is a unit of work run by a Scheduler.
type Task interface {
	// ID identifies the task on the Board and in its Done event. It must be
	// unique within one Schedule call.
	ID() string
	// Run performs the transfer.
	Run(ctx context.Context, s *Session) (Outcome, error)
}

// Session connects a running Task to the shared Board and AuthCache.
type Session struct {
	ctx   context.Context
	id    string
	board *Board
	auth  *AuthCache
	emit  func(Event)

	phase atomic.Int32
}

func newSession(ctx context.Context, id string, board *Board, auth *AuthCache, emit func(Event)) *Session {
	return &Session{
		ctx:   logging.SetField(ctx, "transfer", id),
		id:    id,
		board: board,
		auth:  auth,
		emit:  emit,
	}
}

// ID returns the identity of the task.
func (s *Session) ID() string {
	return s.id
}

// Progress records smp as the task's latest sample. It never blocks, and
// returns false if the sample was dropped because the Board was busy.
func (s *Session) Progress(smp Sample) bool {
	var publish func(Sample)
	if s.emit != nil {
		publish = func(agg Sample) {
			s.emit(Event{Kind: EventProgress, Aggregate: agg})
		}
	}
	_, ok := s.board.Update(s.id, smp, publish)
	return ok
}

// Credentials asks the shared AuthCache for credentials for this task.
func (s *Session) Credentials(username string, kinds CredentialKind) (transport.AuthMethod, error) {
	return s.auth.Credentials(s.id, username, kinds)
}

// SetPhase records the task's phase.
func (s *Session) SetPhase(p Phase) {
	if Phase(s.phase.Swap(int32(p))) != p {
		logging.Debugf(s.ctx, "Entering phase %s", p)
	}
}

// Phase returns the task's current phase.
func (s *Session) Phase() Phase {
	return Phase(s.phase.Load())
}
