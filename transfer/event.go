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
	"sync"
)

// EventKind distinguishes Progress from Done events.
type EventKind int

const (
	// EventProgress carries a new aggregate of all transfers in flight.
	EventProgress EventKind = iota
	// EventDone reports that one transfer finished.
	EventDone
)

// Outcome describes what a successful transfer did.
type Outcome int

const (
	// OutcomeNone is the outcome of failed transfers.
	OutcomeNone Outcome = iota
	// OutcomeCloned means a new repository was cloned.
	OutcomeCloned
	// OutcomeUpToDate means the local branch already contained the remote.
	OutcomeUpToDate
	// OutcomeFastForward means the local branch was fast-forwarded.
	OutcomeFastForward
	// OutcomeOverwritten means a diverged local branch was reset to the
	// remote.
	OutcomeOverwritten
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCloned:
		return "cloned"
	case OutcomeUpToDate:
		return "up-to-date"
	case OutcomeFastForward:
		return "fast-forward"
	case OutcomeOverwritten:
		return "overwritten"
	}
	return "none"
}

// Event is sent by a Scheduler.
type Event struct {
	Kind EventKind

	// ID, Outcome and Err are set on EventDone.
	ID      string
	Outcome Outcome
	Err     error

	// Aggregate is the sum over the transfers in flight. For EventDone it
	// includes the finished transfer, pinned at completion.
	Aggregate Sample
}

// eventQueue is an unbounded multi-producer queue feeding one channel.
//
// Producers never block. A Progress pushed right after another pending
// Progress replaces it, since the newer aggregate supersedes the older.
type eventQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []Event
	closed  bool

	out chan Event
}

func newEventQueue() *eventQueue {
	q := &eventQueue{out: make(chan Event)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *eventQueue) push(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		panic("push on closed eventQueue")
	}
	if n := len(q.pending); n > 0 && ev.Kind == EventProgress && q.pending[n-1].Kind == EventProgress {
		q.pending[n-1] = ev
	} else {
		q.pending = append(q.pending, ev)
	}
	q.cond.Signal()
}

// close makes run close the output channel once everything pending was
// delivered.
func (q *eventQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Signal()
}

// run delivers pending events to out until the queue is closed and empty.
func (q *eventQueue) run() {
	defer close(q.out)
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		ev := q.pending[0]
		q.pending[0] = Event{}
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.out <- ev
	}
}
