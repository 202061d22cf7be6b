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
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/osoy/osoy/common/errors"
	"github.com/osoy/osoy/common/logging"
)

// InvalidLimitTag marks the error returned for a concurrency limit below
// one.
var InvalidLimitTag = errors.BoolTag{Key: errors.NewTagKey("invalid concurrency limit")}

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	// Limit is the maximum number of tasks running at once. Must be positive.
	Limit int

	// Board sums the progress of running tasks. A new one is used if nil.
	Board *Board
	// Auth serves credentials to running tasks. If nil, a cache which cannot
	// prompt is used.
	Auth *AuthCache
}

// Scheduler runs Tasks with bounded concurrency.
//
// Tasks are admitted in submission order. A Scheduler may serve several
// Schedule calls, which then share its limit.
type Scheduler struct {
	sem   *semaphore.Weighted
	board *Board
	auth  *AuthCache

	active atomic.Int64
}

// NewScheduler returns a Scheduler, or an error tagged with InvalidLimitTag
// if opts.Limit is not positive.
func NewScheduler(opts SchedulerOptions) (*Scheduler, error) {
	if opts.Limit <= 0 {
		return nil, errors.Reason("concurrency limit must be positive, got %d", opts.Limit).Tag(InvalidLimitTag).Err()
	}
	s := &Scheduler{
		sem:   semaphore.NewWeighted(int64(opts.Limit)),
		board: opts.Board,
		auth:  opts.Auth,
	}
	if s.board == nil {
		s.board = NewBoard()
	}
	if s.auth == nil {
		s.auth = NewAuthCache(AuthOptions{})
	}
	return s, nil
}

// Active returns the number of tasks currently admitted.
func (s *Scheduler) Active() int {
	return int(s.active.Load())
}

// Schedule runs tasks and returns the stream of their events.
//
// Every task yields exactly one EventDone. The channel is closed after the
// last one. If ctx is cancelled, tasks not yet admitted are reported done
// with ctx's error; running tasks see the cancellation through ctx.
//
// The caller must drain the channel.
func (s *Scheduler) Schedule(ctx context.Context, tasks []Task) <-chan Event {
	q := newEventQueue()
	go q.run()

	go func() {
		defer q.close()

		var wg sync.WaitGroup
		defer wg.Wait()

		for i, t := range tasks {
			if err := s.sem.Acquire(ctx, 1); err != nil {
				for _, t := range tasks[i:] {
					q.push(Event{Kind: EventDone, ID: t.ID(), Err: err, Aggregate: s.board.Sum()})
				}
				return
			}
			s.active.Add(1)

			t := t
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.run(ctx, t, q)
			}()
		}
	}()

	return q.out
}

// run runs t in the slot it was admitted to and releases the slot.
func (s *Scheduler) run(ctx context.Context, t Task, q *eventQueue) {
	id := t.ID()
	sess := newSession(ctx, id, s.board, s.auth, q.push)
	logging.Debugf(sess.ctx, "Admitted (%d active)", s.Active())

	s.board.Begin(id)
	outcome, err := t.Run(ctx, sess)
	if err == nil {
		s.auth.Forget(id)
		logging.Debugf(sess.ctx, "Finished: %s", outcome)
	} else {
		logging.Fields{logging.ErrorKey: err}.Debugf(sess.ctx, "Failed")
	}

	s.board.Finish(id, func(agg Sample) {
		q.push(Event{Kind: EventDone, ID: id, Outcome: outcome, Err: err, Aggregate: agg})
	})
	s.active.Add(-1)
	s.sem.Release(1)
}
