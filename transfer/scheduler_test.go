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
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/osoy/osoy/common/errors"

	. "github.com/osoy/osoy/common/testing/assertions"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeTask struct {
	id  string
	run func(ctx context.Context, s *Session) (Outcome, error)
}

func (t *fakeTask) ID() string { return t.id }

func (t *fakeTask) Run(ctx context.Context, s *Session) (Outcome, error) {
	return t.run(ctx, s)
}

func drain(events <-chan Event) (done []Event, progress []Event) {
	for ev := range events {
		if ev.Kind == EventDone {
			done = append(done, ev)
		} else {
			progress = append(progress, ev)
		}
	}
	return
}

func TestScheduler(t *testing.T) {
	t.Parallel()

	Convey("Scheduler", t, func() {
		ctx := context.Background()

		Convey("rejects a non-positive limit", func() {
			for _, limit := range []int{0, -1} {
				_, err := NewScheduler(SchedulerOptions{Limit: limit})
				So(err, ShouldHaveTag, InvalidLimitTag)
			}
			_, err := Clone(ctx, nil, 0, Options{})
			So(err, ShouldHaveTag, InvalidLimitTag)
			_, err = Pull(ctx, nil, 0, Options{})
			So(err, ShouldHaveTag, InvalidLimitTag)
		})

		Convey("runs 5 tasks with at most 2 active", func() {
			s, err := NewScheduler(SchedulerOptions{Limit: 2})
			So(err, ShouldBeNil)

			var mu sync.Mutex
			maxActive := 0
			tasks := make([]Task, 5)
			for i := range tasks {
				i := i
				tasks[i] = &fakeTask{
					id: fmt.Sprintf("t%d", i),
					run: func(ctx context.Context, sess *Session) (Outcome, error) {
						mu.Lock()
						maxActive = max(maxActive, s.Active())
						mu.Unlock()
						sess.Progress(Sample{Total: 10, Received: 5})
						time.Sleep(10 * time.Millisecond)
						if i == 3 {
							return OutcomeNone, errors.New("boom")
						}
						return OutcomeCloned, nil
					},
				}
			}

			done, _ := drain(s.Schedule(ctx, tasks))
			So(done, ShouldHaveLength, 5)
			So(maxActive, ShouldBeLessThanOrEqualTo, 2)
			So(maxActive, ShouldBeGreaterThan, 0)
			So(s.Active(), ShouldEqual, 0)

			ids := map[string]error{}
			for _, ev := range done {
				ids[ev.ID] = ev.Err
			}
			So(ids, ShouldHaveLength, 5)
			So(ids["t3"], ShouldErrLike, "boom")
			So(ids["t0"], ShouldBeNil)
		})

		Convey("admits in submission order", func() {
			s, err := NewScheduler(SchedulerOptions{Limit: 1})
			So(err, ShouldBeNil)

			var mu sync.Mutex
			var order []string
			tasks := make([]Task, 6)
			for i := range tasks {
				id := fmt.Sprintf("t%d", i)
				tasks[i] = &fakeTask{id: id, run: func(context.Context, *Session) (Outcome, error) {
					mu.Lock()
					order = append(order, id)
					mu.Unlock()
					return OutcomeUpToDate, nil
				}}
			}

			done, _ := drain(s.Schedule(ctx, tasks))
			So(done, ShouldHaveLength, 6)
			So(order, ShouldResemble, []string{"t0", "t1", "t2", "t3", "t4", "t5"})
			for i, ev := range done {
				So(ev.ID, ShouldEqual, order[i])
				So(ev.Outcome, ShouldEqual, OutcomeUpToDate)
			}
		})

		Convey("Done carries the finished transfer pinned at completion", func() {
			s, err := NewScheduler(SchedulerOptions{Limit: 1})
			So(err, ShouldBeNil)
			var recorded bool
			task := &fakeTask{id: "a", run: func(_ context.Context, sess *Session) (Outcome, error) {
				recorded = sess.Progress(Sample{Total: 10, Received: 4})
				return OutcomeCloned, nil
			}}

			done, progress := drain(s.Schedule(ctx, []Task{task}))
			So(recorded, ShouldBeTrue)
			So(done, ShouldHaveLength, 1)
			So(done[0].Aggregate, ShouldResemble, Sample{Total: 10, Received: 10, Indexed: 10})
			So(progress, ShouldResemble, []Event{{Kind: EventProgress, Aggregate: Sample{Total: 10, Received: 4}}})
			So(s.board.Len(), ShouldEqual, 0)
		})

		Convey("cancellation still yields one Done per task", func() {
			s, err := NewScheduler(SchedulerOptions{Limit: 1})
			So(err, ShouldBeNil)
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			started := make(chan struct{})
			tasks := []Task{
				&fakeTask{id: "blocking", run: func(ctx context.Context, _ *Session) (Outcome, error) {
					close(started)
					<-ctx.Done()
					return OutcomeNone, ctx.Err()
				}},
				&fakeTask{id: "queued1", run: func(context.Context, *Session) (Outcome, error) {
					panic("must not run")
				}},
				&fakeTask{id: "queued2", run: func(context.Context, *Session) (Outcome, error) {
					panic("must not run")
				}},
			}

			events := s.Schedule(ctx, tasks)
			<-started
			cancel()

			done, _ := drain(events)
			So(done, ShouldHaveLength, 3)
			for _, ev := range done {
				So(ev.Err, ShouldEqual, context.Canceled)
			}
		})

		Convey("successful tasks release their tried marker", func() {
			auth := NewAuthCache(AuthOptions{})
			s, err := NewScheduler(SchedulerOptions{Limit: 1, Auth: auth})
			So(err, ShouldBeNil)
			task := &fakeTask{id: "a", run: func(_ context.Context, sess *Session) (Outcome, error) {
				sess.Credentials("", 0)
				return OutcomeCloned, nil
			}}
			drain(s.Schedule(ctx, []Task{task}))
			So(auth.Tried("a"), ShouldBeFalse)
		})
	})
}
