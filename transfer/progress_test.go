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
	"fmt"
	"sort"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSample(t *testing.T) {
	t.Parallel()

	Convey("Sample", t, func() {
		a := Sample{Total: 10, Received: 4, Indexed: 2}
		b := Sample{Total: 5, Received: 5, Indexed: 1}

		So(a.Add(b), ShouldResemble, Sample{Total: 15, Received: 9, Indexed: 3})
		So(a.Add(b), ShouldResemble, b.Add(a))
		So(a.Known(), ShouldBeTrue)
		So(Sample{Received: 3}.Known(), ShouldBeFalse)

		So(a.Complete(), ShouldResemble, Sample{Total: 10, Received: 10, Indexed: 10})
		So(Sample{Received: 3}.Complete(), ShouldResemble, Sample{Total: 3, Received: 3, Indexed: 3})
		So(Sample{}.Complete(), ShouldResemble, Sample{})

		r, i := a.Percent()
		So(r, ShouldEqual, 40)
		So(i, ShouldEqual, 20)
		r, i = Sample{Received: 3}.Percent()
		So(r, ShouldEqual, 0)
		So(i, ShouldEqual, 0)
	})
}

func TestBoard(t *testing.T) {
	t.Parallel()

	Convey("Board", t, func() {
		b := NewBoard()

		Convey("sums the latest sample of every entry", func() {
			b.Begin("a")
			b.Begin("b")
			So(b.Len(), ShouldEqual, 2)

			_, ok := b.Update("a", Sample{Total: 10, Received: 1}, nil)
			So(ok, ShouldBeTrue)
			_, ok = b.Update("b", Sample{Total: 20, Received: 2}, nil)
			So(ok, ShouldBeTrue)
			sum, ok := b.Update("a", Sample{Total: 10, Received: 5, Indexed: 1}, nil)
			So(ok, ShouldBeTrue)
			So(sum, ShouldResemble, Sample{Total: 30, Received: 7, Indexed: 1})
			So(b.Sum(), ShouldResemble, sum)
		})

		Convey("Finish includes the pinned entry once, then drops it", func() {
			b.Update("a", Sample{Total: 10, Received: 5}, nil)
			b.Update("b", Sample{Total: 4, Received: 1}, nil)

			So(b.Finish("a", nil), ShouldResemble, Sample{Total: 14, Received: 11, Indexed: 10})
			So(b.Len(), ShouldEqual, 1)
			So(b.Sum(), ShouldResemble, Sample{Total: 4, Received: 1})

			b.Remove("b")
			So(b.Sum(), ShouldResemble, Sample{})
		})

		Convey("drops updates while busy", func() {
			b.mu.Lock()
			_, ok := b.Update("a", Sample{Total: 1}, nil)
			b.mu.Unlock()
			So(ok, ShouldBeFalse)
			So(b.Dropped(), ShouldEqual, 1)
			So(b.Sum(), ShouldResemble, Sample{})
		})

		Convey("is a true sum under concurrent writers", func() {
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				id := fmt.Sprintf("t%d", i)
				wg.Add(1)
				go func() {
					defer wg.Done()
					for n := uint64(1); n <= 100; n++ {
						b.Update(id, Sample{Total: 100, Received: n}, nil)
					}
				}()
			}
			wg.Wait()

			// Make every entry's final value land.
			for i := 0; i < 8; i++ {
				b.mu.Lock()
				b.entries[fmt.Sprintf("t%d", i)] = Sample{Total: 100, Received: 100}
				b.mu.Unlock()
			}
			So(b.Sum(), ShouldResemble, Sample{Total: 800, Received: 800})
		})

		Convey("publishes sums in the order they were computed", func() {
			var published []uint64
			publish := func(sum Sample) {
				published = append(published, sum.Received)
			}

			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				id := fmt.Sprintf("t%d", i)
				wg.Add(1)
				go func() {
					defer wg.Done()
					for n := uint64(1); n <= 100; n++ {
						b.Update(id, Sample{Total: 100, Received: n}, publish)
					}
				}()
			}
			wg.Wait()
			b.Finish("t0", publish)

			So(published, ShouldNotBeEmpty)
			So(sort.SliceIsSorted(published, func(i, j int) bool {
				return published[i] < published[j]
			}), ShouldBeTrue)
			So(published[len(published)-1], ShouldEqual, b.Sum().Received+100)
		})
	})
}

func TestEventQueue(t *testing.T) {
	t.Parallel()

	Convey("eventQueue", t, func() {
		q := newEventQueue()
		progress := func(n uint64) Event {
			return Event{Kind: EventProgress, Aggregate: Sample{Total: n}}
		}

		Convey("coalesces pending progress but keeps Done", func() {
			q.push(progress(1))
			q.push(progress(2))
			q.push(Event{Kind: EventDone, ID: "a"})
			q.push(progress(3))
			q.push(progress(4))
			q.close()
			go q.run()

			var got []Event
			for ev := range q.out {
				got = append(got, ev)
			}
			So(got, ShouldResemble, []Event{
				progress(2),
				{Kind: EventDone, ID: "a"},
				progress(4),
			})
		})

		Convey("closes the channel when empty", func() {
			go q.run()
			q.close()
			_, ok := <-q.out
			So(ok, ShouldBeFalse)
		})
	})
}
