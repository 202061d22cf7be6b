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
	"sync/atomic"
)

// Sample is the object count of one transfer, or of several when summed.
//
// A zero Total means the size is not known yet, not that there is no work.
type Sample struct {
	Total    uint64
	Received uint64
	Indexed  uint64
}

// Add returns the pointwise sum of s and o.
func (s Sample) Add(o Sample) Sample {
	return Sample{
		Total:    s.Total + o.Total,
		Received: s.Received + o.Received,
		Indexed:  s.Indexed + o.Indexed,
	}
}

// Known reports whether the total is known.
func (s Sample) Known() bool {
	return s.Total > 0
}

// Complete returns s pinned at completion, with every object received and
// indexed.
func (s Sample) Complete() Sample {
	total := max(s.Total, s.Received, s.Indexed)
	return Sample{Total: total, Received: total, Indexed: total}
}

// Percent returns the received and indexed fractions of Total in percent,
// or zeros when the total is unknown.
func (s Sample) Percent() (received, indexed int) {
	if !s.Known() {
		return 0, 0
	}
	return int(100 * min(s.Received, s.Total) / s.Total), int(100 * min(s.Indexed, s.Total) / s.Total)
}

// Board holds the latest Sample of every transfer in flight.
//
// Updates never block: a writer finding the board busy drops its sample.
type Board struct {
	mu      sync.Mutex
	entries map[string]Sample

	dropped atomic.Uint64
}

// NewBoard returns an empty Board.
func NewBoard() *Board {
	return &Board{entries: map[string]Sample{}}
}

// Begin registers id with an unknown sample.
func (b *Board) Begin(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[id] = Sample{}
}

// Update records s as the latest sample of id and returns the new sum over
// all entries. A non-nil publish is called with the sum before the board is
// released, so sums reach publish in the order they were computed. It must
// not block.
//
// If the board is held by another writer, Update returns false immediately
// and s is discarded.
func (b *Board) Update(id string, s Sample, publish func(Sample)) (Sample, bool) {
	if !b.mu.TryLock() {
		b.dropped.Add(1)
		return Sample{}, false
	}
	defer b.mu.Unlock()
	b.entries[id] = s
	sum := b.sumLocked()
	if publish != nil {
		publish(sum)
	}
	return sum, true
}

// Finish pins id at completion and returns the sum including it. The entry
// is then removed, so later sums cover only transfers still in flight.
// publish is treated as in Update.
func (b *Board) Finish(id string, publish func(Sample)) Sample {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[id] = b.entries[id].Complete()
	sum := b.sumLocked()
	delete(b.entries, id)
	if publish != nil {
		publish(sum)
	}
	return sum
}

// Remove forgets id.
func (b *Board) Remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, id)
}

// Sum returns the sum over all entries.
func (b *Board) Sum() Sample {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sumLocked()
}

// Len returns the number of entries.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Dropped returns how many updates were discarded because the board was
// busy.
func (b *Board) Dropped() uint64 {
	return b.dropped.Load()
}

func (b *Board) sumLocked() Sample {
	var sum Sample
	for _, s := range b.entries {
		sum = sum.Add(s)
	}
	return sum
}
