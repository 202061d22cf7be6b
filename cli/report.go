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

package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/osoy/osoy/repos"
	"github.com/osoy/osoy/transfer"
)

// clearLine erases the current terminal line.
const clearLine = "\r\033[K"

// barRate bounds how often the progress bar is redrawn.
var barRate = rate.Every(100 * time.Millisecond)

// reporter prints the events of a transfer run.
//
// Every finished transfer gets a line on out. When bar is set the
// aggregate progress is redrawn in place on errOut.
type reporter struct {
	out     io.Writer
	errOut  io.Writer
	src     string
	bar     bool
	verbose bool
	outcome bool
	color   painter

	// redraw throttles the bar. Nil draws every update.
	redraw *rate.Limiter
	drawn  bool
}

func newReporter(r *baseRun, out, errOut io.Writer, src string) *reporter {
	return &reporter{
		out:     out,
		errOut:  errOut,
		src:     src,
		bar:     isTerminal(errOut),
		verbose: r.verbose,
		color:   painter(isTerminal(out)),
		redraw:  rate.NewLimiter(barRate, 1),
	}
}

// drain consumes events until the channel is closed. onDone, if not nil,
// sees every EventDone before it is printed. It returns the number of
// failed transfers.
func (rp *reporter) drain(events <-chan transfer.Event, onDone func(transfer.Event)) (failed int) {
	for ev := range events {
		switch ev.Kind {
		case transfer.EventProgress:
			rp.draw(ev.Aggregate)
		case transfer.EventDone:
			if onDone != nil {
				onDone(ev)
			}
			if ev.Err != nil {
				failed++
			}
			rp.clear()
			fmt.Fprintln(rp.out, rp.line(ev))
		}
	}
	rp.clear()
	return failed
}

// line formats a finished transfer.
func (rp *reporter) line(ev transfer.Event) string {
	id := repos.Relative(rp.src, ev.ID)
	if ev.Err != nil {
		s := id + " " + rp.color.paint("failed", "red")
		if rp.verbose {
			s += ": " + ev.Err.Error()
		}
		return s
	}
	s := id + " " + rp.color.paint("done", "green")
	if rp.outcome {
		s += " (" + ev.Outcome.String() + ")"
	}
	return s
}

// progressLine formats an aggregate sample.
func progressLine(s transfer.Sample) string {
	if !s.Known() {
		return "negotiating"
	}
	received, indexed := s.Percent()
	return fmt.Sprintf("%3d%% %3d%%  %s/%s objects",
		received, indexed,
		humanize.Comma(int64(min(s.Received, s.Total))), humanize.Comma(int64(s.Total)))
}

func (rp *reporter) draw(s transfer.Sample) {
	if !rp.bar || (rp.redraw != nil && !rp.redraw.Allow()) {
		return
	}
	fmt.Fprint(rp.errOut, clearLine+progressLine(s))
	rp.drawn = true
}

func (rp *reporter) clear() {
	if rp.drawn {
		fmt.Fprint(rp.errOut, clearLine)
		rp.drawn = false
	}
}

// summary formats the totals of a finished run.
func summary(verb string, total, failed int) string {
	s := fmt.Sprintf("%s %s of %s", verb, humanize.Comma(int64(total-failed)), humanize.Comma(int64(total)))
	if failed > 0 {
		s += fmt.Sprintf(", %s failed", humanize.Comma(int64(failed)))
	}
	return s
}
