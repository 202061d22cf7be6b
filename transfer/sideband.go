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
	"bytes"
	"regexp"
	"strconv"
)

var (
	sidebandProgressRe = regexp.MustCompile(`^(?:remote: )?([A-Za-z ]+):\s+(\d+)% \((\d+)/(\d+)\)`)
	sidebandTotalRe    = regexp.MustCompile(`^(?:remote: )?Total (\d+)`)
)

// sidebandWriter turns the remote's progress messages into Samples.
//
// The remote reports counting, compressing and total lines. Receiving and
// resolving lines, as written by git itself, are understood too.
//
// Received is an estimate. Without "Receiving objects" lines it follows the
// server's compression stage and jumps to Total on the "Total" line, which
// arrives before the pack itself. Indexed only moves when the remote reports
// "Resolving deltas" or "Indexing objects".
type sidebandWriter struct {
	sess *Session
	buf  []byte
	cur  Sample
}

func newSidebandWriter(sess *Session) *sidebandWriter {
	return &sidebandWriter{sess: sess}
}

// Write implements io.Writer. It never fails.
func (w *sidebandWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexAny(w.buf, "\r\n")
		if i < 0 {
			break
		}
		line := string(w.buf[:i])
		w.buf = w.buf[i+1:]
		if w.parse(line) {
			w.sess.SetPhase(PhaseTransferring)
			w.sess.Progress(w.cur)
		}
	}
	return len(p), nil
}

// parse folds line into the current sample, reporting whether it changed.
func (w *sidebandWriter) parse(line string) bool {
	if m := sidebandTotalRe.FindStringSubmatch(line); m != nil {
		n, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return false
		}
		w.cur.Total, w.cur.Received = n, n
		w.cur.Indexed = min(w.cur.Indexed, n)
		return true
	}

	m := sidebandProgressRe.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	done, err1 := strconv.ParseUint(m[3], 10, 64)
	of, err2 := strconv.ParseUint(m[4], 10, 64)
	if err1 != nil || err2 != nil || of == 0 {
		return false
	}

	// Scales done/of onto the object total, for stages counting something
	// else than objects.
	scaled := func() uint64 {
		if !w.cur.Known() {
			return 0
		}
		return w.cur.Total * done / of
	}

	switch m[1] {
	case "Counting objects", "Enumerating objects":
		if of < w.cur.Total {
			return false
		}
		w.cur.Total = of
	case "Compressing objects":
		w.cur.Received = scaled()
	case "Receiving objects":
		w.cur.Total, w.cur.Received = of, done
	case "Resolving deltas":
		w.cur.Indexed = scaled()
	case "Indexing objects":
		w.cur.Total, w.cur.Indexed = of, done
	default:
		return false
	}
	return true
}
