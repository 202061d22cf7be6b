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
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/osoy/osoy/common/errors"
)

// ErrNoPrompter is returned when credentials must be asked for but the
// AuthCache has no Prompter.
var ErrNoPrompter = errors.New("cannot prompt for credentials")

// Prompter asks the user for credentials.
type Prompter interface {
	// Line asks for a visible value, such as a user name.
	Line(prompt string) (string, error)
	// Secret asks for a value without echoing it.
	Secret(prompt string) (string, error)
}

// TerminalPrompter prompts on an interactive terminal.
//
// Prompts are written to Out, so they never mix with data written to
// stdout. Only one prompt is shown at a time.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer

	mu     sync.Mutex
	reader *bufio.Reader
}

// NewTerminalPrompter returns a TerminalPrompter reading from stdin and
// prompting on stderr.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stderr}
}

// Line implements Prompter.
func (p *TerminalPrompter) Line(prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.Out, "%s ", prompt)
	return p.readLine()
}

// Secret implements Prompter. Input is not echoed when In is a terminal.
func (p *TerminalPrompter) Secret(prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.Out, "%s ", prompt)

	fd := int(p.In.Fd())
	if !term.IsTerminal(fd) {
		return p.readLine()
	}
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", errors.Annotate(err, "reading secret").Err()
	}
	return string(b), nil
}

func (p *TerminalPrompter) readLine() (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", errors.Annotate(err, "reading input").Err()
	}
	return strings.TrimRight(line, "\r\n"), nil
}
