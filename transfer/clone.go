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
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/osoy/osoy/common/errors"
)

// CloneTarget is a repository to clone and where to put it.
type CloneTarget struct {
	URL  string
	Path string
}

// CloneTask clones URL into Path.
type CloneTask struct {
	URL  string
	Path string

	// MaxAuthAttempts bounds credential retries. Zero means
	// DefaultMaxAuthAttempts.
	MaxAuthAttempts int
}

var _ Task = (*CloneTask)(nil)

// ID implements Task.
func (t *CloneTask) ID() string {
	return t.Path
}

// Run implements Task.
//
// A failed clone may leave a partial destination behind.
func (t *CloneTask) Run(ctx context.Context, sess *Session) (Outcome, error) {
	sess.SetPhase(PhaseNegotiating)
	ep, err := transport.NewEndpoint(t.URL)
	if err != nil {
		return OutcomeNone, errors.Annotate(err, "parsing %q", t.URL).Err()
	}
	if err := os.MkdirAll(filepath.Dir(t.Path), 0755); err != nil {
		return OutcomeNone, errors.Annotate(err, "creating %s", filepath.Dir(t.Path)).Err()
	}

	var repo *git.Repository
	attempt := 0
	err = authenticate(sess, ep, t.MaxAuthAttempts, func(auth transport.AuthMethod) error {
		if attempt++; attempt > 1 {
			if err := os.RemoveAll(t.Path); err != nil {
				return errors.Annotate(err, "removing partial clone").Err()
			}
		}
		var err error
		repo, err = git.PlainCloneContext(ctx, t.Path, false, &git.CloneOptions{
			URL:        t.URL,
			Auth:       auth,
			Progress:   newSidebandWriter(sess),
			Tags:       git.AllTags,
			NoCheckout: true,
		})
		return err
	})
	if err != nil {
		return OutcomeNone, err
	}

	sess.SetPhase(PhaseIntegrating)
	head, err := repo.Head()
	if err != nil {
		return OutcomeNone, errors.Annotate(err, "resolving HEAD").Err()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return OutcomeNone, err
	}
	opts := &git.CheckoutOptions{Force: true}
	if head.Name().IsBranch() {
		opts.Branch = head.Name()
	} else {
		opts.Hash = head.Hash()
	}
	if err := wt.Checkout(opts); err != nil {
		return OutcomeNone, errors.Annotate(err, "checking out %s", head.Name().Short()).Err()
	}
	return OutcomeCloned, nil
}

// Options are shared by the tasks of Clone and Pull.
type Options struct {
	Board *Board
	Auth  *AuthCache

	// Force makes Pull overwrite diverged local branches.
	Force bool
	// MaxAuthAttempts bounds credential retries per task.
	MaxAuthAttempts int
}

// Clone clones every target, running at most limit clones at once.
func Clone(ctx context.Context, targets []CloneTarget, limit int, opts Options) (<-chan Event, error) {
	s, err := NewScheduler(SchedulerOptions{Limit: limit, Board: opts.Board, Auth: opts.Auth})
	if err != nil {
		return nil, err
	}
	tasks := make([]Task, len(targets))
	for i, t := range targets {
		tasks[i] = &CloneTask{URL: t.URL, Path: t.Path, MaxAuthAttempts: opts.MaxAuthAttempts}
	}
	return s.Schedule(ctx, tasks), nil
}

// Pull pulls every repository in paths, running at most limit pulls at
// once.
func Pull(ctx context.Context, paths []string, limit int, opts Options) (<-chan Event, error) {
	s, err := NewScheduler(SchedulerOptions{Limit: limit, Board: opts.Board, Auth: opts.Auth})
	if err != nil {
		return nil, err
	}
	tasks := make([]Task, len(paths))
	for i, p := range paths {
		tasks[i] = &PullTask{Path: p, Force: opts.Force, MaxAuthAttempts: opts.MaxAuthAttempts}
	}
	return s.Schedule(ctx, tasks), nil
}
