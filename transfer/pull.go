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

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/osoy/osoy/common/errors"
)

// RemoteName is the remote pulled from.
const RemoteName = "origin"

var (
	// ErrHeadNotBranch is returned when pulling a repository whose HEAD is
	// detached.
	ErrHeadNotBranch = errors.New("head is not branch")
	// ErrMergeUnimplemented is returned when the local branch and the remote
	// have diverged.
	ErrMergeUnimplemented = errors.New("merge unimplemented")
)

// PullTask fetches the current branch of the repository at Path from
// origin and fast-forwards it.
type PullTask struct {
	Path string

	// Force resets a diverged branch to the remote instead of failing.
	Force bool

	// MaxAuthAttempts bounds credential retries. Zero means
	// DefaultMaxAuthAttempts.
	MaxAuthAttempts int
}

var _ Task = (*PullTask)(nil)

// ID implements Task.
func (t *PullTask) ID() string {
	return t.Path
}

// Run implements Task.
func (t *PullTask) Run(ctx context.Context, sess *Session) (Outcome, error) {
	sess.SetPhase(PhaseNegotiating)
	repo, err := git.PlainOpen(t.Path)
	if err != nil {
		return OutcomeNone, errors.Annotate(err, "opening %s", t.Path).Err()
	}
	head, err := repo.Head()
	if err != nil {
		return OutcomeNone, errors.Annotate(err, "resolving HEAD").Err()
	}
	if !head.Name().IsBranch() {
		return OutcomeNone, ErrHeadNotBranch
	}
	remote, err := repo.Remote(RemoteName)
	if err != nil {
		return OutcomeNone, errors.Annotate(err, "remote '%s'", RemoteName).Err()
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return OutcomeNone, errors.Reason("remote '%s' has no url", RemoteName).Err()
	}
	ep, err := transport.NewEndpoint(urls[0])
	if err != nil {
		return OutcomeNone, errors.Annotate(err, "parsing %q", urls[0]).Err()
	}

	branch := head.Name().Short()
	tracking := plumbing.NewRemoteReferenceName(RemoteName, branch)
	spec := config.RefSpec(fmt.Sprintf("+%s:%s", head.Name(), tracking))
	err = authenticate(sess, ep, t.MaxAuthAttempts, func(auth transport.AuthMethod) error {
		err := repo.FetchContext(ctx, &git.FetchOptions{
			RemoteName: RemoteName,
			RefSpecs:   []config.RefSpec{spec},
			Auth:       auth,
			Progress:   newSidebandWriter(sess),
			Tags:       git.AllTags,
		})
		if err == git.NoErrAlreadyUpToDate {
			return nil
		}
		return err
	})
	if err != nil {
		return OutcomeNone, err
	}

	sess.SetPhase(PhaseIntegrating)
	fetched, err := repo.Reference(tracking, true)
	if err != nil {
		return OutcomeNone, errors.Annotate(err, "resolving %s", tracking).Err()
	}
	outcome, err := classify(repo, head.Hash(), fetched.Hash())
	if err != nil {
		return OutcomeNone, err
	}
	switch {
	case outcome == OutcomeUpToDate:
		return outcome, nil
	case outcome == OutcomeOverwritten && !t.Force:
		return OutcomeNone, ErrMergeUnimplemented
	}

	if err := repo.Storer.SetReference(plumbing.NewHashReference(head.Name(), fetched.Hash())); err != nil {
		return OutcomeNone, errors.Annotate(err, "updating %s", branch).Err()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return OutcomeNone, err
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: head.Name(), Force: true}); err != nil {
		return OutcomeNone, errors.Annotate(err, "checking out %s", branch).Err()
	}
	return outcome, nil
}

// classify relates the local commit to the fetched one. Diverged histories
// are reported as OutcomeOverwritten, which is what forcing them yields.
func classify(repo *git.Repository, local, remote plumbing.Hash) (Outcome, error) {
	if local == remote {
		return OutcomeUpToDate, nil
	}
	lc, err := repo.CommitObject(local)
	if err != nil {
		return OutcomeNone, errors.Annotate(err, "reading local commit").Err()
	}
	rc, err := repo.CommitObject(remote)
	if err != nil {
		return OutcomeNone, errors.Annotate(err, "reading remote commit").Err()
	}
	if behind, err := rc.IsAncestor(lc); err != nil {
		return OutcomeNone, err
	} else if behind {
		return OutcomeUpToDate, nil
	}
	if ff, err := lc.IsAncestor(rc); err != nil {
		return OutcomeNone, err
	} else if ff {
		return OutcomeFastForward, nil
	}
	return OutcomeOverwritten, nil
}
