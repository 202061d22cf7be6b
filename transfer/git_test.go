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
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	. "github.com/smartystreets/goconvey/convey"
)

// requireLocalTransport skips tests which move objects between local
// repositories, which go-git does through git's pack programs.
func requireLocalTransport(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git-upload-pack"); err != nil {
		t.Skip("git-upload-pack not found")
	}
}

func commitFile(repo *git.Repository, name, content string) plumbing.Hash {
	wt, err := repo.Worktree()
	So(err, ShouldBeNil)
	So(os.WriteFile(filepath.Join(wt.Filesystem.Root(), name), []byte(content), 0644), ShouldBeNil)
	_, err = wt.Add(name)
	So(err, ShouldBeNil)
	h, err := wt.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	So(err, ShouldBeNil)
	return h
}

func headOf(repo *git.Repository) *plumbing.Reference {
	head, err := repo.Head()
	So(err, ShouldBeNil)
	return head
}

func runTask(t Task) (Outcome, error) {
	sess := newSession(context.Background(), t.ID(), NewBoard(), NewAuthCache(AuthOptions{}), nil)
	return t.Run(context.Background(), sess)
}

func TestClone(t *testing.T) {
	t.Parallel()
	requireLocalTransport(t)

	Convey("Clone", t, func() {
		ctx := context.Background()
		origin := t.TempDir()
		originRepo, err := git.PlainInit(origin, false)
		So(err, ShouldBeNil)
		first := commitFile(originRepo, "a.txt", "a")

		dest := t.TempDir()
		targets := []CloneTarget{
			{URL: origin, Path: filepath.Join(dest, "one", "repo")},
			{URL: origin, Path: filepath.Join(dest, "two", "repo")},
			{URL: filepath.Join(origin, "missing"), Path: filepath.Join(dest, "three", "repo")},
		}
		events, err := Clone(ctx, targets, 2, Options{})
		So(err, ShouldBeNil)

		done, _ := drain(events)
		So(done, ShouldHaveLength, 3)
		byID := map[string]Event{}
		for _, ev := range done {
			byID[ev.ID] = ev
		}

		for _, target := range targets[:2] {
			ev := byID[target.Path]
			So(ev.Err, ShouldBeNil)
			So(ev.Outcome, ShouldEqual, OutcomeCloned)

			repo, err := git.PlainOpen(target.Path)
			So(err, ShouldBeNil)
			head := headOf(repo)
			So(head.Name().IsBranch(), ShouldBeTrue)
			So(head.Hash(), ShouldEqual, first)
			data, err := os.ReadFile(filepath.Join(target.Path, "a.txt"))
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "a")
		}
		So(byID[targets[2].Path].Err, ShouldNotBeNil)
		So(byID[targets[2].Path].Outcome, ShouldEqual, OutcomeNone)
	})
}

func TestPull(t *testing.T) {
	t.Parallel()
	requireLocalTransport(t)

	Convey("With a clone of an origin", t, func() {
		origin := t.TempDir()
		originRepo, err := git.PlainInit(origin, false)
		So(err, ShouldBeNil)
		first := commitFile(originRepo, "a.txt", "a")

		local := filepath.Join(t.TempDir(), "local")
		localRepo, err := git.PlainClone(local, false, &git.CloneOptions{URL: origin})
		So(err, ShouldBeNil)
		branch := headOf(localRepo).Name()

		pull := func(force bool) (Outcome, error) {
			return runTask(&PullTask{Path: local, Force: force})
		}

		Convey("nothing new is up to date", func() {
			outcome, err := pull(false)
			So(err, ShouldBeNil)
			So(outcome, ShouldEqual, OutcomeUpToDate)
		})

		Convey("a local branch ahead is up to date", func() {
			ahead := commitFile(localRepo, "local.txt", "l")
			outcome, err := pull(false)
			So(err, ShouldBeNil)
			So(outcome, ShouldEqual, OutcomeUpToDate)
			So(headOf(localRepo).Hash(), ShouldEqual, ahead)
		})

		Convey("new remote commits are fast-forwarded", func() {
			second := commitFile(originRepo, "b.txt", "b")
			outcome, err := pull(false)
			So(err, ShouldBeNil)
			So(outcome, ShouldEqual, OutcomeFastForward)

			head := headOf(localRepo)
			So(head.Name(), ShouldEqual, branch)
			So(head.Hash(), ShouldEqual, second)
			data, err := os.ReadFile(filepath.Join(local, "b.txt"))
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "b")
		})

		Convey("a detached head is refused before fetching", func() {
			wt, err := localRepo.Worktree()
			So(err, ShouldBeNil)
			So(wt.Checkout(&git.CheckoutOptions{Hash: first}), ShouldBeNil)
			commitFile(originRepo, "b.txt", "b")

			_, err = pull(false)
			So(err, ShouldEqual, ErrHeadNotBranch)

			head := headOf(localRepo)
			So(head.Name(), ShouldEqual, plumbing.HEAD)
			So(head.Hash(), ShouldEqual, first)
			tracking, err := localRepo.Reference(plumbing.NewRemoteReferenceName(RemoteName, branch.Short()), true)
			So(err, ShouldBeNil)
			So(tracking.Hash(), ShouldEqual, first)
		})

		Convey("with diverged histories", func() {
			theirs := commitFile(originRepo, "b.txt", "b")
			ours := commitFile(localRepo, "c.txt", "c")

			Convey("the branch is left alone", func() {
				_, err := pull(false)
				So(err, ShouldEqual, ErrMergeUnimplemented)
				So(headOf(localRepo).Hash(), ShouldEqual, ours)
			})

			Convey("force overwrites the branch", func() {
				outcome, err := pull(true)
				So(err, ShouldBeNil)
				So(outcome, ShouldEqual, OutcomeOverwritten)
				So(headOf(localRepo).Hash(), ShouldEqual, theirs)
				_, err = os.Stat(filepath.Join(local, "b.txt"))
				So(err, ShouldBeNil)
			})
		})

		Convey("a repository without origin fails", func() {
			So(localRepo.DeleteRemote(RemoteName), ShouldBeNil)
			_, err := pull(false)
			So(err, ShouldNotBeNil)
		})

		Convey("Pull runs through the scheduler", func() {
			commitFile(originRepo, "b.txt", "b")
			events, err := Pull(context.Background(), []string{local}, 1, Options{})
			So(err, ShouldBeNil)
			done, _ := drain(events)
			So(done, ShouldHaveLength, 1)
			So(done[0].ID, ShouldEqual, local)
			So(done[0].Err, ShouldBeNil)
			So(done[0].Outcome, ShouldEqual, OutcomeFastForward)
		})
	})
}
