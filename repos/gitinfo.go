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

package repos

import (
	"sort"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/osoy/osoy/common/errors"
)

// OriginName is the remote osoy clones from and pulls from.
const OriginName = "origin"

// Init creates an empty repository at path with url as its origin.
func Init(path, url string) error {
	repo, err := git.PlainInit(path, false)
	if err != nil {
		return errors.Annotate(err, "initializing %s", path).Err()
	}
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{Name: OriginName, URLs: []string{url}})
	return errors.Annotate(err, "adding origin").Err()
}

// SetOrigin points the origin remote of the repository at path to url,
// creating the remote when missing.
func SetOrigin(path, url string) error {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return errors.Annotate(err, "opening %s", path).Err()
	}
	cfg, err := repo.Config()
	if err != nil {
		return errors.Annotate(err, "reading config").Err()
	}
	rc, ok := cfg.Remotes[OriginName]
	if !ok {
		_, err = repo.CreateRemote(&gitconfig.RemoteConfig{Name: OriginName, URLs: []string{url}})
		return errors.Annotate(err, "adding origin").Err()
	}
	rc.URLs = []string{url}
	return errors.Annotate(repo.Storer.SetConfig(cfg), "writing config").Err()
}

// FileChange is one entry of a worktree status.
type FileChange struct {
	Path     string
	Staging  git.StatusCode
	Worktree git.StatusCode
}

// Info describes the state of a repository relative to its upstream.
type Info struct {
	// Branch is empty when HEAD is detached.
	Branch string
	// Upstream is the tracked remote branch, like "origin/main", or empty
	// when there is none.
	Upstream string
	// Ahead and Behind count the commits only on the local branch and only
	// on the upstream.
	Ahead  int
	Behind int
	// Files lists changed paths sorted by name.
	Files []FileChange
}

// Clean reports whether the worktree has no changes and the branch is even
// with its upstream.
func (i *Info) Clean() bool {
	return len(i.Files) == 0 && i.Ahead == 0 && i.Behind == 0
}

// Branch returns the branch HEAD of the repository at path points to, or
// an empty string when HEAD is detached.
func Branch(path string) (string, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return "", errors.Annotate(err, "opening %s", path).Err()
	}
	return branchOf(repo)
}

func branchOf(repo *git.Repository) (string, error) {
	head, err := repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", errors.Annotate(err, "reading HEAD").Err()
	}
	if head.Type() == plumbing.SymbolicReference && head.Target().IsBranch() {
		return head.Target().Short(), nil
	}
	return "", nil
}

// Status inspects the repository at path.
func Status(path string) (*Info, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, errors.Annotate(err, "opening %s", path).Err()
	}
	info := &Info{}
	if info.Branch, err = branchOf(repo); err != nil {
		return nil, err
	}

	if info.Branch != "" {
		if err := upstreamOf(repo, info); err != nil {
			return nil, err
		}
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.Annotate(err, "opening worktree").Err()
	}
	st, err := wt.Status()
	if err != nil {
		return nil, errors.Annotate(err, "reading worktree status").Err()
	}
	for p, fs := range st {
		if fs.Staging == git.Unmodified && fs.Worktree == git.Unmodified {
			continue
		}
		info.Files = append(info.Files, FileChange{Path: p, Staging: fs.Staging, Worktree: fs.Worktree})
	}
	sort.Slice(info.Files, func(i, j int) bool { return info.Files[i].Path < info.Files[j].Path })
	return info, nil
}

// upstreamOf fills the upstream of info.Branch and the commit counts
// relative to it. A branch without tracking configuration falls back to
// the same name on origin.
func upstreamOf(repo *git.Repository, info *Info) error {
	cfg, err := repo.Config()
	if err != nil {
		return errors.Annotate(err, "reading config").Err()
	}
	remote, merge := OriginName, plumbing.NewBranchReferenceName(info.Branch)
	if bc, ok := cfg.Branches[info.Branch]; ok && bc.Remote != "" && bc.Merge != "" {
		remote, merge = bc.Remote, bc.Merge
	}
	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName(remote, merge.Short()), true)
	switch {
	case err == plumbing.ErrReferenceNotFound:
		return nil
	case err != nil:
		return errors.Annotate(err, "resolving upstream").Err()
	}
	info.Upstream = remote + "/" + merge.Short()

	local, err := repo.Reference(plumbing.NewBranchReferenceName(info.Branch), true)
	if err != nil {
		// An unborn branch has everything still to pull.
		all, err := reachable(repo, remoteRef.Hash())
		info.Behind = len(all)
		return err
	}
	info.Ahead, info.Behind, err = aheadBehind(repo, local.Hash(), remoteRef.Hash())
	return err
}

func aheadBehind(repo *git.Repository, local, remote plumbing.Hash) (ahead, behind int, err error) {
	if local == remote {
		return 0, 0, nil
	}
	fromRemote, err := reachable(repo, remote)
	if err != nil {
		return 0, 0, err
	}
	fromLocal, err := reachable(repo, local)
	if err != nil {
		return 0, 0, err
	}
	for h := range fromLocal {
		if !fromRemote[h] {
			ahead++
		}
	}
	for h := range fromRemote {
		if !fromLocal[h] {
			behind++
		}
	}
	return ahead, behind, nil
}

func reachable(repo *git.Repository, from plumbing.Hash) (map[plumbing.Hash]bool, error) {
	ret := map[plumbing.Hash]bool{}
	iter, err := repo.Log(&git.LogOptions{From: from})
	if err != nil {
		return nil, errors.Annotate(err, "walking %s", from).Err()
	}
	err = iter.ForEach(func(c *object.Commit) error {
		ret[c.Hash] = true
		return nil
	})
	return ret, errors.Annotate(err, "walking %s", from).Err()
}
