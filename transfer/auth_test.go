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
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"golang.org/x/crypto/ssh"

	. "github.com/osoy/osoy/common/testing/assertions"
	. "github.com/smartystreets/goconvey/convey"
)

// fakePrompter answers every prompt with fixed values and records them.
type fakePrompter struct {
	mu      sync.Mutex
	line    string
	secret  string
	lines   []string
	secrets []string
}

func (p *fakePrompter) Line(prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, prompt)
	return p.line, nil
}

func (p *fakePrompter) Secret(prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.secrets = append(p.secrets, prompt)
	return p.secret, nil
}

// writeKey writes an ed25519 private key, encrypted if passphrase is set.
func writeKey(dir, passphrase string) string {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	So(err, ShouldBeNil)
	var block *pem.Block
	if passphrase == "" {
		block, err = ssh.MarshalPrivateKey(priv, "test")
	} else {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(priv, "test", []byte(passphrase))
	}
	So(err, ShouldBeNil)
	path := filepath.Join(dir, "id_rsa")
	So(os.WriteFile(path, pem.EncodeToMemory(block), 0600), ShouldBeNil)
	return path
}

func TestAuthCache(t *testing.T) {
	t.Parallel()

	Convey("AuthCache", t, func() {
		dir := t.TempDir()
		p := &fakePrompter{line: "me", secret: "hunter2"}

		Convey("with a plain key", func() {
			c := NewAuthCache(AuthOptions{Prompter: p, SSHKey: writeKey(dir, "")})

			Convey("the first request does not prompt", func() {
				auth, err := c.Credentials("a", "git", CredentialSSHKey)
				So(err, ShouldBeNil)
				So(auth.(*gitssh.PublicKeys).User, ShouldEqual, "git")
				So(p.secrets, ShouldBeEmpty)
				So(p.lines, ShouldBeEmpty)
				So(c.Tried("a"), ShouldBeTrue)
				So(c.Tried("b"), ShouldBeFalse)
			})

			Convey("a missing username is asked for", func() {
				auth, err := c.Credentials("a", "", CredentialSSHKey)
				So(err, ShouldBeNil)
				So(auth.(*gitssh.PublicKeys).User, ShouldEqual, "me")
				So(p.lines, ShouldResemble, []string{"username for 'a':"})
			})
		})

		Convey("with an encrypted key", func() {
			key := writeKey(dir, "hunter2")
			c := NewAuthCache(AuthOptions{Prompter: p, SSHKey: key})

			Convey("escalates to prompting on repeated requests", func() {
				_, err := c.Credentials("a", "git", CredentialSSHKey)
				So(err, ShouldBeNil)
				So(p.secrets, ShouldResemble, []string{"password for '" + key + "':"})

				// Another target reuses the cached passphrase.
				_, err = c.Credentials("b", "git", CredentialSSHKey)
				So(err, ShouldBeNil)
				So(p.secrets, ShouldHaveLength, 1)

				// The same target again means the passphrase was rejected.
				_, err = c.Credentials("b", "git", CredentialSSHKey)
				So(err, ShouldBeNil)
				So(p.secrets, ShouldHaveLength, 2)
				_, err = c.Credentials("b", "git", CredentialSSHKey)
				So(err, ShouldBeNil)
				So(p.secrets, ShouldHaveLength, 3)

				Convey("until forgotten", func() {
					c.Forget("b")
					So(c.Tried("b"), ShouldBeFalse)
					_, err = c.Credentials("b", "git", CredentialSSHKey)
					So(err, ShouldBeNil)
					So(p.secrets, ShouldHaveLength, 3)
				})
			})

			Convey("a wrong passphrase is an authentication error", func() {
				p.secret = "wrong"
				_, err := c.Credentials("a", "git", CredentialSSHKey)
				So(err, ShouldNotBeNil)
				So(isAuthError(err), ShouldBeTrue)
			})

			Convey("the seed passphrase avoids the first prompt", func() {
				c := NewAuthCache(AuthOptions{Prompter: p, SSHKey: key, Passphrase: "hunter2"})
				_, err := c.Credentials("a", "git", CredentialSSHKey)
				So(err, ShouldBeNil)
				So(p.secrets, ShouldBeEmpty)
			})

			Convey("without a prompter", func() {
				c := NewAuthCache(AuthOptions{SSHKey: key})
				_, err := c.Credentials("a", "git", CredentialSSHKey)
				So(err, ShouldEqual, ErrNoPrompter)
			})
		})

		Convey("user and password", func() {
			c := NewAuthCache(AuthOptions{Prompter: p})

			auth, err := c.Credentials("a", "", CredentialUserPass)
			So(err, ShouldBeNil)
			So(auth, ShouldResemble, &githttp.BasicAuth{Username: "me", Password: "hunter2"})
			So(p.lines, ShouldResemble, []string{"username for 'a':"})
			So(p.secrets, ShouldResemble, []string{"password for 'a':"})

			_, err = c.Credentials("b", "", CredentialUserPass)
			So(err, ShouldBeNil)
			So(p.secrets, ShouldHaveLength, 1)

			_, err = c.Credentials("b", "", CredentialUserPass)
			So(err, ShouldBeNil)
			So(p.secrets, ShouldHaveLength, 2)
			So(p.secrets[1], ShouldEqual, "password for 'b':")
		})

		Convey("unsupported kinds are tagged", func() {
			c := NewAuthCache(AuthOptions{Prompter: p})
			_, err := c.Credentials("a", "", 0)
			So(err, ShouldHaveTag, UnsupportedCredentialTag)
			So(isAuthError(err), ShouldBeFalse)
		})
	})
}

func TestAgentFallback(t *testing.T) {
	sockDir, err := os.MkdirTemp("", "agent")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(sockDir)
	l, err := net.Listen("unix", filepath.Join(sockDir, "sock"))
	if err != nil {
		t.Skipf("unix sockets unavailable: %s", err)
	}
	defer l.Close()
	t.Setenv("SSH_AUTH_SOCK", l.Addr().String())

	Convey("Without a key file", t, func() {
		p := &fakePrompter{line: "me", secret: "hunter2"}
		c := NewAuthCache(AuthOptions{Prompter: p, SSHKey: filepath.Join(t.TempDir(), "missing")})

		Convey("the agent is offered once per target", func() {
			auth, err := c.Credentials("a", "git", CredentialSSHKey)
			So(err, ShouldBeNil)
			So(auth, ShouldHaveSameTypeAs, &gitssh.PublicKeysCallback{})

			for i := 0; i < 2; i++ {
				_, err = c.Credentials("a", "git", CredentialSSHKey)
				So(err, ShouldErrLike, ErrAgentRejected)
				So(isAuthError(err), ShouldBeFalse)
			}
			So(p.secrets, ShouldBeEmpty)
			So(p.lines, ShouldBeEmpty)

			_, err = c.Credentials("b", "git", CredentialSSHKey)
			So(err, ShouldBeNil)
		})

		Convey("authenticate stops after the agent is rejected", func() {
			sess := newSession(context.Background(), "x", NewBoard(), c, nil)
			ep, err := transport.NewEndpoint("git@example.com:a/b")
			So(err, ShouldBeNil)

			calls := 0
			err = authenticate(sess, ep, 0, func(transport.AuthMethod) error {
				calls++
				return transport.ErrAuthorizationFailed
			})
			So(err, ShouldErrLike, ErrAgentRejected)
			So(calls, ShouldEqual, 1)
			So(p.secrets, ShouldBeEmpty)
		})
	})
}
