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
	"io/fs"
	"os"
	"sync"

	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"golang.org/x/crypto/ssh"

	"github.com/osoy/osoy/common/errors"
)

// UnsupportedCredentialTag marks errors for credential kinds the AuthCache
// cannot produce. Such errors are never retried.
var UnsupportedCredentialTag = errors.BoolTag{Key: errors.NewTagKey("unsupported credential kind")}

// ErrAgentRejected is returned when the ssh agent was already offered for a
// target and no key file exists to prompt a passphrase for.
var ErrAgentRejected = errors.New("ssh agent keys were rejected")

// CredentialKind is a set of credential kinds a remote accepts.
type CredentialKind uint8

const (
	// CredentialSSHKey is a private key, optionally passphrase protected.
	CredentialSSHKey CredentialKind = 1 << iota
	// CredentialUserPass is a user name and password.
	CredentialUserPass
)

func (k CredentialKind) String() string {
	switch k {
	case CredentialSSHKey:
		return "ssh-key"
	case CredentialUserPass:
		return "user-pass"
	case CredentialSSHKey | CredentialUserPass:
		return "ssh-key|user-pass"
	}
	return fmt.Sprintf("CredentialKind(%d)", uint8(k))
}

// AuthOptions configures an AuthCache.
type AuthOptions struct {
	// Prompter asks for missing or rejected secrets. Without one, any prompt
	// fails with ErrNoPrompter.
	Prompter Prompter

	// SSHKey is the private key offered to ssh remotes. When the file does
	// not exist the ssh agent is used instead.
	SSHKey string

	// Passphrase seeds the cached key passphrase.
	Passphrase string
}

// AuthCache hands out credentials to concurrent transfers.
//
// The first request for a target reuses the secret that worked, or was last
// entered, for any other target. Every further request for the same target
// means the previous secret was rejected, so the user is asked again and the
// answer replaces the cached secret.
type AuthCache struct {
	opts AuthOptions

	mu            sync.Mutex
	passphrase    string
	hasPassphrase bool
	user          string
	password      string
	hasPassword   bool
	tried         map[string]bool
}

// NewAuthCache returns an AuthCache using opts.
func NewAuthCache(opts AuthOptions) *AuthCache {
	return &AuthCache{
		opts:          opts,
		passphrase:    opts.Passphrase,
		hasPassphrase: opts.Passphrase != "",
		tried:         map[string]bool{},
	}
}

// Credentials returns credentials of one of kinds for target id.
//
// username is the user name offered by the remote address, if any.
func (c *AuthCache) Credentials(id, username string, kinds CredentialKind) (transport.AuthMethod, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	retry := c.tried[id]
	c.tried[id] = true

	switch {
	case kinds&CredentialSSHKey != 0:
		return c.sshKey(id, username, retry)
	case kinds&CredentialUserPass != 0:
		return c.userPass(id, username, retry)
	}
	return nil, errors.Reason("%s credentials requested for '%s'", kinds, id).Tag(UnsupportedCredentialTag).Err()
}

func (c *AuthCache) sshKey(id, username string, retry bool) (transport.AuthMethod, error) {
	_, err := os.Stat(c.opts.SSHKey)
	agent := errors.Is(err, fs.ErrNotExist)
	if agent && retry {
		return nil, errors.Annotate(ErrAgentRejected, "no key at %s", c.opts.SSHKey).Err()
	}

	if username == "" {
		if username, err = c.line(fmt.Sprintf("username for '%s':", id)); err != nil {
			return nil, err
		}
	}

	if agent {
		auth, err := gitssh.NewSSHAgentAuth(username)
		if err != nil {
			return nil, errors.Annotate(err, "no key at %s and no ssh agent", c.opts.SSHKey).Err()
		}
		return auth, nil
	}

	if retry || (!c.hasPassphrase && keyEncrypted(c.opts.SSHKey)) {
		if c.passphrase, err = c.secret(fmt.Sprintf("password for '%s':", c.opts.SSHKey)); err != nil {
			return nil, err
		}
		c.hasPassphrase = true
	}

	auth, err := gitssh.NewPublicKeysFromFile(username, c.opts.SSHKey, c.passphrase)
	if err != nil {
		return nil, errors.Annotate(err, "loading %s", c.opts.SSHKey).Err()
	}
	return auth, nil
}

func (c *AuthCache) userPass(id, username string, retry bool) (transport.AuthMethod, error) {
	if !retry && c.hasPassword && (username == "" || username == c.user) {
		return &githttp.BasicAuth{Username: c.user, Password: c.password}, nil
	}

	var err error
	if username == "" {
		if username, err = c.line(fmt.Sprintf("username for '%s':", id)); err != nil {
			return nil, err
		}
	}
	password, err := c.secret(fmt.Sprintf("password for '%s':", id))
	if err != nil {
		return nil, err
	}
	c.user, c.password, c.hasPassword = username, password, true
	return &githttp.BasicAuth{Username: username, Password: password}, nil
}

// Tried reports whether credentials were already handed out for id.
func (c *AuthCache) Tried(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tried[id]
}

// Forget clears the tried marker of id. The cached secrets are kept.
func (c *AuthCache) Forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tried, id)
}

func (c *AuthCache) line(prompt string) (string, error) {
	if c.opts.Prompter == nil {
		return "", ErrNoPrompter
	}
	return c.opts.Prompter.Line(prompt)
}

func (c *AuthCache) secret(prompt string) (string, error) {
	if c.opts.Prompter == nil {
		return "", ErrNoPrompter
	}
	return c.opts.Prompter.Secret(prompt)
}

// keyEncrypted reports whether the private key at path needs a passphrase.
func keyEncrypted(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	_, err = ssh.ParseRawPrivateKey(data)
	var missing *ssh.PassphraseMissingError
	return errors.As(err, &missing)
}
