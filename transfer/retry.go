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
	"crypto/x509"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"golang.org/x/crypto/ssh"

	"github.com/osoy/osoy/common/errors"
	"github.com/osoy/osoy/common/logging"
)

// DefaultMaxAuthAttempts is how many credentials a task tries before giving
// up on a remote.
const DefaultMaxAuthAttempts = 3

// credentialKinds returns what ep may authenticate with. Local and
// anonymous git remotes take none.
func credentialKinds(ep *transport.Endpoint) CredentialKind {
	switch ep.Protocol {
	case "ssh":
		return CredentialSSHKey
	case "http", "https":
		return CredentialUserPass
	}
	return 0
}

// isAuthError reports whether err means the credentials were wrong.
func isAuthError(err error) bool {
	return errors.Any(err, func(err error) bool {
		switch err {
		case transport.ErrAuthenticationRequired, transport.ErrAuthorizationFailed, x509.IncorrectPasswordError:
			return true
		}
		if _, ok := err.(*ssh.PassphraseMissingError); ok {
			return true
		}
		return strings.Contains(err.Error(), "unable to authenticate")
	})
}

// authenticate runs op against ep, asking sess for new credentials each
// time the remote rejects the previous ones, at most maxAttempts times.
//
// Ssh remotes get credentials up front. Http remotes are tried anonymously
// first.
func authenticate(sess *Session, ep *transport.Endpoint, maxAttempts int, op func(transport.AuthMethod) error) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAuthAttempts
	}
	kinds := credentialKinds(ep)
	needAuth := kinds == CredentialSSHKey
	asked := 0
	for {
		var auth transport.AuthMethod
		if needAuth {
			var err error
			auth, err = sess.Credentials(ep.User, kinds)
			asked++
			if err != nil {
				if isAuthError(err) && asked < maxAttempts {
					logging.Warningf(sess.ctx, "Could not use credentials: %s", err)
					continue
				}
				return err
			}
		}

		err := op(auth)
		if err == nil || kinds == 0 || !isAuthError(err) {
			return err
		}
		if asked >= maxAttempts {
			return errors.Annotate(err, "giving up after %d attempts", asked).Err()
		}
		logging.Debugf(sess.ctx, "Authentication to %s failed, retrying: %s", ep.Host, err)
		needAuth = true
	}
}
