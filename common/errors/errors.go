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

package errors

import (
	"errors"
)

// New returns an error with the supplied message, with optional tags applied.
func New(msg string, tags ...TagValueGenerator) error {
	if len(tags) == 0 {
		return errors.New(msg)
	}
	return Reason("%s", msg).Tag(tags...).Err()
}

// Is is a pass-through version of the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a pass-through version of the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}
