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

// Package errors is an augmented replacement package for the standard
// "errors" package.
//
// It adds three things on top of the standard library:
//
//   - Annotate and Reason, to attach a human readable reason to an error while
//     keeping the original error reachable through errors.Is and errors.As;
//   - tags (see BoolTag), which are values attached to an error that survive
//     any amount of further annotation and can be queried later;
//   - MultiError, a slice of errors collected by loops that keep going after
//     a failure.
//
// The standard functions Is and As are re-exported so callers need to import
// only this package.
package errors
