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

// Package transfer runs clone and pull operations against remote git
// repositories concurrently.
//
// A Scheduler admits at most a fixed number of Tasks at a time and reports
// their progress and completion as a single stream of Events. Progress of
// all running transfers is summed on a shared Board, and credentials are
// served by a shared AuthCache which re-prompts a target whose previous
// secret was rejected.
package transfer
