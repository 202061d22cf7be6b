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

package logging

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// ErrorKey is a logging field key to use for errors.
const ErrorKey = "error"

// Fields maps string keys to arbitrary values.
//
// Fields can be added to a Context. Fields added to a Context augment those
// in the Context's parent Context, overriding duplicate keys. When Fields are
// added to a Context, they are copied internally for retention.
type Fields map[string]any

// Copy returns a copy of this Fields with the keys from other overlaid on top
// of this one's keys.
func (f Fields) Copy(other Fields) Fields {
	switch {
	case len(f) == 0 && len(other) == 0:
		return nil
	case len(other) == 0:
		return f
	}

	ret := make(Fields, len(f)+len(other))
	for k, v := range f {
		ret[k] = v
	}
	for k, v := range other {
		ret[k] = v
	}
	return ret
}

// String returns a string describing the contents of f in a sorted,
// deterministic order: `{key1: value1, key2: value2}`.
func (f Fields) String() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		v := f[k]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		parts[i] = fmt.Sprintf("%s: %#v", k, v)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Debugf is a shorthand method to log at Debug level with these fields.
func (f Fields) Debugf(ctx context.Context, fmt string, args ...any) {
	Get(SetFields(ctx, f)).LogCall(Debug, 1, fmt, args)
}

// Infof is a shorthand method to log at Info level with these fields.
func (f Fields) Infof(ctx context.Context, fmt string, args ...any) {
	Get(SetFields(ctx, f)).LogCall(Info, 1, fmt, args)
}

// Warningf is a shorthand method to log at Warning level with these fields.
func (f Fields) Warningf(ctx context.Context, fmt string, args ...any) {
	Get(SetFields(ctx, f)).LogCall(Warning, 1, fmt, args)
}

// Errorf is a shorthand method to log at Error level with these fields.
func (f Fields) Errorf(ctx context.Context, fmt string, args ...any) {
	Get(SetFields(ctx, f)).LogCall(Error, 1, fmt, args)
}

// SetFields adds the additional fields as context for the current Logger. The
// display of these fields depends on the implementation of the Logger. The
// new context will contain the combination of its current Fields, updated
// with the new ones (see Fields.Copy).
func SetFields(ctx context.Context, fields Fields) context.Context {
	return context.WithValue(ctx, fieldsKey, GetFields(ctx).Copy(fields))
}

// SetField is a convenience method for SetFields for a single key/value pair.
func SetField(ctx context.Context, key string, value any) context.Context {
	return SetFields(ctx, Fields{key: value})
}

// GetFields returns the current Fields.
//
// This method is used for logger implementations with the understanding that
// the returned fields must not be mutated.
func GetFields(ctx context.Context) Fields {
	if ret, ok := ctx.Value(fieldsKey).(Fields); ok {
		return ret
	}
	return nil
}
