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

type (
	tagDescription struct {
		description string
	}

	// TagKey objects are used for applying tags and finding tags/values in
	// errors. See NewTagKey for details.
	TagKey *tagDescription

	// TagValue represents a (tag, value) to be used with Annotator.Tag, or may
	// be applied to an error directly with the Apply method.
	TagValue struct {
		Key   TagKey
		Value any
	}

	// TagValueGenerator generates (TagKey, value) pairs, for use with
	// Annotator.Tag and New.
	TagValueGenerator interface {
		GenerateErrorTagValue() TagValue
	}
)

// NewTagKey creates a new TagKey.
//
// Use this with your own custom tag implementation, or wrap it in a BoolTag.
func NewTagKey(description string) TagKey {
	return &tagDescription{description}
}

// TagKeyDescription returns the description the key was created with.
func TagKeyDescription(k TagKey) string {
	if k == nil {
		return ""
	}
	return k.description
}

// GenerateErrorTagValue implements TagValueGenerator.
func (t TagValue) GenerateErrorTagValue() TagValue { return t }

// Apply applies this tag value (key+value) directly to the error. This is
// a shortcut for `errors.Annotate(err, "").Tag(t).Err()`.
func (t TagValue) Apply(err error) error {
	return Annotate(err, "").Tag(t).Err()
}

// TagValueIn retrieves the value associated with the key from the error, and
// a boolean indicating if the tag was present at all.
//
// The outermost annotation wins when the same key was applied several times.
func TagValueIn(t TagKey, err error) (value any, ok bool) {
	Walk(err, func(err error) bool {
		if ae, isAE := err.(*annotatedError); isAE {
			if value, ok = ae.tags[t]; ok {
				return false
			}
		}
		return true
	})
	return
}

// BoolTag is an error tag implementation which can be used to mark an error
// as belonging to some class.
type BoolTag struct {
	Key TagKey
}

// GenerateErrorTagValue implements TagValueGenerator.
func (b BoolTag) GenerateErrorTagValue() TagValue {
	return TagValue{Key: b.Key, Value: true}
}

func (b BoolTag) String() string { return TagKeyDescription(b.Key) }

// Apply tags err with this tag.
func (b BoolTag) Apply(err error) error {
	return b.GenerateErrorTagValue().Apply(err)
}

// In returns true iff the error (or anything it wraps) carries this tag with
// a true value.
func (b BoolTag) In(err error) bool {
	v, ok := TagValueIn(b.Key, err)
	if !ok {
		return false
	}
	return v.(bool)
}
