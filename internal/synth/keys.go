// MIT License
//
// Copyright (c) 2025 Mike Lane
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package synth

import (
	"encoding/json"

	sigsjson "sigs.k8s.io/json"

	"github.com/mikelane/appd/internal/defaults"
)

// normalizeSpec converts snake_case keys to camelCase.
func normalizeSpec(spec map[string]interface{}) map[string]interface{} {
	return defaults.NormalizeSpec(spec)
}

// decodeStrict decodes value into out, rejecting unknown and duplicate
// fields.
func decodeStrict(kind, field string, value interface{}, out interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fieldError(kind, field, "not serializable: %w", err)
	}

	strictErrs, err := sigsjson.UnmarshalStrict(raw, out, sigsjson.DisallowUnknownFields, sigsjson.DisallowDuplicateFields)
	if err != nil {
		return &SynthesisError{Kind: kind, Field: field, Err: err}
	}
	if len(strictErrs) > 0 {
		return &SynthesisError{Kind: kind, Field: field, Err: strictErrs[0]}
	}
	return nil
}

// decodeKey decodes spec[key] into out when the key is present and non-null.
func decodeKey(kind string, spec map[string]interface{}, key string, out interface{}) error {
	value, ok := spec[key]
	if !ok || value == nil {
		return nil
	}
	return decodeStrict(kind, key, value, out)
}

// decodeSubtree decodes spec[key] into out. A key set to true or null
// requests the kind with every field defaulted.
func decodeSubtree(kind string, spec map[string]interface{}, key string, out interface{}) error {
	switch v := spec[key].(type) {
	case nil, bool:
		return nil
	case map[string]interface{}:
		return decodeStrict(kind, key, v, out)
	default:
		return fieldError(kind, key, "must be a mapping, got %T", v)
	}
}

// has reports whether the spec requests the optional kind stored under key.
// An explicit false opts out.
func has(spec map[string]interface{}, key string) bool {
	v, ok := spec[key]
	if !ok {
		return false
	}
	if b, isBool := v.(bool); isBool {
		return b
	}
	return true
}

// Has reports whether spec requests the optional kind stored under key.
func Has(spec map[string]interface{}, key string) bool {
	return has(normalizeSpec(spec), key)
}
