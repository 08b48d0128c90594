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

package defaults

import (
	"strings"

	"github.com/stoewer/go-strcase"
)

// opaqueKeys hold user data whose keys must not be rewritten.
var opaqueKeys = map[string]bool{
	"annotations":  true,
	"binaryData":   true,
	"data":         true,
	"labels":       true,
	"limits":       true,
	"matchLabels":  true,
	"nodeSelector": true,
	"requests":     true,
	"selector":     true,
	"stringData":   true,
}

// acronymKeys maps camelCase conversions to the Kubernetes spelling.
var acronymKeys = map[string]string{
	"clusterIp":      "clusterIP",
	"clusterIps":     "clusterIPs",
	"externalIps":    "externalIPs",
	"hostIp":         "hostIP",
	"loadBalancerIp": "loadBalancerIP",
}

func normalizeKey(key string) string {
	if !strings.Contains(key, "_") {
		return key
	}
	camel := strcase.LowerCamelCase(key)
	if fixed, ok := acronymKeys[camel]; ok {
		return fixed
	}
	return camel
}

// preferKey reports whether candidate should replace current when both
// normalize to the same key. A key already in camelCase wins; otherwise the
// lexically smaller key does.
func preferKey(candidate, current string) bool {
	candidateCamel := !strings.Contains(candidate, "_")
	currentCamel := !strings.Contains(current, "_")
	if candidateCamel != currentCamel {
		return candidateCamel
	}
	return candidate < current
}

// NormalizeKeys returns a copy of v with snake_case mapping keys converted
// to camelCase. Keys under opaqueKeys are copied as is. When a mapping holds
// both spellings of a key, the camelCase one is kept.
func NormalizeKeys(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		source := make(map[string]string, len(t))
		for key, value := range t {
			norm := normalizeKey(key)
			if prev, seen := source[norm]; seen && !preferKey(key, prev) {
				continue
			}
			source[norm] = key
			if opaqueKeys[norm] {
				out[norm] = copyValue(value)
				continue
			}
			out[norm] = NormalizeKeys(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = NormalizeKeys(item)
		}
		return out
	default:
		return v
	}
}

// NormalizeSpec is NormalizeKeys for a whole spec. A nil spec yields an
// empty mapping.
func NormalizeSpec(spec map[string]interface{}) map[string]interface{} {
	if spec == nil {
		return map[string]interface{}{}
	}
	return NormalizeKeys(spec).(map[string]interface{})
}
