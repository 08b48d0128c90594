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
	"context"
	"fmt"
	"sort"
	"strconv"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

type configMapInput struct {
	Data map[string]interface{} `json:"data,omitempty"`
}

type secretInput struct {
	Data map[string]interface{} `json:"data,omitempty"`
	Type corev1.SecretType      `json:"type,omitempty"`
}

// stringData converts scalar data values to strings; YAML authors often
// write ports and flags unquoted.
func stringData(kind, field string, in map[string]interface{}) (map[string]string, error) {
	out := make(map[string]string, len(in))
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch v := in[k].(type) {
		case string:
			out[k] = v
		case bool:
			out[k] = strconv.FormatBool(v)
		case int64:
			out[k] = strconv.FormatInt(v, 10)
		case float64:
			out[k] = strconv.FormatFloat(v, 'f', -1, 64)
		case nil:
			out[k] = ""
		default:
			return nil, fieldError(kind, fmt.Sprintf("%s.%s", field, k), "must be a scalar, got %T", v)
		}
	}
	return out, nil
}

// ConfigMap builds the ConfigMap requested by the "configmap" key.
func ConfigMap(_ context.Context, in Input) (*Descriptor, error) {
	const kind = "ConfigMap"
	spec := normalizeSpec(in.Spec)

	var cfg configMapInput
	if err := decodeSubtree(kind, spec, "configmap", &cfg); err != nil {
		return nil, err
	}
	data, err := stringData(kind, "configmap.data", cfg.Data)
	if err != nil {
		return nil, err
	}

	cm := &corev1.ConfigMap{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: kind},
		ObjectMeta: objectMeta(ConfigMapName(in.Name), in.Namespace, in.Name, nil),
		Data:       data,
	}
	return newDescriptor(kind, cm, nil), nil
}

// Secret builds the Secret requested by the "secret" key. Values are
// written as stringData so the API server does the encoding.
func Secret(_ context.Context, in Input) (*Descriptor, error) {
	const kind = "Secret"
	spec := normalizeSpec(in.Spec)

	var sec secretInput
	if err := decodeSubtree(kind, spec, "secret", &sec); err != nil {
		return nil, err
	}
	data, err := stringData(kind, "secret.data", sec.Data)
	if err != nil {
		return nil, err
	}

	secretType := sec.Type
	if secretType == "" {
		secretType = corev1.SecretTypeOpaque
	}

	secret := &corev1.Secret{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: kind},
		ObjectMeta: objectMeta(SecretName(in.Name), in.Namespace, in.Name, nil),
		StringData: data,
		Type:       secretType,
	}
	return newDescriptor(kind, secret, nil), nil
}
