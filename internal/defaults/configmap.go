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
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// ConfigMapSource reads documents from the keys of a ConfigMap, one key per
// kind ("app.yaml", "worker.yaml", ...).
type ConfigMapSource struct {
	reader client.Reader
	key    types.NamespacedName
}

// NewConfigMapSource creates a source reading the ConfigMap namespace/name.
// An uncached reader keeps edits visible on the next normalization.
func NewConfigMapSource(reader client.Reader, namespace, name string) *ConfigMapSource {
	return &ConfigMapSource{
		reader: reader,
		key:    types.NamespacedName{Namespace: namespace, Name: name},
	}
}

// Load implements Source.
func (s *ConfigMapSource) Load(ctx context.Context, kind string) ([]byte, error) {
	cm := &corev1.ConfigMap{}
	if err := s.reader.Get(ctx, s.key, cm); err != nil {
		if apierrors.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get defaults ConfigMap %s: %w", s.key, err)
	}

	for _, ext := range documentExtensions {
		if doc, ok := cm.Data[kind+ext]; ok {
			return []byte(doc), nil
		}
	}
	return nil, ErrNotFound
}
