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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKeys(t *testing.T) {
	t.Parallel()

	in := map[string]interface{}{
		"image_pull_policy": "Always",
		"service": map[string]interface{}{
			"cluster_ip":  "None",
			"annotations": map[string]interface{}{"my_annotation": "x"},
			"ports":       []interface{}{map[string]interface{}{"target_port": 80}},
		},
	}

	out := NormalizeSpec(in)

	assert.Equal(t, map[string]interface{}{
		"imagePullPolicy": "Always",
		"service": map[string]interface{}{
			"clusterIP":   "None",
			"annotations": map[string]interface{}{"my_annotation": "x"},
			"ports":       []interface{}{map[string]interface{}{"targetPort": 80}},
		},
	}, out)
	assert.Contains(t, in, "image_pull_policy", "input must not be modified")
}

func TestNormalizeKeys_CollisionsAreDeterministic(t *testing.T) {
	t.Parallel()

	in := map[string]interface{}{
		"targetPort":   8080,
		"target_port":  9090,
		"service_type": "NodePort",
	}

	for i := 0; i < 100; i++ {
		out := NormalizeSpec(in)
		require.Equal(t, 8080, out["targetPort"], "camelCase spelling wins")
		require.Equal(t, "NodePort", out["serviceType"])
		require.Len(t, out, 2)
	}
}

func TestPreferKey(t *testing.T) {
	t.Parallel()

	assert.True(t, preferKey("targetPort", "target_port"))
	assert.False(t, preferKey("target_port", "targetPort"))
	assert.True(t, preferKey("a_b", "b_a"))
	assert.False(t, preferKey("b_a", "a_b"))
}

func TestNormalizeSpec_Nil(t *testing.T) {
	t.Parallel()

	assert.Equal(t, map[string]interface{}{}, NormalizeSpec(nil))
}

func TestNormalize_SnakeCaseUserKeyOverridesDefault(t *testing.T) {
	t.Parallel()

	d := NewDefaulter(StaticSource{"worker": `
spec:
  container:
    imagePullPolicy: IfNotPresent
  service:
    target_port: 80
`})
	user := map[string]interface{}{
		"container": map[string]interface{}{"image_pull_policy": "Always"},
		"service":   map[string]interface{}{"targetPort": 8080},
	}

	for i := 0; i < 100; i++ {
		got, err := d.Normalize(context.Background(), "Worker", "web", user)
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"imagePullPolicy": "Always"}, got["container"])
		assert.Equal(t, map[string]interface{}{"targetPort": 8080}, got["service"])
	}
}
