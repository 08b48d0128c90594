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

package adapter

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/client/interceptor"
)

func deployment(replicas int32) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "shop", Labels: map[string]string{"app": "web"}},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To(replicas),
			Selector: &metav1.LabelSelector{MatchLabels: map[string]string{"app": "web"}},
		},
	}
}

func TestClient_CreateReadPatchDelete(t *testing.T) {
	ctx := context.Background()
	c := New(fake.NewClientBuilder().Build())

	require.NoError(t, c.Create(ctx, deployment(3)))

	live := &appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "shop"}}
	require.NoError(t, c.Read(ctx, live))
	assert.Equal(t, int32(3), *live.Spec.Replicas)

	require.NoError(t, c.Patch(ctx, deployment(5)))
	require.NoError(t, c.Read(ctx, live))
	assert.Equal(t, int32(5), *live.Spec.Replicas)
	assert.Equal(t, "web", live.Labels["app"])

	require.NoError(t, c.Delete(ctx, &appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "shop"}}))
	err := c.Read(ctx, live)
	assert.True(t, IsNotFound(err), "read after delete: %v", err)
}

func TestClient_PatchLeavesUnsetFields(t *testing.T) {
	ctx := context.Background()
	existing := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "web-config", Namespace: "shop", Annotations: map[string]string{"owner": "ops"}},
		Data:       map[string]string{"a": "1"},
	}
	c := New(fake.NewClientBuilder().WithObjects(existing).Build())

	desired := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "web-config", Namespace: "shop", Labels: map[string]string{"app": "web"}},
		Data:       map[string]string{"b": "2"},
	}
	require.NoError(t, c.Patch(ctx, desired))

	live := &corev1.ConfigMap{ObjectMeta: metav1.ObjectMeta{Name: "web-config", Namespace: "shop"}}
	require.NoError(t, c.Read(ctx, live))
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, live.Data)
	assert.Equal(t, "ops", live.Annotations["owner"])
	assert.Equal(t, "web", live.Labels["app"])
}

func TestClient_ErrorStatus(t *testing.T) {
	ctx := context.Background()
	c := New(fake.NewClientBuilder().WithObjects(deployment(1)).Build())

	err := c.Create(ctx, deployment(1))
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, OpCreate, apiErr.Op)
	assert.Equal(t, "Deployment", apiErr.Kind)
	assert.Equal(t, "shop", apiErr.Namespace)
	assert.Equal(t, "web", apiErr.Name)
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	missing := &corev1.Service{ObjectMeta: metav1.ObjectMeta{Name: "web-svc", Namespace: "shop"}}
	assert.True(t, IsNotFound(c.Patch(ctx, missing)))
	assert.True(t, IsNotFound(c.Delete(ctx, missing)))
}

func TestClient_InjectedFailures(t *testing.T) {
	tests := map[string]struct {
		err  error
		want int
	}{
		"forbidden": {
			err:  apierrors.NewForbidden(schema.GroupResource{Resource: "deployments"}, "web", errors.New("rbac")),
			want: http.StatusForbidden,
		},
		"server error": {
			err:  apierrors.NewInternalError(errors.New("etcd unavailable")),
			want: http.StatusInternalServerError,
		},
		"deadline": {
			err:  context.DeadlineExceeded,
			want: http.StatusGatewayTimeout,
		},
		"plain error": {
			err:  errors.New("connection refused"),
			want: http.StatusInternalServerError,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cl := fake.NewClientBuilder().WithInterceptorFuncs(interceptor.Funcs{
				Get: func(context.Context, client.WithWatch, client.ObjectKey, client.Object, ...client.GetOption) error {
					return tc.err
				},
			}).Build()

			err := New(cl).Read(context.Background(), deployment(1))
			require.Error(t, err)
			assert.Equal(t, tc.want, StatusCode(err))
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	cl := fake.NewClientBuilder().WithInterceptorFuncs(interceptor.Funcs{
		Get: func(ctx context.Context, _ client.WithWatch, _ client.ObjectKey, _ client.Object, _ ...client.GetOption) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}).Build()

	err := New(cl, WithTimeout(10*time.Millisecond)).Read(context.Background(), deployment(1))
	assert.Equal(t, http.StatusGatewayTimeout, StatusCode(err))
}

func TestStatusCode_Nil(t *testing.T) {
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsConflict(nil))
}
