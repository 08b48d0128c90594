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

package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"
)

func labels() map[string]string {
	return map[string]string{"app": "web", "app.kubernetes.io/managed-by": "appd"}
}

func deployment(replicas *int32, ready int32) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "shop", Labels: labels()},
		Spec:       appsv1.DeploymentSpec{Replicas: replicas},
		Status:     appsv1.DeploymentStatus{ReadyReplicas: ready},
	}
}

func service(selector map[string]string, ports ...corev1.ServicePort) *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: "web-svc", Namespace: "shop", Labels: labels()},
		Spec:       corev1.ServiceSpec{Selector: selector, Ports: ports},
	}
}

func port(p int32, target intstr.IntOrString) corev1.ServicePort {
	return corev1.ServicePort{Port: p, TargetPort: target}
}

func TestMetadata(t *testing.T) {
	tests := map[string]struct {
		live       metav1.ObjectMeta
		wantFields []string
	}{
		"equal": {
			live: metav1.ObjectMeta{Labels: labels()},
		},
		"live superset": {
			live: metav1.ObjectMeta{
				Labels:      map[string]string{"app": "web", "app.kubernetes.io/managed-by": "appd", "extra": "x"},
				Annotations: map[string]string{"deployment.kubernetes.io/revision": "3"},
			},
		},
		"label missing": {
			live:       metav1.ObjectMeta{Labels: map[string]string{"app": "web"}},
			wantFields: []string{FieldLabels},
		},
		"label value differs": {
			live:       metav1.ObjectMeta{Labels: map[string]string{"app": "api", "app.kubernetes.io/managed-by": "appd"}},
			wantFields: []string{FieldLabels},
		},
	}

	desired := &corev1.ConfigMap{ObjectMeta: metav1.ObjectMeta{Labels: labels()}}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			v := Metadata(&corev1.ConfigMap{ObjectMeta: tc.live}, desired)
			assert.Equal(t, len(tc.wantFields) > 0, v.Drifted)
			assert.Equal(t, tc.wantFields, v.Fields)
		})
	}
}

func TestMetadata_Annotations(t *testing.T) {
	desired := &corev1.Service{ObjectMeta: metav1.ObjectMeta{Annotations: map[string]string{"team": "shop"}}}

	v := Metadata(&corev1.Service{}, desired)
	assert.True(t, v.Drifted)
	assert.Equal(t, []string{FieldAnnotations}, v.Fields)
}

func TestWorkload(t *testing.T) {
	tests := map[string]struct {
		live    *appsv1.Deployment
		desired *appsv1.Deployment
		drifted bool
	}{
		"converged": {
			live:    deployment(ptr.To[int32](3), 3),
			desired: deployment(ptr.To[int32](3), 0),
		},
		"ready below desired": {
			live:    deployment(ptr.To[int32](3), 2),
			desired: deployment(ptr.To[int32](3), 0),
			drifted: true,
		},
		"live spec matches but rollout not ready": {
			live:    deployment(ptr.To[int32](5), 3),
			desired: deployment(ptr.To[int32](5), 0),
			drifted: true,
		},
		"nil desired replicas means one": {
			live:    deployment(nil, 1),
			desired: deployment(nil, 0),
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			v := Workload(tc.live, tc.desired)
			assert.Equal(t, tc.drifted, v.Drifted)
			if tc.drifted {
				assert.Equal(t, []string{FieldReplicas}, v.Fields)
			}
		})
	}
}

func TestWorkload_StatefulSet(t *testing.T) {
	live := &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{Labels: labels()},
		Status:     appsv1.StatefulSetStatus{ReadyReplicas: 1},
	}
	desired := &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{Labels: labels()},
		Spec:       appsv1.StatefulSetSpec{Replicas: ptr.To[int32](2)},
	}

	assert.True(t, Workload(live, desired).Drifted)

	live.Status.ReadyReplicas = 2
	assert.False(t, Workload(live, desired).Drifted)
}

func TestWorkload_CombinesMetadata(t *testing.T) {
	live := deployment(ptr.To[int32](2), 1)
	live.Labels = nil

	v := Workload(live, deployment(ptr.To[int32](2), 0))
	assert.True(t, v.Drifted)
	assert.Equal(t, []string{FieldLabels, FieldReplicas}, v.Fields)
}

func TestService(t *testing.T) {
	selector := map[string]string{"app": "web"}
	desired := service(selector, port(80, intstr.FromInt32(8080)), port(443, intstr.FromInt32(8443)))

	tests := map[string]struct {
		live       *corev1.Service
		wantFields []string
	}{
		"converged": {
			live: service(selector, port(80, intstr.FromInt32(8080)), port(443, intstr.FromInt32(8443))),
		},
		"port order ignored": {
			live: service(selector, port(443, intstr.FromInt32(8443)), port(80, intstr.FromInt32(8080))),
		},
		"selector differs": {
			live:       service(map[string]string{"app": "api"}, port(80, intstr.FromInt32(8080)), port(443, intstr.FromInt32(8443))),
			wantFields: []string{FieldSelector},
		},
		"selector has extra key": {
			live:       service(map[string]string{"app": "web", "tier": "x"}, port(80, intstr.FromInt32(8080)), port(443, intstr.FromInt32(8443))),
			wantFields: []string{FieldSelector},
		},
		"target port differs": {
			live:       service(selector, port(80, intstr.FromInt32(80)), port(443, intstr.FromInt32(8443))),
			wantFields: []string{FieldPorts},
		},
		"port removed": {
			live:       service(selector, port(80, intstr.FromInt32(8080))),
			wantFields: []string{FieldPorts},
		},
		"everything differs": {
			live: &corev1.Service{
				Spec: corev1.ServiceSpec{Selector: map[string]string{"app": "api"}},
			},
			wantFields: []string{FieldLabels, FieldSelector, FieldPorts},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			v := Service(tc.live, desired)
			assert.Equal(t, len(tc.wantFields) > 0, v.Drifted)
			assert.Equal(t, tc.wantFields, v.Fields)
		})
	}
}

func TestService_DefaultedTargetPort(t *testing.T) {
	selector := map[string]string{"app": "web"}
	live := service(selector, port(80, intstr.IntOrString{}))
	desired := service(selector, port(80, intstr.FromInt32(80)))

	assert.False(t, Service(live, desired).Drifted)
}
