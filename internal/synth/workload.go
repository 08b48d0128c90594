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

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
)

type statefulInput struct {
	ServiceName          string                           `json:"serviceName,omitempty"`
	PodManagementPolicy  appsv1.PodManagementPolicyType   `json:"podManagementPolicy,omitempty"`
	VolumeClaimTemplates []corev1.PersistentVolumeClaim   `json:"volumeClaimTemplates,omitempty"`
	UpdateStrategy       *appsv1.StatefulSetUpdateStrategy `json:"updateStrategy,omitempty"`
}

// IsStateful reports whether the normalized spec asks for a StatefulSet
// instead of a Deployment.
func IsStateful(spec map[string]interface{}) bool {
	return has(spec, "stateful")
}

func replicas(kind string, spec map[string]interface{}) (int32, error) {
	var n *int32
	if err := decodeKey(kind, spec, "replicas", &n); err != nil {
		return 0, err
	}
	if n == nil {
		return DefaultReplicas, nil
	}
	if *n < 0 {
		return 0, &ValidationError{Kind: kind, Field: "replicas", Reason: "must not be negative"}
	}
	return *n, nil
}

func podTemplate(instance string, spec corev1.PodSpec) corev1.PodTemplateSpec {
	return corev1.PodTemplateSpec{
		ObjectMeta: metav1.ObjectMeta{Labels: Labels(instance)},
		Spec:       spec,
	}
}

// Deployment builds the primary workload of a stateless application.
func Deployment(ctx context.Context, in Input) (*Descriptor, error) {
	const kind = "Deployment"
	spec := normalizeSpec(in.Spec)

	pod, err := decodeWorkloadPod(kind, spec)
	if err != nil {
		return nil, err
	}
	count, err := replicas(kind, spec)
	if err != nil {
		return nil, err
	}
	podSpec, warnings, err := buildPodSpec(ctx, kind, pod, in.Name)
	if err != nil {
		return nil, err
	}

	deployment := &appsv1.Deployment{
		TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: kind},
		ObjectMeta: objectMeta(DeploymentName(in.Name), in.Namespace, in.Name, nil),
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To(count),
			Selector: &metav1.LabelSelector{MatchLabels: SelectorLabels(in.Name)},
			Template: podTemplate(in.Name, podSpec),
		},
	}
	return newDescriptor(kind, deployment, warnings), nil
}

// StatefulSet builds the primary workload when the spec has a "stateful"
// key. "stateful" may be a mapping of StatefulSet options or just true.
func StatefulSet(ctx context.Context, in Input) (*Descriptor, error) {
	const kind = "StatefulSet"
	spec := normalizeSpec(in.Spec)

	var opts statefulInput
	switch v := spec["stateful"].(type) {
	case nil, bool:
	case map[string]interface{}:
		if err := decodeStrict(kind, "stateful", v, &opts); err != nil {
			return nil, err
		}
	default:
		return nil, fieldError(kind, "stateful", "must be a mapping or a boolean, got %T", v)
	}

	pod, err := decodeWorkloadPod(kind, spec)
	if err != nil {
		return nil, err
	}
	count, err := replicas(kind, spec)
	if err != nil {
		return nil, err
	}

	claims := make([]string, 0, len(opts.VolumeClaimTemplates))
	for i := range opts.VolumeClaimTemplates {
		claims = append(claims, opts.VolumeClaimTemplates[i].Name)
	}
	podSpec, warnings, err := buildPodSpec(ctx, kind, pod, in.Name, claims...)
	if err != nil {
		return nil, err
	}

	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = ServiceName(in.Name)
	}

	sts := &appsv1.StatefulSet{
		TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: kind},
		ObjectMeta: objectMeta(StatefulSetName(in.Name), in.Namespace, in.Name, nil),
		Spec: appsv1.StatefulSetSpec{
			Replicas:             ptr.To(count),
			Selector:             &metav1.LabelSelector{MatchLabels: SelectorLabels(in.Name)},
			Template:             podTemplate(in.Name, podSpec),
			ServiceName:          serviceName,
			PodManagementPolicy:  opts.PodManagementPolicy,
			VolumeClaimTemplates: opts.VolumeClaimTemplates,
		},
	}
	if opts.UpdateStrategy != nil {
		sts.Spec.UpdateStrategy = *opts.UpdateStrategy
	}
	return newDescriptor(kind, sts, warnings), nil
}
