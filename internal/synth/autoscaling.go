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

	autoscalingv2 "k8s.io/api/autoscaling/v2"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
)

const (
	defaultMinReplicas    int32 = 1
	defaultMaxReplicas    int32 = 5
	defaultCPUUtilization int32 = 50
)

type hpaInput struct {
	MinReplicas    *int32 `json:"minReplicas,omitempty"`
	MaxReplicas    *int32 `json:"maxReplicas,omitempty"`
	CPUUtilization *int32 `json:"cpuUtilization,omitempty"`
	// TargetCPUUtilizationPercentage is the autoscaling/v1 spelling of CPUUtilization.
	TargetCPUUtilizationPercentage *int32 `json:"targetCPUUtilizationPercentage,omitempty"`
}

// HorizontalPodAutoscaler builds the autoscaler requested by the "hpa" key.
// It targets whichever workload kind the spec produces.
func HorizontalPodAutoscaler(_ context.Context, in Input) (*Descriptor, error) {
	const kind = "HorizontalPodAutoscaler"
	spec := normalizeSpec(in.Spec)

	var hpa hpaInput
	if err := decodeSubtree(kind, spec, "hpa", &hpa); err != nil {
		return nil, err
	}

	minReplicas := ptr.Deref(hpa.MinReplicas, defaultMinReplicas)
	maxReplicas := ptr.Deref(hpa.MaxReplicas, defaultMaxReplicas)
	target := ptr.Deref(hpa.CPUUtilization, ptr.Deref(hpa.TargetCPUUtilizationPercentage, defaultCPUUtilization))

	if minReplicas < 1 {
		return nil, &ValidationError{Kind: kind, Field: "hpa.minReplicas", Reason: "must be at least 1"}
	}
	if maxReplicas < minReplicas {
		return nil, &ValidationError{
			Kind:   kind,
			Field:  "hpa.maxReplicas",
			Reason: fmt.Sprintf("must be >= minReplicas (%d), got %d", minReplicas, maxReplicas),
		}
	}
	if target < 1 {
		return nil, &ValidationError{Kind: kind, Field: "hpa.cpuUtilization", Reason: "must be a positive percentage"}
	}

	scaleTarget := autoscalingv2.CrossVersionObjectReference{
		APIVersion: "apps/v1",
		Kind:       "Deployment",
		Name:       DeploymentName(in.Name),
	}
	if IsStateful(spec) {
		scaleTarget.Kind = "StatefulSet"
		scaleTarget.Name = StatefulSetName(in.Name)
	}

	autoscaler := &autoscalingv2.HorizontalPodAutoscaler{
		TypeMeta:   metav1.TypeMeta{APIVersion: "autoscaling/v2", Kind: kind},
		ObjectMeta: objectMeta(HPAName(in.Name), in.Namespace, in.Name, nil),
		Spec: autoscalingv2.HorizontalPodAutoscalerSpec{
			ScaleTargetRef: scaleTarget,
			MinReplicas:    ptr.To(minReplicas),
			MaxReplicas:    maxReplicas,
			Metrics: []autoscalingv2.MetricSpec{{
				Type: autoscalingv2.ResourceMetricSourceType,
				Resource: &autoscalingv2.ResourceMetricSource{
					Name: corev1.ResourceCPU,
					Target: autoscalingv2.MetricTarget{
						Type:               autoscalingv2.UtilizationMetricType,
						AverageUtilization: ptr.To(target),
					},
				},
			}},
		},
	}
	return newDescriptor(kind, autoscaler, nil), nil
}
