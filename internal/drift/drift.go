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

// Package drift decides whether a live child resource has diverged from the
// state the synthesizer wants for it.
//
// Every kind gets the metadata check: live labels and annotations must
// contain the desired ones. Workloads and Services add their own checks and
// the results are ORed, so any single divergent field is drift.
package drift

import (
	"maps"
	"slices"
	"strconv"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Field names reported in a Verdict.
const (
	FieldLabels      = "metadata.labels"
	FieldAnnotations = "metadata.annotations"
	FieldReplicas    = "spec.replicas"
	FieldSelector    = "spec.selector"
	FieldPorts       = "spec.ports"
)

// Verdict is the outcome of comparing a live object to a desired one.
type Verdict struct {
	Drifted bool
	// Fields lists the checked fields that differ, in check order.
	Fields []string
}

func (v *Verdict) mark(field string) {
	v.Drifted = true
	v.Fields = append(v.Fields, field)
}

func (v Verdict) or(other Verdict) Verdict {
	for _, f := range other.Fields {
		v.mark(f)
	}
	return v
}

// Func compares a live object against the desired one.
type Func func(live, desired client.Object) Verdict

// Metadata reports drift when the live labels or annotations are missing a
// desired entry or carry a different value for it.
func Metadata(live, desired client.Object) Verdict {
	var v Verdict
	if !superset(live.GetLabels(), desired.GetLabels()) {
		v.mark(FieldLabels)
	}
	if !superset(live.GetAnnotations(), desired.GetAnnotations()) {
		v.mark(FieldAnnotations)
	}
	return v
}

// Workload adds the replica check for Deployments and StatefulSets: the
// desired replica count must equal the live ready count, so a rollout in
// progress still counts as drift.
func Workload(live, desired client.Object) Verdict {
	v := Metadata(live, desired)

	want, wantOK := desiredReplicas(desired)
	ready, readyOK := readyReplicas(live)
	if !wantOK || !readyOK {
		return v
	}
	if want != ready {
		v.mark(FieldReplicas)
	}
	return v
}

// Service adds the selector and port checks. Ports are compared as a sorted
// set of "port:targetPort" pairs, ignoring list order.
func Service(live, desired client.Object) Verdict {
	v := Metadata(live, desired)

	liveSvc, ok := live.(*corev1.Service)
	if !ok {
		return v
	}
	desiredSvc, ok := desired.(*corev1.Service)
	if !ok {
		return v
	}

	var extra Verdict
	if !maps.Equal(liveSvc.Spec.Selector, desiredSvc.Spec.Selector) {
		extra.mark(FieldSelector)
	}
	if !slices.Equal(portPairs(liveSvc.Spec.Ports), portPairs(desiredSvc.Spec.Ports)) {
		extra.mark(FieldPorts)
	}
	return v.or(extra)
}

func desiredReplicas(obj client.Object) (int32, bool) {
	var replicas *int32
	switch o := obj.(type) {
	case *appsv1.Deployment:
		replicas = o.Spec.Replicas
	case *appsv1.StatefulSet:
		replicas = o.Spec.Replicas
	default:
		return 0, false
	}
	if replicas == nil {
		return 1, true
	}
	return *replicas, true
}

func readyReplicas(obj client.Object) (int32, bool) {
	switch o := obj.(type) {
	case *appsv1.Deployment:
		return o.Status.ReadyReplicas, true
	case *appsv1.StatefulSet:
		return o.Status.ReadyReplicas, true
	default:
		return 0, false
	}
}

func superset(have, want map[string]string) bool {
	for k, v := range want {
		if got, ok := have[k]; !ok || got != v {
			return false
		}
	}
	return true
}

func portPairs(ports []corev1.ServicePort) []string {
	pairs := make([]string, 0, len(ports))
	for _, p := range ports {
		target := p.TargetPort.String()
		if target == "0" || target == "" {
			// The API server defaults an empty targetPort to the port.
			target = strconv.Itoa(int(p.Port))
		}
		pairs = append(pairs, strconv.Itoa(int(p.Port))+":"+target)
	}
	slices.Sort(pairs)
	return pairs
}
