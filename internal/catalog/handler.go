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

package catalog

import (
	appsv1 "k8s.io/api/apps/v1"
	autoscalingv2 "k8s.io/api/autoscaling/v2"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/mikelane/appd/internal/drift"
	"github.com/mikelane/appd/internal/synth"
)

// Handler is everything the orchestrator needs to manage one kind.
type Handler struct {
	Kind Kind
	// Name is the Kubernetes kind name.
	Name string
	// SpecKey is the top-level spec key requesting the kind. Empty for the
	// workload and the Service, which every spec gets.
	SpecKey string
	// ChildName derives the child's name from the instance name.
	ChildName func(instance string) string
	// New returns an empty object of the kind, for reads and deletes.
	New        func() client.Object
	Synthesize synth.Func
	Drift      drift.Func
	// Requires lists the kinds that must be applied first when present.
	Requires []Kind
}

var workloads = []Kind{Deployment, StatefulSet}

var handlers = [numKinds]Handler{
	Deployment: {
		Kind:       Deployment,
		Name:       "Deployment",
		ChildName:  synth.DeploymentName,
		New:        func() client.Object { return &appsv1.Deployment{} },
		Synthesize: synth.Deployment,
		Drift:      drift.Workload,
	},
	StatefulSet: {
		Kind:       StatefulSet,
		Name:       "StatefulSet",
		SpecKey:    "stateful",
		ChildName:  synth.StatefulSetName,
		New:        func() client.Object { return &appsv1.StatefulSet{} },
		Synthesize: synth.StatefulSet,
		Drift:      drift.Workload,
	},
	Service: {
		Kind:       Service,
		Name:       "Service",
		ChildName:  synth.ServiceName,
		New:        func() client.Object { return &corev1.Service{} },
		Synthesize: synth.Service,
		Drift:      drift.Service,
		Requires:   workloads,
	},
	HorizontalPodAutoscaler: {
		Kind:       HorizontalPodAutoscaler,
		Name:       "HorizontalPodAutoscaler",
		SpecKey:    "hpa",
		ChildName:  synth.HPAName,
		New:        func() client.Object { return &autoscalingv2.HorizontalPodAutoscaler{} },
		Synthesize: synth.HorizontalPodAutoscaler,
		Drift:      drift.Metadata,
		Requires:   workloads,
	},
	ConfigMap: {
		Kind:       ConfigMap,
		Name:       "ConfigMap",
		SpecKey:    "configmap",
		ChildName:  synth.ConfigMapName,
		New:        func() client.Object { return &corev1.ConfigMap{} },
		Synthesize: synth.ConfigMap,
		Drift:      drift.Metadata,
		Requires:   []Kind{Service},
	},
	Secret: {
		Kind:       Secret,
		Name:       "Secret",
		SpecKey:    "secret",
		ChildName:  synth.SecretName,
		New:        func() client.Object { return &corev1.Secret{} },
		Synthesize: synth.Secret,
		Drift:      drift.Metadata,
		Requires:   []Kind{Service},
	},
	PersistentVolumeClaim: {
		Kind:       PersistentVolumeClaim,
		Name:       "PersistentVolumeClaim",
		SpecKey:    "pvc",
		ChildName:  synth.PVCName,
		New:        func() client.Object { return &corev1.PersistentVolumeClaim{} },
		Synthesize: synth.PersistentVolumeClaim,
		Drift:      drift.Metadata,
		Requires:   []Kind{Service},
	},
	Ingress: {
		Kind:       Ingress,
		Name:       "Ingress",
		SpecKey:    "ingress",
		ChildName:  synth.IngressName,
		New:        func() client.Object { return &networkingv1.Ingress{} },
		Synthesize: synth.Ingress,
		Drift:      drift.Metadata,
		Requires:   []Kind{Service},
	},
	Pod: {
		Kind:       Pod,
		Name:       "Pod",
		SpecKey:    "pod",
		ChildName:  synth.PodName,
		New:        func() client.Object { return &corev1.Pod{} },
		Synthesize: synth.Pod,
		Drift:      drift.Metadata,
		Requires:   podDependencies,
	},
	Job: {
		Kind:       Job,
		Name:       "Job",
		SpecKey:    "job",
		ChildName:  synth.JobName,
		New:        func() client.Object { return &batchv1.Job{} },
		Synthesize: synth.Job,
		Drift:      drift.Metadata,
		Requires:   podDependencies,
	},
	CronJob: {
		Kind:       CronJob,
		Name:       "CronJob",
		SpecKey:    "cronjob",
		ChildName:  synth.CronJobName,
		New:        func() client.Object { return &batchv1.CronJob{} },
		Synthesize: synth.CronJob,
		Drift:      drift.Metadata,
		Requires:   podDependencies,
	},
}

var podDependencies = []Kind{ConfigMap, Secret, PersistentVolumeClaim, Service}

// All returns every handler in declaration order.
func All() []Handler {
	out := make([]Handler, len(handlers))
	copy(out, handlers[:])
	return out
}

// Requested reports whether spec asks for the kind of h. The workload kind
// matching the spec and the Service are always requested.
func (h Handler) Requested(spec map[string]interface{}) bool {
	switch h.Kind {
	case Deployment:
		return !synth.IsStateful(spec)
	case StatefulSet:
		return synth.IsStateful(spec)
	case Service:
		return true
	default:
		return synth.Has(spec, h.SpecKey)
	}
}
