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

package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	hookTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appd",
			Subsystem: "orchestrator",
			Name:      "hook_total",
			Help:      "Hook invocations by hook and result",
		},
		[]string{"hook", "result"},
	)

	hookDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "appd",
			Subsystem: "orchestrator",
			Name:      "hook_duration_seconds",
			Help:      "Duration of a hook in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~10s
		},
		[]string{"hook"},
	)

	resourceActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appd",
			Subsystem: "orchestrator",
			Name:      "resource_actions_total",
			Help:      "Actions taken on child resources by kind and action",
		},
		[]string{"kind", "action"},
	)

	driftDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appd",
			Subsystem: "orchestrator",
			Name:      "drift_detected_total",
			Help:      "Child resources found drifted by kind and field",
		},
		[]string{"kind", "field"},
	)
)

func init() {
	metrics.Registry.MustRegister(hookTotal, hookDuration, resourceActions, driftDetected)
}

func recordHook(hook Hook, result string, seconds float64) {
	hookTotal.WithLabelValues(string(hook), result).Inc()
	hookDuration.WithLabelValues(string(hook)).Observe(seconds)
}

func recordOutcome(o Outcome) {
	resourceActions.WithLabelValues(o.Kind, string(o.Action)).Inc()
	for _, field := range o.Drift {
		driftDetected.WithLabelValues(o.Kind, field).Inc()
	}
}
