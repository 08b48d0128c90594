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
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel/trace"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/mikelane/appd/internal/adapter"
	"github.com/mikelane/appd/internal/catalog"
	"github.com/mikelane/appd/internal/defaults"
	"github.com/mikelane/appd/internal/synth"
)

// Normalizer merges a user spec over the defaults of a kind.
type Normalizer interface {
	NormalizeWith(ctx context.Context, kind string, vars defaults.Vars, userSpec map[string]interface{}) (map[string]interface{}, error)
}

// Instance identifies the custom resource a pass runs for.
type Instance struct {
	// Kind is the custom resource kind; it selects the defaults document.
	Kind      string
	Name      string
	Namespace string
	Spec      map[string]interface{}
	// Owner, when set, becomes the controller reference of every child.
	Owner *metav1.OwnerReference
}

func (i Instance) vars() defaults.Vars {
	return defaults.Vars{"name": i.Name, "namespace": i.Namespace}
}

// Orchestrator sequences synthesis, drift checks and cluster calls.
type Orchestrator struct {
	normalizer Normalizer
	cluster    adapter.Cluster
}

// New creates an Orchestrator.
func New(normalizer Normalizer, cluster adapter.Cluster) *Orchestrator {
	return &Orchestrator{normalizer: normalizer, cluster: cluster}
}

// OnCreate creates every child the spec requests.
func (o *Orchestrator) OnCreate(ctx context.Context, inst Instance) (*Result, error) {
	return o.run(ctx, HookCreate, inst, o.create)
}

// OnUpdate patches every child the spec requests. A child that does not
// exist yet fails with a 404 and is created by the next OnReconcile.
func (o *Orchestrator) OnUpdate(ctx context.Context, inst Instance) (*Result, error) {
	return o.run(ctx, HookUpdate, inst, o.patch)
}

// OnReconcile converges every child the spec requests: missing children
// are created and drifted ones patched.
func (o *Orchestrator) OnReconcile(ctx context.Context, inst Instance) (*Result, error) {
	return o.run(ctx, HookReconcile, inst, o.converge)
}

// OnDelete deletes every kind in the catalog in reverse dependency order.
// The spec is not consulted.
func (o *Orchestrator) OnDelete(ctx context.Context, inst Instance) (*Result, error) {
	start := time.Now()
	ctx, span := startHookSpan(ctx, HookDelete, inst)
	logger := log.FromContext(ctx).WithValues("hook", HookDelete)
	ctx = log.IntoContext(ctx, logger)

	result := newResult(HookDelete)
	for _, h := range catalog.DeletionOrder() {
		obj := h.New()
		obj.SetName(h.ChildName(inst.Name))
		obj.SetNamespace(inst.Namespace)

		outcome := o.remove(ctx, h, obj)
		recordOutcome(outcome)
		result.add(outcome)
	}

	o.finish(logger, span, result, start)
	return result, nil
}

type step func(ctx context.Context, h catalog.Handler, desired *synth.Descriptor) Outcome

func (o *Orchestrator) run(ctx context.Context, hook Hook, inst Instance, apply step) (*Result, error) {
	start := time.Now()
	ctx, span := startHookSpan(ctx, hook, inst)
	logger := log.FromContext(ctx).WithValues("hook", hook)
	ctx = log.IntoContext(ctx, logger)

	spec, err := o.normalizer.NormalizeWith(ctx, inst.Kind, inst.vars(), inst.Spec)
	if err != nil {
		err = fmt.Errorf("failed to normalize spec of %s/%s: %w", inst.Namespace, inst.Name, err)
		recordHook(hook, StatusFailed, time.Since(start).Seconds())
		endSpan(span, err)
		return nil, err
	}

	plan, err := catalog.Plan(spec)
	if err != nil {
		err = fmt.Errorf("failed to plan children of %s/%s: %w", inst.Namespace, inst.Name, err)
		recordHook(hook, StatusFailed, time.Since(start).Seconds())
		endSpan(span, err)
		return nil, err
	}

	result := newResult(hook)
	input := synth.Input{Name: inst.Name, Namespace: inst.Namespace, Spec: spec}
	for _, h := range plan {
		outcome := o.each(ctx, h, input, inst.Owner, apply)
		recordOutcome(outcome)
		result.add(outcome)
	}

	o.finish(logger, span, result, start)
	return result, nil
}

// each builds one child and applies it. Build failures fail only this child.
func (o *Orchestrator) each(ctx context.Context, h catalog.Handler, input synth.Input, owner *metav1.OwnerReference, apply step) Outcome {
	name := h.ChildName(input.Name)
	ctx, span := startResourceSpan(ctx, h.Name, name)

	desired, err := h.Synthesize(ctx, input)
	if err != nil {
		log.FromContext(ctx).Error(err, "Failed to build child", "kind", h.Name, "name", name)
		endSpan(span, err)
		return Outcome{Kind: h.Name, Name: name, Action: ActionFailed, Err: err}
	}
	if owner != nil {
		desired.Object.SetOwnerReferences([]metav1.OwnerReference{*owner})
	}

	outcome := apply(ctx, h, desired)
	outcome.Warnings = desired.Warnings
	endSpan(span, outcome.Err)
	return outcome
}

func (o *Orchestrator) create(ctx context.Context, h catalog.Handler, desired *synth.Descriptor) Outcome {
	logger := log.FromContext(ctx).WithValues("kind", h.Name, "name", desired.Name)
	outcome := Outcome{Kind: h.Name, Name: desired.Name}

	err := o.cluster.Create(ctx, desired.Object)
	switch {
	case err == nil:
		logger.Info("Created child")
		outcome.Action = ActionCreated
	case adapter.IsConflict(err):
		logger.Info("warning: child already exists, leaving it to the periodic pass")
		outcome.Action = ActionExists
	default:
		logger.Error(err, "Failed to create child")
		outcome.Action = ActionFailed
		outcome.Err = err
	}
	return outcome
}

func (o *Orchestrator) patch(ctx context.Context, h catalog.Handler, desired *synth.Descriptor) Outcome {
	logger := log.FromContext(ctx).WithValues("kind", h.Name, "name", desired.Name)
	outcome := Outcome{Kind: h.Name, Name: desired.Name}

	if err := o.cluster.Patch(ctx, desired.Object); err != nil {
		logger.Error(err, "Failed to patch child")
		outcome.Action = ActionFailed
		outcome.Err = err
		return outcome
	}
	logger.Info("Patched child")
	outcome.Action = ActionPatched
	return outcome
}

func (o *Orchestrator) converge(ctx context.Context, h catalog.Handler, desired *synth.Descriptor) Outcome {
	logger := log.FromContext(ctx).WithValues("kind", h.Name, "name", desired.Name)

	live := h.New()
	live.SetName(desired.Name)
	live.SetNamespace(desired.Namespace)

	err := o.cluster.Read(ctx, live)
	switch {
	case adapter.IsNotFound(err):
		logger.Info("Child is missing, creating it")
		return o.create(ctx, h, desired)
	case err != nil:
		logger.Error(err, "Failed to read child")
		return Outcome{Kind: h.Name, Name: desired.Name, Action: ActionFailed, Err: err}
	}

	verdict := h.Drift(live, desired.Object)
	if !verdict.Drifted {
		logger.V(1).Info("Child is converged")
		return Outcome{Kind: h.Name, Name: desired.Name, Action: ActionUnchanged}
	}

	logger.Info("Child drifted, patching", "fields", verdict.Fields)
	outcome := o.patch(ctx, h, desired)
	outcome.Drift = verdict.Fields
	return outcome
}

func (o *Orchestrator) remove(ctx context.Context, h catalog.Handler, obj client.Object) Outcome {
	logger := log.FromContext(ctx).WithValues("kind", h.Name, "name", obj.GetName())
	ctx, span := startResourceSpan(ctx, h.Name, obj.GetName())
	outcome := Outcome{Kind: h.Name, Name: obj.GetName()}

	err := o.cluster.Delete(ctx, obj)
	switch {
	case err == nil:
		logger.Info("Deleted child")
		outcome.Action = ActionDeleted
	case adapter.IsNotFound(err):
		logger.V(1).Info("Child already gone")
		outcome.Action = ActionAbsent
	default:
		logger.Error(err, "Failed to delete child")
		outcome.Action = ActionFailed
		outcome.Err = err
	}
	endSpan(span, outcome.Err)
	return outcome
}

func (o *Orchestrator) finish(logger logr.Logger, span trace.Span, result *Result, start time.Time) {
	err := result.Err()
	outcome := result.Status
	if err != nil {
		outcome = "partial"
		logger.Error(err, "Some children failed", "failed", len(result.Failed()), "total", len(result.Outcomes))
	} else {
		logger.Info("Pass complete", "status", result.Status, "children", len(result.Outcomes))
	}
	recordHook(result.Hook, outcome, time.Since(start).Seconds())
	endSpan(span, err)
}
