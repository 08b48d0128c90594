/*
Copyright (c) 2025 Mike Lane

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package controller

import (
	"context"
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/event"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/predicate"
	"sigs.k8s.io/controller-runtime/pkg/source"

	appdv1alpha1 "github.com/mikelane/appd/api/v1alpha1"
	"github.com/mikelane/appd/internal/orchestrator"
)

// DefaultFinalizer guarantees children are deleted before the custom
// resource disappears.
const DefaultFinalizer = "appd.mikelane.io/cleanup"

// Event reasons.
const (
	ReasonApplied      = "Applied"
	ReasonDeleted      = "Deleted"
	ReasonChildFailed  = "ChildFailed"
	ReasonChildWarning = "ChildWarning"
	ReasonHookFailed   = "ReconcileFailed"
)

// Hooks is the orchestrator as seen by the reconciler.
type Hooks interface {
	OnCreate(ctx context.Context, inst orchestrator.Instance) (*orchestrator.Result, error)
	OnUpdate(ctx context.Context, inst orchestrator.Instance) (*orchestrator.Result, error)
	OnDelete(ctx context.Context, inst orchestrator.Instance) (*orchestrator.Result, error)
	OnReconcile(ctx context.Context, inst orchestrator.Instance) (*orchestrator.Result, error)
}

// AppReconciler maps events on the watched custom resource to orchestrator
// hooks and records the outcome in its status.
type AppReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder
	Hooks    Hooks
	// GVK is the watched custom resource. Defaults to App.
	GVK schema.GroupVersionKind
	// Finalizer defaults to DefaultFinalizer.
	Finalizer string
	// Resync, when set, is watched as an extra event source.
	Resync <-chan event.GenericEvent
}

// +kubebuilder:rbac:groups=appd.mikelane.io,resources=apps,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=appd.mikelane.io,resources=apps/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=appd.mikelane.io,resources=apps/finalizers,verbs=update
// +kubebuilder:rbac:groups=apps,resources=deployments;statefulsets,verbs=get;create;patch;delete
// +kubebuilder:rbac:groups="",resources=services;configmaps;secrets;persistentvolumeclaims;pods,verbs=get;create;patch;delete
// +kubebuilder:rbac:groups=networking.k8s.io,resources=ingresses,verbs=get;create;patch;delete
// +kubebuilder:rbac:groups=autoscaling,resources=horizontalpodautoscalers,verbs=get;create;patch;delete
// +kubebuilder:rbac:groups=batch,resources=jobs;cronjobs,verbs=get;create;patch;delete
// +kubebuilder:rbac:groups="",resources=events,verbs=create;patch

// Reconcile picks the hook for the current state of the custom resource:
//
//   - being deleted: OnDelete, then the finalizer is removed
//   - never handled (no status.observedGeneration): OnCreate
//   - spec changed since last handled: OnUpdate
//   - otherwise: OnReconcile, the periodic convergence pass
func (r *AppReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	log := logf.FromContext(ctx)

	obj := r.newObject()
	if err := r.Get(ctx, req.NamespacedName, obj); err != nil {
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}

	if !obj.GetDeletionTimestamp().IsZero() {
		return r.finalize(ctx, obj)
	}

	if controllerutil.AddFinalizer(obj, r.finalizer()) {
		if err := r.Update(ctx, obj); err != nil {
			log.Error(err, "Failed to add finalizer")
			return ctrl.Result{}, err
		}
	}

	inst, err := r.instance(obj)
	if err != nil {
		log.Error(err, "Failed to read spec")
		return ctrl.Result{}, err
	}

	hook, run := r.pick(obj)
	log = log.WithValues("hook", hook)
	ctx = logf.IntoContext(ctx, log)

	result, err := run(ctx, inst)
	if err != nil {
		log.Error(err, "Hook failed")
		r.Recorder.Event(obj, corev1.EventTypeWarning, ReasonHookFailed, err.Error())
		status := appdv1alpha1.AppStatus{
			Status:             orchestrator.StatusFailed,
			Message:            err.Error(),
			ObservedGeneration: observedGeneration(obj),
		}
		if updateErr := r.writeStatus(ctx, obj, status); updateErr != nil {
			log.Error(updateErr, "Failed to update status")
		}
		return ctrl.Result{}, err
	}

	r.emit(obj, result)
	status := statusFor(result, obj.GetGeneration())
	if hook == orchestrator.HookReconcile {
		// The status reports the last create or update; timer passes only
		// refresh the failure details.
		if last, _, _ := unstructured.NestedString(obj.Object, "status", "status"); last != "" && last != orchestrator.StatusFailed {
			status.Status = last
		}
	}
	if err := r.writeStatus(ctx, obj, status); err != nil {
		log.Error(err, "Failed to update status")
		return ctrl.Result{}, err
	}
	return ctrl.Result{}, nil
}

func (r *AppReconciler) finalize(ctx context.Context, obj *unstructured.Unstructured) (ctrl.Result, error) {
	log := logf.FromContext(ctx).WithValues("hook", orchestrator.HookDelete)

	if !controllerutil.ContainsFinalizer(obj, r.finalizer()) {
		return ctrl.Result{}, nil
	}

	result, err := r.Hooks.OnDelete(logf.IntoContext(ctx, log), orchestrator.Instance{
		Kind:      obj.GetKind(),
		Name:      obj.GetName(),
		Namespace: obj.GetNamespace(),
	})
	if err != nil {
		return ctrl.Result{}, err
	}
	r.emit(obj, result)

	// Keep the finalizer until every child is gone or confirmed absent.
	if err := result.Err(); err != nil {
		log.Error(err, "Children still present, keeping finalizer")
		return ctrl.Result{}, err
	}

	controllerutil.RemoveFinalizer(obj, r.finalizer())
	if err := r.Update(ctx, obj); err != nil {
		log.Error(err, "Failed to remove finalizer")
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}
	log.Info("Children deleted, finalizer removed")
	return ctrl.Result{}, nil
}

type hookFunc func(context.Context, orchestrator.Instance) (*orchestrator.Result, error)

func (r *AppReconciler) pick(obj *unstructured.Unstructured) (orchestrator.Hook, hookFunc) {
	observed, found, _ := unstructured.NestedInt64(obj.Object, "status", "observedGeneration")
	switch {
	case !found || observed == 0:
		return orchestrator.HookCreate, r.Hooks.OnCreate
	case observed != obj.GetGeneration():
		return orchestrator.HookUpdate, r.Hooks.OnUpdate
	default:
		return orchestrator.HookReconcile, r.Hooks.OnReconcile
	}
}

func (r *AppReconciler) instance(obj *unstructured.Unstructured) (orchestrator.Instance, error) {
	spec := map[string]interface{}{}
	if raw, ok := obj.Object["spec"]; ok && raw != nil {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return orchestrator.Instance{}, fmt.Errorf("spec of %s/%s is a %T, not a mapping", obj.GetNamespace(), obj.GetName(), raw)
		}
		spec = runtime.DeepCopyJSON(m)
	}
	return orchestrator.Instance{
		Kind:      obj.GetKind(),
		Name:      obj.GetName(),
		Namespace: obj.GetNamespace(),
		Spec:      spec,
		Owner:     metav1.NewControllerRef(obj, obj.GroupVersionKind()),
	}, nil
}

// emit turns warnings and failures into events on the custom resource.
func (r *AppReconciler) emit(obj *unstructured.Unstructured, result *orchestrator.Result) {
	for _, o := range result.Outcomes {
		for _, w := range o.Warnings {
			r.Recorder.Eventf(obj, corev1.EventTypeWarning, ReasonChildWarning, "%s/%s: %s", o.Kind, o.Name, w)
		}
		if o.Action == orchestrator.ActionFailed {
			r.Recorder.Eventf(obj, corev1.EventTypeWarning, ReasonChildFailed, "%s", o.String())
		}
	}

	switch result.Hook {
	case orchestrator.HookCreate, orchestrator.HookUpdate:
		r.Recorder.Eventf(obj, corev1.EventTypeNormal, ReasonApplied, "%s %d children", result.Status, len(result.Outcomes))
	case orchestrator.HookDelete:
		r.Recorder.Eventf(obj, corev1.EventTypeNormal, ReasonDeleted, "deleted children, %d failed", len(result.Failed()))
	}
}

func statusFor(result *orchestrator.Result, generation int64) appdv1alpha1.AppStatus {
	status := appdv1alpha1.AppStatus{
		Status:             result.Status,
		ObservedGeneration: generation,
	}
	failed := result.Failed()
	for _, o := range failed {
		status.FailedResources = append(status.FailedResources, o.String())
	}
	if len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, o := range failed {
			names = append(names, o.Kind)
		}
		status.Message = fmt.Sprintf("%d of %d children failed: %s", len(failed), len(result.Outcomes), strings.Join(names, ", "))
	} else {
		status.Message = fmt.Sprintf("%d children %s", len(result.Outcomes), result.Status)
	}
	return status
}

// writeStatus stores status unless it is already current. Skipping
// unchanged writes keeps status updates from waking the controller again.
func (r *AppReconciler) writeStatus(ctx context.Context, obj *unstructured.Unstructured, status appdv1alpha1.AppStatus) error {
	desired, err := runtime.DefaultUnstructuredConverter.ToUnstructured(&status)
	if err != nil {
		return fmt.Errorf("failed to convert status: %w", err)
	}
	current, _, _ := unstructured.NestedMap(obj.Object, "status")
	if equality.Semantic.DeepEqual(current, desired) {
		logf.FromContext(ctx).V(1).Info("Status unchanged")
		return nil
	}

	if err := unstructured.SetNestedMap(obj.Object, desired, "status"); err != nil {
		return err
	}
	return r.Status().Update(ctx, obj)
}

func observedGeneration(obj *unstructured.Unstructured) int64 {
	observed, _, _ := unstructured.NestedInt64(obj.Object, "status", "observedGeneration")
	return observed
}

func (r *AppReconciler) gvk() schema.GroupVersionKind {
	if r.GVK.Empty() {
		return appdv1alpha1.GroupVersionKind()
	}
	return r.GVK
}

func (r *AppReconciler) newObject() *unstructured.Unstructured {
	obj := &unstructured.Unstructured{}
	obj.SetGroupVersionKind(r.gvk())
	return obj
}

func (r *AppReconciler) finalizer() string {
	if r.Finalizer == "" {
		return DefaultFinalizer
	}
	return r.Finalizer
}

// specOrDeletionChanged passes updates that change the spec or start a
// deletion, so status writes do not trigger another pass.
func specOrDeletionChanged() predicate.Predicate {
	return predicate.Or[client.Object](
		predicate.GenerationChangedPredicate{},
		predicate.Funcs{
			UpdateFunc: func(e event.UpdateEvent) bool {
				return e.ObjectOld.GetDeletionTimestamp().IsZero() && !e.ObjectNew.GetDeletionTimestamp().IsZero()
			},
			CreateFunc:  func(event.CreateEvent) bool { return false },
			DeleteFunc:  func(event.DeleteEvent) bool { return false },
			GenericFunc: func(event.GenericEvent) bool { return false },
		},
	)
}

// SetupWithManager sets up the controller with the Manager.
func (r *AppReconciler) SetupWithManager(mgr ctrl.Manager) error {
	if r.Recorder == nil {
		r.Recorder = mgr.GetEventRecorderFor("appd")
	}

	b := ctrl.NewControllerManagedBy(mgr).
		For(r.newObject(), builder.WithPredicates(specOrDeletionChanged())).
		Named(strings.ToLower(r.gvk().Kind))
	if r.Resync != nil {
		b = b.WatchesRawSource(source.Channel(r.Resync, &handler.EnqueueRequestForObject{}))
	}
	return b.Complete(r)
}
