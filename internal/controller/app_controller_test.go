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
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/interceptor"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	appdv1alpha1 "github.com/mikelane/appd/api/v1alpha1"
	"github.com/mikelane/appd/internal/adapter"
	"github.com/mikelane/appd/internal/defaults"
	"github.com/mikelane/appd/internal/orchestrator"
)

// failingHooks fails every hook with err.
type failingHooks struct {
	err error
}

func (f failingHooks) OnCreate(context.Context, orchestrator.Instance) (*orchestrator.Result, error) {
	return nil, f.err
}

func (f failingHooks) OnUpdate(context.Context, orchestrator.Instance) (*orchestrator.Result, error) {
	return nil, f.err
}

func (f failingHooks) OnDelete(context.Context, orchestrator.Instance) (*orchestrator.Result, error) {
	return nil, f.err
}

func (f failingHooks) OnReconcile(context.Context, orchestrator.Instance) (*orchestrator.Result, error) {
	return nil, f.err
}

// switchableSource serves the built-in defaults until missing is set.
type switchableSource struct {
	missing bool
}

func (s *switchableSource) Load(ctx context.Context, kind string) ([]byte, error) {
	if s.missing {
		return nil, defaults.ErrNotFound
	}
	return defaults.Builtin().Load(ctx, kind)
}

func drainEvents(recorder *record.FakeRecorder) []string {
	var events []string
	for {
		select {
		case e := <-recorder.Events:
			events = append(events, e)
		default:
			return events
		}
	}
}

var _ = Describe("App Controller", func() {
	const (
		resourceName = "web"
		namespace    = "shop"
	)

	var (
		ctx            context.Context
		k8sClient      client.Client
		recorder       *record.FakeRecorder
		reconciler     *AppReconciler
		statusWrites   int
		namespacedName = types.NamespacedName{Name: resourceName, Namespace: namespace}
	)

	newApp := func(spec map[string]interface{}) *appdv1alpha1.App {
		app := &appdv1alpha1.App{
			ObjectMeta: metav1.ObjectMeta{
				Name:       resourceName,
				Namespace:  namespace,
				Generation: 1,
			},
		}
		Expect(app.SetSpec(spec)).To(Succeed())
		return app
	}

	reconcileOnce := func() error {
		_, err := reconciler.Reconcile(ctx, reconcile.Request{NamespacedName: namespacedName})
		return err
	}

	getApp := func() *appdv1alpha1.App {
		app := &appdv1alpha1.App{}
		Expect(k8sClient.Get(ctx, namespacedName, app)).To(Succeed())
		return app
	}

	setup := func(hooks Hooks, objs ...client.Object) {
		statusWrites = 0
		k8sClient = newFakeClient(objs...).WithInterceptorFuncs(interceptor.Funcs{
			SubResourceUpdate: func(ctx context.Context, c client.Client, sub string, obj client.Object, opts ...client.SubResourceUpdateOption) error {
				statusWrites++
				return c.SubResource(sub).Update(ctx, obj, opts...)
			},
		}).Build()
		recorder = record.NewFakeRecorder(100)
		if hooks == nil {
			hooks = orchestrator.New(defaults.NewDefaulter(defaults.Builtin()), adapter.New(k8sClient))
		}
		reconciler = &AppReconciler{
			Client:   k8sClient,
			Scheme:   testScheme,
			Recorder: recorder,
			Hooks:    hooks,
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("Scenario: Reconcile a newly created App", func() {
		BeforeEach(func() {
			setup(nil, newApp(map[string]interface{}{
				"replicas":  3,
				"container": map[string]interface{}{"image": "app:v2"},
			}))
		})

		It("adds the finalizer and creates the children", func() {
			Expect(reconcileOnce()).To(Succeed())

			app := getApp()
			Expect(app.Finalizers).To(ContainElement(DefaultFinalizer))
			Expect(app.Status.Status).To(Equal(orchestrator.StatusCreated))
			Expect(app.Status.ObservedGeneration).To(Equal(int64(1)))
			Expect(app.Status.FailedResources).To(BeEmpty())

			var dep appsv1.Deployment
			Expect(k8sClient.Get(ctx, namespacedName, &dep)).To(Succeed())
			Expect(*dep.Spec.Replicas).To(Equal(int32(3)))
			Expect(dep.Spec.Template.Spec.Containers[0].Image).To(Equal("app:v2"))
			Expect(dep.OwnerReferences).To(HaveLen(1))
			Expect(dep.OwnerReferences[0].Kind).To(Equal(appdv1alpha1.Kind))

			var svc corev1.Service
			Expect(k8sClient.Get(ctx, types.NamespacedName{Name: "web-svc", Namespace: namespace}, &svc)).To(Succeed())
			Expect(svc.Spec.Ports[0].Port).To(Equal(int32(80)))

			Expect(drainEvents(recorder)).To(ContainElement(HavePrefix("Normal " + ReasonApplied)))
		})

		It("runs the periodic pass once the generation is observed", func() {
			Expect(reconcileOnce()).To(Succeed())
			Expect(statusWrites).To(Equal(1))

			Expect(reconcileOnce()).To(Succeed())

			app := getApp()
			Expect(app.Status.Status).To(Equal(orchestrator.StatusCreated))
			Expect(app.Status.Message).To(ContainSubstring("reconciled"))
			Expect(statusWrites).To(Equal(2))

			By("leaving an unchanged status alone")
			Expect(reconcileOnce()).To(Succeed())
			Expect(statusWrites).To(Equal(2))
		})
	})

	Describe("Scenario: Spec changes after creation", func() {
		BeforeEach(func() {
			setup(nil, newApp(map[string]interface{}{"replicas": 1}))
		})

		It("patches the children and records the new generation", func() {
			Expect(reconcileOnce()).To(Succeed())

			app := getApp()
			Expect(app.SetSpec(map[string]interface{}{"replicas": 4})).To(Succeed())
			app.Generation = 2
			Expect(k8sClient.Update(ctx, app)).To(Succeed())

			Expect(reconcileOnce()).To(Succeed())

			app = getApp()
			Expect(app.Status.Status).To(Equal(orchestrator.StatusUpdated))
			Expect(app.Status.ObservedGeneration).To(Equal(int64(2)))

			var dep appsv1.Deployment
			Expect(k8sClient.Get(ctx, namespacedName, &dep)).To(Succeed())
			Expect(*dep.Spec.Replicas).To(Equal(int32(4)))
		})
	})

	Describe("Scenario: App is deleted", func() {
		BeforeEach(func() {
			setup(nil, newApp(map[string]interface{}{"configmap": map[string]interface{}{}}))
		})

		It("deletes every child and removes the finalizer", func() {
			Expect(reconcileOnce()).To(Succeed())

			var cm corev1.ConfigMap
			Expect(k8sClient.Get(ctx, types.NamespacedName{Name: "web-config", Namespace: namespace}, &cm)).To(Succeed())

			Expect(k8sClient.Delete(ctx, getApp())).To(Succeed())
			Expect(reconcileOnce()).To(Succeed())

			err := k8sClient.Get(ctx, namespacedName, &appdv1alpha1.App{})
			Expect(apierrors.IsNotFound(err)).To(BeTrue())

			for _, obj := range []client.Object{&appsv1.Deployment{}, &corev1.Service{}, &corev1.ConfigMap{}} {
				name := resourceName
				switch obj.(type) {
				case *corev1.Service:
					name = "web-svc"
				case *corev1.ConfigMap:
					name = "web-config"
				}
				err := k8sClient.Get(ctx, types.NamespacedName{Name: name, Namespace: namespace}, obj)
				Expect(apierrors.IsNotFound(err)).To(BeTrue(), "%T %s still exists", obj, name)
			}
		})
	})

	Describe("Scenario: Defaults are missing", func() {
		BeforeEach(func() {
			missing := &defaults.ConfigurationError{Kind: "app", Err: defaults.ErrNotFound}
			setup(failingHooks{err: missing}, newApp(nil))
		})

		It("reports failure in the status and returns the error", func() {
			err := reconcileOnce()
			Expect(err).To(HaveOccurred())
			Expect(defaults.IsConfigurationError(err)).To(BeTrue())

			app := getApp()
			Expect(app.Status.Status).To(Equal(orchestrator.StatusFailed))
			Expect(app.Status.Message).To(ContainSubstring("app"))
			Expect(app.Status.ObservedGeneration).To(BeZero())

			events := drainEvents(recorder)
			Expect(events).To(ContainElement(HavePrefix("Warning " + ReasonHookFailed)))
		})

		It("keeps the finalizer when deletion fails", func() {
			Expect(reconcileOnce()).To(HaveOccurred())
			Expect(k8sClient.Delete(ctx, getApp())).To(Succeed())

			Expect(reconcileOnce()).To(HaveOccurred())
			Expect(getApp().Finalizers).To(ContainElement(DefaultFinalizer))
		})
	})

	Describe("Scenario: Defaults disappear and come back between periodic passes", func() {
		var source *switchableSource

		BeforeEach(func() {
			source = &switchableSource{}
			setup(nil, newApp(map[string]interface{}{"replicas": 2}))
			reconciler.Hooks = orchestrator.New(defaults.NewDefaulter(source), adapter.New(k8sClient))
		})

		It("marks the App failed and then reconciled", func() {
			Expect(reconcileOnce()).To(Succeed())
			Expect(getApp().Status.Status).To(Equal(orchestrator.StatusCreated))

			source.missing = true
			err := reconcileOnce()
			Expect(defaults.IsConfigurationError(err)).To(BeTrue())
			Expect(getApp().Status.Status).To(Equal(orchestrator.StatusFailed))

			source.missing = false
			Expect(reconcileOnce()).To(Succeed())

			app := getApp()
			Expect(app.Status.Status).To(Equal(orchestrator.StatusReconciled))
			Expect(app.Status.Message).To(ContainSubstring("reconciled"))
			Expect(app.Status.ObservedGeneration).To(Equal(int64(1)))
		})
	})

	Describe("Scenario: One child fails", func() {
		BeforeEach(func() {
			setup(nil, newApp(map[string]interface{}{"pvc": map[string]interface{}{}}))
		})

		It("records the failure without failing the pass", func() {
			Expect(reconcileOnce()).To(Succeed())

			app := getApp()
			Expect(app.Status.Status).To(Equal(orchestrator.StatusCreated))
			Expect(app.Status.FailedResources).To(HaveLen(1))
			Expect(app.Status.FailedResources[0]).To(HavePrefix("PersistentVolumeClaim/web-pvc"))
			Expect(app.Status.Message).To(ContainSubstring("1 of 3 children failed"))

			events := drainEvents(recorder)
			Expect(strings.Join(events, "\n")).To(ContainSubstring(ReasonChildFailed))
		})
	})

	Describe("Scenario: App does not exist", func() {
		BeforeEach(func() {
			setup(failingHooks{err: errors.New("must not be called")})
		})

		It("ignores the request", func() {
			Expect(reconcileOnce()).To(Succeed())
		})
	})
})
