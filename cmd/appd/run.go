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

package main

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	appdv1alpha1 "github.com/mikelane/appd/api/v1alpha1"
	"github.com/mikelane/appd/internal/adapter"
	"github.com/mikelane/appd/internal/config"
	"github.com/mikelane/appd/internal/controller"
	"github.com/mikelane/appd/internal/defaults"
	"github.com/mikelane/appd/internal/orchestrator"
	"github.com/mikelane/appd/internal/resync"
	"github.com/mikelane/appd/internal/webhook"
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(appdv1alpha1.AddToScheme(scheme))
}

func run(ctx context.Context, cfg *config.Config, zapOpts zap.Options) error {
	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&zapOpts)))

	gvk := cfg.Resource.GroupVersionKind()
	setupLog.Info("starting appd", "version", Version, "gvk", gvk.String(), "namespace", cfg.Namespace)

	mgrOpts := ctrl.Options{
		Scheme: scheme,
		Metrics: metricsserver.Options{
			BindAddress: cfg.MetricsAddr,
		},
		HealthProbeBindAddress: cfg.ProbeAddr,
	}
	if cfg.Namespace != "" {
		mgrOpts.Cache = cache.Options{
			DefaultNamespaces: map[string]cache.Config{cfg.Namespace: {}},
		}
	}

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), mgrOpts)
	if err != nil {
		return fmt.Errorf("unable to create manager: %w", err)
	}

	// Children are read uncached so drift checks see the live object.
	direct, err := client.New(mgr.GetConfig(), client.Options{
		Scheme: mgr.GetScheme(),
		Mapper: mgr.GetRESTMapper(),
	})
	if err != nil {
		return fmt.Errorf("unable to create API client: %w", err)
	}

	sources, err := cfg.Defaults.Sources(ctx, mgr.GetAPIReader())
	if err != nil {
		return fmt.Errorf("unable to configure defaults: %w", err)
	}

	hooks := orchestrator.New(
		defaults.NewDefaulter(sources),
		adapter.New(direct, adapter.WithTimeout(cfg.APITimeout)),
	)

	scheduler := resync.NewScheduler(mgr.GetClient(), gvk,
		resync.WithInterval(cfg.ResyncInterval),
		resync.WithNamespace(cfg.Namespace),
	)
	if err := mgr.Add(scheduler); err != nil {
		return fmt.Errorf("unable to add resync scheduler: %w", err)
	}

	if err := (&controller.AppReconciler{
		Client:    mgr.GetClient(),
		Scheme:    mgr.GetScheme(),
		Hooks:     hooks,
		GVK:       gvk,
		Finalizer: cfg.Finalizer,
		Resync:    scheduler.Events(),
	}).SetupWithManager(mgr); err != nil {
		return fmt.Errorf("unable to create controller %s: %w", gvk.Kind, err)
	}

	if cfg.Webhook.Enabled {
		gh := cfg.Defaults.GitHub
		server := webhook.NewServer(webhook.Config{
			Addr:       cfg.Webhook.Addr,
			Port:       cfg.Webhook.Port,
			Secret:     cfg.Webhook.Secret,
			Repository: gh.FullName(),
			Branch:     gh.Ref,
			Dir:        gh.Path,
		}, scheduler)
		if err := mgr.Add(server); err != nil {
			return fmt.Errorf("unable to add webhook server: %w", err)
		}
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		return fmt.Errorf("unable to set up health check: %w", err)
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		return fmt.Errorf("unable to set up ready check: %w", err)
	}

	setupLog.Info("starting manager")
	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("problem running manager: %w", err)
	}
	return nil
}
