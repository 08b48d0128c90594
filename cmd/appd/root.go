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
	"flag"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/mikelane/appd/internal/config"
)

type options struct {
	configFile     string
	metricsAddr    string
	probeAddr      string
	namespace      string
	resyncInterval time.Duration
	defaultsDir    string
	webhookPort    int
	zap            zap.Options
}

func newRootCommand() *cobra.Command {
	opts := &options{
		zap: zap.Options{Development: os.Getenv("DEBUG") == "true"},
	}

	cmd := &cobra.Command{
		Use:           "appd",
		Short:         "Reconcile application custom resources into Kubernetes workloads",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd.Flags(), os.LookupEnv)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, opts.zap)
		},
	}

	opts.bindFlags(cmd.Flags())

	return cmd
}

func (o *options) bindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.configFile, "config", "", "Path to the operator configuration file.")
	fs.StringVar(&o.metricsAddr, "metrics-bind-address", "", "The address the metric endpoint binds to.")
	fs.StringVar(&o.probeAddr, "health-probe-bind-address", "", "The address the probe endpoint binds to.")
	fs.StringVar(&o.namespace, "namespace", "", "Only watch custom resources in this namespace.")
	fs.DurationVar(&o.resyncInterval, "resync-interval", 0, "How often every instance is reconciled.")
	fs.StringVar(&o.defaultsDir, "defaults-dir", "", "Directory of <kind>.yaml defaults documents.")
	fs.IntVar(&o.webhookPort, "webhook-port", 0, "Port of the defaults webhook listener.")

	goFlags := flag.NewFlagSet("zap", flag.ContinueOnError)
	o.zap.BindFlags(goFlags)
	fs.AddGoFlagSet(goFlags)
}

// load reads the configuration file, then applies the environment and
// finally any flag the user set explicitly.
func (o *options) load(fs *pflag.FlagSet, lookup func(string) (string, bool)) (*config.Config, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(lookup)

	if fs.Changed("metrics-bind-address") {
		cfg.MetricsAddr = o.metricsAddr
	}
	if fs.Changed("health-probe-bind-address") {
		cfg.ProbeAddr = o.probeAddr
	}
	if fs.Changed("namespace") {
		cfg.Namespace = o.namespace
	}
	if fs.Changed("resync-interval") {
		cfg.ResyncInterval = o.resyncInterval
	}
	if fs.Changed("defaults-dir") {
		cfg.Defaults.Dir = o.defaultsDir
	}
	if fs.Changed("webhook-port") {
		cfg.Webhook.Port = o.webhookPort
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
