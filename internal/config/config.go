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

// Package config loads the operator configuration.
//
// A YAML file is decoded over Default(). Environment variables then
// override the watched resource, and command-line flags override both.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/mikelane/appd/api/v1alpha1"
)

// Environment variables read by ApplyEnv.
const (
	EnvGroup         = "OPERATOR_GROUP"
	EnvVersion       = "OPERATOR_VERSION"
	EnvKind          = "OPERATOR_KIND"
	EnvPlural        = "OPERATOR_PLURAL"
	EnvNamespace     = "OPERATOR_NAMESPACE"
	EnvGitHubToken   = "GITHUB_TOKEN"
	EnvWebhookSecret = "WEBHOOK_SECRET"
)

// DefaultResyncInterval is how often every instance is reconciled when the
// configuration does not say otherwise.
const DefaultResyncInterval = 60 * time.Second

// Config is the operator configuration.
type Config struct {
	Resource       Resource       `yaml:"resource"`
	Namespace      string         `yaml:"namespace"`
	ResyncInterval time.Duration  `yaml:"resyncInterval"`
	Finalizer      string         `yaml:"finalizer"`
	APITimeout     time.Duration  `yaml:"apiTimeout"`
	MetricsAddr    string         `yaml:"metricsBindAddress"`
	ProbeAddr      string         `yaml:"healthProbeBindAddress"`
	Defaults       DefaultsConfig `yaml:"defaults"`
	Webhook        WebhookConfig  `yaml:"webhook"`
}

// Resource names the custom resource the operator watches.
type Resource struct {
	Group   string `yaml:"group"`
	Version string `yaml:"version"`
	Kind    string `yaml:"kind"`
	// Plural defaults to the lower-cased kind plus "s".
	Plural string `yaml:"plural"`
}

// GroupVersionKind returns the watched GVK.
func (r Resource) GroupVersionKind() schema.GroupVersionKind {
	return schema.GroupVersionKind{Group: r.Group, Version: r.Version, Kind: r.Kind}
}

// DefaultsConfig lists where defaults documents are read from. Sources are
// consulted in the order ConfigMap, GitHub, S3, Dir, built-in.
type DefaultsConfig struct {
	ConfigMap *ConfigMapRef `yaml:"configMap,omitempty"`
	GitHub    *GitHubRepo   `yaml:"github,omitempty"`
	S3        *S3Bucket     `yaml:"s3,omitempty"`
	Dir       string        `yaml:"dir,omitempty"`
	// DisableBuiltin removes the embedded documents from the chain.
	DisableBuiltin bool `yaml:"disableBuiltin,omitempty"`
}

// ConfigMapRef points at a ConfigMap holding "<kind>.yaml" keys.
type ConfigMapRef struct {
	Namespace string `yaml:"namespace"`
	Name      string `yaml:"name"`
}

// GitHubRepo points at a directory of defaults documents in a repository.
type GitHubRepo struct {
	Owner   string `yaml:"owner"`
	Repo    string `yaml:"repo"`
	Path    string `yaml:"path"`
	Ref     string `yaml:"ref"`
	BaseURL string `yaml:"baseURL,omitempty"`
	Token   string `yaml:"-"`
}

// FullName returns "owner/repo".
func (g *GitHubRepo) FullName() string {
	return g.Owner + "/" + g.Repo
}

// S3Bucket points at a prefix in an S3-compatible bucket. Credentials come
// from the standard AWS environment.
type S3Bucket struct {
	Endpoint     string `yaml:"endpoint,omitempty"`
	Region       string `yaml:"region"`
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix,omitempty"`
	UsePathStyle bool   `yaml:"usePathStyle,omitempty"`
}

// WebhookConfig configures the defaults webhook listener.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr,omitempty"`
	Port    int    `yaml:"port"`
	Secret  string `yaml:"-"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Resource: Resource{
			Group:   v1alpha1.GroupVersion.Group,
			Version: v1alpha1.GroupVersion.Version,
			Kind:    v1alpha1.Kind,
		},
		ResyncInterval: DefaultResyncInterval,
		Finalizer:      "appd.mikelane.io/cleanup",
		APITimeout:     30 * time.Second,
		MetricsAddr:    ":8080",
		ProbeAddr:      ":8081",
		Webhook: WebhookConfig{
			Port: 9443,
		},
	}
}

// Load reads path over Default(). An empty path returns Default(). The
// result is not validated so that overrides can be applied first.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses data over Default().
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set(&c.Resource.Group, EnvGroup)
	set(&c.Resource.Version, EnvVersion)
	set(&c.Resource.Kind, EnvKind)
	set(&c.Resource.Plural, EnvPlural)
	set(&c.Namespace, EnvNamespace)
	set(&c.Webhook.Secret, EnvWebhookSecret)
	if c.Defaults.GitHub != nil {
		set(&c.Defaults.GitHub.Token, EnvGitHubToken)
	}
}

// Validate reports every invalid field at once. An empty plural is filled
// from the kind.
func (c *Config) Validate() error {
	var errs []error

	if c.Resource.Version == "" {
		errs = append(errs, errors.New("resource.version is required"))
	}
	if c.Resource.Kind == "" {
		errs = append(errs, errors.New("resource.kind is required"))
	}
	if c.Resource.Plural == "" && c.Resource.Kind != "" {
		c.Resource.Plural = strings.ToLower(c.Resource.Kind) + "s"
	}
	if c.ResyncInterval <= 0 {
		errs = append(errs, fmt.Errorf("resyncInterval must be positive, got %s", c.ResyncInterval))
	}
	if c.APITimeout < 0 {
		errs = append(errs, fmt.Errorf("apiTimeout must not be negative, got %s", c.APITimeout))
	}
	if c.Finalizer == "" {
		errs = append(errs, errors.New("finalizer is required"))
	} else if !strings.Contains(c.Finalizer, "/") {
		errs = append(errs, fmt.Errorf("finalizer %q must be domain-qualified", c.Finalizer))
	}

	errs = append(errs, c.Defaults.validate()...)

	if c.Webhook.Enabled {
		if c.Webhook.Port <= 0 || c.Webhook.Port > 65535 {
			errs = append(errs, fmt.Errorf("webhook.port %d is out of range", c.Webhook.Port))
		}
		if c.Webhook.Secret == "" {
			errs = append(errs, fmt.Errorf("webhook requires a secret in %s", EnvWebhookSecret))
		}
		if c.Defaults.GitHub == nil {
			errs = append(errs, errors.New("webhook requires defaults.github"))
		}
	}

	return errors.Join(errs...)
}

func (d DefaultsConfig) validate() []error {
	var errs []error

	if d.ConfigMap != nil && d.ConfigMap.Name == "" {
		errs = append(errs, errors.New("defaults.configMap.name is required"))
	}
	if d.GitHub != nil && (d.GitHub.Owner == "" || d.GitHub.Repo == "") {
		errs = append(errs, errors.New("defaults.github.owner and defaults.github.repo are required"))
	}
	if d.S3 != nil && d.S3.Bucket == "" {
		errs = append(errs, errors.New("defaults.s3.bucket is required"))
	}
	if d.DisableBuiltin && d.ConfigMap == nil && d.GitHub == nil && d.S3 == nil && d.Dir == "" {
		errs = append(errs, errors.New("defaults: no source configured"))
	}
	return errs
}
