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

package adapter

import (
	"context"
	"net/http"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Operation names used in errors and metrics.
const (
	OpCreate = "create"
	OpRead   = "read"
	OpPatch  = "patch"
	OpDelete = "delete"
)

// Cluster is the set of cluster calls the orchestrator makes. Every error
// returned is an *APIError.
type Cluster interface {
	// Create creates obj. A 409 means it already exists.
	Create(ctx context.Context, obj client.Object) error
	// Read fills obj with the live object named by obj's namespace and name.
	Read(ctx context.Context, obj client.Object) error
	// Patch merges obj into the live object of the same name. Fields obj
	// does not set are left alone.
	Patch(ctx context.Context, obj client.Object) error
	// Delete deletes the object named by obj's namespace and name.
	Delete(ctx context.Context, obj client.Object) error
}

// Client implements Cluster with a controller-runtime client.
type Client struct {
	client  client.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every call. Zero means no bound beyond the caller's
// context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New returns a Cluster backed by c.
func New(c client.Client, opts ...Option) *Client {
	cl := &Client{client: c}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

var _ Cluster = (*Client)(nil)

func (c *Client) Create(ctx context.Context, obj client.Object) error {
	return c.do(ctx, OpCreate, obj, func(ctx context.Context) error {
		return c.client.Create(ctx, obj)
	})
}

func (c *Client) Read(ctx context.Context, obj client.Object) error {
	return c.do(ctx, OpRead, obj, func(ctx context.Context) error {
		return c.client.Get(ctx, client.ObjectKeyFromObject(obj), obj)
	})
}

func (c *Client) Patch(ctx context.Context, obj client.Object) error {
	return c.do(ctx, OpPatch, obj, func(ctx context.Context) error {
		return c.client.Patch(ctx, obj, client.Merge)
	})
}

func (c *Client) Delete(ctx context.Context, obj client.Object) error {
	return c.do(ctx, OpDelete, obj, func(ctx context.Context) error {
		return c.client.Delete(ctx, obj, client.PropagationPolicy(metav1.DeletePropagationBackground))
	})
}

func (c *Client) do(ctx context.Context, op string, obj client.Object, call func(context.Context) error) error {
	kind := c.kindOf(obj)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	err := call(ctx)
	code := http.StatusOK
	if err != nil {
		code = StatusCode(err)
	}
	recordRequest(op, kind, code, time.Since(start).Seconds())

	if err != nil {
		return &APIError{
			Op:        op,
			Kind:      kind,
			Namespace: obj.GetNamespace(),
			Name:      obj.GetName(),
			Status:    code,
			Err:       err,
		}
	}
	return nil
}

func (c *Client) kindOf(obj client.Object) string {
	if gvk, err := c.client.GroupVersionKindFor(obj); err == nil {
		return gvk.Kind
	}
	if kind := obj.GetObjectKind().GroupVersionKind().Kind; kind != "" {
		return kind
	}
	return "Unknown"
}
