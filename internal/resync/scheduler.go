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

package resync

import (
	"context"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/event"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// DefaultInterval is the period of the reconciliation timer.
const DefaultInterval = 60 * time.Second

const defaultBuffer = 128

// Scheduler periodically enqueues every watched custom resource.
type Scheduler struct {
	reader    client.Reader
	gvk       schema.GroupVersionKind
	namespace string
	interval  time.Duration
	events    chan event.GenericEvent
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the timer period.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithNamespace limits the scheduler to one namespace.
func WithNamespace(ns string) Option {
	return func(s *Scheduler) {
		s.namespace = ns
	}
}

// WithBuffer sets the capacity of the event channel.
func WithBuffer(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.events = make(chan event.GenericEvent, n)
		}
	}
}

// NewScheduler creates a scheduler listing objects of gvk through reader.
func NewScheduler(reader client.Reader, gvk schema.GroupVersionKind, opts ...Option) *Scheduler {
	s := &Scheduler{
		reader:   reader,
		gvk:      gvk,
		interval: DefaultInterval,
		events:   make(chan event.GenericEvent, defaultBuffer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events is the channel the controller watches.
func (s *Scheduler) Events() <-chan event.GenericEvent {
	return s.events
}

// Start runs the timer until ctx is canceled. A failed pass is logged and
// the next tick tries again.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger := log.FromContext(ctx).WithName("resync")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n, err := s.enqueue(ctx); err != nil {
				logger.Error(err, "Resync pass failed")
			} else {
				logger.V(1).Info("Enqueued periodic reconcile", "instances", n)
			}
		}
	}
}

// Trigger enqueues every instance now.
func (s *Scheduler) Trigger(ctx context.Context) (int, error) {
	return s.enqueue(ctx)
}

func (s *Scheduler) enqueue(ctx context.Context) (int, error) {
	list := &unstructured.UnstructuredList{}
	list.SetGroupVersionKind(s.gvk.GroupVersion().WithKind(s.gvk.Kind + "List"))

	var opts []client.ListOption
	if s.namespace != "" {
		opts = append(opts, client.InNamespace(s.namespace))
	}
	if err := s.reader.List(ctx, list, opts...); err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", s.gvk.Kind, err)
	}

	sent := 0
	for i := range list.Items {
		obj := &list.Items[i]
		if !obj.GetDeletionTimestamp().IsZero() {
			continue
		}
		select {
		case s.events <- event.GenericEvent{Object: obj}:
			sent++
		case <-ctx.Done():
			return sent, ctx.Err()
		}
	}
	return sent, nil
}
