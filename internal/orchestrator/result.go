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
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// Hook names an entry point.
type Hook string

const (
	HookCreate    Hook = "create"
	HookUpdate    Hook = "update"
	HookDelete    Hook = "delete"
	HookReconcile Hook = "reconcile"
)

// Status values reported by each hook.
const (
	StatusCreated    = "created"
	StatusUpdated    = "updated"
	StatusDeleted    = "deleted"
	StatusReconciled = "reconciled"
	StatusFailed     = "failed"
)

func (h Hook) status() string {
	switch h {
	case HookCreate:
		return StatusCreated
	case HookUpdate:
		return StatusUpdated
	case HookDelete:
		return StatusDeleted
	default:
		return StatusReconciled
	}
}

// Action is what happened to one child.
type Action string

const (
	ActionCreated   Action = "created"
	ActionExists    Action = "exists"
	ActionPatched   Action = "patched"
	ActionUnchanged Action = "unchanged"
	ActionDeleted   Action = "deleted"
	ActionAbsent    Action = "absent"
	ActionFailed    Action = "failed"
)

// Outcome is the result for one child.
type Outcome struct {
	Kind   string
	Name   string
	Action Action
	// Drift lists the divergent fields that caused a patch.
	Drift    []string
	Warnings []string
	Err      error
}

func (o Outcome) String() string {
	if o.Err != nil {
		return fmt.Sprintf("%s/%s: %v", o.Kind, o.Name, o.Err)
	}
	return fmt.Sprintf("%s/%s: %s", o.Kind, o.Name, o.Action)
}

// Result is what a hook returns.
type Result struct {
	Hook     Hook
	Status   string
	Outcomes []Outcome
}

func newResult(hook Hook) *Result {
	return &Result{Hook: hook, Status: hook.status()}
}

func (r *Result) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

// Failed returns the outcomes that failed.
func (r *Result) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Action == ActionFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

// Err aggregates the per-child failures, or returns nil.
func (r *Result) Err() error {
	var errs []error
	for _, o := range r.Failed() {
		errs = append(errs, o.Err)
	}
	return utilerrors.NewAggregate(errs)
}

// StatusMap is the status mapping reported on the custom resource.
func (r *Result) StatusMap() map[string]string {
	return map[string]string{"status": r.Status}
}
