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

// Package orchestrator runs one reconciliation pass for one application
// instance.
//
// Four entry points map to the controller's hooks:
//
//   - OnCreate normalizes the spec, builds every requested child and
//     creates it. A child that already exists is not an error.
//   - OnUpdate builds every requested child and merge-patches it by name.
//   - OnDelete deletes every kind in the catalog, in reverse dependency
//     order, whatever the spec asked for. A child that is already gone is
//     not an error.
//   - OnReconcile reads each requested child, creates it when missing and
//     patches it only when the drift check reports divergence.
//
// Children are handled one at a time in dependency order. A failure on one
// child is recorded in its Outcome and the pass moves on; Result.Err
// aggregates them. A spec that cannot be normalized aborts the pass and is
// returned as the entry point's error.
package orchestrator
