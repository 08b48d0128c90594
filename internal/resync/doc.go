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

// Package resync drives the periodic reconciliation pass.
//
// The Scheduler runs inside the manager. Every interval (60 seconds by
// default) it lists every watched custom resource and sends one generic
// event per instance down a channel. The controller watches that channel
// as a source, so timer passes go through the same work queue as watch
// events and never run concurrently with another pass for the same
// instance.
//
// Trigger performs the same fan-out on demand, for example when the
// defaults repository changes.
//
// Example usage:
//
//	scheduler := resync.NewScheduler(
//		mgr.GetAPIReader(),
//		v1alpha1.GroupVersionKind(),
//		resync.WithInterval(60*time.Second),
//	)
//	if err := mgr.Add(scheduler); err != nil {
//		return err
//	}
//	reconciler.Resync = scheduler.Events()
package resync
