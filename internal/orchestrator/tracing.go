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
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer is a no-op until a TracerProvider is registered.
var tracer = otel.Tracer("github.com/mikelane/appd/internal/orchestrator")

func startHookSpan(ctx context.Context, hook Hook, inst Instance) (context.Context, trace.Span) {
	return tracer.Start(ctx, "orchestrator."+string(hook),
		trace.WithAttributes(
			attribute.String("k8s.resource.name", inst.Name),
			attribute.String("k8s.namespace", inst.Namespace),
			attribute.String("k8s.resource.kind", inst.Kind),
		),
	)
}

func startResourceSpan(ctx context.Context, kind, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "orchestrator.resource",
		trace.WithAttributes(
			attribute.String("child.kind", kind),
			attribute.String("child.name", name),
		),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
