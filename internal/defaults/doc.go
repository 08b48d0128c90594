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

// Package defaults turns a user-supplied application spec into a normalized
// spec by merging it over a per-kind defaults document.
//
// # Overview
//
// A defaults document is a YAML file named after the lower-cased kind of the
// watched custom resource (for example "app.yaml"). Its "spec" mapping is the
// baseline every instance starts from:
//
//	spec:
//	  replicas: 1
//	  container:
//	    name: "{{ name }}"
//	    image: nginx
//
// String values are rendered with text/template before merging. The context
// exposes the instance name, namespace and kind both as functions
// ({{ name }}) and as fields ({{ .name }}). Sprig functions are available,
// so "{{ name | upper }}" works as expected.
//
// # Merge Semantics
//
// The user spec is deep-merged over the rendered defaults. Mappings merge
// key by key; every other value, sequences included, is replaced wholesale
// by the user's value. Inputs are never mutated.
//
// # Sources
//
// Documents are looked up through a Source. Available sources:
//
//   - ConfigMapSource reads a key from a ConfigMap in the cluster
//   - GitHubSource reads a file from a GitHub repository
//   - S3Source reads an object from S3-compatible storage
//   - FSSource reads from a directory or an embedded filesystem
//   - StaticSource serves in-memory documents
//
// Chain combines sources; the first one that has the document wins. A kind
// with no document anywhere is a ConfigurationError.
//
// # Usage Example
//
//	defaulter := defaults.NewDefaulter(defaults.Chain{
//	    defaults.NewDirectorySource("/etc/appd/defaults"),
//	    defaults.Builtin(),
//	})
//
//	spec, err := defaulter.Normalize(ctx, "App", "web", userSpec)
//	if err != nil {
//	    return err
//	}
package defaults
