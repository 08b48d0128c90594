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

package defaults

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/yaml"
)

// Defaulter normalizes application specs against per-kind defaults documents.
type Defaulter struct {
	source Source
}

// NewDefaulter creates a Defaulter reading documents from source.
func NewDefaulter(source Source) *Defaulter {
	return &Defaulter{source: source}
}

// Normalize merges userSpec over the defaults document of kind, rendered for
// the instance called name. snake_case keys on either side are converted to
// camelCase before the merge.
func (d *Defaulter) Normalize(ctx context.Context, kind, name string, userSpec map[string]interface{}) (map[string]interface{}, error) {
	return d.NormalizeWith(ctx, kind, Vars{"name": name}, userSpec)
}

// NormalizeWith is Normalize with an explicit template context. The "kind"
// key is always set to the lower-cased kind.
func (d *Defaulter) NormalizeWith(ctx context.Context, kind string, vars Vars, userSpec map[string]interface{}) (map[string]interface{}, error) {
	key := strings.ToLower(kind)

	baseline, err := d.load(ctx, key)
	if err != nil {
		return nil, err
	}

	tmplVars := make(Vars, len(vars)+1)
	for k, v := range vars {
		tmplVars[k] = v
	}
	tmplVars["kind"] = key

	rendered, err := Render(baseline, tmplVars)
	if err != nil {
		return nil, &ConfigurationError{Kind: key, Err: fmt.Errorf("failed to render defaults: %w", err)}
	}

	// Both sides use one key spelling so the user's key replaces the default's.
	return DeepMerge(NormalizeSpec(rendered.(map[string]interface{})), NormalizeSpec(userSpec)), nil
}

// load fetches and parses the "spec" mapping of the defaults document.
func (d *Defaulter) load(ctx context.Context, kind string) (map[string]interface{}, error) {
	data, err := d.source.Load(ctx, kind)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &ConfigurationError{Kind: kind, Err: err}
		}
		return nil, fmt.Errorf("failed to load defaults for kind %q: %w", kind, err)
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigurationError{Kind: kind, Err: fmt.Errorf("failed to parse defaults document: %w", err)}
	}

	spec, ok := doc["spec"].(map[string]interface{})
	if !ok {
		return nil, &ConfigurationError{Kind: kind, Err: errors.New(`defaults document has no "spec" mapping`)}
	}

	log.FromContext(ctx).V(1).Info("Loaded defaults document", "kind", kind, "keys", len(spec))
	return spec, nil
}
