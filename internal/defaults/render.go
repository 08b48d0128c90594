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
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Vars is the template context used to render defaults documents.
type Vars map[string]string

// Render resolves template expressions in every string leaf of v. Mappings
// and sequences are walked recursively and returned as fresh copies; other
// values pass through unchanged.
func Render(v interface{}, vars Vars) (interface{}, error) {
	switch t := v.(type) {
	case string:
		return renderString(t, vars)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for key, value := range t {
			rendered, err := Render(value, vars)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out[key] = rendered
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			rendered, err := Render(item, vars)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = rendered
		}
		return out, nil
	default:
		return v, nil
	}
}

func renderString(s string, vars Vars) (string, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}

	tmpl, err := template.New("defaults").
		Option("missingkey=error").
		Funcs(funcMap(vars)).
		Parse(s)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %q: %w", s, err)
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, map[string]string(vars)); err != nil {
		return "", fmt.Errorf("failed to render template %q: %w", s, err)
	}
	return out.String(), nil
}

// funcMap exposes every context key as a niladic function next to sprig's,
// so both {{ name }} and {{ .name }} resolve.
func funcMap(vars Vars) template.FuncMap {
	fm := sprig.TxtFuncMap()
	for key, value := range vars {
		fm[key] = func() string { return value }
	}
	return fm
}
