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
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
)

// Source loads the raw defaults document for a lower-cased kind. It returns
// ErrNotFound when it has no document for that kind.
type Source interface {
	Load(ctx context.Context, kind string) ([]byte, error)
}

// documentExtensions are tried in order when looking a kind up by file name.
var documentExtensions = []string{".yaml", ".yml", ".json"}

// Chain consults each source in order and returns the first document found.
// Errors other than ErrNotFound stop the lookup.
type Chain []Source

// Load implements Source.
func (c Chain) Load(ctx context.Context, kind string) ([]byte, error) {
	for _, source := range c {
		data, err := source.Load(ctx, kind)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

// StaticSource serves documents from memory, keyed by lower-cased kind.
type StaticSource map[string]string

// Load implements Source.
func (s StaticSource) Load(_ context.Context, kind string) ([]byte, error) {
	doc, ok := s[kind]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(doc), nil
}

// FSSource reads "<Dir>/<kind>.yaml" (or .yml, .json) from a filesystem.
type FSSource struct {
	FS  fs.FS
	Dir string
}

// NewDirectorySource returns a source reading documents from dir on disk.
func NewDirectorySource(dir string) *FSSource {
	return &FSSource{FS: os.DirFS(dir), Dir: "."}
}

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Builtin returns the documents compiled into the binary.
func Builtin() *FSSource {
	return &FSSource{FS: builtinFS, Dir: "builtin"}
}

// Load implements Source.
func (s *FSSource) Load(_ context.Context, kind string) ([]byte, error) {
	for _, ext := range documentExtensions {
		data, err := fs.ReadFile(s.FS, path.Join(s.Dir, kind+ext))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read defaults for kind %q: %w", kind, err)
		}
	}
	return nil, ErrNotFound
}
