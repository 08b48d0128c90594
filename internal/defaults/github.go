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
	"path"

	"github.com/mikelane/appd/internal/github"
)

// GitHubSource reads documents from "<Path>/<kind>.yaml" in a GitHub
// repository at a given ref.
type GitHubSource struct {
	client github.Client
	owner  string
	repo   string
	dir    string
	ref    string
}

// NewGitHubSource creates a source for owner/repo. An empty ref means the
// repository's default branch.
func NewGitHubSource(client github.Client, owner, repo, dir, ref string) *GitHubSource {
	return &GitHubSource{client: client, owner: owner, repo: repo, dir: dir, ref: ref}
}

// Load implements Source.
func (s *GitHubSource) Load(ctx context.Context, kind string) ([]byte, error) {
	data, err := s.client.GetFileContents(ctx, s.owner, s.repo, path.Join(s.dir, kind+".yaml"), s.ref)
	if err != nil {
		if errors.Is(err, github.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}
