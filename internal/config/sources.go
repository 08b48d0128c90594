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

package config

import (
	"context"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/mikelane/appd/internal/defaults"
	"github.com/mikelane/appd/internal/github"
)

// Sources builds the defaults source chain. reader serves the ConfigMap
// source and should be uncached.
func (d DefaultsConfig) Sources(ctx context.Context, reader client.Reader) (defaults.Chain, error) {
	var chain defaults.Chain

	if d.ConfigMap != nil {
		chain = append(chain, defaults.NewConfigMapSource(reader, d.ConfigMap.Namespace, d.ConfigMap.Name))
	}

	if g := d.GitHub; g != nil {
		var opts []github.Option
		if g.BaseURL != "" {
			opts = append(opts, github.WithBaseURL(g.BaseURL))
		}
		gh, err := github.NewClient(g.Token, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create GitHub client: %w", err)
		}
		chain = append(chain, defaults.NewGitHubSource(gh, g.Owner, g.Repo, g.Path, g.Ref))
	}

	if b := d.S3; b != nil {
		src, err := defaults.NewS3Source(ctx, defaults.S3Config{
			Endpoint:     b.Endpoint,
			Region:       b.Region,
			Bucket:       b.Bucket,
			Prefix:       b.Prefix,
			UsePathStyle: b.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 source: %w", err)
		}
		chain = append(chain, src)
	}

	if d.Dir != "" {
		chain = append(chain, defaults.NewDirectorySource(d.Dir))
	}

	if !d.DisableBuiltin {
		chain = append(chain, defaults.Builtin())
	}

	return chain, nil
}
