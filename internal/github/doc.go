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

// Package github reads files from GitHub repositories.
//
// The operator can keep its defaults documents in a GitHub repository. This
// package fetches those files through the GitHub contents API.
//
// Key features:
//   - Fetch decoded file contents at a branch, tag or commit
//   - Retry logic with exponential backoff and jitter
//   - Rate limit handling
//   - Typed not-found errors (ErrNotFound)
//
// Authentication:
//
// Public repositories need no token. Private repositories need a token with
// the contents:read permission.
//
// Example usage:
//
//	client, err := github.NewClient(token)
//	if err != nil {
//	    return err
//	}
//
//	data, err := client.GetFileContents(ctx, "owner", "defaults", "appd/app.yaml", "main")
//	if errors.Is(err, github.ErrNotFound) {
//	    // no document for this kind
//	}
//
// Retry Logic:
//
// Failed requests are retried with exponential backoff:
//   - Initial backoff: 100 milliseconds
//   - Maximum backoff: 30 seconds
//   - Maximum retries: 3
//
// Retries are performed for rate limits and 502/503/504 responses.
// Client errors (4xx except 429 and rate-limited 403) are not retried.
package github
