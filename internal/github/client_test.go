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

package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-github/v66/github"
)

func testRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     2,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     50 * time.Millisecond,
	}
}

// TestNewClient tests the creation of a new GitHub client
func TestNewClient(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		opts      []Option
		wantError bool
	}{
		{
			name:  "Valid token creates client",
			token: "github_pat_test123",
		},
		{
			name:  "Empty token creates client",
			token: "",
		},
		{
			name:  "Enterprise base URL",
			token: "github_pat_test123",
			opts:  []Option{WithBaseURL("https://github.example.com/api/v3")},
		},
		{
			name:      "Invalid base URL",
			opts:      []Option{WithBaseURL("://bad")},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.token, tt.opts...)
			if tt.wantError && err == nil {
				t.Errorf("NewClient() expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("NewClient() unexpected error: %v", err)
			}
			if !tt.wantError && client == nil {
				t.Errorf("NewClient() returned nil client")
			}
		})
	}
}

// TestGetFileContents tests fetching and decoding a file
func TestGetFileContents(t *testing.T) {
	const document = "spec:\n  replicas: 2\n"

	tests := []struct {
		name         string
		statusCodes  []int
		wantContent  string
		wantNotFound bool
		wantError    bool
		wantAttempts int32
	}{
		{
			name:         "Successfully fetches file",
			statusCodes:  []int{http.StatusOK},
			wantContent:  document,
			wantAttempts: 1,
		},
		{
			name:         "Missing file maps to ErrNotFound",
			statusCodes:  []int{http.StatusNotFound},
			wantNotFound: true,
			wantError:    true,
			wantAttempts: 1,
		},
		{
			name:         "Retries on 502 and succeeds",
			statusCodes:  []int{http.StatusBadGateway, http.StatusOK},
			wantContent:  document,
			wantAttempts: 2,
		},
		{
			name:         "Exhausts retries on persistent 503",
			statusCodes:  []int{http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusServiceUnavailable},
			wantError:    true,
			wantAttempts: 3,
		},
		{
			name:         "Does not retry on 401",
			statusCodes:  []int{http.StatusUnauthorized},
			wantError:    true,
			wantAttempts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts int32

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := atomic.AddInt32(&attempts, 1)
				if r.URL.Path != "/repos/mikelane/defaults/contents/appd/app.yaml" {
					t.Errorf("unexpected path %q", r.URL.Path)
				}
				if got := r.URL.Query().Get("ref"); got != "main" {
					t.Errorf("ref = %q, want %q", got, "main")
				}

				status := tt.statusCodes[len(tt.statusCodes)-1]
				if int(n) <= len(tt.statusCodes) {
					status = tt.statusCodes[n-1]
				}
				if status != http.StatusOK {
					w.WriteHeader(status)
					fmt.Fprintf(w, `{"message":%q}`, http.StatusText(status))
					return
				}

				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(&github.RepositoryContent{
					Type:     github.String("file"),
					Name:     github.String("app.yaml"),
					Path:     github.String("appd/app.yaml"),
					Encoding: github.String("base64"),
					Content:  github.String(base64.StdEncoding.EncodeToString([]byte(document))),
				})
			}))
			defer server.Close()

			client, err := NewClient("", WithBaseURL(server.URL), WithRetryConfig(testRetryConfig()))
			if err != nil {
				t.Fatalf("NewClient() unexpected error: %v", err)
			}

			data, err := client.GetFileContents(context.Background(), "mikelane", "defaults", "appd/app.yaml", "main")

			if tt.wantError && err == nil {
				t.Fatalf("GetFileContents() expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Fatalf("GetFileContents() unexpected error: %v", err)
			}
			if got := errors.Is(err, ErrNotFound); got != tt.wantNotFound {
				t.Errorf("errors.Is(err, ErrNotFound) = %v, want %v (err: %v)", got, tt.wantNotFound, err)
			}
			if string(data) != tt.wantContent {
				t.Errorf("GetFileContents() = %q, want %q", data, tt.wantContent)
			}
			if got := atomic.LoadInt32(&attempts); got != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", got, tt.wantAttempts)
			}
		})
	}
}

func TestExecuteWithRetry_ContextCancelled(t *testing.T) {
	c := &githubClient{retryConfig: testRetryConfig()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := c.executeWithRetry(ctx, func() error {
		called = true
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("executeWithRetry() error = %v, want context.Canceled", err)
	}
	if called {
		t.Errorf("operation was called after cancellation")
	}
}

func TestCalculateBackoff_Capped(t *testing.T) {
	c := &githubClient{retryConfig: &RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
	}}

	for attempt := 0; attempt < 10; attempt++ {
		if got := c.calculateBackoff(attempt); got > time.Second {
			t.Errorf("calculateBackoff(%d) = %v, want <= 1s", attempt, got)
		}
	}

	first := c.calculateBackoff(0)
	if first < 80*time.Millisecond || first > 120*time.Millisecond {
		t.Errorf("calculateBackoff(0) = %v, want 100ms +/-20%%", first)
	}
}
