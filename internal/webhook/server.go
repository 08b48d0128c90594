// Copyright 2025 The Previewd Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

// Triggerer starts an immediate resync of every watched instance.
type Triggerer interface {
	Trigger(ctx context.Context) (int, error)
}

// Config selects which pushes trigger a resync.
type Config struct {
	Addr   string
	Port   int
	Secret string
	// Repository is the "owner/name" of the defaults repository.
	Repository string
	// Branch is the branch the defaults are read from. Empty accepts the
	// repository's default branch.
	Branch string
	// Dir limits triggering to pushes touching files under this path.
	Dir string
}

// Server handles GitHub webhook requests
type Server struct {
	cfg         Config
	trigger     Triggerer
	server      *http.Server
	rateLimiter *RateLimiter
}

// RateLimiter provides per-repository rate limiting
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*bucket
	limit    int
	window   time.Duration
}

type bucket struct {
	tokens    int
	lastReset time.Time
}

// NewServer creates a new webhook server
func NewServer(cfg Config, trigger Triggerer) *Server {
	return &Server{
		cfg:         cfg,
		trigger:     trigger,
		rateLimiter: NewRateLimiter(10, time.Second), // 10 requests per second per repo
	}
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*bucket),
		limit:    limit,
		window:   window,
	}
}

// Allow checks if a request from the given repository should be allowed
func (rl *RateLimiter) Allow(repo string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.limiters[repo]
	if !exists {
		b = &bucket{
			tokens:    rl.limit,
			lastReset: time.Now(),
		}
		rl.limiters[repo] = b
	}

	// Reset bucket if window has passed
	if time.Since(b.lastReset) >= rl.window {
		b.tokens = rl.limit
		b.lastReset = time.Now()
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}

	return false
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Start starts the webhook server and blocks until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Addr, s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Log.Info("Starting webhook server", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Log.Info("Shutting down webhook server")
	return s.server.Shutdown(ctx)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleWebhook handles GitHub webhook requests
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error(err, "Failed to read request body")
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if !ValidateSignature(payload, r.Header.Get(SignatureHeader), s.cfg.Secret) {
		logger.Info("Invalid webhook signature")
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	switch eventType := r.Header.Get("X-GitHub-Event"); eventType {
	case "ping":
		w.WriteHeader(http.StatusOK)
		return
	case "push":
	default:
		logger.V(1).Info("Ignoring event", "event", eventType)
		w.WriteHeader(http.StatusOK)
		return
	}

	var event PushEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		logger.Error(err, "Failed to parse JSON payload")
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if !s.rateLimiter.Allow(event.Repository.FullName) {
		logger.Info("Rate limit exceeded", "repository", event.Repository.FullName)
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	if reason := s.skipReason(&event); reason != "" {
		logger.V(1).Info("Ignoring push", "repository", event.Repository.FullName, "ref", event.Ref, "reason", reason)
		w.WriteHeader(http.StatusOK)
		return
	}

	n, err := s.trigger.Trigger(r.Context())
	if err != nil {
		logger.Error(err, "Failed to trigger resync")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	logger.Info("Defaults changed, triggered resync", "repository", event.Repository.FullName, "after", event.After, "instances", n)
	w.WriteHeader(http.StatusAccepted)
}

// skipReason explains why a push does not affect the defaults, or returns
// "" when it does.
func (s *Server) skipReason(event *PushEvent) string {
	if s.cfg.Repository != "" && !strings.EqualFold(event.Repository.FullName, s.cfg.Repository) {
		return "other repository"
	}

	branch := s.cfg.Branch
	if branch == "" {
		branch = event.Repository.DefaultBranch
	}
	if branch != "" && event.Ref != "refs/heads/"+branch {
		return "other branch"
	}

	if s.cfg.Dir == "" || len(event.Commits) == 0 {
		return ""
	}
	prefix := strings.Trim(s.cfg.Dir, "/") + "/"
	for _, c := range event.Commits {
		for _, p := range c.Paths() {
			if strings.HasPrefix(p, prefix) {
				return ""
			}
		}
	}
	return "no defaults touched"
}
