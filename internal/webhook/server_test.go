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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "test-webhook-secret"

type fakeTrigger struct {
	calls int
	err   error
}

func (f *fakeTrigger) Trigger(ctx context.Context) (int, error) {
	f.calls++
	return 3, f.err
}

func setupTest(t *testing.T) (*Server, *fakeTrigger) {
	t.Helper()

	trigger := &fakeTrigger{}
	server := NewServer(Config{
		Addr:       "localhost",
		Port:       9443,
		Secret:     testSecret,
		Repository: "acme/platform-defaults",
		Branch:     "main",
		Dir:        "defaults",
	}, trigger)
	return server, trigger
}

func pushPayload(t *testing.T, repo, ref string, paths ...string) []byte {
	t.Helper()

	event := PushEvent{
		Ref:        ref,
		After:      "abc123",
		Repository: Repository{FullName: repo, DefaultBranch: "main"},
		Commits:    []Commit{{ID: "abc123", Modified: paths}},
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Failed to marshal event: %v", err)
	}
	return payload
}

func signedRequest(payload []byte, event string) *http.Request {
	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(payload))
	req.Header.Set(SignatureHeader, Sign(payload, testSecret))
	req.Header.Set("X-GitHub-Event", event)
	return req
}

func TestHandleHealth(t *testing.T) {
	server, _ := setupTest(t)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()

	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("handleHealth returns %d, expected %d", w.Code, http.StatusOK)
	}

	if w.Body.String() != "OK" {
		t.Errorf("handleHealth body is %q, expected %q", w.Body.String(), "OK")
	}
}

func TestHandleWebhook_MethodNotAllowed(t *testing.T) {
	server, _ := setupTest(t)

	req := httptest.NewRequest("GET", "/webhook", nil)
	w := httptest.NewRecorder()

	server.handleWebhook(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("handleWebhook returns %d, expected %d", w.Code, http.StatusMethodNotAllowed)
	}
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	server, trigger := setupTest(t)

	payload := pushPayload(t, "acme/platform-defaults", "refs/heads/main", "defaults/app.yaml")
	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(payload))
	req.Header.Set(SignatureHeader, "sha256=invalid")
	req.Header.Set("X-GitHub-Event", "push")
	w := httptest.NewRecorder()

	server.handleWebhook(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("handleWebhook returns %d, expected %d", w.Code, http.StatusUnauthorized)
	}
	if trigger.calls != 0 {
		t.Errorf("Trigger called %d times, expected 0", trigger.calls)
	}
}

func TestHandleWebhook_Ping(t *testing.T) {
	server, trigger := setupTest(t)

	w := httptest.NewRecorder()
	server.handleWebhook(w, signedRequest([]byte(`{"zen":"Keep it logically awesome."}`), "ping"))

	if w.Code != http.StatusOK {
		t.Errorf("handleWebhook returns %d, expected %d", w.Code, http.StatusOK)
	}
	if trigger.calls != 0 {
		t.Errorf("Trigger called %d times, expected 0", trigger.calls)
	}
}

func TestHandleWebhook_NonPushEvent(t *testing.T) {
	server, trigger := setupTest(t)

	w := httptest.NewRecorder()
	server.handleWebhook(w, signedRequest([]byte(`{"action":"opened"}`), "pull_request"))

	if w.Code != http.StatusOK {
		t.Errorf("handleWebhook returns %d, expected %d", w.Code, http.StatusOK)
	}
	if trigger.calls != 0 {
		t.Errorf("Trigger called %d times, expected 0", trigger.calls)
	}
}

func TestHandleWebhook_InvalidJSON(t *testing.T) {
	server, _ := setupTest(t)

	w := httptest.NewRecorder()
	server.handleWebhook(w, signedRequest([]byte(`{invalid json`), "push"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("handleWebhook returns %d, expected %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandlePush(t *testing.T) {
	tests := []struct {
		name        string
		repo        string
		ref         string
		paths       []string
		wantCode    int
		wantTrigger int
	}{
		{
			name:        "defaults changed",
			repo:        "acme/platform-defaults",
			ref:         "refs/heads/main",
			paths:       []string{"defaults/app.yaml"},
			wantCode:    http.StatusAccepted,
			wantTrigger: 1,
		},
		{
			name:        "repository name is case-insensitive",
			repo:        "ACME/Platform-Defaults",
			ref:         "refs/heads/main",
			paths:       []string{"defaults/worker.yaml"},
			wantCode:    http.StatusAccepted,
			wantTrigger: 1,
		},
		{
			name:     "other repository",
			repo:     "acme/website",
			ref:      "refs/heads/main",
			paths:    []string{"defaults/app.yaml"},
			wantCode: http.StatusOK,
		},
		{
			name:     "other branch",
			repo:     "acme/platform-defaults",
			ref:      "refs/heads/feature",
			paths:    []string{"defaults/app.yaml"},
			wantCode: http.StatusOK,
		},
		{
			name:     "defaults untouched",
			repo:     "acme/platform-defaults",
			ref:      "refs/heads/main",
			paths:    []string{"README.md", "defaultsx/app.yaml"},
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, trigger := setupTest(t)

			w := httptest.NewRecorder()
			server.handleWebhook(w, signedRequest(pushPayload(t, tt.repo, tt.ref, tt.paths...), "push"))

			if w.Code != tt.wantCode {
				t.Errorf("handleWebhook returns %d, expected %d", w.Code, tt.wantCode)
			}
			if trigger.calls != tt.wantTrigger {
				t.Errorf("Trigger called %d times, expected %d", trigger.calls, tt.wantTrigger)
			}
		})
	}
}

func TestHandlePush_DefaultBranchFromPayload(t *testing.T) {
	trigger := &fakeTrigger{}
	server := NewServer(Config{Secret: testSecret}, trigger)

	w := httptest.NewRecorder()
	server.handleWebhook(w, signedRequest(pushPayload(t, "acme/anything", "refs/heads/main", "x.yaml"), "push"))

	if w.Code != http.StatusAccepted {
		t.Errorf("handleWebhook returns %d, expected %d", w.Code, http.StatusAccepted)
	}
	if trigger.calls != 1 {
		t.Errorf("Trigger called %d times, expected 1", trigger.calls)
	}
}

func TestHandlePush_TriggerFails(t *testing.T) {
	server, trigger := setupTest(t)
	trigger.err = errors.New("list failed")

	w := httptest.NewRecorder()
	server.handleWebhook(w, signedRequest(pushPayload(t, "acme/platform-defaults", "refs/heads/main", "defaults/app.yaml"), "push"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("handleWebhook returns %d, expected %d", w.Code, http.StatusInternalServerError)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3, 100*time.Millisecond)

	// First 3 requests should succeed
	for i := 0; i < 3; i++ {
		if !rl.Allow("test-repo") {
			t.Errorf("Request %d was rate limited, expected to be allowed", i+1)
		}
	}

	// 4th request should be rate limited
	if rl.Allow("test-repo") {
		t.Error("Request 4 was allowed, expected to be rate limited")
	}

	// Wait for window to reset
	time.Sleep(110 * time.Millisecond)

	// Should allow again after reset
	if !rl.Allow("test-repo") {
		t.Error("Request after reset was rate limited, expected to be allowed")
	}
}

func TestRateLimiter_DifferentRepos(t *testing.T) {
	rl := NewRateLimiter(2, time.Second)

	if !rl.Allow("repo-a") {
		t.Error("repo-a request 1 was rate limited")
	}
	if !rl.Allow("repo-a") {
		t.Error("repo-a request 2 was rate limited")
	}

	// Repo B: different bucket
	if !rl.Allow("repo-b") {
		t.Error("repo-b request 1 was rate limited")
	}

	if rl.Allow("repo-a") {
		t.Error("repo-a request 3 was allowed, expected rate limit")
	}
}

func TestHandleWebhook_RateLimited(t *testing.T) {
	server, trigger := setupTest(t)
	payload := pushPayload(t, "acme/platform-defaults", "refs/heads/main", "defaults/app.yaml")

	// Exhaust rate limit (10 requests)
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		server.handleWebhook(w, signedRequest(payload, "push"))
		if w.Code != http.StatusAccepted {
			t.Fatalf("Request %d returns %d, expected %d", i+1, w.Code, http.StatusAccepted)
		}
	}

	w := httptest.NewRecorder()
	server.handleWebhook(w, signedRequest(payload, "push"))

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("handleWebhook returns %d, expected %d", w.Code, http.StatusTooManyRequests)
	}
	if trigger.calls != 10 {
		t.Errorf("Trigger called %d times, expected 10", trigger.calls)
	}
}

func TestShutdown_NotStarted(t *testing.T) {
	server, _ := setupTest(t)

	if err := server.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown returns %v, expected nil", err)
	}
}
