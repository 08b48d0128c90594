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

// Package webhook receives GitHub push events for the repository that holds
// component defaults and triggers a resync of every watched instance when
// those defaults change.
//
// Webhook Security:
//
// All webhook requests must include a valid X-Hub-Signature-256 header containing
// an HMAC-SHA256 signature computed with the webhook secret. Requests with invalid
// or missing signatures are rejected with HTTP 401.
//
// Event Handling:
//
//   - ping: acknowledged with 200
//   - push: pushes to the configured repository and branch that touch the
//     defaults directory trigger a resync and are answered with 202
//   - anything else: ignored with 200
//
// Rate Limiting:
//
// Requests are rate-limited per repository using a token bucket algorithm.
// The default limit is 10 requests per second per repository. Requests
// exceeding the limit receive HTTP 429 Too Many Requests.
//
// Example usage:
//
//	server := webhook.NewServer(webhook.Config{
//		Port:       9443,
//		Secret:     "webhook-secret",
//		Repository: "acme/platform-defaults",
//		Dir:        "defaults",
//	}, scheduler)
//	if err := server.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
package webhook
