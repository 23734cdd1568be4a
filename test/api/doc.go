/*
Copyright 2024-2025 the Unikorn Authors.
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package api provides integration test utilities for the library API.
//
// # Separate Client Implementation
//
// This package intentionally maintains a typed HTTP client (APIClient) over
// the same collaborator the scenario runner uses, rather than a client
// generated from the OpenAPI description.  Any legitimate change to the API
// description must have a compensating change here, making API evolution
// explicit and reviewable.  Conversely, if a change to the API doesn't
// require updates here, it may indicate a problem with the change.
//
// The client adds test specific features:
//   - W3C trace context propagation for request correlation
//   - Detailed error logging with trace IDs for debugging
//   - Direct access to HTTP status codes and response bodies
//
// # Running
//
// When API_BASE_URL is unset the suites start an in process fake of the API
// and log in as its administrator, otherwise API_LOGIN_EMAIL and
// API_LOGIN_PASSWORD must name an administrator of the service under test.
package api
