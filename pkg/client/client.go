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

// Package client implements the HTTP collaborator used by scenarios and
// suites to talk to a running library API.
//
// This is intentionally a thin hand written client rather than a generated
// one, any change to the API contract must be reflected in the tests that
// drive it, which keeps API evolution explicit and reviewable.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

var (
	// ErrTransport is returned when a request could not be completed at all,
	// e.g. connection refused or a timeout.  It is distinct from a response
	// with an unexpected status code.
	ErrTransport = errors.New("transport failure")

	// ErrUnexpectedStatus is returned by Do when the response status does not
	// match the expected one.
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

// Request is a single API call.
type Request struct {
	Method string
	// Path is relative to the base URL e.g. /api/v1/books/.
	Path   string
	Query  url.Values
	Header http.Header
	// Body, when not nil, is encoded as JSON.
	Body any
}

// Response is the outcome of a completed request.
type Response struct {
	StatusCode int
	Header     http.Header
	// Body is the decoded JSON payload, nil if the body was empty or not JSON.
	Body any
	// Raw is the undecoded payload.
	Raw      []byte
	Duration time.Duration
	// TraceID identifies the request in server side logs.
	TraceID string
}

// Options configures a client.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	AuthToken    string
	LogRequests  bool
	LogResponses bool
	// UserAgent identifies the caller in server side logs.
	UserAgent string
	// HTTPClient overrides the default transport, mainly for tests.
	HTTPClient *http.Client
}

type Client struct {
	baseURL      string
	client       *http.Client
	authToken    string
	logRequests  bool
	logResponses bool
	userAgent    string
}

// New returns a new client.
func New(options Options) *Client {
	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: options.Timeout,
		}
	}

	return &Client{
		baseURL:      strings.TrimSuffix(options.BaseURL, "/"),
		client:       httpClient,
		authToken:    options.AuthToken,
		logRequests:  options.LogRequests,
		logResponses: options.LogResponses,
		userAgent:    options.UserAgent,
	}
}

// SetAuthToken sets the default bearer token used when a request does not
// carry its own Authorization header.
func (c *Client) SetAuthToken(token string) {
	c.authToken = token
}

// BaseURL returns the API root all paths are relative to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Send performs a request and returns the response whatever its status code.
// Only failures to complete the exchange are returned as errors.
//
//nolint:cyclop
func (c *Client) Send(ctx context.Context, r *Request) (*Response, error) {
	log := log.FromContext(ctx)

	fullURL := c.baseURL + r.Path
	if len(r.Query) > 0 {
		fullURL += "?" + r.Query.Encode()
	}

	var body io.Reader

	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}

		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for key, values := range r.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	traceParent := createTraceParent()
	req.Header.Set("Traceparent", traceParent)
	req.Header.Set("Tracestate", "test-automation=library-contract")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	req.Header.Set("Accept", "application/json")

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	if req.Header.Get("Authorization") == "" && c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	traceID := extractTraceID(traceParent)

	start := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(start)

	if err != nil {
		log.Error(err, "http request failed", "method", r.Method, "path", r.Path, "duration", duration, "traceID", traceID)

		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, r.Method, r.Path, err)
	}

	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error(err, "reading response body", "method", r.Method, "path", r.Path, "status", resp.StatusCode, "traceID", traceID)

		return nil, fmt.Errorf("%w: reading response body: %w", ErrTransport, err)
	}

	if c.logRequests {
		log.Info("request", "method", r.Method, "path", r.Path, "status", resp.StatusCode, "duration", duration, "traceID", traceID)
	}

	if c.logResponses && len(raw) > 0 {
		log.Info("response body", "method", r.Method, "path", r.Path, "body", string(raw))
	}

	response := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       decodeBody(raw),
		Raw:        raw,
		Duration:   duration,
		TraceID:    traceID,
	}

	return response, nil
}

// Do is a convenience wrapper around Send that enforces an expected status
// code when one is given.
func (c *Client) Do(ctx context.Context, method, path string, body any, expectedStatus int) (*Response, error) {
	resp, err := c.Send(ctx, &Request{
		Method: method,
		Path:   path,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	if expectedStatus > 0 && resp.StatusCode != expectedStatus {
		log.FromContext(ctx).Info("unexpected status", "method", method, "path", path, "expected", expectedStatus, "actual", resp.StatusCode, "body", string(resp.Raw), "traceID", resp.TraceID)

		return resp, fmt.Errorf("%w: expected %d, got %d, body: %s (trace ID: %s)", ErrUnexpectedStatus, expectedStatus, resp.StatusCode, string(resp.Raw), resp.TraceID)
	}

	return resp, nil
}

// decodeBody decodes a JSON payload, anything else is left to the raw bytes.
func decodeBody(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var out any

	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}

	return out
}
