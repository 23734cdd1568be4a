/*
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

package scenario

import (
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/nscaledev/uni-library-contract/pkg/client"
	"github.com/nscaledev/uni-library-contract/pkg/record"
)

// Credentials identify the account a scenario runs as.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthToken is the outcome of a successful login.
type AuthToken struct {
	Token string
	// Claims are nil when the token is opaque.
	Claims *client.Claims
}

// Request is a request template, any string within it may contain ${key}
// placeholders that are resolved from the run context before sending.
type Request struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Query   map[string]string `json:"query,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    any               `json:"body,omitempty"`
	// Anonymous requests are sent without the scenario's bearer token.
	Anonymous bool `json:"anonymous,omitempty"`
}

// Expectation is what a response must look like for a step to pass.
type Expectation struct {
	// Status is the exact status code expected, zero accepts any.
	Status int `json:"status,omitempty"`
	// Body is a shape the response body must satisfy, fields absent from the
	// shape are ignored.
	Body any `json:"body,omitempty"`
	// Contains is a shape at least one element of a list response must
	// satisfy.
	Contains record.Record `json:"contains,omitempty"`
}

// Step is a single request and the assertions made on its response.
type Step struct {
	Name    string      `json:"name"`
	Request Request     `json:"request"`
	Expect  Expectation `json:"expect"`
	// Extract maps context keys to JSON paths in the response body, the
	// values are written to the run context once all assertions pass.
	Extract map[string]string `json:"extract,omitempty"`
	// Timeout overrides the runner's default step timeout.
	Timeout *metav1.Duration `json:"timeout,omitempty"`
}

// References returns every context key the step reads.
func (s *Step) References() []string {
	values := []any{
		s.Request.Method,
		s.Request.Path,
		s.Request.Body,
		s.Expect.Body,
		s.Expect.Contains,
	}

	for _, value := range s.Request.Query {
		values = append(values, value)
	}

	for _, value := range s.Request.Headers {
		values = append(values, value)
	}

	return References(values)
}

// Scenario is an ordered list of steps run as one authenticated session.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Steps       []Step `json:"steps"`
}

// Phase is the state of a scenario run.
type Phase string

const (
	PhaseNotStarted     Phase = "NotStarted"
	PhaseAuthenticating Phase = "Authenticating"
	PhaseRunning        Phase = "Running"
	PhaseCompleted      Phase = "Completed"
	PhaseFailed         Phase = "Failed"
)

// StepResult records the outcome of one executed step.
type StepResult struct {
	Index      int
	Name       string
	StatusCode int
	Duration   time.Duration
	TraceID    string
	// Outputs are the values extracted into the run context.
	Outputs map[string]any
	Err     error
}

// Passed reports whether the step met its expectations.
func (r *StepResult) Passed() bool {
	return r.Err == nil
}

// Result is the outcome of a scenario run.
type Result struct {
	Scenario string
	Phase    Phase
	// Step is the index of the failing step, -1 if none.
	Step     int
	Steps    []StepResult
	Duration time.Duration
	// Context is the final state of the run context.
	Context *RunContext
	Err     error
}

// Passed reports whether the scenario ran to completion.
func (r *Result) Passed() bool {
	return r.Phase == PhaseCompleted
}
