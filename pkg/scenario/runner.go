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
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/nscaledev/uni-library-contract/pkg/client"
	"github.com/nscaledev/uni-library-contract/pkg/record"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

const (
	// DefaultLoginPath is where credentials are exchanged for a token.
	DefaultLoginPath = "/api/v1/login"

	// DefaultStepTimeout bounds a single request.
	DefaultStepTimeout = 30 * time.Second

	// maxReportedBody truncates response bodies quoted in errors.
	maxReportedBody = 512
)

// Options configure a runner, the zero value is usable.
type Options struct {
	LoginPath   string
	StepTimeout time.Duration
	// Validator, when set, checks every step response against an API
	// description in addition to the step's own expectations.
	Validator SchemaValidator
	// Now is used to check token expiry.
	Now func() time.Time
}

// Runner executes scenarios.  A runner holds no per run state so may run
// many scenarios concurrently, each gets its own run context.
type Runner struct {
	sender    Sender
	loginPath string
	timeout   time.Duration
	validator SchemaValidator
	now       func() time.Time
}

// NewRunner returns a runner sending requests with the given sender.
func NewRunner(sender Sender, options *Options) *Runner {
	r := &Runner{
		sender:    sender,
		loginPath: DefaultLoginPath,
		timeout:   DefaultStepTimeout,
		now:       time.Now,
	}

	if options == nil {
		return r
	}

	if options.LoginPath != "" {
		r.loginPath = options.LoginPath
	}

	if options.StepTimeout > 0 {
		r.timeout = options.StepTimeout
	}

	if options.Now != nil {
		r.now = options.Now
	}

	r.validator = options.Validator

	return r
}

// Run authenticates then executes every step in order, stopping at the first
// failure.  The returned error, if any, is also recorded in the result.
func (r *Runner) Run(ctx context.Context, s *Scenario, credentials Credentials) (*Result, error) {
	if s == nil {
		err := fmt.Errorf("%w: scenario is required", ErrInvalidScenario)

		return &Result{Phase: PhaseFailed, Step: -1, Err: err}, err
	}

	logger := log.FromContext(ctx).WithValues("scenario", s.Name)
	ctx = log.IntoContext(ctx, logger)

	start := time.Now()

	result := &Result{
		Scenario: s.Name,
		Phase:    PhaseNotStarted,
		Step:     -1,
		Context:  NewRunContext(),
	}

	finish := func(phase Phase, err error) (*Result, error) {
		result.Phase = phase
		result.Err = err
		result.Duration = time.Since(start)

		if err != nil {
			logger.Info("scenario failed", "step", result.Step+1, "duration", result.Duration, "error", err.Error())
		} else {
			logger.Info("scenario completed", "steps", len(result.Steps), "duration", result.Duration)
		}

		return result, err
	}

	logger.Info("scenario start", "steps", len(s.Steps))

	result.Phase = PhaseAuthenticating

	if _, err := r.Authenticate(ctx, credentials, result.Context); err != nil {
		return finish(PhaseFailed, err)
	}

	result.Phase = PhaseRunning

	for i := range s.Steps {
		step := &s.Steps[i]

		logger.V(1).Info("step start", "step", i+1, "name", step.Name)

		stepResult, err := r.runStep(ctx, i, step, result.Context)

		result.Steps = append(result.Steps, *stepResult)

		if err != nil {
			result.Step = i

			return finish(PhaseFailed, err)
		}

		logger.V(1).Info("step done", "step", i+1, "name", step.Name, "status", stepResult.StatusCode, "duration", stepResult.Duration)
	}

	return finish(PhaseCompleted, nil)
}

// Authenticate exchanges credentials for a bearer token and stores it, along
// with any account details it carries, in the run context.
func (r *Runner) Authenticate(ctx context.Context, credentials Credentials, c *RunContext) (*AuthToken, error) {
	log := log.FromContext(ctx)

	fail := func(reason string, err error, resp *client.Response) (*AuthToken, error) {
		e := &StepError{
			Index:  -1,
			Step:   "authenticate",
			Kind:   ErrAuthentication,
			Reason: reason,
			Err:    err,
		}

		if resp != nil {
			e.Actual = reportedBody(resp)
			e.TraceID = resp.TraceID
		}

		return nil, e
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.sender.Send(ctx, &client.Request{
		Method: http.MethodPost,
		Path:   r.loginPath,
		Body:   credentials,
	})
	if err != nil {
		return fail("login request did not complete", err, nil)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail(fmt.Sprintf("login returned status %d", resp.StatusCode), nil, resp)
	}

	token, ok := tokenFrom(resp.Body)
	if !ok {
		return fail("login response carries no token", nil, resp)
	}

	auth := &AuthToken{
		Token: token,
	}

	claims, err := client.ParseToken(token)
	if err != nil {
		log.V(1).Info("treating login token as opaque", "error", err.Error())
	} else {
		if claims.Expired(r.now()) {
			return fail(fmt.Sprintf("login token expired at %s", claims.ExpiresAt), nil, resp)
		}

		auth.Claims = claims
	}

	c.Set(KeyAuthToken, token)

	if auth.Claims != nil {
		if auth.Claims.UserID != "" {
			c.Set(KeyAuthUserID, auth.Claims.UserID)
		}

		if auth.Claims.Role != "" {
			c.Set(KeyAuthRole, auth.Claims.Role)
		}
	}

	log.V(1).Info("authenticated", "email", credentials.Email)

	return auth, nil
}

// RunStep executes a single step outside of a scenario.  The run context
// must already hold a token unless the request is anonymous.
func (r *Runner) RunStep(ctx context.Context, step *Step, c *RunContext) (*StepResult, error) {
	return r.runStep(ctx, -1, step, c)
}

// prepared is a step with every placeholder resolved.
type prepared struct {
	request  *client.Request
	status   int
	body     any
	contains record.Record
}

func (r *Runner) runStep(ctx context.Context, index int, step *Step, c *RunContext) (*StepResult, error) {
	result := &StepResult{
		Index: index,
		Name:  step.Name,
	}

	fail := func(e *StepError) (*StepResult, error) {
		e.Index = index
		e.Step = step.Name
		result.Err = e

		return result, e
	}

	p, err := prepare(step, c)
	if err != nil {
		if missing := (*MissingValueError)(nil); errors.As(err, &missing) {
			return fail(&StepError{
				Kind:   ErrMissingContextValue,
				Reason: fmt.Sprintf("%q was not written by an earlier step", missing.Key),
			})
		}

		return fail(&StepError{Kind: ErrInvalidScenario, Err: err})
	}

	timeout := r.timeout
	if step.Timeout != nil && step.Timeout.Duration > 0 {
		timeout = step.Timeout.Duration
	}

	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := r.sender.Send(stepCtx, p.request)
	if err != nil {
		return fail(&StepError{Kind: ErrTransport, Err: err})
	}

	result.StatusCode = resp.StatusCode
	result.Duration = resp.Duration
	result.TraceID = resp.TraceID

	if e := r.check(ctx, p, resp); e != nil {
		e.TraceID = resp.TraceID

		return fail(e)
	}

	outputs, e := extract(step.Extract, resp)
	if e != nil {
		e.TraceID = resp.TraceID

		return fail(e)
	}

	// Outputs are only committed once the whole step has passed.
	for key, value := range outputs {
		c.Set(key, value)
	}

	result.Outputs = outputs

	return result, nil
}

// prepare resolves a step's templates.  Every referenced key is read here,
// before anything is sent.
//
//nolint:cyclop
func prepare(step *Step, c *RunContext) (*prepared, error) {
	method, err := ResolveString(step.Request.Method, c)
	if err != nil {
		return nil, err
	}

	if method == "" {
		return nil, fmt.Errorf("%w: step has no method", ErrInvalidScenario)
	}

	path, err := ResolveString(step.Request.Path, c)
	if err != nil {
		return nil, err
	}

	request := &client.Request{
		Method: strings.ToUpper(method),
		Path:   path,
		Header: http.Header{},
	}

	if len(step.Request.Query) > 0 {
		request.Query = url.Values{}

		for _, key := range slices.Sorted(maps.Keys(step.Request.Query)) {
			value, err := ResolveString(step.Request.Query[key], c)
			if err != nil {
				return nil, err
			}

			request.Query.Set(key, value)
		}
	}

	for _, key := range slices.Sorted(maps.Keys(step.Request.Headers)) {
		value, err := ResolveString(step.Request.Headers[key], c)
		if err != nil {
			return nil, err
		}

		request.Header.Set(key, value)
	}

	if !step.Request.Anonymous && request.Header.Get("Authorization") == "" {
		token, err := c.GetString(KeyAuthToken)
		if err != nil {
			return nil, err
		}

		request.Header.Set("Authorization", "Bearer "+token)
	}

	if step.Request.Body != nil {
		if request.Body, err = Resolve(step.Request.Body, c); err != nil {
			return nil, err
		}
	}

	p := &prepared{
		request: request,
		status:  step.Expect.Status,
	}

	if step.Expect.Body != nil {
		if p.body, err = Resolve(step.Expect.Body, c); err != nil {
			return nil, err
		}
	}

	if step.Expect.Contains != nil {
		contains, err := Resolve(step.Expect.Contains, c)
		if err != nil {
			return nil, err
		}

		p.contains, _ = record.AsRecord(contains)
	}

	return p, nil
}

func (r *Runner) check(ctx context.Context, p *prepared, resp *client.Response) *StepError {
	if p.status != 0 && resp.StatusCode != p.status {
		return &StepError{
			Kind:     ErrAssertion,
			Reason:   fmt.Sprintf("expected status %d, got %d", p.status, resp.StatusCode),
			Expected: p.status,
			Actual:   reportedBody(resp),
		}
	}

	if r.validator != nil {
		if err := r.validator.ValidateResponse(ctx, p.request.Method, p.request.Path, resp.StatusCode, resp.Raw); err != nil {
			return &StepError{
				Kind:   ErrAssertion,
				Reason: "response does not conform to the API description",
				Actual: reportedBody(resp),
				Err:    err,
			}
		}
	}

	if p.body != nil {
		if mismatches := record.Explain(resp.Body, p.body); len(mismatches) > 0 {
			return &StepError{
				Kind:       ErrAssertion,
				Reason:     "response body does not satisfy the expected shape",
				Expected:   p.body,
				Actual:     resp.Body,
				Mismatches: mismatches,
			}
		}
	}

	if p.contains != nil {
		list, ok := record.AsList(resp.Body)
		if !ok {
			return &StepError{
				Kind:     ErrAssertion,
				Reason:   "response body is not a list of records",
				Expected: p.contains,
				Actual:   reportedBody(resp),
			}
		}

		if !record.ExistsInList(list, p.contains) {
			return &StepError{
				Kind:     ErrAssertion,
				Reason:   fmt.Sprintf("none of %d records satisfies the expected shape", len(list)),
				Expected: p.contains,
				Actual:   resp.Body,
			}
		}
	}

	return nil
}

func extract(paths map[string]string, resp *client.Response) (map[string]any, *StepError) {
	if len(paths) == 0 {
		return nil, nil
	}

	outputs := make(map[string]any, len(paths))

	for _, key := range slices.Sorted(maps.Keys(paths)) {
		path := paths[key]

		value := gjson.GetBytes(resp.Raw, path)
		if !value.Exists() {
			return nil, &StepError{
				Kind:   ErrAssertion,
				Reason: fmt.Sprintf("output %q not found at %q", key, path),
				Actual: reportedBody(resp),
			}
		}

		outputs[key] = value.Value()
	}

	return outputs, nil
}

// tokenFrom accepts either a bare JSON string or an object with a token field.
func tokenFrom(body any) (string, bool) {
	if s, ok := body.(string); ok {
		return s, s != ""
	}

	if r, ok := record.AsRecord(body); ok {
		for _, key := range []string{"token", "access_token", "accessToken"} {
			if s, ok := r[key].(string); ok && s != "" {
				return s, true
			}
		}
	}

	return "", false
}

// reportedBody returns the decoded body, or the raw text when it is not JSON.
func reportedBody(resp *client.Response) any {
	if resp.Body != nil {
		return resp.Body
	}

	raw := string(resp.Raw)
	if len(raw) > maxReportedBody {
		raw = raw[:maxReportedBody] + "..."
	}

	return raw
}
