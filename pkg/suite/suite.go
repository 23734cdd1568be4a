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

// Package suite runs a set of scenarios against a library API and reports
// on the outcome.  It is what the command line tool drives.
package suite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"slices"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/nscaledev/uni-library-contract/pkg/client"
	"github.com/nscaledev/uni-library-contract/pkg/constants"
	"github.com/nscaledev/uni-library-contract/pkg/library"
	"github.com/nscaledev/uni-library-contract/pkg/openapi"
	"github.com/nscaledev/uni-library-contract/pkg/options"
	"github.com/nscaledev/uni-library-contract/pkg/scenario"
	"github.com/nscaledev/uni-library-contract/pkg/testing/fakelibrary"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

var (
	ErrUnknownScenario   = errors.New("unknown scenario")
	ErrDuplicateScenario = errors.New("duplicate scenario name")
	ErrNoScenarios       = errors.New("no scenarios selected")
)

// Select returns the built in workflows named, or all of them, followed by
// any defined in the directory.
func Select(names []string, dir string) ([]*scenario.Scenario, error) {
	if len(names) == 0 {
		names = library.WorkflowNames()
	}

	var out []*scenario.Scenario

	for _, name := range names {
		s, ok := library.Workflow(name)
		if !ok {
			return nil, fmt.Errorf("%w %q, known scenarios are %s", ErrUnknownScenario, name, strings.Join(library.WorkflowNames(), ", "))
		}

		out = append(out, s)
	}

	if dir != "" {
		loaded, err := scenario.LoadDir(dir)
		if err != nil {
			return nil, err
		}

		out = append(out, loaded...)
	}

	seen := map[string]bool{}

	for _, s := range out {
		if seen[s.Name] {
			return nil, fmt.Errorf("%w %q", ErrDuplicateScenario, s.Name)
		}

		seen[s.Name] = true
	}

	if len(out) == 0 {
		return nil, ErrNoScenarios
	}

	return out, nil
}

// Validate statically checks every scenario, reporting all problems at once.
func Validate(scenarios []*scenario.Scenario) error {
	var errs []error

	for _, s := range scenarios {
		if err := s.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("scenario %s: %w", s.Name, err))
		}
	}

	return utilerrors.NewAggregate(errs)
}

// Suite runs scenarios against a single API endpoint.
type Suite struct {
	runner      *scenario.Runner
	credentials scenario.Credentials
	concurrency int
	baseURL     string
	fake        *httptest.Server
}

// New creates a suite from command line options.  When asked to, an in
// process fake is started and the suite's credentials default to its
// administrator, Close must be called to stop it.
func New(ctx context.Context, o *options.Options) (*Suite, error) {
	s := &Suite{
		credentials: o.Credentials(),
		concurrency: max(o.Concurrency, 1),
		baseURL:     o.BaseURL,
	}

	if o.Fake {
		server, _ := fakelibrary.Start()

		s.fake = server
		s.baseURL = server.URL

		if s.credentials.Email == "" {
			s.credentials = scenario.Credentials{
				Email:    fakelibrary.AdminEmail,
				Password: fakelibrary.AdminPassword,
			}
		}
	}

	runnerOptions := &scenario.Options{
		StepTimeout: o.StepTimeout,
	}

	if o.SchemaValidation {
		validator, err := newValidator(ctx, o.OpenAPISpec)
		if err != nil {
			s.Close()

			return nil, err
		}

		runnerOptions.Validator = validator
	}

	c := client.New(client.Options{
		BaseURL:      s.baseURL,
		Timeout:      o.RequestTimeout,
		LogRequests:  o.LogRequests,
		LogResponses: o.LogResponses,
		UserAgent:    constants.VersionString(),
	})

	s.runner = scenario.NewRunner(c, runnerOptions)

	return s, nil
}

func newValidator(ctx context.Context, path string) (*openapi.Validator, error) {
	if path != "" {
		return openapi.LoadValidator(ctx, path)
	}

	return openapi.NewLibraryValidator(ctx)
}

// BaseURL is the endpoint scenarios are run against.
func (s *Suite) BaseURL() string {
	return s.baseURL
}

// Close releases anything the suite started.
func (s *Suite) Close() {
	if s.fake != nil {
		s.fake.Close()
	}
}

// Run executes scenarios, each with its own run context, up to the suite's
// concurrency.  A failing scenario does not stop the others, every failure
// is returned as an aggregate.
func (s *Suite) Run(ctx context.Context, scenarios []*scenario.Scenario) (*Report, error) {
	logger := log.FromContext(ctx)

	report := &Report{
		BaseURL: s.baseURL,
		Results: make([]*scenario.Result, len(scenarios)),
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)

	for i, sc := range scenarios {
		group.Go(func() error {
			// Errors are collected from results rather than returned,
			// returning would cancel the scenarios still running.
			result, _ := s.runner.Run(groupCtx, sc, s.credentials)
			report.Results[i] = result

			return nil
		})
	}

	//nolint:errcheck
	group.Wait()

	var errs []error

	for _, result := range report.Results {
		if !result.Passed() {
			errs = append(errs, fmt.Errorf("scenario %s: %w", result.Scenario, result.Err))
		}
	}

	logger.Info("suite complete", "scenarios", len(scenarios), "failed", len(errs))

	return report, utilerrors.NewAggregate(errs)
}

// Report summarizes a suite run.
type Report struct {
	BaseURL string
	Results []*scenario.Result
}

// Failed returns the results of scenarios that did not complete.
func (r *Report) Failed() []*scenario.Result {
	return slices.DeleteFunc(slices.Clone(r.Results), func(result *scenario.Result) bool {
		return result.Passed()
	})
}

// Write renders a human readable summary.
func (r *Report) Write(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Contract run against %s\n", r.BaseURL)

	for _, result := range r.Results {
		status := "PASS"
		if !result.Passed() {
			status = "FAIL"
		}

		fmt.Fprintf(&b, "%s %s (%d steps, %s)\n", status, result.Scenario, len(result.Steps), result.Duration.Round(time.Millisecond))

		if result.Err != nil {
			fmt.Fprintf(&b, "    %s\n", strings.ReplaceAll(result.Err.Error(), "\n", "\n    "))

			var stepErr *scenario.StepError
			if errors.As(result.Err, &stepErr) {
				if diff := stepErr.Diff(); diff != "" {
					fmt.Fprintf(&b, "    diff (-expected +actual):\n    %s\n", strings.ReplaceAll(diff, "\n", "\n    "))
				}
			}
		}
	}

	failed := len(r.Failed())

	fmt.Fprintf(&b, "%d passed, %d failed\n", len(r.Results)-failed, failed)

	_, err := io.WriteString(w, b.String())

	return err
}

// Log records the outcome of each scenario as structured log entries.
func (r *Report) Log(logger logr.Logger) {
	logger = logger.WithValues("baseURL", r.BaseURL)

	for _, result := range r.Results {
		if result.Passed() {
			logger.Info("scenario passed", "scenario", result.Scenario, "steps", len(result.Steps), "duration", result.Duration)
			continue
		}

		logger.Error(result.Err, "scenario failed", "scenario", result.Scenario, "phase", result.Phase, "step", result.Step+1)
	}
}
