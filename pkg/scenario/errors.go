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
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/nscaledev/uni-library-contract/pkg/client"
	"github.com/nscaledev/uni-library-contract/pkg/record"
)

var (
	// ErrAuthentication means the login call failed, nothing else runs.
	ErrAuthentication = errors.New("authentication failure")

	// ErrAssertion means a response did not meet a step's expectations.
	ErrAssertion = errors.New("assertion failure")

	// ErrMissingContextValue means a step referenced a value no earlier step
	// produced.  This is a fault in the scenario, not the remote service.
	ErrMissingContextValue = errors.New("missing context value")

	// ErrTransport means the request never completed.  It is the same error
	// the client returns so either may be tested for.
	ErrTransport = client.ErrTransport

	// ErrInvalidScenario means a scenario definition is malformed.
	ErrInvalidScenario = errors.New("invalid scenario")
)

// MissingValueError is raised when reading a key that was never written.
type MissingValueError struct {
	Key string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("%s: %q was not written by an earlier step", ErrMissingContextValue, e.Key)
}

// Is allows errors.Is(err, ErrMissingContextValue).
func (e *MissingValueError) Is(target error) bool {
	return target == ErrMissingContextValue
}

// StepError describes why a step, and hence its scenario, failed.
type StepError struct {
	// Index is the zero based step position, or -1 for authentication and
	// steps run outside of a scenario.
	Index int
	Step  string
	// Kind is one of the sentinel errors above.
	Kind   error
	Reason string
	// Expected and Actual are dumped for diagnosis when set.
	Expected   any
	Actual     any
	Mismatches []record.Mismatch
	TraceID    string
	// Err is the underlying cause, if any.
	Err error
}

func (e *StepError) Error() string {
	var b strings.Builder

	if e.Index >= 0 {
		fmt.Fprintf(&b, "step %d (%s): ", e.Index+1, e.Step)
	} else if e.Step != "" {
		fmt.Fprintf(&b, "%s: ", e.Step)
	}

	parts := make([]string, 0, 3)

	// Causes that already carry the kind, e.g. client transport errors,
	// would otherwise repeat it.
	if e.Err == nil || !errors.Is(e.Err, e.Kind) {
		parts = append(parts, e.Kind.Error())
	}

	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}

	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	b.WriteString(strings.Join(parts, ": "))

	if e.TraceID != "" {
		fmt.Fprintf(&b, " (trace ID: %s)", e.TraceID)
	}

	if len(e.Mismatches) > 0 {
		b.WriteString("\n")
		b.WriteString(record.FormatMismatches(e.Mismatches))
	}

	return b.String()
}

func (e *StepError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

// Diff returns a human readable diff of the expected and actual values.
func (e *StepError) Diff() string {
	if e.Expected == nil && e.Actual == nil {
		return ""
	}

	return cmp.Diff(e.Expected, e.Actual)
}
