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
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spjmurray/go-util/pkg/set"
)

// authKeys are written by authentication, before any step runs.  The user
// ID and role are only known when the token is a JWT, so they are not
// guaranteed and a step reading them fails validation.
func authKeys() []string {
	return []string{KeyAuthToken}
}

// Validate checks a scenario without running it.  Every key a step reads
// must be produced by authentication or extracted by an earlier step.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: scenario has no name", ErrInvalidScenario)
	}

	produced := authKeys()
	names := map[string]int{}

	for i := range s.Steps {
		step := &s.Steps[i]

		fail := func(kind error, format string, args ...any) error {
			return &StepError{
				Index:  i,
				Step:   step.Name,
				Kind:   kind,
				Reason: fmt.Sprintf(format, args...),
			}
		}

		if step.Name == "" {
			return fail(ErrInvalidScenario, "step has no name")
		}

		if previous, ok := names[step.Name]; ok {
			return fail(ErrInvalidScenario, "name already used by step %d", previous+1)
		}

		names[step.Name] = i

		if step.Request.Method == "" || step.Request.Path == "" {
			return fail(ErrInvalidScenario, "request requires a method and a path")
		}

		if status := step.Expect.Status; status != 0 && (status < 100 || status > 599) {
			return fail(ErrInvalidScenario, "invalid expected status %d", status)
		}

		missing := set.New[string](step.References()...).Difference(set.New[string](produced...))

		var keys []string

		for key := range missing.All() {
			keys = append(keys, key)
		}

		if len(keys) > 0 {
			slices.Sort(keys)

			return fail(ErrMissingContextValue, "%s not written by an earlier step", strings.Join(keys, ", "))
		}

		produced = append(produced, slices.Collect(maps.Keys(step.Extract))...)
	}

	return nil
}
