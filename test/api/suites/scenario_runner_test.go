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

//nolint:testpackage,revive // test package in suites is standard for these tests, dot imports standard for Ginkgo
package suites

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nscaledev/uni-library-contract/pkg/library"
	"github.com/nscaledev/uni-library-contract/pkg/scenario"
)

var _ = Describe("Contract Workflows", func() {
	Context("When running the built-in workflows", func() {
		for _, s := range library.Workflows() {
			It("should complete "+s.Name, func() {
				result, err := newRunner().Run(ctx, s, credentials)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Phase).To(Equal(scenario.PhaseCompleted))
				Expect(result.Step).To(Equal(-1))
				Expect(result.Steps).To(HaveLen(len(s.Steps)))

				for _, step := range result.Steps {
					GinkgoWriter.Printf("%s: %d in %v\n", step.Name, step.StatusCode, step.Duration)
				}
			})
		}
	})

	Context("When a workflow is misordered", func() {
		Describe("Given an update before the create", func() {
			It("should fail on the missing identifier", func() {
				full := library.BookLifecycle()

				s := &scenario.Scenario{
					Name:  "update-before-create",
					Steps: full.Steps[2:3],
				}

				Expect(s.Validate()).To(MatchError(scenario.ErrMissingContextValue))

				result, err := newRunner().Run(ctx, s, credentials)
				Expect(err).To(MatchError(scenario.ErrMissingContextValue))
				Expect(result.Phase).To(Equal(scenario.PhaseFailed))
				Expect(result.Step).To(Equal(0))
			})
		})
	})

	Context("When the credentials are wrong", func() {
		It("should fail authentication before any step runs", func() {
			result, err := newRunner().Run(ctx, library.BookLifecycle(), scenario.Credentials{
				Email:    credentials.Email,
				Password: "not-the-password",
			})

			Expect(err).To(MatchError(scenario.ErrAuthentication))
			Expect(result.Phase).To(Equal(scenario.PhaseFailed))
			Expect(result.Steps).To(BeEmpty())
		})
	})
})
