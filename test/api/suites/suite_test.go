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

//nolint:testpackage,revive // test package in suites is standard for these tests, dot imports standard for Ginkgo
package suites

import (
	"context"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nscaledev/uni-library-contract/pkg/openapi"
	"github.com/nscaledev/uni-library-contract/pkg/scenario"
	"github.com/nscaledev/uni-library-contract/pkg/testing/fakelibrary"
	"github.com/nscaledev/uni-library-contract/test/api"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

var (
	client      *api.APIClient
	ctx         context.Context
	config      *api.TestConfig
	baseURL     string
	credentials scenario.Credentials
	validator   *openapi.Validator
	fake        *fakelibrary.Server
)

var _ = BeforeSuite(func() {
	log.SetLogger(GinkgoLogr)

	var err error

	config, err = api.LoadTestConfig()
	Expect(err).NotTo(HaveOccurred())

	baseURL = config.BaseURL
	credentials = config.Credentials()

	if config.UseFake() {
		var server *httptest.Server

		server, fake = fakelibrary.Start()
		baseURL = server.URL

		credentials = scenario.Credentials{
			Email:    fakelibrary.AdminEmail,
			Password: fakelibrary.AdminPassword,
		}

		GinkgoWriter.Printf("API_BASE_URL unset, running against the fake at %s\n", baseURL)

		DeferCleanup(server.Close)
	}

	if config.OpenAPISpec != "" {
		validator, err = openapi.LoadValidator(context.Background(), config.OpenAPISpec)
	} else {
		validator, err = openapi.NewLibraryValidator(context.Background())
	}

	Expect(err).NotTo(HaveOccurred())
})

var _ = BeforeEach(func() {
	ctx = context.Background()
	client = api.NewAPIClientWithConfig(config, baseURL)

	token, err := client.Login(ctx, credentials)
	Expect(err).NotTo(HaveOccurred())

	client.SetAuthToken(token)
})

// newRunner returns a scenario runner sharing the suite's endpoint.
func newRunner() *scenario.Runner {
	return scenario.NewRunner(api.NewAPIClientWithConfig(config, baseURL).Sender(), &scenario.Options{
		StepTimeout: config.RequestTimeout,
		Validator:   validator,
	})
}

func TestSuites(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Test Suites")
}
