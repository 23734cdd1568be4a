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

//go:build contracts

package library_test

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"

	. "github.com/onsi/ginkgo/v2" //nolint:revive
	. "github.com/onsi/gomega"    //nolint:revive
	"github.com/pact-foundation/pact-go/v2/consumer"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/pact-foundation/pact-go/v2/models"

	"github.com/nscaledev/uni-library-contract/pkg/client"
	"github.com/nscaledev/uni-library-contract/pkg/library"
	"github.com/nscaledev/uni-library-contract/pkg/openapi"
	"github.com/nscaledev/uni-library-contract/pkg/record"
	"github.com/nscaledev/uni-library-contract/pkg/scenario"
)

const token = "consumer-contract-token"

var testingT *testing.T //nolint:gochecknoglobals

func TestContracts(t *testing.T) { //nolint:paralleltest
	testingT = t

	RegisterFailHandler(Fail)
	RunSpecs(t, "Library Consumer Contract Suite")
}

// createRunner creates a scenario runner for the mock server that also checks
// responses against the published API description.
func createRunner(ctx context.Context, config consumer.MockServerConfig) (*scenario.Runner, error) {
	url := fmt.Sprintf("http://%s", net.JoinHostPort(config.Host, fmt.Sprintf("%d", config.Port)))

	validator, err := openapi.NewLibraryValidator(ctx)
	if err != nil {
		return nil, err
	}

	sender := client.New(client.Options{
		BaseURL: url,
	})

	return scenario.NewRunner(sender, &scenario.Options{
		Validator: validator,
	}), nil
}

func authenticated() *scenario.RunContext {
	c := scenario.NewRunContext()
	c.Set(scenario.KeyAuthToken, token)

	return c
}

func book() map[string]interface{} {
	return map[string]interface{}{
		"id":       matchers.Integer(1),
		"title":    matchers.String("Dom Casmurro"),
		"synopsis": matchers.String("Bentinho recalls his life"),
		"amount":   matchers.Integer(2),
		"author": map[string]interface{}{
			"id":   matchers.Integer(library.AuthorID),
			"name": matchers.String("José"),
		},
		"genres": matchers.EachLike(map[string]interface{}{
			"id":   matchers.Integer(1),
			"name": matchers.String("Romance"),
		}, 1),
	}
}

var _ = Describe("Library Service Contract", func() {
	var (
		pact      *consumer.V4HTTPMockProvider
		ctx       context.Context
		endpoints *library.Endpoints
	)

	BeforeEach(func() {
		var err error
		pact, err = consumer.NewV4Pact(consumer.MockHTTPProviderConfig{
			Consumer: "library-contract",
			Provider: "library-api",
			PactDir:  "../pacts",
		})
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
		endpoints = library.NewEndpoints()
	})

	Describe("Books", func() {
		Context("when a book exists", func() {
			It("reads the book with its author and genres", func() {
				pact.AddInteraction().
					GivenWithParameter(models.ProviderState{
						Name: "book exists",
						Parameters: map[string]interface{}{
							"bookID": 1,
						},
					}).
					UponReceiving("a request for a book").
					WithRequest(http.MethodGet, endpoints.GetBook("1"), func(b *consumer.V4RequestBuilder) {
						b.Header("Authorization", matchers.Like("Bearer "+token))
					}).
					WillRespondWith(http.StatusOK, func(b *consumer.V4ResponseBuilder) {
						b.JSONBody(book())
					})

				test := func(config consumer.MockServerConfig) error {
					runner, err := createRunner(ctx, config)
					if err != nil {
						return fmt.Errorf("creating runner: %w", err)
					}

					c := authenticated()
					c.Set(library.KeyBookID, 1)

					step := &scenario.Step{
						Name: "get-book",
						Request: scenario.Request{
							Method: http.MethodGet,
							Path:   endpoints.GetBook(scenario.Ref(library.KeyBookID)),
						},
						Expect: scenario.Expectation{
							Status: http.StatusOK,
							Body: record.Record{
								"id":     scenario.Ref(library.KeyBookID),
								"author": library.Author(),
							},
						},
						Extract: map[string]string{
							"title": "title",
						},
					}

					result, err := runner.RunStep(ctx, step, c)
					if err != nil {
						return fmt.Errorf("reading book: %w", err)
					}

					Expect(result.Outputs).To(HaveKeyWithValue("title", "Dom Casmurro"))

					return nil
				}

				Expect(pact.ExecuteTest(testingT, test)).To(Succeed())
			})
		})

		Context("when filtering the catalogue", func() {
			It("lists books matching the title", func() {
				pact.AddInteraction().
					Given("books exist").
					UponReceiving("a request for books by title").
					WithRequest(http.MethodGet, endpoints.ListBooks(), func(b *consumer.V4RequestBuilder) {
						b.Header("Authorization", matchers.Like("Bearer "+token))
						b.Query("title", matchers.String("Dom"))
					}).
					WillRespondWith(http.StatusOK, func(b *consumer.V4ResponseBuilder) {
						b.JSONBody(matchers.EachLike(book(), 1))
					})

				test := func(config consumer.MockServerConfig) error {
					runner, err := createRunner(ctx, config)
					if err != nil {
						return fmt.Errorf("creating runner: %w", err)
					}

					query, err := library.QueryMap(&library.BookFilter{Title: "Dom"})
					if err != nil {
						return err
					}

					step := &scenario.Step{
						Name: "list-books",
						Request: scenario.Request{
							Method: http.MethodGet,
							Path:   endpoints.ListBooks(),
							Query:  query,
						},
						Expect: scenario.Expectation{
							Status: http.StatusOK,
							Contains: record.Record{
								"title":  "Dom Casmurro",
								"author": library.Author(),
							},
						},
					}

					if _, err := runner.RunStep(ctx, step, authenticated()); err != nil {
						return fmt.Errorf("listing books: %w", err)
					}

					return nil
				}

				Expect(pact.ExecuteTest(testingT, test)).To(Succeed())
			})
		})
	})

	Describe("Reservations", func() {
		Context("when a stocked book exists", func() {
			It("creates a pending reservation", func() {
				pact.AddInteraction().
					GivenWithParameter(models.ProviderState{
						Name: "book has available stock",
						Parameters: map[string]interface{}{
							"bookID": 1,
						},
					}).
					UponReceiving("a request to reserve a book").
					WithRequest(http.MethodPost, endpoints.CreateReservation(), func(b *consumer.V4RequestBuilder) {
						b.Header("Authorization", matchers.Like("Bearer "+token))
						b.JSONBody(map[string]interface{}{
							"book_id":       matchers.Integer(1),
							"borrowed_days": matchers.Integer(library.DefaultBorrowPeriodDays),
						})
					}).
					WillRespondWith(http.StatusCreated, func(b *consumer.V4ResponseBuilder) {
						b.JSONBody(map[string]interface{}{
							"id":            matchers.Integer(7),
							"reserved_at":   matchers.Timestamp(),
							"expires_at":    matchers.Timestamp(),
							"status":        matchers.String(library.ReservationPending),
							"borrowed_days": matchers.Integer(library.DefaultBorrowPeriodDays),
							"fk_user_id":    matchers.Integer(1),
							"fk_book_id":    matchers.Integer(1),
						})
					})

				test := func(config consumer.MockServerConfig) error {
					runner, err := createRunner(ctx, config)
					if err != nil {
						return fmt.Errorf("creating runner: %w", err)
					}

					c := authenticated()
					c.Set(library.KeyBookID, 1)

					step := &scenario.Step{
						Name: "create-reservation",
						Request: scenario.Request{
							Method: http.MethodPost,
							Path:   endpoints.CreateReservation(),
							Body:   library.ReservationPayload(scenario.Ref(library.KeyBookID), library.DefaultBorrowPeriodDays),
						},
						Expect: scenario.Expectation{
							Status: http.StatusCreated,
							Body: record.Record{
								"status":     library.ReservationPending,
								"fk_book_id": scenario.Ref(library.KeyBookID),
							},
						},
						Extract: map[string]string{
							library.KeyReservationID: "id",
						},
					}

					if _, err := runner.RunStep(ctx, step, c); err != nil {
						return fmt.Errorf("creating reservation: %w", err)
					}

					Expect(c.Has(library.KeyReservationID)).To(BeTrue())

					return nil
				}

				Expect(pact.ExecuteTest(testingT, test)).To(Succeed())
			})
		})

		Context("when the caller is a reader", func() {
			It("is refused the reservation listing", func() {
				pact.AddInteraction().
					Given("caller is a reader").
					UponReceiving("a reader request for reservations").
					WithRequest(http.MethodGet, endpoints.ListReservations(), func(b *consumer.V4RequestBuilder) {
						b.Header("Authorization", matchers.Like("Bearer "+token))
					}).
					WillRespondWith(http.StatusForbidden, func(b *consumer.V4ResponseBuilder) {
						b.JSONBody(map[string]interface{}{
							"error": matchers.String("Access denied"),
						})
					})

				test := func(config consumer.MockServerConfig) error {
					runner, err := createRunner(ctx, config)
					if err != nil {
						return fmt.Errorf("creating runner: %w", err)
					}

					step := &scenario.Step{
						Name: "list-reservations",
						Request: scenario.Request{
							Method: http.MethodGet,
							Path:   endpoints.ListReservations(),
						},
						Expect: scenario.Expectation{
							Status: http.StatusForbidden,
						},
					}

					if _, err := runner.RunStep(ctx, step, authenticated()); err != nil {
						return fmt.Errorf("listing reservations: %w", err)
					}

					return nil
				}

				Expect(pact.ExecuteTest(testingT, test)).To(Succeed())
			})
		})
	})
})
