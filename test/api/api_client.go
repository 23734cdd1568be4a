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

//nolint:err113,revive // dynamic errors and naming conventions acceptable in test code
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/onsi/ginkgo/v2"

	"github.com/nscaledev/uni-library-contract/pkg/client"
	"github.com/nscaledev/uni-library-contract/pkg/library"
	"github.com/nscaledev/uni-library-contract/pkg/record"
	"github.com/nscaledev/uni-library-contract/pkg/scenario"
)

type APIClient struct {
	client    *client.Client
	config    *TestConfig
	endpoints *library.Endpoints
}

func NewAPIClientWithConfig(config *TestConfig, baseURL string) *APIClient {
	return &APIClient{
		client: client.New(client.Options{
			BaseURL:      baseURL,
			Timeout:      config.RequestTimeout,
			LogRequests:  config.LogRequests,
			LogResponses: config.LogResponses,
		}),
		config:    config,
		endpoints: library.NewEndpoints(),
	}
}

func (c *APIClient) SetAuthToken(token string) {
	c.client.SetAuthToken(token)
}

// Sender exposes the underlying collaborator so scenarios can share it.
func (c *APIClient) Sender() *client.Client {
	return c.client
}

func id(i int) string {
	return strconv.Itoa(i)
}

// logUnexpectedStatus logs an unexpected HTTP status code.
func logUnexpectedStatus(method, path string, expectedStatus int, resp *client.Response) {
	ginkgo.GinkgoWriter.Printf("[%s %s] UNEXPECTED STATUS expected=%d got=%d body=%s\n", method, path, expectedStatus, resp.StatusCode, string(resp.Raw))
	ginkgo.GinkgoWriter.Printf("TRACE CONTEXT: Use trace ID '%s' to search logs for this request\n", resp.TraceID)
}

// Raw sends a request with full control over headers, for negative testing.
// The status code is not checked.
func (c *APIClient) Raw(ctx context.Context, method, path string, query url.Values, header http.Header, body any) (*client.Response, error) {
	return c.client.Send(ctx, &client.Request{
		Method: method,
		Path:   path,
		Query:  query,
		Header: header,
		Body:   body,
	})
}

func (c *APIClient) doRequest(ctx context.Context, method, path string, query url.Values, body any, expectedStatus int) (*client.Response, error) {
	resp, err := c.client.Send(ctx, &client.Request{
		Method: method,
		Path:   path,
		Query:  query,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	if expectedStatus > 0 && resp.StatusCode != expectedStatus {
		logUnexpectedStatus(method, path, expectedStatus, resp)

		return resp, fmt.Errorf("%w: expected %d, got %d, body: %s (trace ID: %s)", client.ErrUnexpectedStatus, expectedStatus, resp.StatusCode, string(resp.Raw), resp.TraceID)
	}

	return resp, nil
}

// ResponseHandlerConfig configures how different status codes should be handled.
type ResponseHandlerConfig struct {
	ResourceType  string
	ResourceID    string
	AllowNotFound bool
}

// listResource is a generic helper for list operations.
func (c *APIClient) listResource(ctx context.Context, path string, filter library.Querier, config ResponseHandlerConfig) ([]record.Record, error) {
	var query url.Values

	if filter != nil {
		q, err := filter.Query()
		if err != nil {
			return nil, fmt.Errorf("building %s filter: %w", config.ResourceType, err)
		}

		query = q
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, query, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", config.ResourceType, err)
	}

	return handleResourceListResponse(resp, config)
}

// handleResourceListResponse handles common response patterns for resource listing endpoints.
func handleResourceListResponse(resp *client.Response, config ResponseHandlerConfig) ([]record.Record, error) {
	switch resp.StatusCode {
	case http.StatusOK:
		resources, err := record.DecodeList(resp.Raw)
		if err != nil {
			return nil, fmt.Errorf("unmarshaling %s response: %w", config.ResourceType, err)
		}

		return resources, nil
	case http.StatusNotFound:
		if config.AllowNotFound {
			return []record.Record{}, fmt.Errorf("%s '%s' not found (status: %d)", config.ResourceType, config.ResourceID, resp.StatusCode)
		}

		return nil, fmt.Errorf("%s '%s' not found (status: %d)", config.ResourceType, config.ResourceID, resp.StatusCode)
	case http.StatusForbidden:
		return nil, fmt.Errorf("%s access denied (status: %d)", config.ResourceType, resp.StatusCode)
	default:
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(resp.Raw))
	}
}

func (c *APIClient) getRecord(ctx context.Context, method, path string, body any, expectedStatus int, what string) (record.Record, error) {
	resp, err := c.doRequest(ctx, method, path, nil, body, expectedStatus)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}

	out, err := record.Decode(resp.Raw)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling %s response: %w", what, err)
	}

	return out, nil
}

// Login exchanges credentials for a bearer token.
func (c *APIClient) Login(ctx context.Context, credentials scenario.Credentials) (string, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, c.endpoints.Login(), nil, credentials, http.StatusOK)
	if err != nil {
		return "", fmt.Errorf("logging in: %w", err)
	}

	token, ok := resp.Body.(string)
	if !ok {
		return "", fmt.Errorf("login response is not a token: %s", string(resp.Raw))
	}

	return token, nil
}

// RegisterUser creates an account and returns its ID.
func (c *APIClient) RegisterUser(ctx context.Context, body record.Record) (int, error) {
	out, err := c.getRecord(ctx, http.MethodPost, c.endpoints.Register(), body, http.StatusCreated, "registering user")
	if err != nil {
		return 0, err
	}

	return recordID(out, "user_id")
}

func (c *APIClient) ListUsers(ctx context.Context, filter *library.UserFilter) ([]record.Record, error) {
	return c.listResource(ctx, c.endpoints.ListUsers(), filter, ResponseHandlerConfig{
		ResourceType: "users",
	})
}

func (c *APIClient) GetUser(ctx context.Context, userID int) (record.Record, error) {
	return c.getRecord(ctx, http.MethodGet, c.endpoints.GetUser(id(userID)), nil, http.StatusOK, "getting user")
}

func (c *APIClient) ActivateUser(ctx context.Context, userID int) error {
	_, err := c.doRequest(ctx, http.MethodPut, c.endpoints.ActivateUser(id(userID)), nil, nil, http.StatusOK)
	if err != nil {
		return fmt.Errorf("activating user: %w", err)
	}

	return nil
}

func (c *APIClient) DeactivateUser(ctx context.Context, userID int) error {
	_, err := c.doRequest(ctx, http.MethodPut, c.endpoints.DeactivateUser(id(userID)), nil, nil, http.StatusOK)
	if err != nil {
		return fmt.Errorf("deactivating user: %w", err)
	}

	return nil
}

func (c *APIClient) DeleteUser(ctx context.Context, userID int) error {
	_, err := c.doRequest(ctx, http.MethodDelete, c.endpoints.DeleteUser(id(userID)), nil, nil, http.StatusOK)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	return nil
}

// CreateBook creates a new book.
func (c *APIClient) CreateBook(ctx context.Context, body record.Record) (record.Record, error) {
	return c.getRecord(ctx, http.MethodPost, c.endpoints.CreateBook(), body, http.StatusCreated, "creating book")
}

// GetBook retrieves a specific book.
func (c *APIClient) GetBook(ctx context.Context, bookID int) (record.Record, error) {
	return c.getRecord(ctx, http.MethodGet, c.endpoints.GetBook(id(bookID)), nil, http.StatusOK, "getting book")
}

// ListBooks lists the catalogue, optionally filtered.
func (c *APIClient) ListBooks(ctx context.Context, filter *library.BookFilter) ([]record.Record, error) {
	return c.listResource(ctx, c.endpoints.ListBooks(), filter, ResponseHandlerConfig{
		ResourceType: "books",
	})
}

func (c *APIClient) UpdateBook(ctx context.Context, bookID int, body record.Record) error {
	_, err := c.doRequest(ctx, http.MethodPut, c.endpoints.UpdateBook(id(bookID)), nil, body, http.StatusOK)
	if err != nil {
		return fmt.Errorf("updating book: %w", err)
	}

	return nil
}

func (c *APIClient) DeleteBook(ctx context.Context, bookID int) error {
	_, err := c.doRequest(ctx, http.MethodDelete, c.endpoints.DeleteBook(id(bookID)), nil, nil, http.StatusOK)
	if err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}

	return nil
}

// AddStock adds a copy to a book and returns the copy's ID.
func (c *APIClient) AddStock(ctx context.Context, bookID, code int) (int, error) {
	out, err := c.getRecord(ctx, http.MethodPost, c.endpoints.AddStock(id(bookID)), library.StockPayload(code), http.StatusOK, "adding stock")
	if err != nil {
		return 0, err
	}

	return recordID(out, "book_stock_id")
}

func (c *APIClient) ListStock(ctx context.Context, bookID int, filter *library.StockFilter) ([]record.Record, error) {
	return c.listResource(ctx, c.endpoints.ListStock(id(bookID)), filter, ResponseHandlerConfig{
		ResourceType:  "stock",
		ResourceID:    id(bookID),
		AllowNotFound: true,
	})
}

func (c *APIClient) UpdateStockStatus(ctx context.Context, bookID, stockID int, status string) error {
	_, err := c.doRequest(ctx, http.MethodPut, c.endpoints.UpdateStockStatus(id(bookID), id(stockID)), nil, library.StockStatusPayload(status), http.StatusOK)
	if err != nil {
		return fmt.Errorf("updating stock status: %w", err)
	}

	return nil
}

func (c *APIClient) RemoveStock(ctx context.Context, bookID, stockID int) error {
	_, err := c.doRequest(ctx, http.MethodDelete, c.endpoints.RemoveStock(id(bookID), id(stockID)), nil, nil, http.StatusOK)
	if err != nil {
		return fmt.Errorf("removing stock: %w", err)
	}

	return nil
}

// CreateReservation reserves a book for the authenticated account.
func (c *APIClient) CreateReservation(ctx context.Context, bookID, days int) (record.Record, error) {
	return c.getRecord(ctx, http.MethodPost, c.endpoints.CreateReservation(), library.ReservationPayload(bookID, days), http.StatusCreated, "creating reservation")
}

func (c *APIClient) ListReservations(ctx context.Context, filter *library.ReservationFilter) ([]record.Record, error) {
	return c.listResource(ctx, c.endpoints.ListReservations(), filter, ResponseHandlerConfig{
		ResourceType: "reservations",
	})
}

// CreateLoan lends a copy against a reservation.
func (c *APIClient) CreateLoan(ctx context.Context, stockID, reservationID int) (record.Record, error) {
	return c.getRecord(ctx, http.MethodPost, c.endpoints.CreateLoan(), library.LoanPayload(stockID, reservationID), http.StatusCreated, "creating loan")
}

func (c *APIClient) FinishLoan(ctx context.Context, loanID int) error {
	_, err := c.doRequest(ctx, http.MethodPut, c.endpoints.FinishLoan(id(loanID)), nil, nil, http.StatusOK)
	if err != nil {
		return fmt.Errorf("finishing loan: %w", err)
	}

	return nil
}

// recordID reads an integer identifier from a decoded response.
func recordID(r record.Record, field string) (int, error) {
	switch v := r[field].(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	}

	return 0, fmt.Errorf("response field %q is not an identifier: %v", field, r[field])
}
