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

// Package fakelibrary is an in-memory implementation of the library API.
// It exists so scenarios, workflows and suites can be exercised without a
// deployed service, and it deliberately reorders nested lists and reformats
// timestamps in list responses so consumers that depend on representation
// details are caught early.
package fakelibrary

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/nscaledev/uni-library-contract/pkg/openapi"
)

const (
	AdminEmail    = "admin@library.test"
	AdminPassword = "admin-password"
	UserEmail     = "reader@library.test"
	UserPassword  = "reader-password"

	RoleAdmin = "admin"
	RoleUser  = "user"

	tokenLifetime = 24 * time.Hour

	// reservationWindow is how long a reservation may wait for collection.
	reservationWindow = 72 * time.Hour

	// collectionGrace allows collection shortly after a reservation expires.
	collectionGrace = 30 * time.Minute

	// maxActive bounds pending reservations plus open loans per account.
	maxActive = 5

	// listTimestampLayout mimics PostgreSQL text output.
	listTimestampLayout = "2006-01-02 15:04:05.999999-07"
)

// listZone is the zone list responses render timestamps in.
//
//nolint:gochecknoglobals
var listZone = time.FixedZone("-03", -3*60*60)

type Role struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Author struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Roles returns the account roles known to the server.
func Roles() []Role {
	return []Role{
		{ID: 1, Name: RoleAdmin},
		{ID: 2, Name: RoleUser},
	}
}

// Genres returns the genre catalogue.
func Genres() []Genre {
	return []Genre{
		{ID: 1, Name: "Romance"},
		{ID: 2, Name: "Aventura"},
		{ID: 3, Name: "Mistério"},
		{ID: 4, Name: "Fantasia"},
		{ID: 5, Name: "Ficção Científica"},
	}
}

// Authors returns the author catalogue.
func Authors() []Author {
	return []Author{
		{ID: 1, Name: "Machado de Assis"},
		{ID: 2, Name: "José"},
	}
}

type account struct {
	id       int
	name     string
	cpf      string
	phone    string
	email    string
	password string
	role     Role
	active   bool
}

type book struct {
	id       int
	title    string
	synopsis string
	amount   int
	authorID int
	genreIDs []int
}

type stock struct {
	id     int
	status string
	code   int
	bookID int
}

type reservation struct {
	id           int
	reservedAt   time.Time
	expiresAt    time.Time
	borrowedDays int
	status       string
	userID       int
	adminID      *int
	bookID       int
}

type loan struct {
	id            int
	loanedAt      time.Time
	returnBy      time.Time
	returnedAt    *time.Time
	status        string
	adminID       int
	stockID       int
	reservationID int
}

// Option customizes a server.
type Option func(*Server)

// WithClock overrides the time source, for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// Server is the fake API.  All state lives behind a single lock.
type Server struct {
	lock         sync.Mutex
	secret       []byte
	now          func() time.Time
	ids          map[string]int
	accounts     map[int]*account
	books        map[int]*book
	stock        map[int]*stock
	reservations map[int]*reservation
	loans        map[int]*loan
	router       chi.Router
}

// New returns a server seeded with an administrator and a regular reader.
func New(options ...Option) *Server {
	secret := make([]byte, 32)
	_, _ = rand.Read(secret)

	s := &Server{
		secret:       secret,
		now:          time.Now,
		ids:          map[string]int{},
		accounts:     map[int]*account{},
		books:        map[int]*book{},
		stock:        map[int]*stock{},
		reservations: map[int]*reservation{},
		loans:        map[int]*loan{},
	}

	for _, o := range options {
		o(s)
	}

	roles := Roles()

	s.addAccount(&account{name: "Administrador", cpf: "64801920012", phone: "(48)98484-0000", email: AdminEmail, password: AdminPassword, role: roles[0], active: true})
	s.addAccount(&account{name: "Babau", cpf: "32514250056", phone: "(48)98484-5555", email: UserEmail, password: UserPassword, role: roles[1], active: true})

	s.router = s.routes()

	return s
}

// Start serves a new fake on a loopback address.  Close the returned server
// when done.
func Start(options ...Option) (*httptest.Server, *Server) {
	s := New(options...)

	return httptest.NewServer(s), s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.Recoverer)

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})

	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/openapi.yaml", serveDocument)
		r.Post("/login", s.login)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/books/", s.listBooks)
			r.Get("/books/{id}", s.getBook)
			r.Post("/reservations/create", s.createReservation)

			r.Group(func(r chi.Router) {
				r.Use(requireRole(RoleAdmin))

				r.Post("/register", s.register)
				r.Get("/users/", s.listUsers)
				r.Get("/users/{id}", s.getUser)
				r.Put("/users/activate/{id}", s.toggleUser(true))
				r.Put("/users/deactivate/{id}", s.toggleUser(false))
				r.Delete("/users/delete/{id}", s.deleteUser)

				r.Post("/books/create", s.createBook)
				r.Put("/books/update/{id}", s.updateBook)
				r.Delete("/books/delete/{id}", s.deleteBook)
				r.Get("/books/{id}/stock/", s.listStock)
				r.Post("/books/{id}/stock/add", s.addStock)
				r.Put("/books/{id}/stock/update-status/{stockId}", s.updateStockStatus)
				r.Delete("/books/{id}/stock/remove/{stockId}", s.removeStock)

				r.Get("/reservations/", s.listReservations)
				r.Post("/loans/create", s.createLoan)
				r.Put("/loans/finish-loan/{id}", s.finishLoan)
			})
		})
	})

	return router
}

func serveDocument(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openapi.Document())
}

// nextID allocates identifiers per resource kind, starting at 1.
func (s *Server) nextID(kind string) int {
	s.ids[kind]++

	return s.ids[kind]
}

func (s *Server) addAccount(a *account) {
	a.id = s.nextID("account")
	s.accounts[a.id] = a
}

// IssueToken signs a token as the server would at login.  It lets tests
// forge expired tokens or tokens for accounts that no longer exist.
func (s *Server) IssueToken(accountID int, role string, expires time.Time) (string, error) {
	claims := &jwt.RegisteredClaims{
		Issuer:    strconv.Itoa(accountID),
		Subject:   role,
		IssuedAt:  jwt.NewNumericDate(s.now()),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

type principal struct {
	accountID int
	role      string
}

type principalKey struct{}

func principalFrom(ctx context.Context) principal {
	//nolint:forcetypeassert
	return ctx.Value(principalKey{}).(principal)
}

// authenticate accepts a valid bearer token for an existing, active account.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		claims := &jwt.RegisteredClaims{}

		keyFunc := func(*jwt.Token) (any, error) {
			return s.secret, nil
		}

		if _, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, keyFunc, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired()); err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		id, err := strconv.Atoi(claims.Issuer)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		s.lock.Lock()
		a, ok := s.accounts[id]
		active := ok && a.active
		s.lock.Unlock()

		if !active {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey{}, principal{accountID: id, role: claims.Subject})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if principalFrom(r.Context()).role != role {
				writeError(w, http.StatusForbidden, "Access denied")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

var errEmptyBody = errors.New("request body is empty")

func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return errEmptyBody
	}

	return json.NewDecoder(r.Body).Decode(v)
}

// pathID reads a positive integer path parameter.
func pathID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}

// contains is a case insensitive substring test, empty filters match all.
func contains(s, filter string) bool {
	return filter == "" || strings.Contains(strings.ToLower(s), strings.ToLower(filter))
}

func listTimestamp(t time.Time) string {
	return t.In(listZone).Format(listTimestampLayout)
}
