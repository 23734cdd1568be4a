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

package client

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned when a bearer token cannot be decoded.
var ErrMalformedToken = errors.New("malformed token")

// Claims are the parts of a login token the tests care about.  The library
// API records the account ID as the issuer and its role as the subject.
type Claims struct {
	UserID    string
	Role      string
	ExpiresAt *time.Time
}

// Expired reports whether the token is no longer valid at the given time.
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// ParseToken decodes a token without verifying its signature, the signing
// key belongs to the server and the tests only need to inspect the claims.
func ParseToken(token string) (*Claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))

	parsed, _, err := jwt.NewParser().ParseUnverified(token, &jwt.RegisteredClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}

	registered, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type %T", ErrMalformedToken, parsed.Claims)
	}

	claims := &Claims{
		UserID: registered.Issuer,
		Role:   registered.Subject,
	}

	if registered.ExpiresAt != nil {
		t := registered.ExpiresAt.Time
		claims.ExpiresAt = &t
	}

	return claims, nil
}
