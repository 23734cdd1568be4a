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
)

const (
	// KeyAuthToken holds the bearer token obtained by authentication.
	KeyAuthToken = "authToken"

	// KeyAuthUserID holds the account ID embedded in the token, if any.
	KeyAuthUserID = "authUserId"

	// KeyAuthRole holds the account role embedded in the token, if any.
	KeyAuthRole = "authRole"
)

// RunContext threads values between the steps of a single scenario run.
// Each run owns its own context, it is not safe for concurrent use.
type RunContext struct {
	values map[string]any
}

// NewRunContext returns an empty context.
func NewRunContext() *RunContext {
	return &RunContext{
		values: map[string]any{},
	}
}

// Set records a value, overwriting any previous one.
func (c *RunContext) Set(key string, value any) {
	c.values[key] = value
}

// Get reads a value.  Reading a key that was never written is an error,
// a null value is only returned if null was explicitly stored.
func (c *RunContext) Get(key string) (any, error) {
	value, ok := c.values[key]
	if !ok {
		return nil, &MissingValueError{Key: key}
	}

	return value, nil
}

// GetString reads a value and renders it as a string.
func (c *RunContext) GetString(key string) (string, error) {
	value, err := c.Get(key)
	if err != nil {
		return "", err
	}

	return formatValue(value), nil
}

// Has reports whether a key has been written.
func (c *RunContext) Has(key string) bool {
	_, ok := c.values[key]

	return ok
}

// Keys returns the written keys in lexical order.
func (c *RunContext) Keys() []string {
	return slices.Sorted(maps.Keys(c.values))
}

// Snapshot returns a copy of the current values.
func (c *RunContext) Snapshot() map[string]any {
	return maps.Clone(c.values)
}

func (c *RunContext) String() string {
	return fmt.Sprintf("%v", c.values)
}
