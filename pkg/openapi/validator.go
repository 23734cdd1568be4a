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

package openapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"

	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/yaml"
)

var (
	// ErrUndocumentedOperation is raised when no path and method matches.
	ErrUndocumentedOperation = errors.New("operation is not documented")

	// ErrUndocumentedResponse is raised when the status code is not listed
	// and there is no default response.
	ErrUndocumentedResponse = errors.New("response status is not documented")

	// ErrSchemaViolation is raised when a body does not match its schema.
	ErrSchemaViolation = errors.New("response violates schema")
)

//go:embed library.yaml
var libraryDocument []byte

// Document returns the library API description.
func Document() []byte {
	return slices.Clone(libraryDocument)
}

type route struct {
	template string
	segments []string
	params   int
	item     *openapi3.PathItem
}

// Validator checks responses against an API description.
type Validator struct {
	prefixes []string
	routes   []route
}

// NewValidator parses an OpenAPI 3 document, or a Swagger 2 document which
// is converted first, in either YAML or JSON.
func NewValidator(ctx context.Context, data []byte) (*Validator, error) {
	doc, err := load(ctx, data)
	if err != nil {
		return nil, err
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validating API description: %w", err)
	}

	v := &Validator{}

	for _, server := range doc.Servers {
		if strings.Contains(server.URL, "{") {
			continue
		}

		u, err := url.Parse(server.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing server URL: %w", err)
		}

		if prefix := strings.TrimSuffix(u.Path, "/"); prefix != "" {
			v.prefixes = append(v.prefixes, prefix)
		}
	}

	for template, item := range doc.Paths.Map() {
		segments := strings.Split(template, "/")

		params := 0

		for _, segment := range segments {
			if isParameter(segment) {
				params++
			}
		}

		v.routes = append(v.routes, route{
			template: template,
			segments: segments,
			params:   params,
			item:     item,
		})
	}

	// Literal paths take precedence over templated ones.
	slices.SortFunc(v.routes, func(a, b route) int {
		if a.params != b.params {
			return a.params - b.params
		}

		return strings.Compare(a.template, b.template)
	})

	return v, nil
}

// NewLibraryValidator returns a validator for the embedded library API.
func NewLibraryValidator(ctx context.Context) (*Validator, error) {
	return NewValidator(ctx, libraryDocument)
}

// LoadValidator reads an API description from disk.
func LoadValidator(ctx context.Context, path string) (*Validator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return NewValidator(ctx, data)
}

func load(ctx context.Context, data []byte) (*openapi3.T, error) {
	var version struct {
		Swagger string `json:"swagger"`
	}

	if err := yaml.Unmarshal(data, &version); err != nil {
		return nil, fmt.Errorf("parsing API description: %w", err)
	}

	if version.Swagger != "" {
		var v2 openapi2.T

		if err := yaml.Unmarshal(data, &v2); err != nil {
			return nil, fmt.Errorf("parsing swagger document: %w", err)
		}

		doc, err := openapi2conv.ToV3(&v2)
		if err != nil {
			return nil, fmt.Errorf("converting swagger document: %w", err)
		}

		// Servers are only derived when a host is given, documents with
		// just a base path would otherwise lose it.
		if len(doc.Servers) == 0 && v2.BasePath != "" {
			doc.Servers = openapi3.Servers{
				&openapi3.Server{URL: v2.BasePath},
			}
		}

		return doc, nil
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("loading API description: %w", err)
	}

	return doc, nil
}

// ValidateResponse checks a response body against the schema documented for
// the operation and status code.  Responses documented without a JSON body
// are accepted whatever they contain.
func (v *Validator) ValidateResponse(ctx context.Context, method, path string, status int, body []byte) error {
	log := log.FromContext(ctx)

	r, ok := v.find(path)
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrUndocumentedOperation, method, path)
	}

	op := r.item.GetOperation(strings.ToUpper(method))
	if op == nil || op.Responses == nil {
		return fmt.Errorf("%w: %s %s", ErrUndocumentedOperation, method, r.template)
	}

	ref := op.Responses.Status(status)
	if ref == nil {
		ref = op.Responses.Value(fmt.Sprintf("%dXX", status/100))
	}

	if ref == nil {
		ref = op.Responses.Default()
	}

	if ref == nil || ref.Value == nil {
		return fmt.Errorf("%w: %s %s returned %d", ErrUndocumentedResponse, method, r.template, status)
	}

	media := ref.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil
	}

	var value any

	if err := json.Unmarshal(body, &value); err != nil {
		return fmt.Errorf("%w: %s %s returned %d: body is not JSON: %w", ErrSchemaViolation, method, r.template, status, err)
	}

	if err := media.Schema.Value.VisitJSON(value); err != nil {
		return fmt.Errorf("%w: %s %s returned %d: %w", ErrSchemaViolation, method, r.template, status, err)
	}

	log.V(1).Info("response conforms", "method", method, "path", r.template, "status", status)

	return nil
}

func (v *Validator) find(path string) (route, bool) {
	candidates := []string{path}

	for _, prefix := range v.prefixes {
		if trimmed, ok := strings.CutPrefix(path, prefix); ok && strings.HasPrefix(trimmed, "/") {
			candidates = append(candidates, trimmed)
		}
	}

	for _, candidate := range candidates {
		segments := strings.Split(candidate, "/")

		for _, r := range v.routes {
			if matchSegments(r.segments, segments) {
				return r, true
			}
		}
	}

	return route{}, false
}

func matchSegments(template, path []string) bool {
	if len(template) != len(path) {
		return false
	}

	for i := range template {
		if isParameter(template[i]) {
			if path[i] == "" {
				return false
			}

			continue
		}

		if template[i] != path[i] {
			return false
		}
	}

	return true
}

func isParameter(segment string) bool {
	return strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}")
}
