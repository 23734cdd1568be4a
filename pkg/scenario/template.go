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
	"regexp"
	"slices"
	"strconv"

	"github.com/nscaledev/uni-library-contract/pkg/record"
)

// placeholder matches ${key} references to run context values.
var placeholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_.-]*)\}`)

// Ref returns the placeholder for a context key, for use in Go defined
// scenarios e.g. "/api/v1/books/" + scenario.Ref("bookId").
func Ref(key string) string {
	return "${" + key + "}"
}

// Resolve substitutes every placeholder in value from the run context.
// A string consisting solely of one placeholder is replaced by the stored
// value verbatim, preserving its type, otherwise the value is formatted
// into the surrounding text.  Records and sequences are resolved deeply
// and never modified in place.
func Resolve(value any, c *RunContext) (any, error) {
	if s, ok := value.(string); ok {
		return resolveString(s, c)
	}

	if r, ok := record.AsRecord(value); ok {
		out := make(record.Record, len(r))

		for key, field := range r {
			resolved, err := Resolve(field, c)
			if err != nil {
				return nil, err
			}

			out[key] = resolved
		}

		return out, nil
	}

	if items, ok := record.AsSequence(value); ok {
		out := make([]any, len(items))

		for i, item := range items {
			resolved, err := Resolve(item, c)
			if err != nil {
				return nil, err
			}

			out[i] = resolved
		}

		return out, nil
	}

	return value, nil
}

// ResolveString is Resolve for values that must end up as text, e.g. paths.
func ResolveString(s string, c *RunContext) (string, error) {
	resolved, err := resolveString(s, c)
	if err != nil {
		return "", err
	}

	return formatValue(resolved), nil
}

func resolveString(s string, c *RunContext) (any, error) {
	matches := placeholder.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(s) {
		return c.Get(s[matches[0][2]:matches[0][3]])
	}

	var err error

	out := placeholder.ReplaceAllStringFunc(s, func(ref string) string {
		if err != nil {
			return ref
		}

		key := placeholder.FindStringSubmatch(ref)[1]

		value, getErr := c.Get(key)
		if getErr != nil {
			err = getErr

			return ref
		}

		return formatValue(value)
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

// References returns the sorted, unique context keys value depends on.
func References(value any) []string {
	var keys []string

	collectReferences(value, &keys)

	slices.Sort(keys)

	return slices.Compact(keys)
}

func collectReferences(value any, keys *[]string) {
	if s, ok := value.(string); ok {
		for _, match := range placeholder.FindAllStringSubmatch(s, -1) {
			*keys = append(*keys, match[1])
		}

		return
	}

	if r, ok := record.AsRecord(value); ok {
		for _, field := range r {
			collectReferences(field, keys)
		}

		return
	}

	if items, ok := record.AsSequence(value); ok {
		for _, item := range items {
			collectReferences(item, keys)
		}
	}
}

// formatValue renders a context value for inclusion in text.  JSON numbers
// decode as floats so integral values must not gain an exponent or a
// trailing ".0" when spliced into a path.
func formatValue(value any) string {
	switch t := value.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		return fmt.Sprint(value)
	}
}
