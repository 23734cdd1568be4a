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

package record

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"
)

// timestampLayouts are the encodings the library API is known to emit.
// encoding/json uses RFC3339Nano, PostgreSQL text output uses a space
// separator and a short zone offset.
//
//nolint:gochecknoglobals
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	time.RFC1123Z,
	time.RFC1123,
	time.DateOnly,
}

// ParseTimestamp attempts to interpret a string as a point in time.
// Timestamps without a zone are taken to be UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)

	// Cheap rejection, every supported layout starts with a 4 digit year
	// or a day name.
	if len(s) < len(time.DateOnly) {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// ScalarEqual compares two non-structured values.  Numbers compare by value
// regardless of their Go representation, timestamps compare by instant and
// null only equals null.  No other coercion takes place, so the string "2"
// never equals the number 2.
func ScalarEqual(actual, expected any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	if e, ok := toFloat(expected); ok {
		a, ok := toFloat(actual)

		return ok && a == e
	}

	if e, ok := expected.(time.Time); ok {
		a, ok := toTime(actual)

		return ok && a.Equal(e)
	}

	if e, ok := expected.(string); ok {
		switch a := actual.(type) {
		case string:
			if a == e {
				return true
			}

			return instantEqual(a, e)
		case time.Time:
			t, ok := ParseTimestamp(e)

			return ok && t.Equal(a)
		}

		return false
	}

	return reflect.DeepEqual(actual, expected)
}

// instantEqual only applies to strings that both carry a time of day, a bare
// date such as a title of "2024-01-01" is plain text and compares literally.
func instantEqual(a, b string) bool {
	if !hasClock(a) || !hasClock(b) {
		return false
	}

	ta, ok := ParseTimestamp(a)
	if !ok {
		return false
	}

	tb, ok := ParseTimestamp(b)
	if !ok {
		return false
	}

	return ta.Equal(tb)
}

func hasClock(s string) bool {
	return strings.Contains(s, ":")
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}

		return *t, true
	case string:
		return ParseTimestamp(t)
	}

	return time.Time{}, false
}

//nolint:cyclop
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()

		return f, err == nil
	}

	return 0, false
}
