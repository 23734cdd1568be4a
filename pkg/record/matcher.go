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
	"fmt"
	"slices"
	"strings"
)

// Mismatch describes a single reason why a value failed to satisfy a shape.
type Mismatch struct {
	// Path is the dotted location of the field e.g. "author.name" or
	// "genres[2]".  An empty path refers to the root value.
	Path     string
	Expected any
	Actual   any
	Reason   string
}

func (m Mismatch) String() string {
	path := m.Path
	if path == "" {
		path = "<root>"
	}

	return fmt.Sprintf("%s: %s (expected %v, got %v)", path, m.Reason, m.Expected, m.Actual)
}

// Satisfies reports whether actual contains every field declared by expected
// with an equal value.  It never panics, any shape mismatch is simply false.
func Satisfies(actual, expected Record) bool {
	return match(actual, expected, "", nil)
}

// ValueSatisfies is Satisfies for arbitrary decoded values, e.g. a top level
// JSON array or a bare string.
func ValueSatisfies(actual, expected any) bool {
	return match(actual, expected, "", nil)
}

// Explain returns every mismatch between actual and expected, or nil when
// actual satisfies expected.
func Explain(actual, expected any) []Mismatch {
	var out []Mismatch

	match(actual, expected, "", &out)

	return out
}

// ExistsInList reports whether at least one element of list satisfies
// expected.  An empty list never does.
func ExistsInList(list []Record, expected Record) bool {
	_, ok := FindInList(list, expected)

	return ok
}

// FindInList returns the index of the first element satisfying expected.
func FindInList(list []Record, expected Record) (int, bool) {
	for i, item := range list {
		if Satisfies(item, expected) {
			return i, true
		}
	}

	return -1, false
}

// match is the recursive core.  When out is nil it returns on the first
// failure, otherwise it records every mismatch it can find.
func match(actual, expected any, path string, out *[]Mismatch) bool {
	if e, ok := AsRecord(expected); ok {
		return matchRecord(actual, e, path, out)
	}

	if e, ok := AsSequence(expected); ok {
		return matchSequence(actual, e, path, out)
	}

	if !ScalarEqual(actual, expected) {
		report(out, path, expected, actual, "value differs")

		return false
	}

	return true
}

func matchRecord(actual any, expected Record, path string, out *[]Mismatch) bool {
	a, ok := AsRecord(actual)
	if !ok {
		report(out, path, "object", actual, "not an object")

		return false
	}

	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	result := true

	for _, k := range keys {
		fieldPath := joinField(path, k)

		value, present := a[k]
		if !present {
			report(out, fieldPath, expected[k], nil, "field missing")

			result = false
		} else if !match(value, expected[k], fieldPath, out) {
			result = false
		}

		if !result && out == nil {
			return false
		}
	}

	return result
}

// matchSequence matches sequences without regard to order.  Every actual
// element must pair with a distinct expected element, so the lengths must
// agree and duplicates are honoured.
func matchSequence(actual any, expected []any, path string, out *[]Mismatch) bool {
	a, ok := AsSequence(actual)
	if !ok {
		report(out, path, "sequence", actual, "not a sequence")

		return false
	}

	if len(a) != len(expected) {
		report(out, path, len(expected), len(a), "sequence length differs")

		return false
	}

	n := len(a)

	compatible := make([][]bool, n)
	for i := range n {
		compatible[i] = make([]bool, n)

		for j := range n {
			compatible[i][j] = match(a[i], expected[j], "", nil)
		}
	}

	assigned := pairElements(compatible)

	result := true

	for j, i := range assigned {
		if i >= 0 {
			continue
		}

		result = false

		if out == nil {
			return false
		}

		report(out, joinIndex(path, j), expected[j], nil, "no matching element in sequence")
	}

	return result
}

// pairElements finds a maximum matching between actual rows and expected
// columns using augmenting paths.  The result maps each expected index to
// the actual index it was paired with, or -1.
func pairElements(compatible [][]bool) []int {
	n := len(compatible)

	owner := make([]int, n)
	assigned := make([]int, n)

	for i := range n {
		owner[i] = -1
		assigned[i] = -1
	}

	var augment func(j int, seen []bool) bool

	augment = func(j int, seen []bool) bool {
		for i := range n {
			if !compatible[i][j] || seen[i] {
				continue
			}

			seen[i] = true

			if owner[i] < 0 || augment(owner[i], seen) {
				owner[i] = j
				assigned[j] = i

				return true
			}
		}

		return false
	}

	for j := range n {
		augment(j, make([]bool, n))
	}

	return assigned
}

func report(out *[]Mismatch, path string, expected, actual any, reason string) {
	if out == nil {
		return
	}

	*out = append(*out, Mismatch{
		Path:     path,
		Expected: expected,
		Actual:   actual,
		Reason:   reason,
	})
}

func joinField(path, field string) string {
	if path == "" {
		return field
	}

	return path + "." + field
}

func joinIndex(path string, index int) string {
	return fmt.Sprintf("%s[%d]", path, index)
}

// FormatMismatches renders mismatches one per line.
func FormatMismatches(mismatches []Mismatch) string {
	lines := make([]string, len(mismatches))

	for i := range mismatches {
		lines[i] = mismatches[i].String()
	}

	return strings.Join(lines, "\n")
}
