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

package api

import (
	"fmt"

	"github.com/onsi/gomega/format"
	"github.com/onsi/gomega/gcustom"
	"github.com/onsi/gomega/types"

	"github.com/nscaledev/uni-library-contract/pkg/record"
)

type shapeMatcher struct {
	expected   record.Record
	mismatches []record.Mismatch
}

// SatisfyShape succeeds when a record has every field of the expected shape.
// Nested records match partially, sequences regardless of order and
// timestamps by instant.
func SatisfyShape(expected record.Record) types.GomegaMatcher {
	return &shapeMatcher{
		expected: expected,
	}
}

func (m *shapeMatcher) Match(actual any) (bool, error) {
	r, ok := record.AsRecord(actual)
	if !ok {
		return false, fmt.Errorf("SatisfyShape expects a record, got %T", actual) //nolint:err113
	}

	m.mismatches = record.Explain(r, m.expected)

	return len(m.mismatches) == 0, nil
}

func (m *shapeMatcher) FailureMessage(actual any) string {
	return format.Message(actual, "to satisfy shape", m.expected) + "\n" + record.FormatMismatches(m.mismatches)
}

func (m *shapeMatcher) NegatedFailureMessage(actual any) string {
	return format.Message(actual, "not to satisfy shape", m.expected)
}

// ContainRecord succeeds when at least one element of a list satisfies the
// expected shape.
func ContainRecord(expected record.Record) types.GomegaMatcher {
	return gcustom.MakeMatcher(func(actual []record.Record) (bool, error) {
		return record.ExistsInList(actual, expected), nil
	}).WithTemplate("Expected:\n{{.FormattedActual}}\n{{.To}} contain a record satisfying\n{{format .Data 1}}", expected)
}
