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

// Package record provides schema-less API resources and the structural
// matcher used as the test oracle for every scenario.
//
// A Record is whatever a JSON object decodes to.  An expected shape is just
// another Record that names only the fields a caller cares about: fields it
// omits impose no constraint, nested objects are compared partially, and
// sequences are compared without regard to order.
package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNotRecord is raised when a decoded value is not a JSON object.
	ErrNotRecord = errors.New("value is not a record")

	// ErrNotList is raised when a decoded value is not a JSON array of objects.
	ErrNotList = errors.New("value is not a list of records")
)

// Record is a single API resource e.g. a book, user, stock unit or loan.
type Record map[string]any

// Decode unmarshals a JSON object into a Record.
func Decode(data []byte) (Record, error) {
	var out Record

	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotRecord, err)
	}

	if out == nil {
		return nil, ErrNotRecord
	}

	return out, nil
}

// DecodeList unmarshals a JSON array of objects.
func DecodeList(data []byte) ([]Record, error) {
	var out []Record

	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotList, err)
	}

	return out, nil
}

// AsRecord converts a decoded value to a Record.  Any map keyed by a string
// kind is accepted, so fixtures may be written as map[string]string and
// the like, as well as the map[string]any produced by encoding/json.
func AsRecord(v any) (Record, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case Record:
		return t, true
	case map[string]any:
		return Record(t), true
	}

	rv := reflect.ValueOf(v)

	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}

	out := make(Record, rv.Len())

	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}

	return out, true
}

// AsList converts a decoded value to a list of Records.  Every element must
// itself be a record.
func AsList(v any) ([]Record, bool) {
	items, ok := AsSequence(v)
	if !ok {
		return nil, false
	}

	out := make([]Record, 0, len(items))

	for _, item := range items {
		r, ok := AsRecord(item)
		if !ok {
			return nil, false
		}

		out = append(out, r)
	}

	return out, true
}

// AsSequence flattens any slice or array into []any so fixtures may be
// written as []Record, []map[string]any or []int alike.
func AsSequence(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}

	if items, ok := v.([]any); ok {
		return items, true
	}

	rv := reflect.ValueOf(v)

	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	// Byte slices are opaque scalars, not sequences.
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}

	out := make([]any, rv.Len())

	for i := range rv.Len() {
		out[i] = rv.Index(i).Interface()
	}

	return out, true
}

// String renders the record as indented JSON for diagnostics.
func (r Record) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf("%#v", map[string]any(r))
	}

	return string(data)
}
