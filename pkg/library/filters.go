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

package library

import (
	"net/url"

	"github.com/oapi-codegen/runtime"
)

// BookFilter narrows a book listing.  A book must carry every genre given.
type BookFilter struct {
	Title  string
	Author string
	Genres []int
}

// UserFilter narrows a user listing.
type UserFilter struct {
	Name  string
	Email string
}

// ReservationFilter narrows a reservation listing.  ReservedAt is a date
// formatted as YYYY-MM-DD.
type ReservationFilter struct {
	UserName   string
	Status     string
	ReservedAt string
}

// StockFilter narrows a stock listing to a single copy code.
type StockFilter struct {
	Code *int
}

// queryBuilder styles parameters the way the API description declares them,
// form style with lists comma separated rather than repeated.
type queryBuilder struct {
	values url.Values
	err    error
}

func newQueryBuilder() *queryBuilder {
	return &queryBuilder{
		values: url.Values{},
	}
}

func (b *queryBuilder) add(name string, explode bool, value any) {
	if b.err != nil {
		return
	}

	styled, err := runtime.StyleParamWithLocation("form", explode, name, runtime.ParamLocationQuery, value)
	if err != nil {
		b.err = err
		return
	}

	parsed, err := url.ParseQuery(styled)
	if err != nil {
		b.err = err
		return
	}

	for key, values := range parsed {
		b.values[key] = append(b.values[key], values...)
	}
}

func (b *queryBuilder) addString(name, value string) {
	if value != "" {
		b.add(name, true, value)
	}
}

func (b *queryBuilder) build() (url.Values, error) {
	if b.err != nil {
		return nil, b.err
	}

	return b.values, nil
}

func (f *BookFilter) Query() (url.Values, error) {
	if f == nil {
		return nil, nil
	}

	b := newQueryBuilder()

	b.addString("title", f.Title)
	b.addString("author", f.Author)

	if len(f.Genres) > 0 {
		b.add("genres", false, f.Genres)
	}

	return b.build()
}

func (f *UserFilter) Query() (url.Values, error) {
	if f == nil {
		return nil, nil
	}

	b := newQueryBuilder()

	b.addString("name", f.Name)
	b.addString("email", f.Email)

	return b.build()
}

func (f *ReservationFilter) Query() (url.Values, error) {
	if f == nil {
		return nil, nil
	}

	b := newQueryBuilder()

	b.addString("user_name", f.UserName)
	b.addString("status", f.Status)
	b.addString("reserved_at", f.ReservedAt)

	return b.build()
}

func (f *StockFilter) Query() (url.Values, error) {
	if f == nil {
		return nil, nil
	}

	b := newQueryBuilder()

	if f.Code != nil {
		b.add("code", true, *f.Code)
	}

	return b.build()
}

// Querier is implemented by all filters.  A nil filter yields no query.
type Querier interface {
	Query() (url.Values, error)
}

// QueryMap flattens a filter into the single valued form scenario steps use.
func QueryMap(q Querier) (map[string]string, error) {
	values, err := q.Query()
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(values))

	for key := range values {
		out[key] = values.Get(key)
	}

	return out, nil
}
