// Package pagination pages an in-memory list of visits and builds the
// navigation links of a list response.
package pagination

import (
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is the requested page.
type Params struct {
	Limit  int
	Offset int
}

// FromContext reads limit and offset from the query string. A 1-based page
// is honoured when offset is absent. Malformed values fall back to the
// defaults instead of failing the request.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset <= 0 {
		offset = 0
		if page, _ := strconv.Atoi(c.QueryParam("page")); page > 1 {
			offset = (page - 1) * limit
		}
	}
	return Params{Limit: limit, Offset: offset}
}

// Window returns the [start, end) bounds of the page within n items.
func (p Params) Window(n int) (start, end int) {
	start = min(p.Offset, n)
	end = min(start+p.Limit, n)
	return start, end
}

// Page returns the items selected by p.
func Page[T any](items []T, p Params) []T {
	start, end := p.Window(len(items))
	return items[start:end]
}

// Response is a page of a list endpoint.
type Response[T any] struct {
	Data    []T    `json:"data"`
	Total   int    `json:"total"`
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
	HasMore bool   `json:"has_more"`
	Links   []Link `json:"links,omitempty"`
}

// Link is one navigation link of a Response.
type Link struct {
	Relation string `json:"relation"`
	URL      string `json:"url"`
}

// New wraps page, one slice of a list of total items. Data is never null.
func New[T any](page []T, total int, p Params) *Response[T] {
	if page == nil {
		page = []T{}
	}
	return &Response[T]{
		Data:    page,
		Total:   total,
		Limit:   p.Limit,
		Offset:  p.Offset,
		HasMore: p.Offset+p.Limit < total,
	}
}

// WithLinks adds self, first, previous, next and last links for path. The
// filters in query are carried on every link; offset and limit in it are
// replaced.
func (r *Response[T]) WithLinks(path string, query url.Values) *Response[T] {
	build := func(offset int) string {
		q := url.Values{}
		for k, v := range query {
			q[k] = append([]string(nil), v...)
		}
		q.Set("offset", strconv.Itoa(offset))
		q.Set("limit", strconv.Itoa(r.Limit))
		q.Del("page")
		return path + "?" + q.Encode()
	}

	r.Links = []Link{{Relation: "self", URL: build(r.Offset)}}
	if r.Offset > 0 {
		r.Links = append(r.Links,
			Link{Relation: "first", URL: build(0)},
			Link{Relation: "previous", URL: build(max(r.Offset-r.Limit, 0))},
		)
	}
	if r.HasMore {
		last := (r.Total - 1) / r.Limit * r.Limit
		r.Links = append(r.Links,
			Link{Relation: "next", URL: build(r.Offset + r.Limit)},
			Link{Relation: "last", URL: build(last)},
		)
	}
	return r
}

// Link returns the URL of rel, or "" when the response has none.
func (r *Response[T]) Link(rel string) string {
	for _, l := range r.Links {
		if l.Relation == rel {
			return l.URL
		}
	}
	return ""
}
