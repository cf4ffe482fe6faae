package shared

import (
	"net/url"
	"strconv"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Pagination is the normalized window of a list request, echoed back in
// list responses together with the number of items returned.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

// PaginationFromQuery reads limit/offset query parameters and clamps them to
// the supported window.
func PaginationFromQuery(q url.Values) Pagination {
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return Pagination{Limit: limit, Offset: offset}
}

// WithCount returns a copy of the window carrying the page's item count.
func (p Pagination) WithCount(n int) Pagination {
	p.Count = n
	return p
}
