package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// DecodeJSON decodes the request body into dst. Unknown fields are ignored.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return Validation("Request body is required", nil)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return Validation("Request body is required", nil)
		}
		return Validation("Invalid JSON body", err.Error())
	}
	return nil
}

// QueryInt reads an integer query parameter clamped to [min, max].
// Missing or malformed values yield def.
func QueryInt(r *http.Request, key string, def, min, max int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

// QueryBool reads an optional boolean query parameter.
func QueryBool(r *http.Request, key string) *bool {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

// Page holds pagination parameters.
type Page struct {
	Page    int
	PerPage int
}

// ParsePage reads page (>=1) and per_page (1..maxPer).
func ParsePage(r *http.Request, defPer, maxPer int) Page {
	return Page{
		Page:    QueryInt(r, "page", 1, 1, math.MaxInt32),
		PerPage: QueryInt(r, "per_page", defPer, 1, maxPer),
	}
}

func (p Page) Offset() int { return (p.Page - 1) * p.PerPage }

// TotalPages returns ceil(total/per_page).
func (p Page) TotalPages(total int64) int {
	if p.PerPage <= 0 {
		return 0
	}
	return int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// Paginated is the list response shape.
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
}

func NewPaginated[T any](items []T, total int64, p Page) Paginated[T] {
	if items == nil {
		items = []T{}
	}
	return Paginated[T]{Items: items, Total: total, Page: p.Page, PerPage: p.PerPage, TotalPages: p.TotalPages(total)}
}
