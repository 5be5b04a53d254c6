package common

import (
	"net/http"
	"strconv"
	"strings"
)

// MaxPerPage caps page sizes requested by clients.
const MaxPerPage = 100

// Pagination holds pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPagination derives the page count from total.
func NewPagination(page, perPage int, total int64) Pagination {
	p := Pagination{Page: page, PerPage: perPage, TotalItems: total}
	if perPage > 0 {
		p.TotalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return p
}

// ParsePagination reads page and per_page (or its alias limit) from the query string.
// Invalid values fall back to page 1 and defaultPerPage; sizes are capped at MaxPerPage.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	q := r.URL.Query()
	page = positiveInt(q.Get("page"), 1)
	size := q.Get("per_page")
	if strings.TrimSpace(size) == "" {
		size = q.Get("limit")
	}
	perPage = min(positiveInt(size, defaultPerPage), MaxPerPage)
	return page, perPage
}

func positiveInt(raw string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
