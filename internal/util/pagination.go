package util

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Clamp normalizes page/limit query values: page >= 1, limit in
// [1, MaxPageSize] with a default of DefaultPageSize.
func Clamp(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// Pagination is the contract every listing endpoint returns. Next and
// Previous are fully qualified URLs, or null at either boundary.
type Pagination struct {
	Page        int     `json:"page"`
	Limit       int     `json:"limit"`
	Total       int64   `json:"total"`
	TotalPages  int64   `json:"totalPages"`
	HasNext     bool    `json:"hasNext"`
	HasPrevious bool    `json:"hasPrevious"`
	Next        *string `json:"next"`
	Previous    *string `json:"previous"`
}

// Paginate computes the pagination block for a page already clamped via
// Clamp. baseURL is the absolute URL of the listing endpoint and may
// carry query parameters; they are preserved in the next/previous links
// with only page and limit rewritten, so a filtered listing stays
// filtered when the client follows a link.
func Paginate(baseURL string, page, limit int, total int64) Pagination {
	totalPages := (total + int64(limit) - 1) / int64(limit)
	hasNext := int64(page) < totalPages
	hasPrevious := page > 1

	p := Pagination{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     hasNext,
		HasPrevious: hasPrevious,
	}
	if hasNext {
		u := pageURL(baseURL, page+1, limit)
		p.Next = &u
	}
	if hasPrevious {
		u := pageURL(baseURL, page-1, limit)
		p.Previous = &u
	}
	return p
}

func pageURL(baseURL string, page, limit int) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Sprintf("%s?page=%d&limit=%d", baseURL, page, limit)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()
	return u.String()
}
