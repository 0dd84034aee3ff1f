package pagination

import (
	"net/http"
	"strconv"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page         int `json:"page"`
	ItemsPerPage int `json:"items_per_page"`
	Offset       int `json:"-"`
}

// DefaultParams returns sensible pagination defaults.
func DefaultParams() Params {
	return Params{
		Page:         1,
		ItemsPerPage: defaultPerPage,
		Offset:       0,
	}
}

// FromRequest extracts pagination parameters from an HTTP request.
// Out-of-range or malformed values fall back to defaults.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()

	if page := r.URL.Query().Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = v
		}
	}

	if perPage := r.URL.Query().Get("itemsPerPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= maxPerPage {
			p.ItemsPerPage = v
		}
	}

	p.Offset = (p.Page - 1) * p.ItemsPerPage
	return p
}

// Result wraps a paginated response. Total always reflects the filtered count
// regardless of the requested page.
type Result[T any] struct {
	Data         []T  `json:"data"`
	Total        int  `json:"total"`
	Page         int  `json:"page"`
	ItemsPerPage int  `json:"items_per_page"`
	TotalPages   int  `json:"total_pages"`
	HasNext      bool `json:"has_next"`
	HasPrev      bool `json:"has_prev"`
}

// NewResult creates a paginated result.
func NewResult[T any](data []T, total int, params Params) Result[T] {
	totalPages := total / params.ItemsPerPage
	if total%params.ItemsPerPage > 0 {
		totalPages++
	}

	if data == nil {
		data = []T{}
	}

	return Result[T]{
		Data:         data,
		Total:        total,
		Page:         params.Page,
		ItemsPerPage: params.ItemsPerPage,
		TotalPages:   totalPages,
		HasNext:      params.Page < totalPages,
		HasPrev:      params.Page > 1,
	}
}
