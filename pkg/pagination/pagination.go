package pagination

import (
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the page size used by purchase and ticket listings.
	DefaultLimit = 7
	// MaxLimit caps how many rows a single page can request.
	MaxLimit = 100
)

// Params holds page-based pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Page is the listing envelope returned to clients.
type Page[T any] struct {
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	Items       []T   `json:"items"`
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Normalize clamps page to >= 1 and applies limit defaults.
func (p Params) Normalize() Params {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return Params{Page: page, Limit: NormalizeLimit(p.Limit)}
}

// Offset returns the row offset for the normalized page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// ParseParams reads page/limit query values, ignoring malformed numbers.
func ParseParams(page, limit string) Params {
	return Params{Page: atoi(page), Limit: atoi(limit)}.Normalize()
}

// NewPage builds the envelope for items out of total rows.
func NewPage[T any](params Params, total int64, items []T) Page[T] {
	n := params.Normalize()
	pages := int((total + int64(n.Limit) - 1) / int64(n.Limit))
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		TotalItems:  total,
		TotalPages:  pages,
		CurrentPage: n.Page,
		Items:       items,
	}
}

func atoi(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}
