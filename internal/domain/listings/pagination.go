package listings

import (
	"math"
	"strconv"
	"strings"
)

type PaginationMode string

const (
	ModePage   PaginationMode = "page"
	ModeCursor PaginationMode = "cursor"

	DefaultPageLimit = 24
	MaxPageLimit     = 80
)

// PaginationInput carries whatever the client sent. Zero values mean "absent".
type PaginationInput struct {
	Page     int
	PageSize int
	Limit    int
	Cursor   string
	MaxLimit int
}

// Descriptor is the single normalized form both client modes resolve to.
type Descriptor struct {
	Mode   PaginationMode `json:"mode"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Cursor string         `json:"cursor"`
}

// ResolvePagination never rejects input: out of range values are clamped.
// Cursor mode wins when a cursor or a limit is present.
func ResolvePagination(in PaginationInput) Descriptor {
	maxLimit := in.MaxLimit
	if maxLimit <= 0 {
		maxLimit = MaxPageLimit
	}
	cursor := strings.TrimSpace(in.Cursor)
	if cursor != "" || in.Limit > 0 {
		limit := clampLimit(in.Limit, maxLimit)
		offset := parseCursor(cursor)
		return Descriptor{Mode: ModeCursor, Limit: limit, Offset: offset, Cursor: strconv.Itoa(offset)}
	}

	limit := clampLimit(in.PageSize, maxLimit)
	page := in.Page
	if page < 1 {
		page = 1
	}
	// saturate instead of wrapping; a page past the end stays past the end
	offset := math.MaxInt
	if page-1 <= math.MaxInt/limit {
		offset = (page - 1) * limit
	}
	return Descriptor{Mode: ModePage, Limit: limit, Offset: offset, Cursor: strconv.Itoa(offset)}
}

func clampLimit(limit, maxLimit int) int {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit
}

func parseCursor(raw string) int {
	if raw == "" {
		return 0
	}
	offset, err := strconv.Atoi(raw)
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// Page is one window of an ordered result set.
type Page[T any] struct {
	Items      []T     `json:"items"`
	Total      int     `json:"total"`
	Offset     int     `json:"offset"`
	Limit      int     `json:"limit"`
	NextCursor *string `json:"next_cursor"`
}

// Paginate slices rows in memory according to d.
func Paginate[T any](rows []T, d Descriptor) Page[T] {
	total := len(rows)
	start := d.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := start + d.Limit
	if d.Limit <= 0 || end > total {
		end = total
	}
	items := make([]T, end-start)
	copy(items, rows[start:end])
	return NewPage(items, total, d)
}

// NewPage wraps items that storage already windowed with the given total.
func NewPage[T any](items []T, total int, d Descriptor) Page[T] {
	if items == nil {
		items = []T{}
	}
	page := Page[T]{Items: items, Total: total, Offset: d.Offset, Limit: d.Limit}
	if next := d.Offset + len(items); next < total && len(items) > 0 {
		cursor := strconv.Itoa(next)
		page.NextCursor = &cursor
	}
	return page
}
