package shared

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultPageSize applies when a request omits or zeroes the size.
	DefaultPageSize = 20
	// MaxPageSize caps the size a caller may request.
	MaxPageSize = 2000

	SortAsc  = "asc"
	SortDesc = "desc"
)

// Page is a bounded slice of an ordered result set plus its metadata.
type Page[T any] struct {
	Content          []T  `json:"content"`
	TotalElements    int  `json:"totalElements"`
	TotalPages       int  `json:"totalPages"`
	Number           int  `json:"number"`
	Size             int  `json:"size"`
	Last             bool `json:"last"`
	First            bool `json:"first"`
	NumberOfElements int  `json:"numberOfElements"`
	Empty            bool `json:"empty"`
}

// Wrap builds a Page around items, deriving every metadata field from the
// arguments. Content is never truncated: a size smaller than len(items) is
// widened and the total is raised so the metadata stays consistent. A page
// past the end keeps the caller's total and reports itself as last.
func Wrap[T any](items []T, number, size, total int) Page[T] {
	if number < 0 {
		number = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size < len(items) {
		size = len(items)
	}
	if total < 0 {
		total = 0
	}
	if seen := number*size + len(items); len(items) > 0 && total < seen {
		total = seen
	}
	content := make([]T, len(items))
	copy(content, items)

	totalPages := int(math.Ceil(float64(total) / float64(size)))
	return Page[T]{
		Content:          content,
		TotalElements:    total,
		TotalPages:       totalPages,
		Number:           number,
		Size:             size,
		Last:             totalPages == 0 || number >= totalPages-1,
		First:            number == 0,
		NumberOfElements: len(content),
		Empty:            len(content) == 0,
	}
}

// Unwrap returns the page content.
func Unwrap[T any](p Page[T]) []T {
	if p.Content == nil {
		return []T{}
	}
	return p.Content
}

// HasNext reports whether another page follows this one.
func (p Page[T]) HasNext() bool {
	return p.Number+1 < p.TotalPages
}

// DecodePage parses the page wire format. Use json.RawMessage as T when the
// element type is not known up front.
func DecodePage[T any](r io.Reader) (Page[T], error) {
	var p Page[T]
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return Page[T]{}, fmt.Errorf("decode page: %w", err)
	}
	if p.Content == nil {
		p.Content = []T{}
	}
	return p, nil
}

// Sort describes the ordering requested for a listing.
type Sort struct {
	Field     string
	Direction string
}

// PageRequest carries zero-based paging parameters.
type PageRequest struct {
	Page int
	Size int
	Sort Sort
}

// Offset returns the number of rows to skip.
func (r PageRequest) Offset() int {
	return r.Page * r.Size
}

// NewPageRequest normalises page and size.
func NewPageRequest(page, size int) PageRequest {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return PageRequest{Page: page, Size: size}
}

// ParsePageRequest reads page, size and sort query parameters. Only fields
// listed in sortable may be sorted on; anything else falls back to the first
// sortable field ascending.
func ParsePageRequest(query url.Values, sortable ...string) PageRequest {
	page, _ := strconv.Atoi(query.Get("page"))
	size, _ := strconv.Atoi(query.Get("size"))
	req := NewPageRequest(page, size)

	if len(sortable) > 0 {
		req.Sort = Sort{Field: sortable[0], Direction: SortAsc}
	}
	raw := strings.TrimSpace(query.Get("sort"))
	if raw == "" {
		return req
	}
	field, dir, _ := strings.Cut(raw, ",")
	field = strings.TrimSpace(field)
	for _, allowed := range sortable {
		if field == allowed {
			req.Sort.Field = field
			break
		}
	}
	if strings.EqualFold(strings.TrimSpace(dir), SortDesc) {
		req.Sort.Direction = SortDesc
	}
	return req
}
