// internal/catalog/filters.go
package catalog

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Filters holds pagination parameters taken from the query string.
type Filters struct {
	Page     int
	PageSize int
}

// ParseFilters reads page and page_size from a query string. Missing values
// take the defaults; anything out of range is a *ValidationError.
func ParseFilters(q url.Values) (Filters, error) {
	v := newValidationError()
	f := Filters{Page: readInt(q, "page", 1, v), PageSize: readInt(q, "page_size", DefaultPageSize, v)}
	if f.Page < 1 {
		v.Add("page", "must be greater than zero")
	}
	if f.PageSize < 1 || f.PageSize > MaxPageSize {
		v.Add("page_size", fmt.Sprintf("must be between 1 and %d", MaxPageSize))
	}
	if len(v.Errors) > 0 {
		return Filters{}, v
	}
	return f, nil
}

func readInt(q url.Values, key string, def int, v *ValidationError) int {
	s := q.Get(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		v.Add(key, "must be an integer value")
		return def
	}
	return n
}

func (f Filters) normalized() Filters {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

func (f Filters) limit() int  { return f.PageSize }
func (f Filters) offset() int { return (f.Page - 1) * f.PageSize }

// InstanceFilter narrows a BookInstance listing. DueFrom and DueTo are
// inclusive bounds on due_back.
type InstanceFilter struct {
	Filters
	Status     *LoanStatus
	DueFrom    *Date
	DueTo      *Date
	BookID     *int64
	BorrowerID *int64
}

// Metadata describes the page returned by a listing.
type Metadata struct {
	CurrentPage  int `json:"current_page,omitempty"`
	PageSize     int `json:"page_size,omitempty"`
	FirstPage    int `json:"first_page,omitempty"`
	LastPage     int `json:"last_page,omitempty"`
	TotalRecords int `json:"total_records,omitempty"`
}

func calculateMetadata(totalRecords, page, pageSize int) Metadata {
	if totalRecords == 0 {
		return Metadata{}
	}
	return Metadata{
		CurrentPage:  page,
		PageSize:     pageSize,
		FirstPage:    1,
		LastPage:     int(math.Ceil(float64(totalRecords) / float64(pageSize))),
		TotalRecords: totalRecords,
	}
}
