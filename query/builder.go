package query

import (
	"net/url"
	"strconv"

	paging "github.com/nrfta/feed-paging"
)

// Wire parameter names accepted by the collection endpoint.
const (
	ParamPageSize  = "page_size"
	ParamSortBy    = "sort_by"
	ParamSortOrder = "sort_order"
	ParamSearch    = "search"
	ParamStatus    = "status"
	ParamCategory  = "category"
	ParamVendor    = "vendor"
	ParamMinPrice  = "min_price"
	ParamMaxPrice  = "max_price"
	ParamMinDate   = "min_date"
	ParamMaxDate   = "max_date"
	ParamCursor    = "cursor"
)

// Builder produces canonical query strings for a fixed page size.
type Builder struct {
	PageSize int
}

// NewBuilder creates a Builder. A non-positive size falls back to paging.DefaultPageSize.
func NewBuilder(pageSize int) Builder {
	return Builder{PageSize: pageSize}
}

// Build returns the query string for one page of spec.
//
// The rules are:
//   - page_size, sort_by and sort_order are always present (defaults id/asc)
//   - optional filters are emitted only when set and non-empty; an unset
//     filter never appears as an empty parameter
//   - cursor is emitted only when cursor is non-nil and reset is false, so a
//     reset request can never leak a stale cursor into a fresh query
//
// Parameters are sorted by name, which makes the result byte-identical for
// identical inputs. The string doubles as the result cache key.
func (b Builder) Build(spec FilterSpec, cursor *string, reset bool) string {
	size := b.PageSize
	if size <= 0 {
		size = paging.DefaultPageSize
	}

	values := url.Values{}
	values.Set(ParamPageSize, strconv.Itoa(size))
	values.Set(ParamSortBy, spec.SortField())
	values.Set(ParamSortOrder, string(spec.Direction()))

	if spec.Search != "" {
		values.Set(ParamSearch, spec.Search)
	}
	if spec.Status.Valid && spec.Status.String != "" {
		values.Set(ParamStatus, spec.Status.String)
	}
	if spec.Category.Valid && spec.Category.String != "" {
		values.Set(ParamCategory, spec.Category.String)
	}
	if spec.Vendor.Valid && spec.Vendor.String != "" {
		values.Set(ParamVendor, spec.Vendor.String)
	}
	if spec.MinPrice.Valid {
		values.Set(ParamMinPrice, formatFloat(spec.MinPrice.Float64))
	}
	if spec.MaxPrice.Valid {
		values.Set(ParamMaxPrice, formatFloat(spec.MaxPrice.Float64))
	}
	if spec.MinDate.Valid {
		values.Set(ParamMinDate, spec.MinDate.Time.Format(DateLayout))
	}
	if spec.MaxDate.Valid {
		values.Set(ParamMaxDate, spec.MaxDate.Time.Format(DateLayout))
	}

	if !reset && cursor != nil && *cursor != "" {
		values.Set(ParamCursor, *cursor)
	}

	return values.Encode()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
