// Package query builds canonical query strings for the paginated collection endpoint.
//
// A FilterSpec describes which records the user wants to see and in what
// order. Builder turns a FilterSpec plus an optional continuation cursor into a
// query string. The output is deterministic: identical inputs always produce
// byte-identical strings, which lets the result cache use them as keys.
//
// Example usage:
//
//	spec := query.FilterSpec{}.WithSearch("bolt").WithSort("total_price", query.Desc)
//	b := query.NewBuilder(20)
//	first := b.Build(spec, nil, true)     // page_size=20&search=bolt&sort_by=total_price&sort_order=desc
//	next := b.Build(spec, cursor, false)  // ...&cursor=<token>
package query

import (
	"fmt"
	"math"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/aarondl/strmangle"
)

// Direction is the sort direction of a query.
type Direction string

const (
	// Asc sorts ascending. It is the default.
	Asc Direction = "asc"
	// Desc sorts descending.
	Desc Direction = "desc"
)

// DefaultSortField is used when a FilterSpec carries no sort field.
const DefaultSortField = "id"

// DateLayout is the wire format of min_date and max_date.
const DateLayout = "2006-01-02"

// SortableFields lists the fields the collection endpoint can sort by.
var SortableFields = []string{
	"id",
	"order_date",
	"delivery_date",
	"total_price",
	"item_name",
	"status",
	"quantity",
	"unit_price",
}

// Statuses lists the order statuses accepted by the status filter.
var Statuses = []string{"pending", "processing", "shipped", "delivered", "cancelled"}

// FilterSpec is the immutable filter and sort configuration of one query epoch.
// Optional fields use null types: an invalid (unset) value is omitted from the
// query entirely. Use the With* methods to derive a new value; they never
// modify the receiver.
type FilterSpec struct {
	Search    string
	Status    null.String
	Category  null.String
	Vendor    null.String
	MinPrice  null.Float64
	MaxPrice  null.Float64
	MinDate   null.Time
	MaxDate   null.Time
	SortBy    string
	SortOrder Direction
}

// WithSearch returns a copy of f with the free-text search set.
func (f FilterSpec) WithSearch(search string) FilterSpec {
	f.Search = search
	return f
}

// WithStatus returns a copy of f filtered by status. An empty status clears the filter.
func (f FilterSpec) WithStatus(status string) FilterSpec {
	f.Status = null.NewString(status, status != "")
	return f
}

// WithCategory returns a copy of f filtered by category.
func (f FilterSpec) WithCategory(category string) FilterSpec {
	f.Category = null.NewString(category, category != "")
	return f
}

// WithVendor returns a copy of f filtered by vendor.
func (f FilterSpec) WithVendor(vendor string) FilterSpec {
	f.Vendor = null.NewString(vendor, vendor != "")
	return f
}

// WithPriceRange returns a copy of f bounded by total price. Pass nil to leave a bound open.
func (f FilterSpec) WithPriceRange(min, max *float64) FilterSpec {
	f.MinPrice = null.Float64FromPtr(min)
	f.MaxPrice = null.Float64FromPtr(max)
	return f
}

// WithDateRange returns a copy of f bounded by order date. Pass nil to leave a bound open.
func (f FilterSpec) WithDateRange(min, max *time.Time) FilterSpec {
	f.MinDate = null.TimeFromPtr(min)
	f.MaxDate = null.TimeFromPtr(max)
	return f
}

// WithSort returns a copy of f with the given sort field and direction.
func (f FilterSpec) WithSort(field string, dir Direction) FilterSpec {
	f.SortBy = field
	f.SortOrder = dir
	return f
}

// SortField returns the effective sort field, defaulting to DefaultSortField.
func (f FilterSpec) SortField() string {
	if f.SortBy == "" {
		return DefaultSortField
	}
	return f.SortBy
}

// Direction returns the effective sort direction, defaulting to Asc.
func (f FilterSpec) Direction() Direction {
	if f.SortOrder == "" {
		return Asc
	}
	return f.SortOrder
}

// Key returns the canonical identity of the filter and sort tuple.
// Cursor and pagination state never take part in it.
func (f FilterSpec) Key() string {
	return Builder{}.Build(f, nil, true)
}

// Equal reports whether f and other select the same records in the same order.
func (f FilterSpec) Equal(other FilterSpec) bool {
	return f.Key() == other.Key()
}

// IsZero reports whether f carries no filters and the default sort.
func (f FilterSpec) IsZero() bool {
	return f.Equal(FilterSpec{})
}

// Validate checks f against what the collection endpoint accepts.
// It returns a *ValidationError describing the first problem found.
func (f FilterSpec) Validate() error {
	if !strmangle.SetInclude(f.SortField(), SortableFields) {
		return &ValidationError{Field: "sort_by", Reason: fmt.Sprintf("unsupported sort field %q", f.SortBy)}
	}

	if d := f.Direction(); d != Asc && d != Desc {
		return &ValidationError{Field: "sort_order", Reason: fmt.Sprintf("must be asc or desc, got %q", d)}
	}

	if f.Status.Valid && f.Status.String != "" && !strmangle.SetInclude(f.Status.String, Statuses) {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", f.Status.String)}
	}

	if f.MinPrice.Valid && !isFinite(f.MinPrice.Float64) {
		return &ValidationError{Field: "min_price", Reason: "must be a finite number"}
	}

	if f.MaxPrice.Valid && !isFinite(f.MaxPrice.Float64) {
		return &ValidationError{Field: "max_price", Reason: "must be a finite number"}
	}

	if f.MinPrice.Valid && f.MinPrice.Float64 < 0 {
		return &ValidationError{Field: "min_price", Reason: "must not be negative"}
	}

	if f.MaxPrice.Valid && f.MaxPrice.Float64 < 0 {
		return &ValidationError{Field: "max_price", Reason: "must not be negative"}
	}

	if f.MinPrice.Valid && f.MaxPrice.Valid && f.MinPrice.Float64 > f.MaxPrice.Float64 {
		return &ValidationError{Field: "min_price", Reason: "must not exceed max_price"}
	}

	if f.MinDate.Valid && f.MaxDate.Valid && f.MinDate.Time.After(f.MaxDate.Time) {
		return &ValidationError{Field: "min_date", Reason: "must not be after max_date"}
	}

	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ValidationError is returned when a FilterSpec cannot be sent to the endpoint.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid filter %s: %s", e.Field, e.Reason)
}
