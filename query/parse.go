package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aarondl/null/v8"
)

// ParseFilter builds a FilterSpec from wire-named key/value pairs, e.g. the
// arguments of a CLI command ("search=bolt", "min_price=10"). Unknown keys
// and malformed values are reported as *ValidationError. The result is
// validated before it is returned.
func ParseFilter(pairs map[string]string) (FilterSpec, error) {
	var spec FilterSpec

	for key, raw := range pairs {
		value := strings.TrimSpace(raw)

		switch key {
		case ParamSearch:
			spec.Search = value
		case ParamStatus:
			spec = spec.WithStatus(strings.ToLower(value))
		case ParamCategory:
			spec = spec.WithCategory(value)
		case ParamVendor:
			spec = spec.WithVendor(value)
		case ParamMinPrice, ParamMaxPrice:
			price, err := parsePrice(key, value)
			if err != nil {
				return FilterSpec{}, err
			}
			if key == ParamMinPrice {
				spec.MinPrice = price
			} else {
				spec.MaxPrice = price
			}
		case ParamMinDate, ParamMaxDate:
			date, err := parseDate(key, value)
			if err != nil {
				return FilterSpec{}, err
			}
			if key == ParamMinDate {
				spec.MinDate = date
			} else {
				spec.MaxDate = date
			}
		case ParamSortBy:
			spec.SortBy = value
		case ParamSortOrder:
			spec.SortOrder = Direction(strings.ToLower(value))
		default:
			return FilterSpec{}, &ValidationError{Field: key, Reason: "unknown filter"}
		}
	}

	if err := spec.Validate(); err != nil {
		return FilterSpec{}, err
	}

	return spec, nil
}

// ParsePairs splits "key=value" arguments into a map. Later keys win.
func ParsePairs(args []string) (map[string]string, error) {
	pairs := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		pairs[strings.ToLower(strings.TrimSpace(key))] = value
	}
	return pairs, nil
}

func parsePrice(field, value string) (null.Float64, error) {
	if value == "" {
		return null.Float64{}, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return null.Float64{}, &ValidationError{Field: field, Reason: fmt.Sprintf("not a number: %q", value)}
	}
	return null.Float64From(v), nil
}

func parseDate(field, value string) (null.Time, error) {
	if value == "" {
		return null.Time{}, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return null.Time{}, &ValidationError{Field: field, Reason: fmt.Sprintf("expected YYYY-MM-DD, got %q", value)}
	}
	return null.TimeFrom(t), nil
}
