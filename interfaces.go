package paging

import "context"

// Fetcher is the core interface for all remote page sources.
// A Fetcher turns a canonical query string into one page of a paginated
// collection. Implementations include the HTTP fetcher in package remote and
// in-memory fakes used in tests.
//
// Type parameter T is the item type being paginated (e.g., orders.Order).
//
// The query string is produced by query.Builder and is passed verbatim; it
// already carries the page size, sort, filters and continuation cursor.
type Fetcher[T any] interface {
	// Fetch retrieves a single page for the given query.
	// Any transport or server failure is returned as an error; a returned
	// page is always complete.
	Fetch(ctx context.Context, query string) (*Page[T], error)
}

// FetcherFunc is a function adapter that implements the Fetcher interface.
//
// Example:
//
//	fetcher := paging.FetcherFunc[Order](func(ctx context.Context, q string) (*paging.Page[Order], error) {
//	    return client.List(ctx, q)
//	})
type FetcherFunc[T any] func(ctx context.Context, query string) (*Page[T], error)

// Fetch implements the Fetcher interface for FetcherFunc.
func (f FetcherFunc[T]) Fetch(ctx context.Context, query string) (*Page[T], error) {
	return f(ctx, query)
}

// Page represents a single page of paginated results.
// It contains the items in server order and the continuation metadata.
//
// Type parameter T is the item type being paginated.
type Page[T any] struct {
	// Items contains the records for this page, in the order the server returned them.
	Items []T `json:"data"`

	// Meta contains the continuation metadata (next cursor, has_next, etc.)
	Meta PageMeta `json:"meta"`
}

// PageMeta is the pagination metadata returned with every page.
//
// HasNext == false is the terminal signal: no further pages exist for the query
// that produced this page. Cursor is opaque and must be passed back verbatim.
type PageMeta struct {
	// Cursor is the resume point after the last returned item. Nil on the last page.
	Cursor *string `json:"cursor"`

	// HasNext reports whether another page exists after this one.
	HasNext bool `json:"has_next"`

	// HasPrev reports whether this page was requested with a cursor.
	HasPrev bool `json:"has_prev"`

	// PageSize echoes the page size the server applied.
	PageSize int `json:"page_size"`
}

// Len returns the number of items on the page. It is safe on a nil page.
func (p *Page[T]) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}
