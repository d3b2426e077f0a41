package controller

import (
	"errors"

	"github.com/nrfta/feed-paging/query"
)

// ErrLoadFailed is the generic, user-visible failure reported in State.Err.
// The underlying cause is reachable through errors.Unwrap.
var ErrLoadFailed = errors.New("failed to load orders, please try again")

// LoadError wraps a fetch failure. Its message is always the generic
// ErrLoadFailed text so it can be shown to users as is.
type LoadError struct {
	Cause error
}

func (e *LoadError) Error() string {
	return ErrLoadFailed.Error()
}

// Unwrap returns the transport or server error behind the failure.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrLoadFailed) hold for every LoadError.
func (e *LoadError) Is(target error) bool {
	return target == ErrLoadFailed
}

// State is a consistent snapshot of the accumulated result set and the
// loading flags. Items is a copy and may be kept by the caller.
type State[T any] struct {
	// Items holds every item fetched in the current epoch, in arrival order.
	Items []T

	// Cursor is a copy of the continuation token of the last applied page.
	Cursor *string

	// HasMore reports whether another page can be loaded.
	HasMore bool

	// Loading is set while a reset load (page one) is in progress.
	Loading bool

	// LoadingMore is set while a continuation load is in progress.
	LoadingMore bool

	// Err is a *LoadError after a failed fetch; nil after the next success.
	Err error

	// Epoch increments on every reset.
	Epoch uint64

	// Filter is the filter and sort configuration of the current epoch.
	Filter query.FilterSpec
}

// Busy reports whether any load is in progress.
func (s State[T]) Busy() bool {
	return s.Loading || s.LoadingMore
}
