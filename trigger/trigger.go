// Package trigger turns viewport observations into load-more requests.
//
// Two independent signals are provided: Intersection fires when the last
// rendered item becomes visible, Scroll fires when the remaining scroll
// distance drops below a threshold. Both call the same Loader.LoadMore entry
// point, which is guarded, so redundant or simultaneous firings never cause
// more than one fetch.
package trigger

import "context"

// Loader is the guarded load-more entry point. *controller.Controller satisfies it.
type Loader interface {
	// LoadMore loads the next page if one exists and no load is in flight.
	// It reports whether a load was started.
	LoadMore(ctx context.Context) bool

	// HasMore reports whether another page exists.
	HasMore() bool
}

// Set arms both signals on one loader.
type Set struct {
	Scroll       *Scroll
	Intersection *Intersection
}

// NewSet creates both signals for loader.
func NewSet(loader Loader, opts ...ScrollOption) *Set {
	return &Set{
		Scroll:       NewScroll(loader, opts...),
		Intersection: NewIntersection(loader),
	}
}

// Observe forwards a viewport observation to both signals: the scroll
// geometry to Scroll and the last visible item index to Intersection.
// It reports whether either signal started a load.
func (s *Set) Observe(ctx context.Context, vp Viewport, lastVisible int) bool {
	byIntersection := s.Intersection.Visible(ctx, lastVisible)
	byScroll := s.Scroll.Notify(ctx, vp)
	return byIntersection || byScroll
}
