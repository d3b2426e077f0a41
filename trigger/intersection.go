package trigger

import (
	"context"
	"sync"
)

// Intersection fires a load-more request when the sentinel, the last
// rendered item, becomes visible.
type Intersection struct {
	loader Loader

	mu       sync.Mutex
	sentinel int
}

// NewIntersection creates an intersection signal for loader. It is disarmed
// until Observe is called.
func NewIntersection(loader Loader) *Intersection {
	return &Intersection{loader: loader, sentinel: -1}
}

// Observe moves the sentinel to the last rendered index. Call it after every
// render; a negative index disarms the signal.
func (i *Intersection) Observe(lastIndex int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.sentinel = lastIndex
}

// Visible reports that the item at index entered the viewport. It starts a
// load when index reaches the sentinel and more pages exist.
func (i *Intersection) Visible(ctx context.Context, index int) bool {
	i.mu.Lock()
	sentinel := i.sentinel
	i.mu.Unlock()

	if sentinel < 0 || index < sentinel {
		return false
	}
	if !i.loader.HasMore() {
		return false
	}
	return i.loader.LoadMore(ctx)
}
