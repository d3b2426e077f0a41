package trigger

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultThreshold is the remaining scroll distance below which Scroll fires.
const DefaultThreshold = 300

// Viewport is the scroll geometry of the list container.
type Viewport struct {
	// ScrollHeight is the total scrollable height.
	ScrollHeight float64
	// ScrollTop is the current scroll offset.
	ScrollTop float64
	// ClientHeight is the visible height.
	ClientHeight float64
}

// Remaining returns the distance between the bottom of the visible area and
// the end of the list.
func (v Viewport) Remaining() float64 {
	return v.ScrollHeight - v.ScrollTop - v.ClientHeight
}

// Scroll fires a load-more request when the viewport nears the end of the list.
type Scroll struct {
	loader    Loader
	threshold float64
	limiter   *rate.Limiter
}

// ScrollOption configures a Scroll signal.
type ScrollOption func(*Scroll)

// WithThreshold sets the remaining distance below which the signal fires.
func WithThreshold(threshold float64) ScrollOption {
	return func(s *Scroll) {
		if threshold > 0 {
			s.threshold = threshold
		}
	}
}

// WithThrottle drops scroll observations arriving more often than once per
// interval. Zero disables throttling.
func WithThrottle(interval time.Duration) ScrollOption {
	return func(s *Scroll) {
		if interval > 0 {
			s.limiter = rate.NewLimiter(rate.Every(interval), 1)
		} else {
			s.limiter = nil
		}
	}
}

// NewScroll creates a scroll-distance signal for loader.
func NewScroll(loader Loader, opts ...ScrollOption) *Scroll {
	s := &Scroll{
		loader:    loader,
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Threshold returns the configured threshold.
func (s *Scroll) Threshold() float64 {
	return s.threshold
}

// Notify handles one scroll observation and reports whether it started a load.
func (s *Scroll) Notify(ctx context.Context, vp Viewport) bool {
	if vp.Remaining() >= s.threshold {
		return false
	}
	if s.limiter != nil && !s.limiter.Allow() {
		return false
	}
	return s.loader.LoadMore(ctx)
}
