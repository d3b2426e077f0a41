package paging

import "fmt"

const (
	// DefaultPageSize is the number of items requested per page when not configured.
	DefaultPageSize = 20

	// MaxPageSize is the largest page size the collection endpoint accepts.
	// Larger values are capped, not rejected.
	MaxPageSize = 100

	// DefaultCacheCapacity is the number of pages the result cache holds
	// before it starts evicting the oldest-inserted entry.
	DefaultCacheCapacity = 50
)

// Config holds pagination configuration options.
// Use NewConfig() to create a config with sensible defaults,
// then customize using the With* methods.
//
// Example:
//
//	cfg := paging.NewConfig().WithPageSize(50).WithCacheCapacity(10)
//	size := cfg.EffectivePageSize()
type Config struct {
	// PageSize is the page_size parameter sent with every query.
	PageSize int

	// CacheCapacity bounds the number of cached pages.
	CacheCapacity int
}

// NewConfig creates a Config with sensible defaults:
// - PageSize: 20
// - CacheCapacity: 50
func NewConfig() *Config {
	return &Config{
		PageSize:      DefaultPageSize,
		CacheCapacity: DefaultCacheCapacity,
	}
}

// WithPageSize sets the page size and returns the config for chaining.
func (c *Config) WithPageSize(size int) *Config {
	if size > 0 {
		c.PageSize = size
	}
	return c
}

// WithCacheCapacity sets the cache capacity and returns the config for chaining.
func (c *Config) WithCacheCapacity(capacity int) *Config {
	if capacity > 0 {
		c.CacheCapacity = capacity
	}
	return c
}

// EffectivePageSize returns the page size to use, applying defaults and caps.
// - If c is nil or PageSize is zero, returns DefaultPageSize
// - If PageSize exceeds MaxPageSize, returns MaxPageSize
func (c *Config) EffectivePageSize() int {
	if c == nil || c.PageSize <= 0 {
		return DefaultPageSize
	}
	if c.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return c.PageSize
}

// EffectiveCacheCapacity returns the cache capacity, defaulting to DefaultCacheCapacity.
func (c *Config) EffectiveCacheCapacity() int {
	if c == nil || c.CacheCapacity <= 0 {
		return DefaultCacheCapacity
	}
	return c.CacheCapacity
}

// Validate checks the page size against MaxPageSize and returns an error if it
// is exceeded. Unlike EffectivePageSize which caps silently, Validate is meant
// for rejecting user input early (e.g. a CLI flag).
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.PageSize > MaxPageSize {
		return &PageSizeError{
			Requested: c.PageSize,
			Maximum:   MaxPageSize,
		}
	}
	return nil
}

// PageSizeError is returned when the requested page size exceeds the maximum allowed.
type PageSizeError struct {
	Requested int
	Maximum   int
}

func (e *PageSizeError) Error() string {
	return fmt.Sprintf("requested page size %d exceeds maximum allowed page size of %d",
		e.Requested, e.Maximum)
}
