package paging

// NewCursor wraps a server-issued token. An empty token means "start of
// collection" and yields nil.
func NewCursor(token string) *string {
	if token == "" {
		return nil
	}
	return &token
}

// CursorValue returns the token behind c, or "" for the start of the collection.
func CursorValue(c *string) string {
	if c == nil {
		return ""
	}
	return *c
}
