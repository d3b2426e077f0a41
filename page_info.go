package paging

// TerminalMeta returns the metadata of an exhausted collection: no cursor and
// no next page. Useful when a page has to be synthesized, e.g. in tests.
func TerminalMeta(pageSize int) PageMeta {
	return PageMeta{
		Cursor:   nil,
		HasNext:  false,
		PageSize: pageSize,
	}
}

// NextMeta returns metadata announcing another page reachable through cursor.
func NextMeta(cursor string, pageSize int, hasPrev bool) PageMeta {
	return PageMeta{
		Cursor:   NewCursor(cursor),
		HasNext:  true,
		HasPrev:  hasPrev,
		PageSize: pageSize,
	}
}
