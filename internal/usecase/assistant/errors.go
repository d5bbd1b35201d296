package assistant

import "errors"

var (
	// ErrEmptyQuery is returned for a blank chat query.
	ErrEmptyQuery = errors.New("query is required")
	// ErrQueryTooLong is returned when a chat query exceeds MaxQueryRunes.
	ErrQueryTooLong = errors.New("query is too long")
	// ErrTitleRequired is returned by Related without a post title.
	ErrTitleRequired = errors.New("post title is required")
)
