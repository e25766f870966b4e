package ingest

import "errors"

var (
	// ErrSourceUnreadable indicates the input file is missing or its header
	// cannot be parsed. Fatal: the run aborts before any store connection
	// is attempted.
	ErrSourceUnreadable = errors.New("source unreadable")
)
