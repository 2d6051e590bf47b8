package model

import "errors"

var (
	// ErrDuplicateColumnName is returned when a source contains duplicate column names
	ErrDuplicateColumnName = errors.New("duplicate column name")
	// ErrUnsupportedSource is returned for a path whose extension is not recognized
	ErrUnsupportedSource = errors.New("unsupported source")
)
