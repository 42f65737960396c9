package db

import "errors"

// ErrNotFound is returned by repositories when a lookup matches no rows.
// Callers test for it with errors.Is.
var ErrNotFound = errors.New("record not found")
