package ingestiondb

import "errors"

// ErrNotFound is returned by lookup methods when no row matches. Callers
// translate it into the appropriate resolution failure.
var ErrNotFound = errors.New("record not found")
