package httpparse

import "errors"

// ErrMethodNotSupported is returned by ParseRequest for any method other
// than GET: pstore's status server is read-only.
var ErrMethodNotSupported = errors.New("httpparse: only GET is supported")
