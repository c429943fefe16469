package util

import (
	"errors"
)

// Temporary is implemented by errors which may go away if the operation is retried.
type Temporary interface {
	Temporary() bool
}

// IsTemporaryError reports whether the outermost Temporary error in the chain considers itself temporary.
func IsTemporaryError(err error) bool {
	var temporary Temporary
	return errors.As(err, &temporary) && temporary.Temporary()
}
