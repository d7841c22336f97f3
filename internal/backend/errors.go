package backend

import (
	"errors"
	"fmt"

	"github.com/nxemu/fspsrv/internal/protocol/result"
)

// Sentinel errors shared by all backend implementations. The protocol layer
// translates them to result codes; anything else surfaces as a generic
// failure.
var (
	// ErrNotFound reports a name that does not resolve to an entry.
	ErrNotFound = errors.New("entry not found")

	// ErrExists reports a create colliding with an existing entry.
	ErrExists = errors.New("entry already exists")

	// ErrNotAFile reports a file operation on a directory entry.
	ErrNotAFile = errors.New("entry is not a file")

	// ErrNotADirectory reports a directory operation on a file entry.
	ErrNotADirectory = errors.New("entry is not a directory")

	// ErrReadOnly reports a mutation through a read-only handle or mount.
	ErrReadOnly = errors.New("handle is read-only")
)

// StatusError carries a backend-specific result code through the protocol
// layer verbatim. The core neither inspects nor retries it.
type StatusError struct {
	Code result.Code
}

// Status wraps a raw backend result code in an error.
func Status(code result.Code) *StatusError {
	return &StatusError{Code: code}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend status %s", e.Code)
}
