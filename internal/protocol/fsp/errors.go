package fsp

import (
	"errors"

	"github.com/nxemu/fspsrv/internal/backend"
	"github.com/nxemu/fspsrv/internal/protocol/result"
)

// resultFromBackend translates a backend failure into the result code
// reported to the caller. Backend-specific codes wrapped in a StatusError
// pass through verbatim; the shared sentinels map to their protocol codes;
// anything else surfaces as the generic backend failure.
func resultFromBackend(err error) result.Code {
	var status *backend.StatusError
	if errors.As(err, &status) {
		return status.Code
	}

	switch {
	case errors.Is(err, backend.ErrNotFound):
		return result.PathNotFound
	case errors.Is(err, backend.ErrExists):
		return result.PathAlreadyExists
	case errors.Is(err, backend.ErrNotAFile), errors.Is(err, backend.ErrNotADirectory):
		return result.PathNotFound
	default:
		return result.Unavailable
	}
}
