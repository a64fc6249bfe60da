// Package status exports errors produced by the config service.
//
// Business errors report an expected outcome of a well-formed request against the current state
// of the store. All other errors are system errors: the request could not be served.
package status

import (
	"context"

	annexstatus "github.com/oneconcern/configsvc/pkg/annex/status"
	"github.com/oneconcern/configsvc/pkg/errors"
	repostatus "github.com/oneconcern/configsvc/pkg/repo/status"
)

var (
	// ErrFileAlreadyExists indicates a create on a path which is already tracked
	ErrFileAlreadyExists = repostatus.ErrFileAlreadyExists

	// ErrFileNotFound indicates an untracked path, or an unknown revision of a tracked path
	ErrFileNotFound = repostatus.ErrFileNotFound

	// ErrInvalidInput indicates a malformed request
	ErrInvalidInput = repostatus.ErrInvalidInput

	// ErrBackingStoreUnavailable indicates a failure of the storage backing the repository or the annex
	ErrBackingStoreUnavailable = errors.New("backing store unavailable")

	// ErrAnnexBlobMissing indicates a pointer record referencing a blob absent from the annex
	ErrAnnexBlobMissing = annexstatus.ErrNotFound
)

// IsBusiness tells if an error reports an expected outcome rather than a failure
func IsBusiness(err error) bool {
	return errors.Is(err, ErrFileAlreadyExists) ||
		errors.Is(err, ErrFileNotFound) ||
		errors.Is(err, ErrInvalidInput)
}

// IsCancelled tells if an error results from a cancelled or expired context
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Classify leaves business errors, cancellations and known system errors untouched,
// and reports any other error as an unavailable backing store.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case IsBusiness(err), IsCancelled(err):
		return err
	case errors.Is(err, ErrBackingStoreUnavailable), errors.Is(err, ErrAnnexBlobMissing):
		return err
	default:
		return ErrBackingStoreUnavailable.Wrap(err)
	}
}
