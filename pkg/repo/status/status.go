// Package status exports errors produced by the repo package.
package status

import (
	"github.com/oneconcern/configsvc/pkg/errors"
)

var (
	// ErrFileAlreadyExists indicates a create on a path which is already tracked
	ErrFileAlreadyExists = errors.New("file already exists")

	// ErrFileNotFound indicates an untracked path, or an unknown revision of a tracked path
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidInput indicates a malformed path or revision id
	ErrInvalidInput = errors.New("invalid input")

	// ErrInconsistentRepository indicates that some metadata on the backing store does not follow the expected layout.
	//
	// This happens when objects are written to the backing store by some other means than the repository.
	ErrInconsistentRepository = errors.New("inconsistent repository")
)
