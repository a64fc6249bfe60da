package model

import "github.com/oneconcern/configsvc/pkg/errors"

var (
	// ErrInvalidPath indicates a malformed configuration file path
	ErrInvalidPath = errors.New("invalid path")

	// ErrInvalidRevisionID indicates a revision id which is not a valid ksuid
	ErrInvalidRevisionID = errors.New("invalid revision id")

	// ErrInvalidPointer indicates that some content does not decode as an annex pointer record
	ErrInvalidPointer = errors.New("invalid annex pointer record")

	// ErrInvalidArchivePath indicates a key on the backing store that does not follow the archive layout
	ErrInvalidArchivePath = errors.New("invalid archive path")
)
