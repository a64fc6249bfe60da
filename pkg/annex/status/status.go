// Package status exports errors produced by the annex package.
package status

import (
	"github.com/oneconcern/configsvc/pkg/errors"
)

var (
	// ErrNotFound indicates that no blob is stored under some key.
	//
	// When a pointer record references a missing blob, this signals a corrupted annex.
	ErrNotFound = errors.New("annex blob not found")

	// ErrInvalidKey indicates a malformed annex key or an unknown hashing scheme
	ErrInvalidKey = errors.New("invalid annex key")

	// ErrCorrupted indicates that the content of a blob does not match its key
	ErrCorrupted = errors.New("annex blob does not match its key")

	// ErrStore indicates a failure to spool or write a blob
	ErrStore = errors.New("failed to store annex blob")
)
