// Package annex implements a content-addressed, write-once store for oversize configuration files.
//
// Blobs are keyed by a hash of their content:
// storing the same bytes twice yields the same key and writes only once.
//
// The annex never updates nor deletes a blob.
package annex
