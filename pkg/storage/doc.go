// Copyright © 2018 One Concern

// Package storage provides interface to handle backend storage objects.
//
// This package supports the following backends:
//   - local file system (afero)
//   - embedded key-value store (badger)
//   - S3 (AWS)
//
// Objects written by the configuration store are never modified in place:
// revision content and annex blobs are written once with NoOverWrite, only head
// records are replaced.
package storage
