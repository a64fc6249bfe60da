// Package model describes the base objects manipulated by configsvc.
//
// The package exposes a model for metadata and the layout of these objects on a backing store.
//
// The object model for configsvc is composed of:
//
//  Configuration files:
//    A configuration file is identified by a logical path. Its content is opaque bytes.
//
//  Revisions:
//    Every create or update of a file produces an immutable revision, identified by a ksuid.
//    Revisions of a path form a linear history, ordered by commit sequence.
//
//  Heads:
//    A head record tracks whether a path is live, and the generation of its current history.
//    Deleting a path closes its history: a later create opens a new generation.
//
//  Annex pointers:
//    Oversize files are stored in a content-addressed annex. The repository tracks a
//    small pointer record (scheme, hash, size) in place of the content.
//
//  Defaults:
//    A per-path record pinning one revision as the default one. Default records are
//    themselves revisions, tracked in a separate namespace.
package model
