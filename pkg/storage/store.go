// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"
	"io/ioutil"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

// NewKey tells a Put operation whether it may replace an existing object
type NewKey bool

const (
	// NoOverWrite makes Put fail with status.ErrExists when the key is already present
	NoOverWrite NewKey = true

	// OverWrite lets Put replace an existing object
	OverWrite NewKey = false

	// DefaultPageSize is the number of keys returned by a KeysPrefix call when no count is specified
	DefaultPageSize = 1000
)

// Store implementations know how to write entries to a K/V model.
//
// Typically this is something file system-like. Examples are S3, local FS, NFS, ...
// Implementations of this interface are assumed to be fairly simple.
//
// Get returns status.ErrNotExists when the key is absent.
type Store interface {
	String() string
	Has(context.Context, string) (bool, error)
	Get(context.Context, string) (io.ReadCloser, error)
	Put(context.Context, string, io.Reader, NewKey) error
	Delete(context.Context, string) error
	Keys(context.Context) ([]string, error)

	// KeysPrefix lists keys starting with prefix, in lexicographic order, resuming after pageToken.
	//
	// When delimiter is not empty, keys sharing the same path up to the next delimiter past the prefix
	// are rolled up into that common prefix. The returned token is empty when there are no more keys.
	KeysPrefix(ctx context.Context, pageToken, prefix, delimiter string, count int) ([]string, string, error)
	Clear(context.Context) error
}

// ReadAll retrieves the full content of an object
func ReadAll(ctx context.Context, store Store, key string) (b []byte, err error) {
	rdr, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, rdr.Close())
	}()
	return ioutil.ReadAll(rdr)
}

// ListPrefix walks all pages of keys matching a prefix
func ListPrefix(ctx context.Context, store Store, prefix string) ([]string, error) {
	var (
		all   []string
		token string
	)
	for {
		keys, next, err := store.KeysPrefix(ctx, token, prefix, "", DefaultPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, keys...)
		if next == "" {
			return all, nil
		}
		token = next
	}
}

// PipeIO copies a reader into a writer, using the most efficient path available
func PipeIO(writer io.Writer, reader io.Reader) (n int64, err error) {
	if wt, ok := reader.(io.WriterTo); ok {
		return wt.WriteTo(writer)
	}
	return io.Copy(writer, reader)
}

// Page applies the paging semantics of KeysPrefix to a sorted list of keys.
//
// Stores without native support for prefix listing use this on the full list of their keys.
func Page(sorted []string, pageToken, prefix, delimiter string, count int) ([]string, string) {
	if count <= 0 {
		count = DefaultPageSize
	}
	start := sort.SearchStrings(sorted, prefix)
	if pageToken > prefix {
		start = sort.Search(len(sorted), func(i int) bool { return sorted[i] > pageToken })
	}

	page := make([]string, 0, count)
	for i := start; i < len(sorted); i++ {
		key := sorted[i]
		if !strings.HasPrefix(key, prefix) {
			break
		}
		if delimiter != "" {
			if idx := strings.Index(key[len(prefix):], delimiter); idx >= 0 {
				key = key[:len(prefix)+idx+len(delimiter)]
			}
		}
		if key <= pageToken || (len(page) > 0 && page[len(page)-1] == key) {
			continue
		}
		if len(page) == count {
			return page, page[len(page)-1]
		}
		page = append(page, key)
	}
	return page, ""
}
