// Package kv provides a storage.Store backed by an embedded badger key-value database.
//
// Objects are held as badger values: this backend is meant for repository metadata
// and small configuration files, not for oversize annex blobs.
package kv

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dgraph-io/badger/v3"
	"github.com/oneconcern/configsvc/pkg/errors"
	"github.com/oneconcern/configsvc/pkg/storage"
	"github.com/oneconcern/configsvc/pkg/storage/status"
	"go.uber.org/zap"
)

var _ storage.Store = &Store{}

// Option configures the badger store
type Option func(*Store)

// InMemory runs badger without touching the disk
func InMemory() Option {
	return func(s *Store) {
		s.inMemory = true
	}
}

// Logger routes badger logs to a zap logger
func Logger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.l = l
		}
	}
}

// ConflictRetryInterval sets the wait between two attempts of a conflicting transaction
func ConflictRetryInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.retryInterval = d
		}
	}
}

// Store is a storage.Store on a badger database
type Store struct {
	dir           string
	inMemory      bool
	retryInterval time.Duration
	l             *zap.Logger
	db            *badger.DB
}

// New opens (or creates) a badger database located at dir
func New(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		dir:           dir,
		retryInterval: 10 * time.Millisecond,
		l:             zap.NewNop(),
	}
	for _, apply := range opts {
		apply(s)
	}

	var bopts badger.Options
	if s.inMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("makeKV: mkdir: %w", err)
		}
		bopts = badger.DefaultOptions(dir)
	}
	bopts = bopts.
		WithLogger(zapLogger{s: s.l.Sugar()}).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open KV: %w", err)
	}
	s.db = db
	return s, nil
}

// Close the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) String() string {
	if s.inMemory {
		return "badger@memory"
	}
	return "badger@" + s.dir
}

func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, e := txn.Get([]byte(key))
		return e
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, e := txn.Get([]byte(key))
		if e != nil {
			return e
		}
		value, e = item.ValueCopy(nil)
		return e
	})
	if err != nil {
		return nil, rewriteError(key, err)
	}
	return ioutil.NopCloser(bytes.NewReader(value)), nil
}

// Put stores a value, retrying on transaction conflicts
func (s *Store) Put(ctx context.Context, key string, rdr io.Reader, exclusive storage.NewKey) error {
	value, err := ioutil.ReadAll(rdr)
	if err != nil {
		return fmt.Errorf("reading value for %q: %w", key, err)
	}
	k := []byte(key)

	return backoff.Retry(func() error {
		err := s.db.Update(func(txn *badger.Txn) error {
			if exclusive {
				_, e := txn.Get(k)
				if e == nil {
					return status.ErrExists.WrapMessage("key %q", key)
				}
				if !errors.Is(e, badger.ErrKeyNotFound) {
					return e
				}
			}
			return txn.Set(k, value)
		})
		if err != nil && !errors.Is(err, badger.ErrConflict) {
			return backoff.Permanent(rewriteError(key, err))
		}
		return err // nil, or conflict: retry
	},
		backoff.WithContext(backoff.NewConstantBackOff(s.retryInterval), ctx),
	)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	return s.keys("")
}

// KeysPrefix iterates natively over the prefix: badger keys are sorted
func (s *Store) KeysPrefix(ctx context.Context, token, prefix, delimiter string, count int) ([]string, string, error) {
	keys, err := s.keys(prefix)
	if err != nil {
		return nil, "", err
	}
	page, next := storage.Page(keys, token, prefix, delimiter, count)
	return page, next, nil
}

func (s *Store) keys(prefix string) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		iter := txn.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, string(iter.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !sort.StringsAreSorted(keys) {
		sort.Strings(keys)
	}
	return keys, nil
}

func (s *Store) Clear(ctx context.Context) error {
	return s.db.DropAll()
}

func rewriteError(key string, err error) error {
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return status.ErrNotExists.WrapMessage("key %q", key)
	case errors.Is(err, badger.ErrEmptyKey):
		return status.ErrInvalidResource.Wrap(err)
	default:
		return err
	}
}

// zapLogger adapts a zap logger to the badger logging interface
type zapLogger struct {
	s *zap.SugaredLogger
}

func (z zapLogger) Errorf(format string, args ...interface{}) {
	z.s.Errorf(strings.TrimSpace(format), args...)
}

func (z zapLogger) Warningf(format string, args ...interface{}) {
	z.s.Warnf(strings.TrimSpace(format), args...)
}

func (z zapLogger) Infof(format string, args ...interface{}) {
	z.s.Infof(strings.TrimSpace(format), args...)
}

func (z zapLogger) Debugf(format string, args ...interface{}) {
	z.s.Debugf(strings.TrimSpace(format), args...)
}
