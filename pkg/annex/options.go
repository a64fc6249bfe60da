package annex

import (
	"github.com/oneconcern/configsvc/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Option to configure the annex
type Option func(*Annex)

// Backend specifies the backend store for blobs
func Backend(store storage.Store) Option {
	return func(a *Annex) {
		a.backend = store
	}
}

// Scheme selects the hashing scheme used to key new blobs
func Scheme(scheme string) Option {
	return func(a *Annex) {
		if scheme != "" {
			a.scheme = scheme
		}
	}
}

// Compression stores blobs as zstd frames.
//
// This is a property of the backend: all blobs in a given backend must be stored with the same setting.
func Compression(enabled bool) Option {
	return func(a *Annex) {
		a.compress = enabled
	}
}

// VerifyHash enables hash verification on fetched blobs
func VerifyHash(enabled bool) Option {
	return func(a *Annex) {
		a.verifyHash = enabled
	}
}

// KeysCacheSize sets the size of the LRU cache for known keys, in number of keys
func KeysCacheSize(keys int) Option {
	return func(a *Annex) {
		if keys > 0 {
			a.keysCacheSize = keys
		}
	}
}

// Spool sets the file system used to buffer incoming content while it is hashed
func Spool(fs afero.Fs) Option {
	return func(a *Annex) {
		a.spool = fs
	}
}

// Logger sets a logger for the annex
func Logger(l *zap.Logger) Option {
	return func(a *Annex) {
		a.l = l
	}
}

// Registerer sets the prometheus registry for annex metrics
func Registerer(reg prometheus.Registerer) Option {
	return func(a *Annex) {
		a.registerer = reg
	}
}
