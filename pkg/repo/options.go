package repo

import (
	"time"

	"github.com/oneconcern/configsvc/pkg/model"
	"go.uber.org/zap"
)

// Option to configure the repository
type Option func(*Repository)

// Logger sets a logger for the repository
func Logger(l *zap.Logger) Option {
	return func(r *Repository) {
		r.l = l
	}
}

// Namespace sets the namespace of tracked paths. The default is model.NamespaceFiles.
func Namespace(ns string) Option {
	return func(r *Repository) {
		r.ns = ns
	}
}

// Clock sets the source of commit timestamps
func Clock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// DescriptorCacheSize sets the number of revision descriptors kept in memory
func DescriptorCacheSize(size int) Option {
	return func(r *Repository) {
		if size > 0 {
			r.cacheSize = size
		}
	}
}

// Contributor sets the author recorded on commits
func Contributor(c model.Contributor) Option {
	return func(r *Repository) {
		r.contributor = c
	}
}
