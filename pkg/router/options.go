package router

import "go.uber.org/zap"

// DefaultAnnexSuffix marks the repository path of files stored in the annex
const DefaultAnnexSuffix = ".annex"

// Option to configure the router
type Option func(*Router)

// AnnexSuffix sets the suffix appended to the repository path of oversize files
func AnnexSuffix(suffix string) Option {
	return func(r *Router) {
		if suffix != "" {
			r.suffix = suffix
		}
	}
}

// AnnexMinFileSize routes new files larger than this size to the annex, even when not flagged as oversize.
//
// A size of zero disables this behavior.
func AnnexMinFileSize(size int64) Option {
	return func(r *Router) {
		if size >= 0 {
			r.minFileSize = size
		}
	}
}

// Logger sets a logger for the router
func Logger(l *zap.Logger) Option {
	return func(r *Router) {
		r.l = l
	}
}
