package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option to configure the service
type Option func(*Service)

// Logger sets a logger for the service
func Logger(l *zap.Logger) Option {
	return func(s *Service) {
		s.l = l
	}
}

// Registerer registers the service metrics. By default, metrics go to a private registry.
func Registerer(reg prometheus.Registerer) Option {
	return func(s *Service) {
		if reg != nil {
			s.registerer = reg
		}
	}
}

// MaxConfigFileSize rejects files larger than this size. A size of zero means no limit.
func MaxConfigFileSize(size int64) Option {
	return func(s *Service) {
		if size >= 0 {
			s.maxFileSize = size
		}
	}
}
