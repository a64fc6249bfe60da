package service

import (
	"github.com/oneconcern/configsvc/pkg/service/status"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK        = "ok"
	outcomeBusiness  = "business"
	outcomeCancelled = "cancelled"
	outcomeError     = "error"
)

type serviceMetrics struct {
	operations *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*serviceMetrics, error) {
	m := &serviceMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "configsvc_operations_total",
			Help: "Number of operations served by the config service, by outcome",
		}, []string{"op", "outcome"}),
	}
	if err := reg.Register(m.operations); err != nil {
		return nil, err
	}
	return m, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case status.IsBusiness(err):
		return outcomeBusiness
	case status.IsCancelled(err):
		return outcomeCancelled
	default:
		return outcomeError
	}
}

func (m *serviceMetrics) observe(op string, err error) {
	m.operations.WithLabelValues(op, outcome(err)).Inc()
}
