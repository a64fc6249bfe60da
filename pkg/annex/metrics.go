package annex

import (
	"github.com/prometheus/client_golang/prometheus"
)

type annexMetrics struct {
	written      prometheus.Counter
	deduplicated prometheus.Counter
	bytesWritten prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) (*annexMetrics, error) {
	m := &annexMetrics{
		written: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "annex_blobs_written_total",
			Help: "Number of blobs written to the annex",
		}),
		deduplicated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "annex_blobs_deduplicated_total",
			Help: "Number of stored blobs which were found already present in the annex",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "annex_bytes_written_total",
			Help: "Cumulated size of the blobs written to the annex, before compression",
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.written, m.deduplicated, m.bytesWritten} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
