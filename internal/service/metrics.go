package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"docstore/internal/apperror"
)

const outcomeSuccess = "success"

// Metrics holds the service counters. A nil *Metrics records nothing.
type Metrics struct {
	ingestTotal   *prometheus.CounterVec
	deleteTotal   *prometheus.CounterVec
	orphanedTotal *prometheus.CounterVec
	corruptTotal  prometheus.Counter
}

// NewMetrics creates the service counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ingestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docstore_ingest_total",
				Help: "Total number of ingest calls by outcome.",
			},
			[]string{"outcome"},
		),
		deleteTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docstore_delete_total",
				Help: "Total number of delete calls by outcome.",
			},
			[]string{"outcome"},
		),
		orphanedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docstore_orphaned_blobs_total",
				Help: "Blobs left without a descriptor, by triggering operation.",
			},
			[]string{"op"},
		),
		corruptTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docstore_corrupt_state_total",
				Help: "Retrievals that found a descriptor whose blob is missing or damaged.",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.ingestTotal, m.deleteTotal, m.orphanedTotal, m.corruptTotal} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ingest(err error) {
	if m == nil {
		return
	}
	m.ingestTotal.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) delete(err error) {
	if m == nil {
		return
	}
	m.deleteTotal.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) orphaned(op string) {
	if m == nil {
		return
	}
	m.orphanedTotal.WithLabelValues(op).Inc()
}

func (m *Metrics) corrupt() {
	if m == nil {
		return
	}
	m.corruptTotal.Inc()
}

func outcome(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	return apperror.KindOf(err).String()
}
