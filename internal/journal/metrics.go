package journal

import "github.com/prometheus/client_golang/prometheus"

// Metrics instruments submissions and account queries.
type Metrics struct {
	submissions *prometheus.CounterVec
	stale       prometheus.Counter
	openDrafts  prometheus.Gauge
}

// NewMetrics registers journal collectors against registerer, or the default
// registerer when nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odyssey_journal_submissions_total",
			Help: "Journal submissions partitioned by outcome.",
		}, []string{"outcome"}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "odyssey_journal_stale_account_responses_total",
			Help: "Account listings discarded because a newer scope was requested.",
		}),
		openDrafts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "odyssey_journal_open_drafts",
			Help: "Drafts currently held in memory.",
		}),
	}
	registerer.MustRegister(m.submissions, m.stale, m.openDrafts)
	return m
}

// Submission counts one submit attempt.
func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// StaleDiscard counts one discarded account response.
func (m *Metrics) StaleDiscard() {
	if m == nil {
		return
	}
	m.stale.Inc()
}

// OpenDrafts records the live draft count.
func (m *Metrics) OpenDrafts(n int) {
	if m == nil {
		return
	}
	m.openDrafts.Set(float64(n))
}
