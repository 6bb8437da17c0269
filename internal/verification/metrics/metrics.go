package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for verification jobs.
type Metrics struct {
	// Terminal jobs by status
	JobsFinished *prometheus.CounterVec

	// Per-stage wall time
	StageDuration *prometheus.HistogramVec

	// Stages whose collector reported a degraded result
	DegradedStages *prometheus.CounterVec

	RiskScore     prometheus.Histogram
	JobsInFlight  prometheus.Gauge
	JobsRejected  prometheus.Counter
	EvidenceCount *prometheus.HistogramVec
}

// New creates a new Metrics instance with all verification metrics registered.
func New() *Metrics {
	return &Metrics{
		JobsFinished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "past_matters_jobs_finished_total",
			Help: "Jobs that reached a terminal state, by status",
		}, []string{"status"}),

		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "past_matters_stage_duration_seconds",
			Help:    "Duration of each job stage",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),

		DegradedStages: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "past_matters_degraded_stages_total",
			Help: "Evidence stages completed with a degraded collector result",
		}, []string{"stage"}),

		RiskScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "past_matters_risk_overall_score",
			Help:    "Distribution of overall risk scores",
			Buckets: []float64{15, 35, 60, 80, 100},
		}),

		JobsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "past_matters_jobs_in_flight",
			Help: "Jobs currently admitted to the worker pool",
		}),

		JobsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "past_matters_jobs_rejected_total",
			Help: "Submissions rejected because the worker pool was saturated",
		}),

		EvidenceCount: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "past_matters_evidence_records",
			Help:    "Records returned per evidence stage",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		}, []string{"stage"}),
	}
}

// IncrementFinished records a terminal job.
func (m *Metrics) IncrementFinished(status string) {
	if m != nil {
		m.JobsFinished.WithLabelValues(status).Inc()
	}
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m != nil {
		m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// ObserveEvidence records the record count and degraded flag of a stage.
func (m *Metrics) ObserveEvidence(stage string, records int, degraded bool) {
	if m == nil {
		return
	}
	m.EvidenceCount.WithLabelValues(stage).Observe(float64(records))
	if degraded {
		m.DegradedStages.WithLabelValues(stage).Inc()
	}
}

// ObserveRiskScore records a computed overall score.
func (m *Metrics) ObserveRiskScore(score int) {
	if m != nil {
		m.RiskScore.Observe(float64(score))
	}
}

// JobAdmitted and JobReleased track pool occupancy.
func (m *Metrics) JobAdmitted() {
	if m != nil {
		m.JobsInFlight.Inc()
	}
}

func (m *Metrics) JobReleased() {
	if m != nil {
		m.JobsInFlight.Dec()
	}
}

// IncrementRejected counts a saturated submission.
func (m *Metrics) IncrementRejected() {
	if m != nil {
		m.JobsRejected.Inc()
	}
}
