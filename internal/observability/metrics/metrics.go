package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics exposes counters/histograms for resolve pipeline runs.
type PipelineMetrics struct {
	resolveTotal        *prometheus.CounterVec
	intentTotal         *prometheus.CounterVec
	clarificationTotal  *prometheus.CounterVec
	stageLatencySeconds *prometheus.HistogramVec
}

func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		resolveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookingnlu",
			Subsystem: "pipeline",
			Name:      "resolve_total",
			Help:      "Total resolve requests by outcome",
		}, []string{"outcome"}),
		intentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookingnlu",
			Subsystem: "pipeline",
			Name:      "intent_total",
			Help:      "Total classified intents by tier",
		}, []string{"intent", "tier"}),
		clarificationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookingnlu",
			Subsystem: "pipeline",
			Name:      "clarification_total",
			Help:      "Total clarification requests by reason",
		}, []string{"reason"}),
		stageLatencySeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bookingnlu",
			Subsystem: "pipeline",
			Name:      "stage_latency_seconds",
			Help:      "Latency of individual pipeline stages",
			Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05},
		}, []string{"stage"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.resolveTotal, m.intentTotal, m.clarificationTotal, m.stageLatencySeconds)
	return m
}

func (m *PipelineMetrics) ObserveResolve(outcome string) {
	if m == nil {
		return
	}
	m.resolveTotal.WithLabelValues(outcome).Inc()
}

func (m *PipelineMetrics) ObserveIntent(intent, tier string) {
	if m == nil {
		return
	}
	m.intentTotal.WithLabelValues(intent, tier).Inc()
}

func (m *PipelineMetrics) ObserveClarification(reason string) {
	if m == nil {
		return
	}
	m.clarificationTotal.WithLabelValues(reason).Inc()
}

func (m *PipelineMetrics) ObserveStageLatency(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.stageLatencySeconds.WithLabelValues(stage).Observe(seconds)
}
