package metrics

import "github.com/prometheus/client_golang/prometheus"

// HoneypotMetrics exposes counters/histograms for the engagement pipeline.
type HoneypotMetrics struct {
	engagementsTotal *prometheus.CounterVec
	scamsTotal       *prometheus.CounterVec
	llmFailuresTotal *prometheus.CounterVec
	intelItemsTotal  prometheus.Counter
	pipelineLatency  *prometheus.HistogramVec
}

func NewHoneypotMetrics(reg prometheus.Registerer) *HoneypotMetrics {
	m := &HoneypotMetrics{
		engagementsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "honeytrap",
			Subsystem: "engagement",
			Name:      "turns_total",
			Help:      "Total processed scammer turns",
		}, []string{"engaged"}),
		scamsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "honeytrap",
			Subsystem: "detection",
			Name:      "scams_total",
			Help:      "Total messages classified as scams",
		}, []string{"scam_type"}),
		llmFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "honeytrap",
			Subsystem: "llm",
			Name:      "failures_total",
			Help:      "Total failed external model calls",
		}, []string{"stage"}),
		intelItemsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "honeytrap",
			Subsystem: "intel",
			Name:      "items_total",
			Help:      "Total intelligence items extracted",
		}),
		pipelineLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "honeytrap",
			Subsystem: "engagement",
			Name:      "pipeline_latency_seconds",
			Help:      "End-to-end latency of one engagement turn",
			Buckets:   prometheus.DefBuckets,
		}, []string{"engaged"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.engagementsTotal, m.scamsTotal, m.llmFailuresTotal, m.intelItemsTotal, m.pipelineLatency)
	return m
}

func (m *HoneypotMetrics) ObserveTurn(engaged bool, seconds float64) {
	if m == nil {
		return
	}
	label := "false"
	if engaged {
		label = "true"
	}
	m.engagementsTotal.WithLabelValues(label).Inc()
	m.pipelineLatency.WithLabelValues(label).Observe(seconds)
}

func (m *HoneypotMetrics) ObserveScam(scamType string) {
	if m == nil {
		return
	}
	m.scamsTotal.WithLabelValues(scamType).Inc()
}

func (m *HoneypotMetrics) ObserveLLMFailure(stage string) {
	if m == nil {
		return
	}
	m.llmFailuresTotal.WithLabelValues(stage).Inc()
}

func (m *HoneypotMetrics) AddIntelItems(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.intelItemsTotal.Add(float64(n))
}
