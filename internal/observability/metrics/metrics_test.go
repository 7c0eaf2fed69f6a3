package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHoneypotMetricsObserve(t *testing.T) {
	m := NewHoneypotMetrics(prometheus.NewRegistry())
	m.ObserveTurn(true, 0.25)
	m.ObserveScam("upi_scam")
	m.ObserveLLMFailure("classify")
	m.AddIntelItems(3)
}

func TestHoneypotMetricsNilReceiver(t *testing.T) {
	var m *HoneypotMetrics
	m.ObserveTurn(false, 0.1)
	m.ObserveScam("phishing")
	m.ObserveLLMFailure("generate")
	m.AddIntelItems(1)
}
