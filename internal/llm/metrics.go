package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("medconsult.internal.llm")

var completionLatency = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "medconsult",
		Subsystem: "llm",
		Name:      "latency_seconds",
		Help:      "Latency of LLM completions",
		Buckets:   []float64{0.25, 0.5, 1, 2, 3, 4, 5, 6, 8, 10, 15, 20, 30},
	},
	[]string{"model", "status"},
)

var tokensTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "medconsult",
		Subsystem: "llm",
		Name:      "tokens_total",
		Help:      "Tokens used by the LLM",
	},
	[]string{"model", "type"}, // type: input, output, total
)

var formatRetriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "medconsult",
		Subsystem: "llm",
		Name:      "format_retries_total",
		Help:      "JSON-mode completions retried in plain text mode",
	},
	[]string{"model"},
)

func init() {
	prometheus.MustRegister(completionLatency, tokensTotal, formatRetriesTotal)
}

// RegisterMetrics registers completion metrics with a custom registry.
func RegisterMetrics(reg prometheus.Registerer) {
	if reg == nil || reg == prometheus.DefaultRegisterer {
		return
	}
	reg.MustRegister(completionLatency, tokensTotal, formatRetriesTotal)
}

func observeUsage(model string, usage TokenUsage) {
	if usage.InputTokens > 0 {
		tokensTotal.WithLabelValues(model, "input").Add(float64(usage.InputTokens))
	}
	if usage.OutputTokens > 0 {
		tokensTotal.WithLabelValues(model, "output").Add(float64(usage.OutputTokens))
	}
	if usage.TotalTokens > 0 {
		tokensTotal.WithLabelValues(model, "total").Add(float64(usage.TotalTokens))
	}
}
