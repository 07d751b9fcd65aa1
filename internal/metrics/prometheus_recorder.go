package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "contractcatalog"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once               sync.Once
	contracts          *prom.CounterVec
	pages              *prom.CounterVec
	toolFailures       *prom.CounterVec
	stageDuration      *prom.HistogramVec
	generationDuration prom.Histogram
	generationOutcome  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg. A nil reg
// gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.contracts = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "contracts_discovered_total",
			Help:      "Contract files seen during discovery by kind and outcome",
		}, []string{"kind", "outcome"})
		pr.pages = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pages_written_total",
			Help:      "Pages written by renderer",
		}, []string{"renderer"})
		pr.toolFailures = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "external_tool_failures_total",
			Help:      "Failed external tool invocations",
		}, []string{"tool"})
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual generation stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.generationDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Total generation duration",
			Buckets:   prom.DefBuckets,
		})
		pr.generationOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "generation_outcomes_total",
			Help:      "Generation runs by final status",
		}, []string{"outcome"})
		reg.MustRegister(pr.contracts, pr.pages, pr.toolFailures, pr.stageDuration, pr.generationDuration, pr.generationOutcome)
	})
	return pr
}

func (p *PrometheusRecorder) IncContract(kind string, outcome Outcome) {
	if p == nil || p.contracts == nil {
		return
	}
	p.contracts.WithLabelValues(kind, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncPage(renderer string) {
	if p == nil || p.pages == nil {
		return
	}
	p.pages.WithLabelValues(renderer).Inc()
}

func (p *PrometheusRecorder) IncToolFailure(tool string) {
	if p == nil || p.toolFailures == nil {
		return
	}
	p.toolFailures.WithLabelValues(tool).Inc()
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveGenerationDuration(d time.Duration) {
	if p == nil || p.generationDuration == nil {
		return
	}
	p.generationDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncGenerationOutcome(outcome GenerationOutcome) {
	if p == nil || p.generationOutcome == nil {
		return
	}
	p.generationOutcome.WithLabelValues(string(outcome)).Inc()
}
