package metrics

import "time"

// Outcome enumerates the per-file discovery results.
type Outcome string

const (
	OutcomeParsed  Outcome = "parsed"
	OutcomeUnknown Outcome = "unknown"
	OutcomeFailed  Outcome = "failed"
)

// GenerationOutcome is the final status of a generation run.
type GenerationOutcome string

const (
	GenerationSuccess  GenerationOutcome = "success"
	GenerationFailed   GenerationOutcome = "failed"
	GenerationCanceled GenerationOutcome = "canceled"
)

// Recorder defines observability hooks for discovery and generation. Implementations
// may forward to Prometheus; NoopRecorder is the default so callers never nil-check.
type Recorder interface {
	// IncContract counts one discovered file. kind is empty unless outcome is parsed.
	IncContract(kind string, outcome Outcome)
	IncPage(renderer string)
	IncToolFailure(tool string)
	ObserveStageDuration(stage string, d time.Duration)
	ObserveGenerationDuration(d time.Duration)
	IncGenerationOutcome(outcome GenerationOutcome)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncContract(string, Outcome)                {}
func (NoopRecorder) IncPage(string)                             {}
func (NoopRecorder) IncToolFailure(string)                      {}
func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveGenerationDuration(time.Duration)    {}
func (NoopRecorder) IncGenerationOutcome(GenerationOutcome)     {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
