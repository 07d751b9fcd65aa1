package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/contractcatalog/internal/contract"
	"git.home.luguber.info/inful/contractcatalog/internal/discovery"
	"git.home.luguber.info/inful/contractcatalog/internal/exttool"
	"git.home.luguber.info/inful/contractcatalog/internal/logfields"
	"git.home.luguber.info/inful/contractcatalog/internal/metrics"
)

// Renderer labels recorded per page.
const (
	RendererBuiltin      = "builtin"
	RendererDataContract = "datacontract-cli"
	RendererAsyncAPI     = "asyncapi-generator"
)

// PageRecord is one file written by the run.
type PageRecord struct {
	Path     string // site-relative, slash-separated
	Renderer string
}

// Report summarizes a generation run. It is logged, never written into the site.
type Report struct {
	RunID          string
	Start          time.Time
	End            time.Time
	Domains        int
	Services       int
	Contracts      map[contract.Kind]int
	Unknown        int
	Skipped        []discovery.SkippedFile
	Pages          []PageRecord
	Warnings       []error
	StageDurations map[StageName]time.Duration
	Availability   exttool.Availability
	Outcome        metrics.GenerationOutcome
}

func newReport() *Report {
	return &Report{
		RunID:          uuid.NewString(),
		Start:          time.Now(),
		Contracts:      make(map[contract.Kind]int),
		StageDurations: make(map[StageName]time.Duration),
	}
}

func (r *Report) addPage(path, renderer string) {
	r.Pages = append(r.Pages, PageRecord{Path: path, Renderer: renderer})
}

func (r *Report) warn(err error) {
	r.Warnings = append(r.Warnings, err)
}

// PagesBy counts written pages per renderer.
func (r *Report) PagesBy(renderer string) int {
	n := 0
	for _, p := range r.Pages {
		if p.Renderer == renderer {
			n++
		}
	}
	return n
}

// TotalContracts is the number of contracts rendered.
func (r *Report) TotalContracts() int {
	n := 0
	for _, c := range r.Contracts {
		n += c
	}
	return n
}

func (r *Report) finish(err error) {
	r.End = time.Now()
	switch {
	case err == nil:
		r.Outcome = metrics.GenerationSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		r.Outcome = metrics.GenerationCanceled
	default:
		r.Outcome = metrics.GenerationFailed
	}
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("domains=%d services=%d api=%d event=%d data=%d skipped=%d unknown=%d pages=%d warnings=%d duration=%s outcome=%s",
		r.Domains, r.Services,
		r.Contracts[contract.KindAPI], r.Contracts[contract.KindEvent], r.Contracts[contract.KindData],
		len(r.Skipped), r.Unknown, len(r.Pages), len(r.Warnings),
		r.Duration().Truncate(time.Millisecond), r.Outcome)
}

// Log writes the summary and every warning to logger.
func (r *Report) Log(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, s := range r.Skipped {
		logger.Warn("Skipped contract file", logfields.RunID(r.RunID), logfields.Path(s.Path), logfields.Error(s.Err))
	}
	for _, w := range r.Warnings {
		logger.Warn("Generation warning", logfields.RunID(r.RunID), logfields.Error(w))
	}
	logger.Info("Generation finished",
		logfields.RunID(r.RunID),
		slog.String("outcome", string(r.Outcome)),
		slog.String("summary", r.Summary()))
}
