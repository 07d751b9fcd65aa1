// Package site runs a full catalog generation: discover the contract tree, render
// every page and write the static site into the output directory.
package site

import (
	"context"
	"io"
	"os"

	"git.home.luguber.info/inful/contractcatalog/internal/config"
	"git.home.luguber.info/inful/contractcatalog/internal/contract"
	"git.home.luguber.info/inful/contractcatalog/internal/exttool"
	ferrors "git.home.luguber.info/inful/contractcatalog/internal/foundation/errors"
	"git.home.luguber.info/inful/contractcatalog/internal/markdown"
	"git.home.luguber.info/inful/contractcatalog/internal/metrics"
	"git.home.luguber.info/inful/contractcatalog/internal/render"
)

// Generator produces the static catalog described by a configuration.
type Generator struct {
	cfg          *config.Config
	renderer     *render.Renderer
	exporter     exttool.DataContractExporter
	asyncGen     exttool.AsyncAPIDocGenerator
	recorder     metrics.Recorder
	availability *exttool.Availability // fixed availability, skips probing
	progress     io.Writer
}

// Option customizes a Generator.
type Option func(*Generator)

// WithExporter replaces the datacontract CLI exporter.
func WithExporter(e exttool.DataContractExporter) Option {
	return func(g *Generator) { g.exporter = e }
}

// WithAsyncAPIGenerator replaces the AsyncAPI documentation generator.
func WithAsyncAPIGenerator(a exttool.AsyncAPIDocGenerator) Option {
	return func(g *Generator) { g.asyncGen = a }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(g *Generator) { g.recorder = metrics.OrNoop(r) }
}

// WithAvailability fixes the external tool availability instead of probing PATH.
func WithAvailability(a exttool.Availability) Option {
	return func(g *Generator) { g.availability = &a }
}

// WithProgress sets where per-page progress lines are printed. Defaults to stdout.
func WithProgress(w io.Writer) Option {
	return func(g *Generator) { g.progress = w }
}

// NewGenerator prepares a generator for cfg.
func NewGenerator(cfg *config.Config, opts ...Option) (*Generator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	r, err := render.New(render.Options{
		SiteTitle:    cfg.Site.Title,
		Architecture: cfg.Site.Architecture,
		Markdown:     markdown.New(markdown.Options{}),
	})
	if err != nil {
		return nil, ferrors.InternalError("failed to load page templates").WithCause(err).Build()
	}
	g := &Generator{
		cfg:      cfg,
		renderer: r,
		exporter: &exttool.CLIExporter{Command: cfg.External.DataContractCommand},
		asyncGen: &exttool.CLIAsyncAPIGenerator{Command: cfg.External.AsyncAPICommand},
		recorder: metrics.NoopRecorder{},
		progress: os.Stdout,
	}
	if cfg.External.Mode == config.ExternalNever {
		g.exporter = exttool.NoopExporter{}
		g.asyncGen = exttool.NoopAsyncAPIGenerator{}
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// runState carries the values produced by earlier stages to later ones.
type runState struct {
	g       *Generator
	report  *Report
	avail   exttool.Availability
	domains []*contract.Domain
}

func (g *Generator) stages() []StageDef {
	stages := []StageDef{
		{StageProbeTools, stageProbeTools},
		{StageDiscover, stageDiscover},
		{StagePrepareOutput, stagePrepareOutput},
		{StageIndex, stageIndex},
		{StagePages, stagePages},
	}
	if g.cfg.Site.Architecture {
		stages = append(stages, StageDef{StageArchitecture, stageArchitecture})
	}
	stages = append(stages, StageDef{StageAssets, stageAssets})
	if g.cfg.External.AsyncAPIDocs {
		stages = append(stages, StageDef{StageAsyncAPIDocs, stageAsyncAPIDocs})
	}
	return stages
}

// Generate runs every stage once. The returned report is non-nil even on error.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	st := &runState{g: g, report: newReport()}
	err := runStages(ctx, st, g.stages())
	st.report.finish(err)

	g.recorder.ObserveGenerationDuration(st.report.Duration())
	g.recorder.IncGenerationOutcome(st.report.Outcome)
	st.report.Log(nil)
	return st.report, err
}
