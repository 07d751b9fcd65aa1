package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/contractcatalog/internal/config"
	ferrors "git.home.luguber.info/inful/contractcatalog/internal/foundation/errors"
	"git.home.luguber.info/inful/contractcatalog/internal/linkverify"
	"git.home.luguber.info/inful/contractcatalog/internal/logfields"
	"git.home.luguber.info/inful/contractcatalog/internal/metrics"
	"git.home.luguber.info/inful/contractcatalog/internal/site"
	"git.home.luguber.info/inful/contractcatalog/internal/source"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Contracts      string `short:"d" name:"contracts" help:"Override contracts.dir"`
	Output         string `short:"o" name:"output" help:"Override output.directory"`
	NoArchitecture bool   `name:"no-architecture" help:"Skip the architecture pages"`
	NoClean        bool   `name:"no-clean" help:"Keep existing files in the output directory"`
	ExternalTools  string `name:"external-tools" help:"Override external.mode (auto|always|never)"`
	AsyncAPIDocs   bool   `name:"asyncapi-docs" help:"Generate AsyncAPI HTML documentation with the asyncapi CLI"`
	VerifyLinks    bool   `name:"verify-links" help:"Check internal links of the generated site"`
	MetricsFile    string `name:"metrics-file" help:"Write Prometheus text-format metrics of the run to this file"`
}

// BuildOptions are the per-run switches that do not live in the configuration.
type BuildOptions struct {
	VerifyLinks bool
	MetricsFile string
	Out         io.Writer // progress and summary, defaults to stdout
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if err := b.apply(cfg); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	return RunBuild(ctx, cfg, BuildOptions{VerifyLinks: b.VerifyLinks, MetricsFile: b.MetricsFile})
}

// apply folds the command line overrides into cfg.
func (b *BuildCmd) apply(cfg *config.Config) error {
	if b.Contracts != "" {
		cfg.Contracts.Dir = b.Contracts
		cfg.Contracts.Repository = nil
	}
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}
	if b.NoArchitecture {
		cfg.Site.Architecture = false
	}
	if b.NoClean {
		cfg.Output.Clean = false
	}
	if b.AsyncAPIDocs {
		cfg.External.AsyncAPIDocs = true
	}
	if b.ExternalTools != "" {
		mode, err := config.ParseExternalMode(b.ExternalTools)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid --external-tools value").Build()
		}
		cfg.External.Mode = mode
		slog.Info("External tool mode overridden via CLI flag", slog.String("mode", string(mode)))
	}
	return nil
}

// RunBuild resolves the contracts source, generates the site and optionally
// verifies its links.
func RunBuild(ctx context.Context, cfg *config.Config, opts BuildOptions) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	run := *cfg

	checkout, err := source.Resolve(ctx, run.Contracts, "")
	if err != nil {
		return err
	}
	defer func() {
		if cerr := checkout.Close(); cerr != nil {
			slog.Warn("Failed to clean up contracts checkout", logfields.Error(cerr))
		}
	}()
	run.Contracts.Dir = checkout.Dir

	var reg *prom.Registry
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if opts.MetricsFile != "" {
		reg = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
	}

	gen, err := site.NewGenerator(&run, site.WithRecorder(recorder), site.WithProgress(out))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Generating contract catalog from %s into %s\n", run.Contracts.Dir, run.Output.Directory)
	report, genErr := gen.Generate(ctx)

	if reg != nil {
		if werr := metrics.WriteTextfile(opts.MetricsFile, reg); werr != nil {
			slog.Warn("Failed to write metrics file", logfields.Path(opts.MetricsFile), logfields.Error(werr))
		}
	}
	if genErr != nil {
		return genErr
	}
	fmt.Fprintf(out, "Catalog generated: %s\n", report.Summary())

	if !opts.VerifyLinks {
		return nil
	}
	return verifyLinks(ctx, out, run.Output.Directory)
}

func verifyLinks(ctx context.Context, out io.Writer, dir string) error {
	res, err := linkverify.VerifySite(ctx, dir, linkverify.Options{Optional: optionalTargets})
	if err != nil {
		return err
	}
	for _, b := range res.Broken {
		fmt.Fprintf(out, "  ✗ %s\n", b.String())
	}
	fmt.Fprintf(out, "Checked %d links on %d pages, %d broken\n", res.Links, res.Pages, len(res.Broken))
	return res.Err()
}
