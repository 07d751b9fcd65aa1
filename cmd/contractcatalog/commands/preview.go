package commands

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	ferrors "git.home.luguber.info/inful/contractcatalog/internal/foundation/errors"
	"git.home.luguber.info/inful/contractcatalog/internal/logfields"
	"git.home.luguber.info/inful/contractcatalog/internal/metrics"
	"git.home.luguber.info/inful/contractcatalog/internal/preview"
	"git.home.luguber.info/inful/contractcatalog/internal/site"
)

// PreviewCmd serves the catalog locally and regenerates it on change.
type PreviewCmd struct {
	Contracts string        `short:"d" name:"contracts" help:"Override contracts.dir"`
	Output    string        `short:"o" name:"output" default:"" help:"Output directory for the generated site (defaults to temp)."`
	Addr      string        `name:"addr" default:"127.0.0.1:8080" help:"Listen address."`
	Interval  time.Duration `name:"interval" default:"0s" help:"Also regenerate periodically (0 disables)."`
}

func (p *PreviewCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if cfg.Contracts.Repository != nil && p.Contracts == "" {
		return ferrors.ConfigError("preview watches a local contracts directory; pass --contracts").Build()
	}
	if p.Contracts != "" {
		cfg.Contracts.Dir = p.Contracts
		cfg.Contracts.Repository = nil
	}

	outDir := p.Output
	if outDir == "" {
		tmp, err := os.MkdirTemp("", "contractcatalog-preview-*")
		if err != nil {
			return fmt.Errorf("create temp output: %w", err)
		}
		defer func() {
			if rerr := os.RemoveAll(tmp); rerr != nil {
				slog.Warn("Failed to remove preview output", logfields.Path(tmp), logfields.Error(rerr))
			}
		}()
		outDir = tmp
		fmt.Println("Preview output directory:", outDir)
	}
	cfg.Output.Directory = outDir
	cfg.Output.Clean = true

	reg := prom.NewRegistry()
	gen, err := site.NewGenerator(cfg, site.WithRecorder(metrics.NewPrometheusRecorder(reg)))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	srv := preview.New(gen, preview.Options{
		ContractsDir: cfg.Contracts.Dir,
		OutputDir:    outDir,
		Addr:         p.Addr,
		Interval:     p.Interval,
		Registry:     reg,
	})
	fmt.Printf("Serving contract catalog on http://%s\n", p.Addr)
	return srv.Run(ctx)
}
