package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/contractcatalog/internal/config"
	"git.home.luguber.info/inful/contractcatalog/internal/contract"
	"git.home.luguber.info/inful/contractcatalog/internal/discovery"
	"git.home.luguber.info/inful/contractcatalog/internal/exttool"
	ferrors "git.home.luguber.info/inful/contractcatalog/internal/foundation/errors"
	"git.home.luguber.info/inful/contractcatalog/internal/logfields"
	"git.home.luguber.info/inful/contractcatalog/internal/render"
)

func stageProbeTools(ctx context.Context, st *runState) error {
	ext := st.g.cfg.External
	switch {
	case st.g.availability != nil:
		st.avail = *st.g.availability
	case ext.Mode == config.ExternalNever:
	default:
		cmds := exttool.Commands{DataContract: ext.DataContractCommand}
		if ext.AsyncAPIDocs {
			cmds.AsyncAPI = ext.AsyncAPICommand
			if cmds.AsyncAPI == "" {
				cmds.AsyncAPI = "npx"
			}
		}
		st.avail = exttool.Detect(ctx, cmds)
	}
	if ext.Mode == config.ExternalNever {
		st.avail = exttool.Availability{}
	}
	st.report.Availability = st.avail

	if ext.Mode == config.ExternalAlways && !st.avail.DataContractCLI {
		return ferrors.ExternalToolError("external tools are required but the datacontract CLI is unavailable").
			WithCause(fmt.Errorf("%w: %s", exttool.ErrToolNotFound, ext.DataContractCommand)).
			WithContext("tool", ext.DataContractCommand).
			Fatal().
			Build()
	}
	if !st.avail.DataContractCLI {
		slog.Info("datacontract CLI not available, using built-in data contract pages", logfields.RunID(st.report.RunID))
	}
	return nil
}

func stageDiscover(ctx context.Context, st *runState) error {
	b := &discovery.Builder{
		Root:     st.g.cfg.Contracts.Dir,
		Exclude:  st.g.cfg.Contracts.Exclude,
		Recorder: st.g.recorder,
	}
	res, err := b.Discover(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return ferrors.DiscoveryError("failed to discover contracts").WithCause(err).
			WithContext("root", st.g.cfg.Contracts.Dir).
			Build()
	}
	st.domains = res.Domains
	st.report.Skipped = res.Skipped
	st.report.Unknown = res.Unknown
	st.report.Domains = len(res.Domains)
	for _, d := range res.Domains {
		st.report.Services += len(d.Services)
		for _, rec := range d.Records() {
			st.report.Contracts[rec.Kind]++
		}
	}
	for _, c := range res.Collisions {
		st.report.warn(fmt.Errorf("%s: %s overwrites the page of %s", c.Page, c.Kept, c.Shadow))
	}
	for _, p := range res.Misplaced {
		st.report.warn(fmt.Errorf("%s is not inside a service directory and was ignored", p))
	}
	return nil
}

func stagePrepareOutput(_ context.Context, st *runState) error {
	out := st.g.cfg.Output.Directory
	if err := guardOutput(out, st.g.cfg.Contracts.Dir); err != nil {
		return err
	}
	if st.g.cfg.Output.Clean {
		if err := os.RemoveAll(out); err != nil {
			return ferrors.FileSystemError("failed to clean output directory").WithCause(err).
				WithContext("path", out).Build()
		}
	}
	if err := os.MkdirAll(out, 0o750); err != nil {
		return ferrors.FileSystemError("failed to create output directory").WithCause(err).
			WithContext("path", out).Build()
	}
	return nil
}

// guardOutput refuses output directories that would wipe the contracts they are built from.
func guardOutput(out, contracts string) error {
	absOut, err := filepath.Abs(out)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid output directory").Fatal().Build()
	}
	absIn, err := filepath.Abs(contracts)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid contracts directory").Fatal().Build()
	}
	rel, err := filepath.Rel(absOut, absIn)
	if absOut == filepath.Dir(absOut) || (err == nil && (rel == "." || !strings.HasPrefix(rel, ".."))) {
		return ferrors.ConfigError("output directory must not contain the contracts directory").
			WithContext("output", out).
			WithContext("contracts", contracts).
			Build()
	}
	return nil
}

func stageIndex(_ context.Context, st *runState) error {
	html, err := st.g.renderer.Index(st.domains)
	if err != nil {
		return renderErr(err, "index.html")
	}
	return st.write("index.html", []byte(html), RendererBuiltin)
}

func stagePages(ctx context.Context, st *runState) error {
	for _, d := range st.domains {
		for _, rec := range d.Records() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := st.page(ctx, rec); err != nil {
				return err
			}
		}
	}
	return nil
}

func (st *runState) page(ctx context.Context, rec *contract.Record) error {
	rel := rec.RelPath()
	if rec.Kind == contract.KindData && rec.Data.Shape == contract.ShapeStructured && st.avail.DataContractCLI {
		err := st.g.exporter.Export(ctx, rec.SourcePath, st.abs(rel))
		if err == nil {
			st.recordPage(rel, RendererDataContract)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		st.g.recorder.IncToolFailure(exttool.ToolDataContract)
		if st.g.cfg.Environment.CI {
			return ferrors.ExternalToolError("data contract export failed in CI").WithCause(err).
				WithContext("file", rec.SourcePath).
				Fatal().
				Build()
		}
		slog.Warn("data contract export failed, using built-in page",
			logfields.RunID(st.report.RunID), logfields.File(rec.SourcePath), logfields.Error(err))
		st.report.warn(fmt.Errorf("export %s: %w", rec.SourcePath, err))
	}

	html, err := st.g.renderer.Page(rec)
	if err != nil {
		return renderErr(err, rel)
	}
	return st.write(rel, []byte(html), RendererBuiltin)
}

func stageArchitecture(_ context.Context, st *runState) error {
	html, err := st.g.renderer.Architecture(st.domains)
	if err != nil {
		return renderErr(err, "architecture.html")
	}
	if err := st.write("architecture.html", []byte(html), RendererBuiltin); err != nil {
		return err
	}
	for _, d := range st.domains {
		rel := path.Join(d.Name, "architecture.html")
		html, err := st.g.renderer.DomainArchitecture(d)
		if err != nil {
			return renderErr(err, rel)
		}
		if err := st.write(rel, []byte(html), RendererBuiltin); err != nil {
			return err
		}
	}
	return nil
}

func stageAssets(_ context.Context, st *runState) error {
	if err := st.writeQuiet(render.StylesheetPath, render.Stylesheet()); err != nil {
		return err
	}
	bundle := st.g.cfg.Site.RedocBundle
	if bundle == "" {
		return nil
	}
	data, err := os.ReadFile(bundle)
	if err != nil {
		slog.Warn("Redoc bundle not readable, API pages will not render interactively",
			logfields.RunID(st.report.RunID), logfields.Path(bundle), logfields.Error(err))
		st.report.warn(fmt.Errorf("redoc bundle %s: %w", bundle, err))
		return nil
	}
	return st.writeQuiet(render.RedocPath, data)
}

func stageAsyncAPIDocs(ctx context.Context, st *runState) error {
	if !st.avail.AsyncAPIGenerator {
		slog.Info("AsyncAPI generator not available, skipping event documentation", logfields.RunID(st.report.RunID))
		return nil
	}
	for _, d := range st.domains {
		for _, rec := range d.Records() {
			if rec.Kind != contract.KindEvent {
				continue
			}
			link := render.AsyncAPIDocLink(rec)
			if err := st.g.asyncGen.Generate(ctx, rec.SourcePath, st.abs(path.Dir(link))); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				st.g.recorder.IncToolFailure(exttool.ToolAsyncAPI)
				slog.Warn("AsyncAPI documentation generation failed",
					logfields.RunID(st.report.RunID), logfields.File(rec.SourcePath), logfields.Error(err))
				st.report.warn(fmt.Errorf("asyncapi docs %s: %w", rec.SourcePath, err))
				continue
			}
			st.recordPage(link, RendererAsyncAPI)
		}
	}
	return nil
}

func (st *runState) abs(rel string) string {
	return filepath.Join(st.g.cfg.Output.Directory, filepath.FromSlash(rel))
}

func (st *runState) write(rel string, data []byte, renderer string) error {
	if err := st.writeQuiet(rel, data); err != nil {
		return err
	}
	st.recordPage(rel, renderer)
	return nil
}

// writeQuiet writes a support file that is not reported as a page.
func (st *runState) writeQuiet(rel string, data []byte) error {
	p := st.abs(rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return ferrors.FileSystemError("failed to create directory").WithCause(err).
			WithContext("path", filepath.Dir(p)).Build()
	}
	// #nosec G306 -- generated site is world readable
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return ferrors.FileSystemError("failed to write file").WithCause(err).
			WithContext("path", p).Build()
	}
	return nil
}

func (st *runState) recordPage(rel, renderer string) {
	st.report.addPage(rel, renderer)
	st.g.recorder.IncPage(renderer)
	_, _ = fmt.Fprintf(st.g.progress, "  ✓ %s (%s)\n", rel, renderer)
}

func renderErr(err error, rel string) error {
	return ferrors.RenderError("failed to render page").WithCause(err).
		WithContext("path", rel).Build()
}
