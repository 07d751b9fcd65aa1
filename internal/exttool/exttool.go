package exttool

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/contractcatalog/internal/logfields"
)

// Tool names used in logs, metrics and reports.
const (
	ToolDataContract = "datacontract"
	ToolAsyncAPI     = "asyncapi-generator"
)

// Availability is the one-time probe result threaded through a generation run.
type Availability struct {
	DataContractCLI     bool
	DataContractVersion string
	AsyncAPIGenerator   bool
}

// Commands names the executables to probe.
type Commands struct {
	DataContract string
	AsyncAPI     string
}

// Detect probes the configured commands once.
func Detect(ctx context.Context, c Commands) Availability {
	var a Availability
	if c.DataContract != "" {
		a.DataContractCLI, a.DataContractVersion = Probe(ctx, c.DataContract, "--version")
	}
	if c.AsyncAPI != "" {
		a.AsyncAPIGenerator, _ = Probe(ctx, c.AsyncAPI)
	}
	slog.Debug("External tools probed",
		slog.Bool("datacontract", a.DataContractCLI),
		slog.String("datacontract_version", a.DataContractVersion),
		slog.Bool("asyncapi_generator", a.AsyncAPIGenerator))
	return a
}

// DataContractExporter produces an HTML page for a structured data contract.
type DataContractExporter interface {
	Export(ctx context.Context, src, dst string) error
}

// CLIExporter runs `datacontract export <src> --format html --output <dst>`.
type CLIExporter struct {
	Command string
}

func (e *CLIExporter) Export(ctx context.Context, src, dst string) error {
	cmd := e.Command
	if cmd == "" {
		cmd = ToolDataContract
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("prepare export dir: %w", err)
	}
	if err := run(ctx, cmd, "export", src, "--format", "html", "--output", dst); err != nil {
		return err
	}
	if _, err := os.Stat(dst); err != nil {
		return fmt.Errorf("%w: %s: no output written to %s", ErrToolFailed, cmd, dst)
	}
	return nil
}

// NoopExporter never exports; the built-in renderer is always used.
type NoopExporter struct{}

func (NoopExporter) Export(_ context.Context, src, _ string) error {
	slog.Debug("NoopExporter skipping export", logfields.Path(src))
	return fmt.Errorf("%w: %s", ErrToolNotFound, ToolDataContract)
}

// AsyncAPIDocGenerator renders multi-page documentation for an AsyncAPI file
// into outDir.
type AsyncAPIDocGenerator interface {
	Generate(ctx context.Context, src, outDir string) error
}

// CLIAsyncAPIGenerator runs the official generator through npx with the HTML template.
type CLIAsyncAPIGenerator struct {
	Command string // defaults to npx
}

func (g *CLIAsyncAPIGenerator) Generate(ctx context.Context, src, outDir string) error {
	cmd := g.Command
	if cmd == "" {
		cmd = "npx"
	}
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("prepare asyncapi output dir: %w", err)
	}
	return run(ctx, cmd, "@asyncapi/generator", src, "@asyncapi/html-template",
		"-o", outDir, "--force-write", "--disable-warning")
}

// NoopAsyncAPIGenerator generates nothing.
type NoopAsyncAPIGenerator struct{}

func (NoopAsyncAPIGenerator) Generate(context.Context, string, string) error { return nil }
