package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/contractcatalog/internal/config"
	"git.home.luguber.info/inful/contractcatalog/internal/render"
)

// Global is shared state bound into every command.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config   string           `short:"c" help:"Configuration file path (defaults to contractcatalog.yaml when present)"`
	Verbose  bool             `short:"v" help:"Enable verbose logging"`
	LogLevel string           `name:"log-level" help:"Override logging.level (debug|info|warn|error)"`
	Version  kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Generate the catalog site from the contracts directory"`
	Discover DiscoverCmd `cmd:"" help:"List discovered domains, services and contracts without rendering"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration and contracts tree"`
	Verify   VerifyCmd   `cmd:"" help:"Check internal links of a generated site"`
	Preview  PreviewCmd  `cmd:"" help:"Serve the catalog locally and regenerate it when contracts change"`
}

// AfterApply runs after flag parsing and installs a bootstrap logger until the
// configuration is loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.Logger)
	return nil
}

// loadConfig reads the configuration, applies the global logging flags and
// replaces the default logger with the configured one.
func (c *CLI) loadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if c.LogLevel != "" {
		cfg.Logging.Level = config.NormalizeLogLevel(c.LogLevel)
	}
	if c.Verbose {
		cfg.Logging.Level = config.LogLevelDebug
	}
	g.Logger = cfg.Logging.NewLogger(os.Stderr)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

// optionalTargets are site paths pages may reference without the build having
// produced them.
var optionalTargets = []string{render.RedocPath, render.AsyncAPIDocDir + "/"}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
