package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/contractcatalog/internal/config"
	ferrors "git.home.luguber.info/inful/contractcatalog/internal/foundation/errors"
)

// initProject writes the example configuration and contracts into a fresh
// directory and returns a config pointing at them.
func initProject(t *testing.T) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, RunInit(&out, filepath.Join(dir, config.DefaultConfigFile), dir, false, true))
	assert.Contains(t, out.String(), "Wrote 3 example contract(s)")

	cfg := config.Default()
	cfg.Contracts.Dir = filepath.Join(dir, "contracts")
	cfg.Output.Directory = filepath.Join(dir, "site")
	cfg.External.Mode = config.ExternalNever
	return cfg, dir
}

func TestRunInitRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.DefaultConfigFile)
	var out bytes.Buffer
	require.NoError(t, RunInit(&out, cfgPath, dir, false, false))
	_, err := os.Stat(filepath.Join(dir, "contracts"))
	assert.True(t, os.IsNotExist(err), "no contracts tree without withTree")

	err = RunInit(&out, cfgPath, dir, false, false)
	require.Error(t, err)
	assert.Contains(t, out.String(), "Initialization failed")

	require.NoError(t, RunInit(&out, cfgPath, dir, true, false))
}

func TestRunDiscoverPrintsTree(t *testing.T) {
	cfg, _ := initProject(t)
	var out bytes.Buffer
	require.NoError(t, RunDiscover(context.Background(), cfg, &out))

	got := out.String()
	assert.Contains(t, got, "Sales (3)")
	assert.Contains(t, got, "  Orders (3)")
	assert.Contains(t, got, "[api] openapi.yaml  Orders API")
	assert.Contains(t, got, "[event] events.yaml  Order Events")
	assert.Contains(t, got, "[data] orders.datacontract.yaml  Orders")
	assert.Contains(t, got, "1 domain(s), 1 api, 1 event, 1 data")
}

func TestRunDiscoverEmptyRoot(t *testing.T) {
	cfg := config.Default()
	cfg.Contracts.Dir = filepath.Join(t.TempDir(), "missing")
	var out bytes.Buffer
	require.NoError(t, RunDiscover(context.Background(), cfg, &out))
	assert.Contains(t, out.String(), "No contracts found")
}

func TestRunBuildGeneratesVerifiedSite(t *testing.T) {
	cfg, dir := initProject(t)
	metricsFile := filepath.Join(dir, "catalog.prom")

	var out bytes.Buffer
	err := RunBuild(context.Background(), cfg, BuildOptions{VerifyLinks: true, MetricsFile: metricsFile, Out: &out})
	require.NoError(t, err)

	for _, p := range []string{
		"index.html",
		"sales/orders/openapi.html",
		"sales/orders/events.html",
		"sales/orders/orders.datacontract.html",
		"assets/catalog.css",
	} {
		assert.FileExists(t, filepath.Join(cfg.Output.Directory, filepath.FromSlash(p)))
	}
	got := out.String()
	assert.Contains(t, got, "✓ sales/orders/openapi.html (builtin)")
	assert.Contains(t, got, "Catalog generated: domains=1 services=1 api=1 event=1 data=1")
	assert.Contains(t, got, ", 0 broken")

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "contractcatalog_pages_written_total")
	assert.Contains(t, string(prom), "contractcatalog_generation_outcomes_total")
}

func TestRunBuildReportsBrokenLinks(t *testing.T) {
	cfg, _ := initProject(t)
	var out bytes.Buffer
	require.NoError(t, RunBuild(context.Background(), cfg, BuildOptions{Out: &out}))

	require.NoError(t, os.Remove(filepath.Join(cfg.Output.Directory, "sales", "orders", "events.html")))
	out.Reset()
	err := verifyLinks(context.Background(), &out, cfg.Output.Directory)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryLinks))
	assert.Contains(t, out.String(), "sales/orders/events.html")
}

func TestBuildCmdApply(t *testing.T) {
	cfg := config.Default()
	cfg.Contracts.Repository = &config.Repository{URL: "https://example.com/contracts.git"}

	b := &BuildCmd{
		Contracts:      "specs",
		Output:         "public",
		NoArchitecture: true,
		NoClean:        true,
		AsyncAPIDocs:   true,
		ExternalTools:  "Never",
	}
	require.NoError(t, b.apply(cfg))
	assert.Equal(t, "specs", cfg.Contracts.Dir)
	assert.Nil(t, cfg.Contracts.Repository)
	assert.Equal(t, "public", cfg.Output.Directory)
	assert.False(t, cfg.Site.Architecture)
	assert.False(t, cfg.Output.Clean)
	assert.True(t, cfg.External.AsyncAPIDocs)
	assert.Equal(t, config.ExternalNever, cfg.External.Mode)
}

func TestBuildCmdApplyRejectsUnknownMode(t *testing.T) {
	err := (&BuildCmd{ExternalTools: "sometimes"}).apply(config.Default())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	assert.Equal(t, 7, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestCLIParsesCommands(t *testing.T) {
	cli := &CLI{}
	parser, err := kong.New(cli, kong.Bind(&Global{}), kong.Vars{"version": "test"})
	require.NoError(t, err)

	ctx, err := parser.Parse([]string{"-v", "build", "--output", "out", "--external-tools", "always", "--verify-links"})
	require.NoError(t, err)
	assert.Equal(t, "build", ctx.Command())
	assert.True(t, cli.Verbose)
	assert.Equal(t, "out", cli.Build.Output)
	assert.Equal(t, "always", cli.Build.ExternalTools)
	assert.True(t, cli.Build.VerifyLinks)

	ctx, err = parser.Parse([]string{"preview", "--addr", "127.0.0.1:0", "--interval", "30s"})
	require.NoError(t, err)
	assert.Equal(t, "preview", ctx.Command())
	assert.Equal(t, "30s", cli.Preview.Interval.String())
}

func TestLoadConfigAppliesLogFlags(t *testing.T) {
	chdir(t, t.TempDir())
	g := &Global{}
	cfg, err := (&CLI{LogLevel: "warning"}).loadConfig(g)
	require.NoError(t, err)
	assert.Equal(t, config.LogLevelWarn, cfg.Logging.Level)
	require.NotNil(t, g.Logger)

	cfg, err = (&CLI{LogLevel: "error", Verbose: true}).loadConfig(g)
	require.NoError(t, err)
	assert.Equal(t, config.LogLevelDebug, cfg.Logging.Level)

	_, err = (&CLI{Config: "nope.yaml"}).loadConfig(g)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "nope.yaml"))
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir for older toolchains).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
