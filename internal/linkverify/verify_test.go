package linkverify

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/contractcatalog/internal/foundation/errors"
)

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return dir
}

func TestVerifySiteAllResolve(t *testing.T) {
	dir := writeSite(t, map[string]string{
		"index.html":            `<a href="sales/orders/api.html">api</a><a href="architecture.html">arch</a><link href="assets/catalog.css">`,
		"architecture.html":     `<a href="index.html">home</a><a href="sales/">sales</a>`,
		"assets/catalog.css":    `body{}`,
		"sales/index.html":      `<a href="../index.html">up</a>`,
		"sales/orders/api.html": `<a href="../../index.html#top">home</a><a href="/assets/catalog.css">css</a><script src="https://cdn.example.com/x.js"></script>`,
	})

	res, err := VerifySite(context.Background(), dir, Options{})
	require.NoError(t, err)
	assert.True(t, res.OK(), "unexpected broken links: %v", res.Broken)
	assert.Equal(t, 4, res.Pages)
	assert.Equal(t, 8, res.Links)
	assert.NoError(t, res.Err())
}

func TestVerifySiteReportsBroken(t *testing.T) {
	dir := writeSite(t, map[string]string{
		"index.html":            `<a href="missing.html">x</a><a href="../outside.html">y</a>`,
		"sales/orders/api.html": `<script src="../../assets/redoc.standalone.js"></script><a href="../../asyncapi-docs/sales/orders/events/index.html">docs</a><img src="gone.png">`,
	})

	res, err := VerifySite(context.Background(), dir, Options{
		Optional: []string{"assets/redoc.standalone.js", "asyncapi-docs/"},
	})
	require.NoError(t, err)
	require.Len(t, res.Broken, 3)

	assert.Equal(t, "index.html", res.Broken[0].Page)
	assert.Equal(t, "missing.html", res.Broken[0].URL)
	assert.Equal(t, "../outside.html", res.Broken[1].URL)
	assert.Equal(t, "sales/orders/api.html", res.Broken[2].Page)
	assert.Equal(t, "sales/orders/gone.png", res.Broken[2].Target)

	err = res.Err()
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryLinks))
}

func TestVerifySiteOptionalAssetsAreStillBrokenWithoutOption(t *testing.T) {
	dir := writeSite(t, map[string]string{
		"api.html": `<script src="assets/redoc.standalone.js"></script>`,
	})

	res, err := VerifySite(context.Background(), dir, Options{})
	require.NoError(t, err)
	assert.Len(t, res.Broken, 1)
}

func TestVerifySiteCanceled(t *testing.T) {
	dir := writeSite(t, map[string]string{"index.html": `<p>hi</p>`})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := VerifySite(ctx, dir, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerifySiteMissingDir(t *testing.T) {
	_, err := VerifySite(context.Background(), filepath.Join(t.TempDir(), "nope"), Options{})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}
