package discovery

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/contractcatalog/internal/contract"
	derrors "git.home.luguber.info/inful/contractcatalog/internal/discovery/errors"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

const ordersAPI = "openapi: 3.0.0\ninfo:\n  title: Orders API\n  version: 2.1.0\n"

func TestBuildEndToEndScenario(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"sales/orders-service/orders-api.yaml": ordersAPI,
	})

	domains, err := (&Builder{Root: root}).Build(context.Background())
	require.NoError(t, err)
	require.Len(t, domains, 1)

	d := domains[0]
	assert.Equal(t, "sales", d.Name)
	assert.Equal(t, "Sales", d.DisplayName)
	assert.False(t, d.Flat)
	require.Len(t, d.Services, 1)

	s := d.Services[0]
	assert.Equal(t, "orders-service", s.Name)
	assert.Equal(t, "Orders Service", s.DisplayName)
	require.Len(t, s.APIContracts, 1)

	rec := s.APIContracts[0]
	assert.Equal(t, "Orders API", rec.Title)
	assert.Equal(t, "2.1.0", rec.API.Version)
	assert.Equal(t, "orders-api.yaml", rec.FileName)
	assert.Equal(t, "sales", rec.Domain)
	assert.Equal(t, "orders-service", rec.Service)
}

func TestBuildMissingRootIsEmpty(t *testing.T) {
	domains, err := (&Builder{Root: filepath.Join(t.TempDir(), "nope")}).Build(context.Background())
	require.NoError(t, err)
	assert.Empty(t, domains)
}

func TestBuildFilteringCascade(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty-domain", "svc-a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty-domain", "svc-b"), 0o755))
	writeTree(t, root, map[string]string{
		"notes/svc/readme.txt":         "hello",
		"mixed/svc-ok/api.yaml":        ordersAPI,
		"mixed/svc-text/notes.txt":     "x",
		"mixed/svc-unknown/other.yaml": "foo: bar\n",
		"root-file.yaml":               ordersAPI,
	})

	res, err := (&Builder{Root: root}).Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Domains, 1)
	assert.Equal(t, "mixed", res.Domains[0].Name)
	require.Len(t, res.Domains[0].Services, 1)
	assert.Equal(t, "svc-ok", res.Domains[0].Services[0].Name)
	assert.Equal(t, 1, res.Unknown)
	assert.Empty(t, res.Skipped)
}

func TestBuildFlatLayout(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"legacy/thing.json":  `{"title":"Legacy Thing","type":"object"}`,
		"legacy/events.yaml": "asyncapi: 2.6.0\ninfo:\n  title: Legacy Events\n",
		"legacy/docs/a.txt":  "not a contract",
	})

	domains, err := (&Builder{Root: root}).Build(context.Background())
	require.NoError(t, err)
	require.Len(t, domains, 1)
	d := domains[0]
	assert.True(t, d.Flat)
	require.Len(t, d.Services, 1)
	assert.Equal(t, "", d.Services[0].Name)
	assert.Len(t, d.Services[0].EventContracts, 1)
	require.Len(t, d.Services[0].DataContracts, 1)
	rec := d.Services[0].DataContracts[0]
	assert.Equal(t, contract.ShapeLegacy, rec.Data.Shape)
	assert.Equal(t, "", rec.Service)
	assert.Equal(t, "legacy/thing.html", rec.RelPath())
}

func TestBuildKeepsDirectoryOrderAndKinds(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"b-domain/svc/b.yaml":       ordersAPI,
		"b-domain/svc/a.yml":        ordersAPI,
		"b-domain/svc/events.json":  `{"asyncapi":"2.6.0"}`,
		"b-domain/svc/data.yaml":    "apiVersion: v3.0.0\nkind: DataContract\ndataProduct: Orders\n",
		"a-domain/svc/contract.yml": ordersAPI,
	})

	domains, err := (&Builder{Root: root}).Build(context.Background())
	require.NoError(t, err)
	require.Len(t, domains, 2)
	assert.Equal(t, "a-domain", domains[0].Name)

	s := domains[1].Services[0]
	require.Len(t, s.APIContracts, 2)
	assert.Equal(t, "a.yml", s.APIContracts[0].FileName)
	assert.Equal(t, "b.yaml", s.APIContracts[1].FileName)
	assert.Len(t, s.EventContracts, 1)
	require.Len(t, s.DataContracts, 1)
	assert.Equal(t, contract.ShapeStructured, s.DataContracts[0].Data.Shape)
}

func TestBuildSkipsMalformedFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"sales/orders/good.yaml":  ordersAPI,
		"sales/orders/bad.yaml":   "openapi: [3.0\n",
		"sales/orders/bad.json":   `{"openapi":`,
		"sales/orders/.hidden.ym": ordersAPI,
	})

	res, err := (&Builder{Root: root}).Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Domains, 1)
	assert.Len(t, res.Domains[0].Services[0].APIContracts, 1)
	assert.Len(t, res.Skipped, 2)
	for _, s := range res.Skipped {
		assert.ErrorIs(t, s.Err, contract.ErrMalformedDocument)
	}
}

func TestBuildExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"sales/orders/api.yaml":       ordersAPI,
		"sales/orders/draft-api.yaml": ordersAPI,
		"sales/archive/old-api.yaml":  ordersAPI,
		"scratch/anything/api.yaml":   ordersAPI,
		".git/objects/pack/blob.yaml": ordersAPI,
	})

	b := &Builder{Root: root, Exclude: []string{"**/draft-*", "sales/archive", "scratch/**"}}
	domains, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, domains, 1)
	require.Len(t, domains[0].Services, 1)
	assert.Equal(t, "orders", domains[0].Services[0].Name)
	require.Len(t, domains[0].Services[0].APIContracts, 1)
	assert.Equal(t, "api.yaml", domains[0].Services[0].APIContracts[0].FileName)
}

func TestBuildInvalidExcludePattern(t *testing.T) {
	_, err := (&Builder{Root: t.TempDir(), Exclude: []string{"[a-"}}).Build(context.Background())
	assert.ErrorIs(t, err, derrors.ErrInvalidExcludePattern)
}

func TestBuildCanceledContext(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"sales/orders/api.yaml": ordersAPI})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Builder{Root: root}).Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildUnreadableServiceDirIsFatal(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := t.TempDir()
	writeTree(t, root, map[string]string{"sales/orders/api.yaml": ordersAPI})
	locked := filepath.Join(root, "sales", "orders")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	_, err := (&Builder{Root: root}).Build(context.Background())
	assert.ErrorIs(t, err, derrors.ErrDirReadFailed)
}

func TestDiscoverReportsPageCollisions(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"sales/orders/orders.json": `{"openapi": "3.0.0", "info": {"title": "Orders JSON"}}`,
		"sales/orders/orders.yaml": ordersAPI,
		"sales/orders/events.yaml": "asyncapi: 2.6.0\ninfo:\n  title: Events\n",
	})

	res, err := (&Builder{Root: root}).Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Collisions, 1)

	c := res.Collisions[0]
	assert.Equal(t, "sales/orders/orders.html", c.Page)
	assert.Equal(t, filepath.Join(root, "sales", "orders", "orders.yaml"), c.Kept)
	assert.Equal(t, filepath.Join(root, "sales", "orders", "orders.json"), c.Shadow)
}

func TestDiscoverReportsFilesBesideServices(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"sales/overview.yaml":          ordersAPI,
		"sales/orders/orders-api.yaml": ordersAPI,
	})

	res, err := (&Builder{Root: root}).Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Domains, 1)
	assert.False(t, res.Domains[0].Flat)
	assert.Equal(t, 1, res.Domains[0].Count())
	assert.Equal(t, []string{filepath.Join(root, "sales", "overview.yaml")}, res.Misplaced)
	assert.Empty(t, res.Collisions)
}
