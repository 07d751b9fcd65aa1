package preview

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/contractcatalog/internal/site"
)

type fakeGenerator struct {
	calls atomic.Int32
	err   error
}

func (f *fakeGenerator) Generate(context.Context) (*site.Report, error) {
	f.calls.Add(1)
	if f.err != nil {
		return &site.Report{}, f.err
	}
	return &site.Report{RunID: "test"}, nil
}

func TestResolveContractsDir(t *testing.T) {
	_, err := resolveContractsDir("")
	require.Error(t, err)

	_, err = resolveContractsDir(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)

	abs, err := resolveContractsDir(t.TempDir())
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(abs))
}

func TestShouldIgnoreEvent(t *testing.T) {
	require.True(t, shouldIgnoreEvent("/tmp/.hidden.yaml"))
	require.True(t, shouldIgnoreEvent("/tmp/#foo#"))
	require.True(t, shouldIgnoreEvent("/tmp/orders.yaml.swp"))
	require.True(t, shouldIgnoreEvent("/tmp/orders.yaml~"))
	require.True(t, shouldIgnoreEvent("/tmp/.DS_Store"))
	require.False(t, shouldIgnoreEvent("/tmp/orders-api.yaml"))
}

func TestDebouncerCoalesces(t *testing.T) {
	req, trigger := newDebouncer(20 * time.Millisecond)
	for i := 0; i < 5; i++ {
		trigger()
	}

	select {
	case <-req:
	case <-time.After(time.Second):
		t.Fatal("expected a rebuild request")
	}
	select {
	case <-req:
		t.Fatal("expected a single request for one burst")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestHandlerServesSiteAndMetrics(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte("<h1>catalog</h1>"), 0o600))

	s := New(&fakeGenerator{}, Options{OutputDir: out})
	s.status.setSuccess()
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "catalog")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerReportsFailedFirstBuild(t *testing.T) {
	s := New(&fakeGenerator{}, Options{OutputDir: t.TempDir()})
	s.status.setError(errors.New("discovery failed"))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "discovery failed")
}

func TestRunRebuildsOnChange(t *testing.T) {
	contracts := t.TempDir()
	gen := &fakeGenerator{}
	s := New(gen, Options{ContractsDir: contracts, OutputDir: t.TempDir(), Addr: "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.Addr() != "" }, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, int32(1), gen.calls.Load())

	require.NoError(t, os.WriteFile(filepath.Join(contracts, "orders-api.yaml"), []byte("openapi: 3.0.0\n"), 0o600))
	require.Eventually(t, func() bool { return gen.calls.Load() >= 2 }, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("preview did not shut down")
	}
}

func TestRunPeriodicRebuild(t *testing.T) {
	gen := &fakeGenerator{}
	s := New(gen, Options{ContractsDir: t.TempDir(), OutputDir: t.TempDir(), Addr: "127.0.0.1:0", Interval: 50 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return gen.calls.Load() >= 2 }, 5*time.Second, 20*time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)
}
