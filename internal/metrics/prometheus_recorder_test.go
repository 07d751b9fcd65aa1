package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncContract("api", OutcomeParsed)
	pr.IncContract("api", OutcomeParsed)
	pr.IncContract("", OutcomeFailed)
	pr.IncPage("template")
	pr.IncToolFailure("datacontract")
	pr.ObserveStageDuration("discover", 150*time.Millisecond)
	pr.ObserveGenerationDuration(500 * time.Millisecond)
	pr.IncGenerationOutcome(GenerationSuccess)

	require.Equal(t, 2.0, testutil.ToFloat64(pr.contracts.WithLabelValues("api", "parsed")))
	require.Equal(t, 1.0, testutil.ToFloat64(pr.contracts.WithLabelValues("", "failed")))
	require.Equal(t, 1.0, testutil.ToFloat64(pr.toolFailures.WithLabelValues("datacontract")))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncContract("api", OutcomeParsed)
	pr.IncPage("template")
	pr.IncGenerationOutcome(GenerationFailed)
}

func TestWriteTextfile(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncPage("datacontract-cli")

	path := filepath.Join(t.TempDir(), "catalog.prom")
	require.NoError(t, WriteTextfile(path, reg))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(b), `contractcatalog_pages_written_total{renderer="datacontract-cli"} 1`))
}
