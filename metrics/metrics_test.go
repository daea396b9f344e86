package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.ListingRows.Add(3)
	m.IncSkipped("malformed", 2)
	m.IncDetail("ok")
	m.IncDetail("ok")
	m.IncDetail("failed")
	m.IncWaitTimeout("set page size")
	m.AddExported("csv", 2)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ListingRows))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SkippedRows.WithLabelValues("malformed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DetailFetches.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DetailFetches.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WaitTimeouts.WithLabelValues("set page size")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsExported.WithLabelValues("csv")))
}

func TestRunsAreIsolated(t *testing.T) {
	a, b := New(), New()
	a.ListingRows.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ListingRows))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.IncFailure("timeout")

	path := filepath.Join(t.TempDir(), "isef.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `isef_failures_total{class="timeout"} 1`)
}
