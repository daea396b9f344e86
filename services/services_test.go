package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"isef-scraper/config"
	"isef-scraper/metrics"
	"isef-scraper/models"
	"isef-scraper/utils"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var physics2024 = models.SearchCriteria{Year: 2024, Category: "Physics and Astronomy"}

func records() []models.ProjectRecord {
	return []models.ProjectRecord{
		{Title: "Quasar Lensing", Year: "2024", FairCountry: "United States of America", FairState: "Texas",
			AwardsWon: "First Award", Abstract: "We study lensing.", BoothID: "PHYS001", ProjectID: "1"},
		{Title: "", Year: "", FairCountry: "Canada", FairProvince: "Ontario", ProjectID: "2"},
		{Title: "Neutrino Detector", FairCountry: "United States of America", Abstract: "A detector.", ProjectID: "3"},
	}
}

type failingSink struct{ calls int }

func (f *failingSink) Name() string { return "postgres" }
func (f *failingSink) SaveRecords(context.Context, []models.ProjectRecord) error {
	f.calls++
	return errors.New("connection refused")
}
func (f *failingSink) Close() error { return nil }

func TestExportWritesCSV(t *testing.T) {
	dir := t.TempDir()
	m := metrics.New()
	e := NewExporter(ExportOptions{OutputDir: dir, Format: config.FormatCSV}, m, utils.NewNopLogger())

	written, err := e.Export(context.Background(), physics2024, records())
	require.NoError(t, err)

	want := filepath.Join(dir, "isef_2024_physics_and_astronomy.csv")
	assert.Equal(t, []string{want}, written)

	data, err := os.ReadFile(want)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Join(models.Columns, ","), lines[0])
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsExported.WithLabelValues("csv")))
}

func TestExportBothFormats(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(ExportOptions{OutputDir: dir, Format: config.FormatBoth}, metrics.New(), utils.NewNopLogger())

	written, err := e.Export(context.Background(), physics2024, records())
	require.NoError(t, err)
	require.Len(t, written, 2)
	assert.FileExists(t, filepath.Join(dir, "isef_2024_physics_and_astronomy.csv"))
	assert.FileExists(t, filepath.Join(dir, "isef_2024_physics_and_astronomy.xlsx"))
}

func TestExportNothing(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(ExportOptions{OutputDir: dir, Format: config.FormatCSV}, metrics.New(), utils.NewNopLogger())

	written, err := e.Export(context.Background(), physics2024, nil)
	assert.ErrorIs(t, err, ErrNothingToExport)
	assert.Empty(t, written)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no file is written for an empty record set")
}

func TestExportFailingSinkDoesNotStopFiles(t *testing.T) {
	dir := t.TempDir()
	sink := &failingSink{}
	e := NewExporter(ExportOptions{OutputDir: dir, Format: config.FormatCSV}, metrics.New(), utils.NewNopLogger(), sink)

	written, err := e.Export(context.Background(), physics2024, records())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres sink: connection refused")
	assert.Len(t, written, 1)
	assert.Equal(t, 1, sink.calls)
}

func TestSummarize(t *testing.T) {
	result := &models.RunResult{
		Criteria:             physics2024,
		ListingRows:          4,
		SkippedRows:          1,
		PaginationNormalized: true,
		Records:              records(),
		Failures: []models.RecordFailure{
			{Index: 1, Class: "navigation", Degraded: true},
			{Index: 3, Class: "timeout"},
		},
	}

	s := Summarize(result)

	assert.Equal(t, physics2024, s.Criteria)
	assert.Equal(t, 3, s.Records)
	assert.Equal(t, 2, s.WithAbstract)
	assert.Equal(t, 1, s.EmptyDetails)
	assert.Equal(t, 1, s.Awarded)
	assert.Equal(t, 2, s.Failures)
	assert.Equal(t, 1, s.Degraded)
	assert.Equal(t, map[string]int{"navigation": 1, "timeout": 1}, s.FailuresByClass)
	assert.Equal(t, map[string]int{"United States of America": 2, "Canada": 1}, s.RecordsByCountry)
}

func TestSummarizeNil(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Records)
	assert.NotNil(t, s.RecordsByCountry)
}

func TestPrintRunReport(t *testing.T) {
	s := Summarize(&models.RunResult{
		Criteria:    physics2024,
		ListingRows: 3,
		Records:     records(),
		Failures:    []models.RecordFailure{{Class: "timeout"}},
	})
	s.Outputs = []string{"isef_2024_physics_and_astronomy.csv"}

	var buf bytes.Buffer
	PrintRunReport(&buf, s, records(), 2)
	out := buf.String()

	assert.Contains(t, out, "2024 · Physics and Astronomy")
	assert.Contains(t, out, "Records Exported        : 3")
	assert.Contains(t, out, "Pagination Expanded     : no")
	assert.Contains(t, out, "FIRST 2 RECORDS")
	assert.Contains(t, out, "Quasar Lensing")
	assert.Contains(t, out, "(no detail)")
	assert.Contains(t, out, "PHYS001")
	assert.NotContains(t, out, "Neutrino Detector")
	assert.Contains(t, out, "timeout")
	assert.Contains(t, out, "isef_2024_physics_and_astronomy.csv")
	// the larger country bucket is listed first
	assert.Less(t, strings.Index(out, "United States of America:"), strings.Index(out, "Canada:"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
