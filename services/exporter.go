package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"isef-scraper/config"
	"isef-scraper/metrics"
	"isef-scraper/models"
	"isef-scraper/storage"
	"isef-scraper/utils"
)

// ErrNothingToExport is returned for an empty record set; no file is written
var ErrNothingToExport = errors.New("no project data extracted")

// ExportOptions selects the file outputs
type ExportOptions struct {
	OutputDir string
	Format    string // config.FormatCSV, FormatXLSX or FormatBoth
}

// Exporter writes a run's records to every configured sink
type Exporter struct {
	opts    ExportOptions
	extra   []storage.RecordSink
	metrics *metrics.Metrics
	logger  *utils.Logger
}

// NewExporter creates an Exporter. extra sinks, such as a database, receive
// the same records after the files are written.
func NewExporter(opts ExportOptions, m *metrics.Metrics, logger *utils.Logger, extra ...storage.RecordSink) *Exporter {
	return &Exporter{opts: opts, extra: extra, metrics: m, logger: logger}
}

// FileSinks returns the file writers for criteria, named isef_<year>_<category>.<ext>
func (e *Exporter) FileSinks(criteria models.SearchCriteria) []storage.RecordSink {
	path := func(ext string) string {
		return filepath.Join(e.opts.OutputDir, models.OutputFilename(criteria, ext))
	}
	var sinks []storage.RecordSink
	if e.opts.Format == config.FormatCSV || e.opts.Format == config.FormatBoth {
		sinks = append(sinks, storage.NewCSVWriter(path("csv"), e.logger))
	}
	if e.opts.Format == config.FormatXLSX || e.opts.Format == config.FormatBoth {
		sinks = append(sinks, storage.NewXLSXWriter(path("xlsx"), e.logger))
	}
	return sinks
}

// Export writes records in order to each sink and returns the files created.
// A failing sink does not stop the others; all failures are returned joined.
func (e *Exporter) Export(ctx context.Context, criteria models.SearchCriteria, records []models.ProjectRecord) ([]string, error) {
	if len(records) == 0 {
		return nil, ErrNothingToExport
	}

	sinks := append(e.FileSinks(criteria), e.extra...)
	var (
		written []string
		errs    []error
	)
	for _, sink := range sinks {
		if err := sink.SaveRecords(ctx, records); err != nil {
			e.logger.Error("Failed to write %s output: %v", sink.Name(), err)
			errs = append(errs, fmt.Errorf("%s sink: %w", sink.Name(), err))
			continue
		}
		e.metrics.AddExported(sink.Name(), len(records))
		if f, ok := sink.(interface{ Path() string }); ok {
			written = append(written, f.Path())
		}
	}
	return written, errors.Join(errs...)
}
