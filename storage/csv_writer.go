package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"isef-scraper/models"
	"isef-scraper/utils"
)

// CSVWriter writes project records to a CSV file
type CSVWriter struct {
	filePath string
	logger   *utils.Logger
}

// NewCSVWriter creates a new CSVWriter
func NewCSVWriter(filePath string, logger *utils.Logger) *CSVWriter {
	return &CSVWriter{filePath: filePath, logger: logger}
}

func (w *CSVWriter) Name() string { return "csv" }

// Path is the file the writer creates
func (w *CSVWriter) Path() string { return w.filePath }

// SaveRecords writes the header and one row per record, replacing any existing file
func (w *CSVWriter) SaveRecords(ctx context.Context, records []models.ProjectRecord) error {
	// Ensure output directory exists
	if err := os.MkdirAll(filepath.Dir(w.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(w.filePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	if err := WriteCSV(file, records); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close CSV file: %w", err)
	}

	w.logger.Info("Project records written to: %s (%d rows)", w.filePath, len(records))
	return nil
}

func (w *CSVWriter) Close() error { return nil }

// WriteCSV encodes records under the fixed column header
func WriteCSV(out io.Writer, records []models.ProjectRecord) error {
	writer := csv.NewWriter(out)
	if err := writer.Write(models.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, rec := range records {
		if err := writer.Write(rec.Row()); err != nil {
			return fmt.Errorf("failed to write CSV row %d (%s): %w", i, rec.Title, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
