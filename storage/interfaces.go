package storage

import (
	"context"

	"isef-scraper/models"
)

// RecordSink stores merged project records
type RecordSink interface {
	// Name identifies the sink in logs and metrics
	Name() string
	SaveRecords(ctx context.Context, records []models.ProjectRecord) error
	Close() error
}
