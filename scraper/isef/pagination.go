package isef

import (
	"context"
	"time"

	"isef-scraper/utils"
)

// PaginationNormalizer switches the results table to its largest page size
type PaginationNormalizer struct {
	driver  Driver
	timeout time.Duration
	logger  *utils.Logger
}

// NewPaginationNormalizer creates a PaginationNormalizer
func NewPaginationNormalizer(d Driver, timeout time.Duration, logger *utils.Logger) *PaginationNormalizer {
	return &PaginationNormalizer{driver: d, timeout: timeout, logger: logger}
}

// Normalize sets the page size to MaxPageSize and waits for the table to grow
// past DefaultPageSize rows. It never fails the run: false means the table was
// left as is and extraction should proceed on whatever rows are present.
// The second return value is the error that caused the degradation, if any.
func (p *PaginationNormalizer) Normalize(ctx context.Context) (bool, error) {
	p.logger.Info("Changing results per page to %s...", MaxPageSize)

	if err := p.driver.WaitUntil(ctx, ElementPresent(p.driver, PageSizeSelect), p.timeout); err != nil {
		return p.degrade(stepErr(StepPageSize, PageSizeSelect, err))
	}
	if err := p.driver.SelectOption(ctx, PageSizeSelect, MaxPageSize); err != nil {
		return p.degrade(stepErr(StepPageSize, PageSizeSelect, err))
	}

	p.logger.Debug("Waiting for table to grow past %d rows...", DefaultPageSize)
	if err := p.driver.WaitUntil(ctx, CountAbove(p.driver, ResultsRows, DefaultPageSize), p.timeout); err != nil {
		return p.degrade(stepErr(StepPageSize, ResultsRows, err))
	}

	if n, err := p.driver.Count(ctx, ResultsRows); err == nil {
		p.logger.Info("Found %d entries after changing to %s per page", n, MaxPageSize)
	}
	return true, nil
}

func (p *PaginationNormalizer) degrade(err error) (bool, error) {
	p.logger.Warn("Could not expand results table, continuing with rows present: %v", err)
	return false, err
}
