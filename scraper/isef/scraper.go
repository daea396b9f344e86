package isef

import (
	"context"
	"errors"
	"fmt"
	"time"

	"isef-scraper/config"
	"isef-scraper/metrics"
	"isef-scraper/models"
	"isef-scraper/services"
	"isef-scraper/utils"
)

// diagnosticAnchors is how many links are logged when the listing comes back empty
const diagnosticAnchors = 10

// Scraper runs one search end to end over a single browser session
type Scraper struct {
	cfg         *config.Config
	driver      Driver
	metrics     *metrics.Metrics
	logger      *utils.Logger
	rateLimiter *utils.RateLimiter
	seenURLs    *utils.URLTracker
}

// NewScraper creates a Scraper. The driver must be unopened; Scrape owns its lifetime.
func NewScraper(cfg *config.Config, driver Driver, m *metrics.Metrics, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:         cfg,
		driver:      driver,
		metrics:     m,
		logger:      logger,
		rateLimiter: utils.NewRateLimiter(cfg.RateLimitDelay),
		seenURLs:    utils.NewURLTracker(),
	}
}

// Scrape is the main entry point. It opens the session, submits the search,
// normalizes pagination, reads the listing and fetches every detail page in
// listing order. The session is closed exactly once before Scrape returns.
//
// The returned result is never nil; on abort it holds whatever was gathered.
func (s *Scraper) Scrape(ctx context.Context, criteria models.SearchCriteria) (*models.RunResult, error) {
	result := &models.RunResult{Criteria: criteria}
	s.logger.Info("Starting ISEF scraper: year=%d category=%q", criteria.Year, criteria.Category)

	// unknown years are rejected before a browser is launched
	if _, err := YearCheckboxID(criteria.Year); err != nil {
		return result, s.abort(stepErr(StepValidateInput, "", err))
	}

	if err := s.driver.Open(ctx); err != nil {
		return result, s.abort(stepErr(StepOpenSession, "", err))
	}
	defer func() {
		if err := s.driver.Close(); err != nil {
			s.logger.Warn("Failed to close browser session: %v", err)
		}
	}()

	// Step 1: fill in and submit the search form
	search := NewSearchConfigurator(s.driver, SearchOptions{
		BaseURL:      s.cfg.BaseURL,
		WaitTimeout:  s.cfg.WaitTimeout,
		SubmitSettle: s.cfg.SubmitSettle,
	}, s.logger)
	if err := search.Configure(ctx, criteria); err != nil {
		return result, s.abort(err)
	}

	// Step 2: show every result on one page; failure here only degrades
	normalizer := NewPaginationNormalizer(s.driver, s.cfg.PaginationTimeout, s.logger)
	normalized, err := normalizer.Normalize(ctx)
	result.PaginationNormalized = normalized
	if err != nil {
		s.countWaitTimeout(err)
	}

	// Step 3: listing rows
	listing, err := NewListingExtractor(s.driver, s.cfg.BaseURL)
	if err != nil {
		return result, s.abort(stepErr(StepListing, "", err))
	}
	rows, stats, html, err := listing.Extract(ctx)
	result.SkippedRows = stats.Skipped()
	s.metrics.IncSkipped("malformed", stats.Malformed)
	s.metrics.IncSkipped("no_link", stats.NoLink)
	if err != nil {
		if errors.Is(err, ErrNoResults) {
			s.logDiagnostics(html)
		}
		return result, s.abort(err)
	}
	result.ListingRows = len(rows)
	s.metrics.ListingRows.Add(float64(len(rows)))
	s.logger.Info("Found %d project links (%d rows skipped)", len(rows), stats.Skipped())

	// Step 4: detail pages, strictly one at a time
	details := NewDetailExtractor(s.driver, DetailOptions{
		Timeout: s.cfg.DetailTimeout,
		Settle:  s.cfg.DetailSettle,
	}, s.logger)

	for i, row := range rows {
		if first, isNew := s.seenURLs.Add(row.DetailURL, i); !isNew {
			result.DuplicateLinks++
			s.logger.Warn("Row %d links to the same project as row %d: %s", i+1, first+1, row.DetailURL)
		}

		if err := s.rateLimiter.Wait(ctx); err != nil {
			return result, s.abort(fmt.Errorf("detail fetch interrupted: %w", err))
		}

		s.logger.Info("Scraping project %d/%d: %s", i+1, len(rows), row.DetailURL)
		detail, err := s.fetchDetail(ctx, details, row.DetailURL)
		if err != nil {
			if ctx.Err() != nil {
				return result, s.abort(fmt.Errorf("detail fetch interrupted: %w", ctx.Err()))
			}
			s.recordFailure(result, i, row, err)
			continue
		}
		result.Add(services.Merge(row, detail))
	}

	s.logger.Info("Scraping complete. Records: %d, failed details: %d", len(result.Records), len(result.Failures))
	return result, nil
}

// fetchDetail loads one detail page, retrying transient failures
func (s *Scraper) fetchDetail(ctx context.Context, details *DetailExtractor, detailURL string) (models.ProjectRecord, error) {
	start := time.Now()
	defer func() {
		s.metrics.DetailDuration.Observe(time.Since(start).Seconds())
	}()

	var (
		rec   models.ProjectRecord
		stats DetailStats
	)
	policy := utils.RetryPolicy{
		MaxRetries: s.cfg.MaxRetries,
		BaseDelay:  s.cfg.RetryDelay,
		Retryable:  Retryable,
	}
	err := utils.RetryWithBackoff(ctx, policy, func() error {
		var err error
		rec, stats, err = details.Fetch(ctx, detailURL)
		if err != nil {
			s.countWaitTimeout(err)
		}
		return err
	}, s.logger.With("url", detailURL))
	if err != nil {
		return models.ProjectRecord{}, err
	}

	if stats.ContainerFound {
		s.metrics.IncDetail("ok")
	} else {
		s.metrics.IncDetail("empty")
	}
	if stats.Unrecognized > 0 {
		s.logger.Debug("%d unrecognized blocks on %s", stats.Unrecognized, detailURL)
	}
	return rec, nil
}

// recordFailure applies the record policy to a failed detail fetch
func (s *Scraper) recordFailure(result *models.RunResult, idx int, row models.ListingRow, err error) {
	recErr := &RecordError{Index: idx, URL: row.DetailURL, Err: err}
	s.metrics.IncFailure(Classify(recErr))

	failure := models.RecordFailure{
		Index:     idx,
		DetailURL: row.DetailURL,
		Err:       recErr,
		Class:     Classify(err),
	}

	if s.cfg.RecordPolicy == config.PolicyDegrade {
		failure.Degraded = true
		empty := models.ProjectRecord{
			DetailURL: row.DetailURL,
			ProjectID: ProjectIDFromURL(row.DetailURL),
		}
		result.Add(services.Merge(row, empty))
		s.metrics.IncDetail("degraded")
		s.logger.Warn("Detail fetch failed, keeping listing data only: %v", recErr)
	} else {
		s.metrics.IncDetail("failed")
		s.logger.Warn("Detail fetch failed, skipping project: %v", recErr)
	}
	result.Fail(failure)
}

// abort counts and logs a run-ending error, then returns it unchanged
func (s *Scraper) abort(err error) error {
	s.countWaitTimeout(err)
	class := Classify(err)
	s.metrics.IncFailure(class)
	if class == ClassZeroResults {
		s.logger.Warn("No results: %v", err)
	} else {
		s.logger.Error("Scrape aborted (%s): %v", class, err)
	}
	return err
}

func (s *Scraper) countWaitTimeout(err error) {
	if !errors.Is(err, ErrTimeout) {
		return
	}
	step := "unknown"
	var se *StepError
	if errors.As(err, &se) {
		step = se.Step
	}
	s.metrics.IncWaitTimeout(step)
}

// logDiagnostics describes the page when no listing rows were found, which
// usually means the site's markup changed
func (s *Scraper) logDiagnostics(html string) {
	diag := Diagnose(html, diagnosticAnchors)
	s.logger.Warn("No project links found. Page title: %q", diag.Title)
	s.logger.Info("Found %d links on the page", diag.Anchors)
	for i, a := range diag.Sample {
		s.logger.Info("  Link %d: %q -> %s", i+1, a.Text, a.Href)
	}
}
