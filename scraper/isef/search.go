package isef

import (
	"context"
	"fmt"
	"time"

	"isef-scraper/models"
	"isef-scraper/utils"
)

// Search form steps, in execution order
const (
	StepNavigate      = "navigate"
	StepCategory      = "select category"
	StepDefaultYear   = "clear default year"
	StepResolveYear   = "resolve year"
	StepYear          = "select year"
	StepWinnersOnly   = "select winners only"
	StepSubmit        = "submit search"
	StepAwaitResults  = "await results"
	StepPageSize      = "set page size"
	StepListing       = "extract listing"
	StepDetail        = "fetch detail"
	StepOpenSession   = "open session"
	StepValidateInput = "validate input"
)

// SearchOptions tunes the configurator's waits
type SearchOptions struct {
	BaseURL      string
	WaitTimeout  time.Duration
	SubmitSettle time.Duration
}

// SearchConfigurator fills in and submits the abstracts search form
type SearchConfigurator struct {
	driver Driver
	opts   SearchOptions
	logger *utils.Logger
}

// NewSearchConfigurator creates a SearchConfigurator
func NewSearchConfigurator(d Driver, opts SearchOptions, logger *utils.Logger) *SearchConfigurator {
	return &SearchConfigurator{driver: d, opts: opts, logger: logger}
}

// Configure runs the form sequence for criteria. It stops at the first failing
// step and returns a *StepError naming it; nothing is retried within the sequence.
func (c *SearchConfigurator) Configure(ctx context.Context, criteria models.SearchCriteria) error {
	yearID, err := YearCheckboxID(criteria.Year)
	if err != nil {
		return stepErr(StepResolveYear, "", err)
	}
	yearSel := idSelector(yearID)

	c.logger.Info("Navigating to %s", c.opts.BaseURL)
	if err := c.driver.Navigate(ctx, c.opts.BaseURL); err != nil {
		return stepErr(StepNavigate, c.opts.BaseURL, err)
	}

	c.logger.Info("Selecting category %q...", criteria.Category)
	if err := c.waitFor(ctx, CategorySelect); err != nil {
		return stepErr(StepCategory, CategorySelect, err)
	}
	if err := c.driver.SelectOptionByText(ctx, CategorySelect, criteria.Category); err != nil {
		return stepErr(StepCategory, CategorySelect, err)
	}

	c.logger.Debug("Unchecking default year checkbox...")
	if err := c.waitFor(ctx, DefaultYearCheckbox); err != nil {
		return stepErr(StepDefaultYear, DefaultYearCheckbox, err)
	}
	checked, err := c.driver.IsChecked(ctx, DefaultYearCheckbox)
	if err != nil {
		return stepErr(StepDefaultYear, DefaultYearCheckbox, err)
	}
	if checked {
		if err := c.driver.ClickForce(ctx, DefaultYearCheckbox); err != nil {
			return stepErr(StepDefaultYear, DefaultYearCheckbox, err)
		}
	}

	c.logger.Info("Selecting year %d with checkbox ID: %s", criteria.Year, yearID)
	if err := c.waitFor(ctx, yearSel); err != nil {
		return stepErr(StepYear, yearSel, err)
	}
	if err := c.driver.ClickForce(ctx, yearSel); err != nil {
		return stepErr(StepYear, yearSel, err)
	}

	c.logger.Debug("Selecting 'Only Winning Abstracts'...")
	if err := c.waitFor(ctx, WinnersOnlyRadio); err != nil {
		return stepErr(StepWinnersOnly, WinnersOnlyRadio, err)
	}
	if err := c.driver.ClickForce(ctx, WinnersOnlyRadio); err != nil {
		return stepErr(StepWinnersOnly, WinnersOnlyRadio, err)
	}

	c.logger.Info("Submitting search...")
	if err := c.waitFor(ctx, SubmitButton); err != nil {
		return stepErr(StepSubmit, SubmitButton, err)
	}
	if err := c.driver.ScrollIntoView(ctx, SubmitButton); err != nil {
		return stepErr(StepSubmit, SubmitButton, err)
	}
	if err := c.driver.ClickForce(ctx, SubmitButton); err != nil {
		return stepErr(StepSubmit, SubmitButton, err)
	}

	// The site has no "submission complete" signal: wait for the results table,
	// then give its scripts a short settle before the row-count checks downstream.
	if err := c.waitFor(ctx, ResultsTable); err != nil {
		return stepErr(StepAwaitResults, ResultsTable, err)
	}
	if err := settle(ctx, c.opts.SubmitSettle); err != nil {
		return stepErr(StepAwaitResults, ResultsTable, err)
	}
	return nil
}

func (c *SearchConfigurator) waitFor(ctx context.Context, selector string) error {
	if err := c.driver.WaitUntil(ctx, ElementPresent(c.driver, selector), c.opts.WaitTimeout); err != nil {
		return fmt.Errorf("waiting for %s: %w", selector, err)
	}
	return nil
}
