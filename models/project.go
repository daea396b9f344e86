package models

import (
	"fmt"
	"strings"
)

// Columns is the fixed export header, in order
var Columns = []string{
	"Year",
	"Finalist Names",
	"Title",
	"Category",
	"Fair Country",
	"Fair State",
	"Fair Province",
	"Awards Won",
	"Abstract",
	"Booth Id",
	"Project ID",
}

// ProjectRecord is the merged, exported entity for one project
type ProjectRecord struct {
	Title         string
	Category      string
	Year          string
	FinalistNames string
	FairCountry   string
	FairState     string
	FairProvince  string
	AwardsWon     string
	Abstract      string
	BoothID       string
	ProjectID     string // empty when the detail URL carries no projectId

	// DetailURL is not exported as a column; sinks may use it as a key.
	DetailURL string
}

// Row projects the record through Columns
func (r ProjectRecord) Row() []string {
	return []string{
		r.Year,
		r.FinalistNames,
		r.Title,
		r.Category,
		r.FairCountry,
		r.FairState,
		r.FairProvince,
		r.AwardsWon,
		r.Abstract,
		r.BoothID,
		r.ProjectID,
	}
}

// OutputFilename builds isef_<year>_<category>.<ext>, category lowercased with spaces as underscores
func OutputFilename(c SearchCriteria, ext string) string {
	category := strings.ToLower(strings.ReplaceAll(c.Category, " ", "_"))
	return fmt.Sprintf("isef_%d_%s.%s", c.Year, category, strings.TrimPrefix(ext, "."))
}

// RecordFailure describes a detail page that could not be fetched or parsed
type RecordFailure struct {
	Index     int // position in the listing
	DetailURL string
	Err       error
	Class     string // failure taxonomy label, e.g. "timeout" or "navigation"
	Degraded  bool   // true when a degraded record was emitted in its place
}

// RunResult accumulates everything one run produced
type RunResult struct {
	Criteria             SearchCriteria
	ListingRows          int
	SkippedRows          int
	DuplicateLinks       int // listing rows whose detail URL appeared earlier in the table
	PaginationNormalized bool
	Records              []ProjectRecord
	Failures             []RecordFailure
}

// Add appends a merged record
func (r *RunResult) Add(rec ProjectRecord) {
	r.Records = append(r.Records, rec)
}

// Fail records a per-record failure
func (r *RunResult) Fail(f RecordFailure) {
	r.Failures = append(r.Failures, f)
}
