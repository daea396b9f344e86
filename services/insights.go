package services

import (
	"strings"

	"isef-scraper/models"
)

// unknownCountry buckets records whose listing row had no fair country
const unknownCountry = "Unknown"

// Summarize computes the end-of-run figures from a scrape result
func Summarize(result *models.RunResult) *models.RunSummary {
	summary := &models.RunSummary{
		FailuresByClass:  make(map[string]int),
		RecordsByCountry: make(map[string]int),
	}
	if result == nil {
		return summary
	}

	summary.Criteria = result.Criteria
	summary.ListingRows = result.ListingRows
	summary.SkippedRows = result.SkippedRows
	summary.DuplicateLinks = result.DuplicateLinks
	summary.PaginationNormalized = result.PaginationNormalized
	summary.Records = len(result.Records)

	for _, rec := range result.Records {
		if strings.TrimSpace(rec.Abstract) != "" {
			summary.WithAbstract++
		}
		if strings.TrimSpace(rec.Title) == "" {
			summary.EmptyDetails++
		}
		if strings.TrimSpace(rec.AwardsWon) != "" {
			summary.Awarded++
		}
		country := strings.TrimSpace(rec.FairCountry)
		if country == "" {
			country = unknownCountry
		}
		summary.RecordsByCountry[country]++
	}

	for _, f := range result.Failures {
		summary.Failures++
		if f.Degraded {
			summary.Degraded++
		}
		class := f.Class
		if class == "" {
			class = "unknown"
		}
		summary.FailuresByClass[class]++
	}
	return summary
}
