package services

import "isef-scraper/models"

// Merge combines a listing row with its detail record. The detail page is
// authoritative for Title, Category, Year, FinalistNames, Abstract, BoothID and
// ProjectID; the four fair/award fields exist only in the listing and always
// come from row, even when the detail page is empty.
func Merge(row models.ListingRow, detail models.ProjectRecord) models.ProjectRecord {
	merged := detail
	merged.FairCountry = row.FairCountry
	merged.FairState = row.FairState
	merged.FairProvince = row.FairProvince
	merged.AwardsWon = row.AwardsWon
	if merged.DetailURL == "" {
		merged.DetailURL = row.DetailURL
	}
	return merged
}
