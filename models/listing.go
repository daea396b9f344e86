package models

// SearchCriteria is the immutable input of one scrape run
type SearchCriteria struct {
	Year     int
	Category string // must match a category dropdown label verbatim
}

// ListingRow is one row of the rendered results table
type ListingRow struct {
	Year          string
	FinalistNames string
	ProjectTitle  string
	Category      string
	FairCountry   string
	FairState     string
	FairProvince  string
	AwardsWon     string
	DetailURL     string // absolute
}
