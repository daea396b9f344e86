package isef

import "fmt"

// Selectors and identifiers of the abstracts search site.
// These mirror the live markup; when the site changes, this is the file to update.
const (
	// Search form
	CategorySelect      = `#Category`
	DefaultYearCheckbox = `input#SelectedIsefYears0[value="0"]`
	WinnersOnlyRadio    = `input#IsGetAllAbstracts[value="False"]`
	SubmitButton        = `input[type="submit"][value*="Search"]`

	// Results
	ResultsTable    = `#tblAbstractSearchResults`
	ResultsRows     = `#tblAbstractSearchResults tbody tr`
	PageSizeSelect  = `#dt-length-0`
	MaxPageSize     = "100"
	DefaultPageSize = 20
	MinListingCells = 8
	TitleCellIndex  = 2

	// Detail page
	DetailContainer = `div.col-sm-12`
	DetailHeading   = `h2`
	DetailBlock     = `p`
)

// yearCheckboxIDs maps a fair year to its checkbox id on the search form.
// It is a hard-coded compatibility table and must be kept in sync with the site.
var yearCheckboxIDs = map[int]string{
	2025: "SelectedIsefYears1",
	2024: "SelectedIsefYears2",
	2023: "SelectedIsefYears3",
	2022: "SelectedIsefYears4",
	2021: "SelectedIsefYears5",
	2020: "SelectedIsefYears6",
	2019: "SelectedIsefYears7",
	2018: "SelectedIsefYears8",
	2017: "SelectedIsefYears9",
	2016: "SelectedIsefYears10",
	2015: "SelectedIsefYears11",
	2014: "SelectedIsefYears12",
}

// YearCheckboxID resolves year to its checkbox id
func YearCheckboxID(year int) (string, error) {
	id, ok := yearCheckboxIDs[year]
	if !ok {
		return "", fmt.Errorf("%w: %d (supported: 2014-2025)", ErrUnsupportedYear, year)
	}
	return id, nil
}

// idSelector turns an element id into a CSS selector
func idSelector(id string) string {
	return "#" + id
}
