package services

import (
	"testing"

	"isef-scraper/models"

	"github.com/stretchr/testify/assert"
)

func TestMergeTakesFairFieldsFromListing(t *testing.T) {
	row := models.ListingRow{
		Year:          "2024",
		FinalistNames: "Listing Name",
		ProjectTitle:  "Listing Title",
		Category:      "Physics and Astronomy",
		FairCountry:   "United States of America",
		FairState:     "Texas",
		FairProvince:  "",
		AwardsWon:     "First Award of $5,000",
		DetailURL:     "https://abstracts.societyforscience.org/Home/FullAbstract?projectId=21500",
	}
	detail := models.ProjectRecord{
		Title:         "Gravitational Lensing of Quasars",
		Category:      "Physics and Astronomy",
		Year:          "2024",
		FinalistNames: "Jane Doe",
		FairState:     "California", // ignored: the listing wins
		Abstract:      "We study lensing.",
		BoothID:       "PHYS012",
		ProjectID:     "21500",
		DetailURL:     row.DetailURL,
	}

	got := Merge(row, detail)

	assert.Equal(t, "Gravitational Lensing of Quasars", got.Title)
	assert.Equal(t, "Jane Doe", got.FinalistNames)
	assert.Equal(t, "Texas", got.FairState)
	assert.Equal(t, "United States of America", got.FairCountry)
	assert.Equal(t, "", got.FairProvince)
	assert.Equal(t, "First Award of $5,000", got.AwardsWon)
	assert.Equal(t, "PHYS012", got.BoothID)
	assert.Equal(t, "21500", got.ProjectID)
}

func TestMergeEmptyDetailKeepsListingFields(t *testing.T) {
	row := models.ListingRow{
		ProjectTitle: "Listing Title",
		FairCountry:  "Canada",
		FairProvince: "Ontario",
		AwardsWon:    "Second Award",
		DetailURL:    "https://example.org/a?projectId=7",
	}

	got := Merge(row, models.ProjectRecord{ProjectID: "7"})

	assert.Equal(t, "", got.Title, "title comes only from the detail page")
	assert.Equal(t, "Canada", got.FairCountry)
	assert.Equal(t, "Ontario", got.FairProvince)
	assert.Equal(t, "Second Award", got.AwardsWon)
	assert.Equal(t, "7", got.ProjectID)
	assert.Equal(t, row.DetailURL, got.DetailURL)
}
