package isef_test

import (
	"fmt"
	"time"

	"isef-scraper/config"
	"isef-scraper/scraper/isef/iseftest"
)

const testBaseURL = "https://abstracts.example.org"

func detailURL(id int) string {
	return fmt.Sprintf("%s/Home/FullAbstract?projectId=%d", testBaseURL, id)
}

// projectRow is a well-formed listing row linking to project id
func projectRow(id int, state string) iseftest.Row {
	return iseftest.Row{
		Cells: []string{
			"2024",
			fmt.Sprintf("Finalist %d", id),
			fmt.Sprintf("Listing Title %d", id),
			"Physics and Astronomy",
			"United States of America",
			state,
			"",
			"Second Award of $2,000",
		},
		Href: fmt.Sprintf("/Home/FullAbstract?projectId=%d", id),
	}
}

func projectPage(id int) string {
	return iseftest.DetailHTML(fmt.Sprintf("Project %d", id),
		iseftest.Field{Label: "Booth Id:", Value: fmt.Sprintf("PHYS%03d", id)},
		iseftest.Field{Label: "Category:", Value: "Physics and Astronomy"},
		iseftest.Field{Label: "Year:", Value: "2024"},
		iseftest.Field{Label: "Finalist Names:", Value: fmt.Sprintf("Student %d", id)},
		iseftest.Field{Label: "Abstract:", Value: fmt.Sprintf("Abstract of project %d.", id)},
	)
}

// site serves n well-formed rows with a detail page for each
func site(ids ...int) (*iseftest.Driver, []iseftest.Row) {
	var rows []iseftest.Row
	pages := map[string]string{}
	for _, id := range ids {
		rows = append(rows, projectRow(id, "Texas"))
		pages[detailURL(id)] = projectPage(id)
	}
	return iseftest.Site(testBaseURL, rows, pages), rows
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.BaseURL = testBaseURL
	cfg.WaitTimeout = 200 * time.Millisecond
	cfg.PaginationTimeout = 50 * time.Millisecond
	cfg.DetailTimeout = 50 * time.Millisecond
	cfg.PollInterval = time.Millisecond
	cfg.SubmitSettle = 0
	cfg.DetailSettle = 0
	cfg.RateLimitDelay = 0
	cfg.RetryDelay = 0
	cfg.MaxRetries = 0
	return cfg
}
