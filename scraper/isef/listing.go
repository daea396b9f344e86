package isef

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"isef-scraper/models"

	"github.com/PuerkitoBio/goquery"
)

// ListingStats counts rows ParseListing dropped
type ListingStats struct {
	Malformed int // fewer than MinListingCells cells
	NoLink    int // no hyperlink in the title cell
}

// Skipped is the total number of dropped rows
func (s ListingStats) Skipped() int { return s.Malformed + s.NoLink }

// PageDiagnostics describes a page on which no listing rows were found
type PageDiagnostics struct {
	Title   string
	Anchors int
	Sample  []Anchor
}

// Anchor is a hyperlink's text and href
type Anchor struct {
	Text string
	Href string
}

// ParseListing reads the results table out of an HTML document, in table order.
// Relative detail links are resolved against base.
func ParseListing(html string, base *url.URL) ([]models.ListingRow, ListingStats, error) {
	var stats ListingStats
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, stats, fmt.Errorf("parse listing html: %w", err)
	}

	var rows []models.ListingRow
	doc.Find(ResultsTable).First().Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("td")
		if cells.Length() < MinListingCells {
			stats.Malformed++
			return
		}
		text := func(i int) string {
			return strings.TrimSpace(cells.Eq(i).Text())
		}

		href, ok := cells.Eq(TitleCellIndex).Find("a[href]").First().Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			stats.NoLink++
			return
		}
		detailURL, err := resolve(base, href)
		if err != nil {
			stats.NoLink++
			return
		}

		rows = append(rows, models.ListingRow{
			Year:          text(0),
			FinalistNames: text(1),
			ProjectTitle:  text(2),
			Category:      text(3),
			FairCountry:   text(4),
			FairState:     text(5),
			FairProvince:  text(6),
			AwardsWon:     text(7),
			DetailURL:     detailURL,
		})
	})
	return rows, stats, nil
}

// Diagnose summarizes a page for troubleshooting an empty listing
func Diagnose(html string, sample int) PageDiagnostics {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return PageDiagnostics{}
	}
	anchors := doc.Find("a")
	diag := PageDiagnostics{
		Title:   strings.TrimSpace(doc.Find("title").First().Text()),
		Anchors: anchors.Length(),
	}
	anchors.EachWithBreak(func(i int, a *goquery.Selection) bool {
		if i >= sample {
			return false
		}
		text := strings.TrimSpace(a.Text())
		if r := []rune(text); len(r) > 50 {
			text = string(r[:50])
		}
		href, _ := a.Attr("href")
		diag.Sample = append(diag.Sample, Anchor{Text: text, Href: href})
		return true
	})
	return diag
}

func resolve(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	if base == nil || ref.IsAbs() {
		return ref.String(), nil
	}
	return base.ResolveReference(ref).String(), nil
}

// ListingExtractor reads listing rows from the live results page
type ListingExtractor struct {
	driver Driver
	base   *url.URL
}

// NewListingExtractor creates a ListingExtractor resolving links against baseURL
func NewListingExtractor(d Driver, baseURL string) (*ListingExtractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	return &ListingExtractor{driver: d, base: base}, nil
}

// Extract parses the current document. It returns ErrNoResults when no row
// survives, together with the page HTML so the caller can diagnose it.
func (e *ListingExtractor) Extract(ctx context.Context) ([]models.ListingRow, ListingStats, string, error) {
	html, err := e.driver.HTML(ctx)
	if err != nil {
		return nil, ListingStats{}, "", stepErr(StepListing, ResultsTable, err)
	}
	rows, stats, err := ParseListing(html, e.base)
	if err != nil {
		return nil, stats, html, stepErr(StepListing, ResultsTable, err)
	}
	if len(rows) == 0 {
		return nil, stats, html, stepErr(StepListing, ResultsTable, ErrNoResults)
	}
	return rows, stats, html, nil
}
