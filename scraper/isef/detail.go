package isef

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"isef-scraper/models"
	"isef-scraper/utils"

	"github.com/PuerkitoBio/goquery"
)

var projectIDPattern = regexp.MustCompile(`projectId=(\d+)`)

// detailField is one recognized label and where its value goes
type detailField struct {
	label string
	set   func(r *models.ProjectRecord, value string)
}

// detailFields is evaluated in order; the first label that matches a block wins.
var detailFields = []detailField{
	{"Booth Id:", func(r *models.ProjectRecord, v string) { r.BoothID = v }},
	{"Category:", func(r *models.ProjectRecord, v string) { r.Category = v }},
	{"Year:", func(r *models.ProjectRecord, v string) { r.Year = v }},
	{"Finalist Names:", func(r *models.ProjectRecord, v string) { r.FinalistNames = v }},
	{"Abstract:", func(r *models.ProjectRecord, v string) { r.Abstract = v }},
}

// DetailStats reports how a detail page parsed
type DetailStats struct {
	ContainerFound bool
	Unrecognized   int // non-empty blocks matching no label
}

// ParseDetail reads a project detail page. A page without the content container
// yields an empty record rather than an error. ProjectID comes from detailURL.
func ParseDetail(html, detailURL string) (models.ProjectRecord, DetailStats, error) {
	rec := models.ProjectRecord{
		DetailURL: detailURL,
		ProjectID: ProjectIDFromURL(detailURL),
	}
	var stats DetailStats

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return rec, stats, fmt.Errorf("parse detail html: %w", err)
	}
	container := doc.Find(DetailContainer).First()
	if container.Length() == 0 {
		return rec, stats, nil
	}
	stats.ContainerFound = true

	rec.Title = collapse(container.Find(DetailHeading).First().Text())

	container.Find(DetailBlock).Each(func(_ int, p *goquery.Selection) {
		text := collapse(p.Text())
		if text == "" {
			return
		}
		field, ok := matchField(text)
		if !ok {
			stats.Unrecognized++
			return
		}
		field.set(&rec, valueAfter(text, field.label))
	})
	return rec, stats, nil
}

// matchField prefers a block that starts with a label; failing that it falls back
// to the first label contained anywhere in the block.
func matchField(text string) (detailField, bool) {
	for _, f := range detailFields {
		if strings.HasPrefix(text, f.label) {
			return f, true
		}
	}
	for _, f := range detailFields {
		if strings.Contains(text, f.label) {
			return f, true
		}
	}
	return detailField{}, false
}

func valueAfter(text, label string) string {
	i := strings.Index(text, label)
	if i < 0 {
		return text
	}
	return strings.TrimSpace(text[i+len(label):])
}

// collapse trims s and squeezes internal whitespace runs, newlines included, to one space
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ProjectIDFromURL returns the digits of a projectId=<digits> parameter, or ""
func ProjectIDFromURL(u string) string {
	m := projectIDPattern.FindStringSubmatch(u)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// DetailOptions tunes DetailExtractor's waits
type DetailOptions struct {
	Timeout time.Duration
	Settle  time.Duration
}

// DetailExtractor fetches and parses one detail page at a time
type DetailExtractor struct {
	driver Driver
	opts   DetailOptions
	logger *utils.Logger
}

// NewDetailExtractor creates a DetailExtractor
func NewDetailExtractor(d Driver, opts DetailOptions, logger *utils.Logger) *DetailExtractor {
	return &DetailExtractor{driver: d, opts: opts, logger: logger}
}

// Fetch navigates to detailURL and parses it. A content container that never
// renders is not an error: the page is parsed as it stands.
func (e *DetailExtractor) Fetch(ctx context.Context, detailURL string) (models.ProjectRecord, DetailStats, error) {
	if err := e.driver.Navigate(ctx, detailURL); err != nil {
		return models.ProjectRecord{}, DetailStats{}, stepErr(StepDetail, detailURL, err)
	}

	ready := ElementPresent(e.driver, DetailContainer+" "+DetailHeading)
	if err := e.driver.WaitUntil(ctx, ready, e.opts.Timeout); err != nil {
		if !errors.Is(err, ErrTimeout) {
			return models.ProjectRecord{}, DetailStats{}, stepErr(StepDetail, DetailContainer, err)
		}
		e.logger.Warn("Detail content did not render for %s, parsing page as is", detailURL)
	}
	if err := settle(ctx, e.opts.Settle); err != nil {
		return models.ProjectRecord{}, DetailStats{}, stepErr(StepDetail, detailURL, err)
	}

	html, err := e.driver.HTML(ctx)
	if err != nil {
		return models.ProjectRecord{}, DetailStats{}, stepErr(StepDetail, detailURL, err)
	}
	rec, stats, err := ParseDetail(html, detailURL)
	if err != nil {
		return models.ProjectRecord{}, stats, stepErr(StepDetail, detailURL, err)
	}
	if !stats.ContainerFound {
		e.logger.Warn("Could not find content container %s on %s", DetailContainer, detailURL)
	}
	return rec, stats, nil
}
