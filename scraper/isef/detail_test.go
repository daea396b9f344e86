package isef_test

import (
	"context"
	"testing"
	"time"

	"isef-scraper/scraper/isef"
	"isef-scraper/scraper/isef/iseftest"
	"isef-scraper/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDetail(t *testing.T) {
	rec, stats, err := isef.ParseDetail(projectPage(42), detailURL(42))
	require.NoError(t, err)

	assert.True(t, stats.ContainerFound)
	assert.Zero(t, stats.Unrecognized)
	assert.Equal(t, "Project 42", rec.Title)
	assert.Equal(t, "PHYS042", rec.BoothID)
	assert.Equal(t, "Physics and Astronomy", rec.Category)
	assert.Equal(t, "2024", rec.Year)
	assert.Equal(t, "Student 42", rec.FinalistNames)
	assert.Equal(t, "Abstract of project 42.", rec.Abstract)
	assert.Equal(t, "42", rec.ProjectID)
	assert.Equal(t, detailURL(42), rec.DetailURL)
}

func TestParseDetailCollapsesWhitespace(t *testing.T) {
	html := `<html><body><div class="col-sm-12">
<h2>
   Dark   Matter
   Halos
</h2>
<p>Abstract:
   line one
   line two</p>
<p>   </p>
<p>Some unrelated sentence.</p>
<p>Booth Id:PHYS007</p>
<p>Listed for Year: 2023</p>
</div></body></html>`

	rec, stats, err := isef.ParseDetail(html, "https://abstracts.example.org/x")
	require.NoError(t, err)

	assert.Equal(t, "Dark Matter Halos", rec.Title)
	assert.Equal(t, "line one line two", rec.Abstract)
	assert.Equal(t, "PHYS007", rec.BoothID)
	assert.Equal(t, "2023", rec.Year, "labels found mid-block still match")
	assert.Equal(t, "", rec.ProjectID)
	assert.Equal(t, 1, stats.Unrecognized)
}

func TestParseDetailPrefersLeadingLabel(t *testing.T) {
	html := `<div class="col-sm-12"><h2>T</h2><p>Abstract: Our Category: results were good.</p></div>`

	rec, _, err := isef.ParseDetail(html, "")
	require.NoError(t, err)
	assert.Equal(t, "Our Category: results were good.", rec.Abstract)
	assert.Equal(t, "", rec.Category)
}

func TestParseDetailWithoutContainer(t *testing.T) {
	rec, stats, err := isef.ParseDetail(`<html><body><p>Booth Id: X</p></body></html>`, detailURL(77))
	require.NoError(t, err)

	assert.False(t, stats.ContainerFound)
	assert.Equal(t, "77", rec.ProjectID)
	assert.Equal(t, "", rec.Title)
	assert.Equal(t, "", rec.BoothID)
}

func TestProjectIDFromURL(t *testing.T) {
	tests := map[string]string{
		"https://abstracts.example.org/Home/FullAbstract?projectId=12345":          "12345",
		"https://abstracts.example.org/Home/FullAbstract?projectId=9&category=Any": "9",
		"https://abstracts.example.org/Home/FullAbstract?id=5":                     "",
		"https://abstracts.example.org/Home/FullAbstract?projectId=abc":            "",
		"": "",
	}
	for u, want := range tests {
		assert.Equal(t, want, isef.ProjectIDFromURL(u), u)
	}
}

func newDetailExtractor(d isef.Driver) *isef.DetailExtractor {
	return isef.NewDetailExtractor(d, isef.DetailOptions{Timeout: 20 * time.Millisecond}, utils.NewNopLogger())
}

func TestDetailExtractorFetch(t *testing.T) {
	d := iseftest.New(map[string]string{detailURL(5): projectPage(5)})

	rec, stats, err := newDetailExtractor(d).Fetch(context.Background(), detailURL(5))
	require.NoError(t, err)
	assert.True(t, stats.ContainerFound)
	assert.Equal(t, "Project 5", rec.Title)
	assert.Equal(t, "5", rec.ProjectID)
}

func TestDetailExtractorParsesPageThatNeverRenders(t *testing.T) {
	d := iseftest.New(map[string]string{detailURL(6): `<html><body><p>Loading...</p></body></html>`})

	rec, stats, err := newDetailExtractor(d).Fetch(context.Background(), detailURL(6))
	require.NoError(t, err)
	assert.False(t, stats.ContainerFound)
	assert.Equal(t, "6", rec.ProjectID)
	assert.Equal(t, "", rec.Title)
}

func TestDetailExtractorNavigationFailure(t *testing.T) {
	d := iseftest.New(map[string]string{})

	_, _, err := newDetailExtractor(d).Fetch(context.Background(), detailURL(8))
	require.ErrorIs(t, err, isef.ErrNavigation)

	var se *isef.StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, isef.StepDetail, se.Step)
	assert.True(t, isef.Retryable(err))
}
