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

func idsUpTo(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i + 1
	}
	return ids
}

func newNormalizer(d isef.Driver) *isef.PaginationNormalizer {
	return isef.NewPaginationNormalizer(d, 30*time.Millisecond, utils.NewNopLogger())
}

func TestNormalizeExpandsTable(t *testing.T) {
	d, rows := site(idsUpTo(30)...)
	d.SetHTML(iseftest.ResultsHTML(rows[:isef.DefaultPageSize]))

	ok, err := newNormalizer(d).Normalize(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := d.Count(context.Background(), isef.ResultsRows)
	require.NoError(t, err)
	assert.Equal(t, 30, n)
}

func TestNormalizeDegradesWhenTableNeverGrows(t *testing.T) {
	d, rows := site(idsUpTo(5)...)
	d.SetHTML(iseftest.ResultsHTML(rows))

	ok, err := newNormalizer(d).Normalize(context.Background())
	assert.False(t, ok)
	requireStep(t, err, isef.StepPageSize)
	assert.ErrorIs(t, err, isef.ErrTimeout)

	// rows already present are left for extraction
	n, _ := d.Count(context.Background(), isef.ResultsRows)
	assert.Equal(t, 5, n)
}

func TestNormalizeDegradesWithoutPageSizeControl(t *testing.T) {
	d := iseftest.New(nil)
	d.SetHTML(`<html><body><table id="tblAbstractSearchResults"><tbody></tbody></table></body></html>`)

	ok, err := newNormalizer(d).Normalize(context.Background())
	assert.False(t, ok)
	se := requireStep(t, err, isef.StepPageSize)
	assert.Equal(t, isef.PageSizeSelect, se.Selector)
}
