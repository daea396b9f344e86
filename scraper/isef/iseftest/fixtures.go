package iseftest

import (
	"fmt"
	"html"
	"strings"

	"isef-scraper/scraper/isef"
)

// Row is one results table row. Href, when set, links the title cell.
type Row struct {
	Cells []string
	Href  string
}

// Field is a labelled paragraph on a detail page
type Field struct {
	Label string
	Value string
}

// Categories offered by the fake search form
var Categories = []string{
	"Animal Sciences",
	"Behavioral and Social Sciences",
	"Physics and Astronomy",
	"Robotics and Intelligent Machines",
}

// SearchFormHTML renders the search form with the "all years" box ticked
func SearchFormHTML() string {
	var b strings.Builder
	b.WriteString(`<html><head><title>Abstracts Search</title></head><body><form>`)
	b.WriteString(`<select id="Category" name="Category"><option value="">All Categories</option>`)
	for i, c := range Categories {
		fmt.Fprintf(&b, `<option value="%d">%s</option>`, i+1, html.EscapeString(c))
	}
	b.WriteString(`</select>`)
	b.WriteString(`<input type="checkbox" id="SelectedIsefYears0" name="SelectedIsefYears" value="0" checked="checked"/>`)
	for i := 1; i <= 12; i++ {
		fmt.Fprintf(&b, `<input type="checkbox" id="SelectedIsefYears%d" name="SelectedIsefYears" value="%d"/>`, i, 2026-i)
	}
	b.WriteString(`<input type="radio" id="IsGetAllAbstracts" name="IsGetAllAbstracts" value="True" checked="checked"/>`)
	b.WriteString(`<input type="radio" id="IsGetAllAbstracts" name="IsGetAllAbstracts" value="False"/>`)
	b.WriteString(`<input type="submit" value="Search Abstracts"/>`)
	b.WriteString(`</form></body></html>`)
	return b.String()
}

// ResultsHTML renders the results table, page size selector included
func ResultsHTML(rows []Row) string {
	var b strings.Builder
	b.WriteString(`<html><head><title>Abstracts Search Results</title></head><body>`)
	b.WriteString(`<select id="dt-length-0"><option value="20" selected="selected">20</option><option value="50">50</option><option value="100">100</option></select>`)
	b.WriteString(`<table id="tblAbstractSearchResults"><thead><tr>`)
	for _, h := range []string{"Year", "Finalist Names", "Project Title", "Category", "Fair Country", "Fair State", "Fair Province", "Awards Won"} {
		fmt.Fprintf(&b, "<th>%s</th>", h)
	}
	b.WriteString(`</tr></thead><tbody>`)
	for _, r := range rows {
		b.WriteString("<tr>")
		for i, c := range r.Cells {
			text := html.EscapeString(c)
			if i == isef.TitleCellIndex && r.Href != "" {
				text = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(r.Href), text)
			}
			fmt.Fprintf(&b, "<td>%s</td>", text)
		}
		b.WriteString("</tr>")
	}
	b.WriteString(`</tbody></table></body></html>`)
	return b.String()
}

// DetailHTML renders a project page with the given title and labelled paragraphs
func DetailHTML(title string, fields ...Field) string {
	var b strings.Builder
	b.WriteString(`<html><head><title>Project Abstract</title></head><body><div class="row"><div class="col-sm-12">`)
	fmt.Fprintf(&b, "<h2>%s</h2>", html.EscapeString(title))
	for _, f := range fields {
		fmt.Fprintf(&b, "<p><strong>%s</strong> %s</p>", html.EscapeString(f.Label), html.EscapeString(f.Value))
	}
	b.WriteString(`</div></div></body></html>`)
	return b.String()
}

// Site wires a Driver that behaves like the abstracts site: submitting the form
// shows the first page of rows and choosing a page size shows up to that many.
// details maps detail URLs to their pages.
func Site(baseURL string, rows []Row, details map[string]string) *Driver {
	pages := map[string]string{baseURL: SearchFormHTML()}
	for u, p := range details {
		pages[u] = p
	}
	d := New(pages)
	d.OnClick[isef.SubmitButton] = func(d *Driver) {
		d.SetHTML(ResultsHTML(firstN(rows, isef.DefaultPageSize)))
	}
	d.OnSelect[isef.PageSizeSelect] = func(d *Driver, value string) {
		var n int
		fmt.Sscanf(value, "%d", &n)
		d.SetHTML(ResultsHTML(firstN(rows, n)))
	}
	return d
}

func firstN(rows []Row, n int) []Row {
	if n > len(rows) {
		n = len(rows)
	}
	return rows[:n]
}
