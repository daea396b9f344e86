package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"isef-scraper/models"

	"github.com/jedib0t/go-pretty/v6/table"
)

const reportWidth = 60

// PrintRunReport writes the run summary followed by the first preview records
func PrintRunReport(w io.Writer, s *models.RunSummary, records []models.ProjectRecord, preview int) {
	border := strings.Repeat("═", reportWidth)
	thin := strings.Repeat("─", reportWidth)

	fmt.Fprintf(w, "\n╔%s╗\n", border)
	fmt.Fprintf(w, "║%s║\n", center("ISEF WINNING ABSTRACTS", reportWidth))
	fmt.Fprintf(w, "║%s║\n", center(fmt.Sprintf("%d · %s", s.Criteria.Year, s.Criteria.Category), reportWidth))
	fmt.Fprintf(w, "╚%s╝\n", border)

	fmt.Fprintf(w, "\n OVERVIEW\n%s\n", thin)
	fmt.Fprintf(w, "  Listing Rows            : %d\n", s.ListingRows)
	fmt.Fprintf(w, "  Malformed Rows Skipped  : %d\n", s.SkippedRows)
	if s.DuplicateLinks > 0 {
		fmt.Fprintf(w, "  Duplicate Links         : %d\n", s.DuplicateLinks)
	}
	fmt.Fprintf(w, "  Pagination Expanded     : %s\n", yesNo(s.PaginationNormalized))
	fmt.Fprintf(w, "  Records Exported        : %d\n", s.Records)
	fmt.Fprintf(w, "  With Abstract           : %d\n", s.WithAbstract)
	fmt.Fprintf(w, "  Empty Detail Pages      : %d\n", s.EmptyDetails)
	fmt.Fprintf(w, "  With Awards             : %d\n", s.Awarded)

	if s.Failures > 0 {
		fmt.Fprintf(w, "\n FAILED DETAIL PAGES\n%s\n", thin)
		fmt.Fprintf(w, "  Total                   : %d (%d degraded)\n", s.Failures, s.Degraded)
		for _, kc := range sortedCounts(s.FailuresByClass) {
			fmt.Fprintf(w, "  %-23s : %d\n", kc.key, kc.count)
		}
	}

	if len(s.RecordsByCountry) > 0 {
		fmt.Fprintf(w, "\n RECORDS PER FAIR COUNTRY\n%s\n", thin)
		for _, kc := range sortedCounts(s.RecordsByCountry) {
			bar := strings.Repeat("▓", kc.count)
			fmt.Fprintf(w, "  %-30s %3d  %s\n", truncate(kc.key, 29)+":", kc.count, bar)
		}
	}

	if n := min(preview, len(records)); n > 0 {
		fmt.Fprintf(w, "\n FIRST %d RECORDS\n", n)
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"#", "Title", "Finalists", "Awards", "Booth", "Project ID"})
		for i, rec := range records[:n] {
			title := rec.Title
			if title == "" {
				title = "(no detail)"
			}
			t.AppendRow(table.Row{
				i + 1,
				truncate(title, 40),
				truncate(orDash(rec.FinalistNames), 24),
				truncate(orDash(rec.AwardsWon), 28),
				orDash(rec.BoothID),
				orDash(rec.ProjectID),
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	}

	if len(s.Outputs) > 0 {
		fmt.Fprintf(w, "\n OUTPUT\n%s\n", thin)
		for _, p := range s.Outputs {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}

	fmt.Fprintf(w, "\n%s\n\n", border)
}

type keyCount struct {
	key   string
	count int
}

// sortedCounts orders by count descending, then key, so reports are stable
func sortedCounts(m map[string]int) []keyCount {
	out := make([]keyCount, 0, len(m))
	for k, c := range m {
		out = append(out, keyCount{k, c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no (default page size)"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func center(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	pad := (width - len(runes)) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-len(runes)-pad)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
