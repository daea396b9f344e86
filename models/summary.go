package models

// RunSummary holds the aggregate figures reported at the end of a run
type RunSummary struct {
	Criteria             SearchCriteria
	ListingRows          int
	SkippedRows          int
	DuplicateLinks       int
	PaginationNormalized bool

	Records      int
	WithAbstract int
	EmptyDetails int // records whose detail page yielded no title
	Awarded      int

	Failures        int
	Degraded        int
	FailuresByClass map[string]int

	RecordsByCountry map[string]int

	// Outputs lists the files written by the export, if any
	Outputs []string
}
