package model

// AllColumns is the column filter value meaning "unfiltered".
const AllColumns = "all"

// Side is the counterparty side of an option quote.
type Side string

const (
	SideCall Side = "Call"
	SidePut  Side = "Put"
)

// DiffRow is one detected discrepancy between Ours and PROD.
// PrevSysID is nil when no prior interval exists.
type DiffRow struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Term      string `json:"term"`
	Strike    string `json:"strike"`
	Side      Side   `json:"side"`
	Column    string `json:"column"`
	Ours      Value  `json:"ours"`
	Prod      Value  `json:"prod"`
	SysID     *int64 `json:"sys_id"`
	PrevSysID *int64 `json:"prev_sys_id"`
}

// DiffReportQuery identifies one page of a diff report.
type DiffReportQuery struct {
	Date     string `json:"date"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Column   string `json:"column"`
}

// CountTable is a term → column → count table that remembers the order in
// which terms and columns arrived on the wire. Go maps do not, and the
// summary must render terms in server order.
type CountTable struct {
	terms   []string
	columns map[string][]string
	counts  map[string]map[string]int
}

// NewCountTable returns an empty table.
func NewCountTable() *CountTable {
	return &CountTable{
		columns: make(map[string][]string),
		counts:  make(map[string]map[string]int),
	}
}

// Set records count for (term, column). The first Set for a term fixes its
// position in Terms.
func (t *CountTable) Set(term, column string, count int) {
	cols, ok := t.counts[term]
	if !ok {
		cols = make(map[string]int)
		t.counts[term] = cols
		t.terms = append(t.terms, term)
	}
	if _, ok := cols[column]; !ok {
		t.columns[term] = append(t.columns[term], column)
	}
	cols[column] = count
}

// AddTerm registers a term with no columns.
func (t *CountTable) AddTerm(term string) {
	if _, ok := t.counts[term]; ok {
		return
	}
	t.counts[term] = make(map[string]int)
	t.terms = append(t.terms, term)
}

// Terms returns terms in arrival order. Safe on a nil table.
func (t *CountTable) Terms() []string {
	if t == nil {
		return nil
	}
	return t.terms
}

// Columns returns the columns of term in arrival order. Safe on a nil table.
func (t *CountTable) Columns(term string) []string {
	if t == nil {
		return nil
	}
	return t.columns[term]
}

// Has reports whether term is present. Safe on a nil table.
func (t *CountTable) Has(term string) bool {
	if t == nil {
		return false
	}
	_, ok := t.counts[term]
	return ok
}

// Get returns the count for (term, column) and whether it was reported.
// Safe on a nil table.
func (t *CountTable) Get(term, column string) (int, bool) {
	if t == nil {
		return 0, false
	}
	n, ok := t.counts[term][column]
	return n, ok
}

// DiffReport is one page of diff rows plus the report-wide aggregates.
type DiffReport struct {
	Query DiffReportQuery `json:"query"`

	Rows       []DiffRow `json:"rows"`
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages"`
	Total      int       `json:"total"`
	TotalDiffs int       `json:"total_diffs"`

	Summary       *CountTable    `json:"-"`
	NoDiffSummary *CountTable    `json:"-"`
	TotalPerTerm  map[string]int `json:"total_per_term"`
	AllColumns    []string       `json:"all_columns"`
}
