package viewer

import (
	"errors"
	"fmt"

	"reconviewer/internal/model"
)

// DefaultPageSize is the number of diff rows per page.
const DefaultPageSize = 200

// LoadState is the lifecycle of one fetched panel.
type LoadState string

const (
	LoadIdle    LoadState = "idle"
	LoadLoading LoadState = "loading"
	LoadReady   LoadState = "ready"
	LoadFailed  LoadState = "failed"
)

// IntentKind names the fetch an Intent asks for.
type IntentKind string

const (
	IntentDates   IntentKind = "dates"
	IntentReport  IntentKind = "report"
	IntentCompare IntentKind = "compare"
	IntentTicks   IntentKind = "ticks"
)

// Intent is a fetch a transition wants performed. Its Token must be handed
// back with the result; only results carrying the latest token of their
// kind are applied.
type Intent struct {
	Kind    IntentKind
	Token   uint64
	Report  model.DiffReportQuery
	Compare model.CompareQuery
	Ticks   model.TickQuery
}

// PageState is the viewer's navigation cursor.
type PageState struct {
	Date     string `json:"date"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Column   string `json:"column"`
}

func (p PageState) query() model.DiffReportQuery {
	return model.DiffReportQuery{Date: p.Date, Page: p.Page, PageSize: p.PageSize, Column: p.Column}
}

// NumberedRow is a diff row with its position in the whole report.
type NumberedRow struct {
	Number int `json:"number"`
	model.DiffRow
}

// ReportView is the last successfully applied report page. Rows, summary
// and pagination always come from the same response.
type ReportView struct {
	Query           model.DiffReportQuery `json:"query"`
	Rows            []NumberedRow         `json:"rows"`
	Pagination      Pagination            `json:"pagination"`
	PaginationLabel string                `json:"pagination_label"`
	Summary         []SummaryBox          `json:"summary"`
	TotalDiffs      int                   `json:"total_diffs"`
	AllPassing      bool                  `json:"all_passing"`
}

// Detail is the open detail panel for one selected diff row.
type Detail struct {
	Row model.DiffRow `json:"row"`

	Compare      *CompareRecord `json:"compare,omitempty"`
	CompareState LoadState      `json:"compare_state"`
	CompareError string         `json:"compare_error,omitempty"`

	Override       ManualOverride `json:"override"`
	CurrentWindow  Window         `json:"current_window"`
	PreviousWindow Window         `json:"previous_window"`
	Current        *TickInterval  `json:"current,omitempty"`
	Previous       *TickInterval  `json:"previous,omitempty"`
	ProdID         string         `json:"prod_id,omitempty"`
	TickState      LoadState      `json:"tick_state"`
	TickError      string         `json:"tick_error,omitempty"`
}

// State is the whole viewer state. Transitions are value methods returning
// the next State plus the fetches it needs; they never perform I/O.
type State struct {
	Catalog DateCatalog   `json:"catalog"`
	Page    PageState     `json:"page"`
	Columns ColumnCatalog `json:"columns"`
	Report  *ReportView   `json:"report,omitempty"`
	Loading bool          `json:"loading"`
	Alert   string        `json:"alert,omitempty"`
	Detail  *Detail       `json:"detail,omitempty"`

	lastToken    uint64
	datesToken   uint64
	reportToken  uint64
	compareToken uint64
	ticksToken   uint64
}

// NewState returns the initial state. pageSize <= 0 selects DefaultPageSize.
func NewState(pageSize int) State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return State{
		Page:    PageState{PageSize: pageSize, Column: model.AllColumns},
		Columns: ColumnCatalog{Selected: model.AllColumns},
	}
}

func (s State) issue() (State, uint64) {
	s.lastToken++
	return s, s.lastToken
}

// ── Dates ──

// LoadDates asks for the date catalog.
func (s State) LoadDates() (State, []Intent) {
	s, tok := s.issue()
	s.datesToken = tok
	return s, []Intent{{Kind: IntentDates, Token: tok}}
}

// ApplyDates installs a catalog result. applied is false for a stale token.
func (s State) ApplyDates(token uint64, dates []string, err error) (next State, applied bool) {
	if token != s.datesToken {
		return s, false
	}
	s.datesToken = 0
	if err != nil {
		s.Catalog = catalogFailed(err)
	} else {
		s.Catalog = catalogLoaded(dates)
	}
	return s, true
}

// ── Report navigation ──

// SelectDate resets the cursor to page 1, unfiltered, and closes any open
// detail row. Only catalog dates are accepted, so nothing is selectable
// before the first catalog load completes.
func (s State) SelectDate(date string) (State, []Intent, error) {
	if date == "" {
		return s, nil, ErrNoDateSelected
	}
	if !s.Catalog.Contains(date) {
		return s, nil, fmt.Errorf("%q: %w", date, ErrUnknownDate)
	}
	s.Page.Date = date
	s.Page.Page = 1
	s.Page.Column = model.AllColumns
	s.Columns.Selected = model.AllColumns
	s = s.closeDetail()
	return s.requestReport()
}

// SelectColumn filters the report by column and returns to page 1.
func (s State) SelectColumn(column string) (State, []Intent, error) {
	if s.Page.Date == "" {
		return s, nil, ErrNoDateSelected
	}
	if !s.Columns.Offers(column) {
		return s, nil, fmt.Errorf("%q: %w", column, ErrUnknownColumn)
	}
	s.Page.Column = column
	s.Page.Page = 1
	s.Columns.Selected = column
	return s.requestReport()
}

// GoToPage moves the cursor. page must lie in [1, totalPages] of the
// displayed report.
func (s State) GoToPage(page int) (State, []Intent, error) {
	if s.Page.Date == "" || s.Report == nil {
		return s, nil, ErrNoDateSelected
	}
	if page < 1 || page > s.Report.Pagination.TotalPages {
		return s, nil, fmt.Errorf("page %d of %d: %w", page, s.Report.Pagination.TotalPages, ErrPageOutOfRange)
	}
	s.Page.Page = page
	return s.requestReport()
}

func (s State) requestReport() (State, []Intent, error) {
	s, tok := s.issue()
	s.reportToken = tok
	s.Loading = true
	return s, []Intent{{Kind: IntentReport, Token: tok, Report: s.Page.query()}}, nil
}

// ApplyReport installs a report result. A failure keeps the displayed page
// and puts the cursor back on it. A success may reset a column filter the
// server stopped offering, which issues a follow-up fetch.
func (s State) ApplyReport(token uint64, rep *model.DiffReport, err error) (next State, intents []Intent, applied bool) {
	if token != s.reportToken {
		return s, nil, false
	}
	s.reportToken = 0
	s.Loading = false

	if err == nil && rep == nil {
		err = errors.New("empty response")
	}
	if err == nil {
		var view ReportView
		view, err = buildReportView(rep, s.Page.PageSize)
		if err == nil {
			s.Alert = ""
			s.Report = &view
			s.Page = PageState{
				Date:     view.Query.Date,
				Page:     view.Pagination.Page,
				PageSize: view.Query.PageSize,
				Column:   view.Query.Column,
			}
			var changed bool
			s.Columns.Selected = s.Page.Column
			s.Columns, changed = s.Columns.Sync(rep.AllColumns)
			if changed {
				s.Page.Column = s.Columns.Selected
				s.Page.Page = 1
				s, intents, _ = s.requestReport()
			}
			return s, intents, true
		}
	}

	s.Alert = "failed to load diff report: " + err.Error()
	if s.Report != nil {
		s.Page = PageState{
			Date:     s.Report.Query.Date,
			Page:     s.Report.Pagination.Page,
			PageSize: s.Report.Query.PageSize,
			Column:   s.Report.Query.Column,
		}
		s.Columns.Selected = s.Page.Column
	}
	return s, nil, true
}

func buildReportView(rep *model.DiffReport, pageSize int) (ReportView, error) {
	q := rep.Query
	if q.PageSize <= 0 {
		q.PageSize = pageSize
	}
	if q.Column == "" {
		q.Column = model.AllColumns
	}
	pg, err := Paginate(rep.Page, rep.TotalPages, rep.Total, q.PageSize)
	if err != nil {
		return ReportView{}, fmt.Errorf("report for %s: %w", q.Date, err)
	}
	q.Page = rep.Page

	rows := make([]NumberedRow, len(rep.Rows))
	for i, r := range rep.Rows {
		rows[i] = NumberedRow{Number: RowNumber(rep.Page, q.PageSize, i), DiffRow: r}
	}
	return ReportView{
		Query:           q,
		Rows:            rows,
		Pagination:      pg,
		PaginationLabel: pg.Label(),
		Summary:         Summarize(rep.Summary, rep.NoDiffSummary, rep.TotalPerTerm, rep.AllColumns),
		TotalDiffs:      rep.TotalDiffs,
		AllPassing:      rep.TotalDiffs == 0,
	}, nil
}

// ── Detail ──

// SelectRow opens the detail panel for the index-th row of the displayed
// page. Any resolution still in flight for the previous row is invalidated.
func (s State) SelectRow(index int) (State, []Intent, error) {
	if s.Report == nil {
		return s, nil, ErrNoDateSelected
	}
	if index < 0 || index >= len(s.Report.Rows) {
		return s, nil, fmt.Errorf("row %d of %d: %w", index, len(s.Report.Rows), ErrRowOutOfRange)
	}
	row := s.Report.Rows[index].DiffRow

	s, tok := s.issue()
	s.compareToken = tok
	s.Detail = &Detail{
		Row:          row,
		CompareState: LoadLoading,
		TickState:    LoadIdle,
	}
	intents := []Intent{{
		Kind:    IntentCompare,
		Token:   tok,
		Compare: CompareQueryFor(row),
	}}

	s, tickIntents, err := s.requestTicks(ManualOverride{})
	if err != nil {
		// The row itself has no usable bounds; the compare table still loads.
		d := *s.Detail
		d.TickState = LoadFailed
		d.TickError = err.Error()
		s.Detail = &d
		s.ticksToken = 0
		return s, intents, nil
	}
	return s, append(intents, tickIntents...), nil
}

// OverrideTicks re-queries the tick windows with manual bounds. Invalid
// bounds are rejected before any fetch and leave the state untouched.
func (s State) OverrideTicks(o ManualOverride) (State, []Intent, error) {
	if s.Detail == nil {
		return s, nil, ErrNoRowSelected
	}
	return s.requestTicks(o)
}

// ResetTicks restores the row's default windows using the same resolution
// as opening the row.
func (s State) ResetTicks() (State, []Intent, error) {
	return s.OverrideTicks(ManualOverride{})
}

func (s State) requestTicks(o ManualOverride) (State, []Intent, error) {
	cur, prev, err := ResolveWindows(s.Detail.Row, o)
	if err != nil {
		return s, nil, err
	}
	s, tok := s.issue()
	s.ticksToken = tok

	d := *s.Detail
	d.Override = o
	d.CurrentWindow = cur
	d.PreviousWindow = prev
	d.Current = nil
	d.Previous = nil
	d.ProdID = ""
	d.TickState = LoadLoading
	d.TickError = ""
	s.Detail = &d

	return s, []Intent{{Kind: IntentTicks, Token: tok, Ticks: TickQueryFor(d.Row, o)}}, nil
}

// CloseDetail closes the detail panel and drops its pending resolutions.
func (s State) CloseDetail() State {
	return s.closeDetail()
}

func (s State) closeDetail() State {
	s.Detail = nil
	s.compareToken = 0
	s.ticksToken = 0
	return s
}

// ApplyCompare installs a comparison result for the open row.
func (s State) ApplyCompare(token uint64, res *model.CompareResult, err error) (next State, applied bool) {
	if s.Detail == nil || token != s.compareToken {
		return s, false
	}
	s.compareToken = 0
	d := *s.Detail
	if err != nil {
		d.Compare = nil
		d.CompareState = LoadFailed
		d.CompareError = err.Error()
	} else {
		rec := BuildCompareRecord(res, d.Row.Column)
		d.Compare = &rec
		d.CompareState = LoadReady
		d.CompareError = ""
	}
	s.Detail = &d
	return s, true
}

// ApplyTicks installs both tick intervals, or clears both on failure.
func (s State) ApplyTicks(token uint64, res *model.TickResult, err error) (next State, applied bool) {
	if s.Detail == nil || token != s.ticksToken {
		return s, false
	}
	s.ticksToken = 0
	d := *s.Detail
	if err != nil {
		d.Current = nil
		d.Previous = nil
		d.ProdID = ""
		d.TickState = LoadFailed
		d.TickError = err.Error()
	} else {
		cur := NewTickInterval(d.CurrentWindow, res.Current)
		prev := NewTickInterval(d.PreviousWindow, res.Previous)
		d.Current = &cur
		d.Previous = &prev
		d.ProdID = res.ProdID
		d.TickState = LoadReady
		d.TickError = ""
	}
	s.Detail = &d
	return s, true
}

// Pending reports whether a fetch of the given kind is outstanding.
func (s State) Pending(kind IntentKind) bool {
	switch kind {
	case IntentDates:
		return s.datesToken != 0
	case IntentReport:
		return s.reportToken != 0
	case IntentCompare:
		return s.compareToken != 0
	case IntentTicks:
		return s.ticksToken != 0
	}
	return false
}
