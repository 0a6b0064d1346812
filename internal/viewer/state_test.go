package viewer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reconviewer/internal/model"
)

func sampleReport(q model.DiffReportQuery, columns ...string) *model.DiffReport {
	summary := model.NewCountTable()
	summary.Set("Week1", "Gamma", 3)
	rows := []model.DiffRow{
		rowWithIDs(i64(500), i64(300)),
		rowWithIDs(i64(900), i64(500)),
	}
	return &model.DiffReport{
		Query:        q,
		Rows:         rows,
		Page:         q.Page,
		TotalPages:   3,
		Total:        450,
		TotalDiffs:   3,
		Summary:      summary,
		TotalPerTerm: map[string]int{"Week1": 150},
		AllColumns:   columns,
	}
}

// openDate drives a fresh state to a loaded first page of 20240105.
func openDate(t *testing.T) State {
	t.Helper()
	s := NewState(200)
	s, intents := s.LoadDates()
	s, ok := s.ApplyDates(intents[0].Token, []string{"20240105", "20240108"}, nil)
	require.True(t, ok)

	s, intents, err := s.SelectDate("20240105")
	require.NoError(t, err)
	require.Len(t, intents, 1)

	s, follow, ok := s.ApplyReport(intents[0].Token, sampleReport(intents[0].Report, "EMA", "Gamma"), nil)
	require.True(t, ok)
	require.Empty(t, follow)
	return s
}

func TestState_DatesFailureDisablesCatalog(t *testing.T) {
	s, intents := NewState(0).LoadDates()
	s, ok := s.ApplyDates(intents[0].Token, nil, errors.New("connection refused"))
	require.True(t, ok)
	assert.True(t, s.Catalog.Disabled)
	assert.Equal(t, "connection refused", s.Catalog.Error)
	assert.Empty(t, s.Catalog.Dates)
	assert.Equal(t, DefaultPageSize, s.Page.PageSize)
}

func TestState_SelectDateResetsCursor(t *testing.T) {
	s := openDate(t)
	s, intents, err := s.SelectColumn("Gamma")
	require.NoError(t, err)
	s, _, ok := s.ApplyReport(intents[0].Token, sampleReport(intents[0].Report, "EMA", "Gamma"), nil)
	require.True(t, ok)

	s, intents, err = s.SelectDate("20240108")
	require.NoError(t, err)
	assert.Equal(t, model.DiffReportQuery{Date: "20240108", Page: 1, PageSize: 200, Column: model.AllColumns}, intents[0].Report)
	assert.True(t, s.Loading)
}

func TestState_SelectDateBeforeCatalogLoads(t *testing.T) {
	s, _ := NewState(200).LoadDates()
	_, intents, err := s.SelectDate("20240105")
	assert.ErrorIs(t, err, ErrUnknownDate)
	assert.Empty(t, intents)
}

func TestState_SelectDateRejectsUnknown(t *testing.T) {
	s := openDate(t)
	_, intents, err := s.SelectDate("19990101")
	assert.ErrorIs(t, err, ErrUnknownDate)
	assert.Empty(t, intents)
}

func TestState_ApplyReportBuildsView(t *testing.T) {
	s := openDate(t)
	require.NotNil(t, s.Report)

	assert.Equal(t, []string{"EMA", "Gamma"}, s.Columns.Options)
	assert.Equal(t, 1, s.Columns.Renders)
	assert.Equal(t, "page 1 / 3 (rows 1 ~ 200 / 450)", s.Report.PaginationLabel)
	assert.Equal(t, 1, s.Report.Rows[0].Number)
	assert.False(t, s.Report.AllPassing)
	require.Len(t, s.Report.Summary, 1)
	assert.Equal(t, 147, s.Report.Summary[0].Entries[1].MatchCount)
	assert.False(t, s.Loading)
}

func TestState_StaleReportDiscarded(t *testing.T) {
	s := openDate(t)

	s, first, err := s.GoToPage(2)
	require.NoError(t, err)
	s, second, err := s.GoToPage(3)
	require.NoError(t, err)

	// The page-3 response arrives first and is applied.
	s, _, ok := s.ApplyReport(second[0].Token, sampleReport(second[0].Report, "EMA", "Gamma"), nil)
	require.True(t, ok)
	assert.Equal(t, 3, s.Page.Page)

	// The late page-2 response is dropped without touching state.
	before := s
	s, _, ok = s.ApplyReport(first[0].Token, sampleReport(first[0].Report, "EMA", "Gamma"), nil)
	assert.False(t, ok)
	assert.Equal(t, before.Page, s.Page)
	assert.Equal(t, 3, s.Report.Pagination.Page)
}

func TestState_ReportFailureKeepsDisplayedPage(t *testing.T) {
	s := openDate(t)
	s, intents, err := s.GoToPage(2)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Page.Page)

	s, _, ok := s.ApplyReport(intents[0].Token, nil, errors.New("timeout"))
	require.True(t, ok)
	assert.Equal(t, 1, s.Page.Page, "cursor returns to the displayed page")
	assert.Equal(t, 1, s.Report.Pagination.Page)
	assert.Contains(t, s.Alert, "timeout")
	assert.False(t, s.Loading)
}

func TestState_GoToPageOutOfRange(t *testing.T) {
	s := openDate(t)
	_, _, err := s.GoToPage(4)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
	_, _, err = s.GoToPage(0)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
}

func TestState_SelectColumnRequiresOffer(t *testing.T) {
	s := openDate(t)
	_, _, err := s.SelectColumn("c.bid")
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, _, err = NewState(0).SelectColumn("EMA")
	assert.ErrorIs(t, err, ErrNoDateSelected)
}

func TestState_VanishedColumnResetsAndRefetches(t *testing.T) {
	s := openDate(t)
	s, intents, err := s.SelectColumn("Gamma")
	require.NoError(t, err)

	s, follow, ok := s.ApplyReport(intents[0].Token, sampleReport(intents[0].Report, "EMA"), nil)
	require.True(t, ok)
	require.Len(t, follow, 1)
	assert.Equal(t, model.AllColumns, s.Columns.Selected)
	assert.Equal(t, model.AllColumns, follow[0].Report.Column)
	assert.Equal(t, 1, follow[0].Report.Page)
	assert.True(t, s.Loading)
}

func TestState_SameColumnCountDoesNotRerender(t *testing.T) {
	s := openDate(t)
	s, intents, err := s.SelectDate("20240108")
	require.NoError(t, err)
	s, _, ok := s.ApplyReport(intents[0].Token, sampleReport(intents[0].Report, "c.bid", "c.ask"), nil)
	require.True(t, ok)

	assert.Equal(t, 1, s.Columns.Renders)
	assert.Equal(t, []string{"EMA", "Gamma"}, s.Columns.Options)
}

func TestState_SelectRowIssuesCompareAndTicks(t *testing.T) {
	s := openDate(t)
	s, intents, err := s.SelectRow(0)
	require.NoError(t, err)
	require.Len(t, intents, 2)
	assert.Equal(t, IntentCompare, intents[0].Kind)
	assert.Equal(t, IntentTicks, intents[1].Kind)
	assert.Equal(t, "(300,500]", s.Detail.CurrentWindow.String())
	assert.Equal(t, LoadLoading, s.Detail.TickState)
	assert.True(t, s.Pending(IntentCompare))
	assert.True(t, s.Pending(IntentTicks))
}

func TestState_SelectRowWithoutBounds(t *testing.T) {
	s := openDate(t)
	s.Report.Rows[1].SysID = nil
	s.Report.Rows[1].PrevSysID = nil

	s, intents, err := s.SelectRow(1)
	require.NoError(t, err)
	require.Len(t, intents, 1)
	assert.Equal(t, IntentCompare, intents[0].Kind)
	assert.Equal(t, LoadFailed, s.Detail.TickState)
	assert.False(t, s.Pending(IntentTicks))
}

func TestState_SwitchingRowsDropsOldResults(t *testing.T) {
	s := openDate(t)
	s, rowA, err := s.SelectRow(0)
	require.NoError(t, err)
	s, rowB, err := s.SelectRow(1)
	require.NoError(t, err)

	_, ok := s.ApplyTicks(rowA[1].Token, &model.TickResult{ProdID: "A"}, nil)
	assert.False(t, ok)
	_, ok = s.ApplyCompare(rowA[0].Token, &model.CompareResult{}, nil)
	assert.False(t, ok)

	s, ok = s.ApplyTicks(rowB[1].Token, &model.TickResult{ProdID: "B"}, nil)
	require.True(t, ok)
	assert.Equal(t, "B", s.Detail.ProdID)
	assert.Equal(t, "(500,900]", s.Detail.Current.Label)
}

func TestState_OverrideTicks(t *testing.T) {
	s := openDate(t)
	s, _, err := s.SelectRow(0)
	require.NoError(t, err)

	s, intents, err := s.OverrideTicks(ManualOverride{CurrEnd: i64(480)})
	require.NoError(t, err)
	assert.Equal(t, "(300,480]", s.Detail.CurrentWindow.String())
	assert.Equal(t, int64(480), *intents[0].Ticks.CurrEnd)

	before := s
	after, intents, err := s.OverrideTicks(ManualOverride{CurrStart: i64(600)})
	assert.ErrorIs(t, err, ErrInvalidWindow)
	assert.Empty(t, intents)
	assert.Equal(t, before.Detail, after.Detail)

	s, _, err = s.ResetTicks()
	require.NoError(t, err)
	assert.Equal(t, "(300,500]", s.Detail.CurrentWindow.String())
	assert.True(t, s.Detail.Override.IsZero())
}

func TestState_TickFailureClearsBothIntervals(t *testing.T) {
	s := openDate(t)
	s, intents, err := s.SelectRow(0)
	require.NoError(t, err)
	s, ok := s.ApplyTicks(intents[1].Token, &model.TickResult{}, nil)
	require.True(t, ok)
	require.NotNil(t, s.Detail.Current)

	s, intents, err = s.OverrideTicks(ManualOverride{PrevStart: i64(100)})
	require.NoError(t, err)
	s, ok = s.ApplyTicks(intents[0].Token, nil, errors.New("prod id not found"))
	require.True(t, ok)
	assert.Nil(t, s.Detail.Current)
	assert.Nil(t, s.Detail.Previous)
	assert.Equal(t, "prod id not found", s.Detail.TickError)
}

func TestState_OverrideWithoutRow(t *testing.T) {
	_, _, err := openDate(t).OverrideTicks(ManualOverride{})
	assert.ErrorIs(t, err, ErrNoRowSelected)
}

func TestState_CloseDetailDropsPending(t *testing.T) {
	s := openDate(t)
	s, intents, err := s.SelectRow(0)
	require.NoError(t, err)
	s = s.CloseDetail()

	_, ok := s.ApplyCompare(intents[0].Token, &model.CompareResult{}, nil)
	assert.False(t, ok)
	assert.False(t, s.Pending(IntentTicks))
}

func TestState_SelectDateClosesDetail(t *testing.T) {
	s := openDate(t)
	s, _, err := s.SelectRow(0)
	require.NoError(t, err)
	s, _, err = s.SelectDate("20240108")
	require.NoError(t, err)
	assert.Nil(t, s.Detail)
}
