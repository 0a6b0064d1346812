package reportapi

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"reconviewer/internal/model"
)

// Payloads are decoded with gjson rather than encoding/json: the summary
// objects must keep their wire key order, fields can be present-but-null,
// and numeric cells must be kept verbatim.

func parse(endpoint string, body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%s: invalid JSON response", endpoint)
	}
	root := gjson.ParseBytes(body)
	if e := root.Get("error"); e.Exists() {
		return root, &model.BackendError{Endpoint: endpoint, Status: 200, Message: e.String()}
	}
	return root, nil
}

func decodeDates(body []byte) ([]string, error) {
	root, err := parse(endpointDates, body)
	if err != nil {
		return nil, err
	}
	dates := []string{}
	for _, d := range root.Get("dates").Array() {
		dates = append(dates, d.String())
	}
	return dates, nil
}

func decodeDiffReport(body []byte, q model.DiffReportQuery) (*model.DiffReport, error) {
	root, err := parse(endpointDiff, body)
	if err != nil {
		return nil, err
	}

	rep := &model.DiffReport{
		Query:         q,
		Page:          int(root.Get("page").Int()),
		TotalPages:    int(root.Get("total_pages").Int()),
		Total:         int(root.Get("total").Int()),
		TotalDiffs:    int(root.Get("total_diffs").Int()),
		Summary:       decodeCountTable(root.Get("summary")),
		NoDiffSummary: decodeCountTable(root.Get("no_diff_summary")),
		TotalPerTerm:  make(map[string]int),
	}
	if pp := root.Get("per_page"); pp.Exists() {
		rep.Query.PageSize = int(pp.Int())
	}
	if d := root.Get("date"); d.Exists() {
		rep.Query.Date = d.String()
	}
	rep.Query.Page = rep.Page

	root.Get("total_per_term").ForEach(func(k, v gjson.Result) bool {
		rep.TotalPerTerm[k.String()] = int(v.Int())
		return true
	})

	if cols := root.Get("all_columns"); cols.IsArray() {
		rep.AllColumns = []string{}
		for _, c := range cols.Array() {
			rep.AllColumns = append(rep.AllColumns, c.String())
		}
	} else {
		rep.AllColumns = columnsOf(rep.Summary, rep.NoDiffSummary)
	}

	rows := root.Get("rows").Array()
	rep.Rows = make([]model.DiffRow, 0, len(rows))
	for _, r := range rows {
		rep.Rows = append(rep.Rows, decodeRow(r))
	}
	return rep, nil
}

func decodeCountTable(obj gjson.Result) *model.CountTable {
	t := model.NewCountTable()
	obj.ForEach(func(term, cols gjson.Result) bool {
		t.AddTerm(term.String())
		cols.ForEach(func(col, n gjson.Result) bool {
			t.Set(term.String(), col.String(), int(n.Int()))
			return true
		})
		return true
	})
	return t
}

// columnsOf unions the columns of both tables in arrival order. Used only
// when a backend omits all_columns.
func columnsOf(tables ...*model.CountTable) []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range tables {
		for _, term := range t.Terms() {
			var cols []string
			for _, c := range t.Columns(term) {
				if !seen[c] {
					seen[c] = true
					cols = append(cols, c)
				}
			}
			out = append(out, cols...)
		}
	}
	return out
}

func decodeRow(r gjson.Result) model.DiffRow {
	return model.DiffRow{
		Date:      text(r.Get("Date")),
		Time:      text(r.Get("Time")),
		Term:      text(r.Get("Term")),
		Strike:    text(r.Get("Strike")),
		Side:      model.Side(text(r.Get("CP"))),
		Column:    text(r.Get("Column")),
		Ours:      value(r.Get("Ours")),
		Prod:      value(r.Get("PROD")),
		SysID:     optInt(r.Get("SysID")),
		PrevSysID: prevSysID(r.Get("Prev_SysID")),
	}
}

// prevSysID reads Prev_SysID. The pipeline writes 0 for a row with no prior
// interval, so 0 is absent rather than a bound.
func prevSysID(r gjson.Result) *int64 {
	id := optInt(r)
	if id == nil || *id == 0 {
		return nil
	}
	return id
}

func decodeCompare(body []byte) (*model.CompareResult, error) {
	root, err := parse(endpointCompare, body)
	if err != nil {
		return nil, err
	}
	res := &model.CompareResult{
		Ours:  decodeRecord(root.Get("ours")),
		Prod:  decodeRecord(root.Get("prod")),
		Diffs: []string{},
	}
	for _, d := range root.Get("diffs").Array() {
		res.Diffs = append(res.Diffs, d.String())
	}
	return res, nil
}

func decodeRecord(obj gjson.Result) map[string]model.Value {
	m := make(map[string]model.Value)
	obj.ForEach(func(k, v gjson.Result) bool {
		m[k.String()] = value(v)
		return true
	})
	return m
}

func decodeTicks(body []byte) (*model.TickResult, error) {
	root, err := parse(endpointTicks, body)
	if err != nil {
		return nil, err
	}
	return &model.TickResult{
		ProdID:   root.Get("prod_id").String(),
		Current:  decodeSeries(root.Get("current_interval")),
		Previous: decodeSeries(root.Get("prev_interval")),
	}, nil
}

func decodeSeries(obj gjson.Result) model.TickSeries {
	raw := obj.Get("ticks").Array()
	s := model.TickSeries{Ticks: make([]model.Tick, 0, len(raw))}
	for _, t := range raw {
		s.Ticks = append(s.Ticks, model.Tick{
			Time:        text(t.Get("time")),
			TimeDisplay: t.Get("time_display").String(),
			Bid:         t.Get("bid").Float(),
			Ask:         t.Get("ask").Float(),
			SeqNo:       t.Get("seqno").Int(),
		})
	}
	sort.SliceStable(s.Ticks, func(i, j int) bool { return s.Ticks[i].SeqNo < s.Ticks[j].SeqNo })
	// The list is authoritative over the backend's count field.
	s.Count = len(s.Ticks)
	return s
}

// text returns strings unquoted and every other JSON value verbatim.
func text(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Null:
		return ""
	default:
		return r.Raw
	}
}

func value(r gjson.Result) model.Value {
	switch {
	case !r.Exists():
		return model.Absent()
	case r.Type == gjson.Null:
		return model.Null()
	default:
		return model.Scalar(text(r))
	}
}

// optInt reads a sequence ID that may be missing, null, blank, or a float
// rendering such as 500.0.
func optInt(r gjson.Result) *int64 {
	var s string
	switch r.Type {
	case gjson.Number:
		s = r.Raw
	case gjson.String:
		s = strings.TrimSpace(r.Str)
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return nil
	}
	n := int64(f)
	return &n
}
