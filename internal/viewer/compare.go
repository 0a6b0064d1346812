package viewer

import (
	"sort"
	"strings"

	"reconviewer/internal/model"
)

// canonicalFields lead every comparison table, in this order.
var canonicalFields = []string{
	"date", "time", "strike",
	"c.bid", "c.ask", "p.bid", "p.ask",
	"c.ema", "p.ema",
	"c.gamma", "p.gamma",
}

var canonicalRank = func() map[string]int {
	m := make(map[string]int, len(canonicalFields))
	for i, f := range canonicalFields {
		m[f] = i
	}
	return m
}()

// FieldStyle is the highlight applied to a comparison row.
type FieldStyle string

const (
	StyleNone   FieldStyle = ""
	StyleDiff   FieldStyle = "diff"
	StyleTarget FieldStyle = "target"
)

// CompareField is one row of the side-by-side table.
type CompareField struct {
	Name  string      `json:"name"`
	Ours  model.Value `json:"ours"`
	Prod  model.Value `json:"prod"`
	Diff  bool        `json:"diff"`
	Style FieldStyle  `json:"style"`
}

// CompareRecord is the merged Ours/PROD snapshot for one row key.
// DiffFields is always a subset of the union of both sides' keys.
type CompareRecord struct {
	Fields     []CompareField `json:"fields"`
	DiffFields []string       `json:"diff_fields"`
}

// OrderFields sorts field names for display: canonical fields first in
// their fixed order, the rest lexically. The result depends only on the key
// set, never on input order.
func OrderFields(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iok := canonicalRank[out[i]]
		rj, jok := canonicalRank[out[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		case jok:
			return false
		default:
			return out[i] < out[j]
		}
	})
	return out
}

// IsTargetField reports whether field is the one the originating diff row
// points at. The generic labels EMA and Gamma match both sides' fields.
func IsTargetField(column, field string) bool {
	if column == field {
		return true
	}
	switch column {
	case "EMA":
		return strings.HasSuffix(field, ".ema")
	case "Gamma":
		return strings.HasSuffix(field, ".gamma")
	}
	return false
}

// CompareQueryFor is the /api/prod_row key of row.
func CompareQueryFor(row model.DiffRow) model.CompareQuery {
	return model.CompareQuery{
		Date:   row.Date,
		Term:   row.Term,
		Strike: row.Strike,
		Time:   row.Time,
	}
}

// BuildCompareRecord merges a prod_row payload into display order. The
// server's diff list is trusted as-is, except that names present on neither
// side are dropped.
func BuildCompareRecord(res *model.CompareResult, column string) CompareRecord {
	keys := make([]string, 0, len(res.Ours)+len(res.Prod))
	seen := make(map[string]bool, len(res.Ours)+len(res.Prod))
	for k := range res.Ours {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for k := range res.Prod {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	diffs := make(map[string]bool, len(res.Diffs))
	for _, d := range res.Diffs {
		if seen[d] {
			diffs[d] = true
		}
	}

	rec := CompareRecord{
		Fields:     make([]CompareField, 0, len(keys)),
		DiffFields: []string{},
	}
	for _, name := range OrderFields(keys) {
		f := CompareField{
			Name: name,
			Ours: res.Ours[name],
			Prod: res.Prod[name],
			Diff: diffs[name],
		}
		switch {
		case IsTargetField(column, name):
			f.Style = StyleTarget
		case f.Diff:
			f.Style = StyleDiff
		}
		if f.Diff {
			rec.DiffFields = append(rec.DiffFields, name)
		}
		rec.Fields = append(rec.Fields, f)
	}
	return rec
}
