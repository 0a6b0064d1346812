package viewer

import "reconviewer/internal/model"

// SummaryEntry is the pass/fail aggregate of one column within one term.
type SummaryEntry struct {
	Column     string `json:"column"`
	DiffCount  int    `json:"diff_count"`
	MatchCount int    `json:"match_count"`
	Status     bool   `json:"status"`
}

// SummaryBox groups the entries of one term.
type SummaryBox struct {
	Term      string         `json:"term"`
	TotalRows int            `json:"total_rows"`
	Entries   []SummaryEntry `json:"entries"`
}

// Summarize builds the per-term summary boxes.
//
// Terms are the union of diffCounts and noDiffCounts terms, diff terms first,
// each in wire order. A term reported by neither table is not rendered, even
// if totalsPerTerm knows it. Columns follow allColumns exactly.
//
// When a column has diffs, its match count is totalsPerTerm[term] minus the
// diff count. When it has none, the backend may omit the match count, so the
// no-diff count is used if reported and non-zero, else the term total.
func Summarize(diffCounts, noDiffCounts *model.CountTable, totalsPerTerm map[string]int, allColumns []string) []SummaryBox {
	terms := make([]string, 0, len(diffCounts.Terms())+len(noDiffCounts.Terms()))
	seen := make(map[string]bool)
	for _, t := range diffCounts.Terms() {
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}
	for _, t := range noDiffCounts.Terms() {
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}

	boxes := make([]SummaryBox, 0, len(terms))
	for _, term := range terms {
		total := totalsPerTerm[term]
		box := SummaryBox{
			Term:      term,
			TotalRows: total,
			Entries:   make([]SummaryEntry, 0, len(allColumns)),
		}
		for _, col := range allColumns {
			diff, _ := diffCounts.Get(term, col)
			if diff < 0 {
				diff = 0
			}
			var match int
			if diff > 0 {
				match = total - diff
			} else if n, ok := noDiffCounts.Get(term, col); ok && n != 0 {
				match = n
			} else {
				match = total
			}
			if match < 0 {
				match = 0
			}
			box.Entries = append(box.Entries, SummaryEntry{
				Column:     col,
				DiffCount:  diff,
				MatchCount: match,
				Status:     diff == 0,
			})
		}
		boxes = append(boxes, box)
	}
	return boxes
}
