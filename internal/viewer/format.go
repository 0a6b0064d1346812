package viewer

import "github.com/dustin/go-humanize"

// GroupInt renders n with thousands separators, e.g. 12345 → "12,345".
func GroupInt(n int) string {
	return humanize.Comma(int64(n))
}

// RowNumber is the 1-based position of the i-th row of a page within the
// whole report.
func RowNumber(page, pageSize, i int) int {
	return (page-1)*pageSize + i + 1
}
