package viewer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginate_MiddlePage(t *testing.T) {
	p, err := Paginate(2, 5, 950, 200)
	require.NoError(t, err)

	assert.True(t, p.CanPrev)
	assert.True(t, p.CanNext)
	assert.Equal(t, 201, p.StartRow)
	assert.Equal(t, 400, p.EndRow)
	assert.Equal(t, NavTarget{Page: 1, Enabled: true}, p.First)
	assert.Equal(t, NavTarget{Page: 5, Enabled: true}, p.Last)
	assert.Equal(t, "page 2 / 5 (rows 201 ~ 400 / 950)", p.Label())
}

func TestPaginate_LastPageIsShort(t *testing.T) {
	p, err := Paginate(5, 5, 950, 200)
	require.NoError(t, err)
	assert.Equal(t, 801, p.StartRow)
	assert.Equal(t, 950, p.EndRow)
	assert.False(t, p.CanNext)
	assert.False(t, p.Next.Enabled)
	assert.False(t, p.Last.Enabled)
}

func TestPaginate_SinglePage(t *testing.T) {
	p, err := Paginate(1, 1, 12, 200)
	require.NoError(t, err)
	assert.False(t, p.CanPrev)
	assert.False(t, p.CanNext)
	assert.Equal(t, 1, p.StartRow)
	assert.Equal(t, 12, p.EndRow)
}

func TestPaginate_EmptyReport(t *testing.T) {
	p, err := Paginate(1, 1, 0, 200)
	require.NoError(t, err)
	assert.Equal(t, 0, p.StartRow)
	assert.Equal(t, 0, p.EndRow)
	assert.Equal(t, "page 1 / 1 (rows 0 ~ 0 / 0)", p.Label())
}

func TestPaginate_GroupsLargeNumbers(t *testing.T) {
	p, err := Paginate(62, 62, 12345, 200)
	require.NoError(t, err)
	assert.Equal(t, "page 62 / 62 (rows 12,201 ~ 12,345 / 12,345)", p.Label())
}

func TestPaginate_OutOfRange(t *testing.T) {
	cases := []struct{ page, totalPages, pageSize int }{
		{0, 3, 200},
		{4, 3, 200},
		{1, 0, 200},
		{1, 3, 0},
	}
	for _, c := range cases {
		_, err := Paginate(c.page, c.totalPages, 500, c.pageSize)
		assert.True(t, errors.Is(err, ErrPageOutOfRange), "page=%d total=%d size=%d", c.page, c.totalPages, c.pageSize)
	}
}

func TestPaginate_Properties(t *testing.T) {
	for _, pageSize := range []int{1, 7, 200} {
		for total := 1; total <= 50; total++ {
			totalPages := (total + pageSize - 1) / pageSize
			for page := 1; page <= totalPages; page++ {
				p, err := Paginate(page, totalPages, total, pageSize)
				require.NoError(t, err)
				if p.CanPrev != (page > 1) || p.CanNext != (page < totalPages) {
					t.Fatalf("nav flags wrong for page %d/%d", page, totalPages)
				}
				if p.StartRow > p.EndRow || p.EndRow > total {
					t.Fatalf("bad row range %d~%d for total %d", p.StartRow, p.EndRow, total)
				}
				if p.EndRow-p.StartRow+1 > pageSize {
					t.Fatalf("range %d~%d exceeds page size %d", p.StartRow, p.EndRow, pageSize)
				}
			}
		}
	}
}

func TestRowNumber(t *testing.T) {
	assert.Equal(t, 1, RowNumber(1, 200, 0))
	assert.Equal(t, 201, RowNumber(2, 200, 0))
	assert.Equal(t, 410, RowNumber(3, 200, 9))
}
