package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const diffBody = `{
  "date": "20240105",
  "total_diffs": 3,
  "summary": {"Week1": {"EMA": 0, "Gamma": 3}},
  "no_diff_summary": {},
  "total_per_term": {"Week1": 12345},
  "all_columns": ["EMA", "Gamma"],
  "rows": [
    {"Date": "20240105", "Time": "93000000000", "Term": "Week1", "Strike": 18000,
     "CP": "Call", "Column": "Gamma", "Ours": 0.12, "PROD": null,
     "SysID": 500, "Prev_SysID": 300}
  ],
  "page": 2, "per_page": 200, "total": 450, "total_pages": 3
}`

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	return newBackendWith(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ours": {"Date": "20240105", "Gamma": 0.12, "EMA": 1.5},
			"prod": {"Date": "20240105", "Gamma": 0.13, "EMA": 1.5}, "diffs": ["Gamma"]}`))
	})
}

// newBackendWith serves the report endpoints with prodRow answering
// /api/prod_row.
func newBackendWith(t *testing.T, prodRow http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dates", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"dates": ["20240105", "20240108"]}`))
	})
	mux.HandleFunc("/api/diff/20240105", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(diffBody))
	})
	mux.HandleFunc("/api/prod_row", prodRow)
	mux.HandleFunc("/api/ticks", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prod_id": "P-7",
			"current_interval": {"ticks": [
				{"time": "93000120000", "bid": 10.5, "ask": 10.6, "seqno": 420}], "count": 1},
			"prev_interval": {"ticks": [], "count": 0}}`))
	})
	mux.HandleFunc("/api/diff/19990101", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "no report for 19990101"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDatesCommand(t *testing.T) {
	srv := newBackend(t)

	out, err := run(t, "dates", "--api-base", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "20240105\n20240108\n", out)
}

func TestReportCommand(t *testing.T) {
	srv := newBackend(t)

	out, err := run(t, "report", "20240105", "--api-base", srv.URL, "--page", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "total diffs: 3  [FAIL]")
	assert.Contains(t, out, "Week1 (12,345 rows)")
	// Row numbers continue across pages.
	assert.Contains(t, out, "201 ")
	assert.Contains(t, out, "Null")
	assert.Contains(t, out, "page 2 / 3 (rows 201 ~ 400 / 450)")
}

func TestReportCommandBackendError(t *testing.T) {
	srv := newBackend(t)

	_, err := run(t, "report", "19990101", "--api-base", srv.URL, "--cache", "none")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no report for 19990101")
}

func TestInspectCommand(t *testing.T) {
	srv := newBackend(t)

	out, err := run(t, "inspect", "20240105", "0", "--api-base", srv.URL, "--page", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "prod_id: P-7")
	assert.Contains(t, out, "(300,500]  1 ticks")
	assert.Contains(t, out, "(?,300]  0 ticks")
	assert.Contains(t, out, "9:30:00.120")

	var gammaLine string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "Gamma") {
			gammaLine = line
		}
	}
	assert.Contains(t, gammaLine, "<< target")
}

func TestInspectComparisonErrorKeepsTicks(t *testing.T) {
	srv := newBackendWith(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "prod row not found"}`))
	})

	out, err := run(t, "inspect", "20240105", "0", "--api-base", srv.URL, "--page", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "comparison failed: prod row not found")
	assert.NotContains(t, out, "<< target")
	assert.Contains(t, out, "prod_id: P-7")
	assert.Contains(t, out, "(300,500]  1 ticks")
	assert.Contains(t, out, "(?,300]  0 ticks")
}

func TestInspectRejectsInvalidOverride(t *testing.T) {
	srv := newBackend(t)

	_, err := run(t, "inspect", "20240105", "0", "--api-base", srv.URL, "--page", "2",
		"--curr-start", "600", "--curr-end", "480")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start must be below")
}

func TestInspectRowOutOfRange(t *testing.T) {
	srv := newBackend(t)

	_, err := run(t, "inspect", "20240105", "5", "--api-base", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row index not on current page")
}

func TestInvalidConfigRejected(t *testing.T) {
	_, err := run(t, "dates", "--api-base", "http://localhost:1", "--cache", "memcached")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown cache_backend")
}
