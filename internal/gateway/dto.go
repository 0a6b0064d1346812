package gateway

import "reconviewer/internal/viewer"

// Action types accepted over WebSocket. The REST routes map onto the same set.
const (
	ActionReloadDates   = "reload_dates"
	ActionSelectDate    = "select_date"
	ActionSelectColumn  = "select_column"
	ActionGoToPage      = "go_to_page"
	ActionSelectRow     = "select_row"
	ActionOverrideTicks = "override_ticks"
	ActionResetTicks    = "reset_ticks"
	ActionCloseDetail   = "close_detail"
)

// ActionMsg is a user action sent by the browser shell.
//
//	{"type":"select_date","date":"20240501","req_id":"a1"}
//	{"type":"select_row","row":3}
//	{"type":"override_ticks","override":{"curr_end":480}}
type ActionMsg struct {
	Type     string                `json:"type"`
	ReqID    string                `json:"req_id,omitempty"`
	Date     string                `json:"date,omitempty"`
	Column   string                `json:"column,omitempty"`
	Page     int                   `json:"page,omitempty"`
	Row      *int                  `json:"row,omitempty"`
	Override viewer.ManualOverride `json:"override"`
	Ping     int64                 `json:"ping,omitempty"`
}

// AckResponse confirms an applied WebSocket action.
type AckResponse struct {
	Type  string `json:"type"`
	ReqID string `json:"req_id,omitempty"`
	Seq   uint64 `json:"seq"`
}

// ErrorResponse reports a rejected action.
type ErrorResponse struct {
	Type  string `json:"type"`
	ReqID string `json:"req_id,omitempty"`
	Error string `json:"error"`
}

// PongResponse answers a keepalive ping.
type PongResponse struct {
	Type     string `json:"type"`
	Ping     int64  `json:"ping"`
	ServerTS int64  `json:"server_ts"`
}

// Request bodies for the REST action routes.
type (
	dateRequest struct {
		Date string `json:"date"`
	}
	columnRequest struct {
		Column string `json:"column"`
	}
	pageRequest struct {
		Page int `json:"page"`
	}
	rowRequest struct {
		Index *int `json:"index"`
	}
)

// LatencyOut is the per-endpoint backend latency reported by /health.
type LatencyOut struct {
	P50 float64 `json:"p50_ms"`
	P95 float64 `json:"p95_ms"`
	P99 float64 `json:"p99_ms"`
}
