package model

// Tick is one raw quote update.
type Tick struct {
	Time        string  `json:"time"`
	TimeDisplay string  `json:"time_display"`
	Bid         float64 `json:"bid"`
	Ask         float64 `json:"ask"`
	SeqNo       int64   `json:"seqno"`
}

// TickQuery asks for the evidence windows around one diff row. The four
// window bounds are optional manual overrides; nil means "use the default".
type TickQuery struct {
	Date      string
	Term      string
	Strike    string
	Side      Side
	SysID     *int64
	PrevSysID *int64

	CurrStart *int64
	CurrEnd   *int64
	PrevStart *int64
	PrevEnd   *int64
}

// TickSeries is one interval as returned by the backend, ordered by SeqNo.
type TickSeries struct {
	Ticks []Tick `json:"ticks"`
	Count int    `json:"count"`
}

// TickResult is the /api/ticks payload.
type TickResult struct {
	ProdID   string     `json:"prod_id"`
	Current  TickSeries `json:"current_interval"`
	Previous TickSeries `json:"prev_interval"`
}
