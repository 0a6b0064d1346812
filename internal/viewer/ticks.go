package viewer

import (
	"fmt"
	"sort"
	"strconv"

	"reconviewer/internal/model"
)

// Window is a sequence-number range (Start, End]. A nil bound is unknown.
type Window struct {
	Start *int64 `json:"start"`
	End   *int64 `json:"end"`
}

// String renders the window as "(300,500]" with "?" for unknown bounds.
func (w Window) String() string {
	return "(" + boundString(w.Start) + "," + boundString(w.End) + "]"
}

func boundString(b *int64) string {
	if b == nil {
		return "?"
	}
	return strconv.FormatInt(*b, 10)
}

// ManualOverride holds operator-entered window bounds. A nil field keeps
// the default derived from the row.
type ManualOverride struct {
	CurrStart *int64 `json:"curr_start,omitempty"`
	CurrEnd   *int64 `json:"curr_end,omitempty"`
	PrevStart *int64 `json:"prev_start,omitempty"`
	PrevEnd   *int64 `json:"prev_end,omitempty"`
}

// IsZero reports whether no bound is overridden.
func (o ManualOverride) IsZero() bool {
	return o.CurrStart == nil && o.CurrEnd == nil && o.PrevStart == nil && o.PrevEnd == nil
}

// ResolveWindows derives the current and previous evidence windows for row.
// Defaults: current (PrevSysID, SysID], previous (?, PrevSysID]. Each
// override bound replaces its default for this call only. The call is
// rejected before any fetch when neither window has an end bound, or when
// a window's start is not below its end.
func ResolveWindows(row model.DiffRow, o ManualOverride) (current, previous Window, err error) {
	current = Window{Start: row.PrevSysID, End: row.SysID}
	previous = Window{End: row.PrevSysID}

	if o.CurrStart != nil {
		current.Start = o.CurrStart
	}
	if o.CurrEnd != nil {
		current.End = o.CurrEnd
	}
	if o.PrevStart != nil {
		previous.Start = o.PrevStart
	}
	if o.PrevEnd != nil {
		previous.End = o.PrevEnd
	}

	if current.End == nil && previous.End == nil {
		return Window{}, Window{}, ErrNoIntervalEnd
	}
	for _, w := range []struct {
		name string
		w    Window
	}{{"current", current}, {"previous", previous}} {
		if w.w.Start != nil && w.w.End != nil && *w.w.Start >= *w.w.End {
			return Window{}, Window{}, fmt.Errorf("%s window %s: %w", w.name, w.w, ErrInvalidWindow)
		}
	}
	return current, previous, nil
}

// TickQueryFor builds the backend query for row. Only overridden bounds are
// sent; the backend derives the rest from sys_id and prev_sys_id.
func TickQueryFor(row model.DiffRow, o ManualOverride) model.TickQuery {
	return model.TickQuery{
		Date:      row.Date,
		Term:      row.Term,
		Strike:    row.Strike,
		Side:      row.Side,
		SysID:     row.SysID,
		PrevSysID: row.PrevSysID,
		CurrStart: o.CurrStart,
		CurrEnd:   o.CurrEnd,
		PrevStart: o.PrevStart,
		PrevEnd:   o.PrevEnd,
	}
}

// TickInterval is one resolved evidence window and its ticks, ordered by
// ascending sequence number. Ticks is empty, never nil.
type TickInterval struct {
	Window Window       `json:"window"`
	Label  string       `json:"label"`
	Ticks  []model.Tick `json:"ticks"`
	Count  int          `json:"count"`
}

// NewTickInterval copies s into an interval bounded by w.
func NewTickInterval(w Window, s model.TickSeries) TickInterval {
	ticks := make([]model.Tick, len(s.Ticks))
	copy(ticks, s.Ticks)
	sort.SliceStable(ticks, func(i, j int) bool { return ticks[i].SeqNo < ticks[j].SeqNo })
	for i := range ticks {
		if ticks[i].TimeDisplay == "" {
			ticks[i].TimeDisplay = FormatTickTime(ticks[i].Time)
		}
	}
	return TickInterval{
		Window: w,
		Label:  w.String(),
		Ticks:  ticks,
		Count:  len(ticks),
	}
}

// FormatTickTime turns a raw exchange timestamp into H:MM:SS.mmm.
// 11 digits are HMMSSmmm000, 12 or more are HHMMSSmmm000; anything shorter
// is returned unchanged.
func FormatTickTime(raw string) string {
	switch {
	case len(raw) == 11:
		return raw[0:1] + ":" + raw[1:3] + ":" + raw[3:5] + "." + raw[5:8]
	case len(raw) >= 12:
		return raw[0:2] + ":" + raw[2:4] + ":" + raw[4:6] + "." + raw[6:9]
	}
	return raw
}
