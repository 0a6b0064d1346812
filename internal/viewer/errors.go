package viewer

import "errors"

var (
	// ErrPageOutOfRange is returned when a caller asks for a page outside
	// [1, totalPages]. Pages are never clamped silently.
	ErrPageOutOfRange = errors.New("page out of range")

	// ErrNoDateSelected is returned for navigation before a date is chosen.
	ErrNoDateSelected = errors.New("no report date selected")

	// ErrUnknownDate is returned when a date is not in the catalog.
	ErrUnknownDate = errors.New("date not in catalog")

	// ErrUnknownColumn is returned for a column filter the server never offered.
	ErrUnknownColumn = errors.New("column not offered for this date")

	// ErrNoRowSelected is returned for tick re-queries with no open detail row.
	ErrNoRowSelected = errors.New("no diff row selected")

	// ErrRowOutOfRange is returned when a row index is not on the current page.
	ErrRowOutOfRange = errors.New("row index not on current page")

	// ErrNoIntervalEnd is returned when neither the current nor the previous
	// interval has a resolvable end bound.
	ErrNoIntervalEnd = errors.New("no interval end bound: need sys_id, prev_sys_id, curr_end or prev_end")

	// ErrInvalidWindow is returned when a window's start is not below its end.
	ErrInvalidWindow = errors.New("interval start must be below its end")
)
