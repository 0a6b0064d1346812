package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"reconviewer/internal/viewer"
)

// ErrUnknownAction is returned for an action type the gateway does not know.
var ErrUnknownAction = errors.New("unknown action")

// ErrMissingRow is returned by select_row without a row index.
var ErrMissingRow = errors.New("row index is required")

// ViewSession is the part of *viewer.Session the gateway drives.
type ViewSession interface {
	Snapshot() *viewer.View
	Subscribe() (<-chan *viewer.View, func())

	ReloadDates(ctx context.Context) error
	SelectDate(ctx context.Context, date string) error
	SelectColumn(ctx context.Context, column string) error
	GoToPage(ctx context.Context, page int) error
	SelectRow(ctx context.Context, index int) error
	OverrideTicks(ctx context.Context, o viewer.ManualOverride) error
	ResetTicks(ctx context.Context) error
	CloseDetail(ctx context.Context) error
}

var _ ViewSession = (*viewer.Session)(nil)

// Apply runs one action against s. It returns once the session loop has
// accepted or rejected the action; fetches it triggers complete later.
func Apply(ctx context.Context, s ViewSession, msg ActionMsg) error {
	switch msg.Type {
	case ActionReloadDates:
		return s.ReloadDates(ctx)
	case ActionSelectDate:
		return s.SelectDate(ctx, msg.Date)
	case ActionSelectColumn:
		return s.SelectColumn(ctx, msg.Column)
	case ActionGoToPage:
		return s.GoToPage(ctx, msg.Page)
	case ActionSelectRow:
		if msg.Row == nil {
			return ErrMissingRow
		}
		return s.SelectRow(ctx, *msg.Row)
	case ActionOverrideTicks:
		return s.OverrideTicks(ctx, msg.Override)
	case ActionResetTicks:
		return s.ResetTicks(ctx)
	case ActionCloseDetail:
		return s.CloseDetail(ctx)
	default:
		return fmt.Errorf("%w %q", ErrUnknownAction, msg.Type)
	}
}

// statusFor maps an action error to an HTTP status. Anything that is not a
// session shutdown or cancellation is a caller input error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, viewer.ErrSessionClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}
