package viewer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"reconviewer/internal/logger"
	"reconviewer/internal/model"
)

// ErrSessionClosed is returned by actions dispatched after Run has exited.
var ErrSessionClosed = errors.New("viewer session closed")

// Observer receives session events for metrics. Implementations must be
// safe for use from the session loop goroutine.
type Observer interface {
	Action(name string)
	StaleResult(kind string)
}

type nopObserver struct{}

func (nopObserver) Action(string)      {}
func (nopObserver) StaleResult(string) {}

// View is an immutable published snapshot of the session state.
type View struct {
	Seq uint64 `json:"seq"`
	State
}

type action struct {
	name  string
	apply func(State) (State, []Intent, error)
	reply chan error
}

type result struct {
	intent  Intent
	dates   []string
	report  *model.DiffReport
	compare *model.CompareResult
	ticks   *model.TickResult
	err     error
	took    time.Duration
}

// Session drives one viewer. A single loop goroutine (Run) owns the State:
// actions and fetch results are funnelled into it over channels, fetches run
// on their own goroutines, and a result is applied only if its token is
// still the latest of its kind. Superseded responses are simply dropped;
// in-flight requests are never aborted.
type Session struct {
	backend model.Backend
	log     *slog.Logger
	obs     Observer

	actions chan action
	results chan result
	done    chan struct{}
	running atomic.Bool

	state   State // owned by Run
	seq     uint64
	current atomic.Pointer[View]

	subMu sync.Mutex
	subs  map[chan *View]struct{}

	fetches sync.WaitGroup
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.obs = o }
}

// WithPageSize sets the diff-table page size.
func WithPageSize(n int) Option {
	return func(s *Session) { s.state = NewState(n) }
}

// NewSession creates a session reading from backend. Call Run to start it.
func NewSession(backend model.Backend, opts ...Option) *Session {
	s := &Session{
		backend: backend,
		log:     slog.Default(),
		obs:     nopObserver{},
		actions: make(chan action),
		results: make(chan result, 16),
		done:    make(chan struct{}),
		state:   NewState(DefaultPageSize),
		subs:    make(map[chan *View]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(&View{State: s.state})
	return s
}

// Run loads the date catalog and processes actions and results until ctx is
// cancelled. It waits for outstanding fetch goroutines before returning.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("viewer session already running")
	}
	defer func() {
		close(s.done)
		s.fetches.Wait()
	}()

	next, intents := s.state.LoadDates()
	s.commit(next)
	s.launch(ctx, intents)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case a := <-s.actions:
			s.obs.Action(a.name)
			next, intents, err := a.apply(s.state)
			if err != nil {
				a.reply <- err
				continue
			}
			s.commit(next)
			s.launch(ctx, intents)
			a.reply <- nil

		case r := <-s.results:
			s.applyResult(ctx, r)
		}
	}
}

func (s *Session) applyResult(ctx context.Context, r result) {
	var (
		next    State
		intents []Intent
		applied bool
	)
	switch r.intent.Kind {
	case IntentDates:
		next, applied = s.state.ApplyDates(r.intent.Token, r.dates, r.err)
	case IntentReport:
		next, intents, applied = s.state.ApplyReport(r.intent.Token, r.report, r.err)
	case IntentCompare:
		next, applied = s.state.ApplyCompare(r.intent.Token, r.compare, r.err)
	case IntentTicks:
		next, applied = s.state.ApplyTicks(r.intent.Token, r.ticks, r.err)
	}

	traceID := logger.GenerateTraceID(string(r.intent.Kind), r.intent.Token)
	if !applied {
		s.obs.StaleResult(string(r.intent.Kind))
		s.log.Debug("[session] discarding superseded result",
			slog.String("trace_id", traceID), slog.Duration("took", r.took))
		return
	}
	if r.err != nil {
		s.log.Warn("[session] fetch failed",
			slog.String("trace_id", traceID), slog.String("error", r.err.Error()))
	}
	s.commit(next)
	s.launch(ctx, intents)
}

// commit installs next as the loop state and publishes a snapshot.
func (s *Session) commit(next State) {
	s.state = next
	s.seq++
	v := &View{Seq: s.seq, State: next}
	s.current.Store(v)

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		// Latest wins: replace an unread snapshot rather than block.
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

func (s *Session) launch(ctx context.Context, intents []Intent) {
	for _, in := range intents {
		s.fetches.Add(1)
		go s.fetch(ctx, in)
	}
}

func (s *Session) fetch(ctx context.Context, in Intent) {
	defer s.fetches.Done()

	fctx := logger.WithTraceID(ctx, logger.GenerateTraceID(string(in.Kind), in.Token))
	r := result{intent: in}
	start := time.Now()
	switch in.Kind {
	case IntentDates:
		r.dates, r.err = s.backend.ListDates(fctx)
	case IntentReport:
		r.report, r.err = s.backend.FetchDiffReport(fctx, in.Report)
		if r.err == nil && r.report != nil && r.report.Query.Date == "" {
			r.report.Query = in.Report
		}
	case IntentCompare:
		r.compare, r.err = s.backend.FetchCompare(fctx, in.Compare)
	case IntentTicks:
		r.ticks, r.err = s.backend.FetchTicks(fctx, in.Ticks)
	}
	r.took = time.Since(start)

	select {
	case s.results <- r:
	case <-ctx.Done():
	}
}

// Snapshot returns the latest published view.
func (s *Session) Snapshot() *View {
	return s.current.Load()
}

// Subscribe returns a channel receiving every new snapshot. A slow reader
// only ever sees the most recent one. Call cancel to unsubscribe.
func (s *Session) Subscribe() (<-chan *View, func()) {
	ch := make(chan *View, 1)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, ch)
			s.subMu.Unlock()
		})
	}
}

func (s *Session) dispatch(ctx context.Context, name string, fn func(State) (State, []Intent, error)) error {
	a := action{name: name, apply: fn, reply: make(chan error, 1)}
	select {
	case s.actions <- a:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-a.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReloadDates fetches the date catalog again.
func (s *Session) ReloadDates(ctx context.Context) error {
	return s.dispatch(ctx, "reload_dates", func(st State) (State, []Intent, error) {
		next, intents := st.LoadDates()
		return next, intents, nil
	})
}

// SelectDate opens a report date at page 1, unfiltered.
func (s *Session) SelectDate(ctx context.Context, date string) error {
	return s.dispatch(ctx, "select_date", func(st State) (State, []Intent, error) {
		return st.SelectDate(date)
	})
}

// SelectColumn applies a column filter.
func (s *Session) SelectColumn(ctx context.Context, column string) error {
	return s.dispatch(ctx, "select_column", func(st State) (State, []Intent, error) {
		return st.SelectColumn(column)
	})
}

// GoToPage navigates the diff table.
func (s *Session) GoToPage(ctx context.Context, page int) error {
	return s.dispatch(ctx, "go_to_page", func(st State) (State, []Intent, error) {
		return st.GoToPage(page)
	})
}

// SelectRow opens the detail panel for a row of the current page.
func (s *Session) SelectRow(ctx context.Context, index int) error {
	return s.dispatch(ctx, "select_row", func(st State) (State, []Intent, error) {
		return st.SelectRow(index)
	})
}

// OverrideTicks re-queries the tick windows with manual bounds.
func (s *Session) OverrideTicks(ctx context.Context, o ManualOverride) error {
	return s.dispatch(ctx, "override_ticks", func(st State) (State, []Intent, error) {
		return st.OverrideTicks(o)
	})
}

// ResetTicks restores the default tick windows of the open row.
func (s *Session) ResetTicks(ctx context.Context) error {
	return s.dispatch(ctx, "reset_ticks", func(st State) (State, []Intent, error) {
		return st.ResetTicks()
	})
}

// CloseDetail closes the detail panel.
func (s *Session) CloseDetail(ctx context.Context) error {
	return s.dispatch(ctx, "close_detail", func(st State) (State, []Intent, error) {
		return st.CloseDetail(), nil, nil
	})
}
