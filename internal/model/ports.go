package model

import "context"

// ── Port Interfaces ──
// These decouple the viewer core from the concrete HTTP client and from the
// optional response caches (Redis, SQLite).

// Backend is the report service the viewer reads from. All calls are
// idempotent reads.
//
//go:generate mockgen -destination=mocks/mock_ports.go -package=mocks -source=ports.go Backend
type Backend interface {
	// ListDates returns the available report dates.
	ListDates(ctx context.Context) ([]string, error)

	// FetchDiffReport returns one page of a date's diff report.
	FetchDiffReport(ctx context.Context, q DiffReportQuery) (*DiffReport, error)

	// FetchCompare returns the Ours/PROD record pair for one row key.
	FetchCompare(ctx context.Context, q CompareQuery) (*CompareResult, error)

	// FetchTicks returns the current and previous tick intervals.
	FetchTicks(ctx context.Context, q TickQuery) (*TickResult, error)
}

// ResponseCache stores raw response bodies of idempotent reads.
type ResponseCache interface {
	// Get returns the cached body for key. ok is false on a miss.
	Get(ctx context.Context, key string) (body []byte, ok bool, err error)

	// Put stores body under key.
	Put(ctx context.Context, key string, body []byte) error

	// Close releases underlying resources.
	Close() error
}
