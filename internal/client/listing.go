package client

import (
	"context"
	"log/slog"
	"sync"

	"cvhub/internal/events"
	"cvhub/internal/push"
)

// CVLister is the slice of Client the listing needs; tests substitute a
// fake.
type CVLister interface {
	ListCVs(ctx context.Context, q ListQuery) (*CVPage, error)
	MyCV(ctx context.Context) (*CVRecord, error)
}

// Listing is the paginated, filterable candidate table state. Page changes
// clamp to [1, totalPages], page-size changes reset to page 1, and push
// events re-issue the query with the exact parameters last used.
type Listing struct {
	api    CVLister
	logger *slog.Logger

	mu         sync.Mutex
	query      ListQuery
	data       []CVRecord
	total      int64
	totalPages int
	myCV       *CVRecord
	refreshMy  bool
}

// DefaultPageSize matches the table's initial limit.
const DefaultPageSize = 10

// NewListing builds a listing starting at page 1. pageSize <= 0 falls back
// to DefaultPageSize. refreshMyCV additionally re-fetches the current
// candidate's own CV on push events, mirroring the candidate dashboard.
func NewListing(api CVLister, pageSize int, refreshMyCV bool, logger *slog.Logger) *Listing {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Listing{
		api:       api,
		logger:    logger,
		query:     ListQuery{Page: 1, Limit: pageSize},
		refreshMy: refreshMyCV,
	}
}

// Query returns the parameters of the last issued (or next) fetch.
func (l *Listing) Query() ListQuery {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.query
}

// Data returns the rows of the most recent fetch.
func (l *Listing) Data() []CVRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]CVRecord(nil), l.data...)
}

// Total returns the total record count reported by the API.
func (l *Listing) Total() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// TotalPages returns the page count reported by the API.
func (l *Listing) TotalPages() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalPages
}

// MyCV returns the candidate's own CV from the most recent refresh, when
// tracked.
func (l *Listing) MyCV() *CVRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.myCV
}

// Refresh issues the listing query with the current parameters and stores
// the result.
func (l *Listing) Refresh(ctx context.Context) error {
	l.mu.Lock()
	q := l.query
	l.mu.Unlock()

	page, err := l.api.ListCVs(ctx, q)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.data = page.Data
	l.total = page.Total
	l.totalPages = page.TotalPages
	l.mu.Unlock()
	return nil
}

// SetPage clamps the requested page to [1, totalPages] (using the count
// from the last fetch) and refreshes.
func (l *Listing) SetPage(ctx context.Context, page int) error {
	l.mu.Lock()
	if page < 1 {
		page = 1
	}
	if l.totalPages > 0 && page > l.totalPages {
		page = l.totalPages
	}
	l.query.Page = page
	l.mu.Unlock()
	return l.Refresh(ctx)
}

// SetPageSize changes the page size, resets to page 1 and refreshes.
func (l *Listing) SetPageSize(ctx context.Context, size int) error {
	if size <= 0 {
		size = DefaultPageSize
	}
	l.mu.Lock()
	l.query.Limit = size
	l.query.Page = 1
	l.mu.Unlock()
	return l.Refresh(ctx)
}

// SetSearch changes the free-text filter and refreshes with the page left
// as-is.
func (l *Listing) SetSearch(ctx context.Context, search string) error {
	l.mu.Lock()
	l.query.Search = search
	l.mu.Unlock()
	return l.Refresh(ctx)
}

// Bind subscribes the listing to the cvCreated and cvUpdated push events.
// Each event triggers exactly one re-fetch with the same parameters last
// used (bursts are not coalesced). The returned teardown cancels both
// subscriptions; call it when the view unmounts.
func (l *Listing) Bind(conn *push.Conn) func() {
	refetch := func() {
		ctx := context.Background()
		if err := l.Refresh(ctx); err != nil {
			l.logger.Warn("listing refresh after push event failed", slog.Any("error", err))
		}
		if !l.refreshMy {
			return
		}
		record, err := l.api.MyCV(ctx)
		if err != nil {
			l.logger.Warn("my-cv refresh after push event failed", slog.Any("error", err))
			return
		}
		l.mu.Lock()
		l.myCV = record
		l.mu.Unlock()
	}

	cancelCreated := conn.Subscribe(events.CVCreated, refetch)
	cancelUpdated := conn.Subscribe(events.CVUpdated, refetch)
	return func() {
		cancelCreated()
		cancelUpdated()
	}
}
