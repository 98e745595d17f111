package hotel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/hotel-lister/internal/hotelbeds"
)

// View flows, used as the metrics label.
const (
	FlowSearch     = "search"
	FlowBookmarked = "bookmarked"
	FlowList       = "list"
)

const defaultDetailConcurrency = 4

// Upstream is the interface satisfied by *hotelbeds.Client.
type Upstream interface {
	ListByLocation(ctx context.Context, locationCode string, from, to int) ([]hotelbeds.Metadata, error)
	ListByIDs(ctx context.Context, ids []string) ([]hotelbeds.Metadata, error)
	FetchDetail(ctx context.Context, id string) (*hotelbeds.Metadata, error)
	FetchAvailability(ctx context.Context, req hotelbeds.AvailabilityRequest) (*hotelbeds.AvailabilityResult, error)
}

// BookmarkStore is the read side of the bookmark repository.
type BookmarkStore interface {
	ListHotelIDs(ctx context.Context, userID int64) ([]string, error)
	// AddedAt returns nil, nil when the user has no bookmark for hotelCode.
	AddedAt(ctx context.Context, userID int64, hotelCode string) (*time.Time, error)
}

// bookmarkLister is an optional BookmarkStore extension that returns ids and
// dates in one read.
type bookmarkLister interface {
	ListBookmarks(ctx context.Context, userID int64) ([]Bookmark, error)
}

// ViewCounter counts emitted views per flow. *obs.Metrics satisfies it.
type ViewCounter interface {
	AddViews(flow string, n int)
}

type noopCounter struct{}

func (noopCounter) AddViews(string, int) {}

// Aggregator runs the two-phase list-then-price flows against the upstream.
type Aggregator struct {
	upstream          Upstream
	store             BookmarkStore
	views             ViewCounter
	log               *slog.Logger
	now               func() time.Time
	detailConcurrency int
}

// NewAggregator constructs an Aggregator. A nil counter disables metrics.
func NewAggregator(upstream Upstream, store BookmarkStore, views ViewCounter, log *slog.Logger) *Aggregator {
	return NewAggregatorWithClock(upstream, store, views, log, time.Now)
}

// NewAggregatorWithClock constructs an Aggregator with an injectable clock (used in tests).
func NewAggregatorWithClock(upstream Upstream, store BookmarkStore, views ViewCounter, log *slog.Logger, now func() time.Time) *Aggregator {
	if views == nil {
		views = noopCounter{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Aggregator{
		upstream:          upstream,
		store:             store,
		views:             views,
		log:               log,
		now:               now,
		detailConcurrency: defaultDetailConcurrency,
	}
}

// Search lists the hotels of one location window and prices them.
func (a *Aggregator) Search(ctx context.Context, q SearchQuery) ([]View, error) {
	location := strings.TrimSpace(q.LocationCode)
	if location == "" {
		return nil, invalidInput("location_code is required")
	}
	if err := checkPage("next_page", q.Page); err != nil {
		return nil, err
	}

	from, to := Window(q.Page)
	meta, err := a.upstream.ListByLocation(ctx, location, from, to)
	if err != nil {
		return nil, upstreamFailure("hotel content service unavailable", err)
	}
	if len(meta) == 0 {
		return nil, notFound(fmt.Sprintf("no hotels found for location %s", location))
	}

	views, err := a.price(ctx, meta, q.Options)
	if err != nil {
		return nil, err
	}

	a.views.AddViews(FlowSearch, len(views))
	a.log.InfoContext(ctx, "hotel search", "location", location, "from", from, "to", to, "views", len(views))
	return views, nil
}

// Bookmarked prices the hotels the user has bookmarked and attaches the
// bookmark timestamps.
func (a *Aggregator) Bookmarked(ctx context.Context, userID int64, opts Options) ([]BookmarkView, error) {
	ids, dates, err := a.bookmarks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, notFound("no bookmarks found")
	}

	meta, err := a.upstream.ListByIDs(ctx, ids)
	if err != nil {
		return nil, upstreamFailure("hotel content service unavailable", err)
	}
	if len(meta) == 0 {
		return nil, notFound("no hotels found for bookmarked ids")
	}

	views, err := a.price(ctx, meta, opts)
	if err != nil {
		return nil, err
	}

	out := make([]BookmarkView, 0, len(views))
	for _, v := range views {
		var addedAt *time.Time
		if dates != nil {
			if t, ok := dates[v.HotelID]; ok {
				addedAt = &t
			}
		} else if addedAt, err = a.store.AddedAt(ctx, userID, v.HotelID); err != nil {
			return nil, fmt.Errorf("looking up bookmark date for %s: %w", v.HotelID, err)
		}
		out = append(out, BookmarkView{View: v, AddedAt: addedAt})
	}

	a.views.AddViews(FlowBookmarked, len(out))
	a.log.InfoContext(ctx, "bookmarked hotels", "user_id", userID, "bookmarks", len(ids), "views", len(out))
	return out, nil
}

// bookmarks returns the user's bookmarked ids. When the store implements
// bookmarkLister the dates come from the same read; otherwise dates is nil
// and each date is looked up with AddedAt.
func (a *Aggregator) bookmarks(ctx context.Context, userID int64) ([]string, map[string]time.Time, error) {
	lister, ok := a.store.(bookmarkLister)
	if !ok {
		ids, err := a.store.ListHotelIDs(ctx, userID)
		if err != nil {
			return nil, nil, fmt.Errorf("listing bookmarked hotel ids: %w", err)
		}
		return ids, nil, nil
	}

	list, err := lister.ListBookmarks(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing bookmarks: %w", err)
	}
	ids := make([]string, 0, len(list))
	dates := make(map[string]time.Time, len(list))
	for _, b := range list {
		ids = append(ids, b.HotelCode)
		dates[b.HotelCode] = b.AddedAt
	}
	return ids, dates, nil
}

// List returns one window of hotel content with no location filter.
func (a *Aggregator) List(ctx context.Context, page int) ([]hotelbeds.Metadata, error) {
	if err := checkPage("page", page); err != nil {
		return nil, err
	}

	from, to := Window(page)
	meta, err := a.upstream.ListByLocation(ctx, "", from, to)
	if err != nil {
		return nil, upstreamFailure("hotel content service unavailable", err)
	}
	if len(meta) == 0 {
		return nil, notFound("no hotels found")
	}

	a.views.AddViews(FlowList, len(meta))
	return meta, nil
}

// Details fetches the content record of every id concurrently. The result
// keeps the order of ids. Any failure fails the whole call.
func (a *Aggregator) Details(ctx context.Context, ids []string) ([]hotelbeds.Metadata, error) {
	if len(ids) == 0 {
		return nil, invalidInput("hotel_id is required")
	}

	out := make([]hotelbeds.Metadata, len(ids))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.detailConcurrency)

	for i, id := range ids {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					a.log.Error("hotel detail fetch panicked", "hotel_id", id, "recover", r)
					err = fmt.Errorf("detail fetch for %s panicked: %v", id, r)
				}
			}()
			m, fetchErr := a.upstream.FetchDetail(gCtx, id)
			if fetchErr != nil {
				return fmt.Errorf("fetching detail for %s: %w", id, fetchErr)
			}
			out[i] = *m
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if he := hotelbeds.AsError(err); he != nil && he.StatusCode == http.StatusNotFound {
			return nil, &Error{Kind: ErrNotFound, Message: "hotel not found", Err: err}
		}
		return nil, upstreamFailure("hotel content service unavailable", err)
	}
	return out, nil
}

// price runs the availability phase for the listed hotels and joins the result.
func (a *Aggregator) price(ctx context.Context, meta []hotelbeds.Metadata, opts Options) ([]View, error) {
	req := opts.resolve(a.now())
	req.HotelIDs = make([]string, 0, len(meta))
	for _, m := range meta {
		req.HotelIDs = append(req.HotelIDs, m.ID)
	}

	res, err := a.upstream.FetchAvailability(ctx, req)
	if err != nil {
		return nil, upstreamFailure("hotel booking service unavailable", err)
	}
	if res == nil || !res.Present || len(res.Hotels) == 0 {
		return nil, notFound("no hotels available")
	}

	views := Join(meta, res.Hotels)
	if len(views) == 0 {
		return nil, notFound("no hotels available")
	}
	return views, nil
}

