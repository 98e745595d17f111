package hotelbeds

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultContentURL = "https://api.test.hotelbeds.com/hotel-content-api/1.0"
	DefaultBookingURL = "https://api.test.hotelbeds.com/hotel-api/1.0"

	defaultTimeout         = 10 * time.Second
	defaultInitialInterval = 200 * time.Millisecond
)

// Operation names, used in errors, logs and metrics.
const (
	OpListByLocation    = "list_by_location"
	OpListByIDs         = "list_by_ids"
	OpFetchDetail       = "fetch_detail"
	OpFetchAvailability = "fetch_availability"
)

// Config configures a Client.
type Config struct {
	Credentials Credentials
	ContentURL  string
	BookingURL  string

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after the first one.
	MaxRetries           int
	RetryInitialInterval time.Duration
}

// Observer receives per-call measurements. *obs.Metrics satisfies it.
type Observer interface {
	ObserveUpstream(op string, d time.Duration, err error)
	IncUpstreamRetry(op string)
}

type noopObserver struct{}

func (noopObserver) ObserveUpstream(string, time.Duration, error) {}
func (noopObserver) IncUpstreamRetry(string)                      {}

// Client talks to the Hotelbeds content and booking APIs.
type Client struct {
	creds           Credentials
	contentURL      string
	bookingURL      string
	client          *http.Client
	maxRetries      uint64
	initialInterval time.Duration
	obs             Observer
	log             *slog.Logger
	now             func() time.Time
}

// NewClient constructs a Client. A nil observer disables metrics.
func NewClient(cfg Config, obs Observer, log *slog.Logger) *Client {
	if cfg.ContentURL == "" {
		cfg.ContentURL = DefaultContentURL
	}
	if cfg.BookingURL == "" {
		cfg.BookingURL = DefaultBookingURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RetryInitialInterval <= 0 {
		cfg.RetryInitialInterval = defaultInitialInterval
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if obs == nil {
		obs = noopObserver{}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		creds:           cfg.Credentials,
		contentURL:      strings.TrimRight(cfg.ContentURL, "/"),
		bookingURL:      strings.TrimRight(cfg.BookingURL, "/"),
		client:          &http.Client{Timeout: cfg.Timeout},
		maxRetries:      uint64(cfg.MaxRetries),
		initialInterval: cfg.RetryInitialInterval,
		obs:             obs,
		log:             log,
		now:             time.Now,
	}
}

// ListByLocation returns the hotels of a destination in the inclusive 1-based
// window [from, to]. An empty locationCode lists without a destination filter.
func (c *Client) ListByLocation(ctx context.Context, locationCode string, from, to int) ([]Metadata, error) {
	q := url.Values{}
	if locationCode != "" {
		q.Set("destinationCode", locationCode)
	}
	q.Set("from", strconv.Itoa(from))
	q.Set("to", strconv.Itoa(to))

	return c.listHotels(ctx, OpListByLocation, q)
}

// ListByIDs returns the content records for the given hotel codes.
func (c *Client) ListByIDs(ctx context.Context, ids []string) ([]Metadata, error) {
	q := url.Values{}
	q.Set("codes", strings.Join(ids, ","))
	q.Set("from", "1")
	q.Set("to", strconv.Itoa(max(len(ids), 1)))

	return c.listHotels(ctx, OpListByIDs, q)
}

func (c *Client) listHotels(ctx context.Context, op string, q url.Values) ([]Metadata, error) {
	var raw hotelsResponse
	if err := c.do(ctx, op, http.MethodGet, c.contentURL+"/hotels?"+q.Encode(), nil, &raw); err != nil {
		return nil, err
	}
	if raw.Hotels == nil {
		return nil, &Error{Op: op, Kind: KindParse, Err: fmt.Errorf("response has no hotels field")}
	}

	out := make([]Metadata, 0, len(*raw.Hotels))
	for _, h := range *raw.Hotels {
		m, err := h.toMetadata()
		if err != nil {
			return nil, &Error{Op: op, Kind: KindParse, Err: err}
		}
		out = append(out, m)
	}
	return out, nil
}

// FetchDetail returns the content record of a single hotel.
func (c *Client) FetchDetail(ctx context.Context, id string) (*Metadata, error) {
	endpoint := c.contentURL + "/hotels/" + url.PathEscape(id) + "/details"

	var raw detailResponse
	if err := c.do(ctx, OpFetchDetail, http.MethodGet, endpoint, nil, &raw); err != nil {
		return nil, err
	}
	if raw.Hotel == nil {
		return nil, &Error{Op: OpFetchDetail, Kind: KindParse, Err: fmt.Errorf("response has no hotel field")}
	}

	m, err := raw.Hotel.toMetadata()
	if err != nil {
		return nil, &Error{Op: OpFetchDetail, Kind: KindParse, Err: err}
	}
	return &m, nil
}

// FetchAvailability posts an availability query for the given hotels.
func (c *Client) FetchAvailability(ctx context.Context, req AvailabilityRequest) (*AvailabilityResult, error) {
	var raw availabilityResponse
	if err := c.do(ctx, OpFetchAvailability, http.MethodPost, c.bookingURL+"/hotels", newAvailabilityBody(req), &raw); err != nil {
		return nil, err
	}

	res := &AvailabilityResult{}
	if raw.Hotels == nil {
		return res, nil
	}
	res.Present = true
	res.Hotels = make([]Availability, 0, len(raw.Hotels.Hotels))
	for _, h := range raw.Hotels.Hotels {
		if h.Code == nil || *h.Code == "" {
			return nil, &Error{Op: OpFetchAvailability, Kind: KindParse, Err: fmt.Errorf("availability entry without code")}
		}
		res.Hotels = append(res.Hotels, Availability{
			ID:              string(*h.Code),
			Name:            h.Name,
			DestinationName: h.DestinationName,
			MinRate:         float64(h.MinRate),
			MaxRate:         float64(h.MaxRate),
			CategoryName:    h.CategoryName,
			Currency:        h.Currency,
		})
	}
	return res, nil
}

// do runs one logical call with retries. Each attempt is signed afresh.
func (c *Client) do(ctx context.Context, op, method, rawURL string, body, dst any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Kind: KindParse, Err: fmt.Errorf("encoding request body: %w", err)}
		}
		payload = b
	}

	start := time.Now()
	attempt := 0
	operation := func() error {
		attempt++
		if attempt > 1 {
			c.obs.IncUpstreamRetry(op)
		}
		if e := c.attempt(ctx, op, method, rawURL, payload, dst); e != nil {
			if !e.retryable() {
				return backoff.Permanent(e)
			}
			c.log.Warn("hotelbeds attempt failed", "op", op, "attempt", attempt, "err", e)
			return e
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialInterval
	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, c.maxRetries), ctx))
	if err != nil && AsError(err) == nil {
		// Context cancellation between attempts surfaces as the bare ctx error.
		err = &Error{Op: op, Kind: KindTransport, Err: err}
	}
	c.obs.ObserveUpstream(op, time.Since(start), err)
	return err
}

func (c *Client) attempt(ctx context.Context, op, method, rawURL string, payload []byte, dst any) *Error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return &Error{Op: op, Kind: KindTransport, Err: fmt.Errorf("creating request: %w", err)}
	}

	sig := c.creds.Sign(c.now())
	req.Header.Set("Api-Key", c.creds.Key)
	req.Header.Set("X-Signature", sig.Digest)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{Op: op, Kind: KindTransport, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return &Error{Op: op, Kind: KindStatus, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &Error{Op: op, Kind: KindParse, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
