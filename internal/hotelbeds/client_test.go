package hotelbeds_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/hotel-lister/internal/hotelbeds"
)

const (
	testKey    = "test-key"
	testSecret = "test-secret"
)

func newTestClient(url string, retries int) *hotelbeds.Client {
	return hotelbeds.NewClient(hotelbeds.Config{
		Credentials:          hotelbeds.Credentials{Key: testKey, Secret: testSecret},
		ContentURL:           url,
		BookingURL:           url,
		Timeout:              2 * time.Second,
		MaxRetries:           retries,
		RetryInitialInterval: time.Millisecond,
	}, nil, nil)
}

// assertSigned checks the auth headers against a signature computed for any
// second in [before, now].
func assertSigned(t *testing.T, r *http.Request, before time.Time) {
	t.Helper()
	assert.Equal(t, testKey, r.Header.Get("Api-Key"))
	assert.Equal(t, "application/json", r.Header.Get("Accept"))
	assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

	got := r.Header.Get("X-Signature")
	for ts := before.Unix(); ts <= time.Now().Unix(); ts++ {
		if hotelbeds.Sign(testKey, testSecret, ts).Digest == got {
			return
		}
	}
	t.Errorf("X-Signature %q does not match any recent timestamp", got)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func contentHotel(code any, name string) map[string]any {
	return map[string]any{
		"code":        code,
		"name":        map[string]any{"content": name},
		"description": map[string]any{"content": name + " description"},
		"countryCode": "ES",
		"address":     map[string]any{"content": "Carrer 1"},
		"city":        map[string]any{"content": "BARCELONA"},
		"S2C":         "4*",
	}
}

func TestListByLocation_RequestAndParse(t *testing.T) {
	before := time.Now()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/hotels", r.URL.Path)
		assert.Equal(t, "BCN", r.URL.Query().Get("destinationCode"))
		assert.Equal(t, "21", r.URL.Query().Get("from"))
		assert.Equal(t, "30", r.URL.Query().Get("to"))
		assertSigned(t, r, before)

		writeJSON(w, map[string]any{"hotels": []any{contentHotel(1, "Alpha"), contentHotel("2", "Beta")}})
	}))
	defer srv.Close()

	hotels, err := newTestClient(srv.URL, 0).ListByLocation(context.Background(), "BCN", 21, 30)
	require.NoError(t, err)
	require.Len(t, hotels, 2)
	assert.Equal(t, hotelbeds.Metadata{
		ID:             "1",
		Name:           "Alpha",
		Description:    "Alpha description",
		CountryCode:    "ES",
		Address:        "Carrer 1",
		City:           "BARCELONA",
		StarRatingCode: "4*",
	}, hotels[0])
	assert.Equal(t, "2", hotels[1].ID)
}

func TestListByLocation_NoLocationOmitsDestination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.URL.Query()["destinationCode"]
		assert.False(t, ok)
		writeJSON(w, map[string]any{"hotels": []any{}})
	}))
	defer srv.Close()

	hotels, err := newTestClient(srv.URL, 0).ListByLocation(context.Background(), "", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, hotels)
}

func TestListByIDs_SendsCodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "HTL001,HTL002", r.URL.Query().Get("codes"))
		assert.Equal(t, "2", r.URL.Query().Get("to"))
		writeJSON(w, map[string]any{"hotels": []any{contentHotel("HTL001", "One")}})
	}))
	defer srv.Close()

	hotels, err := newTestClient(srv.URL, 0).ListByIDs(context.Background(), []string{"HTL001", "HTL002"})
	require.NoError(t, err)
	require.Len(t, hotels, 1)
	assert.Equal(t, "HTL001", hotels[0].ID)
}

func TestListHotels_MissingHotelsField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"total": 0})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 0).ListByIDs(context.Background(), []string{"1"})
	require.Error(t, err)
	assert.Equal(t, hotelbeds.KindParse, hotelbeds.AsError(err).Kind)
}

func TestFetchDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/hotels/77/details", r.URL.Path)
		writeJSON(w, map[string]any{"hotel": contentHotel(77, "Gamma")})
	}))
	defer srv.Close()

	h, err := newTestClient(srv.URL, 0).FetchDetail(context.Background(), "77")
	require.NoError(t, err)
	assert.Equal(t, "77", h.ID)
	assert.Equal(t, "Gamma", h.Name)
}

func TestFetchAvailability_BodyAndParse(t *testing.T) {
	before := time.Now()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/hotels", r.URL.Path)
		assertSigned(t, r, before)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"checkIn": "2026-10-15", "checkOut": "2026-10-18"}, body["stay"])
		assert.Equal(t, []any{map[string]any{"rooms": 1.0, "adults": 2.0, "children": 0.0}}, body["occupancies"])
		assert.Equal(t, map[string]any{"hotel": []any{1.0, "X9"}}, body["hotels"])
		filter := body["filter"].(map[string]any)
		assert.Equal(t, 0.0, filter["minRate"])
		assert.Equal(t, 1000.0, filter["maxRate"])
		assert.Equal(t, 5.0, filter["maxRooms"])

		writeJSON(w, map[string]any{"hotels": map[string]any{
			"total": 1,
			"hotels": []any{map[string]any{
				"code":            1,
				"name":            "Alpha",
				"destinationName": "Barcelona",
				"minRate":         "80.00",
				"maxRate":         120,
				"categoryName":    "4 STARS",
				"currency":        "EUR",
			}},
		}})
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL, 0).FetchAvailability(context.Background(), hotelbeds.AvailabilityRequest{
		HotelIDs:  []string{"1", "X9"},
		CheckIn:   "2026-10-15",
		CheckOut:  "2026-10-18",
		Occupancy: hotelbeds.Occupancy{Rooms: 1, Adults: 2},
		Filter: hotelbeds.Filter{
			MaxRate: 1000, MinCategory: 1, MaxCategory: 5, MaxRoomsPerHotel: 5, MaxRatesPerRoom: 5,
		},
	})
	require.NoError(t, err)
	assert.True(t, res.Present)
	require.Len(t, res.Hotels, 1)
	assert.Equal(t, hotelbeds.Availability{
		ID:              "1",
		Name:            "Alpha",
		DestinationName: "Barcelona",
		MinRate:         80,
		MaxRate:         120,
		CategoryName:    "4 STARS",
		Currency:        "EUR",
	}, res.Hotels[0])
}

func TestFetchAvailability_NoHotelsCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"auditData": map[string]any{}})
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL, 0).FetchAvailability(context.Background(), hotelbeds.AvailabilityRequest{HotelIDs: []string{"1"}})
	require.NoError(t, err)
	assert.False(t, res.Present)
	assert.Empty(t, res.Hotels)
}

func TestDo_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		writeJSON(w, map[string]any{"hotels": []any{contentHotel(1, "Alpha")}})
	}))
	defer srv.Close()

	hotels, err := newTestClient(srv.URL, 2).ListByLocation(context.Background(), "BCN", 1, 10)
	require.NoError(t, err)
	assert.Len(t, hotels, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 2).ListByLocation(context.Background(), "BCN", 1, 10)
	require.Error(t, err)
	e := hotelbeds.AsError(err)
	require.NotNil(t, e)
	assert.Equal(t, hotelbeds.KindStatus, e.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, e.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad signature", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3).FetchDetail(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, hotelbeds.KindStatus, hotelbeds.AsError(err).Kind)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_MalformedJSON(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, "{not json")
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3).ListByLocation(context.Background(), "BCN", 1, 10)
	require.Error(t, err)
	assert.Equal(t, hotelbeds.KindParse, hotelbeds.AsError(err).Kind)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url, 1).ListByLocation(context.Background(), "BCN", 1, 10)
	require.Error(t, err)
	assert.Equal(t, hotelbeds.KindTransport, hotelbeds.AsError(err).Kind)
	assert.NotContains(t, err.Error(), testSecret)
}

func TestDo_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(srv.URL, 5).ListByLocation(ctx, "BCN", 1, 10)
	require.Error(t, err)
	assert.Equal(t, hotelbeds.KindTransport, hotelbeds.AsError(err).Kind)
}
