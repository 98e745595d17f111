package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/neexbeast/hotel-lister/internal/auth"
	"github.com/neexbeast/hotel-lister/internal/hotel"
)

const maxBodyBytes = 1 << 20

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	hotels    HotelService
	accounts  AccountService
	bookmarks BookmarkRepo
	log       *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(hotels HotelService, accounts AccountService, bookmarks BookmarkRepo, log *slog.Logger) *Handlers {
	return &Handlers{
		hotels:    hotels,
		accounts:  accounts,
		bookmarks: bookmarks,
		log:       log,
	}
}

// decodeBody reads a JSON request body into dst. It writes the 400 itself
// and reports false when the body is unusable.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// ---- accounts ----

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// Signup handles POST /api/v1/accounts/signup.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var in auth.SignupInput
	if !decodeBody(w, r, &in) {
		return
	}

	user, err := h.accounts.Signup(r.Context(), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/v1/accounts/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if !decodeBody(w, r, &in) {
		return
	}

	pair, err := h.accounts.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// Refresh handles POST /api/v1/accounts/refresh.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if !decodeBody(w, r, &in) {
		return
	}

	pair, err := h.accounts.Refresh(r.Context(), in.Refresh)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// Logout handles POST /api/v1/accounts/logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if !decodeBody(w, r, &in) {
		return
	}

	if err := h.accounts.Logout(r.Context(), requestUser(r), in.Refresh); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "You have been logged out successfully")
}

// ---- hotels ----

// ListHotels handles GET /api/v1/hotels.
func (h *Handlers) ListHotels(w http.ResponseWriter, r *http.Request) {
	p := queryParser{q: r.URL.Query()}
	page := p.page("page")
	if p.err != nil {
		writeErrorMessage(w, http.StatusBadRequest, p.err.Error())
		return
	}

	hotels, err := h.hotels.List(r.Context(), page)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, hotels)
}

// HotelDetails handles GET /api/v1/hotels/details.
func (h *Handlers) HotelDetails(w http.ResponseWriter, r *http.Request) {
	hotels, err := h.hotels.Details(r.Context(), hotelIDs(r.URL.Query()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, hotels)
}

// SearchHotels handles GET and POST /api/v1/hotels/search. Both methods read
// their parameters from the query string.
func (h *Handlers) SearchHotels(w http.ResponseWriter, r *http.Request) {
	p := queryParser{q: r.URL.Query()}
	q := hotel.SearchQuery{
		LocationCode: p.str("location_code"),
		Page:         p.page("next_page"),
		Options:      p.options(),
	}
	if p.err != nil {
		writeErrorMessage(w, http.StatusBadRequest, p.err.Error())
		return
	}

	views, err := h.hotels.Search(r.Context(), q)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// SearchBookmarked handles GET /api/v1/bookmarks/search.
func (h *Handlers) SearchBookmarked(w http.ResponseWriter, r *http.Request) {
	p := queryParser{q: r.URL.Query()}
	opts := p.options()
	if p.err != nil {
		writeErrorMessage(w, http.StatusBadRequest, p.err.Error())
		return
	}

	views, err := h.hotels.Bookmarked(r.Context(), requestUser(r), opts)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// ---- bookmarks ----

type bookmarkRequest struct {
	HotelCode string `json:"hotel_code" validate:"required,max=15"`
}

// ListBookmarks handles GET /api/v1/bookmarks.
func (h *Handlers) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := h.bookmarks.ListBookmarks(r.Context(), requestUser(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if len(bookmarks) == 0 {
		writeErrorMessage(w, http.StatusNotFound, "no bookmarks found")
		return
	}
	writeJSON(w, http.StatusOK, bookmarks)
}

// AddBookmark handles POST /api/v1/bookmarks.
func (h *Handlers) AddBookmark(w http.ResponseWriter, r *http.Request) {
	in, ok := h.bookmarkBody(w, r)
	if !ok {
		return
	}

	b, err := h.bookmarks.AddBookmark(r.Context(), requestUser(r), in.HotelCode)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// DeleteBookmark handles DELETE /api/v1/bookmarks.
func (h *Handlers) DeleteBookmark(w http.ResponseWriter, r *http.Request) {
	in, ok := h.bookmarkBody(w, r)
	if !ok {
		return
	}

	deleted, err := h.bookmarks.DeleteBookmark(r.Context(), requestUser(r), in.HotelCode)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if !deleted {
		writeErrorMessage(w, http.StatusNotFound, "bookmark not found")
		return
	}
	writeMessage(w, http.StatusOK, "bookmark deleted")
}

func (h *Handlers) bookmarkBody(w http.ResponseWriter, r *http.Request) (bookmarkRequest, bool) {
	var in bookmarkRequest
	if !decodeBody(w, r, &in) {
		return in, false
	}
	in.HotelCode = strings.TrimSpace(in.HotelCode)
	if err := auth.Validate(in); err != nil {
		writeError(w, r, h.log, err)
		return in, false
	}
	return in, true
}
