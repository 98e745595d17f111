package api

import (
	"context"
	"time"

	"github.com/neexbeast/hotel-lister/internal/auth"
	"github.com/neexbeast/hotel-lister/internal/hotel"
	"github.com/neexbeast/hotel-lister/internal/hotelbeds"
)

// HotelService defines the hotel flows needed by handlers.
type HotelService interface {
	Search(ctx context.Context, q hotel.SearchQuery) ([]hotel.View, error)
	Bookmarked(ctx context.Context, userID int64, opts hotel.Options) ([]hotel.BookmarkView, error)
	List(ctx context.Context, page int) ([]hotelbeds.Metadata, error)
	Details(ctx context.Context, ids []string) ([]hotelbeds.Metadata, error)
}

// AccountService defines the account operations needed by handlers.
type AccountService interface {
	Signup(ctx context.Context, in auth.SignupInput) (*auth.User, error)
	Login(ctx context.Context, in auth.LoginInput) (*auth.TokenPair, error)
	Refresh(ctx context.Context, refresh string) (*auth.TokenPair, error)
	Logout(ctx context.Context, userID int64, refresh string) error
}

// BookmarkRepo defines the bookmark storage operations needed by handlers.
type BookmarkRepo interface {
	ListBookmarks(ctx context.Context, userID int64) ([]hotel.Bookmark, error)
	AddBookmark(ctx context.Context, userID int64, hotelCode string) (*hotel.Bookmark, error)
	DeleteBookmark(ctx context.Context, userID int64, hotelCode string) (bool, error)
}

// TokenVerifier resolves an access token to a user id.
type TokenVerifier interface {
	VerifyAccess(token string) (int64, error)
}

// RequestObserver records one served request.
type RequestObserver interface {
	ObserveHTTPRequest(method, route, status string, d time.Duration)
}

// Pinger is a dependency probed by the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}
