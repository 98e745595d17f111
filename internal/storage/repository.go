package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/hotel-lister/internal/auth"
	"github.com/neexbeast/hotel-lister/internal/hotel"
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides database access for users and bookmarks.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// CreateUser inserts an active user.
// Returns auth.ErrUsernameTaken when the username exists.
func (r *Repository) CreateUser(ctx context.Context, username, email, passwordHash string) (*auth.User, error) {
	const q = `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, is_active, created_at
	`

	u := auth.User{Username: username, Email: email, PasswordHash: passwordHash}
	if err := r.q.QueryRow(ctx, q, username, email, passwordHash).Scan(&u.ID, &u.IsActive, &u.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, auth.ErrUsernameTaken
		}
		return nil, fmt.Errorf("inserting user %s: %w", username, err)
	}
	return &u, nil
}

// GetUserByUsername returns nil, nil when no user matches.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*auth.User, error) {
	const q = `
		SELECT id, username, email, password_hash, is_active, created_at
		FROM users
		WHERE username = $1
	`

	var u auth.User
	err := r.q.QueryRow(ctx, q, username).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying user %s: %w", username, err)
	}
	return &u, nil
}

// ListBookmarks returns the user's bookmarks, newest first.
func (r *Repository) ListBookmarks(ctx context.Context, userID int64) ([]hotel.Bookmark, error) {
	const q = `
		SELECT hotel_code, added_at
		FROM bookmarks
		WHERE user_id = $1
		ORDER BY added_at DESC, id DESC
	`

	rows, err := r.q.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("querying bookmarks for user %d: %w", userID, err)
	}
	defer rows.Close()

	var results []hotel.Bookmark
	for rows.Next() {
		b := hotel.Bookmark{UserID: userID}
		if err := rows.Scan(&b.HotelCode, &b.AddedAt); err != nil {
			return nil, fmt.Errorf("scanning bookmark row: %w", err)
		}
		results = append(results, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bookmark rows: %w", err)
	}

	return results, nil
}

// ListHotelIDs returns the hotel codes the user has bookmarked, newest first.
func (r *Repository) ListHotelIDs(ctx context.Context, userID int64) ([]string, error) {
	bookmarks, err := r.ListBookmarks(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(bookmarks))
	for _, b := range bookmarks {
		ids = append(ids, b.HotelCode)
	}
	return ids, nil
}

// AddBookmark returns hotel.ErrBookmarkExists when the user already has it.
func (r *Repository) AddBookmark(ctx context.Context, userID int64, hotelCode string) (*hotel.Bookmark, error) {
	const q = `
		INSERT INTO bookmarks (user_id, hotel_code)
		VALUES ($1, $2)
		RETURNING added_at
	`

	b := hotel.Bookmark{UserID: userID, HotelCode: hotelCode}
	if err := r.q.QueryRow(ctx, q, userID, hotelCode).Scan(&b.AddedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, hotel.ErrBookmarkExists
		}
		return nil, fmt.Errorf("inserting bookmark %s for user %d: %w", hotelCode, userID, err)
	}
	return &b, nil
}

// DeleteBookmark reports whether a bookmark was removed.
func (r *Repository) DeleteBookmark(ctx context.Context, userID int64, hotelCode string) (bool, error) {
	const q = `DELETE FROM bookmarks WHERE user_id = $1 AND hotel_code = $2`

	tag, err := r.q.Exec(ctx, q, userID, hotelCode)
	if err != nil {
		return false, fmt.Errorf("deleting bookmark %s for user %d: %w", hotelCode, userID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// AddedAt returns nil, nil when the user has no bookmark for hotelCode.
func (r *Repository) AddedAt(ctx context.Context, userID int64, hotelCode string) (*time.Time, error) {
	const q = `SELECT added_at FROM bookmarks WHERE user_id = $1 AND hotel_code = $2`

	var addedAt time.Time
	if err := r.q.QueryRow(ctx, q, userID, hotelCode).Scan(&addedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying bookmark %s for user %d: %w", hotelCode, userID, err)
	}
	return &addedAt, nil
}
