package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is an account. PasswordHash is never serialized.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// SignupInput is the signup request body.
type SignupInput struct {
	Username string `json:"username" validate:"required,min=4,max=8"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8,max=15,password_policy"`
}

// LoginInput is the login request body.
type LoginInput struct {
	Username string `json:"username" validate:"required,min=4,max=8"`
	Password string `json:"password" validate:"required"`
}

// UserStore is the interface satisfied by *storage.Repository.
type UserStore interface {
	// CreateUser returns ErrUsernameTaken when the username exists.
	CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error)
	// GetUserByUsername returns nil, nil when no user matches.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// Blacklist is the interface satisfied by *cache.Blacklist.
type Blacklist interface {
	// Revoke reports false when jti was already revoked.
	Revoke(ctx context.Context, jti string, ttl time.Duration) (bool, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Config configures a Service.
type Config struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Service handles signup, login and the token lifecycle.
type Service struct {
	users     UserStore
	blacklist Blacklist
	tokens    *issuer
	cost      int
	log       *slog.Logger
}

// NewService constructs a Service.
func NewService(cfg Config, users UserStore, blacklist Blacklist, log *slog.Logger) *Service {
	return NewServiceWithClock(cfg, users, blacklist, log, time.Now)
}

// NewServiceWithClock constructs a Service with an injectable clock (used in tests).
func NewServiceWithClock(cfg Config, users UserStore, blacklist Blacklist, log *slog.Logger, now func() time.Time) *Service {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:     users,
		blacklist: blacklist,
		tokens: &issuer{
			secret:     []byte(cfg.Secret),
			accessTTL:  cfg.AccessTTL,
			refreshTTL: cfg.RefreshTTL,
			now:        now,
		},
		cost: cfg.BcryptCost,
		log:  log,
	}
}

// Signup validates in, hashes the password and creates the user.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*User, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, in.Username, in.Email, string(hash))
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "user signed up", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login checks the credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, in LoginInput) (*TokenPair, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	return s.tokens.pair(user.ID)
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// blacklisted so it cannot be used twice.
func (s *Service) Refresh(ctx context.Context, refresh string) (*TokenPair, error) {
	claims, err := s.liveRefresh(ctx, refresh)
	if err != nil {
		return nil, err
	}
	userID, _ := claims.UserID()

	if err := s.revoke(ctx, claims); err != nil {
		return nil, fmt.Errorf("rotating refresh token: %w", err)
	}
	return s.tokens.pair(userID)
}

// Logout blacklists the refresh token of userID.
func (s *Service) Logout(ctx context.Context, userID int64, refresh string) error {
	claims, err := s.liveRefresh(ctx, refresh)
	if err != nil {
		return err
	}
	if owner, _ := claims.UserID(); owner != userID {
		return fmt.Errorf("%w: token belongs to another user", ErrInvalidToken)
	}

	if err := s.revoke(ctx, claims); err != nil {
		return fmt.Errorf("revoking refresh token: %w", err)
	}
	s.log.InfoContext(ctx, "user logged out", "user_id", userID)
	return nil
}

// VerifyAccess validates an access token and returns its user id.
func (s *Service) VerifyAccess(token string) (int64, error) {
	claims, err := s.tokens.parse(token, TokenAccess)
	if err != nil {
		return 0, err
	}
	return claims.UserID()
}

// revoke blacklists the refresh token. Only one caller can revoke a given
// token; every other one gets ErrInvalidToken.
func (s *Service) revoke(ctx context.Context, claims *Claims) error {
	revoked, err := s.blacklist.Revoke(ctx, claims.ID, s.tokens.remaining(claims))
	if err != nil {
		return err
	}
	if !revoked {
		return fmt.Errorf("%w: token has been revoked", ErrInvalidToken)
	}
	return nil
}

// liveRefresh parses a refresh token and rejects blacklisted ones. The
// blacklist check is only a shortcut; revoke is what enforces single use.
func (s *Service) liveRefresh(ctx context.Context, raw string) (*Claims, error) {
	if raw == "" {
		return nil, &ValidationError{Fields: map[string]string{"refresh": "refresh is required"}}
	}
	claims, err := s.tokens.parse(raw, TokenRefresh)
	if err != nil {
		return nil, err
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("checking refresh token: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: token has been revoked", ErrInvalidToken)
	}
	return claims, nil
}
