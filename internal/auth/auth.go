// internal/auth/auth.go
//
// Admin accounts for puzzle authoring.
// Responsibilities:
//   - Signup validation and bcrypt password hashing.
//   - Login against stored hashes.
//   - Issuing and verifying HS256 JWTs carried as Bearer header or cookie.
//
// Usernames double as puzzle author names, so they are stored lowercase.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/orderlygame/orderly/internal/repo"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// Config tunes token issuing and the auth cookie.
type Config struct {
	Secret       []byte
	TTL          time.Duration
	CookieName   string
	SecureCookie bool
}

// Claims is what a verified token says about its bearer.
type Claims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Service signs up, logs in and authenticates admins.
type Service struct {
	accounts repo.Accounts
	cfg      Config
	now      func() time.Time
}

func New(accounts repo.Accounts, cfg Config) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 14 * 24 * time.Hour
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "orderly_token"
	}
	return &Service{accounts: accounts, cfg: cfg, now: time.Now}
}

func normalizeUsername(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}

func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3–24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 72 {
		return errors.New("password must be 8–72 chars")
	}
	return nil
}

// ValidationError marks signup input problems.
type ValidationError struct{ error }

func (e ValidationError) Unwrap() error { return e.error }

// Signup creates an account.
func (s *Service) Signup(ctx context.Context, username, password string) (repo.Account, error) {
	username = normalizeUsername(username)
	if err := validateSignup(username, password); err != nil {
		return repo.Account{}, ValidationError{err}
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return repo.Account{}, err
	}
	a := repo.Account{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(h),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.accounts.CreateAccount(ctx, a); err != nil {
		return repo.Account{}, err
	}
	return a, nil
}

// Login checks a username/password pair.
func (s *Service) Login(ctx context.Context, username, password string) (repo.Account, error) {
	a, err := s.accounts.AccountByUsername(ctx, normalizeUsername(username))
	if errors.Is(err, repo.ErrAccountNotFound) {
		return repo.Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return repo.Account{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return repo.Account{}, ErrInvalidCredentials
	}
	return a, nil
}

// Issue signs a token for a.
func (s *Service) Issue(a repo.Account) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.cfg.TTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       a.ID,
		"username": a.Username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := token.SignedString(s.cfg.Secret)
	return ss, exp, err
}

// Verify parses a token and checks the account still exists.
func (s *Service) Verify(ctx context.Context, tokenStr string) (Claims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.cfg.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	id, _ := claims["id"].(string)
	username, _ := claims["username"].(string)
	if id == "" || username == "" {
		return Claims{}, ErrInvalidToken
	}
	if _, err := s.accounts.AccountByID(ctx, id); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return Claims{ID: id, Username: username}, nil
}

func (s *Service) cookie(value string) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if s.cfg.SecureCookie {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: sameSite,
	}
}

// SetCookie stores token in the auth cookie.
func (s *Service) SetCookie(w http.ResponseWriter, token string, exp time.Time) {
	c := s.cookie(token)
	c.Expires = exp
	http.SetCookie(w, c)
}

// ClearCookie expires the auth cookie.
func (s *Service) ClearCookie(w http.ResponseWriter) {
	c := s.cookie("")
	c.MaxAge = -1
	http.SetCookie(w, c)
}

// TokenFrom reads "Authorization: Bearer <token>" or the auth cookie.
func (s *Service) TokenFrom(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}
