// Package adminauth gates the tournament's operator-only endpoints
// (register-is-open is public, but start/reset/clear-cache are not). It is
// adapted from internal/auth/jwt.go's JWTService, collapsed from
// per-user access/refresh token pairs down to a single long-lived operator
// token: this domain has no end-user accounts, only one operator driving
// the coordinator.
package adminauth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid admin token")
	ErrExpiredToken = errors.New("admin token has expired")
)

// operatorClaims is the sole claim type this package issues: there is one
// role, "operator", and no per-user identity to carry.
type operatorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service issues and validates operator bearer tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService returns a Service signing/validating with secret. ttl bounds
// how long an issued token remains valid; 0 means "use the package default"
// (30 days, matching the teacher's long-lived access token TTL — there is
// no refresh flow here, so a short TTL would just lock the operator out).
func NewService(secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Service{secret: []byte(secret), ttl: ttl}
}

// IssueToken returns a freshly signed operator token.
func (s *Service) IssueToken() (string, error) {
	claims := operatorClaims{
		Role: "operator",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate checks a bearer token string and returns whether it is a valid,
// unexpired operator token.
func (s *Service) Validate(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &operatorClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return ErrInvalidToken
	}
	claims, ok := token.Claims.(*operatorClaims)
	if !ok || !token.Valid || claims.Role != "operator" {
		return ErrInvalidToken
	}
	return nil
}

// RequireOperator is HTTP middleware gating admin-only endpoints (spec §6:
// "admin-gated"), mirroring the bearer-extraction shape of the teacher's
// AuthMiddleware.RequireAuth, simplified to a single token check with no
// database lookup.
func (s *Service) RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}
		if err := s.Validate(parts[1]); err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
