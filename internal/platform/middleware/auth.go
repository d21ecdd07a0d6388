package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"certmint/pkg/domain"
	dErrors "certmint/pkg/domain-errors"
)

// CallerClaims are the JWT claims carried by engine bearer tokens. The
// address claim identifies the caller's ledger account; authorization
// decisions (admin, issuer) are made against the registry, not the token.
type CallerClaims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// TokenService issues and validates caller bearer tokens.
type TokenService struct {
	signingKey []byte
	tokenTTL   time.Duration
}

// NewTokenService creates a token service with an HMAC signing key.
func NewTokenService(signingKey string, tokenTTL time.Duration) *TokenService {
	return &TokenService{signingKey: []byte(signingKey), tokenTTL: tokenTTL}
}

// Issue creates a signed bearer token for the given caller address.
func (s *TokenService) Issue(addr domain.Address) (string, error) {
	now := time.Now()
	claims := CallerClaims{
		Address: addr.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   addr.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

// Parse validates a bearer token and returns the caller address.
func (s *TokenService) Parse(tokenString string) (domain.Address, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CallerClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.New(dErrors.CodeBadRequest, "unexpected signing method")
		}
		return s.signingKey, nil
	})
	if err != nil || !token.Valid {
		return "", dErrors.New(dErrors.CodeBadRequest, "invalid or expired token")
	}
	claims, ok := token.Claims.(*CallerClaims)
	if !ok {
		return "", dErrors.New(dErrors.CodeBadRequest, "invalid token claims")
	}
	return domain.ParseAddress(claims.Address)
}

type callerKey struct{}

// WithCaller stores the caller address in the context. Handler tests use
// it to stand in for the Auth middleware.
func WithCaller(ctx context.Context, addr domain.Address) context.Context {
	return context.WithValue(ctx, callerKey{}, addr)
}

// Caller retrieves the authenticated caller address from the context.
// It is the zero Address if the request did not pass the Auth middleware.
func Caller(ctx context.Context) domain.Address {
	if addr, ok := ctx.Value(callerKey{}).(domain.Address); ok {
		return addr
	}
	return ""
}

// Auth authenticates requests via a Bearer token and stores the caller's
// ledger address in the request context.
func Auth(tokens *TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeAuthError(w, "missing bearer token")
				return
			}

			addr, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized request",
					"request_id", GetRequestID(r.Context()),
					"error", err,
				)
				writeAuthError(w, "invalid or expired token")
				return
			}

			ctx := WithCaller(r.Context(), addr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + desc + `"}`))
}
