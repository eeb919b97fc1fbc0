package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"loan-engine/internal/config"
	"loan-engine/internal/domain/loan"
)

type callerKey struct{}

// CallerClaims is the JWT payload: the standard subject plus the caller's role.
type CallerClaims struct {
	Role loan.Role `json:"role"`
	jwt.RegisteredClaims
}

// AnonymousCaller is attached to every request when authentication is disabled.
var AnonymousCaller = loan.Caller{Subject: "anonymous", Role: loan.RoleAdmin}

func WithCaller(ctx context.Context, caller loan.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

func CallerFromContext(ctx context.Context) (loan.Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(loan.Caller)
	return caller, ok
}

func IssueToken(secret string, caller loan.Caller, ttl time.Duration, now time.Time) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, errors.New("jwt secret is not configured")
	}
	expiresAt := now.Add(ttl)
	claims := CallerClaims{
		Role: caller.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func AuthMiddleware(cfg config.AuthConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		logger.Warn("AuthMiddleware: authentication disabled, requests run as anonymous admin")
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), AnonymousCaller)))
			})
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := authenticate(r, cfg.JWTSecret)
			if err != nil {
				logger.WarnContext(r.Context(), "AuthMiddleware: rejected request", "error", err, "path", r.URL.Path)
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

func authenticate(r *http.Request, secret string) (loan.Caller, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return loan.Caller{}, errors.New("missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return loan.Caller{}, errors.New("invalid Authorization header format")
	}

	claims := &CallerClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return loan.Caller{}, fmt.Errorf("invalid token: %w", err)
	}

	if claims.Subject == "" {
		return loan.Caller{}, errors.New("token has no subject")
	}
	role := claims.Role
	if role == "" {
		role = loan.RoleCustomer
	}
	if !role.IsValid() || role == loan.RoleSystem {
		return loan.Caller{}, fmt.Errorf("role %q is not allowed", role)
	}

	return loan.Caller{Subject: claims.Subject, Role: role}, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{"message": message},
	})
}
