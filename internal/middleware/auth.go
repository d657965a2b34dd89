package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
)

var (
	errMissingAuthHeader = errors.New("missing authorization header")
	errBadAuthHeader     = errors.New("invalid authorization header format")
	errBadClaims         = errors.New("invalid token claims")
)

// principal is the authenticated caller extracted from an access token.
type principal struct {
	userID string
	role   string
}

func parseBearer(r *http.Request, jwtSecret string) (principal, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return principal{}, errMissingAuthHeader
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return principal{}, errBadAuthHeader
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return principal{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return principal{}, errBadClaims
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return principal{}, errBadClaims
	}
	if _, err := uuid.Parse(userID); err != nil {
		return principal{}, errBadClaims
	}

	role, ok := claims["role"].(string)
	if !ok {
		return principal{}, errBadClaims
	}

	return principal{userID: userID, role: role}, nil
}

func withPrincipal(ctx context.Context, p principal) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, p.userID)
	return context.WithValue(ctx, UserRoleKey, p.role)
}

// AuthMiddleware validates JWT tokens and extracts user claims
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := parseBearer(r, jwtSecret)
			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				switch {
				case errors.Is(err, errMissingAuthHeader), errors.Is(err, errBadAuthHeader), errors.Is(err, errBadClaims):
					RespondWithError(w, http.StatusUnauthorized, err.Error())
				case errors.Is(err, jwt.ErrTokenExpired):
					RespondWithError(w, http.StatusUnauthorized, "token expired")
				default:
					RespondWithError(w, http.StatusUnauthorized, "invalid token")
				}
				return
			}

			logger.Debug("User authenticated",
				zap.String("user_id", p.userID),
				zap.String("role", p.role),
			)

			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
		})
	}
}

// OptionalAuthMiddleware attaches the caller identity when a valid token is present
// and lets anonymous requests through untouched. Guest checkout relies on this.
func OptionalAuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}

			p, err := parseBearer(r, jwtSecret)
			if err != nil {
				logger.Debug("Ignoring invalid optional token", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
		})
	}
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetUserUUID is GetUserID parsed into a uuid.
func GetUserUUID(ctx context.Context) (uuid.UUID, bool) {
	raw, ok := GetUserID(ctx)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// GetUserRole extracts user role from request context
func GetUserRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}

// WithUser returns ctx carrying the given identity without going through a token.
func WithUser(ctx context.Context, userID uuid.UUID, role string) context.Context {
	return withPrincipal(ctx, principal{userID: userID.String(), role: role})
}
