package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestProperty_ProtectedEndpointsRejectMissingTokens(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("requests without authorization header are rejected", prop.ForAll(
		func(pathSuffix string, method string) bool {
			handler := AuthMiddleware(testSecret, zap.NewNop())(okHandler())

			req := httptest.NewRequest(method, "/api/"+pathSuffix, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.AlphaString(),
		gen.OneConstOf("GET", "POST", "PUT", "PATCH", "DELETE"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ExpiredTokensAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("expired tokens are rejected with 401", prop.ForAll(
		func(role string, hoursAgo int) bool {
			token := signToken(t, jwt.MapClaims{
				"user_id": uuid.NewString(),
				"role":    role,
				"exp":     time.Now().Add(-time.Duration(hoursAgo) * time.Hour).Unix(),
			})

			req := httptest.NewRequest("GET", "/api/users/profile", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			AuthMiddleware(testSecret, zap.NewNop())(okHandler()).ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.OneConstOf("user", "admin"),
		gen.IntRange(1, 48),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ValidTokensCarryIdentity(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("valid tokens expose user id and role to handlers", prop.ForAll(
		func(role string) bool {
			userID := uuid.New()
			token := signToken(t, jwt.MapClaims{
				"user_id": userID.String(),
				"role":    role,
				"exp":     time.Now().Add(time.Hour).Unix(),
			})

			called := false
			handler := AuthMiddleware(testSecret, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, ok1 := GetUserUUID(r.Context())
				gotRole, ok2 := GetUserRole(r.Context())
				called = ok1 && ok2 && gotID == userID && gotRole == role
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("GET", "/api/wishlist", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return called && w.Code == http.StatusOK
		},
		gen.OneConstOf("user", "admin"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_MalformedTokensRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("garbage tokens and missing Bearer prefix are rejected", prop.ForAll(
		func(raw string, withPrefix bool) bool {
			header := raw
			if withPrefix {
				header = "Bearer " + raw
			}

			req := httptest.NewRequest("GET", "/api/wishlist", nil)
			req.Header.Set("Authorization", header)
			w := httptest.NewRecorder()
			AuthMiddleware(testSecret, zap.NewNop())(okHandler()).ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.AnyString(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestAuthMiddleware_RejectsNonUUIDSubject(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"user_id": "42",
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest("GET", "/api/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	AuthMiddleware(testSecret, zap.NewNop())(okHandler()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	valid := signToken(t, jwt.MapClaims{
		"user_id": userID.String(),
		"role":    "user",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	tests := []struct {
		name     string
		header   string
		wantUser bool
	}{
		{name: "anonymous", header: "", wantUser: false},
		{name: "valid token", header: "Bearer " + valid, wantUser: true},
		{name: "broken token", header: "Bearer nope", wantUser: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser bool
			handler := OptionalAuthMiddleware(testSecret, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				id, ok := GetUserUUID(r.Context())
				gotUser = ok && id == userID
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest("POST", "/api/orders", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Equal(t, tt.wantUser, gotUser)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(zap.NewNop())(okHandler())

	for role, want := range map[string]int{"admin": http.StatusOK, "user": http.StatusForbidden} {
		req := httptest.NewRequest("GET", "/api/admin/orders", nil)
		req = req.WithContext(WithUser(req.Context(), uuid.New(), role))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, role)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/admin/orders", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
