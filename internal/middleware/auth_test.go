package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/atelierhq/atelier/internal/ctxkeys"
)

const testSecret = "test-secret"

func signToken(t *testing.T, sub string, secret string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestAuthAcceptsValidToken(t *testing.T) {
	requireAuth := Auth(testSecret)

	var gotUserID string
	handler := requireAuth(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = ctxkeys.UserID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/media", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "u1", testSecret))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUserID != "u1" {
		t.Errorf("user id = %q, want u1", gotUserID)
	}
}

func TestAuthRejectsBadTokens(t *testing.T) {
	requireAuth := Auth(testSecret)

	handler := requireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run for rejected requests")
	})

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"wrong secret":   "Bearer " + signToken(t, "u1", "other-secret"),
		"garbage":        "Bearer not-a-token",
	}

	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/media", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, rec.Code)
		}
	}
}
