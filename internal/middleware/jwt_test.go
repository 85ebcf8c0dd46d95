package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/paperdrill/paperdrill-backend/internal/service"
)

type fakeAuthority struct {
	claims    map[string]*service.Claims
	activeJTI string
}

func (f *fakeAuthority) ValidateToken(tokenStr string) (*service.Claims, error) {
	c, ok := f.claims[tokenStr]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

func (f *fakeAuthority) ValidateSession(_ context.Context, _ int, jti string) error {
	if jti != f.activeJTI {
		return service.ErrSessionInvalidated
	}
	return nil
}

func newFakeAuthority() *fakeAuthority {
	return &fakeAuthority{
		claims: map[string]*service.Claims{
			"active-token": {
				RegisteredClaims: jwt.RegisteredClaims{ID: "jti-active"},
				UserID:           7,
			},
			"stale-token": {
				RegisteredClaims: jwt.RegisteredClaims{ID: "jti-stale"},
				UserID:           7,
			},
		},
		activeJTI: "jti-active",
	}
}

func newTestRouter(auth *fakeAuthority) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/http", RequireJWT(auth), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/ws", RequireWSAuth(auth), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequireJWT(t *testing.T) {
	r := newTestRouter(newFakeAuthority())

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"ActiveSession", "Bearer active-token", http.StatusOK},
		{"StaleJTI", "Bearer stale-token", http.StatusUnauthorized},
		{"UnknownToken", "Bearer garbage", http.StatusUnauthorized},
		{"MissingHeader", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/http", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireWSAuth(t *testing.T) {
	r := newTestRouter(newFakeAuthority())

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"ActiveSession", "?token=active-token", http.StatusOK},
		{"StaleJTI", "?token=stale-token", http.StatusUnauthorized},
		{"UnknownToken", "?token=garbage", http.StatusUnauthorized},
		{"MissingToken", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws"+tt.query, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

// A login that replaces the active JTI must cut off previously issued tokens
// on both transports.
func TestNewLoginSupersedesOldToken(t *testing.T) {
	auth := newFakeAuthority()
	r := newTestRouter(auth)

	get := func(target, header string) int {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := get("/http", "Bearer active-token"); code != http.StatusOK {
		t.Fatalf("http status before relogin = %d, want 200", code)
	}
	if code := get("/ws?token=active-token", ""); code != http.StatusOK {
		t.Fatalf("ws status before relogin = %d, want 200", code)
	}

	// Simulate a new login on another device.
	auth.activeJTI = "jti-newer"

	if code := get("/http", "Bearer active-token"); code != http.StatusUnauthorized {
		t.Errorf("http status after relogin = %d, want 401", code)
	}
	if code := get("/ws?token=active-token", ""); code != http.StatusUnauthorized {
		t.Errorf("ws status after relogin = %d, want 401", code)
	}
}
