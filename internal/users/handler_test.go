package users

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(svc *Service, userID string, guest bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", userID)
		c.Set("userEmail", "max@example.de")
		c.Set("userName", "Max Mustermann")
		c.Set("isGuest", guest)
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestMeCreatesProfile(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	r := newTestRouter(svc, "u1", false)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var got User
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.FullName != "Max Mustermann" || got.Tier != TierFree {
		t.Fatalf("unexpected profile %+v", got)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	r := newTestRouter(svc, "u1", false)

	body := bytes.NewBufferString(`{"address":"Musterstraße 1, 50667 Köln","tier":"plus"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/me", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	// A later login must not reset the edited fields.
	user, err := svc.Ensure(t.Context(), "u1", "max@example.de", "")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if user.Address != "Musterstraße 1, 50667 Köln" || user.Tier != TierPlus || user.FullName != "Max Mustermann" {
		t.Fatalf("profile not kept: %+v", user)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/v1/me", bytes.NewBufferString(`{"tier":"gold"}`))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown tier, got %d", resp.Code)
	}
}

func TestMeRejectsGuests(t *testing.T) {
	r := newTestRouter(NewService(NewMemoryRepo()), "guest:x", true)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}
