package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestErrorCarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/cases/:caseId", func(c *gin.Context) {
		c.Set("requestId", "req-7")
		Error(c, http.StatusNotFound, "not_found", "Case not found or access denied", nil)
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/cases/c1", nil))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "not_found" || body.Error.RequestID != "req-7" || body.Error.Details != nil {
		t.Fatalf("unexpected body %+v", body.Error)
	}
}

func TestCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/cases", func(c *gin.Context) { Created(c, gin.H{"id": "c1"}) })

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/cases", nil))
	if resp.Code != http.StatusCreated || resp.Body.String() != `{"id":"c1"}` {
		t.Fatalf("unexpected response %d %s", resp.Code, resp.Body.String())
	}
}
