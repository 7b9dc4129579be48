package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

var epoch = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

func limitedRouter(limiter *RateLimiter, userID string, rules map[string]RateLimitRule) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(UserIDKey, userID)
		}
		c.Next()
	})
	r.Use(RateLimit(RateLimitConfig{
		Rules:   rules,
		Limiter: limiter,
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodGet {
				return "READ"
			}
			return ""
		},
	}))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/api/v1/cases/:caseId/recommendations", ok)
	r.POST("/api/v1/documents/analyze", ok)
	return r
}

func hit(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRateLimitGroupsHaveSeparateBudgets(t *testing.T) {
	limiter := NewRateLimiter(func() time.Time { return epoch })
	r := limitedRouter(limiter, "guest:abc", map[string]RateLimitRule{
		defaultRateLimitGroup: {Rate: 1, Burst: 2},
		"READ":                {Rate: 5, Burst: 10},
	})

	const upload = "/api/v1/documents/analyze"
	const reads = "/api/v1/cases/c-1/recommendations"
	codes := []int{
		hit(r, http.MethodPost, upload).Code,
		hit(r, http.MethodPost, upload).Code,
		hit(r, http.MethodGet, reads).Code,
		hit(r, http.MethodGet, reads).Code,
		hit(r, http.MethodGet, reads).Code,
		hit(r, http.MethodPost, upload).Code,
	}
	want := []int{200, 200, 200, 200, 200, 429}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("request %d: got %d, want %d (all: %v)", i+1, codes[i], want[i], codes)
		}
	}
}

func TestRateLimitRejectionBody(t *testing.T) {
	limiter := NewRateLimiter(func() time.Time { return epoch })
	r := limitedRouter(limiter, "", map[string]RateLimitRule{
		defaultRateLimitGroup: {Rate: 0.5, Burst: 1},
	})

	if w := hit(r, http.MethodPost, "/api/v1/documents/analyze"); w.Code != http.StatusOK {
		t.Fatalf("first upload: %d", w.Code)
	}
	w := hit(r, http.MethodPost, "/api/v1/documents/analyze")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second upload: %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("Retry-After = %q, want 2", got)
	}

	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "rate_limited" || body.Error.Details["group"] != defaultRateLimitGroup {
		t.Fatalf("unexpected error body %+v", body.Error)
	}
	if ms, _ := body.Error.Details["retryAfterMs"].(float64); ms != 2000 {
		t.Fatalf("retryAfterMs = %v, want 2000", body.Error.Details["retryAfterMs"])
	}

	// GET maps to READ which has no rule, so it is not limited.
	if w := hit(r, http.MethodGet, "/api/v1/cases/c-1/recommendations"); w.Code != http.StatusOK {
		t.Fatalf("unruled group must pass, got %d", w.Code)
	}
}

func TestRateLimiterRefill(t *testing.T) {
	now := epoch
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 4, Burst: 1}

	if ok, _ := limiter.Allow("u|DEFAULT", rule); !ok {
		t.Fatal("first call must pass")
	}
	ok, wait := limiter.Allow("u|DEFAULT", rule)
	if ok || wait != 250*time.Millisecond {
		t.Fatalf("expected 250ms wait, got ok=%v wait=%s", ok, wait)
	}
	if ok, _ := limiter.Allow("v|DEFAULT", rule); !ok {
		t.Fatal("other principals keep their own bucket")
	}
	now = now.Add(wait)
	if ok, _ := limiter.Allow("u|DEFAULT", rule); !ok {
		t.Fatal("bucket must refill after the reported wait")
	}
	if ok, _ := limiter.Allow("u|DEFAULT", RateLimitRule{}); !ok {
		t.Fatal("a zero rule disables limiting")
	}
}

func TestRateLimiterDropsIdleBuckets(t *testing.T) {
	now := epoch
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 1, Burst: 1}

	limiter.Allow("guest:gone|READ", rule)
	now = now.Add(bucketIdleTTL + time.Second)
	for i := 1; i < sweepEvery; i++ {
		limiter.Allow("guest:busy|READ", rule)
	}
	if got := limiter.size(); got != 1 {
		t.Fatalf("expected 1 live bucket, got %d", got)
	}
}
