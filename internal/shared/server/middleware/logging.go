package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gezy-backend/internal/shared/metrics"
	"gezy-backend/internal/shared/telemetry"
	"gezy-backend/internal/shared/tracing"
)

// Context keys handlers set so the request log can name domain entities.
const (
	CaseIDKey    = "caseId"
	SessionIDKey = "sessionId"
	LetterIDKey  = "letterId"
	ProviderKey  = "aiProvider"
)

// slowRequest marks requests worth a look in the logs. Letter generation
// waits on a provider and is exempt.
const slowRequest = 2 * time.Second

var quietPaths = map[string]struct{}{
	"/metrics":       {},
	"/api/v1/health": {},
}

// Traced reports whether a request gets a server span. Probes and scrapes
// would only add noise.
func Traced(r *http.Request) bool {
	_, quiet := quietPaths[r.URL.Path]
	return !quiet
}

var entityFields = []struct{ key, field string }{
	{UserIDKey, "user_id"},
	{CaseIDKey, "case_id"},
	{SessionIDKey, "session_id"},
	{LetterIDKey, "letter_id"},
	{ProviderKey, "ai_provider"},
}

// Logging writes one structured line per request and feeds the request
// metrics. Probes and scrapes are counted but not logged.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		elapsed := metrics.SinceMillis(start)
		status := c.Writer.Status()
		metrics.ObserveRequest(status, elapsed)

		if _, quiet := quietPaths[c.Request.URL.Path]; quiet && status < http.StatusInternalServerError {
			return
		}

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      status,
			"duration_ms": elapsed,
			"bytes":       c.Writer.Size(),
			"client_ip":   c.ClientIP(),
		}
		for _, ef := range entityFields {
			if v := c.GetString(ef.key); v != "" {
				fields[ef.field] = v
			}
		}
		if IsGuest(c) {
			fields["is_guest"] = true
		}
		if traceID := tracing.TraceID(c.Request.Context()); traceID != "" {
			fields["trace_id"] = traceID
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch {
		case status >= http.StatusInternalServerError:
			telemetry.Error("request.complete", fields)
		case elapsed > float64(slowRequest.Milliseconds()) && c.GetString(ProviderKey) == "":
			fields["slow"] = true
			telemetry.Warn("request.complete", fields)
		default:
			telemetry.Info("request.complete", fields)
		}
	}
}
