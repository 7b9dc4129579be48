package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	documentsAnalyzedTotal   atomic.Uint64
	extractionFailedTotal    atomic.Uint64
	interviewsStartedTotal   atomic.Uint64
	interviewsCompletedTotal atomic.Uint64
	sessionConflictsTotal    atomic.Uint64
	feedbackSubmittedTotal   atomic.Uint64
	feedbackFlaggedTotal     atomic.Uint64
	reviewsProcessedTotal    atomic.Uint64
	reviewJobsReceived       atomic.Uint64
	reviewJobsFailed         atomic.Uint64
	reviewJobsDropped        atomic.Uint64

	lettersGenerated  = newLabeledCounter()
	providerFallbacks = newLabeledCounter()
	httpRequests      = newLabeledCounter()

	letterDuration  = newHistogram([]float64{50, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000})
	requestDuration = newHistogram([]float64{5, 25, 100, 250, 1000, 2500, 10000})
)

func IncDocumentsAnalyzed()   { documentsAnalyzedTotal.Add(1) }
func IncExtractionFailed()    { extractionFailedTotal.Add(1) }
func IncInterviewsStarted()   { interviewsStartedTotal.Add(1) }
func IncInterviewsCompleted() { interviewsCompletedTotal.Add(1) }
func IncSessionConflicts()    { sessionConflictsTotal.Add(1) }
func IncFeedbackSubmitted()   { feedbackSubmittedTotal.Add(1) }
func IncFeedbackFlagged()     { feedbackFlaggedTotal.Add(1) }
func IncReviewsProcessed()    { reviewsProcessedTotal.Add(1) }

// Review worker counters. Dropped messages were unparseable and deleted.
func IncReviewJobsReceived() { reviewJobsReceived.Add(1) }
func IncReviewJobsFailed()   { reviewJobsFailed.Add(1) }
func IncReviewJobsDropped()  { reviewJobsDropped.Add(1) }

// IncLettersGenerated counts a generated letter by the provider that produced its text.
func IncLettersGenerated(provider string) {
	lettersGenerated.Inc(provider)
}

// IncProviderFallback counts a provider failure that fell back to the template.
func IncProviderFallback(provider string) {
	providerFallbacks.Inc(provider)
}

// ObserveLetterDurationMs records letter generation latency in milliseconds.
func ObserveLetterDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	letterDuration.Observe(value)
}

// ObserveRequest counts a served request by status class ("2xx") and
// records its latency.
func ObserveRequest(status int, durationMs float64) {
	httpRequests.Inc(statusClass(status))
	if durationMs < 0 {
		durationMs = 0
	}
	requestDuration.Observe(durationMs)
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "gezy_documents_analyzed_total", "Documents run through extraction", documentsAnalyzedTotal.Load())
	writeCounter(&buf, "gezy_extraction_failed_total", "Extractions rejected or failed", extractionFailedTotal.Load())
	writeCounter(&buf, "gezy_interviews_started_total", "Interview sessions started", interviewsStartedTotal.Load())
	writeCounter(&buf, "gezy_interviews_completed_total", "Interview sessions completed", interviewsCompletedTotal.Load())
	writeCounter(&buf, "gezy_session_conflicts_total", "Interview writes rejected by version check", sessionConflictsTotal.Load())
	writeCounter(&buf, "gezy_feedback_submitted_total", "Letter feedback submissions", feedbackSubmittedTotal.Load())
	writeCounter(&buf, "gezy_feedback_flagged_total", "Feedback flagged for review", feedbackFlaggedTotal.Load())
	writeCounter(&buf, "gezy_reviews_processed_total", "Flagged feedback processed by the worker", reviewsProcessedTotal.Load())
	writeCounter(&buf, "gezy_review_jobs_received_total", "Review messages received by the worker", reviewJobsReceived.Load())
	writeCounter(&buf, "gezy_review_jobs_failed_total", "Review messages left for redelivery after a failure", reviewJobsFailed.Load())
	writeCounter(&buf, "gezy_review_jobs_dropped_total", "Unparseable review messages deleted", reviewJobsDropped.Load())
	writeLabeledCounter(&buf, "gezy_letters_generated_total", "Letters generated", "provider", lettersGenerated.Snapshot())
	writeLabeledCounter(&buf, "gezy_provider_fallback_total", "Provider failures that fell back to the template", "provider", providerFallbacks.Snapshot())
	writeLabeledCounter(&buf, "gezy_http_requests_total", "HTTP requests served", "class", httpRequests.Snapshot())
	writeHistogram(&buf, "gezy_letter_duration_ms", "Letter generation duration in milliseconds", letterDuration.Snapshot())
	writeHistogram(&buf, "gezy_http_request_duration_ms", "HTTP request duration in milliseconds", requestDuration.Snapshot())
	return buf.String()
}

type labeledCounter struct {
	mu     sync.Mutex
	values map[string]uint64
}

func newLabeledCounter() *labeledCounter {
	return &labeledCounter{values: make(map[string]uint64)}
}

func (l *labeledCounter) Inc(label string) {
	if label == "" {
		label = "unknown"
	}
	l.mu.Lock()
	l.values[label]++
	l.mu.Unlock()
}

func (l *labeledCounter) Snapshot() map[string]uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]uint64, len(l.values))
	for k, v := range l.values {
		out[k] = v
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe records value in the first bucket whose bound covers it;
// cumulative counts are derived at render time.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeLabeledCounter(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMillis returns the milliseconds elapsed since start.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
