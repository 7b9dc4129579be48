package gemini

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gezy-backend/internal/llm"
)

func TestCompleteJoinsParts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-1.5-flash:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "g-key" {
			t.Errorf("missing api key header")
		}
		if r.URL.Query().Get("key") != "" {
			t.Errorf("api key must not be in the query string")
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Widerspruch "},{"text":"gegen den Bescheid"}]}}],"usageMetadata":{"promptTokenCount":42,"candidatesTokenCount":17}}`))
	}))
	defer srv.Close()

	got, err := NewClient("g-key", "", srv.URL).Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Text != "Widerspruch gegen den Bescheid" {
		t.Fatalf("unexpected text %q", got.Text)
	}
	if got.PromptTokens != 42 || got.CompletionTokens != 17 || got.Model != DefaultModel {
		t.Fatalf("unexpected completion %+v", got)
	}
}

func TestCompleteErrors(t *testing.T) {
	status := http.StatusTooManyRequests
	payload := `{"error":{"message":"quota"}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()
	c := NewClient("k", "gemini-pro", srv.URL)

	_, err := c.Complete(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "http status 429") {
		t.Fatalf("expected 429 error, got %v", err)
	}

	status = http.StatusOK
	payload = `{"candidates":[]}`
	_, err = c.Complete(context.Background(), "x")
	if !errors.Is(err, llm.ErrEmptyCompletion) {
		t.Fatalf("expected empty completion, got %v", err)
	}
}
