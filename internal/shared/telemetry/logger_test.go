package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestInfoWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	Info("letter.generated", map[string]any{
		"case_id":       "case-1",
		"prompt_tokens": 12,
		"err":           errors.New("boom"),
	})

	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &payload); err != nil {
		t.Fatalf("decode: %v (%s)", err, buf.String())
	}
	if payload["level"] != "info" || payload["msg"] != "letter.generated" {
		t.Fatalf("unexpected envelope: %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("missing ts")
	}
	if payload["case_id"] != "case-1" {
		t.Fatalf("unexpected case_id %v", payload["case_id"])
	}
	if payload["prompt_tokens"] != float64(12) {
		t.Fatalf("token counters must not be redacted: %v", payload["prompt_tokens"])
	}
	if payload["err"] != "boom" {
		t.Fatalf("unexpected err field %v", payload["err"])
	}
}

func TestSecretsAreRedacted(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	Error("llm.call_failed", map[string]any{
		"api_key":       "sk-live",
		"authorization": "Bearer abc",
		"provider":      "openai",
	})

	out := buf.String()
	if strings.Contains(out, "sk-live") || strings.Contains(out, "Bearer abc") {
		t.Fatalf("secret leaked: %s", out)
	}
	if !strings.Contains(out, `"provider":"openai"`) {
		t.Fatalf("expected provider field: %s", out)
	}
}

func TestConfigureFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()
	defer Configure("info")

	Debug("hidden", nil)
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered at info level")
	}
	Configure("debug")
	Debug("shown", nil)
	if !strings.Contains(buf.String(), `"msg":"shown"`) {
		t.Fatalf("expected debug line, got %s", buf.String())
	}
}
