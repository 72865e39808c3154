package sessionlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestLogger(t *testing.T, buf *bytes.Buffer) *Logger {
	t.Helper()
	l, err := New(t.TempDir(), "zork1", WithWriter(buf), WithLevel(0))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l
}

func TestLLMCallLogsProviderAndModel(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(t, &buf)

	l.LLMCall("openai", "gpt-4o-mini", 120*time.Millisecond, nil)

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if line["provider"] != "openai" {
		t.Errorf("provider = %v, want openai", line["provider"])
	}
	if line["game"] != "zork1" {
		t.Errorf("game = %v, want zork1", line["game"])
	}
}

func TestLLMCallWithErrorLogsAtWarnLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(t, &buf)

	l.LLMCall("gemini", "gemini-pro", time.Second, errors.New("transport failed"))

	out := buf.String()
	if !strings.Contains(out, "\"level\":\"warn\"") {
		t.Errorf("expected warn level in output, got %s", out)
	}
	if !strings.Contains(out, "transport failed") {
		t.Errorf("expected error message in output, got %s", out)
	}
}

func TestValidationRejectIncludesReason(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(t, &buf)

	l.ValidationReject("foo bar baz qux quux corge", "too many words")

	if !strings.Contains(buf.String(), "too many words") {
		t.Errorf("expected reason in output, got %s", buf.String())
	}
}

func TestStateTransitionLogsAtDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(t, &buf)

	l.StateTransition("CommandSent", "ErrorDetected")

	out := buf.String()
	if !strings.Contains(out, "\"from\":\"CommandSent\"") {
		t.Errorf("expected from field, got %s", out)
	}
}

func TestNewNopDiscardsWithoutPanicking(t *testing.T) {
	l := NewNop()
	l.LLMCall("stub", "stub-model", 0, nil)
	l.ValidationReject("x", "y")
	l.StateTransition("Idle", "CommandSent")
	l.Error("boom", errors.New("oops"))
}
