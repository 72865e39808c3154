package llmclient

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hfyorke/zrepair/internal/sessionlog"
)

func TestClientCompleteDelegatesToBackend(t *testing.T) {
	stub := &Stub{Response: "take leaflet"}
	c := NewWithBackend(stub, 50, 0.3, time.Second)

	got, err := c.Complete(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "take leaflet" {
		t.Errorf("Complete() = %q, want %q", got, "take leaflet")
	}
}

func TestClientCompleteWrapsBackendError(t *testing.T) {
	stub := &Stub{Err: errors.New("boom")}
	c := NewWithBackend(stub, 50, 0.3, time.Second)

	_, err := c.Complete(context.Background(), "sys", "user")
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestClientCompleteRespectsTimeout(t *testing.T) {
	stub := &Stub{Fn: func(ctx context.Context, system, user string) (string, error) {
		select {
		case <-time.After(200 * time.Millisecond):
			return "too late", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}}
	c := NewWithBackend(stub, 50, 0.3, 10*time.Millisecond)

	_, err := c.Complete(context.Background(), "sys", "user")
	if err == nil {
		t.Fatal("expected a timeout error")
	}
}

func TestClientCompleteLogsThroughWithSessionLog(t *testing.T) {
	var buf bytes.Buffer
	log, err := sessionlog.New("", "demo", sessionlog.WithWriter(&buf))
	if err != nil {
		t.Fatalf("sessionlog.New() error = %v", err)
	}

	stub := &Stub{Response: "take leaflet"}
	c := NewWithBackend(stub, 50, 0.3, time.Second, WithSessionLog(log))

	if _, err := c.Complete(context.Background(), "sys", "user"); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"llm call"`) {
		t.Errorf("session log output = %q, want an \"llm call\" entry", out)
	}
	if !strings.Contains(out, `"provider":"stub"`) {
		t.Errorf("session log output = %q, want provider=stub", out)
	}
}

func TestStubIsAvailable(t *testing.T) {
	s := &Stub{}
	if !s.IsAvailable() {
		t.Fatal("Stub should always report available")
	}
	if s.BackendName() != "stub" {
		t.Errorf("BackendName() = %q, want stub", s.BackendName())
	}
}
