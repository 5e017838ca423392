package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestIsGPT5(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{name: "gpt5", model: "gpt-5", want: true},
		{name: "gpt5 variant", model: "gpt-5-mini", want: true},
		{name: "gpt5 uppercase", model: " GPT-5o ", want: true},
		{name: "gpt4", model: "gpt-4o", want: false},
		{name: "empty", model: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := isGPT5(tt.model); got != tt.want {
				t.Fatalf("isGPT5(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

func TestCompleteSendsModelAndTemperature(t *testing.T) {
	var mu sync.Mutex
	var bodies []map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		mu.Lock()
		bodies = append(bodies, payload)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" {\"summary\":\"ok\"} "}}],"usage":{"total_tokens":12}}`))
	}))
	defer server.Close()

	client, err := NewClient("test-key", server.URL+"/v1/", time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	for _, model := range []string{"gpt-4o-mini", "gpt-5-mini"} {
		out, err := client.Complete(context.Background(), model, "prompt")
		if err != nil {
			t.Fatalf("Complete(%s): %v", model, err)
		}
		if out != `{"summary":"ok"}` {
			t.Fatalf("unexpected content %q", out)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if bodies[0]["model"] != "gpt-4o-mini" {
		t.Fatalf("expected requested model, got %v", bodies[0]["model"])
	}
	if _, ok := bodies[0]["temperature"]; !ok {
		t.Fatalf("expected temperature for gpt-4o-mini")
	}
	if _, ok := bodies[1]["temperature"]; ok {
		t.Fatalf("expected temperature to be omitted for gpt-5 models")
	}
}

func TestCompleteReportsStatusErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	client, err := NewClient("test-key", server.URL, time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.Complete(context.Background(), "gpt-4o-mini", "prompt")
	if err == nil || !strings.Contains(err.Error(), "openai http status 502") {
		t.Fatalf("expected status error, got %v", err)
	}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping to fail on 502")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(" ", "", 0); err == nil {
		t.Fatalf("expected missing key error")
	}
}
