package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestGetJSONDecodesAndSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != DefaultUserAgent {
			t.Errorf("unexpected user agent %q", got)
		}
		if got := r.URL.Query().Get("nom"); got != "Lyon" {
			t.Errorf("unexpected nom %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value": 7}`))
	}))
	defer srv.Close()

	c := New(time.Second)
	var out struct {
		Value int `json:"value"`
	}
	if err := c.GetJSON(context.Background(), srv.URL, url.Values{"nom": {"Lyon"}}, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Value != 7 {
		t.Fatalf("expected 7, got %d", out.Value)
	}
}

func TestGetJSONReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New(time.Second).GetJSON(context.Background(), srv.URL, nil, &struct{}{})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", se.StatusCode)
	}
}

func TestGetJSONHonorsContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := New(5*time.Second).GetJSON(ctx, srv.URL, nil, &struct{}{})
	if !IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestNewLimiterUnlimited(t *testing.T) {
	if NewLimiter(0, 3) != nil {
		t.Fatalf("expected nil limiter for rps 0")
	}
	if l := NewLimiter(2, 0); l == nil || l.Burst() != 1 {
		t.Fatalf("expected burst clamped to 1")
	}
}
