package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestModelCatalogResolve(t *testing.T) {
	c := NewModelCatalog("deepseek-r1:8b", []string{"llama3.1:8b", " ", "deepseek-r1:8b"})
	tests := []struct {
		requested string
		want      string
	}{
		{"llama3.1:8b", "llama3.1:8b"},
		{" llama3.1:8b ", "llama3.1:8b"},
		{"gpt-unknown", "deepseek-r1:8b"},
		{"", "deepseek-r1:8b"},
	}
	for _, tt := range tests {
		if got := c.Resolve(tt.requested); got != tt.want {
			t.Fatalf("Resolve(%q) = %q, want %q", tt.requested, got, tt.want)
		}
	}
	if models := c.Models(); len(models) != 2 || models[0] != "deepseek-r1:8b" {
		t.Fatalf("unexpected models: %v", models)
	}
}

type flakyCompleter struct {
	errs  []error
	calls int
}

func (f *flakyCompleter) Complete(ctx context.Context, model, prompt string) (string, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return "{}", nil
}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{name: "success", wantCalls: 1},
		{name: "transient then success", errs: []error{fmt.Errorf("ollama http status 503: busy")}, wantCalls: 2},
		{name: "permanent", errs: []error{errors.New("openai http status 400: bad request")}, wantCalls: 1, wantErr: true},
		{name: "disabled", errs: []error{ErrDisabled}, wantCalls: 1, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			base := &flakyCompleter{errs: tt.errs}
			r := retrying{base: base, delay: time.Millisecond}
			_, err := r.Complete(context.Background(), "m", "p")
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error: %v", err)
			}
			if base.calls != tt.wantCalls {
				t.Fatalf("expected %d calls, got %d", tt.wantCalls, base.calls)
			}
		})
	}
}

func TestWithRetryStopsOnExpiredContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	base := &flakyCompleter{errs: []error{context.Canceled}}
	if _, err := WithRetry(base).Complete(ctx, "m", "p"); err == nil {
		t.Fatalf("expected error")
	}
	if base.calls != 1 {
		t.Fatalf("expected no retry once the context is done")
	}
}

func TestDisabled(t *testing.T) {
	var d Disabled
	if _, err := d.Complete(context.Background(), "m", "p"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}
