package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"biomarket-backend/internal/shared/telemetry"
)

const retryBaseDelay = 300 * time.Millisecond

type retrying struct {
	base  Completer
	delay time.Duration
}

// WithRetry retries a transient failure once after a short delay, within
// the caller's deadline.
func WithRetry(base Completer) Completer {
	if base == nil {
		return nil
	}
	return retrying{base: base, delay: retryBaseDelay}
}

func (r retrying) Complete(ctx context.Context, model, prompt string) (string, error) {
	out, err := r.base.Complete(ctx, model, prompt)
	if err == nil || !ShouldRetry(err) || ctx.Err() != nil {
		return out, err
	}

	telemetry.Warn("llm.retry", map[string]any{"model": model, "attempt": 1, "error": err})
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return r.base.Complete(ctx, model, prompt)
}

// ShouldRetry reports whether err looks transient (timeouts, 5xx, dropped connections).
func ShouldRetry(err error) bool {
	if err == nil || errors.Is(err, ErrDisabled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "timeout") && (strings.Contains(msg, "openai") || strings.Contains(msg, "ollama") || strings.Contains(msg, "client.timeout")) {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}
	return false
}
