// Package llm defines the text-completion backends used for report synthesis.
package llm

import (
	"context"
	"errors"
	"strings"
)

// Completer sends one prompt to model and returns the raw text answer.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// Pinger reports whether the backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ErrDisabled is returned when no completion backend is configured.
var ErrDisabled = errors.New("completion backend disabled")

// Disabled always fails, so every report takes the fallback path.
type Disabled struct{}

func (Disabled) Complete(ctx context.Context, model, prompt string) (string, error) {
	return "", ErrDisabled
}

func (Disabled) Ping(ctx context.Context) error { return ErrDisabled }

// ModelCatalog is the allow-list of selectable model ids.
type ModelCatalog struct {
	defaultModel string
	allowed      map[string]struct{}
	order        []string
}

// NewModelCatalog builds a catalog. The default model is always allowed.
func NewModelCatalog(defaultModel string, allowed []string) ModelCatalog {
	c := ModelCatalog{defaultModel: strings.TrimSpace(defaultModel), allowed: make(map[string]struct{})}
	for _, m := range append([]string{c.defaultModel}, allowed...) {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, ok := c.allowed[m]; ok {
			continue
		}
		c.allowed[m] = struct{}{}
		c.order = append(c.order, m)
	}
	return c
}

// Default is the model used when none (or an unknown one) is requested.
func (c ModelCatalog) Default() string { return c.defaultModel }

// Resolve returns requested if allowed, else the default.
func (c ModelCatalog) Resolve(requested string) string {
	requested = strings.TrimSpace(requested)
	if _, ok := c.allowed[requested]; ok && requested != "" {
		return requested
	}
	return c.defaultModel
}

// Models lists allowed ids, default first.
func (c ModelCatalog) Models() []string {
	return append([]string(nil), c.order...)
}
