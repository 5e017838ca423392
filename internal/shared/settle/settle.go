// Package settle runs independent tasks and waits for all of them, keeping
// each task's outcome instead of failing fast.
package settle

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Group runs named tasks concurrently. A failing or panicking task never
// cancels its siblings.
type Group struct {
	eg      errgroup.Group
	mu      sync.Mutex
	results map[string]error
}

// PanicError wraps a recovered panic from a task.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Go starts fn under name. Duplicate names overwrite earlier outcomes.
func (g *Group) Go(name string, fn func() error) {
	g.eg.Go(func() error {
		err := run(fn)
		g.mu.Lock()
		if g.results == nil {
			g.results = make(map[string]error)
		}
		g.results[name] = err
		g.mu.Unlock()
		return nil
	})
}

// Wait blocks until every task has settled and returns the error per task name
// (nil entries for tasks that succeeded).
func (g *Group) Wait() map[string]error {
	_ = g.eg.Wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]error, len(g.results))
	for k, v := range g.results {
		out[k] = v
	}
	return out
}

// Failed returns only the non-nil errors from a Wait result.
func Failed(results map[string]error) map[string]error {
	out := make(map[string]error)
	for k, err := range results {
		if err != nil {
			out[k] = err
		}
	}
	return out
}

func run(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Value: rec, Stack: string(debug.Stack())}
		}
	}()
	return fn()
}

// Outcome is the settled result of one keyed call.
type Outcome[V any] struct {
	Value V
	Err   error
}

// Map calls fn for every key concurrently, each bounded by timeout when
// timeout > 0, and returns every outcome once all calls have settled.
func Map[K comparable, V any](ctx context.Context, keys []K, timeout time.Duration, fn func(ctx context.Context, key K) (V, error)) map[K]Outcome[V] {
	var (
		g   Group
		mu  sync.Mutex
		out = make(map[K]Outcome[V], len(keys))
	)
	for _, key := range keys {
		key := key
		g.Go(fmt.Sprint(key), func() error {
			callCtx, cancel := withTimeout(ctx, timeout)
			defer cancel()
			v, err := fn(callCtx, key)
			mu.Lock()
			out[key] = Outcome[V]{Value: v, Err: err}
			mu.Unlock()
			return err
		})
	}
	results := g.Wait()
	for _, key := range keys {
		if _, ok := out[key]; !ok {
			// fn panicked before recording
			out[key] = Outcome[V]{Err: results[fmt.Sprint(key)]}
		}
	}
	return out
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
