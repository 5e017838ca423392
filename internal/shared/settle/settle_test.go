package settle

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestGroupSettlesAllDespiteFailures(t *testing.T) {
	var g Group
	var finished atomic.Int32

	g.Go("fails", func() error {
		return errors.New("upstream 500")
	})
	g.Go("slow", func() error {
		time.Sleep(20 * time.Millisecond)
		finished.Add(1)
		return nil
	})
	g.Go("panics", func() error {
		panic("boom")
	})

	results := g.Wait()
	if len(results) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(results))
	}
	if finished.Load() != 1 {
		t.Fatalf("expected slow task to finish")
	}
	if results["slow"] != nil {
		t.Fatalf("expected slow task success, got %v", results["slow"])
	}
	var pe *PanicError
	if !errors.As(results["panics"], &pe) {
		t.Fatalf("expected PanicError, got %v", results["panics"])
	}
	failed := Failed(results)
	if len(failed) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(failed))
	}
}

func TestMapAppliesPerCallTimeout(t *testing.T) {
	keys := []string{"fast", "stuck"}
	out := Map(context.Background(), keys, 30*time.Millisecond, func(ctx context.Context, key string) (int, error) {
		if key == "stuck" {
			<-ctx.Done()
			return 0, ctx.Err()
		}
		return 42, nil
	})

	if out["fast"].Err != nil || out["fast"].Value != 42 {
		t.Fatalf("unexpected fast outcome: %+v", out["fast"])
	}
	if !errors.Is(out["stuck"].Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", out["stuck"].Err)
	}
}

func TestMapRecordsPanics(t *testing.T) {
	out := Map(context.Background(), []int{1, 2}, 0, func(ctx context.Context, key int) (string, error) {
		if key == 2 {
			panic("bad key")
		}
		return "ok", nil
	})
	if out[1].Value != "ok" {
		t.Fatalf("expected ok for key 1, got %+v", out[1])
	}
	if out[2].Err == nil {
		t.Fatalf("expected panic error for key 2")
	}
}
