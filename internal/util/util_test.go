package util_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/keshon/cvc/internal/fs"
	"github.com/keshon/cvc/internal/util"
)

func TestWriteReadJSON(t *testing.T) {
	m := fs.NewMemoryFS()
	m.MkdirAll("/ws", 0o755)

	in := map[string]string{"a": "<b>"}
	if err := util.WriteJSON(m, "/ws/x.json", in); err != nil {
		t.Fatal(err)
	}

	raw, _ := m.ReadFile("/ws/x.json")
	if string(raw) != "{\n  \"a\": \"<b>\"\n}\n" {
		t.Fatalf("unexpected encoding: %q", raw)
	}

	var out map[string]string
	if err := util.ReadJSON(m, "/ws/x.json", &out); err != nil {
		t.Fatal(err)
	}
	if out["a"] != "<b>" {
		t.Fatalf("round trip failed: %v", out)
	}
}

func TestParallelRunsAll(t *testing.T) {
	var n int64
	inputs := []int{1, 2, 3, 4, 5, 6, 7, 8}

	err := util.Parallel(context.Background(), inputs, 3, func(_ context.Context, x int) error {
		atomic.AddInt64(&n, int64(x))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 36 {
		t.Fatalf("expected sum 36, got %d", n)
	}
}

func TestParallelReturnsError(t *testing.T) {
	boom := errors.New("boom")
	err := util.Parallel(context.Background(), []int{1, 2, 3}, 1, func(_ context.Context, x int) error {
		if x == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestParallelCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int64
	err := util.Parallel(ctx, []int{1, 2, 3}, 2, func(_ context.Context, _ int) error {
		atomic.AddInt64(&calls, 1)
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no calls after cancellation, got %d", calls)
	}
}

func TestParallelEmpty(t *testing.T) {
	if err := util.Parallel(context.Background(), []int(nil), 4, func(context.Context, int) error {
		t.Fatal("must not be called")
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}
