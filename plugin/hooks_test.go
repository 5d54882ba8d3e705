package plugin

import (
	"context"
	"errors"
	"testing"
)

func TestSequentialAllRunsInTapOrderAndStopsOnError(t *testing.T) {
	var order []string
	var h SequentialAll[int]
	h.Tap(func(ctx context.Context, n int) error { order = append(order, "first"); return nil })
	h.Tap(func(ctx context.Context, n int) error { order = append(order, "second"); return errors.New("boom") })
	h.Tap(func(ctx context.Context, n int) error { order = append(order, "third"); return nil })

	err := h.Call(context.Background(), 1)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom error, got %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("expected handlers to stop after failure, got %v", order)
	}
}

func TestBailReturnsFirstOkAndSkipsRest(t *testing.T) {
	var called []string
	var h Bail[string, string]
	h.Tap(func(ctx context.Context, s string) (string, bool, error) {
		called = append(called, "a")
		return "", false, nil
	})
	h.Tap(func(ctx context.Context, s string) (string, bool, error) {
		called = append(called, "b")
		return "hit", true, nil
	})
	h.Tap(func(ctx context.Context, s string) (string, bool, error) {
		called = append(called, "c")
		return "never", true, nil
	})

	res, ok, err := h.Call(context.Background(), "req")
	if err != nil || !ok || res != "hit" {
		t.Fatalf("got res=%q ok=%v err=%v", res, ok, err)
	}
	if len(called) != 2 {
		t.Fatalf("expected bail to stop after first hit, called=%v", called)
	}
}

func TestBailPropagatesErrorAndStops(t *testing.T) {
	var called int
	var h Bail[string, string]
	h.Tap(func(ctx context.Context, s string) (string, bool, error) {
		called++
		return "", false, errors.New("fatal")
	})
	h.Tap(func(ctx context.Context, s string) (string, bool, error) {
		called++
		return "unreached", true, nil
	})

	_, ok, err := h.Call(context.Background(), "req")
	if err == nil || ok {
		t.Fatalf("expected fatal error, got ok=%v err=%v", ok, err)
	}
	if called != 1 {
		t.Fatalf("expected only first handler to run, called=%d", called)
	}
}

func TestCollectConcatenatesAllResults(t *testing.T) {
	var h Collect[int, string]
	h.Tap(func(ctx context.Context, n int) ([]string, error) { return []string{"a", "b"}, nil })
	h.Tap(func(ctx context.Context, n int) ([]string, error) { return nil, nil })
	h.Tap(func(ctx context.Context, n int) ([]string, error) { return []string{"c"}, nil })

	got, err := h.Call(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}
