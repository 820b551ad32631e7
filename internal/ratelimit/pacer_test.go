package ratelimit

import (
	"context"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// =============================================================================
// Property: a disabled pacer never delays
// =============================================================================

func testPacer_DisabledNeverDelays(t *rapid.T) {
	gap := -time.Duration(rapid.IntRange(0, 1000).Draw(t, "neg")) * time.Millisecond
	actions := rapid.IntRange(1, 50).Draw(t, "actions")
	p := NewPacer(gap)
	if p.Gap() != 0 {
		t.Fatalf("pacer with gap %v should be disabled, got gap %v", gap, p.Gap())
	}
	start := time.Now()
	for range actions {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("disabled pacer Wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Fatalf("%d actions on a disabled pacer took %v", actions, elapsed)
	}
}

func TestPacer_DisabledNeverDelays(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testPacer_DisabledNeverDelays)
}

func TestPacer_NilIsSafe(t *testing.T) {
	t.Parallel()
	var p *Pacer
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("nil pacer Wait: %v", err)
	}
	if p.Gap() != 0 {
		t.Fatal("nil pacer should be disabled")
	}
}

func TestPacer_WaitHonorsCancellation(t *testing.T) {
	t.Parallel()
	p := NewPacer(time.Hour)
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait should not block: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Wait(ctx); err == nil {
		t.Fatal("expected error from canceled context")
	}
}

func TestPacer_WaitSpacesActions(t *testing.T) {
	t.Parallel()
	const gap = 30 * time.Millisecond
	p := NewPacer(gap)
	ctx := context.Background()

	start := time.Now()
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if first := time.Since(start); first > gap/2 {
		t.Fatalf("first action delayed by %v", first)
	}
	for range 3 {
		if err := p.Wait(ctx); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 3*gap-5*time.Millisecond {
		t.Fatalf("four paced actions finished in %v, want >= ~%v", elapsed, 3*gap)
	}
}
