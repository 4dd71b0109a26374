package timeline

import (
	"fmt"
	"reflect"
	"testing"
)

func TestAppend(t *testing.T) {
	t.Run("to empty timeline", func(t *testing.T) {
		tl := Timeline{ID: "tl-1"}
		asset := Asset{ID: "asset-c", Duration: 4000}

		got := Append(tl, NewClip("clip-c", asset))

		if len(got.Clips) != 1 {
			t.Fatalf("expected 1 clip, got %d", len(got.Clips))
		}
		c := got.Clips[0]
		if c.Start != 0 || c.Duration != 4000 || c.TrimStart != 0 {
			t.Errorf("clip = start %d duration %d trimStart %d, want 0/4000/0", c.Start, c.Duration, c.TrimStart)
		}
		if c.TimelineID != "tl-1" {
			t.Errorf("clip timeline id = %q, want tl-1", c.TimelineID)
		}
		if got.Duration != 4000 {
			t.Errorf("timeline duration = %d, want 4000", got.Duration)
		}
	})

	t.Run("lands at the tail", func(t *testing.T) {
		tl := settledTimeline(3000, 2000)

		got := Append(tl, NewClip("clip-new", Asset{ID: "asset-new", Duration: 1500}))

		last := got.Clips[len(got.Clips)-1]
		if last.Start != 5000 {
			t.Errorf("appended clip start = %d, want 5000", last.Start)
		}
		if got.Duration != 6500 {
			t.Errorf("timeline duration = %d, want 6500", got.Duration)
		}
		assertSettled(t, got)
	})

	t.Run("unknown asset duration falls back", func(t *testing.T) {
		c := NewClip("clip-x", Asset{ID: "asset-x", Duration: 0})
		if c.Duration != DefaultClipDuration {
			t.Errorf("clip duration = %d, want %d", c.Duration, DefaultClipDuration)
		}
	})
}

func TestRemove(t *testing.T) {
	// [A: 0-3000, B: 3000-5000]. Removing A ripples B back to 0.
	t.Run("ripples later clips left", func(t *testing.T) {
		tl := settledTimeline(3000, 2000)

		got, ok := Remove(tl, "clip-0")
		if !ok {
			t.Fatal("expected remove to apply")
		}
		if len(got.Clips) != 1 {
			t.Fatalf("expected 1 clip, got %d", len(got.Clips))
		}
		b := got.Clips[0]
		if b.ID != "clip-1" || b.Start != 0 || b.Duration != 2000 {
			t.Errorf("remaining clip = %s start %d duration %d, want clip-1/0/2000", b.ID, b.Start, b.Duration)
		}
		if got.Duration != 2000 {
			t.Errorf("timeline duration = %d, want 2000", got.Duration)
		}
	})

	t.Run("last clip leaves an empty timeline", func(t *testing.T) {
		tl := settledTimeline(4000)

		got, ok := Remove(tl, "clip-0")
		if !ok {
			t.Fatal("expected remove to apply")
		}
		if len(got.Clips) != 0 || got.Duration != 0 {
			t.Errorf("expected empty timeline with duration 0, got %d clips duration %d", len(got.Clips), got.Duration)
		}
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		tl := settledTimeline(3000, 2000)

		got, ok := Remove(tl, "clip-missing")
		if ok {
			t.Fatal("expected no-op for unknown id")
		}
		if !reflect.DeepEqual(got, tl) {
			t.Errorf("timeline changed on no-op: %+v vs %+v", got, tl)
		}
	})
}

func TestMove(t *testing.T) {
	// Timelines below are [clip-0: 0-3000, clip-1: 3000-5000, clip-2: 5000-9000].
	// The desired start only decides relative order; the settled layout is
	// always contiguous from 0.
	tests := []struct {
		name         string
		clipID       string
		desiredStart int64
		wantOrder    []string
	}{
		{
			// Drag the first clip past the second. Settles as [1, 0, 2].
			name:         "forward move",
			clipID:       "clip-0",
			desiredStart: 3500,
			wantOrder:    []string{"clip-1", "clip-0", "clip-2"},
		},
		{
			// Drag the last clip left of the origin. Its key sorts below
			// every settled start, so it becomes the head.
			name:         "backward move past origin",
			clipID:       "clip-2",
			desiredStart: -500,
			wantOrder:    []string{"clip-2", "clip-0", "clip-1"},
		},
		{
			// Desired start lands exactly on clip-0's start. Equal keys are a
			// stable tie: the clip that was already there stays first.
			name:         "equal key keeps original order",
			clipID:       "clip-2",
			desiredStart: 0,
			wantOrder:    []string{"clip-0", "clip-2", "clip-1"},
		},
		{
			// Tiny nudge that crosses no other clip's start.
			name:         "nudge within own slot",
			clipID:       "clip-1",
			desiredStart: 3200,
			wantOrder:    []string{"clip-0", "clip-1", "clip-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := settledTimeline(3000, 2000, 4000)

			got, ok := Move(tl, tt.clipID, tt.desiredStart)
			if !ok {
				t.Fatal("expected move to apply")
			}
			gotOrder := make([]string, len(got.Clips))
			for i, c := range got.Clips {
				gotOrder[i] = c.ID
			}
			if !reflect.DeepEqual(gotOrder, tt.wantOrder) {
				t.Errorf("order = %v, want %v", gotOrder, tt.wantOrder)
			}
			if got.Duration != tl.Duration {
				t.Errorf("move changed total duration: %d -> %d", tl.Duration, got.Duration)
			}
			assertSettled(t, got)
		})
	}

	// Scenario from the drag surface: A first, B second, A dragged after B.
	t.Run("two clip swap", func(t *testing.T) {
		tl := settledTimeline(3000, 2000)

		got, ok := Move(tl, "clip-0", 4500)
		if !ok {
			t.Fatal("expected move to apply")
		}
		if got.Clips[0].ID != "clip-1" || got.Clips[0].Start != 0 {
			t.Errorf("first clip = %s at %d, want clip-1 at 0", got.Clips[0].ID, got.Clips[0].Start)
		}
		if got.Clips[1].ID != "clip-0" || got.Clips[1].Start != 2000 {
			t.Errorf("second clip = %s at %d, want clip-0 at 2000", got.Clips[1].ID, got.Clips[1].Start)
		}
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		tl := settledTimeline(3000, 2000)
		got, ok := Move(tl, "clip-missing", 0)
		if ok {
			t.Fatal("expected no-op for unknown id")
		}
		if !reflect.DeepEqual(got, tl) {
			t.Errorf("timeline changed on no-op")
		}
	})
}

func TestTrimOp(t *testing.T) {
	// Growing the last clip ripples nothing else; only the total moves.
	t.Run("extend right edge of last clip", func(t *testing.T) {
		tl := settledTimeline(3000, 2000)

		got, ok := Trim(tl, "clip-1", 0, 2500)
		if !ok {
			t.Fatal("expected trim to apply")
		}
		if got.Clips[0].Start != 0 || got.Clips[0].Duration != 3000 {
			t.Errorf("untouched clip moved: start %d duration %d", got.Clips[0].Start, got.Clips[0].Duration)
		}
		if got.Duration != 5500 {
			t.Errorf("timeline duration = %d, want 5500", got.Duration)
		}
	})

	t.Run("shrinking a middle clip ripples later clips", func(t *testing.T) {
		tl := settledTimeline(3000, 2000, 4000)

		got, ok := Trim(tl, "clip-1", 500, 1000)
		if !ok {
			t.Fatal("expected trim to apply")
		}
		if got.Clips[1].TrimStart != 500 || got.Clips[1].Duration != 1000 {
			t.Errorf("trimmed clip = trimStart %d duration %d, want 500/1000", got.Clips[1].TrimStart, got.Clips[1].Duration)
		}
		if got.Clips[2].Start != 4000 {
			t.Errorf("later clip start = %d, want 4000", got.Clips[2].Start)
		}
		if got.Duration != 8000 {
			t.Errorf("timeline duration = %d, want 8000", got.Duration)
		}
		assertSettled(t, got)
	})

	t.Run("duration is floored", func(t *testing.T) {
		tl := settledTimeline(3000, 2000)

		got, ok := Trim(tl, "clip-0", 0, 100)
		if !ok {
			t.Fatal("expected trim to apply")
		}
		if got.Clips[0].Duration != MinClipDuration {
			t.Errorf("clip duration = %d, want floor %d", got.Clips[0].Duration, MinClipDuration)
		}
	})

	t.Run("negative trimStart is clamped", func(t *testing.T) {
		tl := settledTimeline(3000)

		got, ok := Trim(tl, "clip-0", -200, 1000)
		if !ok {
			t.Fatal("expected trim to apply")
		}
		if got.Clips[0].TrimStart != 0 {
			t.Errorf("trimStart = %d, want 0", got.Clips[0].TrimStart)
		}
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		tl := settledTimeline(3000)
		got, ok := Trim(tl, "clip-missing", 0, 1000)
		if ok {
			t.Fatal("expected no-op for unknown id")
		}
		if !reflect.DeepEqual(got, tl) {
			t.Errorf("timeline changed on no-op")
		}
	})
}

// TestOperationsDoNotMutateInput locks in the value semantics: every op works
// on a private clone, so the caller's snapshot survives for rollback.
func TestOperationsDoNotMutateInput(t *testing.T) {
	tl := settledTimeline(3000, 2000, 4000)
	before := tl.Clone()

	Append(tl, NewClip("clip-new", Asset{ID: "a", Duration: 1000}))
	Remove(tl, "clip-0")
	Move(tl, "clip-2", 0)
	Trim(tl, "clip-1", 100, 600)

	if !reflect.DeepEqual(tl, before) {
		t.Errorf("input timeline mutated:\n got %+v\nwant %+v", tl, before)
	}
}

// TestOperationChainStaysSettled runs a realistic editing session and checks
// the contiguity and duration invariants hold after every step.
func TestOperationChainStaysSettled(t *testing.T) {
	tl := Timeline{ID: "tl-1"}
	for i, d := range []int64{3000, 2000, 4000, 1500} {
		tl = Append(tl, NewClip(fmt.Sprintf("clip-%d", i), Asset{ID: fmt.Sprintf("asset-%d", i), Duration: d}))
		assertSettled(t, tl)
	}

	tl, _ = Move(tl, "clip-3", 0)
	assertSettled(t, tl)

	tl, _ = Trim(tl, "clip-1", 1000, 800)
	assertSettled(t, tl)

	tl, _ = Remove(tl, "clip-2")
	assertSettled(t, tl)

	tl, _ = Move(tl, "clip-0", 10_000)
	assertSettled(t, tl)

	wantOrder := []string{"clip-3", "clip-1", "clip-0"}
	gotOrder := make([]string, len(tl.Clips))
	for i, c := range tl.Clips {
		gotOrder[i] = c.ID
	}
	if !reflect.DeepEqual(gotOrder, wantOrder) {
		t.Errorf("final order = %v, want %v", gotOrder, wantOrder)
	}
}

// assertSettled checks the ripple invariant: first clip at 0, every clip
// flush against the previous one, order fields matching array order, and the
// derived duration equal to the last clip's end.
func assertSettled(t *testing.T, tl Timeline) {
	t.Helper()
	var cursor int64
	for i, c := range tl.Clips {
		if c.Start != cursor {
			t.Errorf("clip %d (%s): start = %d, want %d", i, c.ID, c.Start, cursor)
		}
		if c.Order != i {
			t.Errorf("clip %d (%s): order = %d, want %d", i, c.ID, c.Order, i)
		}
		cursor += c.Duration
	}
	if tl.Duration != cursor {
		t.Errorf("timeline duration = %d, want %d", tl.Duration, cursor)
	}
}

// settledTimeline builds a contiguous timeline whose clips are named clip-0,
// clip-1, ... with the given durations.
func settledTimeline(durations ...int64) Timeline {
	return settle(Timeline{ID: "tl-1", Clips: clipsWithDurations(durations...)})
}

func clipsWithDurations(durations ...int64) []Clip {
	clips := make([]Clip, len(durations))
	for i, d := range durations {
		clips[i] = Clip{
			ID:       fmt.Sprintf("clip-%d", i),
			AssetID:  fmt.Sprintf("asset-%d", i),
			Duration: d,
		}
	}
	return clips
}
