package timeline

import "math"

// TimeToPixels converts a millisecond position to pixel space at the given
// zoom level. pixelsPerMs is owned by the view, not the model.
func TimeToPixels(ms int64, pixelsPerMs float64) float64 {
	return float64(ms) * pixelsPerMs
}

// PixelsToTime converts a pixel offset back to integer milliseconds,
// rounding to the nearest ms. A non-positive zoom yields 0.
func PixelsToTime(px float64, pixelsPerMs float64) int64 {
	if pixelsPerMs <= 0 {
		return 0
	}
	return int64(math.Round(px / pixelsPerMs))
}

// Placement is the settled rank and start position for one clip.
type Placement struct {
	ClipID string `json:"clipId"`
	Order  int    `json:"order"`
	Start  int64  `json:"startTime"`
}

// RecalculatePositions returns the ripple-consistent layout for clips taken in
// their given order: the first clip starts at 0 and every subsequent clip
// starts at the previous clip's end. This is the single source of truth for
// the contiguity invariant; every insert, remove, trim and reorder settles
// through it. Calling it on an already-settled list returns the same layout.
func RecalculatePositions(clips []Clip) []Placement {
	placements := make([]Placement, len(clips))
	var cursor int64
	for i, c := range clips {
		placements[i] = Placement{ClipID: c.ID, Order: i, Start: cursor}
		cursor += c.Duration
	}
	return placements
}

// TotalDuration derives the timeline duration from a clip list: the greatest
// clip end, or 0 when empty. On a settled list this is simply the last clip's
// end, but unsettled input (mid-gesture previews) is handled too.
func TotalDuration(clips []Clip) int64 {
	var max int64
	for _, c := range clips {
		if end := c.End(); end > max {
			max = end
		}
	}
	return max
}

// settle writes the recalculated layout back into the timeline and refreshes
// the derived duration. Callers must pass a timeline whose clip slice is
// already private to them.
func settle(t Timeline) Timeline {
	for i, p := range RecalculatePositions(t.Clips) {
		t.Clips[i].Order = p.Order
		t.Clips[i].Start = p.Start
	}
	t.Duration = TotalDuration(t.Clips)
	return t
}
