package timeline

import "sort"

// Sequence operations are pure: they return a new timeline value with a fresh
// clip slice and never mutate their input. An unknown clip id is a no-op
// signalled by the returned bool; these sit on hot interaction paths, so
// nothing here panics or returns an error.

// Append places the clip at the end of the timeline (start = prior total
// duration) and settles the layout.
func Append(t Timeline, c Clip) Timeline {
	t = t.Clone()
	c.TimelineID = t.ID
	t.Clips = append(t.Clips, c)
	return settle(t)
}

// Remove deletes the clip and ripples every later clip left.
func Remove(t Timeline, clipID string) (Timeline, bool) {
	i := t.IndexOf(clipID)
	if i < 0 {
		return t, false
	}
	t = t.Clone()
	t.Clips = append(t.Clips[:i], t.Clips[i+1:]...)
	return settle(t), true
}

// Move re-ranks the clip by sorting on a blended key: the moved clip is keyed
// by desiredStart while every other clip keeps its current start. The sort is
// stable, so when two keys collide the current order wins. The desired time
// only ever decides relative order; the settled layout discards it and lays
// the sequence out contiguously again.
func Move(t Timeline, clipID string, desiredStart int64) (Timeline, bool) {
	if t.IndexOf(clipID) < 0 {
		return t, false
	}
	t = t.Clone()
	key := func(c Clip) int64 {
		if c.ID == clipID {
			return desiredStart
		}
		return c.Start
	}
	sort.SliceStable(t.Clips, func(i, j int) bool {
		return key(t.Clips[i]) < key(t.Clips[j])
	})
	return settle(t), true
}

// Trim replaces the clip's visible window and ripples later clips by the
// duration delta. Bounds against the source asset are the caller's concern
// (see ValidateTrim); the floor and non-negative offset are enforced here so
// no settled timeline ever carries a sub-minimum clip.
func Trim(t Timeline, clipID string, trimStart, duration int64) (Timeline, bool) {
	i := t.IndexOf(clipID)
	if i < 0 {
		return t, false
	}
	if trimStart < 0 {
		trimStart = 0
	}
	if duration < MinClipDuration {
		duration = MinClipDuration
	}
	t = t.Clone()
	t.Clips[i].TrimStart = trimStart
	t.Clips[i].Duration = duration
	return settle(t), true
}
