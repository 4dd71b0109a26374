package editor

import (
	"context"

	"github.com/chasecyang/shotrio-engine/internal/timeline"
)

// Gestures wrap a pointer interaction from press to release. While the
// pointer is down they produce cosmetic preview layouts from a frozen base
// model; nothing touches the controller until End, so a cancelled gesture
// costs no remote traffic and no rollback.

// DragGesture is a clip being moved along the timeline.
type DragGesture struct {
	ctrl        *Controller
	clipID      string
	pixelsPerMs float64
	base        timeline.Timeline
	grabOffset  int64
	desired     int64
	done        bool
}

// BeginDrag starts a drag on the clip under the pointer. pointerPx is the
// pointer's timeline-space x position at press time; the offset between it
// and the clip's left edge is kept so the clip does not jump under the
// cursor. Returns false when the clip is unknown or a mutation is in flight.
func (c *Controller) BeginDrag(clipID string, pixelsPerMs, pointerPx float64) (*DragGesture, bool) {
	c.mu.Lock()
	busy := !c.loaded || c.state != MutationIdle
	base := c.current.Clone()
	c.mu.Unlock()
	if busy {
		return nil, false
	}

	clip, ok := base.ClipByID(clipID)
	if !ok {
		return nil, false
	}
	return &DragGesture{
		ctrl:        c,
		clipID:      clipID,
		pixelsPerMs: pixelsPerMs,
		base:        base,
		grabOffset:  timeline.PixelsToTime(pointerPx, pixelsPerMs) - clip.Start,
		desired:     clip.Start,
	}, true
}

// Update recomputes the preview layout for the current pointer position. The
// returned timeline is contiguous but purely local.
func (g *DragGesture) Update(pointerPx float64) timeline.Timeline {
	g.desired = timeline.PixelsToTime(pointerPx, g.pixelsPerMs) - g.grabOffset
	preview, _ := timeline.Move(g.base, g.clipID, g.desired)
	return preview
}

// End commits the gesture through the controller. Displacements under
// MoveThreshold are dropped without remote traffic.
func (g *DragGesture) End(ctx context.Context) error {
	if g.done {
		return nil
	}
	g.done = true
	return g.ctrl.Move(ctx, g.clipID, g.desired)
}

// Cancel abandons the gesture; the settled model was never touched.
func (g *DragGesture) Cancel() {
	g.done = true
}

// TrimEdge selects which end of the clip a trim handle moves.
type TrimEdge int

const (
	// TrimLeft moves the in-point: trimStart advances and duration shrinks
	// by the same amount, so the media out-point stays fixed.
	TrimLeft TrimEdge = iota
	// TrimRight moves the out-point: only duration changes.
	TrimRight
)

// TrimGesture is a clip edge being dragged.
type TrimGesture struct {
	ctrl        *Controller
	clipID      string
	edge        TrimEdge
	pixelsPerMs float64
	base        timeline.Timeline
	orig        timeline.Clip
	source      int64
	trimStart   int64
	duration    int64
	done        bool
}

// BeginTrim starts a trim on one edge of the clip. The source asset's
// duration is resolved once up front so every Update can clamp against it
// without further lookups; an unresolvable asset clamps local-only.
func (c *Controller) BeginTrim(ctx context.Context, clipID string, edge TrimEdge, pixelsPerMs float64) (*TrimGesture, bool) {
	c.mu.Lock()
	busy := !c.loaded || c.state != MutationIdle
	base := c.current.Clone()
	c.mu.Unlock()
	if busy {
		return nil, false
	}

	clip, ok := base.ClipByID(clipID)
	if !ok {
		return nil, false
	}
	return &TrimGesture{
		ctrl:        c,
		clipID:      clipID,
		edge:        edge,
		pixelsPerMs: pixelsPerMs,
		base:        base,
		orig:        clip,
		source:      c.sourceDuration(ctx, clip.AssetID),
		trimStart:   clip.TrimStart,
		duration:    clip.Duration,
	}, true
}

// Update recomputes the preview for a pointer displacement of deltaPx from
// the press position. The window is clamped live, so the preview never shows
// a state that would fail validation on End.
func (g *TrimGesture) Update(deltaPx float64) timeline.Timeline {
	delta := timeline.PixelsToTime(deltaPx, g.pixelsPerMs)
	trimStart, duration := g.orig.TrimStart, g.orig.Duration

	switch g.edge {
	case TrimLeft:
		// The out-point must not move: clamp the delta so the in-point
		// stays inside the media and the window keeps its floor.
		if delta < -trimStart {
			delta = -trimStart
		}
		if max := duration - timeline.MinClipDuration; delta > max {
			delta = max
		}
		trimStart += delta
		duration -= delta
	case TrimRight:
		duration += delta
	}

	g.trimStart, g.duration = timeline.ClampTrim(trimStart, duration, g.source)
	preview, _ := timeline.Trim(g.base, g.clipID, g.trimStart, g.duration)
	return preview
}

// End commits the final window through the controller. A gesture that never
// changed the window is a no-op.
func (g *TrimGesture) End(ctx context.Context) error {
	if g.done {
		return nil
	}
	g.done = true
	return g.ctrl.Trim(ctx, g.clipID, g.trimStart, g.duration)
}

// Cancel abandons the gesture.
func (g *TrimGesture) Cancel() {
	g.done = true
}

// Scrubber translates ruler pointer positions into playhead seeks.
type Scrubber struct {
	sync        *Synchronizer
	pixelsPerMs float64
}

func NewScrubber(sync *Synchronizer, pixelsPerMs float64) *Scrubber {
	return &Scrubber{sync: sync, pixelsPerMs: pixelsPerMs}
}

// ScrubTo seeks to the time under the pointer and returns the clamped
// playhead position, so the view can draw the indicator where the engine
// actually landed.
func (s *Scrubber) ScrubTo(ctx context.Context, px float64) int64 {
	s.sync.Seek(ctx, timeline.PixelsToTime(px, s.pixelsPerMs))
	return s.sync.Playhead()
}
