// Package editor implements the client side of the timeline engine: the
// optimistic mutation controller, the pointer gestures that feed it, and the
// playback synchronizer that keeps the preview surface on the right clip. It
// reaches the studio service through the Persistence and AssetLibrary
// interfaces and owns no rendering; hosts attach hooks and paint whatever
// timeline they are handed.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/chasecyang/shotrio-engine/internal/timeline"
)

// MoveThreshold is the minimum displacement, in ms, that distinguishes a
// deliberate move from pointer jitter. Anything smaller commits nothing.
const MoveThreshold int64 = 10

var (
	// ErrMutationInFlight rejects a gesture while another mutation is still
	// settling. One mutation at a time keeps rollback snapshots unambiguous.
	ErrMutationInFlight = errors.New("editor: mutation already in flight")

	// ErrNoTimeline means Load has not succeeded yet.
	ErrNoTimeline = errors.New("editor: no timeline loaded")

	// ErrUnknownClip marks an operation on a clip id the current model does
	// not contain (usually removed by a concurrent session).
	ErrUnknownClip = errors.New("editor: unknown clip")

	// ErrInvalidTrim rejects a trim window that leaves the source media.
	ErrInvalidTrim = errors.New("editor: trim window out of bounds")
)

// MutationState is where the controller sits in a mutation's lifecycle.
type MutationState int

const (
	// MutationIdle: settled; gestures may begin.
	MutationIdle MutationState = iota
	// MutationPending: the optimistic layout is computed and rendered but the
	// remote call has not been issued yet.
	MutationPending
	// MutationCommitting: the remote call is in flight. New mutations are
	// rejected until it settles or rolls back.
	MutationCommitting
)

func (s MutationState) String() string {
	switch s {
	case MutationPending:
		return "pending"
	case MutationCommitting:
		return "committing"
	default:
		return "idle"
	}
}

// Hooks are the controller's outward notifications. All fields are optional
// and are invoked synchronously on the mutating goroutine.
type Hooks struct {
	// OnRender fires whenever the visible timeline changes: the optimistic
	// apply, the authoritative settle, and the rollback restore.
	OnRender func(timeline.Timeline)
	// OnSettle fires when a mutation transaction finishes and reports the
	// timeline the engine kept, usually the server's canonical response.
	// Playback must re-resolve against it.
	OnSettle func(timeline.Timeline)
	// OnRollback fires after a remote failure restored the pre-gesture
	// snapshot, with the error that caused it.
	OnRollback func(timeline.Timeline, error)
	// OnWarning fires for partial successes that keep local state but leave
	// the server layout stale until the repair worker settles it.
	OnWarning func(string)
}

func (h Hooks) render(t timeline.Timeline) {
	if h.OnRender != nil {
		h.OnRender(t)
	}
}

func (h Hooks) settle(t timeline.Timeline) {
	if h.OnSettle != nil {
		h.OnSettle(t)
	}
}

func (h Hooks) rollback(t timeline.Timeline, err error) {
	if h.OnRollback != nil {
		h.OnRollback(t, err)
	}
}

func (h Hooks) warn(msg string) {
	if h.OnWarning != nil {
		h.OnWarning(msg)
	}
}

// Controller owns the editable timeline model and runs every mutation through
// the same transaction shape: snapshot, apply locally, render, commit remote,
// then settle on the server's response or roll back to the snapshot. At most
// one mutation is in flight; concurrent gestures get ErrMutationInFlight.
type Controller struct {
	store   Persistence
	library AssetLibrary
	hooks   Hooks

	mu      sync.Mutex
	state   MutationState
	current timeline.Timeline
	loaded  bool
}

func NewController(store Persistence, library AssetLibrary, hooks Hooks) *Controller {
	return &Controller{store: store, library: library, hooks: hooks}
}

// Load fetches (or creates) the project's timeline and installs it as the
// settled model.
func (c *Controller) Load(ctx context.Context, projectID string) (timeline.Timeline, error) {
	t, err := c.store.LoadOrCreateTimeline(ctx, projectID)
	if err != nil {
		return timeline.Timeline{}, fmt.Errorf("load timeline: %w", err)
	}
	c.mu.Lock()
	c.current = t
	c.loaded = true
	c.state = MutationIdle
	c.mu.Unlock()
	c.hooks.render(t.Clone())
	return t.Clone(), nil
}

// Reload refetches the authoritative timeline; used when a broadcast event
// signals the model changed server-side (another session, the repair worker).
// Skipped while a mutation is in flight: the settle brings fresh state anyway.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	if !c.loaded {
		c.mu.Unlock()
		return ErrNoTimeline
	}
	if c.state != MutationIdle {
		c.mu.Unlock()
		return ErrMutationInFlight
	}
	id := c.current.ID
	c.mu.Unlock()

	t, err := c.store.FetchTimeline(ctx, id)
	if err != nil {
		return fmt.Errorf("reload timeline: %w", err)
	}

	c.mu.Lock()
	if c.state != MutationIdle {
		// A gesture started while we fetched; its settle wins.
		c.mu.Unlock()
		return ErrMutationInFlight
	}
	c.current = t
	c.mu.Unlock()
	c.hooks.render(t.Clone())
	c.hooks.settle(t.Clone())
	return nil
}

// Timeline returns a copy of the currently visible model.
func (c *Controller) Timeline() timeline.Timeline {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Clone()
}

// State reports where the controller sits in the mutation lifecycle.
func (c *Controller) State() MutationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// AppendAsset adds a clip for the asset at the end of the timeline. The clip
// window defaults to the whole source, or DefaultClipDuration when the asset
// has no known length yet.
func (c *Controller) AppendAsset(ctx context.Context, assetID string) error {
	asset, err := c.resolveAsset(ctx, assetID)
	if err != nil {
		return err
	}

	snapshot, err := c.begin()
	if err != nil {
		return err
	}

	clip := timeline.NewClip(uuid.NewString(), asset)
	next := timeline.Append(snapshot, clip)
	c.applyOptimistic(next)

	settled, err := c.store.AppendClip(ctx, snapshot.ID, AppendRequest{
		AssetID:   assetID,
		StartTime: snapshot.Duration,
		Duration:  clip.Duration,
	})
	if err != nil {
		c.rollbackTo(snapshot, err)
		return err
	}
	c.settleWith(settled)
	return nil
}

// Remove deletes the clip and ripples every later clip left.
func (c *Controller) Remove(ctx context.Context, clipID string) error {
	snapshot, err := c.begin()
	if err != nil {
		return err
	}

	next, ok := timeline.Remove(snapshot, clipID)
	if !ok {
		c.abort()
		return ErrUnknownClip
	}
	c.applyOptimistic(next)

	settled, err := c.store.RemoveClip(ctx, snapshot.ID, clipID)
	if err != nil {
		c.rollbackTo(snapshot, err)
		return err
	}
	c.settleWith(settled)
	return nil
}

// Move re-ranks the clip toward desiredStart and persists the new order.
// Displacements under MoveThreshold are dropped without remote traffic.
func (c *Controller) Move(ctx context.Context, clipID string, desiredStart int64) error {
	snapshot, err := c.begin()
	if err != nil {
		return err
	}

	cur, ok := snapshot.ClipByID(clipID)
	if !ok {
		c.abort()
		return ErrUnknownClip
	}
	delta := desiredStart - cur.Start
	if delta < 0 {
		delta = -delta
	}
	if delta < MoveThreshold {
		c.abort()
		return nil
	}

	next, _ := timeline.Move(snapshot, clipID, desiredStart)
	c.applyOptimistic(next)

	settled, err := c.store.ReorderClips(ctx, snapshot.ID, placementsOf(next))
	if err != nil {
		c.rollbackTo(snapshot, err)
		return err
	}
	c.settleWith(settled)
	return nil
}

// Trim replaces the clip's visible window. Persisting is two-phased: first
// the clip's own trim values, then the ripple for every later clip. A failure
// in phase one rolls everything back; a failure in phase two keeps the trim
// (it is already durable server-side, restoring the snapshot would lose it),
// flags the model stale and lets the server's repair worker settle the rest.
func (c *Controller) Trim(ctx context.Context, clipID string, trimStart, duration int64) error {
	snapshot, err := c.begin()
	if err != nil {
		return err
	}

	cur, ok := snapshot.ClipByID(clipID)
	if !ok {
		c.abort()
		return ErrUnknownClip
	}
	if trimStart == cur.TrimStart && duration == cur.Duration {
		c.abort()
		return nil
	}
	if !timeline.ValidateTrim(trimStart, duration, c.sourceDuration(ctx, cur.AssetID)) {
		c.abort()
		return ErrInvalidTrim
	}

	next, _ := timeline.Trim(snapshot, clipID, trimStart, duration)
	c.applyOptimistic(next)

	if _, err := c.store.UpdateClip(ctx, snapshot.ID, clipID, ClipPatch{
		TrimStart: &trimStart,
		Duration:  &duration,
	}); err != nil {
		c.rollbackTo(snapshot, err)
		return err
	}

	settled, err := c.store.ReorderClips(ctx, snapshot.ID, placementsOf(next))
	if err != nil {
		c.mu.Lock()
		c.current.NeedsLayout = true
		kept := c.current.Clone()
		c.state = MutationIdle
		c.mu.Unlock()
		c.hooks.warn("clip trimmed, but the new layout was not saved; it will be repaired shortly")
		c.hooks.render(kept)
		c.hooks.settle(kept)
		return nil
	}
	c.settleWith(settled)
	return nil
}

// begin snapshots the settled model and marks the mutation Pending. Callers
// compute the optimistic layout from the returned snapshot.
func (c *Controller) begin() (timeline.Timeline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return timeline.Timeline{}, ErrNoTimeline
	}
	if c.state != MutationIdle {
		return timeline.Timeline{}, ErrMutationInFlight
	}
	c.state = MutationPending
	return c.current.Clone(), nil
}

// abort cancels a begun mutation that turned out to be a no-op.
func (c *Controller) abort() {
	c.mu.Lock()
	c.state = MutationIdle
	c.mu.Unlock()
}

// applyOptimistic installs the locally computed layout and renders it, then
// marks the remote call in flight. The render happens before any network
// traffic; that ordering is the whole point of the optimistic path.
func (c *Controller) applyOptimistic(next timeline.Timeline) {
	c.mu.Lock()
	c.current = next
	c.mu.Unlock()
	c.hooks.render(next.Clone())
	c.mu.Lock()
	c.state = MutationCommitting
	c.mu.Unlock()
}

// settleWith installs the server's canonical timeline and closes the
// transaction.
func (c *Controller) settleWith(settled timeline.Timeline) {
	c.mu.Lock()
	c.current = settled
	c.state = MutationIdle
	c.mu.Unlock()
	c.hooks.render(settled.Clone())
	c.hooks.settle(settled.Clone())
}

// rollbackTo restores the pre-gesture snapshot bit-for-bit.
func (c *Controller) rollbackTo(snapshot timeline.Timeline, cause error) {
	c.mu.Lock()
	c.current = snapshot
	c.state = MutationIdle
	c.mu.Unlock()
	c.hooks.render(snapshot.Clone())
	c.hooks.rollback(snapshot.Clone(), cause)
}

func (c *Controller) resolveAsset(ctx context.Context, assetID string) (timeline.Asset, error) {
	if c.library == nil {
		return timeline.Asset{}, ErrUnknownAsset
	}
	asset, err := c.library.Resolve(ctx, assetID)
	if err != nil {
		return timeline.Asset{}, fmt.Errorf("resolve asset %s: %w", assetID, err)
	}
	return asset, nil
}

// sourceDuration looks up the asset's native length for trim bounds. Unknown
// assets report 0, which ValidateTrim treats as "length unknown, fail open".
func (c *Controller) sourceDuration(ctx context.Context, assetID string) int64 {
	if c.library == nil {
		return 0
	}
	asset, err := c.library.Resolve(ctx, assetID)
	if err != nil {
		return 0
	}
	return asset.Duration
}

func placementsOf(t timeline.Timeline) []timeline.Placement {
	out := make([]timeline.Placement, len(t.Clips))
	for i, c := range t.Clips {
		out[i] = timeline.Placement{ClipID: c.ID, Order: c.Order, Start: c.Start}
	}
	return out
}
