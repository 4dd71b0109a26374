package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chasecyang/shotrio-engine/internal/timeline"
)

// ErrNoMediaSource marks an asset whose catalog row carries no playable URL.
var ErrNoMediaSource = errors.New("editor: asset has no media source")

// PlaybackState is the transport's position in its lifecycle.
type PlaybackState int

const (
	// PlaybackIdle: no clips, or playback ran off the end of the last clip.
	PlaybackIdle PlaybackState = iota
	PlaybackPaused
	PlaybackPlaying
)

func (s PlaybackState) String() string {
	switch s {
	case PlaybackPaused:
		return "paused"
	case PlaybackPlaying:
		return "playing"
	default:
		return "idle"
	}
}

// Synchronizer maps the global playhead onto the clip sequence and drives the
// player accordingly: it resolves which clip owns the playhead, converts
// timeline positions into media offsets, keeps the standby slot preloaded
// with the next clip, and swaps clips when playback crosses a boundary.
//
// It never mutates the timeline. Mutations settle elsewhere and arrive here
// through Refresh, after which the active clip is re-resolved from scratch.
// All methods are serialized on an internal lock; player calls happen with
// that lock held, which is why Player implementations must not call back in.
type Synchronizer struct {
	player  Player
	library AssetLibrary

	mu        sync.Mutex
	model     timeline.Timeline
	state     PlaybackState
	playhead  int64
	activeID  string
	standbyID string
	mediaErr  error
}

func NewSynchronizer(player Player, library AssetLibrary) *Synchronizer {
	return &Synchronizer{player: player, library: library}
}

// Refresh installs a newly settled timeline and re-resolves the active clip
// against it. Settles replace the model wholesale, so skipping this after a
// mutation would leave the preview pointed at a stale clip or a stale trim
// window.
func (s *Synchronizer) Refresh(ctx context.Context, t timeline.Timeline) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.model = t.Clone()
	target := s.playhead
	if target > s.model.Duration {
		target = s.model.Duration
	}
	s.locate(ctx, target, true)
}

// Seek moves the playhead to target (clamped to the timeline) and points the
// player at whatever clip owns that position.
func (s *Synchronizer) Seek(ctx context.Context, target int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if target < 0 {
		target = 0
	}
	if target > s.model.Duration {
		target = s.model.Duration
	}
	s.locate(ctx, target, false)
}

// Play starts the transport. Parked at the end, it restarts from the top.
// An empty timeline is a no-op. A clip whose media failed to load returns
// that error instead of silently skipping ahead.
func (s *Synchronizer) Play(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.model.Clips) == 0 {
		return nil
	}
	if s.state == PlaybackPlaying {
		return nil
	}
	if s.playhead >= s.model.Duration {
		s.locate(ctx, 0, false)
	} else if s.activeID == "" {
		s.locate(ctx, s.playhead, false)
	}
	if s.mediaErr != nil {
		return s.mediaErr
	}
	s.state = PlaybackPlaying
	s.player.Play()
	return nil
}

// Pause stops the transport in place.
func (s *Synchronizer) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != PlaybackPlaying {
		return
	}
	s.player.Pause()
	s.state = PlaybackPaused
}

// SkipNext jumps to the start of the following clip. On the last clip (or
// with nothing to follow) it does nothing; it never wraps around.
func (s *Synchronizer) SkipNext(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.transportIndex()
	if idx < 0 || idx+1 >= len(s.model.Clips) {
		return
	}
	s.locate(ctx, s.model.Clips[idx+1].Start, false)
}

// SkipPrev jumps to the start of the preceding clip; on the first clip it
// rewinds to position 0 instead.
func (s *Synchronizer) SkipPrev(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.transportIndex()
	if idx <= 0 {
		if len(s.model.Clips) > 0 {
			s.locate(ctx, 0, false)
		}
		return
	}
	s.locate(ctx, s.model.Clips[idx-1].Start, false)
}

// HandleProgress advances the playhead from the player's media clock. offset
// is the current position inside the active clip's source, in ms. Crossing
// the clip's out-point swaps to the next clip, whose media is already in the
// standby slot; running off the last clip parks the transport Idle at the
// end of the timeline.
func (s *Synchronizer) HandleProgress(ctx context.Context, offset int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != PlaybackPlaying || s.activeID == "" {
		return
	}
	idx := s.model.IndexOf(s.activeID)
	if idx < 0 {
		// Model changed under us; the next Refresh re-resolves.
		return
	}
	clip := s.model.Clips[idx]
	if offset < clip.TrimEnd() {
		s.playhead = clip.Start + (offset - clip.TrimStart)
		return
	}

	if idx+1 >= len(s.model.Clips) {
		s.playhead = s.model.Duration
		s.activeID = ""
		s.player.Pause()
		s.state = PlaybackIdle
		return
	}

	s.locate(ctx, s.model.Clips[idx+1].Start, false)
}

// State reports the transport state.
func (s *Synchronizer) State() PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Playhead reports the global playhead position in ms.
func (s *Synchronizer) Playhead() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playhead
}

// ActiveClip returns the clip the player is currently pointed at, if any.
func (s *Synchronizer) ActiveClip() (timeline.Clip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.ClipByID(s.activeID)
}

// Err reports the active clip's media error, nil when playback is healthy.
func (s *Synchronizer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mediaErr
}

// locate points the player at the clip owning target and manages the standby
// preload. force reloads even when the active clip id is unchanged, for
// refreshes where the clip's trim values may have moved. Lock held.
func (s *Synchronizer) locate(ctx context.Context, target int64, force bool) {
	s.playhead = target

	clip, ok := s.model.ClipAt(target)
	if !ok {
		// At or past the end of the last clip, or no clips at all.
		s.activeID = ""
		s.mediaErr = nil
		s.dropPreload()
		if s.state == PlaybackPlaying {
			s.player.Pause()
		}
		s.state = PlaybackIdle
		if len(s.model.Clips) == 0 {
			s.playhead = 0
		}
		return
	}

	offset := clip.TrimStart + (target - clip.Start)
	if clip.ID != s.activeID || force || s.mediaErr != nil {
		s.loadClip(ctx, clip, offset)
		if s.state == PlaybackPlaying && s.mediaErr == nil {
			// A load replaces the media surface; playing must be re-kicked.
			s.player.Play()
		}
	} else {
		s.player.Seek(offset)
	}
	if s.state == PlaybackIdle {
		s.state = PlaybackPaused
	}
}

// loadClip resolves the clip's media and loads it at the given offset. A
// failure is held as inline state: the transport stops on the broken clip
// and never skips ahead on its own. Lock held.
func (s *Synchronizer) loadClip(ctx context.Context, clip timeline.Clip, offset int64) {
	src, err := s.resolveSrc(ctx, clip)
	if err == nil {
		err = s.player.Load(ctx, src, offset)
	}
	if err != nil {
		s.mediaErr = fmt.Errorf("clip %s: %w", clip.ID, err)
		s.activeID = clip.ID
		if s.state == PlaybackPlaying {
			s.player.Pause()
			s.state = PlaybackPaused
		}
		return
	}
	s.mediaErr = nil
	s.activeID = clip.ID
	s.refreshPreload(ctx)
}

// refreshPreload keeps the standby slot pointed at the clip after the active
// one. Preloading is best-effort: a clip that cannot resolve now will surface
// its error at the boundary swap instead. Lock held.
func (s *Synchronizer) refreshPreload(ctx context.Context) {
	idx := s.model.IndexOf(s.activeID)
	if idx < 0 || idx+1 >= len(s.model.Clips) {
		s.dropPreload()
		return
	}
	next := s.model.Clips[idx+1]
	if next.ID == s.standbyID {
		return
	}
	src, err := s.resolveSrc(ctx, next)
	if err != nil {
		s.dropPreload()
		return
	}
	s.standbyID = next.ID
	s.player.Preload(src)
}

func (s *Synchronizer) dropPreload() {
	if s.standbyID == "" {
		return
	}
	s.standbyID = ""
	s.player.CancelPreload()
}

func (s *Synchronizer) resolveSrc(ctx context.Context, clip timeline.Clip) (string, error) {
	asset, err := s.library.Resolve(ctx, clip.AssetID)
	if err != nil {
		return "", err
	}
	if asset.MediaURL == "" {
		return "", ErrNoMediaSource
	}
	return asset.MediaURL, nil
}

// transportIndex derives the clip index the transport is logically on: the
// active clip when one is loaded, otherwise the slot implied by the playhead
// (len(clips) when parked past the end). Lock held.
func (s *Synchronizer) transportIndex() int {
	if s.activeID != "" {
		return s.model.IndexOf(s.activeID)
	}
	if clip, ok := s.model.ClipAt(s.playhead); ok {
		return s.model.IndexOf(clip.ID)
	}
	if len(s.model.Clips) > 0 && s.playhead >= s.model.Duration {
		return len(s.model.Clips)
	}
	return -1
}
