package editor

import "context"

// Player is the pair of media surfaces the preview shell exposes: a visible
// element playing the active clip, plus a hidden standby element kept warm
// with the next clip's media so boundary crossings swap locally instead of
// fetching. Implementations must not call back into the Synchronizer.
type Player interface {
	// Load points the visible surface at src, positioned offset ms into the
	// media. A src matching the current standby preload swaps locally.
	Load(ctx context.Context, src string, offset int64) error
	Play()
	Pause()
	// Seek repositions the visible surface within the already-loaded media.
	Seek(offset int64)
	// Preload warms the standby surface, replacing any previous preload.
	Preload(src string)
	// CancelPreload empties the standby surface.
	CancelPreload()
}
