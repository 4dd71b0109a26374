package editor

import (
	"context"

	"github.com/chasecyang/shotrio-engine/internal/timeline"
)

// Persistence is the remote authority every settled mutation round-trips
// through. Each call is atomic on the server side; the returned timeline is
// canonical and replaces local state verbatim.
type Persistence interface {
	LoadOrCreateTimeline(ctx context.Context, projectID string) (timeline.Timeline, error)
	FetchTimeline(ctx context.Context, timelineID string) (timeline.Timeline, error)
	AppendClip(ctx context.Context, timelineID string, req AppendRequest) (timeline.Timeline, error)
	RemoveClip(ctx context.Context, timelineID, clipID string) (timeline.Timeline, error)
	ReorderClips(ctx context.Context, timelineID string, clips []timeline.Placement) (timeline.Timeline, error)
	UpdateClip(ctx context.Context, timelineID, clipID string, patch ClipPatch) (timeline.Clip, error)
}

// AppendRequest carries the clip values the client rendered with. The server
// recomputes the authoritative tail position, so StartTime is advisory.
type AppendRequest struct {
	AssetID    string `json:"assetId"`
	TrackIndex int    `json:"trackIndex"`
	StartTime  int64  `json:"startTime"`
	Duration   int64  `json:"duration"`
	TrimStart  int64  `json:"trimStart"`
}

// ClipPatch updates a single clip's trim window; nil fields stay unchanged.
type ClipPatch struct {
	TrimStart *int64 `json:"trimStart,omitempty"`
	Duration  *int64 `json:"duration,omitempty"`
}
