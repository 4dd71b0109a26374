package timeline

import (
	"time"
)

const (
	// MinClipDuration is the floor for a clip's visible window, in ms.
	MinClipDuration int64 = 500

	// DefaultClipDuration is used when an appended asset has no known
	// duration yet (still probing, or a still image).
	DefaultClipDuration int64 = 3000
)

// Asset is the read-only view of a media asset owned by the asset subsystem.
// The engine never mutates assets; clips hold a lookup reference only.
type Asset struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId,omitempty"`
	Kind         string    `json:"kind"` // "video" | "image" | "audio"
	Duration     int64     `json:"duration"`
	MediaURL     string    `json:"mediaUrl"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

// Clip is a timeline entry referencing a trimmed window of one asset's media.
// Start and Order are derived by the ripple layout and are never authoritative
// on their own; TrimStart/Duration describe the visible window into the asset.
type Clip struct {
	ID         string    `json:"id"`
	TimelineID string    `json:"timelineId,omitempty"`
	AssetID    string    `json:"assetId"`
	TrackIndex int       `json:"trackIndex"`
	Order      int       `json:"order"`
	Start      int64     `json:"startTime"`
	Duration   int64     `json:"duration"`
	TrimStart  int64     `json:"trimStart"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
}

// End is the clip's exclusive end position on the timeline, in ms.
func (c Clip) End() int64 { return c.Start + c.Duration }

// TrimEnd is the exclusive end of the visible window inside the source asset.
func (c Clip) TrimEnd() int64 { return c.TrimStart + c.Duration }

// Contains reports whether the playhead position falls inside the clip's
// half-open interval [Start, Start+Duration).
func (c Clip) Contains(at int64) bool { return at >= c.Start && at < c.End() }

// Timeline is the ordered, single-track clip sequence for one project episode.
// Clips are stored in playback order; Order mirrors the slice index whenever
// the timeline is settled. Duration is derived and recomputed after every
// structural change.
type Timeline struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	OwnerID     string    `json:"ownerId,omitempty"`
	Duration    int64     `json:"duration"`
	NeedsLayout bool      `json:"needsLayout"`
	Clips       []Clip    `json:"clips"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// IndexOf returns the position of the clip in playback order, or -1.
func (t Timeline) IndexOf(clipID string) int {
	for i, c := range t.Clips {
		if c.ID == clipID {
			return i
		}
	}
	return -1
}

// ClipByID returns the clip and true, or a zero clip and false.
func (t Timeline) ClipByID(clipID string) (Clip, bool) {
	if i := t.IndexOf(clipID); i >= 0 {
		return t.Clips[i], true
	}
	return Clip{}, false
}

// ClipAt resolves the clip whose interval contains the playhead position.
// Positions at or beyond the end of the last clip resolve to nothing; a
// position exactly on a boundary belongs to the later clip.
func (t Timeline) ClipAt(at int64) (Clip, bool) {
	for _, c := range t.Clips {
		if c.Contains(at) {
			return c, true
		}
	}
	return Clip{}, false
}

// Clone returns a deep copy; the clip slice is never shared.
func (t Timeline) Clone() Timeline {
	out := t
	out.Clips = append([]Clip(nil), t.Clips...)
	return out
}

// NewClip builds the default clip for an appended asset: window starts at the
// beginning of the media and spans the asset's native duration, falling back
// to DefaultClipDuration when that is unknown.
func NewClip(id string, asset Asset) Clip {
	d := asset.Duration
	if d < MinClipDuration {
		d = DefaultClipDuration
	}
	return Clip{
		ID:       id,
		AssetID:  asset.ID,
		Duration: d,
	}
}
