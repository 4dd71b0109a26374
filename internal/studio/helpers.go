package studio

import (
	"context"
	"encoding/json"
	"log"

	"github.com/jackc/pgx/v5"

	"github.com/chasecyang/shotrio-engine/internal/timeline"
)

// querier is satisfied by both DB and pgx.Tx, so timeline assembly works
// inside and outside a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func fetchTimeline(ctx context.Context, q querier, timelineID string) (timeline.Timeline, error) {
	t, err := fetchTimelineRow(ctx, q, timelineID)
	if err != nil {
		return timeline.Timeline{}, err
	}

	clips, err := fetchClips(ctx, q, timelineID)
	if err != nil {
		return timeline.Timeline{}, err
	}
	t.Clips = clips
	t.Duration = timeline.TotalDuration(clips)
	return t, nil
}

func fetchTimelineRow(ctx context.Context, q querier, timelineID string) (timeline.Timeline, error) {
	var t timeline.Timeline
	err := q.QueryRow(ctx, `
		SELECT id, project_id, owner_id, needs_layout, created_at, updated_at
		FROM timelines
		WHERE id = $1
	`, timelineID).Scan(&t.ID, &t.ProjectID, &t.OwnerID, &t.NeedsLayout, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func fetchClips(ctx context.Context, q querier, timelineID string) ([]timeline.Clip, error) {
	rows, err := q.Query(ctx, `
		SELECT id, timeline_id, asset_id, track_index, position, start_ms, duration_ms, trim_start_ms, created_at
		FROM clips
		WHERE timeline_id = $1
		ORDER BY position ASC, created_at ASC
	`, timelineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clips := []timeline.Clip{}
	for rows.Next() {
		var c timeline.Clip
		if err := rows.Scan(
			&c.ID, &c.TimelineID, &c.AssetID, &c.TrackIndex,
			&c.Order, &c.Start, &c.Duration, &c.TrimStart, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		clips = append(clips, c)
	}
	return clips, rows.Err()
}

// lockTimeline takes the timeline row lock that serializes structural
// mutations, returning the owner for the access check.
func lockTimeline(ctx context.Context, tx pgx.Tx, timelineID string) (ownerID string, err error) {
	err = tx.QueryRow(ctx, `
		SELECT owner_id
		FROM timelines
		WHERE id = $1
		FOR UPDATE
	`, timelineID).Scan(&ownerID)
	return
}

// applyLayout settles the timeline inside the transaction: clips are loaded
// in their current rank, run through the ripple recompute, and any row whose
// position or start moved is updated. The needs_layout flag is cleared since
// the layout is consistent again after this.
func applyLayout(ctx context.Context, tx pgx.Tx, timelineID string) ([]timeline.Clip, error) {
	clips, err := fetchClips(ctx, tx, timelineID)
	if err != nil {
		return nil, err
	}

	for i, p := range timeline.RecalculatePositions(clips) {
		if clips[i].Order == p.Order && clips[i].Start == p.Start {
			continue
		}
		if _, err := tx.Exec(ctx, `
			UPDATE clips
			SET position = $2, start_ms = $3
			WHERE id = $1
		`, p.ClipID, p.Order, p.Start); err != nil {
			return nil, err
		}
		clips[i].Order = p.Order
		clips[i].Start = p.Start
	}

	if _, err := tx.Exec(ctx, `
		UPDATE timelines
		SET needs_layout = FALSE, updated_at = now()
		WHERE id = $1
	`, timelineID); err != nil {
		return nil, err
	}

	return clips, nil
}

func (s *Server) publishEvent(ctx context.Context, event map[string]any) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("timeline-service: marshal event: %v", err)
		return
	}
	if err := s.rdb.Publish(ctx, "broadcast", string(data)).Err(); err != nil {
		log.Printf("timeline-service: publish event: %v", err)
	}
}
