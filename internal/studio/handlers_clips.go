package studio

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/chasecyang/shotrio-engine/internal/timeline"
)

func (s *Server) handleAppendClip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	timelineID := chi.URLParam(r, "id")
	if timelineID == "" {
		writeError(w, http.StatusBadRequest, "missing timeline id")
		return
	}

	var body struct {
		AssetID    string `json:"assetId"`
		TrackIndex int    `json:"trackIndex"`
		StartTime  int64  `json:"startTime"`
		Duration   int64  `json:"duration"`
		TrimStart  int64  `json:"trimStart"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.AssetID == "" {
		writeError(w, http.StatusBadRequest, "assetId is required")
		return
	}
	if body.TrackIndex != 0 {
		writeError(w, http.StatusBadRequest, "only track 0 is supported")
		return
	}
	if body.TrimStart < 0 {
		writeError(w, http.StatusBadRequest, "trimStart must be >= 0")
		return
	}
	if body.Duration != 0 && body.Duration < timeline.MinClipDuration {
		writeError(w, http.StatusBadRequest, "duration below minimum")
		return
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		log.Printf("timeline-service: append clip begin tx: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer tx.Rollback(ctx)

	ownerID, err := lockTimeline(ctx, tx, timelineID)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "timeline not found")
		return
	}
	if err != nil {
		log.Printf("timeline-service: append clip lock timeline: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if ownerID != userID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	var asset timeline.Asset
	err = tx.QueryRow(ctx, `
		SELECT id, duration_ms
		FROM assets
		WHERE id = $1
	`, body.AssetID).Scan(&asset.ID, &asset.Duration)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}
	if err != nil {
		log.Printf("timeline-service: append clip fetch asset: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	// The client sends the duration it rendered with; an omitted value falls
	// back to the asset's native length.
	duration := body.Duration
	if duration == 0 {
		duration = timeline.NewClip("", asset).Duration
	}
	if !timeline.ValidateTrim(body.TrimStart, duration, asset.Duration) {
		writeError(w, http.StatusBadRequest, "trim window exceeds source media")
		return
	}

	// startTime from the body is advisory; the settled position comes from
	// the ripple pass below.
	var clipID string
	err = tx.QueryRow(ctx, `
		INSERT INTO clips (timeline_id, asset_id, track_index, position, duration_ms, trim_start_ms)
		VALUES (
			$1, $2, $3,
			COALESCE(
				(SELECT MAX(position)+1 FROM clips WHERE timeline_id = $1),
				0
			),
			$4, $5
		)
		RETURNING id
	`, timelineID, body.AssetID, body.TrackIndex, duration, body.TrimStart).Scan(&clipID)
	if err != nil {
		log.Printf("timeline-service: append clip insert: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	clips, err := applyLayout(ctx, tx, timelineID)
	if err != nil {
		log.Printf("timeline-service: append clip layout: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	t, err := fetchTimelineRow(ctx, tx, timelineID)
	if err != nil {
		log.Printf("timeline-service: append clip reload: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	t.Clips = clips
	t.Duration = timeline.TotalDuration(clips)

	if err := tx.Commit(ctx); err != nil {
		log.Printf("timeline-service: append clip commit: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	var added timeline.Clip
	if c, ok := t.ClipByID(clipID); ok {
		added = c
	}
	s.publishEvent(ctx, map[string]any{
		"type": "clip.added",
		"payload": map[string]any{
			"timelineId": timelineID,
			"clip":       added,
		},
	})

	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleRemoveClip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	timelineID := chi.URLParam(r, "id")
	clipID := chi.URLParam(r, "clipId")
	if timelineID == "" || clipID == "" {
		writeError(w, http.StatusBadRequest, "missing timeline or clip id")
		return
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		log.Printf("timeline-service: remove clip begin tx: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer tx.Rollback(ctx)

	ownerID, err := lockTimeline(ctx, tx, timelineID)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "timeline not found")
		return
	}
	if err != nil {
		log.Printf("timeline-service: remove clip lock timeline: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if ownerID != userID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	var pos int
	err = tx.QueryRow(ctx, `
		SELECT position
		FROM clips
		WHERE id = $1 AND timeline_id = $2
		FOR UPDATE
	`, clipID, timelineID).Scan(&pos)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "clip not found")
		return
	}
	if err != nil {
		log.Printf("timeline-service: remove clip fetch: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM clips
		WHERE id = $1 AND timeline_id = $2
	`, clipID, timelineID); err != nil {
		log.Printf("timeline-service: remove clip delete: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	clips, err := applyLayout(ctx, tx, timelineID)
	if err != nil {
		log.Printf("timeline-service: remove clip layout: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	t, err := fetchTimelineRow(ctx, tx, timelineID)
	if err != nil {
		log.Printf("timeline-service: remove clip reload: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	t.Clips = clips
	t.Duration = timeline.TotalDuration(clips)

	if err := tx.Commit(ctx); err != nil {
		log.Printf("timeline-service: remove clip commit: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.publishEvent(ctx, map[string]any{
		"type": "clip.removed",
		"payload": map[string]any{
			"timelineId": timelineID,
			"clipId":     clipID,
			"position":   pos,
		},
	})

	writeJSON(w, http.StatusOK, t)
}

// handleTrimClip persists new trim values for one clip and nothing else: the
// ripple re-layout arrives as a separate reorder call. Until that lands the
// timeline is flagged needs_layout, and the repair worker will settle it if
// the second call never comes.
func (s *Server) handleTrimClip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	timelineID := chi.URLParam(r, "id")
	clipID := chi.URLParam(r, "clipId")
	if timelineID == "" || clipID == "" {
		writeError(w, http.StatusBadRequest, "missing timeline or clip id")
		return
	}

	var body struct {
		TrimStart *int64 `json:"trimStart"`
		Duration  *int64 `json:"duration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.TrimStart == nil && body.Duration == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		log.Printf("timeline-service: trim clip begin tx: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer tx.Rollback(ctx)

	ownerID, err := lockTimeline(ctx, tx, timelineID)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "timeline not found")
		return
	}
	if err != nil {
		log.Printf("timeline-service: trim clip lock timeline: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if ownerID != userID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	var trimStart, duration, sourceDuration int64
	err = tx.QueryRow(ctx, `
		SELECT c.trim_start_ms, c.duration_ms, a.duration_ms
		FROM clips c
		JOIN assets a ON a.id = c.asset_id
		WHERE c.id = $1 AND c.timeline_id = $2
		FOR UPDATE OF c
	`, clipID, timelineID).Scan(&trimStart, &duration, &sourceDuration)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "clip not found")
		return
	}
	if err != nil {
		log.Printf("timeline-service: trim clip fetch: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	prevDuration := duration
	if body.TrimStart != nil {
		trimStart = *body.TrimStart
	}
	if body.Duration != nil {
		duration = *body.Duration
	}
	if !timeline.ValidateTrim(trimStart, duration, sourceDuration) {
		writeError(w, http.StatusBadRequest, "invalid trim window")
		return
	}

	var c timeline.Clip
	err = tx.QueryRow(ctx, `
		UPDATE clips
		SET trim_start_ms = $3, duration_ms = $4
		WHERE id = $1 AND timeline_id = $2
		RETURNING id, timeline_id, asset_id, track_index, position, start_ms, duration_ms, trim_start_ms, created_at
	`, clipID, timelineID, trimStart, duration).Scan(
		&c.ID, &c.TimelineID, &c.AssetID, &c.TrackIndex,
		&c.Order, &c.Start, &c.Duration, &c.TrimStart, &c.CreatedAt,
	)
	if err != nil {
		log.Printf("timeline-service: trim clip update: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	// Start times only depend on durations, so a pure in-point move leaves
	// the layout consistent and needs no repair flag.
	if duration != prevDuration {
		if _, err := tx.Exec(ctx, `
			UPDATE timelines
			SET needs_layout = TRUE, updated_at = now()
			WHERE id = $1
		`, timelineID); err != nil {
			log.Printf("timeline-service: trim clip flag layout: %v", err)
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("timeline-service: trim clip commit: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.publishEvent(ctx, map[string]any{
		"type": "clip.trimmed",
		"payload": map[string]any{
			"timelineId": timelineID,
			"clip":       c,
		},
	})

	writeJSON(w, http.StatusOK, c)
}
