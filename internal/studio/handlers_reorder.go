package studio

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/chasecyang/shotrio-engine/internal/timeline"
)

// handleReorderClips replaces the rank of every clip on the timeline in one
// transaction. The submitted startTime values are advisory ordering hints;
// settled positions always come from the ripple recompute. The same call is
// also the second phase of a trim, which is why it re-lays-out even when the
// submitted order matches the stored one.
func (s *Server) handleReorderClips(w http.ResponseWriter, r *http.Request) {
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
		Clips []timeline.Placement `json:"clips"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(body.Clips) == 0 {
		writeError(w, http.StatusBadRequest, "clips must not be empty")
		return
	}

	seen := make(map[string]bool, len(body.Clips))
	for _, p := range body.Clips {
		if p.ClipID == "" {
			writeError(w, http.StatusBadRequest, "clipId is required")
			return
		}
		if seen[p.ClipID] {
			writeError(w, http.StatusBadRequest, "duplicate clipId: "+p.ClipID)
			return
		}
		seen[p.ClipID] = true
	}

	// Rank by the submitted order field, start time as tie-break. Stable, so
	// a degenerate payload (all zeros) keeps the submitted array order.
	ranked := append([]timeline.Placement(nil), body.Clips...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Order != ranked[j].Order {
			return ranked[i].Order < ranked[j].Order
		}
		return ranked[i].Start < ranked[j].Start
	})

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		log.Printf("timeline-service: reorder begin tx: %v", err)
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
		log.Printf("timeline-service: reorder lock timeline: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if ownerID != userID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	existing, err := fetchClips(ctx, tx, timelineID)
	if err != nil {
		log.Printf("timeline-service: reorder fetch clips: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	// The payload must cover exactly the clips the server has. A mismatch
	// means the client raced another mutation; it should reload and retry.
	if len(existing) != len(ranked) {
		writeError(w, http.StatusConflict, "clip set mismatch")
		return
	}
	for _, c := range existing {
		if !seen[c.ID] {
			writeError(w, http.StatusConflict, "clip set mismatch")
			return
		}
	}

	for rank, p := range ranked {
		if _, err := tx.Exec(ctx, `
			UPDATE clips
			SET position = $3
			WHERE id = $1 AND timeline_id = $2
		`, p.ClipID, timelineID, rank); err != nil {
			log.Printf("timeline-service: reorder set position: %v", err)
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
	}

	clips, err := applyLayout(ctx, tx, timelineID)
	if err != nil {
		log.Printf("timeline-service: reorder layout: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	t, err := fetchTimelineRow(ctx, tx, timelineID)
	if err != nil {
		log.Printf("timeline-service: reorder reload: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	t.Clips = clips
	t.Duration = timeline.TotalDuration(clips)

	if err := tx.Commit(ctx); err != nil {
		log.Printf("timeline-service: reorder commit: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	order := make([]string, len(clips))
	for i, c := range clips {
		order[i] = c.ID
	}
	s.publishEvent(ctx, map[string]any{
		"type": "clip.reordered",
		"payload": map[string]any{
			"timelineId": timelineID,
			"order":      order,
		},
	})

	writeJSON(w, http.StatusOK, t)
}
