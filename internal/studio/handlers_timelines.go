package studio

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// handleLoadOrCreateTimeline returns the single timeline for a project,
// creating it on first use. Safe to call repeatedly; the editor calls it on
// every project open.
func (s *Server) handleLoadOrCreateTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	projectID := chi.URLParam(r, "projectId")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "missing project id")
		return
	}

	var timelineID, ownerID string
	err := s.db.QueryRow(ctx, `
		SELECT id, owner_id
		FROM timelines
		WHERE project_id = $1
	`, projectID).Scan(&timelineID, &ownerID)

	created := false
	if errors.Is(err, pgx.ErrNoRows) {
		err = s.db.QueryRow(ctx, `
			INSERT INTO timelines (project_id, owner_id)
			VALUES ($1, $2)
			RETURNING id, owner_id
		`, projectID, userID).Scan(&timelineID, &ownerID)

		// Two first-opens can race on the unique project_id; the loser
		// re-reads the winner's row.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			err = s.db.QueryRow(ctx, `
				SELECT id, owner_id
				FROM timelines
				WHERE project_id = $1
			`, projectID).Scan(&timelineID, &ownerID)
		} else if err == nil {
			created = true
		}
	}
	if err != nil {
		log.Printf("timeline-service: load or create timeline: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	if ownerID != userID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	t, err := fetchTimeline(ctx, s.db, timelineID)
	if err != nil {
		log.Printf("timeline-service: load timeline %s: %v", timelineID, err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	if created {
		s.publishEvent(ctx, map[string]any{
			"type": "timeline.created",
			"payload": map[string]any{
				"timelineId": t.ID,
				"projectId":  t.ProjectID,
			},
		})
		writeJSON(w, http.StatusCreated, t)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
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

	t, err := fetchTimeline(ctx, s.db, timelineID)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "timeline not found")
		return
	}
	if err != nil {
		log.Printf("timeline-service: get timeline %s: %v", timelineID, err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	if t.OwnerID != userID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	writeJSON(w, http.StatusOK, t)
}
