package studio

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/chasecyang/shotrio-engine/internal/timeline"
)

// handleCreateAsset registers a media asset so clips can reference it. Upload
// and probing happen elsewhere; this service only keeps the catalog row the
// timeline needs (duration, locators).
func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var body struct {
		Kind         string `json:"kind"`
		Duration     int64  `json:"duration"`
		MediaURL     string `json:"mediaUrl"`
		ThumbnailURL string `json:"thumbnailUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	body.Kind = strings.TrimSpace(strings.ToLower(body.Kind))
	body.MediaURL = strings.TrimSpace(body.MediaURL)
	body.ThumbnailURL = strings.TrimSpace(body.ThumbnailURL)

	if body.Kind == "" {
		body.Kind = "video"
	}
	if body.Kind != "video" && body.Kind != "image" && body.Kind != "audio" {
		writeError(w, http.StatusBadRequest, "kind must be video, image or audio")
		return
	}
	if body.MediaURL == "" {
		writeError(w, http.StatusBadRequest, "mediaUrl is required")
		return
	}
	// Duration 0 means "not probed yet"; trim validation fails open for it.
	if body.Duration < 0 {
		writeError(w, http.StatusBadRequest, "duration must be >= 0")
		return
	}

	var a timeline.Asset
	err := s.db.QueryRow(ctx, `
		INSERT INTO assets (owner_id, kind, duration_ms, media_url, thumbnail_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, owner_id, kind, duration_ms, media_url, thumbnail_url, created_at
	`, userID, body.Kind, body.Duration, body.MediaURL, body.ThumbnailURL).Scan(
		&a.ID, &a.OwnerID, &a.Kind, &a.Duration, &a.MediaURL, &a.ThumbnailURL, &a.CreatedAt,
	)
	if err != nil {
		log.Printf("timeline-service: create asset: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.publishEvent(ctx, map[string]any{
		"type": "asset.created",
		"payload": map[string]any{
			"asset": a,
		},
	})

	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, kind, duration_ms, media_url, thumbnail_url, created_at
		FROM assets
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		log.Printf("timeline-service: list assets: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	assets := []timeline.Asset{}
	for rows.Next() {
		var a timeline.Asset
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Kind, &a.Duration, &a.MediaURL, &a.ThumbnailURL, &a.CreatedAt); err != nil {
			log.Printf("timeline-service: scan asset: %v", err)
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		log.Printf("timeline-service: list assets rows: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"assets": assets,
	})
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	assetID := chi.URLParam(r, "id")
	if assetID == "" {
		writeError(w, http.StatusBadRequest, "missing asset id")
		return
	}

	var a timeline.Asset
	err := s.db.QueryRow(ctx, `
		SELECT id, owner_id, kind, duration_ms, media_url, thumbnail_url, created_at
		FROM assets
		WHERE id = $1
	`, assetID).Scan(&a.ID, &a.OwnerID, &a.Kind, &a.Duration, &a.MediaURL, &a.ThumbnailURL, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}
	if err != nil {
		log.Printf("timeline-service: get asset: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	if a.OwnerID != userID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	writeJSON(w, http.StatusOK, a)
}
