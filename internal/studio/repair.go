package studio

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
)

// StartRepairWorker starts a background worker that settles timelines whose
// trim landed but whose re-layout call never did.
func (s *Server) StartRepairWorker(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				s.repairStaleLayouts(ctx)
			}
		}
	}()
}

func (s *Server) repairStaleLayouts(ctx context.Context) {
	// Grace period so a trim whose reorder call is still in flight is not
	// repaired out from under it.
	rows, err := s.db.Query(ctx, `
		SELECT id
		FROM timelines
		WHERE needs_layout = TRUE
		  AND updated_at < now() - interval '5 seconds'
	`)
	if err != nil {
		log.Printf("timeline-service: repair query error: %v", err)
		return
	}
	defer rows.Close()

	var timelineIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			log.Printf("timeline-service: repair scan error: %v", err)
			continue
		}
		timelineIDs = append(timelineIDs, id)
	}

	for _, id := range timelineIDs {
		log.Printf("timeline-service: repairing layout for timeline %s", id)
		if err := s.repairTimeline(ctx, id); err != nil {
			log.Printf("timeline-service: repair error for %s: %v", id, err)
		}
	}
}

func (s *Server) repairTimeline(ctx context.Context, timelineID string) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := lockTimeline(ctx, tx, timelineID); err != nil {
		return err
	}
	clips, err := applyLayout(ctx, tx, timelineID)
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	order := make([]string, len(clips))
	for i, c := range clips {
		order[i] = c.ID
	}
	s.publishEvent(ctx, map[string]any{
		"type": "timeline.updated",
		"payload": map[string]any{
			"timelineId": timelineID,
			"order":      order,
			"reason":     "layout_repair",
		},
	})
	return nil
}
