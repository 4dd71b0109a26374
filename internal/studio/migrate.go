package studio

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

func AutoMigrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS pgcrypto`); err != nil {
		log.Printf("timeline-service: migrate pgcrypto: %v", err)
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS assets (
          id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          owner_id      TEXT NOT NULL,
          kind          TEXT NOT NULL DEFAULT 'video',
          duration_ms   BIGINT NOT NULL DEFAULT 0,
          media_url     TEXT NOT NULL,
          thumbnail_url TEXT NOT NULL DEFAULT '',
          created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		log.Printf("timeline-service: migrate assets: %v", err)
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS timelines (
          id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          project_id TEXT NOT NULL UNIQUE,
          owner_id   TEXT NOT NULL,
          created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
          updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		log.Printf("timeline-service: migrate timelines: %v", err)
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS clips (
          id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          timeline_id   uuid NOT NULL REFERENCES timelines(id) ON DELETE CASCADE,
          asset_id      uuid NOT NULL REFERENCES assets(id),
          track_index   INT NOT NULL DEFAULT 0,
          position      INT NOT NULL,
          start_ms      BIGINT NOT NULL DEFAULT 0,
          duration_ms   BIGINT NOT NULL,
          trim_start_ms BIGINT NOT NULL DEFAULT 0,
          created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		log.Printf("timeline-service: migrate clips: %v", err)
		return err
	}

	// --- Migrations for layout repair ---

	// Trim is persisted in two phases; the flag marks timelines whose ripple
	// re-layout has not landed yet.
	if _, err := pool.Exec(ctx, `
		ALTER TABLE timelines ADD COLUMN IF NOT EXISTS needs_layout BOOLEAN NOT NULL DEFAULT FALSE;
	`); err != nil {
		return err
	}

	// Deliberately non-unique: position shifts during reorder would trip a
	// unique index mid-statement.
	if _, err := pool.Exec(ctx, `
      CREATE INDEX IF NOT EXISTS idx_clips_timeline_position
      ON clips(timeline_id, position)
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE INDEX IF NOT EXISTS idx_assets_owner
      ON assets(owner_id, created_at)
    `); err != nil {
		return err
	}

	return nil
}
