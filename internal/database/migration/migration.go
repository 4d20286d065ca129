package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"imgdrop/internal/jsonlog"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_stored_files",
		SQL: `CREATE TABLE IF NOT EXISTS stored_files (
  id                UUID        PRIMARY KEY,
  filename          TEXT        NOT NULL UNIQUE,
  original_filename TEXT        NOT NULL,
  extension         TEXT        NOT NULL CHECK (extension IN ('.png', '.jpg', '.jpeg')),
  storage_path      TEXT        NOT NULL,
  size              BIGINT      NOT NULL CHECK (size >= 0),
  content_type      TEXT        NOT NULL,
  created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_stored_files_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_stored_files_created_at ON stored_files (created_at);`,
	},
}

// EnsureMigrated creates the stored_files schema unless the table already exists.
// Every step is logged as one JSON line.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *jsonlog.Logger, dbHost string) error {
	start := time.Now()
	event := func(name, status string, extra map[string]any) {
		f := map[string]any{
			"component": "database",
			"event":     name,
			"status":    status,
			"db_host":   dbHost,
			"level":     "info",
		}
		if status == "error" {
			f["level"] = "error"
		}
		for k, v := range extra {
			f[k] = v
		}
		log.Log(f)
	}

	event("db_migration_check", "starting", nil)

	var exists bool
	if err := db.QueryRowContext(ctx, "SELECT to_regclass('public.stored_files') IS NOT NULL").Scan(&exists); err != nil {
		event("db_migration_failed", "error", map[string]any{
			"error_message": err.Error(),
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("check sentinel table: %w", err)
	}
	if exists {
		event("db_migration_skip", "success", map[string]any{
			"msg":         "schema already exists, skipping migration",
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			event("db_migration_failed", "error", map[string]any{
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		event("db_migration_step", "success", map[string]any{
			"migration_step":   step.Name,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	event("db_migration_success", "success", map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}
