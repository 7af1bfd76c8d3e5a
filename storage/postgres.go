package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) (*Postgres, error) {
	p := &Postgres{db: db}
	if err := p.migrate(pgMigration); err != nil {
		return &Postgres{}, err
	}

	return p, nil
}

var pgMigration = []string{
	`CREATE TABLE channel (
id VARCHAR(50) PRIMARY KEY,
name VARCHAR(255) NOT NULL,
url VARCHAR(500) NOT NULL DEFAULT '',
thumbnail_url VARCHAR(500) NOT NULL DEFAULT '',
description TEXT NOT NULL DEFAULT '',
manual_category VARCHAR(100),
subscribed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
last_checked TIMESTAMPTZ,
is_active BOOLEAN NOT NULL DEFAULT TRUE
)`,
	`CREATE TYPE digest_status AS ENUM ('pending', 'sent', 'failed')`,
	`CREATE TYPE trigger_reason AS ENUM ('scheduled', 'threshold', 'manual')`,
	`CREATE TABLE digest (
id uuid PRIMARY KEY,
sent_at TIMESTAMPTZ,
period_start TIMESTAMPTZ NOT NULL,
period_end TIMESTAMPTZ NOT NULL,
video_count INTEGER NOT NULL DEFAULT 0,
total_duration_seconds INTEGER NOT NULL DEFAULT 0,
category_counts JSONB,
status digest_status NOT NULL DEFAULT 'pending',
error_message TEXT NOT NULL DEFAULT '',
recipient VARCHAR(255) NOT NULL DEFAULT '',
trigger_reason trigger_reason NOT NULL DEFAULT 'scheduled',
created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TYPE video_status AS ENUM ('pending', 'processing', 'completed', 'failed')`,
	`CREATE TABLE video (
id VARCHAR(20) PRIMARY KEY,
channel_id VARCHAR(50) NOT NULL REFERENCES channel(id),
title VARCHAR(500) NOT NULL,
description TEXT NOT NULL DEFAULT '',
duration_seconds INTEGER NOT NULL DEFAULT 0,
published_at TIMESTAMPTZ NOT NULL,
thumbnail_url VARCHAR(500) NOT NULL DEFAULT '',
category VARCHAR(100) NOT NULL DEFAULT '',
transcript TEXT NOT NULL DEFAULT '',
transcript_source VARCHAR(50) NOT NULL DEFAULT '',
summary JSONB,
status video_status NOT NULL DEFAULT 'pending',
error_message TEXT NOT NULL DEFAULT '',
retry_count INTEGER NOT NULL DEFAULT 0,
last_retry_at TIMESTAMPTZ,
processed_at TIMESTAMPTZ,
digest_id uuid REFERENCES digest(id)
)`,
	`CREATE INDEX video_status_idx ON video (status)`,
	`CREATE INDEX video_undigested_idx ON video (published_at DESC) WHERE status = 'completed' AND digest_id IS NULL`,
}

func (p *Postgres) migrate(wanted []string) error {
	query := `CREATE TABLE IF NOT EXISTS migration
("id" SERIAL PRIMARY KEY, "query" TEXT)`
	_, err := p.db.Exec(query)
	if err != nil {
		return err
	}

	// find existing
	rows, err := p.db.Query(`SELECT query FROM migration ORDER BY id`)
	if err != nil {
		return err
	}

	existing := []string{}
	for rows.Next() {
		var query string
		if err := rows.Scan(&query); err != nil {
			return err
		}
		existing = append(existing, query)
	}
	rows.Close()

	// compare
	missing, err := compareMigrations(wanted, existing)
	if err != nil {
		return err
	}

	// execute missing
	for _, query := range missing {
		if _, err := p.db.Exec(query); err != nil {
			return err
		}

		// register
		if _, err := p.db.Exec(`
INSERT INTO migration
(query) VALUES ($1)
`, query); err != nil {
			return err
		}
	}

	return nil
}

func compareMigrations(wanted, existing []string) ([]string, error) {
	needed := []string{}
	if len(wanted) < len(existing) {
		return []string{}, fmt.Errorf("not enough migrations")
	}

	for i, want := range wanted {
		switch {
		case i >= len(existing):
			needed = append(needed, want)
		case want == existing[i]:
			// do nothing
		case want != existing[i]:
			return []string{}, fmt.Errorf("incompatible migration: %v", want)
		}
	}

	return needed, nil
}
