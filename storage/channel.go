package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ewintr.nl/tubedigest/model"
	"github.com/lib/pq"
)

type PostgresChannelRepository struct {
	db *sql.DB
}

func NewPostgresChannelRepository(postgres *Postgres) *PostgresChannelRepository {
	return &PostgresChannelRepository{db: postgres.db}
}

func (r *PostgresChannelRepository) Save(channel *model.Channel) error {
	var manualCategory sql.NullString
	if channel.ManualCategory != nil {
		manualCategory = sql.NullString{String: string(*channel.ManualCategory), Valid: true}
	}
	var lastChecked sql.NullTime
	if !channel.LastChecked.IsZero() {
		lastChecked = sql.NullTime{Time: channel.LastChecked, Valid: true}
	}

	_, err := r.db.Exec(`
INSERT INTO channel (id, name, url, thumbnail_url, description, manual_category, subscribed_at, last_checked, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
name = EXCLUDED.name,
url = EXCLUDED.url,
thumbnail_url = EXCLUDED.thumbnail_url,
description = EXCLUDED.description,
manual_category = EXCLUDED.manual_category,
last_checked = EXCLUDED.last_checked,
is_active = EXCLUDED.is_active
`, channel.ID, channel.Name, channel.URL, channel.ThumbnailURL, channel.Description,
		manualCategory, channel.SubscribedAt, lastChecked, channel.Active)
	if err != nil {
		return fmt.Errorf("could not save channel: %w", err)
	}

	return nil
}

func (r *PostgresChannelRepository) Find(id model.ChannelID) (*model.Channel, error) {
	row := r.db.QueryRow(`
SELECT id, name, url, thumbnail_url, description, manual_category, subscribed_at, last_checked, is_active
FROM channel
WHERE id = $1`, id)

	channel, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	return channel, err
}

func (r *PostgresChannelRepository) FindActive() ([]*model.Channel, error) {
	rows, err := r.db.Query(`
SELECT id, name, url, thumbnail_url, description, manual_category, subscribed_at, last_checked, is_active
FROM channel
WHERE is_active
ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("could not query channels: %w", err)
	}
	defer rows.Close()

	channels := []*model.Channel{}
	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}

	return channels, rows.Err()
}

func (r *PostgresChannelRepository) StampChecked(ids []model.ChannelID, ts time.Time) error {
	strIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		strIDs = append(strIDs, string(id))
	}

	_, err := r.db.Exec(`UPDATE channel SET last_checked = $1 WHERE id = ANY($2)`,
		ts, pq.Array(strIDs))
	if err != nil {
		return fmt.Errorf("could not stamp channels: %w", err)
	}

	return nil
}

func (r *PostgresChannelRepository) Deactivate(id model.ChannelID) error {
	res, err := r.db.Exec(`UPDATE channel SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("could not deactivate channel: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not deactivate channel: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}

	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanChannel(row scannable) (*model.Channel, error) {
	var channel model.Channel
	var manualCategory sql.NullString
	var lastChecked sql.NullTime

	if err := row.Scan(&channel.ID, &channel.Name, &channel.URL, &channel.ThumbnailURL,
		&channel.Description, &manualCategory, &channel.SubscribedAt, &lastChecked,
		&channel.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("could not scan channel: %w", err)
	}

	if manualCategory.Valid {
		cat := model.Category(manualCategory.String)
		channel.ManualCategory = &cat
	}
	if lastChecked.Valid {
		channel.LastChecked = lastChecked.Time
	}

	return &channel, nil
}
