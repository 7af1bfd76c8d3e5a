package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"ewintr.nl/tubedigest/model"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const videoColumns = `id, channel_id, title, description, duration_seconds, published_at, thumbnail_url,
category, transcript, transcript_source, summary, status, error_message, retry_count, last_retry_at,
processed_at, digest_id`

type PostgresVideoRepository struct {
	db *sql.DB
}

func NewPostgresVideoRepository(postgres *Postgres) *PostgresVideoRepository {
	return &PostgresVideoRepository{db: postgres.db}
}

func (r *PostgresVideoRepository) Create(video *model.Video) error {
	_, err := r.db.Exec(`
INSERT INTO video (id, channel_id, title, description, duration_seconds, published_at, thumbnail_url, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		video.ID, video.ChannelID, video.Title, video.Description, video.DurationSeconds,
		video.PublishedAt, video.ThumbnailURL, video.Status)
	if err != nil {
		return fmt.Errorf("could not create video: %w", err)
	}

	return nil
}

func (r *PostgresVideoRepository) Save(video *model.Video) error {
	var summary []byte
	if video.Summary != nil {
		var err error
		summary, err = json.Marshal(video.Summary)
		if err != nil {
			return fmt.Errorf("could not marshal summary: %w", err)
		}
	}
	var lastRetry, processedAt sql.NullTime
	if !video.LastRetryAt.IsZero() {
		lastRetry = sql.NullTime{Time: video.LastRetryAt, Valid: true}
	}
	if !video.ProcessedAt.IsZero() {
		processedAt = sql.NullTime{Time: video.ProcessedAt, Valid: true}
	}

	res, err := r.db.Exec(`
UPDATE video SET
title = $2,
description = $3,
duration_seconds = $4,
thumbnail_url = $5,
category = $6,
transcript = $7,
transcript_source = $8,
summary = $9,
status = $10,
error_message = $11,
retry_count = $12,
last_retry_at = $13,
processed_at = $14
WHERE id = $1`,
		video.ID, video.Title, video.Description, video.DurationSeconds, video.ThumbnailURL,
		video.Category, video.Transcript, video.TranscriptSource, summary, video.Status,
		video.ErrorMessage, video.RetryCount, lastRetry, processedAt)
	if err != nil {
		return fmt.Errorf("could not save video: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *PostgresVideoRepository) Find(id model.VideoID) (*model.Video, error) {
	row := r.db.QueryRow(fmt.Sprintf(`SELECT %s FROM video WHERE id = $1`, videoColumns), id)

	video, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	return video, err
}

func (r *PostgresVideoRepository) Exists(id model.VideoID) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM video WHERE id = $1)`, id).
		Scan(&exists); err != nil {
		return false, fmt.Errorf("could not check video existence: %w", err)
	}

	return exists, nil
}

func (r *PostgresVideoRepository) FindByStatus(statuses ...model.VideoStatus) ([]*model.Video, error) {
	strStatuses := make([]string, 0, len(statuses))
	for _, s := range statuses {
		strStatuses = append(strStatuses, string(s))
	}

	rows, err := r.db.Query(fmt.Sprintf(`
SELECT %s FROM video
WHERE status = ANY($1::video_status[])
ORDER BY published_at DESC`, videoColumns), pq.Array(strStatuses))
	if err != nil {
		return nil, fmt.Errorf("could not query videos: %w", err)
	}

	return collectVideos(rows)
}

func (r *PostgresVideoRepository) FindUndigestedCompleted() ([]*model.Video, error) {
	rows, err := r.db.Query(fmt.Sprintf(`
SELECT %s FROM video
WHERE status = 'completed' AND digest_id IS NULL
ORDER BY published_at DESC`, videoColumns))
	if err != nil {
		return nil, fmt.Errorf("could not query undigested videos: %w", err)
	}

	return collectVideos(rows)
}

func (r *PostgresVideoRepository) CountUndigestedCompleted() (int, error) {
	var count int
	if err := r.db.QueryRow(`
SELECT COUNT(*) FROM video
WHERE status = 'completed' AND digest_id IS NULL`).Scan(&count); err != nil {
		return 0, fmt.Errorf("could not count undigested videos: %w", err)
	}

	return count, nil
}

func (r *PostgresVideoRepository) FindByDigest(digestID uuid.UUID) ([]*model.Video, error) {
	rows, err := r.db.Query(fmt.Sprintf(`
SELECT %s FROM video
WHERE digest_id = $1
ORDER BY published_at DESC`, videoColumns), digestID)
	if err != nil {
		return nil, fmt.Errorf("could not query digest videos: %w", err)
	}

	return collectVideos(rows)
}

func (r *PostgresVideoRepository) MarkDigested(ids []model.VideoID, digestID uuid.UUID) (int64, error) {
	strIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		strIDs = append(strIDs, string(id))
	}

	// digest_id IS NULL keeps the back-reference write-once even when two
	// digest runs race on the same selection.
	res, err := r.db.Exec(`
UPDATE video SET digest_id = $1
WHERE id = ANY($2) AND digest_id IS NULL`, digestID, pq.Array(strIDs))
	if err != nil {
		return 0, fmt.Errorf("could not mark videos digested: %w", err)
	}

	return res.RowsAffected()
}

func collectVideos(rows *sql.Rows) ([]*model.Video, error) {
	defer rows.Close()

	videos := []*model.Video{}
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}

	return videos, rows.Err()
}

func scanVideo(row scannable) (*model.Video, error) {
	var video model.Video
	var summary []byte
	var lastRetry, processedAt sql.NullTime
	var digestID uuid.NullUUID

	if err := row.Scan(&video.ID, &video.ChannelID, &video.Title, &video.Description,
		&video.DurationSeconds, &video.PublishedAt, &video.ThumbnailURL, &video.Category,
		&video.Transcript, &video.TranscriptSource, &summary, &video.Status,
		&video.ErrorMessage, &video.RetryCount, &lastRetry, &processedAt, &digestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("could not scan video: %w", err)
	}

	if len(summary) > 0 {
		video.Summary = &model.Summary{}
		if err := json.Unmarshal(summary, video.Summary); err != nil {
			return nil, fmt.Errorf("could not unmarshal summary for video %s: %w", video.ID, err)
		}
	}
	if lastRetry.Valid {
		video.LastRetryAt = lastRetry.Time
	}
	if processedAt.Valid {
		video.ProcessedAt = processedAt.Time
	}
	if digestID.Valid {
		video.DigestID = &digestID.UUID
	}

	return &video, nil
}
