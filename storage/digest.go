package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ewintr.nl/tubedigest/model"
	"github.com/google/uuid"
)

const digestColumns = `id, sent_at, period_start, period_end, video_count, total_duration_seconds,
category_counts, status, error_message, recipient, trigger_reason, created_at`

type PostgresDigestRepository struct {
	db *sql.DB
}

func NewPostgresDigestRepository(postgres *Postgres) *PostgresDigestRepository {
	return &PostgresDigestRepository{db: postgres.db}
}

func (r *PostgresDigestRepository) Create(digest *model.DigestRecord) error {
	counts, err := json.Marshal(digest.CategoryCounts)
	if err != nil {
		return fmt.Errorf("could not marshal category counts: %w", err)
	}

	_, err = r.db.Exec(`
INSERT INTO digest (id, period_start, period_end, video_count, total_duration_seconds,
category_counts, status, error_message, recipient, trigger_reason, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		digest.ID, digest.PeriodStart, digest.PeriodEnd, digest.VideoCount,
		digest.TotalDurationSeconds, counts, digest.Status, digest.Error,
		digest.Recipient, digest.TriggerReason, digest.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not create digest: %w", err)
	}

	return nil
}

func (r *PostgresDigestRepository) SetStatus(id uuid.UUID, status model.DigestStatus, errMsg string, sentAt time.Time) error {
	var sent sql.NullTime
	if !sentAt.IsZero() {
		sent = sql.NullTime{Time: sentAt, Valid: true}
	}

	res, err := r.db.Exec(`
UPDATE digest SET status = $2, error_message = $3, sent_at = $4
WHERE id = $1`, id, status, errMsg, sent)
	if err != nil {
		return fmt.Errorf("could not set digest status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *PostgresDigestRepository) Find(id uuid.UUID) (*model.DigestRecord, error) {
	row := r.db.QueryRow(fmt.Sprintf(`SELECT %s FROM digest WHERE id = $1`, digestColumns), id)

	digest, err := scanDigest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	return digest, err
}

func (r *PostgresDigestRepository) FindRecent(limit int) ([]*model.DigestRecord, error) {
	rows, err := r.db.Query(fmt.Sprintf(`
SELECT %s FROM digest
ORDER BY created_at DESC
LIMIT $1`, digestColumns), limit)
	if err != nil {
		return nil, fmt.Errorf("could not query digests: %w", err)
	}
	defer rows.Close()

	digests := []*model.DigestRecord{}
	for rows.Next() {
		digest, err := scanDigest(rows)
		if err != nil {
			return nil, err
		}
		digests = append(digests, digest)
	}

	return digests, rows.Err()
}

func scanDigest(row scannable) (*model.DigestRecord, error) {
	var digest model.DigestRecord
	var counts []byte
	var sentAt sql.NullTime

	if err := row.Scan(&digest.ID, &sentAt, &digest.PeriodStart, &digest.PeriodEnd,
		&digest.VideoCount, &digest.TotalDurationSeconds, &counts, &digest.Status,
		&digest.Error, &digest.Recipient, &digest.TriggerReason, &digest.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("could not scan digest: %w", err)
	}

	if sentAt.Valid {
		digest.SentAt = sentAt.Time
	}
	if len(counts) > 0 {
		if err := json.Unmarshal(counts, &digest.CategoryCounts); err != nil {
			return nil, fmt.Errorf("could not unmarshal category counts for digest %s: %w", digest.ID, err)
		}
	}

	return &digest, nil
}
