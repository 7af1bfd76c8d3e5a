package model

import (
	"time"

	"github.com/google/uuid"
)

type DigestStatus string

const (
	DigestPending DigestStatus = "pending"
	DigestSent    DigestStatus = "sent"
	DigestFailed  DigestStatus = "failed"
)

type TriggerReason string

const (
	TriggerScheduled TriggerReason = "scheduled"
	TriggerThreshold TriggerReason = "threshold"
	TriggerManual    TriggerReason = "manual"
)

type DigestRecord struct {
	ID                   uuid.UUID
	SentAt               time.Time
	PeriodStart          time.Time
	PeriodEnd            time.Time
	VideoCount           int
	TotalDurationSeconds int
	CategoryCounts       map[Category]int
	Status               DigestStatus
	Error                string
	Recipient            string
	TriggerReason        TriggerReason
	CreatedAt            time.Time
}
