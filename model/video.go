package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type VideoStatus string

const (
	StatusPending    VideoStatus = "pending"
	StatusProcessing VideoStatus = "processing"
	StatusCompleted  VideoStatus = "completed"
	StatusFailed     VideoStatus = "failed"
)

type VideoID string

type ChannelID string

type Video struct {
	ID              VideoID
	ChannelID       ChannelID
	Title           string
	Description     string
	DurationSeconds int
	PublishedAt     time.Time
	ThumbnailURL    string

	Category         Category
	Transcript       string
	TranscriptSource string
	Summary          *Summary

	Status       VideoStatus
	ErrorMessage string
	RetryCount   int
	LastRetryAt  time.Time
	ProcessedAt  time.Time

	DigestID *uuid.UUID
}

func (v *Video) WatchURL() string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", v.ID)
}

// Digestible reports whether a video may be included in a digest. Status
// alone is not enough, the summary must carry a core message.
func (v *Video) Digestible() bool {
	return v.Status == StatusCompleted && v.Summary != nil && v.Summary.CoreMessage != ""
}
