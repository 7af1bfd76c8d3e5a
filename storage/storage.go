package storage

import (
	"errors"
	"time"

	"ewintr.nl/tubedigest/model"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

type ChannelRepository interface {
	Save(channel *model.Channel) error
	Find(id model.ChannelID) (*model.Channel, error)
	FindActive() ([]*model.Channel, error)
	StampChecked(ids []model.ChannelID, ts time.Time) error
	Deactivate(id model.ChannelID) error
}

type VideoRepository interface {
	Create(video *model.Video) error
	Save(video *model.Video) error
	Find(id model.VideoID) (*model.Video, error)
	Exists(id model.VideoID) (bool, error)
	FindByStatus(statuses ...model.VideoStatus) ([]*model.Video, error)

	// FindUndigestedCompleted returns completed videos without a digest
	// back-reference, newest published first.
	FindUndigestedCompleted() ([]*model.Video, error)
	CountUndigestedCompleted() (int, error)
	FindByDigest(digestID uuid.UUID) ([]*model.Video, error)

	// MarkDigested claims the given videos for a digest. Only rows whose
	// back-reference is still unset are touched, the returned count tells
	// the caller whether another digest got there first.
	MarkDigested(ids []model.VideoID, digestID uuid.UUID) (int64, error)
}

type DigestRepository interface {
	Create(rec *model.DigestRecord) error
	SetStatus(id uuid.UUID, status model.DigestStatus, errMsg string, sentAt time.Time) error
	Find(id uuid.UUID) (*model.DigestRecord, error)
	FindRecent(limit int) ([]*model.DigestRecord, error)
}
