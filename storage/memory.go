package storage

import (
	"sort"
	"sync"
	"time"

	"ewintr.nl/tubedigest/model"
	"github.com/google/uuid"
)

type MemoryChannelRepository struct {
	channels map[model.ChannelID]*model.Channel
	mu       sync.RWMutex
}

func NewMemoryChannelRepository() *MemoryChannelRepository {
	return &MemoryChannelRepository{
		channels: map[model.ChannelID]*model.Channel{},
	}
}

func (r *MemoryChannelRepository) Save(channel *model.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *channel
	r.channels[channel.ID] = &c

	return nil
}

func (r *MemoryChannelRepository) Find(id model.ChannelID) (*model.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channel, ok := r.channels[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *channel

	return &c, nil
}

func (r *MemoryChannelRepository) FindActive() ([]*model.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels := []*model.Channel{}
	for _, channel := range r.channels {
		if !channel.Active {
			continue
		}
		c := *channel
		channels = append(channels, &c)
	}
	sort.Slice(channels, func(i, j int) bool {
		return channels[i].Name < channels[j].Name
	})

	return channels, nil
}

func (r *MemoryChannelRepository) StampChecked(ids []model.ChannelID, checked time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		if channel, ok := r.channels[id]; ok {
			channel.LastChecked = checked
		}
	}

	return nil
}

func (r *MemoryChannelRepository) Deactivate(id model.ChannelID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	channel, ok := r.channels[id]
	if !ok {
		return ErrNotFound
	}
	channel.Active = false

	return nil
}

type MemoryVideoRepository struct {
	videos map[model.VideoID]*model.Video
	mu     sync.RWMutex
}

func NewMemoryVideoRepository() *MemoryVideoRepository {
	return &MemoryVideoRepository{
		videos: map[model.VideoID]*model.Video{},
	}
}

func (r *MemoryVideoRepository) Create(video *model.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := *video
	r.videos[video.ID] = &v

	return nil
}

func (r *MemoryVideoRepository) Save(video *model.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.videos[video.ID]
	if !ok {
		return ErrNotFound
	}
	digestID := stored.DigestID
	v := *video
	v.DigestID = digestID
	r.videos[video.ID] = &v

	return nil
}

func (r *MemoryVideoRepository) Find(id model.VideoID) (*model.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	video, ok := r.videos[id]
	if !ok {
		return nil, ErrNotFound
	}
	v := *video

	return &v, nil
}

func (r *MemoryVideoRepository) Exists(id model.VideoID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.videos[id]

	return ok, nil
}

func (r *MemoryVideoRepository) FindByStatus(statuses ...model.VideoStatus) ([]*model.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	videos := []*model.Video{}
	for _, video := range r.videos {
		for _, status := range statuses {
			if video.Status == status {
				v := *video
				videos = append(videos, &v)
				break
			}
		}
	}
	sortByPublished(videos)

	return videos, nil
}

func (r *MemoryVideoRepository) FindUndigestedCompleted() ([]*model.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	videos := []*model.Video{}
	for _, video := range r.videos {
		if video.Status == model.StatusCompleted && video.DigestID == nil {
			v := *video
			videos = append(videos, &v)
		}
	}
	sortByPublished(videos)

	return videos, nil
}

func (r *MemoryVideoRepository) CountUndigestedCompleted() (int, error) {
	videos, err := r.FindUndigestedCompleted()
	if err != nil {
		return 0, err
	}

	return len(videos), nil
}

func (r *MemoryVideoRepository) FindByDigest(digestID uuid.UUID) ([]*model.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	videos := []*model.Video{}
	for _, video := range r.videos {
		if video.DigestID != nil && *video.DigestID == digestID {
			v := *video
			videos = append(videos, &v)
		}
	}
	sortByPublished(videos)

	return videos, nil
}

func (r *MemoryVideoRepository) MarkDigested(ids []model.VideoID, digestID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var claimed int64
	for _, id := range ids {
		video, ok := r.videos[id]
		if !ok || video.DigestID != nil {
			continue
		}
		d := digestID
		video.DigestID = &d
		claimed++
	}

	return claimed, nil
}

func sortByPublished(videos []*model.Video) {
	sort.Slice(videos, func(i, j int) bool {
		return videos[i].PublishedAt.After(videos[j].PublishedAt)
	})
}

type MemoryDigestRepository struct {
	digests map[uuid.UUID]*model.DigestRecord
	mu      sync.RWMutex
}

func NewMemoryDigestRepository() *MemoryDigestRepository {
	return &MemoryDigestRepository{
		digests: map[uuid.UUID]*model.DigestRecord{},
	}
}

func (r *MemoryDigestRepository) Create(digest *model.DigestRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := *digest
	r.digests[digest.ID] = &d

	return nil
}

func (r *MemoryDigestRepository) SetStatus(id uuid.UUID, status model.DigestStatus, errMsg string, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	digest, ok := r.digests[id]
	if !ok {
		return ErrNotFound
	}
	digest.Status = status
	digest.Error = errMsg
	digest.SentAt = sentAt

	return nil
}

func (r *MemoryDigestRepository) Find(id uuid.UUID) (*model.DigestRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	digest, ok := r.digests[id]
	if !ok {
		return nil, ErrNotFound
	}
	d := *digest

	return &d, nil
}

func (r *MemoryDigestRepository) FindRecent(limit int) ([]*model.DigestRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	digests := []*model.DigestRecord{}
	for _, digest := range r.digests {
		d := *digest
		digests = append(digests, &d)
	}
	sort.Slice(digests, func(i, j int) bool {
		return digests[i].CreatedAt.After(digests[j].CreatedAt)
	})
	if len(digests) > limit {
		digests = digests[:limit]
	}

	return digests, nil
}
