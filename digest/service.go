package digest

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ewintr.nl/tubedigest/model"
	"ewintr.nl/tubedigest/storage"
	"github.com/google/uuid"
)

// EmailSender is what Service needs from the mail layer.
type EmailSender interface {
	Send(subject, html, plainText string) (string, error)
	Recipient() string
}

// Service decides when a digest goes out and owns the record keeping around
// it. Generation runs serialized, concurrent triggers wait and then find
// nothing left to send.
type Service struct {
	videos    storage.VideoRepository
	channels  storage.ChannelRepository
	digests   storage.DigestRepository
	composer  *Composer
	sender    EmailSender
	threshold int
	interval  time.Duration
	mu        sync.Mutex
	logger    *slog.Logger
}

func NewService(videos storage.VideoRepository, channels storage.ChannelRepository, digests storage.DigestRepository, composer *Composer, sender EmailSender, threshold int, interval time.Duration, logger *slog.Logger) *Service {
	return &Service{
		videos:    videos,
		channels:  channels,
		digests:   digests,
		composer:  composer,
		sender:    sender,
		threshold: threshold,
		interval:  interval,
		logger:    logger,
	}
}

// Due reports whether the undigested backlog has reached the threshold.
func (s *Service) Due() (bool, error) {
	count, err := s.videos.CountUndigestedCompleted()
	if err != nil {
		return false, fmt.Errorf("count undigested videos: %w", err)
	}

	return count >= s.threshold, nil
}

// MaybeGenerate sends a digest when enough videos are waiting. Manual
// triggers skip the threshold check. The returned id is nil when nothing was
// sent.
func (s *Service) MaybeGenerate(reason model.TriggerReason) (*uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reason != model.TriggerManual {
		due, err := s.Due()
		if err != nil {
			return nil, err
		}
		if !due && reason == model.TriggerThreshold {
			return nil, nil
		}
	}

	videos, err := s.videos.FindUndigestedCompleted()
	if err != nil {
		return nil, fmt.Errorf("find undigested videos: %w", err)
	}
	if len(videos) == 0 {
		s.logger.Info("no videos for digest", slog.String("reason", string(reason)))

		return nil, nil
	}

	result, err := s.composer.Compose(videos, s.channelNames(videos))
	if err != nil {
		if errors.Is(err, ErrNoValidSummaries) {
			s.logger.Warn("digest skipped", slog.String("error", err.Error()))

			return nil, nil
		}

		return nil, err
	}

	record := &model.DigestRecord{
		ID:                   uuid.New(),
		PeriodStart:          result.PeriodStart,
		PeriodEnd:            result.PeriodEnd,
		VideoCount:           result.VideoCount,
		TotalDurationSeconds: result.TotalDurationSeconds,
		CategoryCounts:       result.CategoryCounts,
		Status:               model.DigestPending,
		Recipient:            s.sender.Recipient(),
		TriggerReason:        reason,
		CreatedAt:            time.Now(),
	}
	if err := s.digests.Create(record); err != nil {
		return nil, fmt.Errorf("create digest record: %w", err)
	}

	if _, err := s.sender.Send(result.Subject, result.HTML, result.PlainText); err != nil {
		if serr := s.digests.SetStatus(record.ID, model.DigestFailed, err.Error(), time.Time{}); serr != nil {
			s.logger.Error("could not mark digest failed",
				slog.String("digest_id", record.ID.String()),
				slog.String("error", serr.Error()))
		}

		return nil, fmt.Errorf("send digest: %w", err)
	}

	sentAt := time.Now()
	if err := s.digests.SetStatus(record.ID, model.DigestSent, "", sentAt); err != nil {
		s.logger.Error("could not mark digest sent",
			slog.String("digest_id", record.ID.String()),
			slog.String("error", err.Error()))
	}
	claimed, err := s.videos.MarkDigested(result.VideoIDs, record.ID)
	if err != nil {
		return nil, fmt.Errorf("mark videos digested: %w", err)
	}
	if claimed != int64(len(result.VideoIDs)) {
		s.logger.Warn("some videos were already claimed by another digest",
			slog.Int64("claimed", claimed),
			slog.Int("expected", len(result.VideoIDs)))
	}

	s.logger.Info("digest sent",
		slog.String("digest_id", record.ID.String()),
		slog.String("reason", string(reason)),
		slog.Int("videos", result.VideoCount))

	return &record.ID, nil
}

// Resend replays an already sent digest from the videos it claimed.
func (s *Service) Resend(digestID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.digests.Find(digestID)
	if err != nil {
		return fmt.Errorf("find digest %s: %w", digestID, err)
	}

	videos, err := s.videos.FindByDigest(digestID)
	if err != nil {
		return fmt.Errorf("find digest videos: %w", err)
	}
	if len(videos) == 0 {
		return fmt.Errorf("digest %s has no videos", digestID)
	}

	result, err := s.composer.Compose(videos, s.channelNames(videos))
	if err != nil {
		return fmt.Errorf("compose digest: %w", err)
	}

	if _, err := s.sender.Send(result.Subject, result.HTML, result.PlainText); err != nil {
		return fmt.Errorf("resend digest: %w", err)
	}
	if err := s.digests.SetStatus(record.ID, model.DigestSent, "", time.Now()); err != nil {
		s.logger.Error("could not update digest after resend",
			slog.String("digest_id", record.ID.String()),
			slog.String("error", err.Error()))
	}

	s.logger.Info("digest resent", slog.String("digest_id", digestID.String()))

	return nil
}

const (
	maxScheduledRetries = 2
	scheduledRetryDelay = 5 * time.Minute
)

// Run sends a scheduled digest on every tick until done closes. A failed
// attempt is retried twice before waiting for the next tick, the videos stay
// unclaimed either way.
func (s *Service) Run(done <-chan struct{}) {
	s.logger.Info("started digest scheduler", slog.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	retries := 0
	var retry <-chan time.Time
	attempt := func() {
		retry = nil
		_, err := s.MaybeGenerate(model.TriggerScheduled)
		if err == nil {
			retries = 0

			return
		}
		s.logger.Error("scheduled digest failed",
			slog.String("error", err.Error()),
			slog.Int("retries_left", maxScheduledRetries-retries))
		if retries < maxScheduledRetries {
			retries++
			retry = time.After(scheduledRetryDelay)
		}
	}

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			retries = 0
			attempt()
		case <-retry:
			attempt()
		}
	}
}

func (s *Service) channelNames(videos []*model.Video) map[model.ChannelID]string {
	names := map[model.ChannelID]string{}
	for _, video := range videos {
		if _, ok := names[video.ChannelID]; ok {
			continue
		}
		if channel, err := s.channels.Find(video.ChannelID); err == nil {
			names[video.ChannelID] = channel.Name
		}
	}

	return names
}
