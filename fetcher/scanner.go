// Package fetcher discovers new videos on subscribed channels and feeds them
// into the processing pipeline.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ewintr.nl/tubedigest/model"
	"ewintr.nl/tubedigest/progress"
	"ewintr.nl/tubedigest/storage"
	"ewintr.nl/tubedigest/youtube"
)

type SubscriptionLister interface {
	Subscriptions(ctx context.Context) ([]youtube.Subscription, error)
	ChannelVideos(ctx context.Context, channelID model.ChannelID, since time.Time, max int64) ([]youtube.Upload, error)
	VideoDetails(ctx context.Context, ids []model.VideoID) (map[model.VideoID]youtube.Details, error)
}

type Enqueuer interface {
	Enqueue(id model.VideoID)
}

type ScanResult struct {
	ChannelsChecked int
	NewVideos       int
	Queued          int
	ChannelErrors   int
}

type Scanner struct {
	client          SubscriptionLister
	channels        storage.ChannelRepository
	videos          storage.VideoRepository
	pipeline        Enqueuer
	interval        time.Duration
	watermarkWindow time.Duration
	maxPerChannel   int64
	sink            progress.Sink
	logger          *slog.Logger
}

func NewScanner(client SubscriptionLister, channels storage.ChannelRepository, videos storage.VideoRepository, pipeline Enqueuer, interval time.Duration, watermarkWindow time.Duration, maxPerChannel int64, sink progress.Sink, logger *slog.Logger) *Scanner {
	return &Scanner{
		client:          client,
		channels:        channels,
		videos:          videos,
		pipeline:        pipeline,
		interval:        interval,
		watermarkWindow: watermarkWindow,
		maxPerChannel:   maxPerChannel,
		sink:            sink,
		logger:          logger,
	}
}

// Run scans once at startup and then on every tick until ctx is canceled.
// After each pass afterScan is called, the service uses it to check the
// digest threshold.
func (s *Scanner) Run(ctx context.Context, afterScan func(ScanResult)) {
	s.logger.Info("started scanner", slog.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		result, err := s.Scan(ctx)
		if err != nil {
			s.logger.Error("scan failed", slog.String("error", err.Error()))
		} else if afterScan != nil {
			afterScan(result)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Scan lists subscriptions, upserts the channels and queues every unseen
// eligible video. A failing channel is logged and skipped, the pass
// continues. Quota exhaustion aborts the pass.
func (s *Scanner) Scan(ctx context.Context) (ScanResult, error) {
	result := ScanResult{}

	subs, err := s.client.Subscriptions(ctx)
	if err != nil {
		return result, fmt.Errorf("list subscriptions: %w", err)
	}
	s.logger.Info("fetched subscriptions", slog.Int("count", len(subs)))
	s.sink.Report("scan", 0, fmt.Sprintf("%d Kanäle", len(subs)))

	watermark := time.Now().Add(-s.watermarkWindow)
	checked := []model.ChannelID{}

	for i, sub := range subs {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		if err := s.upsertChannel(sub); err != nil {
			s.logger.Error("could not save channel",
				slog.String("channel_id", string(sub.ChannelID)),
				slog.String("error", err.Error()))
			result.ChannelErrors++
			continue
		}

		queued, created, err := s.scanChannel(ctx, sub, watermark)
		if err != nil {
			var quotaErr *youtube.QuotaError
			if errors.As(err, &quotaErr) {
				return result, err
			}
			s.logger.Error("channel scan failed",
				slog.String("channel_id", string(sub.ChannelID)),
				slog.String("error", err.Error()))
			result.ChannelErrors++
			continue
		}

		result.ChannelsChecked++
		result.NewVideos += created
		result.Queued += queued
		checked = append(checked, sub.ChannelID)
		s.sink.Report("scan", (i+1)*100/len(subs), sub.Name)
	}

	if len(checked) > 0 {
		if err := s.channels.StampChecked(checked, time.Now()); err != nil {
			s.logger.Error("could not stamp channels", slog.String("error", err.Error()))
		}
	}
	s.deactivateUnsubscribed(subs)

	s.logger.Info("scan finished",
		slog.Int("channels", result.ChannelsChecked),
		slog.Int("new", result.NewVideos),
		slog.Int("queued", result.Queued),
		slog.Int("errors", result.ChannelErrors))
	s.sink.Report("scan", 100, fmt.Sprintf("%d neue Videos", result.NewVideos))

	return result, nil
}

// upsertChannel creates unknown channels and refreshes name and thumbnail of
// known ones, keeping manual category and active flag untouched.
func (s *Scanner) upsertChannel(sub youtube.Subscription) error {
	channel, err := s.channels.Find(sub.ChannelID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		channel = &model.Channel{
			ID:           sub.ChannelID,
			Name:         sub.Name,
			URL:          fmt.Sprintf("https://www.youtube.com/channel/%s", sub.ChannelID),
			ThumbnailURL: sub.ThumbnailURL,
			Description:  sub.Description,
			SubscribedAt: time.Now(),
			Active:       true,
		}
	case err != nil:
		return err
	default:
		channel.Name = sub.Name
		channel.ThumbnailURL = sub.ThumbnailURL
	}

	return s.channels.Save(channel)
}

// deactivateUnsubscribed flags channels that no longer appear in the
// subscription list. Their videos stay, the channel just stops being scanned.
func (s *Scanner) deactivateUnsubscribed(subs []youtube.Subscription) {
	subscribed := map[model.ChannelID]bool{}
	for _, sub := range subs {
		subscribed[sub.ChannelID] = true
	}

	active, err := s.channels.FindActive()
	if err != nil {
		s.logger.Error("could not list channels", slog.String("error", err.Error()))
		return
	}
	for _, channel := range active {
		if subscribed[channel.ID] {
			continue
		}
		if err := s.channels.Deactivate(channel.ID); err != nil {
			s.logger.Error("could not deactivate channel",
				slog.String("channel_id", string(channel.ID)),
				slog.String("error", err.Error()))
			continue
		}
		s.logger.Info("channel unsubscribed", slog.String("channel_id", string(channel.ID)))
	}
}

func (s *Scanner) scanChannel(ctx context.Context, sub youtube.Subscription, watermark time.Time) (int, int, error) {
	uploads, err := s.client.ChannelVideos(ctx, sub.ChannelID, watermark, s.maxPerChannel)
	if err != nil {
		return 0, 0, err
	}

	unseen := []model.VideoID{}
	for _, upload := range uploads {
		exists, err := s.videos.Exists(upload.ID)
		if err != nil {
			return 0, 0, err
		}
		if !exists {
			unseen = append(unseen, upload.ID)
		}
	}
	if len(unseen) == 0 {
		return 0, 0, nil
	}

	details, err := s.client.VideoDetails(ctx, unseen)
	if err != nil {
		return 0, 0, err
	}

	queued, created := 0, 0
	for _, id := range unseen {
		d, ok := details[id]
		if !ok {
			continue
		}
		if !youtube.Eligible(d) {
			s.logger.Info("video not eligible",
				slog.String("video_id", string(id)),
				slog.Int("duration", d.DurationSeconds),
				slog.String("broadcast", d.BroadcastState))
			continue
		}

		video := &model.Video{
			ID:              d.ID,
			ChannelID:       sub.ChannelID,
			Title:           d.Title,
			Description:     d.Description,
			DurationSeconds: d.DurationSeconds,
			PublishedAt:     d.PublishedAt,
			ThumbnailURL:    d.ThumbnailURL,
			Status:          model.StatusPending,
		}
		if err := s.videos.Create(video); err != nil {
			s.logger.Error("could not create video",
				slog.String("video_id", string(id)),
				slog.String("error", err.Error()))
			continue
		}
		created++
		s.pipeline.Enqueue(id)
		queued++
	}

	return queued, created, nil
}
