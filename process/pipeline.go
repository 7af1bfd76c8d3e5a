// Package process drives a video through transcript resolution and
// summarization until it is completed or failed.
package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ewintr.nl/tubedigest/model"
	"ewintr.nl/tubedigest/storage"
	"ewintr.nl/tubedigest/summarize"
	"ewintr.nl/tubedigest/transcript"
)

const (
	maxPipelineRetries = 3
	retryBaseDelay     = time.Minute
)

type OutcomeStatus string

const (
	OutcomeCompleted OutcomeStatus = "completed"
	OutcomeSkipped   OutcomeStatus = "skipped"
	OutcomeFailed    OutcomeStatus = "failed"
)

type Outcome struct {
	Status   OutcomeStatus
	Category model.Category
}

type TranscriptResolver interface {
	Resolve(ctx context.Context, videoID model.VideoID) (*transcript.Result, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, text, title, channel string, durationSeconds int) (*model.Summary, error)
}

type Pipeline struct {
	videos      storage.VideoRepository
	channels    storage.ChannelRepository
	transcripts TranscriptResolver
	summarizer  Summarizer
	in          chan model.VideoID
	retryDelay  time.Duration
	logger      *slog.Logger
}

func NewPipeline(videos storage.VideoRepository, channels storage.ChannelRepository, transcripts TranscriptResolver, summarizer Summarizer, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		videos:      videos,
		channels:    channels,
		transcripts: transcripts,
		summarizer:  summarizer,
		in:          make(chan model.VideoID, 256),
		retryDelay:  retryBaseDelay,
		logger:      logger,
	}
}

func (p *Pipeline) Enqueue(id model.VideoID) {
	p.in <- id
}

// Run consumes the queue until ctx is canceled. Videos that fail with a
// retryable cause are re-enqueued after an exponentially growing delay, up to
// three attempts per scan pass.
func (p *Pipeline) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-p.in:
			outcome, err := p.Process(ctx, id)
			if err == nil {
				continue
			}
			p.logger.Error("video processing failed",
				slog.String("video_id", string(id)),
				slog.String("error", err.Error()))
			if outcome.Status != OutcomeFailed || !Retryable(err) {
				continue
			}
			video, ferr := p.videos.Find(id)
			if ferr != nil || video.RetryCount >= maxPipelineRetries {
				continue
			}
			// RetryCount can still be 0 when persisting the failure
			// itself failed.
			attempt := max(video.RetryCount, 1)
			delay := p.retryDelay * time.Duration(1<<(attempt-1))
			p.logger.Info("scheduling retry",
				slog.String("video_id", string(id)),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))
			go func(id model.VideoID) {
				select {
				case <-ctx.Done():
				case <-time.After(delay):
					p.Enqueue(id)
				}
			}(id)
		}
	}
}

// Process runs one video through the state machine. Already completed videos
// are skipped without touching the model APIs.
func (p *Pipeline) Process(ctx context.Context, id model.VideoID) (Outcome, error) {
	video, err := p.videos.Find(id)
	if err != nil {
		return Outcome{Status: OutcomeFailed}, fmt.Errorf("find video %s: %w", id, err)
	}

	switch video.Status {
	case model.StatusCompleted:
		return Outcome{Status: OutcomeSkipped, Category: video.Category}, nil
	case model.StatusProcessing:
		p.logger.Info("video already processing", slog.String("video_id", string(id)))

		return Outcome{Status: OutcomeSkipped}, nil
	}

	// Claim the video before the slow calls so a second worker backs off.
	video.Status = model.StatusProcessing
	if err := p.videos.Save(video); err != nil {
		return Outcome{Status: OutcomeFailed}, fmt.Errorf("claim video %s: %w", id, err)
	}

	p.logger.Info("processing video",
		slog.String("video_id", string(id)),
		slog.String("title", video.Title))

	if err := p.process(ctx, video); err != nil {
		video.Status = model.StatusFailed
		video.ErrorMessage = err.Error()
		video.RetryCount++
		video.LastRetryAt = time.Now()
		if serr := p.videos.Save(video); serr != nil {
			p.logger.Error("could not persist failure",
				slog.String("video_id", string(id)),
				slog.String("error", serr.Error()))
		}

		return Outcome{Status: OutcomeFailed}, fmt.Errorf("process video %s: %w", id, err)
	}

	return Outcome{Status: OutcomeCompleted, Category: video.Category}, nil
}

func (p *Pipeline) process(ctx context.Context, video *model.Video) error {
	result, err := p.transcripts.Resolve(ctx, video.ID)
	if err != nil {
		return fmt.Errorf("resolve transcript: %w", err)
	}

	channelName := string(video.ChannelID)
	if channel, err := p.channels.Find(video.ChannelID); err == nil {
		channelName = channel.Name
	}

	summary, err := p.summarizer.Summarize(ctx, result.Text, video.Title, channelName, video.DurationSeconds)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}

	video.Transcript = result.Text
	video.TranscriptSource = result.Source
	video.Summary = summary
	video.Category = summary.Category
	video.Status = model.StatusCompleted
	video.ErrorMessage = ""
	video.ProcessedAt = time.Now()
	if err := p.videos.Save(video); err != nil {
		return fmt.Errorf("save completed video: %w", err)
	}

	p.logger.Info("video completed",
		slog.String("video_id", string(video.ID)),
		slog.String("category", string(video.Category)))

	return nil
}

// Reset puts a failed video back to pending so an operator can retry it.
func (p *Pipeline) Reset(id model.VideoID) error {
	video, err := p.videos.Find(id)
	if err != nil {
		return fmt.Errorf("find video %s: %w", id, err)
	}
	if video.Status == model.StatusCompleted {
		return fmt.Errorf("video %s is already completed", id)
	}

	video.Status = model.StatusPending
	video.ErrorMessage = ""
	video.RetryCount = 0
	video.LastRetryAt = time.Time{}
	if err := p.videos.Save(video); err != nil {
		return fmt.Errorf("reset video %s: %w", id, err)
	}
	p.Enqueue(id)

	return nil
}

// Retryable reports whether a processing error is worth another attempt.
// Missing transcripts and validation failures are terminal, rate limits and
// exhausted model retries are not.
func Retryable(err error) bool {
	if errors.Is(err, transcript.ErrNotAvailable) {
		return false
	}
	var rateErr *transcript.RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	var sumErr *summarize.Error
	if errors.As(err, &sumErr) {
		return sumErr.Retryable
	}

	return true
}
