// Package transcript fetches video transcripts, preferring YouTube's own
// caption tracks and falling back to the Supadata transcription API.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ewintr.nl/tubedigest/model"
)

// ErrNotAvailable means no configured source could produce a transcript.
var ErrNotAvailable = errors.New("no transcript available")

// RateLimitError marks a provider rate limit. The pipeline treats it as
// retryable.
type RateLimitError struct {
	Provider string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limit exceeded", e.Provider)
}

type Segment struct {
	Text  string
	Start float64
}

type Result struct {
	VideoID  model.VideoID
	Text     string
	Language string
	Source   string
	Segments []Segment
}

func (r Result) WordCount() int {
	return len(strings.Fields(r.Text))
}

type Source interface {
	Name() string
	Fetch(ctx context.Context, videoID model.VideoID) (*Result, error)
}

// Resolver tries its sources in order. A missing or broken source passes the
// turn to the next one, only a rate limit stops the chain so the video can be
// retried later instead of burning the fallback quota.
type Resolver struct {
	sources []Source
	logger  *slog.Logger
}

func NewResolver(logger *slog.Logger, sources ...Source) *Resolver {
	return &Resolver{
		sources: sources,
		logger:  logger,
	}
}

func (r *Resolver) Resolve(ctx context.Context, videoID model.VideoID) (*Result, error) {
	for _, source := range r.sources {
		result, err := source.Fetch(ctx, videoID)
		var rateErr *RateLimitError
		switch {
		case errors.Is(err, ErrNotAvailable):
			r.logger.Info("no transcript from source",
				slog.String("source", source.Name()),
				slog.String("video_id", string(videoID)))
			continue
		case errors.As(err, &rateErr):
			return nil, fmt.Errorf("fetch transcript from %s: %w", source.Name(), err)
		case err != nil:
			r.logger.Warn("transcript source failed",
				slog.String("source", source.Name()),
				slog.String("video_id", string(videoID)),
				slog.String("error", err.Error()))
			continue
		}

		r.logger.Info("transcript resolved",
			slog.String("source", source.Name()),
			slog.String("video_id", string(videoID)),
			slog.String("language", result.Language),
			slog.Int("words", result.WordCount()))

		return result, nil
	}

	return nil, ErrNotAvailable
}

// PlainText joins segments into a single text, skipping empty ones.
func PlainText(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}

	return strings.Join(parts, " ")
}

// TimestampedText joins segments into text with a [MM:SS] marker roughly
// every two minutes.
func TimestampedText(segments []Segment) string {
	if len(segments) == 0 {
		return ""
	}

	var b strings.Builder
	lastStamp := -120.0
	for _, segment := range segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		if segment.Start-lastStamp >= 120 {
			fmt.Fprintf(&b, "\n[%02d:%02d] ", int(segment.Start)/60, int(segment.Start)%60)
			lastStamp = segment.Start
		}
		b.WriteString(text)
		b.WriteString(" ")
	}

	return strings.TrimSpace(b.String())
}
