package process_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"ewintr.nl/tubedigest/model"
	"ewintr.nl/tubedigest/process"
	"ewintr.nl/tubedigest/storage"
	"ewintr.nl/tubedigest/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	result *transcript.Result
	err    error
	calls  int
}

func (f *fakeResolver) Resolve(_ context.Context, videoID model.VideoID) (*transcript.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	result := *f.result
	result.VideoID = videoID

	return &result, nil
}

type fakeSummarizer struct {
	summary *model.Summary
	err     error
	calls   int
}

func (f *fakeSummarizer) Summarize(_ context.Context, _, _, _ string, _ int) (*model.Summary, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	summary := *f.summary

	return &summary, nil
}

func testPipeline(t *testing.T, resolver *fakeResolver, summarizer *fakeSummarizer) (*process.Pipeline, *storage.MemoryVideoRepository) {
	t.Helper()
	videos := storage.NewMemoryVideoRepository()
	channels := storage.NewMemoryChannelRepository()
	require.NoError(t, channels.Save(&model.Channel{ID: "UCchan", Name: "Ein Kanal"}))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return process.NewPipeline(videos, channels, resolver, summarizer, logger), videos
}

func pendingVideo() *model.Video {
	return &model.Video{
		ID:              "vid1",
		ChannelID:       "UCchan",
		Title:           "Ein Video",
		DurationSeconds: 933,
		PublishedAt:     time.Now(),
		Status:          model.StatusPending,
	}
}

func TestProcess(t *testing.T) {
	summary := &model.Summary{
		Category:        model.CategorySport,
		CoreMessage:     "Es geht um Training.",
		DetailedSummary: "Mehr Details.",
		KeyTakeaways:    []string{"Trainieren hilft"},
	}

	t.Run("happy path", func(t *testing.T) {
		resolver := &fakeResolver{result: &transcript.Result{Text: "transkript", Source: "youtube"}}
		summarizer := &fakeSummarizer{summary: summary}
		pipeline, videos := testPipeline(t, resolver, summarizer)
		require.NoError(t, videos.Create(pendingVideo()))

		outcome, err := pipeline.Process(context.Background(), "vid1")

		require.NoError(t, err)
		assert.Equal(t, process.OutcomeCompleted, outcome.Status)
		assert.Equal(t, model.CategorySport, outcome.Category)

		stored, err := videos.Find("vid1")
		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, stored.Status)
		assert.Equal(t, "transkript", stored.Transcript)
		assert.Equal(t, "youtube", stored.TranscriptSource)
		assert.Equal(t, model.CategorySport, stored.Category)
		assert.Empty(t, stored.ErrorMessage)
		assert.False(t, stored.ProcessedAt.IsZero())
	})

	t.Run("completed video is skipped without model calls", func(t *testing.T) {
		resolver := &fakeResolver{result: &transcript.Result{Text: "transkript"}}
		summarizer := &fakeSummarizer{summary: summary}
		pipeline, videos := testPipeline(t, resolver, summarizer)
		require.NoError(t, videos.Create(pendingVideo()))

		_, err := pipeline.Process(context.Background(), "vid1")
		require.NoError(t, err)

		outcome, err := pipeline.Process(context.Background(), "vid1")

		require.NoError(t, err)
		assert.Equal(t, process.OutcomeSkipped, outcome.Status)
		assert.Equal(t, 1, resolver.calls)
		assert.Equal(t, 1, summarizer.calls)
	})

	t.Run("missing transcript fails the video", func(t *testing.T) {
		resolver := &fakeResolver{err: transcript.ErrNotAvailable}
		summarizer := &fakeSummarizer{summary: summary}
		pipeline, videos := testPipeline(t, resolver, summarizer)
		require.NoError(t, videos.Create(pendingVideo()))

		outcome, err := pipeline.Process(context.Background(), "vid1")

		require.Error(t, err)
		assert.Equal(t, process.OutcomeFailed, outcome.Status)
		assert.Equal(t, 0, summarizer.calls)

		stored, ferr := videos.Find("vid1")
		require.NoError(t, ferr)
		assert.Equal(t, model.StatusFailed, stored.Status)
		assert.Equal(t, 1, stored.RetryCount)
		assert.NotEmpty(t, stored.ErrorMessage)
		assert.False(t, stored.LastRetryAt.IsZero())
	})

	t.Run("summarizer failure increments retry count", func(t *testing.T) {
		resolver := &fakeResolver{result: &transcript.Result{Text: "transkript"}}
		summarizer := &fakeSummarizer{err: errors.New("api down")}
		pipeline, videos := testPipeline(t, resolver, summarizer)
		require.NoError(t, videos.Create(pendingVideo()))

		_, err := pipeline.Process(context.Background(), "vid1")
		require.Error(t, err)
		_, err = pipeline.Process(context.Background(), "vid1")
		require.Error(t, err)

		stored, ferr := videos.Find("vid1")
		require.NoError(t, ferr)
		assert.Equal(t, 2, stored.RetryCount)
	})
}

type brokenSaveRepo struct {
	*storage.MemoryVideoRepository
	saveErr error
}

func (r *brokenSaveRepo) Save(_ *model.Video) error {
	return r.saveErr
}

func TestRunSurvivesFailedClaim(t *testing.T) {
	videos := &brokenSaveRepo{
		MemoryVideoRepository: storage.NewMemoryVideoRepository(),
		saveErr:               errors.New("connection reset"),
	}
	require.NoError(t, videos.Create(pendingVideo()))
	channels := storage.NewMemoryChannelRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	summary := &model.Summary{Category: model.CategorySport, CoreMessage: "Kern."}
	pipeline := process.NewPipeline(videos, channels,
		&fakeResolver{result: &transcript.Result{Text: "transkript"}},
		&fakeSummarizer{summary: summary}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pipeline.Run(ctx)
		close(done)
	}()

	// The claim write fails so the stored video still has retry count 0
	// when the worker schedules the retry.
	pipeline.Enqueue("vid1")
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	stored, err := videos.Find("vid1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)
	assert.Equal(t, 0, stored.RetryCount)
}

func TestReset(t *testing.T) {
	resolver := &fakeResolver{err: transcript.ErrNotAvailable}
	pipeline, videos := testPipeline(t, resolver, &fakeSummarizer{})
	require.NoError(t, videos.Create(pendingVideo()))

	_, err := pipeline.Process(context.Background(), "vid1")
	require.Error(t, err)

	require.NoError(t, pipeline.Reset("vid1"))

	stored, err := videos.Find("vid1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)
	assert.Equal(t, 0, stored.RetryCount)
	assert.Empty(t, stored.ErrorMessage)
}

func TestRetryable(t *testing.T) {
	assert.False(t, process.Retryable(transcript.ErrNotAvailable))
	assert.True(t, process.Retryable(&transcript.RateLimitError{Provider: "supadata"}))
	assert.True(t, process.Retryable(errors.New("network trouble")))
}
