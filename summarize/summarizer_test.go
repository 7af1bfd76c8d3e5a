package summarize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"ewintr.nl/tubedigest/model"
	"ewintr.nl/tubedigest/transcript"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSummaryJSON = `{
"category": "Coding/AI Allgemein",
"core_message": "Ein Überblick über moderne Werkzeuge.",
"detailed_summary": "Das Video stellt mehrere Werkzeuge vor.",
"key_takeaways": ["Werkzeug A spart Zeit", "Werkzeug B ist kostenlos"],
"timestamps": [{"time": "01:30", "description": "Einführung"}],
"action_items": ["Werkzeug A ausprobieren"]
}`

type fakeChat struct {
	responses []string
	err       error
	failFirst int
	calls     int
	prompts   []string
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	f.prompts = append(f.prompts, req.Messages[len(req.Messages)-1].Content)
	if f.calls <= f.failFirst {
		return openai.ChatCompletionResponse{}, fmt.Errorf("attempt %d failed", f.calls)
	}
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	content := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}

	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}, nil
}

func newTestSummarizer(chat *fakeChat) *Summarizer {
	return &Summarizer{
		client:         chat,
		model:          "test-model",
		retryWait:      time.Millisecond,
		chunkThreshold: chunkThreshold,
		chunkSize:      chunkSize,
		chunkOverlap:   chunkOverlap,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSummarize(t *testing.T) {
	t.Run("single chunk skips synthesis", func(t *testing.T) {
		chat := &fakeChat{responses: []string{validSummaryJSON}}
		s := newTestSummarizer(chat)

		summary, err := s.Summarize(context.Background(), "kurzes transkript", "Titel", "Kanal", 933)

		require.NoError(t, err)
		assert.Equal(t, 1, chat.calls)
		assert.Equal(t, model.CategoryCodingAI, summary.Category)
		assert.Equal(t, "Ein Überblick über moderne Werkzeuge.", summary.CoreMessage)
		assert.NotContains(t, chat.prompts[0], "Teil 1/")
	})

	t.Run("long transcript is chunked and synthesized", func(t *testing.T) {
		chat := &fakeChat{responses: []string{validSummaryJSON}}
		s := newTestSummarizer(chat)
		s.chunkThreshold = 100
		s.chunkSize = 80
		s.chunkOverlap = 10
		text := strings.Repeat("Das ist ein Satz. ", 10)
		chunks := len(transcript.Chunk(text, s.chunkThreshold, s.chunkSize, s.chunkOverlap))
		require.Greater(t, chunks, 1)

		summary, err := s.Summarize(context.Background(), text, "Titel", "Kanal", 933)

		require.NoError(t, err)
		assert.Equal(t, chunks+1, chat.calls)
		assert.Contains(t, chat.prompts[0], fmt.Sprintf("(Teil 1/%d)", chunks))
		assert.Contains(t, chat.prompts[chunks-1], fmt.Sprintf("(Teil %d/%d)", chunks, chunks))
		// The last call merges the chunk summaries.
		assert.Contains(t, chat.prompts[chunks], "### Teil 1")
		assert.NotContains(t, chat.prompts[chunks], "Teil 1/")
		assert.Equal(t, model.CategoryCodingAI, summary.Category)
	})

	t.Run("retries transient failures", func(t *testing.T) {
		chat := &fakeChat{responses: []string{validSummaryJSON}, failFirst: 2}
		s := newTestSummarizer(chat)

		_, err := s.Summarize(context.Background(), "transkript", "Titel", "Kanal", 60)

		require.NoError(t, err)
		assert.Equal(t, 3, chat.calls)
	})

	t.Run("exhausted retries yield retryable error", func(t *testing.T) {
		chat := &fakeChat{err: errors.New("api down"), failFirst: 10}
		s := newTestSummarizer(chat)

		_, err := s.Summarize(context.Background(), "transkript", "Titel", "Kanal", 60)

		var sumErr *Error
		require.ErrorAs(t, err, &sumErr)
		assert.True(t, sumErr.Retryable)
		assert.Equal(t, 3, chat.calls)
	})

	t.Run("unknown category is rejected", func(t *testing.T) {
		chat := &fakeChat{responses: []string{`{
"category": "Kochen",
"core_message": "x",
"detailed_summary": "y",
"key_takeaways": ["z"]
}`}}
		s := newTestSummarizer(chat)

		_, err := s.Summarize(context.Background(), "transkript", "Titel", "Kanal", 60)

		var sumErr *Error
		require.ErrorAs(t, err, &sumErr)
		assert.False(t, sumErr.Retryable)
	})
}

func TestCategorize(t *testing.T) {
	chat := &fakeChat{responses: []string{`{"category": "Beachvolleyball"}`}}
	s := newTestSummarizer(chat)

	category, err := s.Categorize(context.Background(), "Titel", "Kanal", "Beschreibung")

	require.NoError(t, err)
	assert.Equal(t, model.CategoryBeachvolley, category)
	assert.Contains(t, chat.prompts[0], "Beschreibung")
}
