// Package summarize turns transcripts into structured German summaries
// through an OpenAI compatible chat API.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ewintr.nl/tubedigest/model"
	"ewintr.nl/tubedigest/transcript"
	"github.com/cenkalti/backoff/v4"
	"github.com/sashabaranov/go-openai"
)

const (
	chunkThreshold = 500_000
	chunkSize      = 400_000
	chunkOverlap   = 500

	maxAttempts   = 3
	retryInterval = time.Second
)

// Error wraps a summarization failure. Retryable failures are worth another
// pipeline pass later, validation failures are not.
type Error struct {
	msg       string
	Retryable bool
}

func (e *Error) Error() string {
	return e.msg
}

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Summarizer struct {
	client         chatClient
	model          string
	retryWait      time.Duration
	chunkThreshold int
	chunkSize      int
	chunkOverlap   int
	logger         *slog.Logger
}

func NewSummarizer(apiKey, baseURL, chatModel string, logger *slog.Logger) *Summarizer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: 5 * time.Minute}

	return &Summarizer{
		client:         openai.NewClientWithConfig(cfg),
		model:          chatModel,
		retryWait:      retryInterval,
		chunkThreshold: chunkThreshold,
		chunkSize:      chunkSize,
		chunkOverlap:   chunkOverlap,
		logger:         logger,
	}
}

// Summarize produces a structured summary. Transcripts above the chunking
// threshold are summarized per chunk and synthesized into a single result.
func (s *Summarizer) Summarize(ctx context.Context, text, title, channel string, durationSeconds int) (*model.Summary, error) {
	duration := model.FormatHuman(durationSeconds)
	chunks := transcript.Chunk(text, s.chunkThreshold, s.chunkSize, s.chunkOverlap)

	if len(chunks) == 1 {
		prompt := fmt.Sprintf(summaryPrompt, title, channel, duration, chunks[0])

		return s.call(ctx, prompt)
	}

	s.logger.Info("transcript requires chunking",
		slog.String("title", title),
		slog.Int("chunks", len(chunks)),
		slog.Int("chars", len(text)))

	summaries := make([]*model.Summary, 0, len(chunks))
	for i, chunk := range chunks {
		prompt := fmt.Sprintf(summaryPrompt,
			fmt.Sprintf("%s (Teil %d/%d)", title, i+1, len(chunks)),
			channel, duration, chunk)
		summary, err := s.call(ctx, prompt)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	return s.synthesize(ctx, summaries, title, channel, duration)
}

func (s *Summarizer) synthesize(ctx context.Context, summaries []*model.Summary, title, channel, duration string) (*model.Summary, error) {
	var b strings.Builder
	for i, summary := range summaries {
		fmt.Fprintf(&b, "\n### Teil %d\n", i+1)
		fmt.Fprintf(&b, "**Kernaussage:** %s\n\n", summary.CoreMessage)
		fmt.Fprintf(&b, "**Zusammenfassung:** %s\n\n", summary.DetailedSummary)
		b.WriteString("**Key Takeaways:**\n")
		for _, takeaway := range summary.KeyTakeaways {
			fmt.Fprintf(&b, "- %s\n", takeaway)
		}
		b.WriteString("\n")
	}

	s.logger.Info("synthesizing chunk summaries", slog.Int("count", len(summaries)))

	return s.call(ctx, fmt.Sprintf(synthesisPrompt, title, channel, duration, b.String()))
}

// Categorize classifies a video from title and description alone, without a
// transcript.
func (s *Summarizer) Categorize(ctx context.Context, title, channel, description string) (model.Category, error) {
	if description == "" {
		description = "(keine Beschreibung)"
	}
	if len(description) > 1000 {
		description = description[:1000]
	}

	content, err := s.complete(ctx, fmt.Sprintf(categorizePrompt, title, channel, description))
	if err != nil {
		return "", err
	}

	var payload struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return "", &Error{msg: fmt.Sprintf("could not parse category response: %v", err)}
	}
	category, err := model.ParseCategory(payload.Category)
	if err != nil {
		return "", &Error{msg: err.Error()}
	}

	return category, nil
}

func (s *Summarizer) call(ctx context.Context, prompt string) (*model.Summary, error) {
	content, err := s.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var summary model.Summary
	if err := json.Unmarshal([]byte(content), &summary); err != nil {
		return nil, &Error{msg: fmt.Sprintf("could not parse summary response: %v", err)}
	}
	if !summary.Valid() {
		return nil, &Error{msg: fmt.Sprintf("invalid summary, category %q, core message %q",
			summary.Category, summary.CoreMessage)}
	}

	return &summary, nil
}

// complete runs one chat completion with retries. Exhausting the retries
// yields a retryable Error so the pipeline can reschedule the video.
func (s *Summarizer) complete(ctx context.Context, prompt string) (string, error) {
	var content string
	var lastErr error
	attempt := 0

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.retryWait
	bo.Multiplier = 2
	bo.RandomizationFactor = 0

	err := backoff.Retry(func() error {
		attempt++
		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			lastErr = err
			s.logger.Warn("chat completion attempt failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))

			return err
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("empty response")

			return lastErr
		}
		content = resp.Choices[0].Message.Content

		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, maxAttempts-1), ctx))
	if err != nil {
		return "", &Error{
			msg:       fmt.Sprintf("chat completion failed after %d attempts: %v", maxAttempts, lastErr),
			Retryable: true,
		}
	}

	return content, nil
}
