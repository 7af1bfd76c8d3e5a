package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"ewintr.nl/tubedigest/model"
)

const (
	SourceSupadata  = "supadata"
	supadataBaseURL = "https://api.supadata.ai/v1"
)

// SupadataSource asks the Supadata API for an AI generated transcript. It is
// the fallback for videos without usable caption tracks.
type SupadataSource struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewSupadataSource(apiKey string, client *http.Client) *SupadataSource {
	return &SupadataSource{
		apiKey:  apiKey,
		baseURL: supadataBaseURL,
		client:  client,
	}
}

func (s *SupadataSource) Name() string { return "supadata" }

func (s *SupadataSource) Fetch(ctx context.Context, videoID model.VideoID) (*Result, error) {
	if s.apiKey == "" {
		return nil, ErrNotAvailable
	}

	reqURL := fmt.Sprintf("%s/youtube/transcript?%s", s.baseURL, url.Values{
		"videoId": []string{string(videoID)},
		"text":    []string{"true"},
	}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supadata request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotAvailable
	case http.StatusTooManyRequests:
		return nil, &RateLimitError{Provider: "supadata"}
	default:
		return nil, fmt.Errorf("supadata returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read supadata response: %w", err)
	}

	var payload struct {
		Text    string `json:"text"`
		Lang    string `json:"lang"`
		Content []struct {
			Text  string  `json:"text"`
			Start float64 `json:"start"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse supadata response: %w", err)
	}

	language := payload.Lang
	if language == "" {
		language = "unknown"
	}

	if payload.Text != "" {
		return &Result{
			VideoID:  videoID,
			Text:     payload.Text,
			Language: language,
			Source:   SourceSupadata,
		}, nil
	}

	if len(payload.Content) > 0 {
		segments := make([]Segment, 0, len(payload.Content))
		for _, c := range payload.Content {
			segments = append(segments, Segment{Text: c.Text, Start: c.Start})
		}

		return &Result{
			VideoID:  videoID,
			Text:     PlainText(segments),
			Language: language,
			Source:   SourceSupadata,
			Segments: segments,
		}, nil
	}

	return nil, ErrNotAvailable
}
