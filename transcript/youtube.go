package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"ewintr.nl/tubedigest/model"
)

var preferredLanguages = []string{"de", "en", "en-US", "en-GB"}

const (
	SourceCaptions     = "youtube"
	SourceAutoCaptions = "youtube_auto"

	watchURLFormat = "https://www.youtube.com/watch?v=%s"
)

type captionTrack struct {
	BaseURL        string `json:"baseUrl"`
	LanguageCode   string `json:"languageCode"`
	Kind           string `json:"kind"`
	IsTranslatable bool   `json:"isTranslatable"`
}

// CaptionSource pulls the caption track list out of a video's watch page and
// fetches the best matching track as timedtext XML. Manual tracks in a
// preferred language win over auto generated ones, anything else gets
// translated to German when the track allows it.
type CaptionSource struct {
	client *http.Client
}

func NewCaptionSource(client *http.Client) *CaptionSource {
	return &CaptionSource{client: client}
}

func (s *CaptionSource) Name() string { return "youtube captions" }

func (s *CaptionSource) Fetch(ctx context.Context, videoID model.VideoID) (*Result, error) {
	tracks, err := s.listTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, ErrNotAvailable
	}

	track, source, translate := pickTrack(tracks)

	segments, language, err := s.fetchTrack(ctx, track, translate)
	if err != nil && translate {
		// Translation can fail on YouTube's side, the original track
		// is still worth having.
		segments, language, err = s.fetchTrack(ctx, track, false)
	}
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, ErrNotAvailable
	}

	return &Result{
		VideoID:  videoID,
		Text:     PlainText(segments),
		Language: language,
		Source:   source,
		Segments: segments,
	}, nil
}

func (s *CaptionSource) listTracks(ctx context.Context, videoID model.VideoID) ([]captionTrack, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf(watchURLFormat, videoID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9,en;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch watch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{Provider: "youtube"}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("watch page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read watch page: %w", err)
	}

	return extractCaptionTracks(string(body))
}

// extractCaptionTracks finds the captionTracks array embedded in the watch
// page's player response JSON.
func extractCaptionTracks(page string) ([]captionTrack, error) {
	const marker = `"captionTracks":`
	start := strings.Index(page, marker)
	if start < 0 {
		return nil, nil
	}
	raw := page[start+len(marker):]

	end, depth := -1, 0
	for i, c := range raw {
		switch c {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				end = i + 1
			}
		}
		if end > 0 {
			break
		}
	}
	if end < 0 {
		return nil, fmt.Errorf("unterminated caption track list")
	}

	var tracks []captionTrack
	if err := json.Unmarshal([]byte(raw[:end]), &tracks); err != nil {
		return nil, fmt.Errorf("parse caption tracks: %w", err)
	}

	return tracks, nil
}

// pickTrack selects the track to fetch and reports whether it should be
// translated to German.
func pickTrack(tracks []captionTrack) (captionTrack, string, bool) {
	for _, lang := range preferredLanguages {
		for _, track := range tracks {
			if track.LanguageCode == lang && track.Kind != "asr" {
				return track, SourceCaptions, false
			}
		}
	}
	for _, lang := range preferredLanguages {
		for _, track := range tracks {
			if track.LanguageCode == lang {
				return track, SourceAutoCaptions, false
			}
		}
	}

	track := tracks[0]
	source := SourceCaptions
	if track.Kind == "asr" {
		source = SourceAutoCaptions
	}

	return track, source, track.IsTranslatable
}

func (s *CaptionSource) fetchTrack(ctx context.Context, track captionTrack, translate bool) ([]Segment, string, error) {
	url := track.BaseURL
	language := track.LanguageCode
	if translate {
		url += "&tlang=de"
		language = "de"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch caption track: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, "", &RateLimitError{Provider: "youtube"}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("caption track returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, "", fmt.Errorf("read caption track: %w", err)
	}

	segments, err := parseTimedText(body)
	if err != nil {
		return nil, "", err
	}

	return segments, language, nil
}

type timedText struct {
	Texts []struct {
		Start float64 `xml:"start,attr"`
		Body  string  `xml:",chardata"`
	} `xml:"text"`
}

func parseTimedText(data []byte) ([]Segment, error) {
	var doc timedText
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse timedtext: %w", err)
	}

	segments := make([]Segment, 0, len(doc.Texts))
	for _, text := range doc.Texts {
		// Tracks double-escape entities, the XML decoder only unwraps
		// one layer.
		body := strings.TrimSpace(html.UnescapeString(text.Body))
		if body == "" {
			continue
		}
		segments = append(segments, Segment{
			Text:  strings.ReplaceAll(body, "\n", " "),
			Start: text.Start,
		})
	}

	return segments, nil
}
