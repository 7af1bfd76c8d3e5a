package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ewintr.nl/tubedigest/model"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"
)

const detailsBatchSize = 50

// QuotaError marks a daily quota exhaustion. Callers should stop the current
// pass instead of retrying.
type QuotaError struct {
	Err error
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("youtube quota exceeded: %v", e.Err)
}

func (e *QuotaError) Unwrap() error {
	return e.Err
}

// Details carries the video attributes the eligibility filter and the
// pipeline need.
type Details struct {
	ID              model.VideoID
	ChannelID       model.ChannelID
	Title           string
	Description     string
	PublishedAt     time.Time
	ThumbnailURL    string
	DurationSeconds int
	BroadcastState  string
	HasLiveDetails  bool
}

// Upload is a single playlist entry from a channel's uploads playlist.
type Upload struct {
	ID          model.VideoID
	Title       string
	PublishedAt time.Time
}

type Subscription struct {
	ChannelID    model.ChannelID
	Name         string
	Description  string
	ThumbnailURL string
}

type Client struct {
	service *youtube.Service
}

func NewClient(service *youtube.Service) *Client {
	return &Client{service: service}
}

// Subscriptions lists all subscriptions of the authenticated account, paging
// until the API stops handing out tokens.
func (c *Client) Subscriptions(ctx context.Context) ([]Subscription, error) {
	subs := []Subscription{}
	pageToken := ""
	for {
		call := c.service.Subscriptions.
			List([]string{"snippet"}).
			Mine(true).
			MaxResults(50).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		response, err := call.Do()
		if err != nil {
			return nil, wrapAPIError("subscriptions.list", err)
		}

		for _, item := range response.Items {
			if item.Snippet == nil || item.Snippet.ResourceId == nil {
				continue
			}
			sub := Subscription{
				ChannelID:   model.ChannelID(item.Snippet.ResourceId.ChannelId),
				Name:        item.Snippet.Title,
				Description: item.Snippet.Description,
			}
			if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.Default != nil {
				sub.ThumbnailURL = item.Snippet.Thumbnails.Default.Url
			}
			subs = append(subs, sub)
		}

		pageToken = response.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return subs, nil
}

// ChannelVideos lists recent uploads of a channel, newest first. It walks the
// channel's uploads playlist and stops as soon as an entry falls before since,
// or when max entries have been collected.
func (c *Client) ChannelVideos(ctx context.Context, channelID model.ChannelID, since time.Time, max int64) ([]Upload, error) {
	playlistID, err := uploadsPlaylistID(channelID)
	if err != nil {
		return nil, err
	}

	uploads := []Upload{}
	pageToken := ""
	for {
		call := c.service.PlaylistItems.
			List([]string{"snippet", "contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(50).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		response, err := call.Do()
		if err != nil {
			return nil, wrapAPIError("playlistItems.list", err)
		}

		for _, item := range response.Items {
			if item.ContentDetails == nil || item.Snippet == nil {
				continue
			}
			publishedAt, err := time.Parse(time.RFC3339, item.ContentDetails.VideoPublishedAt)
			if err != nil {
				continue
			}
			// The uploads playlist is ordered newest first, so the
			// first entry behind the watermark ends the walk.
			if publishedAt.Before(since) {
				return uploads, nil
			}
			uploads = append(uploads, Upload{
				ID:          model.VideoID(item.ContentDetails.VideoId),
				Title:       item.Snippet.Title,
				PublishedAt: publishedAt,
			})
			if int64(len(uploads)) >= max {
				return uploads, nil
			}
		}

		pageToken = response.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return uploads, nil
}

// VideoDetails fetches metadata for the given ids in batches of 50, the
// maximum videos.list accepts.
func (c *Client) VideoDetails(ctx context.Context, ids []model.VideoID) (map[model.VideoID]Details, error) {
	details := make(map[model.VideoID]Details, len(ids))
	for start := 0; start < len(ids); start += detailsBatchSize {
		end := start + detailsBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			batch = append(batch, string(id))
		}

		response, err := c.service.Videos.
			List([]string{"snippet", "contentDetails", "liveStreamingDetails"}).
			Id(strings.Join(batch, ",")).
			Context(ctx).
			Do()
		if err != nil {
			return nil, wrapAPIError("videos.list", err)
		}

		for _, item := range response.Items {
			d := Details{
				ID:             model.VideoID(item.Id),
				HasLiveDetails: item.LiveStreamingDetails != nil,
			}
			if item.Snippet != nil {
				d.ChannelID = model.ChannelID(item.Snippet.ChannelId)
				d.Title = item.Snippet.Title
				d.Description = item.Snippet.Description
				d.BroadcastState = item.Snippet.LiveBroadcastContent
				if publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
					d.PublishedAt = publishedAt
				}
				if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.Medium != nil {
					d.ThumbnailURL = item.Snippet.Thumbnails.Medium.Url
				}
			}
			if item.ContentDetails != nil {
				d.DurationSeconds = model.ParseISODuration(item.ContentDetails.Duration)
			}
			details[d.ID] = d
		}
	}

	return details, nil
}

// uploadsPlaylistID derives the uploads playlist from a channel id. Regular
// channel ids start with UC and the uploads playlist swaps that prefix for UU,
// which saves a channels.list call per channel.
func uploadsPlaylistID(channelID model.ChannelID) (string, error) {
	id := string(channelID)
	if !strings.HasPrefix(id, "UC") {
		return "", fmt.Errorf("unexpected channel id format: %s", id)
	}

	return "UU" + id[2:], nil
}

func wrapAPIError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 403 {
		for _, e := range apiErr.Errors {
			if e.Reason == "quotaExceeded" || e.Reason == "dailyLimitExceeded" {
				return &QuotaError{Err: err}
			}
		}
	}

	return fmt.Errorf("%s call failed: %w", op, err)
}
