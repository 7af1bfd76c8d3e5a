// Package digest composes summary emails from completed videos and sends
// them through Resend.
package digest

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"ewintr.nl/tubedigest/model"
)

var (
	ErrNoVideos         = errors.New("no videos for digest")
	ErrNoValidSummaries = errors.New("no videos with valid summaries")
)

// Item is one video entry in the rendered digest.
type Item struct {
	VideoID      model.VideoID
	Title        string
	ChannelName  string
	Duration     string
	PublishedAt  time.Time
	Category     model.Category
	CoreMessage  string
	KeyTakeaways []string
	ActionItems  []string
	WatchURL     string
	SummaryURL   string
}

// Group holds the items of one category, in digest order.
type Group struct {
	Category model.Category
	Items    []Item
}

type Result struct {
	Subject              string
	HTML                 string
	PlainText            string
	VideoIDs             []model.VideoID
	VideoCount           int
	TotalDurationSeconds int
	CategoryCounts       map[model.Category]int
	PeriodStart          time.Time
	PeriodEnd            time.Time
}

type Composer struct {
	maxVideos        int
	dashboardBaseURL string
	logger           *slog.Logger
}

func NewComposer(maxVideos int, dashboardBaseURL string, logger *slog.Logger) *Composer {
	return &Composer{
		maxVideos:        maxVideos,
		dashboardBaseURL: dashboardBaseURL,
		logger:           logger,
	}
}

// Compose builds the digest content for the given videos. When more videos
// than the cap are offered only the newest ones make it in, the rest stays
// undigested for the next run. All reported stats describe the capped
// selection.
func (c *Composer) Compose(videos []*model.Video, channelNames map[model.ChannelID]string) (*Result, error) {
	if len(videos) == 0 {
		return nil, ErrNoVideos
	}

	if len(videos) > c.maxVideos {
		c.logger.Warn("limiting digest",
			slog.Int("offered", len(videos)),
			slog.Int("cap", c.maxVideos))
		sorted := make([]*model.Video, len(videos))
		copy(sorted, videos)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
		})
		videos = sorted[:c.maxVideos]
	}

	// VideoIDs keeps every capped video, including the skipped ones, so a
	// video without a usable summary gets claimed instead of blocking every
	// following digest. The stats describe only what the mail shows.
	result := &Result{CategoryCounts: map[model.Category]int{}}
	items := make([]Item, 0, len(videos))
	for _, video := range videos {
		result.VideoIDs = append(result.VideoIDs, video.ID)
		if !video.Digestible() {
			c.logger.Warn("video without usable summary skipped",
				slog.String("video_id", string(video.ID)))
			continue
		}
		items = append(items, c.item(video, channelNames))
		result.TotalDurationSeconds += video.DurationSeconds
		result.CategoryCounts[video.Category]++
	}
	if len(items) == 0 {
		return nil, ErrNoValidSummaries
	}

	periodStart, periodEnd := items[0].PublishedAt, time.Now()
	for _, item := range items {
		if item.PublishedAt.Before(periodStart) {
			periodStart = item.PublishedAt
		}
	}

	result.VideoCount = len(items)
	result.PeriodStart = periodStart
	result.PeriodEnd = periodEnd
	result.Subject = fmt.Sprintf("YouTube Digest: %d neue Videos (%s - %s)",
		len(items), periodStart.Format("02.01.2006"), periodEnd.Format("02.01.2006"))

	groups := groupByCategory(items)

	html, err := renderHTML(result, groups, c.dashboardBaseURL)
	if err != nil {
		return nil, fmt.Errorf("render digest html: %w", err)
	}
	result.HTML = html
	result.PlainText = renderPlainText(result, groups, c.dashboardBaseURL)

	c.logger.Info("composed digest",
		slog.Int("videos", len(items)),
		slog.Int("categories", len(groups)))

	return result, nil
}

func (c *Composer) item(video *model.Video, channelNames map[model.ChannelID]string) Item {
	channelName := channelNames[video.ChannelID]
	if channelName == "" {
		channelName = "Unbekannt"
	}
	takeaways := video.Summary.KeyTakeaways
	if len(takeaways) > 10 {
		takeaways = takeaways[:10]
	}
	actionItems := video.Summary.ActionItems
	if len(actionItems) > 5 {
		actionItems = actionItems[:5]
	}

	return Item{
		VideoID:      video.ID,
		Title:        video.Title,
		ChannelName:  channelName,
		Duration:     model.FormatHuman(video.DurationSeconds),
		PublishedAt:  video.PublishedAt,
		Category:     video.Category,
		CoreMessage:  video.Summary.CoreMessage,
		KeyTakeaways: takeaways,
		ActionItems:  actionItems,
		WatchURL:     video.WatchURL(),
		SummaryURL:   fmt.Sprintf("%s/video/%s", c.dashboardBaseURL, video.ID),
	}
}

// groupByCategory orders groups by category priority, then name, with each
// group's items newest first.
func groupByCategory(items []Item) []Group {
	byCategory := map[model.Category][]Item{}
	for _, item := range items {
		byCategory[item.Category] = append(byCategory[item.Category], item)
	}

	groups := make([]Group, 0, len(byCategory))
	for category, items := range byCategory {
		sort.Slice(items, func(i, j int) bool {
			return items[i].PublishedAt.After(items[j].PublishedAt)
		})
		groups = append(groups, Group{Category: category, Items: items})
	}
	sort.Slice(groups, func(i, j int) bool {
		pi, pj := groups[i].Category.Priority(), groups[j].Category.Priority()
		if pi != pj {
			return pi < pj
		}

		return groups[i].Category < groups[j].Category
	})

	return groups
}
