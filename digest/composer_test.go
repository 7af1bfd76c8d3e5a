package digest_test

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"ewintr.nl/tubedigest/digest"
	"ewintr.nl/tubedigest/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func completedVideo(id string, category model.Category, publishedAt time.Time) *model.Video {
	return &model.Video{
		ID:              model.VideoID(id),
		ChannelID:       "UCchan",
		Title:           "Video " + id,
		DurationSeconds: 600,
		PublishedAt:     publishedAt,
		Category:        category,
		Status:          model.StatusCompleted,
		Summary: &model.Summary{
			Category:        category,
			CoreMessage:     "Kernaussage von " + id,
			DetailedSummary: "Details.",
			KeyTakeaways:    []string{"Erkenntnis eins"},
		},
	}
}

func TestCompose(t *testing.T) {
	now := time.Now()
	composer := digest.NewComposer(50, "http://localhost:8080", discardLogger())
	names := map[model.ChannelID]string{"UCchan": "Ein Kanal"}

	t.Run("empty input", func(t *testing.T) {
		_, err := composer.Compose(nil, names)
		assert.ErrorIs(t, err, digest.ErrNoVideos)
	})

	t.Run("subject and stats", func(t *testing.T) {
		videos := []*model.Video{
			completedVideo("vid1", model.CategorySport, now.Add(-48*time.Hour)),
			completedVideo("vid2", model.CategorySport, now.Add(-24*time.Hour)),
		}

		result, err := composer.Compose(videos, names)

		require.NoError(t, err)
		exp := fmt.Sprintf("YouTube Digest: 2 neue Videos (%s - %s)",
			now.Add(-48*time.Hour).Format("02.01.2006"), now.Format("02.01.2006"))
		assert.Equal(t, exp, result.Subject)
		assert.Equal(t, 2, result.VideoCount)
		assert.Equal(t, 1200, result.TotalDurationSeconds)
		assert.Equal(t, map[model.Category]int{model.CategorySport: 2}, result.CategoryCounts)
		assert.Contains(t, result.HTML, "Kernaussage von vid1")
		assert.Contains(t, result.PlainText, "YOUTUBE DIGEST")
		assert.Contains(t, result.PlainText, "https://www.youtube.com/watch?v=vid1")
	})

	t.Run("categories ordered by priority", func(t *testing.T) {
		videos := []*model.Video{
			completedVideo("vid1", model.CategorySonstige, now.Add(-time.Hour)),
			completedVideo("vid2", model.CategoryClaudeCode, now.Add(-2*time.Hour)),
			completedVideo("vid3", model.CategoryGesundheit, now.Add(-3*time.Hour)),
		}

		result, err := composer.Compose(videos, names)

		require.NoError(t, err)
		claudePos := strings.Index(result.PlainText, "CLAUDE CODE")
		gesundheitPos := strings.Index(result.PlainText, "GESUNDHEIT")
		sonstigePos := strings.Index(result.PlainText, "SONSTIGE")
		assert.Less(t, claudePos, gesundheitPos)
		assert.Less(t, gesundheitPos, sonstigePos)
	})

	t.Run("empty core message drops the item", func(t *testing.T) {
		broken := completedVideo("vid2", model.CategorySport, now)
		broken.Summary.CoreMessage = ""
		videos := []*model.Video{
			completedVideo("vid1", model.CategorySport, now.Add(-time.Hour)),
			broken,
		}

		result, err := composer.Compose(videos, names)

		require.NoError(t, err)
		assert.Equal(t, 1, result.VideoCount)
		assert.NotContains(t, result.HTML, "Video vid2")
		// Stats describe the rendered item only.
		assert.Equal(t, 600, result.TotalDurationSeconds)
		assert.Equal(t, 1, result.CategoryCounts[model.CategorySport])
		// The broken video still gets claimed so it stops blocking runs.
		assert.Contains(t, result.VideoIDs, model.VideoID("vid2"))
	})

	t.Run("only broken summaries", func(t *testing.T) {
		broken := completedVideo("vid1", model.CategorySport, now)
		broken.Summary = nil

		_, err := composer.Compose([]*model.Video{broken}, names)

		assert.ErrorIs(t, err, digest.ErrNoValidSummaries)
	})

	t.Run("cap keeps the newest videos", func(t *testing.T) {
		capped := digest.NewComposer(50, "http://localhost:8080", discardLogger())
		videos := make([]*model.Video, 0, 75)
		for i := 0; i < 75; i++ {
			videos = append(videos, completedVideo(
				fmt.Sprintf("vid%03d", i), model.CategorySport, now.Add(-time.Duration(i)*time.Hour)))
		}

		result, err := capped.Compose(videos, names)

		require.NoError(t, err)
		assert.Equal(t, 50, result.VideoCount)
		assert.Len(t, result.VideoIDs, 50)
		assert.Contains(t, result.VideoIDs, model.VideoID("vid000"))
		assert.NotContains(t, result.VideoIDs, model.VideoID("vid074"))
		// Stats cover the capped selection, record and email agree.
		assert.Equal(t, 50*600, result.TotalDurationSeconds)
		assert.Equal(t, 50, result.CategoryCounts[model.CategorySport])
	})

	t.Run("unknown channel falls back", func(t *testing.T) {
		videos := []*model.Video{completedVideo("vid1", model.CategorySport, now)}

		result, err := composer.Compose(videos, map[model.ChannelID]string{})

		require.NoError(t, err)
		assert.Contains(t, result.PlainText, "Unbekannt")
	})
}
