package storage_test

import (
	"testing"
	"time"

	"ewintr.nl/tubedigest/model"
	"ewintr.nl/tubedigest/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryVideoRepository(t *testing.T) {
	repo := storage.NewMemoryVideoRepository()
	now := time.Now()

	for i, id := range []model.VideoID{"old", "mid", "new"} {
		require.NoError(t, repo.Create(&model.Video{
			ID:          id,
			ChannelID:   "UCchan",
			PublishedAt: now.Add(time.Duration(i) * time.Hour),
			Status:      model.StatusCompleted,
		}))
	}

	t.Run("find unknown", func(t *testing.T) {
		_, err := repo.Find("nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("undigested ordering is newest first", func(t *testing.T) {
		videos, err := repo.FindUndigestedCompleted()
		require.NoError(t, err)
		require.Len(t, videos, 3)
		assert.Equal(t, model.VideoID("new"), videos[0].ID)
		assert.Equal(t, model.VideoID("old"), videos[2].ID)
	})

	t.Run("mark digested claims only unset rows", func(t *testing.T) {
		first := uuid.New()
		claimed, err := repo.MarkDigested([]model.VideoID{"old", "mid"}, first)
		require.NoError(t, err)
		assert.Equal(t, int64(2), claimed)

		second := uuid.New()
		claimed, err = repo.MarkDigested([]model.VideoID{"mid", "new"}, second)
		require.NoError(t, err)
		assert.Equal(t, int64(1), claimed)

		firstVideos, err := repo.FindByDigest(first)
		require.NoError(t, err)
		assert.Len(t, firstVideos, 2)
		secondVideos, err := repo.FindByDigest(second)
		require.NoError(t, err)
		require.Len(t, secondVideos, 1)
		assert.Equal(t, model.VideoID("new"), secondVideos[0].ID)

		count, err := repo.CountUndigestedCompleted()
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("save does not clear the digest back reference", func(t *testing.T) {
		video, err := repo.Find("old")
		require.NoError(t, err)
		video.Title = "renamed"
		video.DigestID = nil
		require.NoError(t, repo.Save(video))

		stored, err := repo.Find("old")
		require.NoError(t, err)
		assert.Equal(t, "renamed", stored.Title)
		assert.NotNil(t, stored.DigestID)
	})
}

func TestMemoryChannelRepository(t *testing.T) {
	repo := storage.NewMemoryChannelRepository()
	require.NoError(t, repo.Save(&model.Channel{ID: "UCb", Name: "Beta", Active: true}))
	require.NoError(t, repo.Save(&model.Channel{ID: "UCa", Name: "Alpha", Active: true}))
	require.NoError(t, repo.Save(&model.Channel{ID: "UCc", Name: "Gamma", Active: false}))

	channels, err := repo.FindActive()
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, "Alpha", channels[0].Name)
	assert.Equal(t, "Beta", channels[1].Name)

	stamp := time.Now()
	require.NoError(t, repo.StampChecked([]model.ChannelID{"UCa"}, stamp))
	channel, err := repo.Find("UCa")
	require.NoError(t, err)
	assert.Equal(t, stamp, channel.LastChecked)
}
