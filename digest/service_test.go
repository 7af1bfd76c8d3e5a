package digest_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"ewintr.nl/tubedigest/digest"
	"ewintr.nl/tubedigest/model"
	"ewintr.nl/tubedigest/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	err      error
	sent     int
	subjects []string
}

func (f *fakeSender) Send(subject, _, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent++
	f.subjects = append(f.subjects, subject)

	return "email-123", nil
}

func (f *fakeSender) Recipient() string { return "reader@example.com" }

type serviceFixture struct {
	service *digest.Service
	videos  *storage.MemoryVideoRepository
	digests *storage.MemoryDigestRepository
	sender  *fakeSender
}

func newFixture(t *testing.T, threshold int) *serviceFixture {
	t.Helper()
	videos := storage.NewMemoryVideoRepository()
	channels := storage.NewMemoryChannelRepository()
	digests := storage.NewMemoryDigestRepository()
	require.NoError(t, channels.Save(&model.Channel{ID: "UCchan", Name: "Ein Kanal"}))
	sender := &fakeSender{}
	composer := digest.NewComposer(50, "http://localhost:8080", discardLogger())
	service := digest.NewService(videos, channels, digests, composer, sender,
		threshold, 14*24*time.Hour, discardLogger())

	return &serviceFixture{service: service, videos: videos, digests: digests, sender: sender}
}

func (f *serviceFixture) addCompleted(t *testing.T, count int) {
	t.Helper()
	existing, err := f.videos.FindByStatus(model.StatusCompleted)
	require.NoError(t, err)
	for i := 0; i < count; i++ {
		video := completedVideo(fmt.Sprintf("vid%03d", len(existing)+i),
			model.CategorySport, time.Now().Add(-time.Duration(i)*time.Hour))
		require.NoError(t, f.videos.Create(video))
	}
}

func TestMaybeGenerate(t *testing.T) {
	t.Run("below threshold does nothing", func(t *testing.T) {
		f := newFixture(t, 10)
		f.addCompleted(t, 9)

		id, err := f.service.MaybeGenerate(model.TriggerThreshold)

		require.NoError(t, err)
		assert.Nil(t, id)
		assert.Equal(t, 0, f.sender.sent)
	})

	t.Run("threshold reached sends and marks", func(t *testing.T) {
		f := newFixture(t, 10)
		f.addCompleted(t, 10)

		id, err := f.service.MaybeGenerate(model.TriggerThreshold)

		require.NoError(t, err)
		require.NotNil(t, id)
		assert.Equal(t, 1, f.sender.sent)

		record, err := f.digests.Find(*id)
		require.NoError(t, err)
		assert.Equal(t, model.DigestSent, record.Status)
		assert.Equal(t, 10, record.VideoCount)
		assert.Equal(t, model.TriggerThreshold, record.TriggerReason)
		assert.Equal(t, "reader@example.com", record.Recipient)

		count, err := f.videos.CountUndigestedCompleted()
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("second run finds nothing", func(t *testing.T) {
		f := newFixture(t, 5)
		f.addCompleted(t, 5)

		_, err := f.service.MaybeGenerate(model.TriggerThreshold)
		require.NoError(t, err)
		id, err := f.service.MaybeGenerate(model.TriggerThreshold)

		require.NoError(t, err)
		assert.Nil(t, id)
		assert.Equal(t, 1, f.sender.sent)
	})

	t.Run("manual trigger ignores threshold", func(t *testing.T) {
		f := newFixture(t, 10)
		f.addCompleted(t, 2)

		id, err := f.service.MaybeGenerate(model.TriggerManual)

		require.NoError(t, err)
		require.NotNil(t, id)
		assert.Equal(t, 1, f.sender.sent)
	})

	t.Run("manual trigger with empty backlog", func(t *testing.T) {
		f := newFixture(t, 10)

		id, err := f.service.MaybeGenerate(model.TriggerManual)

		require.NoError(t, err)
		assert.Nil(t, id)
	})

	t.Run("send failure leaves videos undigested", func(t *testing.T) {
		f := newFixture(t, 5)
		f.addCompleted(t, 5)
		f.sender.err = errors.New("smtp adjacent trouble")

		_, err := f.service.MaybeGenerate(model.TriggerThreshold)

		require.Error(t, err)

		count, cerr := f.videos.CountUndigestedCompleted()
		require.NoError(t, cerr)
		assert.Equal(t, 5, count)

		records, rerr := f.digests.FindRecent(10)
		require.NoError(t, rerr)
		require.Len(t, records, 1)
		assert.Equal(t, model.DigestFailed, records[0].Status)
		assert.NotEmpty(t, records[0].Error)
	})

	t.Run("videos completed after a digest wait for the next one", func(t *testing.T) {
		f := newFixture(t, 3)
		f.addCompleted(t, 3)

		first, err := f.service.MaybeGenerate(model.TriggerThreshold)
		require.NoError(t, err)
		require.NotNil(t, first)

		f.addCompleted(t, 3)
		second, err := f.service.MaybeGenerate(model.TriggerThreshold)
		require.NoError(t, err)
		require.NotNil(t, second)

		assert.NotEqual(t, *first, *second)
		firstVideos, err := f.videos.FindByDigest(*first)
		require.NoError(t, err)
		secondVideos, err := f.videos.FindByDigest(*second)
		require.NoError(t, err)
		assert.Len(t, firstVideos, 3)
		assert.Len(t, secondVideos, 3)
		for _, video := range firstVideos {
			assert.NotContains(t, secondVideos, video)
		}
	})
}

func TestResendDigest(t *testing.T) {
	f := newFixture(t, 3)
	f.addCompleted(t, 3)

	id, err := f.service.MaybeGenerate(model.TriggerManual)
	require.NoError(t, err)
	require.NotNil(t, id)

	require.NoError(t, f.service.Resend(*id))

	assert.Equal(t, 2, f.sender.sent)
	assert.Equal(t, f.sender.subjects[0], f.sender.subjects[1])
}

func TestDue(t *testing.T) {
	f := newFixture(t, 10)
	f.addCompleted(t, 9)

	due, err := f.service.Due()
	require.NoError(t, err)
	assert.False(t, due)

	f.addCompleted(t, 1)
	due, err = f.service.Due()
	require.NoError(t, err)
	assert.True(t, due)
}
