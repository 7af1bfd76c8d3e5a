package transcript_test

import (
	"strings"
	"testing"

	"ewintr.nl/tubedigest/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	t.Run("short text stays whole", func(t *testing.T) {
		chunks := transcript.Chunk("just a short transcript", 100, 80, 5)
		assert.Equal(t, []string{"just a short transcript"}, chunks)
	})

	t.Run("long text splits at sentence boundary", func(t *testing.T) {
		sentence := "Dies ist ein Satz mit einigen Worten. "
		text := strings.TrimSpace(strings.Repeat(sentence, 40))

		chunks := transcript.Chunk(text, 500, 400, 50)

		require.Greater(t, len(chunks), 1)
		for i, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk), 400)
			if i < len(chunks)-1 {
				assert.True(t, strings.HasSuffix(chunk, "."), "chunk %d should end at a sentence", i)
			}
		}
	})

	t.Run("chunks overlap", func(t *testing.T) {
		sentence := "Dies ist ein Satz mit einigen Worten. "
		text := strings.TrimSpace(strings.Repeat(sentence, 40))

		chunks := transcript.Chunk(text, 500, 400, 50)

		require.Greater(t, len(chunks), 1)
		tail := chunks[0][len(chunks[0])-20:]
		assert.Contains(t, chunks[1], strings.TrimSpace(tail))
	})

	t.Run("no content lost", func(t *testing.T) {
		text := strings.TrimSpace(strings.Repeat("abcdefghij ", 100))

		chunks := transcript.Chunk(text, 500, 400, 50)

		require.Greater(t, len(chunks), 1)
		assert.True(t, strings.HasPrefix(text, chunks[0]))
		assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))
		for _, chunk := range chunks {
			assert.Contains(t, text, chunk)
		}
	})
}

func TestPlainText(t *testing.T) {
	segments := []transcript.Segment{
		{Text: " hallo ", Start: 0},
		{Text: "", Start: 1.5},
		{Text: "welt", Start: 3},
	}
	assert.Equal(t, "hallo welt", transcript.PlainText(segments))
}

func TestTimestampedText(t *testing.T) {
	segments := []transcript.Segment{
		{Text: "anfang", Start: 0},
		{Text: "noch am anfang", Start: 30},
		{Text: "zwei minuten", Start: 121},
	}

	got := transcript.TimestampedText(segments)

	assert.Contains(t, got, "[00:00] anfang")
	assert.Contains(t, got, "[02:01] zwei minuten")
	assert.NotContains(t, got, "[00:30]")
}
