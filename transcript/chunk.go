package transcript

import "strings"

// Chunk splits text into pieces of at most maxLen characters with overlap
// characters repeated between neighbours. Splits prefer a sentence boundary
// in the last fifth of the window. Text within the threshold comes back as a
// single chunk.
func Chunk(text string, threshold, maxLen, overlap int) []string {
	if len(text) <= threshold {
		return []string{text}
	}

	chunks := []string{}
	start := 0
	for start < len(text) {
		end := start + maxLen
		if end < len(text) {
			searchStart := start + maxLen*8/10
			if sentenceEnd := strings.LastIndex(text[searchStart:end], ". "); sentenceEnd >= 0 {
				end = searchStart + sentenceEnd + 1
			}
		} else {
			end = len(text)
		}
		chunks = append(chunks, strings.TrimSpace(text[start:end]))
		if end == len(text) {
			break
		}
		start = end - overlap
	}

	return chunks
}
