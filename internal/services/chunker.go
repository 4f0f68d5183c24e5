package services

import "strings"

// DefaultMaxChunkChars bounds a chunk's size so one embedding call stays cheap.
const DefaultMaxChunkChars = 1000

// ChunkWords splits text into whitespace-normalized chunks of at most
// maxChunkChars characters. Words are packed greedily and never split; a single
// word longer than maxChunkChars becomes its own oversized chunk. The policy
// trades sentence-boundary awareness for a predictable size bound.
func ChunkWords(text string, maxChunkChars int) []string {
	if maxChunkChars <= 0 {
		maxChunkChars = DefaultMaxChunkChars
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}
	}

	out := make([]string, 0, len(text)/maxChunkChars+1)
	var b strings.Builder
	for _, w := range words {
		if b.Len() == 0 {
			b.WriteString(w)
			continue
		}
		if b.Len()+1+len(w) > maxChunkChars {
			out = append(out, b.String())
			b.Reset()
			b.WriteString(w)
			continue
		}
		b.WriteByte(' ')
		b.WriteString(w)
	}
	out = append(out, b.String())
	return out
}
