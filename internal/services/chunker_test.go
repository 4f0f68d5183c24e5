package services

import (
	"strings"
	"testing"
)

func TestChunkWords_EmptyInput(t *testing.T) {
	if got := ChunkWords("", 100); len(got) != 0 {
		t.Fatalf("expected no chunks, got %#v", got)
	}
	if got := ChunkWords("   \n\t  ", 100); len(got) != 0 {
		t.Fatalf("expected no chunks for whitespace-only input, got %#v", got)
	}
}

func TestChunkWords_ReconstructsWordSequence(t *testing.T) {
	text := "The quick   brown fox\njumps over\tthe lazy dog and keeps on running through the field"
	chunks := ChunkWords(text, 20)

	joined := strings.Join(chunks, " ")
	want := strings.Join(strings.Fields(text), " ")
	if joined != want {
		t.Fatalf("reconstruction mismatch:\ngot  %q\nwant %q", joined, want)
	}
}

func TestChunkWords_RespectsBound(t *testing.T) {
	text := strings.Repeat("word ", 200)
	for _, ch := range ChunkWords(text, 30) {
		if len(ch) > 30 {
			t.Fatalf("chunk exceeds bound: %d chars in %q", len(ch), ch)
		}
	}
}

func TestChunkWords_NeverSplitsWords(t *testing.T) {
	text := "alpha beta gamma delta epsilon"
	words := map[string]bool{}
	for _, ch := range ChunkWords(text, 12) {
		for _, w := range strings.Fields(ch) {
			words[w] = true
		}
	}
	for _, w := range strings.Fields(text) {
		if !words[w] {
			t.Fatalf("word %q was split or lost", w)
		}
	}
}

func TestChunkWords_OversizedWordGetsOwnChunk(t *testing.T) {
	long := strings.Repeat("x", 50)
	chunks := ChunkWords("short "+long+" tail", 10)

	found := false
	for _, ch := range chunks {
		if ch == long {
			found = true
		}
	}
	if !found {
		t.Fatalf("oversized word not kept whole: %#v", chunks)
	}
}
