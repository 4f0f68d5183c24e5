package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/robo-sapien-lab/avyra-edai/internal/apperr"
	"github.com/robo-sapien-lab/avyra-edai/internal/repos"
	"github.com/robo-sapien-lab/avyra-edai/internal/types"
)

func seedClassifiedChunk(t *testing.T, repo repos.ChunkRepo, ownerID string, vec []float32, text, uploadID, subject, topic string, createdAt time.Time) {
	t.Helper()
	_, err := repo.Create(context.Background(), nil, []*types.Chunk{{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		UploadID:     uploadID,
		Text:         text,
		Embedding:    types.EncodeVector(vec),
		EmbeddingDim: len(vec),
		ModelVersion: "fake-embed-001",
		Subject:      strptr(subject),
		Topic:        strptr(topic),
		CreatedAt:    createdAt,
	}})
	if err != nil {
		t.Fatalf("seed chunk: %v", err)
	}
}

func TestAnswer_EmptyCorpusFailsWithNoContext(t *testing.T) {
	db := newTestDB(t)
	chunkRepo := repos.NewChunkRepo(db, testLog())
	questionRepo := repos.NewQuestionRepo(db, testLog())
	ai := &fakeAIClient{
		embedFn: func(inputs []string, _ EmbedVariant) ([][]float32, error) {
			return [][]float32{{1, 0, 0}}, nil
		},
		textFn: func(string) (string, error) {
			t.Fatal("generation must not be called with no context")
			return "", nil
		},
	}
	svc := NewAnswerService(testLog(), ai, NewRetrievalService(testLog(), chunkRepo), questionRepo)

	_, err := svc.Answer(context.Background(), "owner-1", "What is a fraction?")
	if !errors.Is(err, apperr.ErrNoContext) {
		t.Fatalf("expected ErrNoContext, got %v", err)
	}
}

func TestAnswer_GroundsOnClosestChunkAndAdoptsItsClassification(t *testing.T) {
	db := newTestDB(t)
	chunkRepo := repos.NewChunkRepo(db, testLog())
	questionRepo := repos.NewQuestionRepo(db, testLog())

	base := time.Now().UTC().Add(-time.Hour)
	seedClassifiedChunk(t, chunkRepo, "owner-1", []float32{1, 0, 0}, "Whole numbers count things.", "upload-1", "Math", "Whole Numbers", base)
	seedClassifiedChunk(t, chunkRepo, "owner-1", []float32{0, 1, 0}, "A fraction has a numerator and a denominator. "+strings.Repeat("More detail. ", 40), "upload-2", "Math", "Fractions", base.Add(time.Minute))
	seedClassifiedChunk(t, chunkRepo, "owner-1", []float32{0, 0, 1}, "Decimals use a point.", "upload-3", "Math", "Decimals", base.Add(2*time.Minute))

	var capturedPrompt string
	ai := &fakeAIClient{
		embedFn: func(inputs []string, variant EmbedVariant) ([][]float32, error) {
			if variant != EmbedVariantQuery {
				t.Fatalf("question must embed with query variant, got %q", variant)
			}
			return [][]float32{{0.05, 0.95, 0.05}}, nil
		},
		textFn: func(prompt string) (string, error) {
			capturedPrompt = prompt
			return "A fraction is a part of a whole.", nil
		},
	}
	svc := NewAnswerService(testLog(), ai, NewRetrievalService(testLog(), chunkRepo), questionRepo)

	result, err := svc.Answer(context.Background(), "owner-1", "What is a fraction?")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}

	if result.Topic == nil || *result.Topic != "Fractions" {
		t.Fatalf("expected classification from closest chunk, got %v", result.Topic)
	}
	if len(result.Sources) == 0 || result.Sources[0].UploadID != "upload-2" {
		t.Fatalf("expected upload-2 as top source, got %#v", result.Sources)
	}
	for _, src := range result.Sources {
		if len([]rune(src.Excerpt)) > sourceExcerptChars+3 {
			t.Fatalf("source excerpt not truncated: %d chars", len([]rune(src.Excerpt)))
		}
	}
	if !strings.Contains(capturedPrompt, "numerator") {
		t.Fatalf("prompt does not contain retrieved material:\n%s", capturedPrompt)
	}
	if !strings.Contains(capturedPrompt, "What is a fraction?") {
		t.Fatalf("prompt does not contain the question:\n%s", capturedPrompt)
	}

	// Provenance record persists the full chunk text, not the excerpt.
	questions, err := questionRepo.GetByOwner(context.Background(), nil, "owner-1")
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected one persisted question, got %d", len(questions))
	}
	sources := questions[0].Sources()
	if len(sources) == 0 || !strings.Contains(sources[0].Text, "numerator") {
		t.Fatalf("persisted provenance missing full chunk text: %#v", sources)
	}
	if questions[0].AnswerText != "A fraction is a part of a whole." {
		t.Fatalf("persisted answer mismatch: %q", questions[0].AnswerText)
	}
}

func TestAnswer_GenerationFailurePropagates(t *testing.T) {
	db := newTestDB(t)
	chunkRepo := repos.NewChunkRepo(db, testLog())
	questionRepo := repos.NewQuestionRepo(db, testLog())
	seedClassifiedChunk(t, chunkRepo, "owner-1", []float32{1, 0, 0}, "Some material.", "upload-1", "Math", "Topic", time.Now().UTC())

	ai := &fakeAIClient{
		embedFn: func(inputs []string, _ EmbedVariant) ([][]float32, error) {
			return [][]float32{{1, 0, 0}}, nil
		},
		// textFn unset: fails with ErrServiceUnavailable
	}
	svc := NewAnswerService(testLog(), ai, NewRetrievalService(testLog(), chunkRepo), questionRepo)

	_, err := svc.Answer(context.Background(), "owner-1", "What is this?")
	if !errors.Is(err, apperr.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}

	questions, _ := questionRepo.GetByOwner(context.Background(), nil, "owner-1")
	if len(questions) != 0 {
		t.Fatalf("failed answer must not persist a question record")
	}
}
