package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/robo-sapien-lab/avyra-edai/internal/apperr"
	"github.com/robo-sapien-lab/avyra-edai/internal/repos"
)

func TestIngest_ChunksEmbedsAndAppends(t *testing.T) {
	db := newTestDB(t)
	chunkRepo := repos.NewChunkRepo(db, testLog())
	ai := &fakeAIClient{
		embedFn: func(inputs []string, variant EmbedVariant) ([][]float32, error) {
			if variant != EmbedVariantDocument {
				t.Fatalf("ingest must embed with document variant, got %q", variant)
			}
			out := make([][]float32, len(inputs))
			for i, in := range inputs {
				out[i] = []float32{float32(len(in)), 1, 0}
			}
			return out, nil
		},
	}
	svc := NewIngestService(testLog(), ai, chunkRepo, 40)

	text := strings.Repeat("fraction denominator numerator ", 10)
	count, err := svc.Ingest(context.Background(), "owner-1", IngestInput{
		UploadID: "upload-42",
		Text:     text,
		Subject:  strptr("Math"),
		Topic:    strptr("Fractions"),
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if count < 2 {
		t.Fatalf("expected multiple chunks for long text, got %d", count)
	}

	stored, err := chunkRepo.GetByOwner(context.Background(), nil, "owner-1")
	if err != nil {
		t.Fatalf("list chunks: %v", err)
	}
	if len(stored) != count {
		t.Fatalf("stored %d chunks, ingest reported %d", len(stored), count)
	}
	for _, ch := range stored {
		if ch.UploadID != "upload-42" {
			t.Fatalf("wrong upload id %q", ch.UploadID)
		}
		if ch.ModelVersion != "fake-embed-001" {
			t.Fatalf("wrong model version %q", ch.ModelVersion)
		}
		vec, ok := ch.Vector()
		if !ok || len(vec) != ch.EmbeddingDim || ch.EmbeddingDim != 3 {
			t.Fatalf("bad vector/dim: ok=%v dim=%d", ok, ch.EmbeddingDim)
		}
		if ch.Topic == nil || *ch.Topic != "Fractions" {
			t.Fatalf("topic not carried onto chunk")
		}
	}
}

func TestIngest_EmptyTextIsANoOp(t *testing.T) {
	db := newTestDB(t)
	chunkRepo := repos.NewChunkRepo(db, testLog())
	svc := NewIngestService(testLog(), &fakeAIClient{}, chunkRepo, 100)

	count, err := svc.Ingest(context.Background(), "owner-1", IngestInput{UploadID: "u", Text: "   "})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 chunks, got %d", count)
	}
}

func TestIngest_EmbeddingFailureAbortsWholeUpload(t *testing.T) {
	db := newTestDB(t)
	chunkRepo := repos.NewChunkRepo(db, testLog())
	ai := &fakeAIClient{
		embedFn: func(inputs []string, _ EmbedVariant) ([][]float32, error) {
			return nil, fmt.Errorf("%w: provider down", apperr.ErrServiceUnavailable)
		},
	}
	svc := NewIngestService(testLog(), ai, chunkRepo, 100)

	_, err := svc.Ingest(context.Background(), "owner-1", IngestInput{UploadID: "u", Text: "some words here"})
	if !errors.Is(err, apperr.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}

	stored, listErr := chunkRepo.GetByOwner(context.Background(), nil, "owner-1")
	if listErr != nil {
		t.Fatalf("list chunks: %v", listErr)
	}
	if len(stored) != 0 {
		t.Fatalf("aborted ingest must persist nothing, found %d chunks", len(stored))
	}
}
