package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/robo-sapien-lab/avyra-edai/internal/logger"
	"github.com/robo-sapien-lab/avyra-edai/internal/repos"
	"github.com/robo-sapien-lab/avyra-edai/internal/types"
)

const (
	// embedBatchSize bounds one embeddings request; embedConcurrency bounds
	// in-flight requests for a single ingest.
	embedBatchSize   = 64
	embedConcurrency = 4
)

type IngestInput struct {
	UploadID string
	Text     string
	Subject  *string
	Topic    *string
	Subtopic *string
}

// IngestService turns extracted upload text into embedded corpus chunks.
// Append-only: concurrent ingests for the same owner never contend.
type IngestService interface {
	// Ingest returns the number of chunks appended. A gateway failure aborts
	// the whole ingest; nothing is retried.
	Ingest(ctx context.Context, ownerID string, in IngestInput) (int, error)
}

type ingestService struct {
	log           *logger.Logger
	ai            AIClient
	chunkRepo     repos.ChunkRepo
	maxChunkChars int
}

func NewIngestService(log *logger.Logger, ai AIClient, chunkRepo repos.ChunkRepo, maxChunkChars int) IngestService {
	if maxChunkChars <= 0 {
		maxChunkChars = DefaultMaxChunkChars
	}
	return &ingestService{
		log:           log.With("service", "IngestService"),
		ai:            ai,
		chunkRepo:     chunkRepo,
		maxChunkChars: maxChunkChars,
	}
}

func (s *ingestService) Ingest(ctx context.Context, ownerID string, in IngestInput) (int, error) {
	pieces := ChunkWords(in.Text, s.maxChunkChars)
	if len(pieces) == 0 {
		return 0, nil
	}

	vectors := make([][]float32, len(pieces))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for start := 0; start < len(pieces); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(pieces) {
			end = len(pieces)
		}
		start, end := start, end
		g.Go(func() error {
			batch, err := s.ai.Embed(gctx, pieces[start:end], EmbedVariantDocument)
			if err != nil {
				return err
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Warn("Embedding failed, aborting ingest", "owner_id", ownerID, "upload_id", in.UploadID, "error", err)
		return 0, err
	}

	now := time.Now().UTC()
	modelVersion := s.ai.EmbedModelVersion()
	chunks := make([]*types.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, &types.Chunk{
			ID:           uuid.New(),
			OwnerID:      ownerID,
			UploadID:     in.UploadID,
			Text:         piece,
			Embedding:    types.EncodeVector(vectors[i]),
			EmbeddingDim: len(vectors[i]),
			ModelVersion: modelVersion,
			Subject:      in.Subject,
			Topic:        in.Topic,
			Subtopic:     in.Subtopic,
			CreatedAt:    now,
		})
	}

	if _, err := s.chunkRepo.Create(ctx, nil, chunks); err != nil {
		return 0, err
	}
	s.log.Info("Ingested upload", "owner_id", ownerID, "upload_id", in.UploadID, "chunks", len(chunks))
	return len(chunks), nil
}
