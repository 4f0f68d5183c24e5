package services

import (
	"context"
	"math"
	"sort"

	"github.com/robo-sapien-lab/avyra-edai/internal/logger"
	"github.com/robo-sapien-lab/avyra-edai/internal/repos"
	"github.com/robo-sapien-lab/avyra-edai/internal/types"
)

// DefaultTopK is the number of chunks fed into answer synthesis.
const DefaultTopK = 5

type RetrievedChunk struct {
	Chunk      *types.Chunk
	Similarity float64
}

// RetrievalService runs an exhaustive cosine scan over the owner's corpus.
// Per-user corpora stay in the hundreds-to-low-thousands range, so O(n*d) per
// query is fine and an approximate index would be wasted engineering.
type RetrievalService interface {
	// Retrieve returns up to k chunks, best similarity first. Chunks whose
	// vector dimensionality differs from the query (older embedding-model
	// versions) are skipped silently. An empty result is a valid outcome,
	// not an error.
	Retrieve(ctx context.Context, ownerID string, queryVec []float32, k int) ([]RetrievedChunk, error)
}

type retrievalService struct {
	log       *logger.Logger
	chunkRepo repos.ChunkRepo
}

func NewRetrievalService(log *logger.Logger, chunkRepo repos.ChunkRepo) RetrievalService {
	return &retrievalService{
		log:       log.With("service", "RetrievalService"),
		chunkRepo: chunkRepo,
	}
}

func (s *retrievalService) Retrieve(ctx context.Context, ownerID string, queryVec []float32, k int) ([]RetrievedChunk, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	chunks, err := s.chunkRepo.GetByOwner(ctx, nil, ownerID)
	if err != nil {
		return nil, err
	}

	scored := make([]RetrievedChunk, 0, len(chunks))
	skipped := 0
	for _, ch := range chunks {
		vec, ok := ch.Vector()
		if !ok || len(vec) != len(queryVec) {
			skipped++
			continue
		}
		scored = append(scored, RetrievedChunk{Chunk: ch, Similarity: Cosine(vec, queryVec)})
	}
	if skipped > 0 {
		s.log.Debug("Skipped dimension-incompatible chunks", "owner_id", ownerID, "skipped", skipped)
	}

	// Stable keeps corpus order on similarity ties.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Cosine is dot(a,b) / (|a|*|b|) in float64, 0 for empty, mismatched, or
// zero-norm inputs.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := 0; i < len(a); i++ {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
