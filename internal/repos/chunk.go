package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/robo-sapien-lab/avyra-edai/internal/logger"
	"github.com/robo-sapien-lab/avyra-edai/internal/types"
)

type ChunkRepo interface {
	Create(ctx context.Context, tx *gorm.DB, chunks []*types.Chunk) ([]*types.Chunk, error)
	GetByOwner(ctx context.Context, tx *gorm.DB, ownerID string) ([]*types.Chunk, error)
	GetByOwnerAndTopics(ctx context.Context, tx *gorm.DB, ownerID string, topics []string, limit int) ([]*types.Chunk, error)
	SampleByOwner(ctx context.Context, tx *gorm.DB, ownerID string, limit int) ([]*types.Chunk, error)
}

type chunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChunkRepo(db *gorm.DB, baseLog *logger.Logger) ChunkRepo {
	return &chunkRepo{db: db, log: baseLog.With("repo", "ChunkRepo")}
}

func (r *chunkRepo) Create(ctx context.Context, tx *gorm.DB, chunks []*types.Chunk) ([]*types.Chunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(chunks) == 0 {
		return []*types.Chunk{}, nil
	}

	// Keep batches small because Text is large
	const batchSize = 100

	if err := transaction.WithContext(ctx).CreateInBatches(chunks, batchSize).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

// GetByOwner returns the owner's whole corpus in stable insertion order, which
// retrieval relies on for deterministic tie-breaking.
func (r *chunkRepo) GetByOwner(ctx context.Context, tx *gorm.DB, ownerID string) ([]*types.Chunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Chunk
	if err := transaction.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chunkRepo) GetByOwnerAndTopics(ctx context.Context, tx *gorm.DB, ownerID string, topics []string, limit int) ([]*types.Chunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Chunk
	if len(topics) == 0 {
		return results, nil
	}
	q := transaction.WithContext(ctx).
		Where("owner_id = ? AND topic IN ?", ownerID, topics).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chunkRepo) SampleByOwner(ctx context.Context, tx *gorm.DB, ownerID string, limit int) ([]*types.Chunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Chunk
	q := transaction.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
