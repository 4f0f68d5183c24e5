package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/robo-sapien-lab/avyra-edai/internal/logger"
	"github.com/robo-sapien-lab/avyra-edai/internal/types"
)

type ProgressRepo interface {
	GetByOwner(ctx context.Context, tx *gorm.DB, ownerID string) ([]*types.Progress, error)
	GetWeakestTopics(ctx context.Context, tx *gorm.DB, ownerID string, limit int) ([]*types.Progress, error)
	GetByOwnerAndTopic(ctx context.Context, tx *gorm.DB, ownerID, topic string) (*types.Progress, error)
	// RecordAttempt advances the (owner, topic) counters by one attempt inside a
	// single upsert statement so concurrent grades of the same topic serialize
	// at the store instead of racing through read-modify-write. correct must be
	// 0 or 1.
	RecordAttempt(ctx context.Context, tx *gorm.DB, ownerID, topic string, subject, subtopic *string, correct int) error
}

type progressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	return &progressRepo{db: db, log: baseLog.With("repo", "ProgressRepo")}
}

func (r *progressRepo) GetByOwner(ctx context.Context, tx *gorm.DB, ownerID string) ([]*types.Progress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Progress
	if err := transaction.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("mastery_score ASC, topic ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *progressRepo) GetWeakestTopics(ctx context.Context, tx *gorm.DB, ownerID string, limit int) ([]*types.Progress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Progress
	q := transaction.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("mastery_score ASC, topic ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *progressRepo) GetByOwnerAndTopic(ctx context.Context, tx *gorm.DB, ownerID, topic string) (*types.Progress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Progress
	err := transaction.WithContext(ctx).
		Where("owner_id = ? AND topic = ?", ownerID, topic).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *progressRepo) RecordAttempt(ctx context.Context, tx *gorm.DB, ownerID, topic string, subject, subtopic *string, correct int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if correct != 0 {
		correct = 1
	}
	now := time.Now().UTC()
	row := &types.Progress{
		ID:                 uuid.New(),
		OwnerID:            ownerID,
		Topic:              topic,
		Subject:            subject,
		Subtopic:           subtopic,
		MasteryScore:       correct * 100,
		QuestionsAttempted: 1,
		QuestionsCorrect:   correct,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	// The mastery invariant is recomputed from the post-increment counters in
	// SQL; both Postgres and SQLite resolve "progress"/"excluded" the same way.
	return transaction.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}, {Name: "topic"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"questions_attempted": gorm.Expr("progress.questions_attempted + 1"),
			"questions_correct":   gorm.Expr("progress.questions_correct + excluded.questions_correct"),
			"mastery_score":       gorm.Expr("CAST(ROUND((100.0 * (progress.questions_correct + excluded.questions_correct)) / (progress.questions_attempted + 1)) AS INTEGER)"),
			"updated_at":          now,
		}),
	}).Create(row).Error
}
