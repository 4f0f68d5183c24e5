package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/robo-sapien-lab/avyra-edai/internal/logger"
	"github.com/robo-sapien-lab/avyra-edai/internal/types"
)

type QuizRepo interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *types.Quiz) (*types.Quiz, error)
	GetByID(ctx context.Context, tx *gorm.DB, ownerID string, quizID uuid.UUID) (*types.Quiz, error)
	GetByOwner(ctx context.Context, tx *gorm.DB, ownerID string) ([]*types.Quiz, error)
	// Complete flips an open quiz to completed. Returns the number of rows
	// updated: 0 means the quiz was missing or already completed, and the
	// caller decides which by re-reading the row.
	Complete(ctx context.Context, tx *gorm.DB, ownerID string, quizID uuid.UUID, answers datatypes.JSON, score int, completedAt time.Time) (int64, error)
}

type quizRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo {
	return &quizRepo{db: db, log: baseLog.With("repo", "QuizRepo")}
}

func (r *quizRepo) Create(ctx context.Context, tx *gorm.DB, quiz *types.Quiz) (*types.Quiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(quiz).Error; err != nil {
		return nil, err
	}
	return quiz, nil
}

func (r *quizRepo) GetByID(ctx context.Context, tx *gorm.DB, ownerID string, quizID uuid.UUID) (*types.Quiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var quiz types.Quiz
	err := transaction.WithContext(ctx).
		Where("id = ? AND owner_id = ?", quizID, ownerID).
		First(&quiz).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepo) GetByOwner(ctx context.Context, tx *gorm.DB, ownerID string) ([]*types.Quiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Quiz
	if err := transaction.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *quizRepo) Complete(ctx context.Context, tx *gorm.DB, ownerID string, quizID uuid.UUID, answers datatypes.JSON, score int, completedAt time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	// completed_at IS NULL makes the open->completed transition atomic: of two
	// concurrent submissions only one can match the row.
	res := transaction.WithContext(ctx).Model(&types.Quiz{}).
		Where("id = ? AND owner_id = ? AND completed_at IS NULL", quizID, ownerID).
		Updates(map[string]interface{}{
			"user_answers": answers,
			"score":        score,
			"completed_at": completedAt,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
