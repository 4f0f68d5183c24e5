package services

import (
	"context"
	"strings"

	"github.com/robo-sapien-lab/avyra-edai/internal/logger"
	"github.com/robo-sapien-lab/avyra-edai/internal/repos"
	"github.com/robo-sapien-lab/avyra-edai/internal/types"
)

// masteryPassThreshold: a quiz at or above this score counts the topic attempt
// as correct. One graded quiz is one attempt at topic granularity, not one per
// question.
const masteryPassThreshold = 70

// ProgressOverview is a read-only projection for dashboards, derived from the
// owner's Progress rows; it is not a stored entity.
type ProgressOverview struct {
	Topics         []*types.Progress `json:"topics"`
	TotalTopics    int               `json:"total_topics"`
	AverageMastery int               `json:"average_mastery"`
	TotalAttempts  int               `json:"total_attempts"`
	MasteredTopics int               `json:"mastered_topics"`
}

type MasteryService interface {
	// RecordQuizResult advances the (owner, topic) mastery counters for one
	// graded quiz. A quiz without a topic is a no-op: mastery cannot be
	// attributed.
	RecordQuizResult(ctx context.Context, ownerID, topic string, subject, subtopic *string, quizScore int) error
	Overview(ctx context.Context, ownerID string) (*ProgressOverview, error)
}

type masteryService struct {
	log          *logger.Logger
	progressRepo repos.ProgressRepo
}

func NewMasteryService(log *logger.Logger, progressRepo repos.ProgressRepo) MasteryService {
	return &masteryService{
		log:          log.With("service", "MasteryService"),
		progressRepo: progressRepo,
	}
}

func (s *masteryService) RecordQuizResult(ctx context.Context, ownerID, topic string, subject, subtopic *string, quizScore int) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		s.log.Debug("Quiz has no topic, skipping mastery update", "owner_id", ownerID)
		return nil
	}
	correct := 0
	if quizScore >= masteryPassThreshold {
		correct = 1
	}
	return s.progressRepo.RecordAttempt(ctx, nil, ownerID, topic, subject, subtopic, correct)
}

func (s *masteryService) Overview(ctx context.Context, ownerID string) (*ProgressOverview, error) {
	rows, err := s.progressRepo.GetByOwner(ctx, nil, ownerID)
	if err != nil {
		return nil, err
	}
	out := &ProgressOverview{
		Topics:      rows,
		TotalTopics: len(rows),
	}
	if len(rows) == 0 {
		return out, nil
	}
	sum := 0
	for _, row := range rows {
		sum += row.MasteryScore
		out.TotalAttempts += row.QuestionsAttempted
		if row.MasteryScore >= masteryPassThreshold {
			out.MasteredTopics++
		}
	}
	out.AverageMastery = sum / len(rows)
	return out, nil
}
