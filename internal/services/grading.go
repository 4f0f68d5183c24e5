package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/robo-sapien-lab/avyra-edai/internal/apperr"
	"github.com/robo-sapien-lab/avyra-edai/internal/logger"
	"github.com/robo-sapien-lab/avyra-edai/internal/repos"
	"github.com/robo-sapien-lab/avyra-edai/internal/types"
)

// QuestionResult reveals the correct index and explanation for one graded
// question, safe now that the quiz is completed.
type QuestionResult struct {
	QuestionText        string   `json:"question_text"`
	Options             []string `json:"options"`
	SelectedOptionIndex int      `json:"selected_option_index"`
	CorrectOptionIndex  int      `json:"correct_option_index"`
	Correct             bool     `json:"correct"`
	Explanation         string   `json:"explanation"`
}

type QuizResult struct {
	QuizID         uuid.UUID        `json:"quiz_id"`
	Score          int              `json:"score"`
	CorrectCount   int              `json:"correct_count"`
	TotalQuestions int              `json:"total_questions"`
	CompletedAt    time.Time        `json:"completed_at"`
	Results        []QuestionResult `json:"results"`
}

// GradingService scores a submitted answer set and flips the quiz to
// completed in one atomic transition, then feeds the result into mastery
// tracking.
type GradingService interface {
	Submit(ctx context.Context, ownerID string, quizID uuid.UUID, answers []int) (*QuizResult, error)
}

type gradingService struct {
	log      *logger.Logger
	quizRepo repos.QuizRepo
	mastery  MasteryService
}

func NewGradingService(log *logger.Logger, quizRepo repos.QuizRepo, mastery MasteryService) GradingService {
	return &gradingService{
		log:      log.With("service", "GradingService"),
		quizRepo: quizRepo,
		mastery:  mastery,
	}
}

func (s *gradingService) Submit(ctx context.Context, ownerID string, quizID uuid.UUID, answers []int) (*QuizResult, error) {
	quiz, err := s.quizRepo.GetByID(ctx, nil, ownerID, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: quiz %s", apperr.ErrNotFound, quizID)
		}
		return nil, err
	}
	if quiz.Completed() {
		return nil, fmt.Errorf("%w: quiz %s", apperr.ErrAlreadyCompleted, quizID)
	}

	questions := quiz.QuestionList()
	if len(answers) != len(questions) {
		return nil, fmt.Errorf("%w: got %d answers, quiz has %d questions", apperr.ErrInvalidAnswerSet, len(answers), len(questions))
	}

	correctCount := 0
	results := make([]QuestionResult, 0, len(questions))
	for i, q := range questions {
		correct := answers[i] == q.CorrectOptionIndex
		if correct {
			correctCount++
		}
		results = append(results, QuestionResult{
			QuestionText:        q.QuestionText,
			Options:             q.Options,
			SelectedOptionIndex: answers[i],
			CorrectOptionIndex:  q.CorrectOptionIndex,
			Correct:             correct,
			Explanation:         q.Explanation,
		})
	}
	score := int(math.Round(100 * float64(correctCount) / float64(len(questions))))

	completedAt := time.Now().UTC()
	updated, err := s.quizRepo.Complete(ctx, nil, ownerID, quizID, types.EncodeAnswers(answers), score, completedAt)
	if err != nil {
		return nil, err
	}
	if updated == 0 {
		// Lost a race with a concurrent submission of the same quiz.
		return nil, fmt.Errorf("%w: quiz %s", apperr.ErrAlreadyCompleted, quizID)
	}

	topic := ""
	if quiz.Topic != nil {
		topic = *quiz.Topic
	}
	if err := s.mastery.RecordQuizResult(ctx, ownerID, topic, quiz.Subject, quiz.Subtopic, score); err != nil {
		return nil, err
	}

	s.log.Info("Graded quiz", "owner_id", ownerID, "quiz_id", quizID, "score", score)
	return &QuizResult{
		QuizID:         quiz.ID,
		Score:          score,
		CorrectCount:   correctCount,
		TotalQuestions: len(questions),
		CompletedAt:    completedAt,
		Results:        results,
	}, nil
}
