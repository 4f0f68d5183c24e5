package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// QuizQuestion is one multiple-choice item inside a quiz's questions column.
// CorrectOptionIndex and Explanation are withheld from API views while the
// quiz is open.
type QuizQuestion struct {
	QuestionText       string   `json:"question_text"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correct_option_index"`
	Explanation        string   `json:"explanation"`
	Subject            *string  `json:"subject,omitempty"`
	Topic              *string  `json:"topic,omitempty"`
	Subtopic           *string  `json:"subtopic,omitempty"`
}

// Quiz lifecycle: created open (UserAnswers/Score/CompletedAt unset), moved to
// completed exactly once by grading, never re-opened.
type Quiz struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID        string         `gorm:"column:owner_id;not null;index" json:"owner_id"`
	Title          string         `gorm:"column:title;not null" json:"title"`
	Questions      datatypes.JSON `gorm:"column:questions;not null" json:"questions"`
	UserAnswers    datatypes.JSON `gorm:"column:user_answers" json:"user_answers,omitempty"`
	Score          *int           `gorm:"column:score" json:"score,omitempty"`
	TotalQuestions int            `gorm:"column:total_questions;not null" json:"total_questions"`
	Subject        *string        `gorm:"column:subject" json:"subject,omitempty"`
	Topic          *string        `gorm:"column:topic" json:"topic,omitempty"`
	Subtopic       *string        `gorm:"column:subtopic" json:"subtopic,omitempty"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	CompletedAt    *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (Quiz) TableName() string { return "quiz" }

func (q *Quiz) Completed() bool { return q.CompletedAt != nil }

func (q *Quiz) QuestionList() []QuizQuestion {
	var out []QuizQuestion
	if len(q.Questions) == 0 {
		return out
	}
	_ = json.Unmarshal(q.Questions, &out)
	return out
}

func (q *Quiz) AnswerList() []int {
	var out []int
	if len(q.UserAnswers) == 0 {
		return out
	}
	_ = json.Unmarshal(q.UserAnswers, &out)
	return out
}

func EncodeQuizQuestions(questions []QuizQuestion) datatypes.JSON {
	raw, _ := json.Marshal(questions)
	return datatypes.JSON(raw)
}

func EncodeAnswers(answers []int) datatypes.JSON {
	raw, _ := json.Marshal(answers)
	return datatypes.JSON(raw)
}
