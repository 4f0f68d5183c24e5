package types

import (
	"time"

	"github.com/google/uuid"
)

// Progress is the running mastery record for one (owner, topic) pair.
// Invariant: MasteryScore == round(100 * QuestionsCorrect / QuestionsAttempted).
// The counters are only ever advanced through the store-level upsert in
// repos.ProgressRepo so concurrent grades cannot lose updates.
type Progress struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID            string    `gorm:"column:owner_id;not null;index:idx_owner_topic,unique" json:"owner_id"`
	Topic              string    `gorm:"column:topic;not null;index:idx_owner_topic,unique" json:"topic"`
	Subject            *string   `gorm:"column:subject" json:"subject,omitempty"`
	Subtopic           *string   `gorm:"column:subtopic" json:"subtopic,omitempty"`
	MasteryScore       int       `gorm:"column:mastery_score;not null" json:"mastery_score"`
	QuestionsAttempted int       `gorm:"column:questions_attempted;not null" json:"questions_attempted"`
	QuestionsCorrect   int       `gorm:"column:questions_correct;not null" json:"questions_correct"`
	CreatedAt          time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time `gorm:"not null" json:"updated_at"`
}

func (Progress) TableName() string { return "progress" }
