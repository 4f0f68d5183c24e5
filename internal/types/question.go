package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SourceChunk is a provenance snapshot taken at answer time. It carries the
// full chunk text so the record stays meaningful even if the corpus row is
// later removed by an upload-deletion cascade.
type SourceChunk struct {
	Text     string  `json:"text"`
	UploadID string  `json:"upload_id"`
	Subject  *string `json:"subject,omitempty"`
	Topic    *string `json:"topic,omitempty"`
	Subtopic *string `json:"subtopic,omitempty"`
}

// Question is one answered free-text question. Immutable after creation.
type Question struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID      string         `gorm:"column:owner_id;not null;index" json:"owner_id"`
	QuestionText string         `gorm:"column:question_text;not null" json:"question_text"`
	AnswerText   string         `gorm:"column:answer_text;not null" json:"answer_text"`
	Subject      *string        `gorm:"column:subject" json:"subject,omitempty"`
	Topic        *string        `gorm:"column:topic" json:"topic,omitempty"`
	Subtopic     *string        `gorm:"column:subtopic" json:"subtopic,omitempty"`
	SourceChunks datatypes.JSON `gorm:"column:source_chunks" json:"source_chunks"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
}

func (Question) TableName() string { return "question" }

func (q *Question) Sources() []SourceChunk {
	var out []SourceChunk
	if len(q.SourceChunks) == 0 {
		return out
	}
	_ = json.Unmarshal(q.SourceChunks, &out)
	return out
}

func EncodeSourceChunks(sources []SourceChunk) datatypes.JSON {
	raw, _ := json.Marshal(sources)
	return datatypes.JSON(raw)
}
