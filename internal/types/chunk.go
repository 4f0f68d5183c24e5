package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Chunk is one embedded unit of a user's study corpus. The embedding is stored
// as a JSON array; EmbeddingDim mirrors its length so incompatible model
// versions can be filtered without decoding every row's vector twice.
type Chunk struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID      string         `gorm:"column:owner_id;not null;index" json:"owner_id"`
	UploadID     string         `gorm:"column:upload_id;not null" json:"upload_id"`
	Text         string         `gorm:"column:text;not null" json:"text"`
	Embedding    datatypes.JSON `gorm:"column:embedding" json:"embedding"`
	EmbeddingDim int            `gorm:"column:embedding_dim;not null" json:"embedding_dim"`
	ModelVersion string         `gorm:"column:model_version" json:"model_version"`
	Subject      *string        `gorm:"column:subject" json:"subject,omitempty"`
	Topic        *string        `gorm:"column:topic" json:"topic,omitempty"`
	Subtopic     *string        `gorm:"column:subtopic" json:"subtopic,omitempty"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
}

func (Chunk) TableName() string { return "chunk" }

// Vector decodes the stored embedding. ok is false for empty or malformed
// columns; such chunks are skipped by retrieval.
func (c *Chunk) Vector() (vec []float32, ok bool) {
	if len(c.Embedding) == 0 {
		return nil, false
	}
	if err := json.Unmarshal(c.Embedding, &vec); err != nil || len(vec) == 0 {
		return nil, false
	}
	return vec, true
}

// EncodeVector marshals an embedding for storage. Vectors are written once at
// ingestion and never mutated.
func EncodeVector(vec []float32) datatypes.JSON {
	raw, _ := json.Marshal(vec)
	return datatypes.JSON(raw)
}
