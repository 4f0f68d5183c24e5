package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/robo-sapien-lab/avyra-edai/internal/apperr"
	"github.com/robo-sapien-lab/avyra-edai/internal/logger"
	"github.com/robo-sapien-lab/avyra-edai/internal/repos"
	"github.com/robo-sapien-lab/avyra-edai/internal/types"
)

const (
	// maxContextChars bounds the material block substituted into the prompt.
	maxContextChars = 6000
	// sourceExcerptChars bounds the per-source excerpt returned to clients.
	// Full chunk text lives only in the persisted Question record.
	sourceExcerptChars = 200

	answerMaxTokens   = 700
	answerTemperature = 0.7
)

const answerPromptTemplate = `You are a patient, encouraging tutor helping a student understand their own study material.

Answer the student's question using ONLY the study material below. Explain step by step, in simple age-appropriate language, and walk through the reasoning rather than just stating the result. If the material does not fully cover the question, say so and explain the closest thing it does cover.

Study material:
%s

Question: %s`

type AnswerSource struct {
	Excerpt  string `json:"excerpt"`
	UploadID string `json:"upload_id"`
}

type AnswerResult struct {
	QuestionID uuid.UUID      `json:"question_id"`
	AnswerText string         `json:"answer_text"`
	Subject    *string        `json:"subject,omitempty"`
	Topic      *string        `json:"topic,omitempty"`
	Subtopic   *string        `json:"subtopic,omitempty"`
	Sources    []AnswerSource `json:"sources"`
}

// AnswerService produces grounded answers: embed the question, retrieve the
// owner's closest chunks, and generate against that material only. With zero
// compatible chunks it fails with apperr.ErrNoContext instead of letting the
// model answer ungrounded.
type AnswerService interface {
	Answer(ctx context.Context, ownerID, questionText string) (*AnswerResult, error)
}

type answerService struct {
	log          *logger.Logger
	ai           AIClient
	retrieval    RetrievalService
	questionRepo repos.QuestionRepo
}

func NewAnswerService(log *logger.Logger, ai AIClient, retrieval RetrievalService, questionRepo repos.QuestionRepo) AnswerService {
	return &answerService{
		log:          log.With("service", "AnswerService"),
		ai:           ai,
		retrieval:    retrieval,
		questionRepo: questionRepo,
	}
}

func (s *answerService) Answer(ctx context.Context, ownerID, questionText string) (*AnswerResult, error) {
	questionText = strings.TrimSpace(questionText)
	if questionText == "" {
		return nil, fmt.Errorf("empty question")
	}

	vecs, err := s.ai.Embed(ctx, []string{questionText}, EmbedVariantQuery)
	if err != nil {
		return nil, err
	}

	retrieved, err := s.retrieval.Retrieve(ctx, ownerID, vecs[0], DefaultTopK)
	if err != nil {
		return nil, err
	}
	if len(retrieved) == 0 {
		return nil, fmt.Errorf("%w: upload study materials first", apperr.ErrNoContext)
	}

	prompt := fmt.Sprintf(answerPromptTemplate, buildContextBlock(retrieved), questionText)
	answerText, err := s.ai.GenerateText(ctx, prompt, answerMaxTokens, answerTemperature)
	if err != nil {
		return nil, err
	}

	// Classification heuristic: adopt the labels of the single most similar
	// chunk. Multi-topic questions can misclassify; acceptable for dashboards.
	top := retrieved[0].Chunk

	sources := make([]types.SourceChunk, 0, len(retrieved))
	for _, rc := range retrieved {
		sources = append(sources, types.SourceChunk{
			Text:     rc.Chunk.Text,
			UploadID: rc.Chunk.UploadID,
			Subject:  rc.Chunk.Subject,
			Topic:    rc.Chunk.Topic,
			Subtopic: rc.Chunk.Subtopic,
		})
	}

	question := &types.Question{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		QuestionText: questionText,
		AnswerText:   answerText,
		Subject:      top.Subject,
		Topic:        top.Topic,
		Subtopic:     top.Subtopic,
		SourceChunks: types.EncodeSourceChunks(sources),
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := s.questionRepo.Create(ctx, nil, question); err != nil {
		return nil, err
	}

	out := &AnswerResult{
		QuestionID: question.ID,
		AnswerText: answerText,
		Subject:    top.Subject,
		Topic:      top.Topic,
		Subtopic:   top.Subtopic,
	}
	for _, rc := range retrieved {
		out.Sources = append(out.Sources, AnswerSource{
			Excerpt:  truncateRunes(rc.Chunk.Text, sourceExcerptChars),
			UploadID: rc.Chunk.UploadID,
		})
	}
	return out, nil
}

func buildContextBlock(retrieved []RetrievedChunk) string {
	var b strings.Builder
	for _, rc := range retrieved {
		if b.Len() >= maxContextChars {
			break
		}
		if header := classificationHeader(rc.Chunk); header != "" {
			b.WriteString(header)
			b.WriteByte('\n')
		}
		text := rc.Chunk.Text
		if remaining := maxContextChars - b.Len(); len(text) > remaining {
			text = text[:remaining]
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

func classificationHeader(ch *types.Chunk) string {
	parts := make([]string, 0, 3)
	for _, p := range []*string{ch.Subject, ch.Topic, ch.Subtopic} {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "[" + strings.Join(parts, " / ") + "]"
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
