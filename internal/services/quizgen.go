package services

import (
	"context"
	"errors"
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
	quizQuestionCount = 5
	quizOptionCount   = 4
	// weakTopicCount caps how many low-mastery topics feed one quiz.
	weakTopicCount = 3
	// quizSourceChunkLimit bounds the material gathered for the prompt.
	quizSourceChunkLimit = 10
)

const quizSystemPrompt = `You write multiple-choice quizzes for a student based strictly on excerpts from their own study material. Every question must be answerable from the material alone. Keep the language clear and age-appropriate.`

// QuizQuestionView is the answer-free projection served while a quiz is open.
type QuizQuestionView struct {
	QuestionText string   `json:"question_text"`
	Options      []string `json:"options"`
	Subject      *string  `json:"subject,omitempty"`
	Topic        *string  `json:"topic,omitempty"`
	Subtopic     *string  `json:"subtopic,omitempty"`
}

type QuizView struct {
	ID             uuid.UUID          `json:"id"`
	Title          string             `json:"title"`
	Questions      []QuizQuestionView `json:"questions"`
	TotalQuestions int                `json:"total_questions"`
	Subject        *string            `json:"subject,omitempty"`
	Topic          *string            `json:"topic,omitempty"`
	Subtopic       *string            `json:"subtopic,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	Completed      bool               `json:"completed"`
}

// QuizGenService builds adaptive quizzes from the owner's weakest topics. The
// generation model's output is untrusted input: it is requested under a strict
// JSON schema, validated exhaustively, and replaced by a deterministic generic
// fallback question when it cannot be salvaged. Only provider unavailability
// propagates as an error.
type QuizGenService interface {
	Generate(ctx context.Context, ownerID string) (*QuizView, error)
}

type quizGenService struct {
	log          *logger.Logger
	ai           AIClient
	chunkRepo    repos.ChunkRepo
	quizRepo     repos.QuizRepo
	progressRepo repos.ProgressRepo
}

func NewQuizGenService(log *logger.Logger, ai AIClient, chunkRepo repos.ChunkRepo, quizRepo repos.QuizRepo, progressRepo repos.ProgressRepo) QuizGenService {
	return &quizGenService{
		log:          log.With("service", "QuizGenService"),
		ai:           ai,
		chunkRepo:    chunkRepo,
		quizRepo:     quizRepo,
		progressRepo: progressRepo,
	}
}

func (s *quizGenService) Generate(ctx context.Context, ownerID string) (*QuizView, error) {
	chunks, err := s.gatherSourceChunks(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: upload study materials first", apperr.ErrInsufficientContent)
	}

	title, questions, err := s.requestQuiz(ctx, ownerID, chunks)
	if err != nil {
		return nil, err
	}

	quiz := &types.Quiz{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Title:          title,
		Questions:      types.EncodeQuizQuestions(questions),
		TotalQuestions: len(questions),
		Subject:        questions[0].Subject,
		Topic:          questions[0].Topic,
		Subtopic:       questions[0].Subtopic,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := s.quizRepo.Create(ctx, nil, quiz); err != nil {
		return nil, err
	}

	view := MakeQuizView(quiz)
	return &view, nil
}

// gatherSourceChunks prefers the owner's weakest topics and falls back to an
// arbitrary corpus sample when no mastery rows (or no matching chunks) exist.
func (s *quizGenService) gatherSourceChunks(ctx context.Context, ownerID string) ([]*types.Chunk, error) {
	weakest, err := s.progressRepo.GetWeakestTopics(ctx, nil, ownerID, weakTopicCount)
	if err != nil {
		return nil, err
	}
	if len(weakest) > 0 {
		topics := make([]string, 0, len(weakest))
		for _, p := range weakest {
			topics = append(topics, p.Topic)
		}
		chunks, err := s.chunkRepo.GetByOwnerAndTopics(ctx, nil, ownerID, topics, quizSourceChunkLimit)
		if err != nil {
			return nil, err
		}
		if len(chunks) > 0 {
			return chunks, nil
		}
	}
	return s.chunkRepo.SampleByOwner(ctx, nil, ownerID, quizSourceChunkLimit)
}

// requestQuiz asks the model for a structured quiz. An unparseable or
// schema-violating response degrades to the generic fallback question (logged
// for operators, never surfaced as a raw parse error); provider unavailability
// has no safe fallback and propagates.
func (s *quizGenService) requestQuiz(ctx context.Context, ownerID string, chunks []*types.Chunk) (string, []types.QuizQuestion, error) {
	payload, err := s.ai.GenerateJSON(ctx, quizSystemPrompt, quizUserPrompt(chunks), "study_quiz", quizSchema())
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidResponse) {
			s.log.Warn("Quiz generation returned unusable output, using fallback question", "owner_id", ownerID, "error", err)
			return fallbackQuizTitle, fallbackQuizQuestions(), nil
		}
		return "", nil, err
	}

	title, questions, parseErr := parseQuizPayload(payload)
	if parseErr != nil {
		s.log.Warn("Quiz payload failed validation, using fallback question", "owner_id", ownerID, "error", parseErr)
		return fallbackQuizTitle, fallbackQuizQuestions(), nil
	}
	return title, questions, nil
}

func quizUserPrompt(chunks []*types.Chunk) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Write exactly %d multiple-choice questions, each with exactly %d options, one correct option index, and a short explanation. Base every question on the study material below.\n\nStudy material:\n", quizQuestionCount, quizOptionCount))
	for _, ch := range chunks {
		if header := classificationHeader(ch); header != "" {
			b.WriteString(header)
			b.WriteByte('\n')
		}
		b.WriteString(ch.Text)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

func quizSchema() map[string]any {
	questionSchema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"question_text": map[string]any{"type": "string"},
			"options": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string"},
				"minItems": quizOptionCount,
				"maxItems": quizOptionCount,
			},
			"correct_option_index": map[string]any{"type": "integer", "minimum": 0, "maximum": quizOptionCount - 1},
			"explanation":          map[string]any{"type": "string"},
			"subject":              map[string]any{"type": "string"},
			"topic":                map[string]any{"type": "string"},
			"subtopic":             map[string]any{"type": "string"},
		},
		"required": []string{"question_text", "options", "correct_option_index", "explanation", "subject", "topic", "subtopic"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"title": map[string]any{"type": "string"},
			"questions": map[string]any{
				"type":     "array",
				"items":    questionSchema,
				"minItems": quizQuestionCount,
				"maxItems": quizQuestionCount,
			},
		},
		"required": []string{"title", "questions"},
	}
}

// parseQuizPayload validates the model output into QuizQuestion values. It
// tolerates extra questions by trimming but rejects anything structurally
// wrong: wrong option count, out-of-range correct index, empty question text.
func parseQuizPayload(payload map[string]any) (string, []types.QuizQuestion, error) {
	title := strings.TrimSpace(stringField(payload, "title"))
	if title == "" {
		title = fallbackQuizTitle
	}

	rawQuestions, ok := payload["questions"].([]any)
	if !ok || len(rawQuestions) == 0 {
		return "", nil, fmt.Errorf("questions missing or empty")
	}
	if len(rawQuestions) > quizQuestionCount {
		rawQuestions = rawQuestions[:quizQuestionCount]
	}

	questions := make([]types.QuizQuestion, 0, len(rawQuestions))
	for i, rq := range rawQuestions {
		obj, ok := rq.(map[string]any)
		if !ok {
			return "", nil, fmt.Errorf("question %d is not an object", i)
		}
		q := types.QuizQuestion{
			QuestionText: strings.TrimSpace(stringField(obj, "question_text")),
			Explanation:  strings.TrimSpace(stringField(obj, "explanation")),
			Subject:      optionalStringField(obj, "subject"),
			Topic:        optionalStringField(obj, "topic"),
			Subtopic:     optionalStringField(obj, "subtopic"),
		}
		if q.QuestionText == "" {
			return "", nil, fmt.Errorf("question %d has empty text", i)
		}

		rawOptions, ok := obj["options"].([]any)
		if !ok || len(rawOptions) != quizOptionCount {
			return "", nil, fmt.Errorf("question %d has %d options, want %d", i, len(rawOptions), quizOptionCount)
		}
		for _, ro := range rawOptions {
			opt, ok := ro.(string)
			if !ok || strings.TrimSpace(opt) == "" {
				return "", nil, fmt.Errorf("question %d has a non-string or empty option", i)
			}
			q.Options = append(q.Options, strings.TrimSpace(opt))
		}

		idx, ok := intField(obj, "correct_option_index")
		if !ok || idx < 0 || idx >= quizOptionCount {
			return "", nil, fmt.Errorf("question %d has invalid correct_option_index", i)
		}
		q.CorrectOptionIndex = idx

		questions = append(questions, q)
	}
	return title, questions, nil
}

const fallbackQuizTitle = "Practice Quiz"

// fallbackQuizQuestions is the deterministic substitute used when the model's
// quiz cannot be parsed. Explicitly generic so the flow stays usable.
func fallbackQuizQuestions() []types.QuizQuestion {
	return []types.QuizQuestion{
		{
			QuestionText: "(General study question) Which habit improves recall the most when reviewing notes?",
			Options: []string{
				"Rereading the notes passively",
				"Testing yourself without looking",
				"Highlighting every sentence",
				"Reading the notes once and moving on",
			},
			CorrectOptionIndex: 1,
			Explanation:        "Answering questions from memory (active recall) strengthens retention far more than passive review.",
		},
	}
}

// MakeQuizView builds the client-safe projection of an open quiz: no correct
// indices, no explanations.
func MakeQuizView(quiz *types.Quiz) QuizView {
	view := QuizView{
		ID:             quiz.ID,
		Title:          quiz.Title,
		TotalQuestions: quiz.TotalQuestions,
		Subject:        quiz.Subject,
		Topic:          quiz.Topic,
		Subtopic:       quiz.Subtopic,
		CreatedAt:      quiz.CreatedAt,
		Completed:      quiz.Completed(),
	}
	for _, q := range quiz.QuestionList() {
		view.Questions = append(view.Questions, QuizQuestionView{
			QuestionText: q.QuestionText,
			Options:      q.Options,
			Subject:      q.Subject,
			Topic:        q.Topic,
			Subtopic:     q.Subtopic,
		})
	}
	return view
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func optionalStringField(m map[string]any, key string) *string {
	v, ok := m[key].(string)
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func intField(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}
