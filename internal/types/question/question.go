package question

import (
	"time"

	"github.com/google/uuid"
)

type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeShortAnswer    QuestionType = "short_answer"
	TypeTrueFalse      QuestionType = "true_false"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type Question struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	SubjectID     uuid.UUID         `json:"subject_id" db:"subject_id"`
	MaterialID    *uuid.UUID        `json:"material_id" db:"material_id"`
	UserID        uuid.UUID         `json:"user_id" db:"user_id"`
	Type          QuestionType      `json:"type" db:"type"`
	Difficulty    Difficulty        `json:"difficulty" db:"difficulty"`
	QuestionText  string            `json:"question_text" db:"question_text"`
	Options       map[string]string `json:"options" db:"options"`
	CorrectAnswer string            `json:"correct_answer" db:"correct_answer"`
	Explanation   *string           `json:"explanation" db:"explanation"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
}

type Attempt struct {
	ID          uuid.UUID `json:"id" db:"id"`
	QuestionID  uuid.UUID `json:"question_id" db:"question_id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	UserAnswer  string    `json:"user_answer" db:"user_answer"`
	IsCorrect   bool      `json:"is_correct" db:"is_correct"`
	AttemptedAt time.Time `json:"attempted_at" db:"attempted_at"`
}

type GenerateQuestionsRequest struct {
	SubjectID  string       `json:"subject_id" validate:"required"`
	MaterialID *string      `json:"material_id,omitempty"`
	Type       QuestionType `json:"type" validate:"required,oneof=multiple_choice short_answer true_false"`
	Difficulty Difficulty   `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Count      int          `json:"count" validate:"required,min=1,max=20"`
}

type AttemptRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
	Answer     string `json:"answer" validate:"required"`
}

type AttemptResponse struct {
	IsCorrect     bool    `json:"is_correct"`
	CorrectAnswer string  `json:"correct_answer"`
	Explanation   *string `json:"explanation"`
}

// AIQuestion is a single generated question as returned by the model.
type AIQuestion struct {
	Type          QuestionType      `json:"type"`
	Difficulty    Difficulty        `json:"difficulty"`
	QuestionText  string            `json:"question_text"`
	Options       map[string]string `json:"options,omitempty"`
	CorrectAnswer string            `json:"correct_answer"`
	Explanation   string            `json:"explanation"`
}

type AIQuestionSet struct {
	Questions []AIQuestion `json:"questions"`
}
