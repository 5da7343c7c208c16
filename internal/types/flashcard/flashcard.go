package flashcard

// Flashcard is one review card as produced by the model. Front carries the
// prompt, Back the full answer; Options/Correct drive the multiple-choice
// quiz mode. Cards are generated on demand and not persisted.
type Flashcard struct {
	Front   string            `json:"front"`
	Back    string            `json:"back"`
	Options map[string]string `json:"options"`
	Correct string            `json:"correct"`
}

type GenerateFlashcardsRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
	Count     int    `json:"count,omitempty" validate:"omitempty,min=1,max=20"`
}

type GenerateFlashcardsResponse struct {
	Flashcards []Flashcard `json:"flashcards"`
}

// AIFlashcardSet is the strict-JSON payload the model is prompted to return.
type AIFlashcardSet struct {
	Flashcards []Flashcard `json:"flashcards"`
}
