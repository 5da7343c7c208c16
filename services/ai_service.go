package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"estudyAPI/internal/types/flashcard"
	"estudyAPI/internal/types/plan"
	"estudyAPI/internal/types/question"
	"estudyAPI/internal/types/subject"
)

const (
	// Groq exposes an OpenAI-compatible API; only the base URL and model
	// differ from stock OpenAI.
	groqBaseURL  = "https://api.groq.com/openai/v1"
	defaultModel = "llama-3.3-70b-versatile"

	// Materials context is capped so the prompt stays inside the model's
	// input budget (~12k tokens of material).
	maxMaterialChars = 40000

	// Flashcards carry a tighter cap: each card is short, so a smaller
	// slice of the material is enough.
	maxFlashcardContextChars = 20000
)

type AIService struct {
	client *openai.Client
	model  string
}

func NewAIService() (*AIService, error) {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
	}

	model := os.Getenv("GROQ_MODEL")
	if model == "" {
		model = defaultModel
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = groqBaseURL

	log.Printf("AI Service: initialized with model %s", model)

	return &AIService{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

type materialContext struct {
	Title   string
	Type    string
	Content string
}

// GeneratePlan asks the model for a day-by-day plan between today and the
// exam date, as strict JSON.
func (s *AIService) GeneratePlan(ctx context.Context, subj *subject.Subject, materials []materialContext, today time.Time, daysAvailable int) (*plan.AIStudyPlan, error) {
	var b strings.Builder
	charCount := 0
	for _, mat := range materials {
		chunk := fmt.Sprintf("\n\n### %s (%s)\n%s", mat.Title, mat.Type, mat.Content)
		if charCount+len(chunk) > maxMaterialChars {
			break
		}
		b.WriteString(chunk)
		charCount += len(chunk)
	}

	materialsSection := b.String()
	if len(materials) == 0 {
		materialsSection = "No materials uploaded. Build a general plan from the subject name alone."
	}

	reviewDays := 2
	if daysAvailable <= 5 {
		reviewDays = 1
	}

	todayStr := today.Format("2006-01-02")
	examDateStr := subj.ExamDate.Format("2006-01-02")

	systemPrompt := "You are an expert in pedagogy and accelerated learning. Your specialty is building highly personalized, progressive, actionable study plans based on the actual content the student has."

	userPrompt := fmt.Sprintf(`Create a detailed study plan for the subject "%s".

STUDENT DATA:
- Today's date: %s
- Exam date: %s
- Days available to study: %d
- Study hours per day: %g
- Materials uploaded: %d

STUDENT MATERIALS:
%s

PROCESS:

STEP 1 - ANALYZE THE CONTENT:
Identify every concept, definition, theory, formula and procedure present in the materials.
Classify them into three levels: FUNDAMENTAL (base concepts), INTERMEDIATE (depend on fundamentals), ADVANCED (depend on the previous two).

STEP 2 - DESIGN THE PROGRESSION:
- Always start with the fundamental concepts (days 1 and 2)
- Move towards intermediate, then advanced
- Group coherent topics into the same session
- The last %d day(s) before the exam: full review and practice exercises
- Do not include %s (exam day)
- Sessions start on %s, one per day

STEP 3 - WRITE EACH SESSION IN FULL DETAIL:
- Title: specific, using real topics from the material (never "Session 1" or a generic "Introduction")
- Description: exactly what to do in the session (read section X, summarize Y, solve exercises on Z). Mention specific concepts.
- Topics: the exact concepts to study, taken verbatim from the material

RULES:
- Every session lasts exactly %g hour(s)
- Respond ONLY with the JSON, no extra text, no markdown

STRICT JSON FORMAT:
{
  "sessions": [
    {
      "date": "YYYY-MM-DD",
      "duration_hours": %g,
      "title": "Specific title with real topics",
      "description": "Concrete instructions for this session",
      "topics": ["Specific concept 1", "Specific concept 2"]
    }
  ]
}`,
		subj.Name, todayStr, examDateStr, daysAvailable, subj.HoursPerDay,
		len(materials), materialsSection, reviewDays, examDateStr, todayStr,
		subj.HoursPerDay, subj.HoursPerDay)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.4,
		MaxTokens:   6000,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("plan generation call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}

	var p plan.AIStudyPlan
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &p); err != nil {
		return nil, fmt.Errorf("model returned invalid JSON: %w", err)
	}

	if len(p.Sessions) == 0 {
		return nil, fmt.Errorf("model returned no sessions")
	}

	return &p, nil
}

// SummarizeContent condenses raw material into a structured summary used as
// plan-generation context.
func (s *AIService) SummarizeContent(ctx context.Context, title, content string) (string, error) {
	truncated := content
	if len(truncated) > 8000 {
		truncated = truncated[:8000]
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an academic assistant. Summarize the following study material in a structured way, extracting the most important concepts, topics and subtopics. The summary must be clear and complete without losing key information. Maximum 2000 words.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Material: %q\n\n%s", title, truncated),
			},
		},
		Temperature: 0.3,
		MaxTokens:   2000,
	})
	if err != nil {
		return "", fmt.Errorf("summarization call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// GenerateFlashcards produces review cards over the given material context
// as strict JSON. Cards are returned to the client directly, never stored.
func (s *AIService) GenerateFlashcards(ctx context.Context, subjectName string, materialsSection string, count int) (*flashcard.AIFlashcardSet, error) {
	if materialsSection == "" {
		materialsSection = fmt.Sprintf("No materials available. Use general knowledge about: %s", subjectName)
	}
	if len(materialsSection) > maxFlashcardContextChars {
		materialsSection = materialsSection[:maxFlashcardContextChars]
	}

	userPrompt := fmt.Sprintf(`Create exactly %d study flashcards for the subject "%s".

REFERENCE CONTENT:
%s

INSTRUCTIONS:
- Every flashcard covers one concept, definition, formula or key idea from the material
- "front" is the question or concept to recall (concise, clear)
- "back" is the full answer or explanation (2-4 sentences)
- "options" holds 4 alternatives for multiple-choice mode (exactly one correct)
- "correct" is the letter of the correct option: "a", "b", "c" or "d"
- Wrong options must be plausible but clearly incorrect
- Cover a variety of topics from the material, from fundamental to advanced
- Respond ONLY with the JSON, no extra text, no markdown

STRICT JSON FORMAT:
{
  "flashcards": [
    {
      "front": "Question or concept",
      "back": "Full answer or explanation of the concept",
      "options": {
        "a": "Correct option",
        "b": "Wrong option 1",
        "c": "Wrong option 2",
        "d": "Wrong option 3"
      },
      "correct": "a"
    }
  ]
}`, count, subjectName, materialsSection)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are an expert professor who creates high quality revision material."},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.6,
		MaxTokens:   4000,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("flashcard generation call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}

	var set flashcard.AIFlashcardSet
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &set); err != nil {
		return nil, fmt.Errorf("model returned invalid JSON: %w", err)
	}

	if len(set.Flashcards) == 0 {
		return nil, fmt.Errorf("model returned no flashcards")
	}

	return &set, nil
}

// GenerateQuestions produces practice questions over the given material
// context as strict JSON.
func (s *AIService) GenerateQuestions(ctx context.Context, subjectName string, materialsSection string, qType question.QuestionType, difficulty question.Difficulty, count int) (*question.AIQuestionSet, error) {
	if materialsSection == "" {
		materialsSection = "No materials available. Generate questions from the subject name alone."
	}
	if len(materialsSection) > maxMaterialChars {
		materialsSection = materialsSection[:maxMaterialChars]
	}

	userPrompt := fmt.Sprintf(`Generate %d practice questions for the subject "%s".

TYPE: %s
DIFFICULTY: %s

MATERIAL:
%s

RULES:
- multiple_choice questions carry an "options" object with keys "a" through "d" and correct_answer is one of those keys
- true_false questions have correct_answer "true" or "false"
- short_answer questions have a concise expected answer
- every question includes a short explanation
- Respond ONLY with the JSON, no extra text, no markdown

STRICT JSON FORMAT:
{
  "questions": [
    {
      "type": "%s",
      "difficulty": "%s",
      "question_text": "...",
      "options": {"a": "...", "b": "...", "c": "...", "d": "..."},
      "correct_answer": "...",
      "explanation": "..."
    }
  ]
}`, count, subjectName, qType, difficulty, materialsSection, qType, difficulty)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are an expert exam writer. You produce rigorous practice questions grounded strictly in the provided material."},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.5,
		MaxTokens:   4000,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("question generation call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}

	var set question.AIQuestionSet
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &set); err != nil {
		return nil, fmt.Errorf("model returned invalid JSON: %w", err)
	}

	if len(set.Questions) == 0 {
		return nil, fmt.Errorf("model returned no questions")
	}

	return &set, nil
}
