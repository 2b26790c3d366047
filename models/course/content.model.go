package course

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Content types
const (
	ContentTypeText       = "text"
	ContentTypeVideo      = "video"
	ContentTypeQuiz       = "quiz"
	ContentTypeAssignment = "assignment"
)

// Quiz question types
const (
	QuestionMultipleChoice = "multiple_choice"
	QuestionMultipleSelect = "multiple_select"
	QuestionTrueFalse      = "true_false"
	QuestionText           = "text"
)

// ContentItem is one unit of course material. Content is a tagged-union
// payload whose shape depends on ContentType and is validated before
// the row is written.
type ContentItem struct {
	gorm.Model
	ModuleID    uint           `json:"module_id" gorm:"index;not null"`
	Title       string         `json:"title" gorm:"not null"`
	ContentType string         `json:"content_type" gorm:"not null"`
	Content     datatypes.JSON `json:"content"`
	Position    int            `json:"position" gorm:"default:0"`
}

// TextContent is the payload for text items.
type TextContent struct {
	Text string `json:"text"`
}

// VideoContent is the payload for video items.
type VideoContent struct {
	URL string `json:"url"`
}

// QuizQuestion is one question inside a quiz payload. The answer fields
// are loosely typed on purpose: authors store numbers, booleans or
// strings depending on the question type.
type QuizQuestion struct {
	ID             string        `json:"id"`
	Type           string        `json:"type"`
	Prompt         string        `json:"prompt,omitempty"`
	Options        []interface{} `json:"options,omitempty"`
	CorrectAnswer  interface{}   `json:"correct_answer,omitempty"`
	CorrectAnswers []interface{} `json:"correct_answers,omitempty"`
	ExactMatch     bool          `json:"exact_match,omitempty"`
	Keywords       []string      `json:"keywords,omitempty"`
}

// QuizContent is the payload for quiz items.
type QuizContent struct {
	Questions []QuizQuestion `json:"questions"`
}

// AssignmentContent is the payload for assignment items.
type AssignmentContent struct {
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// ValidContentType reports whether contentType is one of the defined types.
func ValidContentType(contentType string) bool {
	switch contentType {
	case ContentTypeText, ContentTypeVideo, ContentTypeQuiz, ContentTypeAssignment:
		return true
	}
	return false
}

// ValidatePayload checks that raw matches the required shape for
// contentType. Returned errors are author-facing messages.
func ValidatePayload(contentType string, raw []byte) error {
	switch contentType {
	case ContentTypeText:
		var payload TextContent
		if err := json.Unmarshal(raw, &payload); err != nil {
			return fmt.Errorf("invalid text content: %w", err)
		}
		if payload.Text == "" {
			return fmt.Errorf("text content is required")
		}
	case ContentTypeVideo:
		var payload VideoContent
		if err := json.Unmarshal(raw, &payload); err != nil {
			return fmt.Errorf("invalid video content: %w", err)
		}
		if payload.URL == "" {
			return fmt.Errorf("video URL is required")
		}
	case ContentTypeQuiz:
		var payload QuizContent
		if err := json.Unmarshal(raw, &payload); err != nil {
			return fmt.Errorf("invalid quiz content: %w", err)
		}
		if len(payload.Questions) == 0 {
			return fmt.Errorf("quiz questions are required")
		}
	case ContentTypeAssignment:
		var payload AssignmentContent
		if err := json.Unmarshal(raw, &payload); err != nil {
			return fmt.Errorf("invalid assignment content: %w", err)
		}
		if payload.Description == "" {
			return fmt.Errorf("assignment description is required")
		}
	default:
		return fmt.Errorf("invalid content type %q", contentType)
	}
	return nil
}

// QuizPayload decodes the content column as a quiz payload.
func (ci *ContentItem) QuizPayload() (*QuizContent, error) {
	var payload QuizContent
	if err := json.Unmarshal(ci.Content, &payload); err != nil {
		return nil, fmt.Errorf("decode quiz payload for content item %d: %w", ci.ID, err)
	}
	return &payload, nil
}

// AssignmentPayload decodes the content column as an assignment payload.
func (ci *ContentItem) AssignmentPayload() (*AssignmentContent, error) {
	var payload AssignmentContent
	if err := json.Unmarshal(ci.Content, &payload); err != nil {
		return nil, fmt.Errorf("decode assignment payload for content item %d: %w", ci.ID, err)
	}
	return &payload, nil
}
