package enroll

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"lms/apperr"
	courseModels "lms/models/course"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuizAnswer is one submitted answer. Value mirrors the loosely typed
// authoring side: a number, bool, string, or array depending on the
// question type.
type QuizAnswer struct {
	QuestionID string      `json:"question_id" validate:"required"`
	Value      interface{} `json:"value"`
}

// GradedAnswer echoes a submitted answer with its verdict.
type GradedAnswer struct {
	QuestionID string      `json:"question_id"`
	Value      interface{} `json:"value"`
	IsCorrect  bool        `json:"is_correct"`
}

// QuizResult is the outcome of a quiz submission.
type QuizResult struct {
	Score          float64        `json:"score"`
	CorrectAnswers int            `json:"correct_answers"`
	TotalQuestions int            `json:"total_questions"`
	GradedAnswers  []GradedAnswer `json:"graded_answers"`
	Feedback       string         `json:"feedback"`
}

// SubmitQuiz grades a quiz attempt and records it as completed
// progress. Answers naming unknown question IDs are counted incorrect,
// never rejected; the score is correct/total over the quiz's question
// count.
func (s *Service) SubmitQuiz(userID, courseID, contentItemID uint, answers []QuizAnswer, timeSpent int) (*QuizResult, error) {
	enrollment, err := s.activeEnrollment(userID, courseID)
	if err != nil {
		return nil, err
	}

	item, err := s.fetchItemInCourse(contentItemID, courseID)
	if err != nil {
		return nil, err
	}
	if item.ContentType != courseModels.ContentTypeQuiz {
		return nil, apperr.InvalidArgument("content item is not a quiz")
	}

	quiz, err := item.QuizPayload()
	if err != nil {
		return nil, apperr.Internal(err, "failed to read quiz")
	}
	if len(quiz.Questions) == 0 {
		return nil, apperr.InvalidArgument("quiz has no questions")
	}

	byID := make(map[string]*courseModels.QuizQuestion, len(quiz.Questions))
	for i := range quiz.Questions {
		byID[quiz.Questions[i].ID] = &quiz.Questions[i]
	}

	correct := 0
	graded := make([]GradedAnswer, len(answers))
	for i, answer := range answers {
		ok := false
		if question, found := byID[answer.QuestionID]; found {
			ok = checkAnswer(question, answer.Value)
		}
		if ok {
			correct++
		}
		graded[i] = GradedAnswer{QuestionID: answer.QuestionID, Value: answer.Value, IsCorrect: ok}
	}

	score := float64(correct) / float64(len(quiz.Questions)) * 100

	data, err := json.Marshal(map[string]interface{}{
		"answers":      graded,
		"submitted_at": time.Now(),
	})
	if err != nil {
		return nil, apperr.Internal(err, "failed to encode quiz attempt")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		_, err := upsertProgress(tx, enrollment.ID, contentItemID, func(r *courseModels.ProgressRecord) {
			r.Status = courseModels.ProgressCompleted
			r.Score = &score
			r.TimeSpent += timeSpent
			r.Data = datatypes.JSON(data)
			if r.CompletedAt == nil {
				now := time.Now()
				r.CompletedAt = &now
			}
		})
		if err != nil {
			return err
		}
		return recalcEnrollment(tx, enrollment)
	})
	if err != nil {
		return nil, apperr.Internal(err, "failed to record quiz attempt")
	}

	s.cache.InvalidateUserAccess(userID, courseID)

	return &QuizResult{
		Score:          score,
		CorrectAnswers: correct,
		TotalQuestions: len(quiz.Questions),
		GradedAnswers:  graded,
		Feedback:       quizFeedback(score),
	}, nil
}

func quizFeedback(score float64) string {
	switch {
	case score >= 90:
		return "Excellent! You've mastered this material."
	case score >= 80:
		return "Great job! You have a strong understanding of this content."
	case score >= 70:
		return "Good work! You understand most of the key concepts."
	case score >= 60:
		return "You're making progress. Review the material to strengthen your understanding."
	default:
		return "You might need more practice with this content. Consider reviewing the material again."
	}
}

// checkAnswer applies the per-type grading rule.
func checkAnswer(q *courseModels.QuizQuestion, value interface{}) bool {
	switch q.Type {
	case courseModels.QuestionMultipleChoice, courseModels.QuestionTrueFalse:
		return answersEqual(value, q.CorrectAnswer)

	case courseModels.QuestionMultipleSelect:
		selected, ok := value.([]interface{})
		if !ok {
			return false
		}
		correct := make(map[string]bool, len(q.CorrectAnswers))
		for _, v := range q.CorrectAnswers {
			correct[answerKey(v)] = true
		}
		if len(selected) != len(correct) {
			return false
		}
		for _, v := range selected {
			if !correct[answerKey(v)] {
				return false
			}
		}
		return true

	case courseModels.QuestionText:
		text, ok := value.(string)
		if !ok {
			return false
		}
		if q.ExactMatch {
			expected, ok := q.CorrectAnswer.(string)
			if !ok {
				return false
			}
			return strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(expected))
		}
		lower := strings.ToLower(text)
		for _, keyword := range q.Keywords {
			if strings.Contains(lower, strings.ToLower(keyword)) {
				return true
			}
		}
		return false
	}
	return false
}

// answersEqual compares two JSON-decoded values. Numbers always decode
// as float64 on both sides, so a string key is enough.
func answersEqual(a, b interface{}) bool {
	return answerKey(a) == answerKey(b)
}

func answerKey(v interface{}) string {
	switch val := v.(type) {
	case string:
		return "s:" + val
	case bool:
		if val {
			return "b:true"
		}
		return "b:false"
	case float64:
		return "n:" + strconv.FormatFloat(val, 'g', -1, 64)
	case int:
		return "n:" + strconv.FormatFloat(float64(val), 'g', -1, 64)
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
		}
		return "n:" + val.String()
	case nil:
		return "nil"
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return "j:" + string(raw)
	}
}
