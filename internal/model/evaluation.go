package model

// Evaluation is the canonical record stored for every submitted answer,
// whatever shape the evaluator actually returned. The first six fields
// are always populated after normalization.
type Evaluation struct {
	OverallScore        float64            `json:"overall_score"`
	CategoryScores      map[string]float64 `json:"category_scores"`
	Strengths           []string           `json:"strengths"`
	Weaknesses          []string           `json:"weaknesses"`
	DetailedFeedback    string             `json:"detailed_feedback"`
	DetailedExplanation string             `json:"detailed_explanation"`

	ImprovementSuggestions []string `json:"improvement_suggestions,omitempty"`
	InterviewerNotes       string   `json:"interviewer_notes,omitempty"`
	FollowUpQuestions      []string `json:"follow_up_questions,omitempty"`
}

// AnswerKind selects the evaluator chain for a submission.
type AnswerKind string

const (
	AnswerKindText  AnswerKind = "text"
	AnswerKindCode  AnswerKind = "code"
	AnswerKindAudio AnswerKind = "audio"
)

func (k AnswerKind) Valid() bool {
	switch k {
	case AnswerKindText, AnswerKindCode, AnswerKindAudio:
		return true
	}
	return false
}
