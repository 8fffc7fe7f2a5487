package model

// ATSResult is the outcome of an applicant-tracking-system style scan of
// the resume against a job description.
type ATSResult struct {
	OverallScore    float64           `json:"overall_score"`
	MatchedKeywords []string          `json:"matched_keywords"`
	MissingKeywords []string          `json:"missing_keywords"`
	SectionFeedback map[string]string `json:"section_feedback"`
	Summary         string            `json:"summary"`
}

// NeutralATSResult is the fixed fallback returned when the analyzer fails:
// a mid score with empty feedback per category, so the operation never
// errors out to the client.
func NeutralATSResult() *ATSResult {
	return &ATSResult{
		OverallScore:    50,
		MatchedKeywords: []string{},
		MissingKeywords: []string{},
		SectionFeedback: map[string]string{
			"format":     "",
			"keywords":   "",
			"experience": "",
			"skills":     "",
		},
		Summary: "ATS analysis unavailable, neutral score assigned.",
	}
}

// FinalAssessment summarizes the whole interview for the report cover.
type FinalAssessment struct {
	FinalRecommendation  string   `json:"final_recommendation"`
	ConfidenceLevel      int      `json:"confidence_level"`
	OverallAssessment    string   `json:"overall_assessment"`
	KeyStrengths         []string `json:"key_strengths"`
	DevelopmentAreas     []string `json:"development_areas"`
	TechnicalLevel       string   `json:"technical_level"`
	CommunicationRating  int      `json:"communication_rating"`
	ProblemSolvingRating int      `json:"problem_solving_rating"`
	RoleFit              string   `json:"role_fit"`
	NextSteps            string   `json:"next_steps"`
}
