package model

// Progress is the persisted in-flight answer state of one quiz session.
// UserAnswers has one slot per question; nil until answered.
type Progress struct {
	CurrentQuestion int       `json:"currentQuestion"`
	Score           int       `json:"score"`
	UserAnswers     []*string `json:"userAnswers"`
	Answered        bool      `json:"answered"`
	SelectedOption  *string   `json:"selectedOption"`
}

// NewProgress returns a fresh record for a quiz of n questions.
func NewProgress(n int) Progress {
	return Progress{UserAnswers: make([]*string, n)}
}

// Result is the final score of a completed session. It is reported once and not persisted.
type Result struct {
	Score      int  `json:"score"`
	Total      int  `json:"total"`
	Percentage int  `json:"percentage"`
	Perfect    bool `json:"perfect"`
}
