package model

// Question is a single multiple-choice question as served by the quiz backend.
// Option order carries no meaning; it is randomized per load.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Hint          string   `json:"hint,omitempty"`
}

// HasOption reports whether opt is one of the question's options.
func (q Question) HasOption(opt string) bool {
	for _, o := range q.Options {
		if o == opt {
			return true
		}
	}
	return false
}

// Quiz is the payload returned by /quizzes/get and /generate_quiz.
// It is immutable for the duration of a session.
type Quiz struct {
	ID        string     `json:"id,omitempty"`
	QuizID    *int       `json:"quiz_id,omitempty"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	StartDate string     `json:"startDate,omitempty"`
	EndDate   string     `json:"endDate,omitempty"`
	CreatedAt string     `json:"created_at,omitempty"`
}

// GetQuizRequest filters /quizzes/get to a set of quiz items.
type GetQuizRequest struct {
	QuizIDs []int `json:"quiz_ids"`
}

// GenerateQuizRequest asks the backend to build a quiz from a source URL.
type GenerateQuizRequest struct {
	URL string `json:"url" binding:"required,url,max=2048"`
}

// StartSessionRequest selects the quiz set a session is opened for.
// An empty body resumes the last-used quiz set.
type StartSessionRequest struct {
	QuizIDs []int `json:"quiz_ids" binding:"omitempty,max=50,dive,min=1"`
	Default bool  `json:"default"`
}

// SelectOptionRequest is the payload for answering the current question.
type SelectOptionRequest struct {
	Option string `json:"option" binding:"required"`
}
