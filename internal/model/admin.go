package model

import (
	"strings"
	"time"
)

// AdminLoginRequest is the payload for admin authentication.
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required,max=255"`
	Password string `json:"password" binding:"required,max=128"`
}

// AdminLoginResponse is what the backend returns on a successful login.
type AdminLoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Credential is the persisted admin session.
type Credential struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Valid reports whether the credential is usable at now.
func (c *Credential) Valid(now time.Time) bool {
	return c != nil && c.AccessToken != "" && now.Before(c.ExpiresAt)
}

// AuthorizationHeader renders the header value sent with admin calls.
func (c *Credential) AuthorizationHeader() string {
	tokenType := c.TokenType
	if tokenType == "" || strings.EqualFold(tokenType, "bearer") {
		tokenType = "Bearer"
	}
	return tokenType + " " + c.AccessToken
}

// AdminQuizItem is a quiz row in the admin week view.
type AdminQuizItem struct {
	ID               int    `json:"id"`
	Title            string `json:"title"`
	URL              string `json:"url"`
	QuestionsCount   int    `json:"questions_count"`
	WeekID           string `json:"week_id"`
	QuizDefinitionID int    `json:"quiz_definition_id"`
	CreatedAt        string `json:"created_at"`
}

// AdminQuizzesResponse is returned by /admin/weeks/{weekId}/quizzes.
type AdminQuizzesResponse struct {
	WeekID       string          `json:"week_id"`
	TotalQuizzes int             `json:"total_quizzes"`
	Quizzes      []AdminQuizItem `json:"quizzes"`
}

// QuestionWithMetadata is a question flattened with the quiz it belongs to.
type QuestionWithMetadata struct {
	Question
	QuizID        int    `json:"quiz_id"`
	QuizTitle     string `json:"quiz_title"`
	QuestionIndex int    `json:"question_index"`
}

// WeekQuestionsResponse is returned by /admin/weeks/{weekId}/questions.
type WeekQuestionsResponse struct {
	WeekID         string                 `json:"week_id"`
	TotalQuestions int                    `json:"total_questions"`
	Questions      []QuestionWithMetadata `json:"questions"`
}

// QuizQuestionsResponse is returned by /admin/quizzes/{quizId}/questions.
type QuizQuestionsResponse struct {
	QuizID         int        `json:"quiz_id"`
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	WeekID         string     `json:"week_id"`
	TotalQuestions int        `json:"total_questions"`
	Questions      []Question `json:"questions"`
}

// UpdateQuestionRequest is the payload for editing one question.
type UpdateQuestionRequest struct {
	Question      string   `json:"question" validate:"required,notblank"`
	Options       []string `json:"options" validate:"min=2,max=6,dive,notblank"`
	CorrectAnswer string   `json:"correct_answer" validate:"required"`
	Hint          string   `json:"hint"`
}

// QuestionListing is a searchable flat list of questions for one week or one quiz.
// QuestionIndex of each entry is its position within its own quiz.
type QuestionListing struct {
	WeekID         string                 `json:"week_id,omitempty"`
	QuizID         int                    `json:"quiz_id,omitempty"`
	Title          string                 `json:"title,omitempty"`
	Search         string                 `json:"search,omitempty"`
	TotalQuestions int                    `json:"total_questions"`
	Questions      []QuestionWithMetadata `json:"questions"`
}
