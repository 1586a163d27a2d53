package service

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/quizentia/quizentia-web/internal/config"
	"github.com/quizentia/quizentia-web/internal/model"
	"github.com/quizentia/quizentia-web/internal/storage"
	"github.com/rs/zerolog"
)

// Phase is the lifecycle state of a quiz session.
type Phase string

const (
	PhaseLoading   Phase = "LOADING"
	PhaseError     Phase = "ERROR"
	PhaseAnswering Phase = "ANSWERING"
	PhaseAnswered  Phase = "ANSWERED"
	PhaseComplete  Phase = "COMPLETE"
)

// Session is one client's live quiz. All methods are safe for concurrent use;
// progress changes are written through to the store before they take effect.
type Session struct {
	mu sync.Mutex

	store    storage.Store
	identity string
	quiz     *model.Quiz
	phase    Phase
	progress model.Progress
	showHint bool
	result   *model.Result
	err      error

	log zerolog.Logger
}

// QuestionView is the current question as shown to the player. The correct
// answer is only revealed once the question has been answered.
type QuestionView struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	HasHint       bool     `json:"has_hint"`
	Hint          string   `json:"hint,omitempty"`
	CorrectAnswer *string  `json:"correct_answer,omitempty"`
	IsCorrect     *bool    `json:"is_correct,omitempty"`
}

// SessionView is a read-only snapshot of a session.
type SessionView struct {
	Phase           Phase         `json:"phase"`
	Identity        string        `json:"identity,omitempty"`
	Title           string        `json:"title,omitempty"`
	TotalQuestions  int           `json:"total_questions"`
	CurrentQuestion int           `json:"current_question"`
	Score           int           `json:"score"`
	Answered        bool          `json:"answered"`
	SelectedOption  *string       `json:"selected_option"`
	ShowHint        bool          `json:"show_hint"`
	Question        *QuestionView `json:"question,omitempty"`
	Result          *model.Result `json:"result,omitempty"`
	Error           string        `json:"error,omitempty"`
}

// Identity returns the quiz-set identity the session was opened for.
func (s *Session) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Phase returns the current lifecycle state.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// View renders the session for the client.
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// SelectOption answers the current question with opt. Each question accepts one answer.
func (s *Session) SelectOption(ctx context.Context, opt string) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseAnswering {
		return s.viewLocked(), fmt.Errorf("%w: cannot answer while %s", ErrInvalidState, s.phase)
	}

	q := s.quiz.Questions[s.progress.CurrentQuestion]
	if !q.HasOption(opt) {
		return s.viewLocked(), ErrInvalidOption
	}

	next := s.copyProgress()
	chosen := opt
	next.UserAnswers[next.CurrentQuestion] = &chosen
	next.SelectedOption = &chosen
	next.Answered = true
	if opt == q.CorrectAnswer {
		next.Score++
	}

	if err := s.persist(ctx, next); err != nil {
		return s.viewLocked(), err
	}

	s.progress = next
	s.phase = PhaseAnswered
	return s.viewLocked(), nil
}

// Advance moves past an answered question. After the last question the
// session completes, its snapshot is deleted and the result is reported.
func (s *Session) Advance(ctx context.Context) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseAnswered {
		return s.viewLocked(), fmt.Errorf("%w: cannot advance while %s", ErrInvalidState, s.phase)
	}

	total := len(s.quiz.Questions)
	if s.progress.CurrentQuestion+1 >= total {
		if err := s.clearSnapshot(ctx); err != nil {
			return s.viewLocked(), err
		}
		result := NewResult(s.progress.Score, total)
		s.result = &result
		s.showHint = false
		s.phase = PhaseComplete
		return s.viewLocked(), nil
	}

	next := s.copyProgress()
	next.CurrentQuestion++
	next.SelectedOption = nil
	next.Answered = false

	if err := s.persist(ctx, next); err != nil {
		return s.viewLocked(), err
	}

	s.progress = next
	s.showHint = false
	s.phase = PhaseAnswering
	return s.viewLocked(), nil
}

// Restart discards all progress and returns to the first question.
func (s *Session) Restart(ctx context.Context) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quiz == nil {
		return s.viewLocked(), fmt.Errorf("%w: no quiz loaded", ErrInvalidState)
	}

	if err := s.clearSnapshot(ctx); err != nil {
		return s.viewLocked(), err
	}

	s.progress = model.NewProgress(len(s.quiz.Questions))
	s.result = nil
	s.showHint = false
	s.phase = PhaseAnswering
	return s.viewLocked(), nil
}

// ToggleHint flips hint visibility. It is never persisted.
func (s *Session) ToggleHint() (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseAnswering && s.phase != PhaseAnswered {
		return s.viewLocked(), fmt.Errorf("%w: no question is shown while %s", ErrInvalidState, s.phase)
	}

	s.showHint = !s.showHint
	return s.viewLocked(), nil
}

// NewResult computes the final score. Percentage is rounded to the nearest integer.
func NewResult(score, total int) model.Result {
	r := model.Result{Score: score, Total: total, Perfect: total > 0 && score == total}
	if total > 0 {
		r.Percentage = int(math.Round(float64(score) / float64(total) * 100))
	}
	return r
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseError
	s.err = err
}

func (s *Session) copyProgress() model.Progress {
	next := s.progress
	next.UserAnswers = append([]*string(nil), s.progress.UserAnswers...)
	return next
}

func (s *Session) persist(ctx context.Context, p model.Progress) error {
	key := config.CacheKey.QuizProgressKey(s.identity)
	if err := storage.PutJSON(ctx, s.store, key, p, 0); err != nil {
		s.log.Error().Err(err).Str("identity", s.identity).Msg("Failed to persist quiz progress")
		return fmt.Errorf("persist progress: %w", err)
	}
	return nil
}

func (s *Session) clearSnapshot(ctx context.Context) error {
	key := config.CacheKey.QuizProgressKey(s.identity)
	if err := s.store.Remove(ctx, key); err != nil {
		s.log.Error().Err(err).Str("identity", s.identity).Msg("Failed to clear quiz progress")
		return fmt.Errorf("clear progress: %w", err)
	}
	return nil
}

func (s *Session) viewLocked() SessionView {
	v := SessionView{
		Phase:    s.phase,
		Identity: s.identity,
		ShowHint: s.showHint,
		Result:   s.result,
	}
	if s.err != nil {
		v.Error = s.err.Error()
	}
	if s.quiz == nil {
		return v
	}

	v.Title = s.quiz.Title
	v.TotalQuestions = len(s.quiz.Questions)
	v.CurrentQuestion = s.progress.CurrentQuestion
	v.Score = s.progress.Score
	v.Answered = s.progress.Answered
	v.SelectedOption = s.progress.SelectedOption

	if s.phase == PhaseComplete {
		return v
	}

	q := s.quiz.Questions[s.progress.CurrentQuestion]
	qv := &QuestionView{
		Question: q.Question,
		Options:  append([]string(nil), q.Options...),
		HasHint:  q.Hint != "",
	}
	if s.showHint {
		qv.Hint = q.Hint
	}
	if s.progress.Answered {
		correct := q.CorrectAnswer
		qv.CorrectAnswer = &correct
		if s.progress.SelectedOption != nil {
			isCorrect := *s.progress.SelectedOption == correct
			qv.IsCorrect = &isCorrect
		}
	}
	v.Question = qv
	return v
}
