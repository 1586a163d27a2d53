package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	govalidator "github.com/go-playground/validator/v10"
	"github.com/quizentia/quizentia-web/internal/config"
	"github.com/quizentia/quizentia-web/internal/model"
	"github.com/quizentia/quizentia-web/internal/quizapi"
	"github.com/quizentia/quizentia-web/internal/storage"
	"github.com/quizentia/quizentia-web/internal/validator"
	"github.com/rs/zerolog"
)

// Admin errors.
var (
	ErrSessionExpired   = errors.New("session expired, please login again")
	ErrNotFound         = errors.New("resource not found")
	ErrAdminUnavailable = errors.New("quiz service unavailable, please try again later")
)

// AuthError is a rejected admin login. Detail is shown on the login form.
type AuthError struct {
	Detail string
}

func (e *AuthError) Error() string { return e.Detail }

// ValidationError lists every problem found in an admin edit.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// AdminBackend is the authenticated part of the quiz backend.
type AdminBackend interface {
	AdminLogin(ctx context.Context, username, password string) (*model.AdminLoginResponse, error)
	AdminWeeklyQuizzes(ctx context.Context, auth string, maxWeeks int) ([]model.WeeklyQuiz, error)
	AdminWeekQuizzes(ctx context.Context, auth, weekID string) (*model.AdminQuizzesResponse, error)
	AdminWeekQuestions(ctx context.Context, auth, weekID string) (*model.WeekQuestionsResponse, error)
	AdminQuizQuestions(ctx context.Context, auth string, quizID int) (*model.QuizQuestionsResponse, error)
	UpdateQuestion(ctx context.Context, auth string, quizID, index int, req model.UpdateQuestionRequest) error
	DeleteQuestion(ctx context.Context, auth string, quizID, index int) error
	DeleteQuiz(ctx context.Context, auth string, quizID int) error
}

// AdminService owns the admin credential and every authenticated backend call.
type AdminService struct {
	backend  AdminBackend
	maxWeeks int
	log      zerolog.Logger
	now      func() time.Time
}

// NewAdminService creates a new AdminService.
func NewAdminService(backend AdminBackend, maxWeeks int, log zerolog.Logger) *AdminService {
	return &AdminService{
		backend:  backend,
		maxWeeks: maxWeeks,
		log:      log.With().Str("component", "admin_service").Logger(),
		now:      time.Now,
	}
}

// Login authenticates against the backend and persists the credential.
func (s *AdminService) Login(ctx context.Context, store storage.Store, username, password string) (*model.Credential, error) {
	if username == "" || password == "" {
		return nil, &ValidationError{Messages: []string{"Please enter both username and password"}}
	}

	resp, err := s.backend.AdminLogin(ctx, username, password)
	if err != nil {
		var apiErr *quizapi.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			detail := apiErr.Detail
			if detail == "" {
				detail = "Invalid credentials"
			}
			s.log.Warn().Str("username", username).Int("status", apiErr.StatusCode).Msg("Admin login rejected")
			return nil, &AuthError{Detail: detail}
		}
		s.log.Error().Err(err).Msg("Login error")
		return nil, fmt.Errorf("%w: %w", ErrAdminUnavailable, err)
	}
	if resp.AccessToken == "" {
		return nil, &AuthError{Detail: "Invalid credentials"}
	}

	cred := &model.Credential{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		ExpiresAt:   s.tokenExpiry(resp),
	}

	ttl := cred.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		s.log.Error().Int64("expires_in", resp.ExpiresIn).Msg("Login returned a token that is already expired")
		return nil, fmt.Errorf("%w: login returned an expired token", ErrAdminUnavailable)
	}
	if err := storage.PutJSON(ctx, store, config.CacheKey.AdminCredentialKey(), cred, ttl); err != nil {
		return nil, fmt.Errorf("store credential: %w", err)
	}

	s.log.Info().Str("username", username).Time("expires_at", cred.ExpiresAt).Msg("Admin logged in")
	return cred, nil
}

// tokenExpiry is now + expires_in, capped by the token's own exp claim when
// the access token is a JWT. The signature is the backend's concern.
func (s *AdminService) tokenExpiry(resp *model.AdminLoginResponse) time.Time {
	expiry := s.now().Add(time.Duration(resp.ExpiresIn) * time.Second)

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(resp.AccessToken, &claims); err == nil && claims.ExpiresAt != nil {
		if claims.ExpiresAt.Time.Before(expiry) || resp.ExpiresIn <= 0 {
			expiry = claims.ExpiresAt.Time
		}
	}
	return expiry
}

// IsAuthenticated reports whether a non-expired credential is stored.
// An expired credential is purged.
func (s *AdminService) IsAuthenticated(ctx context.Context, store storage.Store) (bool, error) {
	_, err := s.credential(ctx, store)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrSessionExpired):
		return false, nil
	default:
		return false, err
	}
}

// Credential returns the stored credential, or ErrSessionExpired.
func (s *AdminService) Credential(ctx context.Context, store storage.Store) (*model.Credential, error) {
	return s.credential(ctx, store)
}

// Logout purges the stored credential unconditionally.
func (s *AdminService) Logout(ctx context.Context, store storage.Store) error {
	if err := store.Remove(ctx, config.CacheKey.AdminCredentialKey()); err != nil {
		return fmt.Errorf("purge credential: %w", err)
	}
	return nil
}

// Weeks lists the weeks available for management.
func (s *AdminService) Weeks(ctx context.Context, store storage.Store) ([]model.WeeklyQuiz, error) {
	var weeks []model.WeeklyQuiz
	err := s.authorized(ctx, store, "fetch weeks", func(auth string) error {
		var err error
		weeks, err = s.backend.AdminWeeklyQuizzes(ctx, auth, s.maxWeeks)
		return err
	})
	return weeks, err
}

// WeekQuizzes lists the quiz items of a week.
func (s *AdminService) WeekQuizzes(ctx context.Context, store storage.Store, weekID string) (*model.AdminQuizzesResponse, error) {
	var resp *model.AdminQuizzesResponse
	err := s.authorized(ctx, store, "fetch week quizzes", func(auth string) error {
		var err error
		resp, err = s.backend.AdminWeekQuizzes(ctx, auth, weekID)
		return err
	})
	return resp, err
}

// WeekQuestions lists a week's questions whose text or quiz title contains search.
func (s *AdminService) WeekQuestions(ctx context.Context, store storage.Store, weekID, search string) (*model.QuestionListing, error) {
	var resp *model.WeekQuestionsResponse
	err := s.authorized(ctx, store, "fetch week questions", func(auth string) error {
		var err error
		resp, err = s.backend.AdminWeekQuestions(ctx, auth, weekID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &model.QuestionListing{
		WeekID:         resp.WeekID,
		Search:         search,
		TotalQuestions: len(resp.Questions),
		Questions:      FilterQuestions(resp.Questions, search),
	}, nil
}

// QuizQuestions lists one quiz's questions whose text or quiz title contains search.
func (s *AdminService) QuizQuestions(ctx context.Context, store storage.Store, quizID int, search string) (*model.QuestionListing, error) {
	var resp *model.QuizQuestionsResponse
	err := s.authorized(ctx, store, "fetch quiz questions", func(auth string) error {
		var err error
		resp, err = s.backend.AdminQuizQuestions(ctx, auth, quizID)
		return err
	})
	if err != nil {
		return nil, err
	}

	flat := make([]model.QuestionWithMetadata, len(resp.Questions))
	for i, q := range resp.Questions {
		flat[i] = model.QuestionWithMetadata{
			Question:      q,
			QuizID:        resp.QuizID,
			QuizTitle:     resp.Title,
			QuestionIndex: i,
		}
	}

	return &model.QuestionListing{
		WeekID:         resp.WeekID,
		QuizID:         resp.QuizID,
		Title:          resp.Title,
		Search:         search,
		TotalQuestions: len(flat),
		Questions:      FilterQuestions(flat, search),
	}, nil
}

// UpdateQuestion validates req locally and, only if it is valid, sends it.
func (s *AdminService) UpdateQuestion(ctx context.Context, store storage.Store, quizID, index int, req model.UpdateQuestionRequest) error {
	if msgs := ValidateQuestion(req); len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}

	return s.authorized(ctx, store, "update question", func(auth string) error {
		return s.backend.UpdateQuestion(ctx, auth, quizID, index, req)
	})
}

// DeleteQuestion removes one question from a quiz.
func (s *AdminService) DeleteQuestion(ctx context.Context, store storage.Store, quizID, index int) error {
	return s.authorized(ctx, store, "delete question", func(auth string) error {
		return s.backend.DeleteQuestion(ctx, auth, quizID, index)
	})
}

// DeleteQuiz removes a whole quiz item.
func (s *AdminService) DeleteQuiz(ctx context.Context, store storage.Store, quizID int) error {
	return s.authorized(ctx, store, "delete quiz", func(auth string) error {
		return s.backend.DeleteQuiz(ctx, auth, quizID)
	})
}

// credential loads the stored credential, purging it when expired.
func (s *AdminService) credential(ctx context.Context, store storage.Store) (*model.Credential, error) {
	key := config.CacheKey.AdminCredentialKey()

	var cred model.Credential
	if err := storage.GetJSON(ctx, store, key, &cred); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("load credential: %w", err)
	}

	if !cred.Valid(s.now()) {
		if err := store.Remove(ctx, key); err != nil {
			return nil, fmt.Errorf("purge credential: %w", err)
		}
		return nil, ErrSessionExpired
	}
	return &cred, nil
}

// authorized runs call with the stored bearer credential. A 401 purges the
// credential; there is no refresh.
func (s *AdminService) authorized(ctx context.Context, store storage.Store, op string, call func(auth string) error) error {
	cred, err := s.credential(ctx, store)
	if err != nil {
		return err
	}

	err = call(cred.AuthorizationHeader())
	if err == nil {
		return nil
	}

	if errors.Is(err, quizapi.ErrUnauthorized) {
		s.log.Warn().Str("op", op).Msg("Admin token rejected, purging credential")
		if rmErr := store.Remove(ctx, config.CacheKey.AdminCredentialKey()); rmErr != nil {
			s.log.Error().Err(rmErr).Msg("Failed to purge rejected credential")
		}
		return ErrSessionExpired
	}

	var apiErr *quizapi.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	s.log.Error().Err(err).Str("op", op).Msg("Admin backend call failed")
	return fmt.Errorf("%s: %w: %w", op, ErrAdminUnavailable, err)
}

// FilterQuestions keeps questions whose text or quiz title contains search,
// case-insensitively. An empty search keeps everything.
func FilterQuestions(questions []model.QuestionWithMetadata, search string) []model.QuestionWithMetadata {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return questions
	}

	out := make([]model.QuestionWithMetadata, 0, len(questions))
	for _, q := range questions {
		if strings.Contains(strings.ToLower(q.Question.Question), needle) ||
			strings.Contains(strings.ToLower(q.QuizTitle), needle) {
			out = append(out, q)
		}
	}
	return out
}

// ValidateQuestion returns the problems that block an edit, in form order.
func ValidateQuestion(req model.UpdateQuestionRequest) []string {
	var (
		textMissing, tooFew, tooMany, blankOption, answerMissing bool
	)

	var ve govalidator.ValidationErrors
	if err := validator.Struct(req); errors.As(err, &ve) {
		for _, fe := range ve {
			field := fe.StructField()
			switch {
			case field == "Question":
				textMissing = true
			case field == "Options" && fe.Tag() == "min":
				tooFew = true
			case field == "Options" && fe.Tag() == "max":
				tooMany = true
			case strings.HasPrefix(field, "Options["):
				blankOption = true
			case field == "CorrectAnswer":
				answerMissing = true
			}
		}
	}

	var msgs []string
	if textMissing {
		msgs = append(msgs, "Question text is required")
	}
	if tooFew {
		msgs = append(msgs, "At least 2 options are required")
	}
	if tooMany {
		msgs = append(msgs, "At most 6 options are allowed")
	}
	if blankOption {
		msgs = append(msgs, "All options must have text")
	}
	if answerMissing {
		msgs = append(msgs, "Correct answer must be selected")
	} else if !(model.Question{Options: req.Options}).HasOption(req.CorrectAnswer) {
		msgs = append(msgs, "Correct answer must be one of the options")
	}
	return msgs
}
