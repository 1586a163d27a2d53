// Package quizapi is the HTTP client for the external quiz backend.
package quizapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/quizentia/quizentia-web/internal/model"
	"github.com/rs/zerolog"
)

const maxErrorBody = 64 << 10

// Client calls the quiz backend. Every method takes a context so callers
// decide cancellation; the client itself imposes no timeout unless configured.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a Client for baseURL. A zero timeout leaves calls unbounded.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("component", "quizapi").Logger(),
	}
}

// GetQuiz loads the quiz for quizIDs. An empty set asks for the backend default quiz.
func (c *Client) GetQuiz(ctx context.Context, quizIDs []int) (*model.Quiz, error) {
	var quiz model.Quiz
	if len(quizIDs) == 0 {
		if err := c.do(ctx, http.MethodGet, "/quizzes/get", "", nil, &quiz); err != nil {
			return nil, err
		}
		return &quiz, nil
	}

	body := model.GetQuizRequest{QuizIDs: quizIDs}
	if err := c.do(ctx, http.MethodPost, "/quizzes/get", "", body, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// GenerateQuiz asks the backend to build a quiz from sourceURL.
func (c *Client) GenerateQuiz(ctx context.Context, sourceURL string) (*model.Quiz, error) {
	var quiz model.Quiz
	body := model.GenerateQuizRequest{URL: sourceURL}
	if err := c.do(ctx, http.MethodPost, "/generate_quiz", "", body, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// WeeklyQuizzes lists quizzes grouped by week, most recent first.
func (c *Client) WeeklyQuizzes(ctx context.Context, maxWeeks int) ([]model.WeeklyQuiz, error) {
	path := "/quizzes/weekly?max_weeks=" + strconv.Itoa(maxWeeks)

	var weeks []model.WeeklyQuiz
	if err := c.do(ctx, http.MethodGet, path, "", nil, &weeks); err != nil {
		return nil, err
	}
	return weeks, nil
}

// AdminWeeklyQuizzes is WeeklyQuizzes sent with the admin's Authorization header.
func (c *Client) AdminWeeklyQuizzes(ctx context.Context, auth string, maxWeeks int) ([]model.WeeklyQuiz, error) {
	path := "/quizzes/weekly?max_weeks=" + strconv.Itoa(maxWeeks)

	var weeks []model.WeeklyQuiz
	if err := c.do(ctx, http.MethodGet, path, auth, nil, &weeks); err != nil {
		return nil, err
	}
	return weeks, nil
}

// AdminLogin exchanges credentials for an access token.
func (c *Client) AdminLogin(ctx context.Context, username, password string) (*model.AdminLoginResponse, error) {
	body := model.AdminLoginRequest{Username: username, Password: password}

	var resp model.AdminLoginResponse
	if err := c.do(ctx, http.MethodPost, "/admin/login", "", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AdminWeekQuizzes lists the quiz items of one week.
func (c *Client) AdminWeekQuizzes(ctx context.Context, auth, weekID string) (*model.AdminQuizzesResponse, error) {
	var resp model.AdminQuizzesResponse
	path := "/admin/weeks/" + url.PathEscape(weekID) + "/quizzes"
	if err := c.do(ctx, http.MethodGet, path, auth, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AdminWeekQuestions lists every question of one week with quiz metadata.
func (c *Client) AdminWeekQuestions(ctx context.Context, auth, weekID string) (*model.WeekQuestionsResponse, error) {
	var resp model.WeekQuestionsResponse
	path := "/admin/weeks/" + url.PathEscape(weekID) + "/questions"
	if err := c.do(ctx, http.MethodGet, path, auth, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AdminQuizQuestions lists the questions of one quiz.
func (c *Client) AdminQuizQuestions(ctx context.Context, auth string, quizID int) (*model.QuizQuestionsResponse, error) {
	var resp model.QuizQuestionsResponse
	path := fmt.Sprintf("/admin/quizzes/%d/questions", quizID)
	if err := c.do(ctx, http.MethodGet, path, auth, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateQuestion replaces the question at index within quizID.
func (c *Client) UpdateQuestion(ctx context.Context, auth string, quizID, index int, req model.UpdateQuestionRequest) error {
	path := fmt.Sprintf("/admin/quizzes/%d/questions/%d", quizID, index)
	return c.do(ctx, http.MethodPut, path, auth, req, nil)
}

// DeleteQuestion removes the question at index within quizID.
func (c *Client) DeleteQuestion(ctx context.Context, auth string, quizID, index int) error {
	path := fmt.Sprintf("/admin/quizzes/%d/questions/%d", quizID, index)
	return c.do(ctx, http.MethodDelete, path, auth, nil, nil)
}

// DeleteQuiz removes a whole quiz item.
func (c *Client) DeleteQuiz(ctx context.Context, auth string, quizID int) error {
	path := fmt.Sprintf("/admin/quizzes/%d", quizID)
	return c.do(ctx, http.MethodDelete, path, auth, nil, nil)
}

// do sends one JSON request. auth is the full Authorization header value, if any.
// out may be nil when the reply body is not needed.
func (c *Client) do(ctx context.Context, method, path, auth string, in, out any) error {
	apiErr := &APIError{Method: method, Path: path}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		apiErr.Err = err
		return apiErr
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiErr.Err = err
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("Backend request failed")
		return apiErr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr.StatusCode = resp.StatusCode
		apiErr.Detail = readDetail(resp.Body)
		c.log.Warn().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("detail", apiErr.Detail).
			Msg("Backend returned error status")
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		apiErr.StatusCode = resp.StatusCode
		apiErr.Err = fmt.Errorf("decode response: %w", err)
		return apiErr
	}
	return nil
}

// readDetail extracts a string "detail" field from an error body.
func readDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err != nil {
		// Validation errors come back as a list of objects.
		return string(payload.Detail)
	}
	return detail
}
