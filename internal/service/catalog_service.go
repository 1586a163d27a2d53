package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/quizentia/quizentia-web/internal/config"
	"github.com/quizentia/quizentia-web/internal/model"
	"github.com/quizentia/quizentia-web/internal/shuffle"
	"github.com/quizentia/quizentia-web/internal/storage"
	"github.com/rs/zerolog"
)

// ErrWeekNotFound is returned when a week is unknown or has no quizzes.
var ErrWeekNotFound = errors.New("week not found")

// CatalogBackend lists and generates quizzes.
type CatalogBackend interface {
	WeeklyQuizzes(ctx context.Context, maxWeeks int) ([]model.WeeklyQuiz, error)
	GenerateQuiz(ctx context.Context, sourceURL string) (*model.Quiz, error)
}

// CatalogService serves the public quiz list.
type CatalogService struct {
	backend    CatalogBackend
	maxWeeks   int
	sampleSize int
	memoTTL    time.Duration
	log        zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(backend CatalogBackend, cfg *config.Config, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		backend:    backend,
		maxWeeks:   cfg.WeeklyMaxWeeks,
		sampleSize: cfg.WeekSampleSize,
		memoTTL:    cfg.QuizCacheTTL,
		log:        log.With().Str("component", "catalog_service").Logger(),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ListWeeks returns weekly quizzes, most recent first. The first week is current.
func (s *CatalogService) ListWeeks(ctx context.Context) ([]model.CatalogWeek, error) {
	weeks, err := s.backend.WeeklyQuizzes(ctx, s.maxWeeks)
	if err != nil {
		s.log.Error().Err(err).Msg("Error fetching weekly quizzes")
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}

	out := make([]model.CatalogWeek, len(weeks))
	for i, w := range weeks {
		out[i] = model.CatalogWeek{WeeklyQuiz: w, IsCurrent: i == 0}
	}
	return out, nil
}

// SelectWeek picks a random subset of the week's quiz IDs. The pick is
// memoized in the client's store so reloads keep the same set.
func (s *CatalogService) SelectWeek(ctx context.Context, store storage.Store, weekID string) (*model.WeekSelection, error) {
	key := config.CacheKey.WeekSelectionKey(weekID)

	var memo model.WeekSelection
	err := storage.GetJSON(ctx, store, key, &memo)
	switch {
	case err == nil && len(memo.QuizIDs) > 0:
		return &memo, nil
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		s.log.Warn().Err(err).Str("week_id", weekID).Msg("Ignoring unreadable week selection")
	}

	weeks, err := s.backend.WeeklyQuizzes(ctx, s.maxWeeks)
	if err != nil {
		s.log.Error().Err(err).Msg("Error fetching weekly quizzes")
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}

	var week *model.WeeklyQuiz
	for i := range weeks {
		if weeks[i].WeekID == weekID {
			week = &weeks[i]
			break
		}
	}
	if week == nil || len(week.QuizIDs) == 0 {
		return nil, ErrWeekNotFound
	}

	s.rngMu.Lock()
	picked := shuffle.Sample(week.QuizIDs, s.sampleSize, s.rng)
	s.rngMu.Unlock()

	sel := &model.WeekSelection{WeekID: weekID, QuizIDs: picked}
	if err := storage.PutJSON(ctx, store, key, sel, s.memoTTL); err != nil {
		return nil, fmt.Errorf("memoize week selection: %w", err)
	}
	return sel, nil
}

// Generate asks the backend to build a quiz from a source article.
func (s *CatalogService) Generate(ctx context.Context, sourceURL string) (*model.Quiz, error) {
	quiz, err := s.backend.GenerateQuiz(ctx, sourceURL)
	if err != nil {
		s.log.Error().Err(err).Str("url", sourceURL).Msg("Error generating quiz")
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	return quiz, nil
}
