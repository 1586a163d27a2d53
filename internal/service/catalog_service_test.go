package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/quizentia/quizentia-web/internal/config"
	"github.com/quizentia/quizentia-web/internal/model"
	"github.com/quizentia/quizentia-web/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalogBackend struct {
	weeks       []model.WeeklyQuiz
	err         error
	weeklyCalls int
	maxWeeks    int
}

func (f *fakeCatalogBackend) WeeklyQuizzes(_ context.Context, maxWeeks int) ([]model.WeeklyQuiz, error) {
	f.weeklyCalls++
	f.maxWeeks = maxWeeks
	return f.weeks, f.err
}

func (f *fakeCatalogBackend) GenerateQuiz(_ context.Context, sourceURL string) (*model.Quiz, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Quiz{Title: "Generated from " + sourceURL}, nil
}

func newCatalogFixture() (*CatalogService, *fakeCatalogBackend) {
	ids := make([]int, 14)
	for i := range ids {
		ids[i] = i + 1
	}
	backend := &fakeCatalogBackend{weeks: []model.WeeklyQuiz{
		{WeekID: "2026-W10", WeekLabel: "Week 10", QuizIDs: ids},
		{WeekID: "2026-W09", WeekLabel: "Week 9", QuizIDs: []int{40, 41}},
		{WeekID: "2026-W08", WeekLabel: "Week 8"},
	}}

	cfg := &config.Config{WeeklyMaxWeeks: 52, WeekSampleSize: 10, QuizCacheTTL: time.Hour}
	svc := NewCatalogService(backend, cfg, zerolog.Nop())
	svc.rng = rand.New(rand.NewSource(9))
	return svc, backend
}

func TestListWeeksFlagsCurrent(t *testing.T) {
	svc, backend := newCatalogFixture()

	weeks, err := svc.ListWeeks(context.Background())
	require.NoError(t, err)
	require.Len(t, weeks, 3)
	assert.True(t, weeks[0].IsCurrent)
	assert.False(t, weeks[1].IsCurrent)
	assert.Equal(t, 52, backend.maxWeeks)
}

func TestListWeeksBackendDown(t *testing.T) {
	svc, backend := newCatalogFixture()
	backend.err = errors.New("dial tcp: refused")

	_, err := svc.ListWeeks(context.Background())
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestSelectWeekSamplesAndMemoizes(t *testing.T) {
	svc, backend := newCatalogFixture()
	ctx := context.Background()
	store := storage.NewMemoryStore(nil)

	first, err := svc.SelectWeek(ctx, store, "2026-W10")
	require.NoError(t, err)
	assert.Len(t, first.QuizIDs, 10)
	assert.Subset(t, backend.weeks[0].QuizIDs, first.QuizIDs)

	second, err := svc.SelectWeek(ctx, store, "2026-W10")
	require.NoError(t, err)
	assert.Equal(t, first.QuizIDs, second.QuizIDs)
	assert.Equal(t, 1, backend.weeklyCalls)

	small, err := svc.SelectWeek(ctx, store, "2026-W09")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{40, 41}, small.QuizIDs)
}

func TestSelectWeekUnknownOrEmpty(t *testing.T) {
	svc, _ := newCatalogFixture()
	store := storage.NewMemoryStore(nil)

	_, err := svc.SelectWeek(context.Background(), store, "1999-W01")
	assert.ErrorIs(t, err, ErrWeekNotFound)

	_, err = svc.SelectWeek(context.Background(), store, "2026-W08")
	assert.ErrorIs(t, err, ErrWeekNotFound)
}

func TestGenerate(t *testing.T) {
	svc, backend := newCatalogFixture()

	quiz, err := svc.Generate(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "Generated from https://example.com/a", quiz.Title)

	backend.err = errors.New("boom")
	_, err = svc.Generate(context.Background(), "https://example.com/a")
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}
