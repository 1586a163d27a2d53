package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/quizentia/quizentia-web/internal/config"
	"github.com/quizentia/quizentia-web/internal/model"
	"github.com/quizentia/quizentia-web/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu    sync.Mutex
	quiz  model.Quiz
	err   error
	calls [][]int
}

func (f *fakeFetcher) GetQuiz(_ context.Context, ids []int) (*model.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, ids)
	if f.err != nil {
		return nil, f.err
	}
	q := f.quiz
	q.Questions = make([]model.Question, len(f.quiz.Questions))
	for i, src := range f.quiz.Questions {
		src.Options = append([]string(nil), src.Options...)
		q.Questions[i] = src
	}
	return &q, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func threeQuestionQuiz() model.Quiz {
	return model.Quiz{
		Title: "Week 12",
		Questions: []model.Question{
			{Question: "Q1", Options: []string{"A", "B", "C", "D"}, CorrectAnswer: "A", Hint: "first"},
			{Question: "Q2", Options: []string{"A", "B", "C", "D"}, CorrectAnswer: "B"},
			{Question: "Q3", Options: []string{"A", "B", "C", "D"}, CorrectAnswer: "C"},
		},
	}
}

func newSessionFixture(t *testing.T) (*SessionService, *fakeFetcher, *storage.MemoryStore, *testClock) {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	store := storage.NewMemoryStore(clock.Now)
	fetcher := &fakeFetcher{quiz: threeQuestionQuiz()}

	svc := NewSessionService(fetcher, NewSessionRegistry(time.Hour), time.Hour, zerolog.Nop())
	svc.now = clock.Now
	svc.rng = rand.New(rand.NewSource(42))
	return svc, fetcher, store, clock
}

func TestIdentity(t *testing.T) {
	assert.Equal(t, "default", Identity(nil))
	assert.Equal(t, "5-9-14", Identity([]int{14, 5, 9}))
	assert.Equal(t, "5-9", Identity([]int{9, 5, 9}))

	ids, err := ParseIdentity("5-9-14")
	require.NoError(t, err)
	assert.Equal(t, []int{5, 9, 14}, ids)

	ids, err = ParseIdentity("default")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = ParseIdentity("5-x")
	assert.Error(t, err)
}

func TestOpenWithoutSelection(t *testing.T) {
	svc, fetcher, store, _ := newSessionFixture(t)

	sess, err := svc.Open(context.Background(), store, Selection{})
	assert.ErrorIs(t, err, ErrNoQuizSelected)
	assert.Equal(t, PhaseError, sess.Phase())
	assert.Zero(t, fetcher.callCount())
}

func TestOpenFetchesShufflesAndCaches(t *testing.T) {
	svc, fetcher, store, _ := newSessionFixture(t)
	ctx := context.Background()

	sess, err := svc.Open(ctx, store, Selection{QuizIDs: []int{14, 5, 9}})
	require.NoError(t, err)
	assert.Equal(t, "5-9-14", sess.Identity())
	assert.Equal(t, PhaseAnswering, sess.Phase())
	assert.Equal(t, [][]int{{5, 9, 14}}, fetcher.calls)

	var cached model.Quiz
	require.NoError(t, storage.GetJSON(ctx, store, config.CacheKey.QuizPayloadKey("5-9-14"), &cached))
	require.Len(t, cached.Questions, 3)
	for _, q := range cached.Questions {
		assert.ElementsMatch(t, []string{"A", "B", "C", "D"}, q.Options)
	}

	entry, err := store.Get(ctx, config.CacheKey.LastIdentityKey())
	require.NoError(t, err)
	assert.Equal(t, "5-9-14", string(entry.Payload))
}

func TestOpenCacheHitKeepsOptionOrder(t *testing.T) {
	svc, fetcher, store, _ := newSessionFixture(t)
	ctx := context.Background()

	first, err := svc.Open(ctx, store, Selection{QuizIDs: []int{5}})
	require.NoError(t, err)

	second, err := svc.Open(ctx, store, Selection{})
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.callCount(), "second open must be served from cache")
	assert.Equal(t, first.View().Question.Options, second.View().Question.Options)
}

func TestOpenRefetchesAfterExpiry(t *testing.T) {
	svc, fetcher, store, clock := newSessionFixture(t)
	ctx := context.Background()

	_, err := svc.Open(ctx, store, Selection{Default: true})
	require.NoError(t, err)
	assert.Nil(t, fetcher.calls[0])

	clock.now = clock.now.Add(time.Hour)

	_, err = svc.Open(ctx, store, Selection{})
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.callCount())
}

func TestOpenBackendFailure(t *testing.T) {
	svc, fetcher, store, _ := newSessionFixture(t)
	fetcher.err = errors.New("connection refused")

	sess, err := svc.Open(context.Background(), store, Selection{QuizIDs: []int{1}})
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Equal(t, PhaseError, sess.Phase())
	assert.Equal(t, ErrBackendUnavailable.Error()+": connection refused", sess.View().Error)

	_, err = store.Get(context.Background(), config.CacheKey.QuizPayloadKey("1"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOpenDiscardsResultWhenCallerGone(t *testing.T) {
	svc, fetcher, store, _ := newSessionFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Open(ctx, store, Selection{QuizIDs: []int{3}})
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.Equal(t, 1, fetcher.callCount())

	_, err = store.Get(context.Background(), config.CacheKey.QuizPayloadKey("3"))
	assert.NoError(t, err, "fetched quiz is still cached")
}

func TestSelectOptionScoresOncePerQuestion(t *testing.T) {
	svc, _, store, _ := newSessionFixture(t)
	ctx := context.Background()

	sess, err := svc.Open(ctx, store, Selection{QuizIDs: []int{5}})
	require.NoError(t, err)

	view, err := sess.SelectOption(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 1, view.Score)
	assert.Equal(t, PhaseAnswered, view.Phase)
	require.NotNil(t, view.Question.IsCorrect)
	assert.True(t, *view.Question.IsCorrect)

	view, err = sess.SelectOption(ctx, "A")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 1, view.Score)

	var snap model.Progress
	require.NoError(t, storage.GetJSON(ctx, store, config.CacheKey.QuizProgressKey("5"), &snap))
	assert.Equal(t, 1, snap.Score)
	assert.True(t, snap.Answered)
	require.NotNil(t, snap.UserAnswers[0])
	assert.Equal(t, "A", *snap.UserAnswers[0])
}

func TestSelectOptionRejectsUnknownOption(t *testing.T) {
	svc, _, store, _ := newSessionFixture(t)
	ctx := context.Background()

	sess, err := svc.Open(ctx, store, Selection{QuizIDs: []int{5}})
	require.NoError(t, err)

	_, err = sess.SelectOption(ctx, "Z")
	assert.ErrorIs(t, err, ErrInvalidOption)
	assert.Equal(t, PhaseAnswering, sess.Phase())
}

func TestCorrectAnswerHiddenUntilAnswered(t *testing.T) {
	svc, _, store, _ := newSessionFixture(t)
	ctx := context.Background()

	sess, err := svc.Open(ctx, store, Selection{QuizIDs: []int{5}})
	require.NoError(t, err)

	view := sess.View()
	assert.Nil(t, view.Question.CorrectAnswer)
	assert.Empty(t, view.Question.Hint)
	assert.True(t, view.Question.HasHint)

	view, err = sess.ToggleHint()
	require.NoError(t, err)
	assert.Equal(t, "first", view.Question.Hint)

	view, err = sess.SelectOption(ctx, "D")
	require.NoError(t, err)
	require.NotNil(t, view.Question.CorrectAnswer)
	assert.Equal(t, "A", *view.Question.CorrectAnswer)
	assert.False(t, *view.Question.IsCorrect)
}

func TestAdvanceResetsHintAndPersists(t *testing.T) {
	svc, _, store, _ := newSessionFixture(t)
	ctx := context.Background()

	sess, err := svc.Open(ctx, store, Selection{QuizIDs: []int{5}})
	require.NoError(t, err)

	_, err = sess.Advance(ctx)
	assert.ErrorIs(t, err, ErrInvalidState, "cannot advance before answering")

	_, err = sess.ToggleHint()
	require.NoError(t, err)
	_, err = sess.SelectOption(ctx, "A")
	require.NoError(t, err)

	view, err := sess.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, view.CurrentQuestion)
	assert.False(t, view.ShowHint)
	assert.False(t, view.Answered)
	assert.Nil(t, view.SelectedOption)
	assert.Equal(t, PhaseAnswering, view.Phase)

	var snap model.Progress
	require.NoError(t, storage.GetJSON(ctx, store, config.CacheKey.QuizProgressKey("5"), &snap))
	assert.Equal(t, 1, snap.CurrentQuestion)
	assert.Nil(t, snap.SelectedOption)
}

func TestProgressRestore(t *testing.T) {
	svc, _, store, _ := newSessionFixture(t)
	ctx := context.Background()

	_, err := svc.Open(ctx, store, Selection{QuizIDs: []int{5, 9, 14}})
	require.NoError(t, err)

	a, b := "A", "D"
	snap := model.Progress{CurrentQuestion: 2, Score: 1, UserAnswers: []*string{&a, &b, nil}}
	require.NoError(t, storage.PutJSON(ctx, store, config.CacheKey.QuizProgressKey("5-9-14"), snap, 0))

	sess, err := svc.Open(ctx, store, Selection{QuizIDs: []int{5, 9, 14}})
	require.NoError(t, err)

	view := sess.View()
	assert.Equal(t, 2, view.CurrentQuestion)
	assert.Equal(t, 1, view.Score)
	assert.Equal(t, PhaseAnswering, view.Phase)
	assert.Equal(t, "Q3", view.Question.Question)
}

func TestProgressRestoreDiscardsMismatchedSnapshot(t *testing.T) {
	svc, _, store, _ := newSessionFixture(t)
	ctx := context.Background()

	key := config.CacheKey.QuizProgressKey("5")
	snap := model.Progress{CurrentQuestion: 7, Score: 1, UserAnswers: make([]*string, 8)}
	require.NoError(t, storage.PutJSON(ctx, store, key, snap, 0))

	sess, err := svc.Open(ctx, store, Selection{QuizIDs: []int{5}})
	require.NoError(t, err)
	assert.Equal(t, 0, sess.View().CurrentQuestion)

	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCompletionClearsPersistence(t *testing.T) {
	svc, _, store, _ := newSessionFixture(t)
	ctx := context.Background()
	key := config.CacheKey.QuizProgressKey("5-9-14")

	sess, err := svc.Open(ctx, store, Selection{QuizIDs: []int{5, 9, 14}})
	require.NoError(t, err)

	// Correct, wrong, correct.
	for _, opt := range []string{"A", "A", "C"} {
		_, err = sess.SelectOption(ctx, opt)
		require.NoError(t, err)
		_, err = store.Get(ctx, key)
		require.NoError(t, err)
		_, err = sess.Advance(ctx)
		require.NoError(t, err)
	}

	view := sess.View()
	assert.Equal(t, PhaseComplete, view.Phase)
	require.NotNil(t, view.Result)
	assert.Equal(t, 2, view.Result.Score)
	assert.Equal(t, 3, view.Result.Total)
	assert.Equal(t, 67, view.Result.Percentage)
	assert.False(t, view.Result.Perfect)
	assert.Nil(t, view.Question)

	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	fresh, err := svc.Open(ctx, store, Selection{})
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.View().CurrentQuestion)
	assert.Equal(t, 0, fresh.View().Score)
}

func TestRestart(t *testing.T) {
	svc, _, store, _ := newSessionFixture(t)
	ctx := context.Background()

	sess, err := svc.Open(ctx, store, Selection{QuizIDs: []int{5}})
	require.NoError(t, err)
	_, err = sess.SelectOption(ctx, "A")
	require.NoError(t, err)

	view, err := sess.Restart(ctx)
	require.NoError(t, err)
	assert.Equal(t, PhaseAnswering, view.Phase)
	assert.Equal(t, 0, view.CurrentQuestion)
	assert.Equal(t, 0, view.Score)
	assert.Nil(t, view.Result)

	_, err = store.Get(ctx, config.CacheKey.QuizProgressKey("5"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestToggleHintOnlyWithQuestion(t *testing.T) {
	sess := &Session{phase: PhaseComplete}
	_, err := sess.ToggleHint()
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestNewResult(t *testing.T) {
	assert.Equal(t, model.Result{Score: 2, Total: 3, Percentage: 67}, NewResult(2, 3))
	assert.Equal(t, model.Result{Score: 1, Total: 8, Percentage: 13}, NewResult(1, 8))
	assert.Equal(t, model.Result{Score: 4, Total: 4, Percentage: 100, Perfect: true}, NewResult(4, 4))
	assert.Equal(t, model.Result{}, NewResult(0, 0))
}

func TestCurrentUsesRegistry(t *testing.T) {
	svc, fetcher, store, _ := newSessionFixture(t)
	ctx := context.Background()

	started, err := svc.Start(ctx, "client-1", store, Selection{QuizIDs: []int{5}})
	require.NoError(t, err)
	_, err = started.ToggleHint()
	require.NoError(t, err)

	current, err := svc.Current(ctx, "client-1", store)
	require.NoError(t, err)
	assert.Same(t, started, current)
	assert.True(t, current.View().ShowHint)

	svc.registry.Drop("client-1")
	reopened, err := svc.Current(ctx, "client-1", store)
	require.NoError(t, err)
	assert.NotSame(t, started, reopened)
	assert.False(t, reopened.View().ShowHint)
	assert.Equal(t, 1, fetcher.callCount())
}

func TestFailedStartRetiresLiveSession(t *testing.T) {
	svc, fetcher, store, _ := newSessionFixture(t)
	ctx := context.Background()

	_, err := svc.Start(ctx, "client-1", store, Selection{QuizIDs: []int{5}})
	require.NoError(t, err)
	require.Equal(t, 1, svc.registry.Len())

	fetcher.mu.Lock()
	fetcher.err = errors.New("connection refused")
	fetcher.mu.Unlock()

	failed, err := svc.Start(ctx, "client-1", store, Selection{QuizIDs: []int{9}})
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Equal(t, PhaseError, failed.Phase())
	assert.Zero(t, svc.registry.Len())

	// The failed selection is the last-used one, so resuming retries it.
	_, err = svc.Current(ctx, "client-1", store)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Equal(t, []int{9}, fetcher.calls[len(fetcher.calls)-1])
}
