package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/quizentia/quizentia-web/internal/config"
	"github.com/quizentia/quizentia-web/internal/model"
	"github.com/quizentia/quizentia-web/internal/shuffle"
	"github.com/quizentia/quizentia-web/internal/storage"
	"github.com/rs/zerolog"
)

// Quiz session errors.
var (
	ErrBackendUnavailable = errors.New("failed to load quiz, please try again later")
	ErrNoQuizSelected     = errors.New("no quiz selected")
	ErrInvalidState       = errors.New("action not allowed in the current quiz state")
	ErrInvalidOption      = errors.New("option is not one of the question's options")
	ErrSessionClosed      = errors.New("session closed before the quiz finished loading")
)

// DefaultIdentity names the quiz set fetched without a filter.
const DefaultIdentity = "default"

// QuizFetcher loads quiz payloads from the backend.
type QuizFetcher interface {
	GetQuiz(ctx context.Context, quizIDs []int) (*model.Quiz, error)
}

// Selection is the caller's explicit choice of quiz set. The zero value means
// "resume the last-used quiz set".
type Selection struct {
	QuizIDs []int
	Default bool
}

func (s Selection) explicit() bool {
	return s.Default || len(s.QuizIDs) > 0
}

// Identity derives the deterministic quiz-set identity of ids: sorted, deduplicated
// and joined with "-". An empty set is the default identity.
func Identity(ids []int) string {
	if len(ids) == 0 {
		return DefaultIdentity
	}

	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)

	parts := make([]string, 0, len(sorted))
	for i, id := range sorted {
		if i > 0 && id == sorted[i-1] {
			continue
		}
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, "-")
}

// ParseIdentity is the inverse of Identity. The default identity yields nil.
func ParseIdentity(identity string) ([]int, error) {
	if identity == DefaultIdentity {
		return nil, nil
	}

	parts := strings.Split(identity, "-")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(p)
		if err != nil || id < 1 {
			return nil, fmt.Errorf("invalid quiz-set identity %q", identity)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// SessionService opens quiz sessions: it resolves the quiz set, serves the quiz
// from cache or backend, and restores persisted progress.
type SessionService struct {
	backend  QuizFetcher
	registry *SessionRegistry
	cacheTTL time.Duration
	log      zerolog.Logger

	now   func() time.Time
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewSessionService creates a new SessionService.
func NewSessionService(backend QuizFetcher, registry *SessionRegistry, cacheTTL time.Duration, log zerolog.Logger) *SessionService {
	return &SessionService{
		backend:  backend,
		registry: registry,
		cacheTTL: cacheTTL,
		log:      log.With().Str("component", "session_service").Logger(),
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start opens a session for sel and makes it the client's live session.
// A failed start also retires the previous live session.
func (s *SessionService) Start(ctx context.Context, clientID string, store storage.Store, sel Selection) (*Session, error) {
	sess, err := s.Open(ctx, store, sel)
	if err != nil {
		s.registry.Drop(clientID)
		return sess, err
	}
	s.registry.Put(clientID, sess)
	return sess, nil
}

// Current returns the client's live session, reopening the last-used quiz set
// from storage when none is registered.
func (s *SessionService) Current(ctx context.Context, clientID string, store storage.Store) (*Session, error) {
	if sess, ok := s.registry.Get(clientID); ok {
		return sess, nil
	}
	return s.Start(ctx, clientID, store, Selection{})
}

// Open loads a session for sel against the client's store. On failure the
// returned session is in PhaseError and carries the same error.
func (s *SessionService) Open(ctx context.Context, store storage.Store, sel Selection) (*Session, error) {
	sess := &Session{store: store, phase: PhaseLoading, log: s.log}

	identity, err := s.resolveIdentity(ctx, store, sel)
	if err != nil {
		sess.fail(err)
		return sess, err
	}
	sess.identity = identity

	quiz, err := s.loadQuiz(ctx, store, identity)
	if err != nil {
		sess.fail(err)
		return sess, err
	}
	sess.quiz = quiz

	sess.progress = s.restoreProgress(ctx, store, identity, quiz)
	sess.phase = PhaseAnswering
	if sess.progress.Answered {
		sess.phase = PhaseAnswered
	}

	s.log.Debug().
		Str("identity", identity).
		Int("questions", len(quiz.Questions)).
		Int("current_question", sess.progress.CurrentQuestion).
		Msg("Quiz session opened")

	return sess, nil
}

// resolveIdentity picks the explicit selection, else the last-used identity.
func (s *SessionService) resolveIdentity(ctx context.Context, store storage.Store, sel Selection) (string, error) {
	if sel.explicit() {
		identity := DefaultIdentity
		if !sel.Default {
			identity = Identity(sel.QuizIDs)
		}
		if err := store.Put(ctx, config.CacheKey.LastIdentityKey(), []byte(identity), 0); err != nil {
			return "", fmt.Errorf("remember quiz selection: %w", err)
		}
		return identity, nil
	}

	entry, err := store.Get(ctx, config.CacheKey.LastIdentityKey())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrNoQuizSelected
		}
		return "", fmt.Errorf("read last quiz selection: %w", err)
	}

	identity := string(entry.Payload)
	if _, err := ParseIdentity(identity); err != nil {
		s.log.Warn().Str("identity", identity).Msg("Discarding corrupt last-used quiz selection")
		_ = store.Remove(ctx, config.CacheKey.LastIdentityKey())
		return "", ErrNoQuizSelected
	}
	return identity, nil
}

// loadQuiz serves the quiz from cache, or fetches, shuffles and caches it.
// Cached quizzes are returned as stored so option order stays stable.
func (s *SessionService) loadQuiz(ctx context.Context, store storage.Store, identity string) (*model.Quiz, error) {
	key := config.CacheKey.QuizPayloadKey(identity)

	var cached model.Quiz
	err := storage.GetJSON(ctx, store, key, &cached)
	switch {
	case err == nil && len(cached.Questions) > 0:
		return &cached, nil
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		s.log.Warn().Err(err).Str("identity", identity).Msg("Ignoring unreadable cached quiz")
	}

	ids, _ := ParseIdentity(identity)

	// The fetch is not cancelled with the request; if the caller is gone by the
	// time it resolves, the quiz is still cached but not applied.
	quiz, err := s.backend.GetQuiz(context.WithoutCancel(ctx), ids)
	if err != nil {
		s.log.Error().Err(err).Str("identity", identity).Msg("Error fetching quiz")
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	if len(quiz.Questions) == 0 {
		s.log.Error().Str("identity", identity).Msg("Backend returned a quiz without questions")
		return nil, fmt.Errorf("%w: quiz has no questions", ErrBackendUnavailable)
	}

	s.shuffleOptions(quiz)

	if err := storage.PutJSON(context.WithoutCancel(ctx), store, key, quiz, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("identity", identity).Msg("Failed to cache quiz")
	}

	if ctx.Err() != nil {
		return nil, ErrSessionClosed
	}
	return quiz, nil
}

func (s *SessionService) shuffleOptions(quiz *model.Quiz) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	for i := range quiz.Questions {
		quiz.Questions[i].Options = shuffle.Shuffle(quiz.Questions[i].Options, s.rng)
	}
}

// restoreProgress returns the persisted snapshot when it fits quiz, else a fresh record.
func (s *SessionService) restoreProgress(ctx context.Context, store storage.Store, identity string, quiz *model.Quiz) model.Progress {
	key := config.CacheKey.QuizProgressKey(identity)

	var snap model.Progress
	err := storage.GetJSON(ctx, store, key, &snap)
	if err == nil && progressFits(snap, quiz) {
		return snap
	}

	if err == nil || !errors.Is(err, storage.ErrNotFound) {
		s.log.Warn().Err(err).Str("identity", identity).Msg("Discarding progress snapshot that does not match the quiz")
		if rmErr := store.Remove(ctx, key); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("identity", identity).Msg("Failed to remove stale progress")
		}
	}
	return model.NewProgress(len(quiz.Questions))
}

func progressFits(p model.Progress, quiz *model.Quiz) bool {
	n := len(quiz.Questions)
	if len(p.UserAnswers) != n || p.CurrentQuestion < 0 || p.CurrentQuestion >= n {
		return false
	}
	if p.Score < 0 || p.Score > n {
		return false
	}
	for i, ans := range p.UserAnswers {
		if ans != nil && !quiz.Questions[i].HasOption(*ans) {
			return false
		}
	}
	if p.Answered && p.UserAnswers[p.CurrentQuestion] == nil {
		return false
	}
	return true
}
