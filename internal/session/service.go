package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"khrafet/internal/storygen"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// ShareTitle - заголовок для кнопки «поделиться» после завершения истории.
const ShareTitle = "I just completed an interactive story on Khrafet!"

var (
	sessionsStartedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "khrafet_sessions_started_total",
		Help: "Sessions started, by length.",
	}, []string{"length"})
	sessionsCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "khrafet_sessions_completed_total",
		Help: "Sessions that reached their chapter budget, by length.",
	}, []string{"length"})
	chapterGenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "khrafet_chapter_generations_total",
		Help: "Chapter generation attempts by outcome (success or error kind).",
	}, []string{"outcome"})
)

// ChapterGenerator - операция генерации главы (реализуется storygen.Generator).
type ChapterGenerator interface {
	GenerateChapter(ctx context.Context, req storygen.GenerationRequest, priorCount int) (storygen.Chapter, error)
}

// StartParams - параметры новой истории.
type StartParams struct {
	Genre  string
	Tone   string
	Length string
}

// Transcript - полный текст истории для экрана завершения.
type Transcript struct {
	SessionID  uuid.UUID `json:"session_id"`
	Genre      string    `json:"genre"`
	Tone       string    `json:"tone"`
	Completed  bool      `json:"completed"`
	Chapters   int       `json:"chapters"`
	Text       string    `json:"text"`
	ShareTitle string    `json:"share_title"`
}

// Service управляет сессиями: старт, выбор, повтор после ошибки.
// Генерации в рамках одной сессии сериализуются.
type Service struct {
	generator ChapterGenerator
	store     Store
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

// NewService создаёт сервис сессий.
func NewService(generator ChapterGenerator, store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		generator: generator,
		store:     store,
		logger:    logger.Named("session"),
		now:       time.Now,
		inFlight:  make(map[uuid.UUID]struct{}),
	}
}

// Start проверяет параметры и генерирует первую главу. При ошибке генерации сессия не сохраняется.
func (s *Service) Start(ctx context.Context, params StartParams) (*Session, error) {
	genre, err := normalizeLabel("genre", params.Genre)
	if err != nil {
		return nil, err
	}
	tone, err := normalizeLabel("tone", params.Tone)
	if err != nil {
		return nil, err
	}
	length, err := ParseLength(params.Length)
	if err != nil {
		return nil, err
	}

	log := s.logger.With(zap.String("genre", genre), zap.String("tone", tone), zap.String("length", string(length)))

	chapter, err := s.generate(ctx, storygen.GenerationRequest{Genre: genre, Tone: tone}, 0)
	if err != nil {
		log.Warn("First chapter generation failed", zap.Error(err))
		return nil, fmt.Errorf("failed to generate first chapter: %w", err)
	}

	now := s.now()
	sess := &Session{
		ID:        uuid.New(),
		Genre:     genre,
		Tone:      tone,
		Length:    length,
		Budget:    length.Budget(),
		Chapters:  []storygen.Chapter{chapter},
		Cursor:    0,
		Status:    StatusInProgress,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(chapter.Choices) == 0 {
		sess.Status = StatusCompleted
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	sessionsStartedTotal.WithLabelValues(string(length)).Inc()
	log.Info("Session started", zap.Stringer("session_id", sess.ID))
	return sess, nil
}

// Choose применяет выбор читателя. На последней главе бюджета сессия завершается без генерации,
// иначе генерируется следующая глава. При ошибке генерации выбор запоминается для Retry.
func (s *Service) Choose(ctx context.Context, id uuid.UUID, choiceID string) (*Session, error) {
	release, err := s.acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status == StatusCompleted {
		return nil, ErrSessionCompleted
	}

	current, ok := sess.CurrentChapter()
	if !ok {
		return nil, fmt.Errorf("session %s has no current chapter", id)
	}
	choice, ok := current.FindChoice(strings.TrimSpace(choiceID))
	if !ok {
		return nil, fmt.Errorf("%w: %q in chapter %s", ErrChoiceNotFound, choiceID, current.ID)
	}

	if sess.IsFinalChapter() {
		sess.Status = StatusCompleted
		sess.PendingChoice = nil
		sess.UpdatedAt = s.now()
		if err := s.store.Save(ctx, sess); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
		sessionsCompletedTotal.WithLabelValues(string(sess.Length)).Inc()
		s.logger.Info("Session completed", zap.Stringer("session_id", id), zap.Int("chapters", len(sess.Chapters)))
		return sess, nil
	}

	return s.advance(ctx, sess, choice)
}

// Retry повторяет упавшую генерацию с теми же аргументами.
func (s *Service) Retry(ctx context.Context, id uuid.UUID) (*Session, error) {
	release, err := s.acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != StatusFailed || sess.PendingChoice == nil {
		return nil, ErrNothingToRetry
	}
	return s.advance(ctx, sess, *sess.PendingChoice)
}

// Get возвращает копию сессии.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.store.Get(ctx, id)
}

// Transcript собирает полный текст истории: главы через пустую строку.
func (s *Service) Transcript(ctx context.Context, id uuid.UUID) (*Transcript, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(sess.Chapters))
	for i, ch := range sess.Chapters {
		texts[i] = ch.Text
	}
	return &Transcript{
		SessionID:  sess.ID,
		Genre:      sess.Genre,
		Tone:       sess.Tone,
		Completed:  sess.Status == StatusCompleted,
		Chapters:   len(sess.Chapters),
		Text:       strings.Join(texts, "\n\n"),
		ShareTitle: ShareTitle,
	}, nil
}

func (s *Service) advance(ctx context.Context, sess *Session, choice storygen.Choice) (*Session, error) {
	req := storygen.GenerationRequest{
		Genre:      sess.Genre,
		Tone:       sess.Tone,
		StorySoFar: sess.StorySoFar(),
		LastChoice: choice.Text,
	}
	log := s.logger.With(zap.Stringer("session_id", sess.ID), zap.String("choice_id", choice.ID))

	chapter, err := s.generate(ctx, req, len(sess.Chapters))
	sess.UpdatedAt = s.now()
	if err != nil {
		sess.Status = StatusFailed
		sess.PendingChoice = &choice
		if saveErr := s.store.Save(ctx, sess); saveErr != nil {
			log.Error("Failed to save session after generation error", zap.Error(saveErr))
		}
		log.Warn("Chapter generation failed", zap.Error(err))
		return nil, fmt.Errorf("failed to generate chapter %d: %w", len(sess.Chapters)+1, err)
	}

	sess.Chapters = append(sess.Chapters, chapter)
	sess.Cursor = len(sess.Chapters) - 1
	sess.Status = StatusInProgress
	sess.PendingChoice = nil
	// Глава без выборов - тупик, история заканчивается раньше бюджета.
	if len(chapter.Choices) == 0 {
		sess.Status = StatusCompleted
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	if sess.Status == StatusCompleted {
		sessionsCompletedTotal.WithLabelValues(string(sess.Length)).Inc()
	}
	log.Info("Chapter appended", zap.String("chapter_id", chapter.ID), zap.String("status", string(sess.Status)))
	return sess, nil
}

func (s *Service) generate(ctx context.Context, req storygen.GenerationRequest, priorCount int) (storygen.Chapter, error) {
	chapter, err := s.generator.GenerateChapter(ctx, req, priorCount)
	if err != nil {
		chapterGenerationsTotal.WithLabelValues(storygen.KindOf(err).String()).Inc()
		return storygen.Chapter{}, err
	}
	chapterGenerationsTotal.WithLabelValues("success").Inc()
	return chapter, nil
}

// acquire помечает сессию как занятую генерацией.
func (s *Service) acquire(id uuid.UUID) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[id]; busy {
		return nil, ErrGenerationInProgress
	}
	s.inFlight[id] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inFlight, id)
		s.mu.Unlock()
	}, nil
}
