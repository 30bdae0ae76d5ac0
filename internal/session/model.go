package session

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"khrafet/internal/storygen"

	"github.com/google/uuid"
)

var (
	ErrValidation           = errors.New("validation error")
	ErrSessionNotFound      = errors.New("session not found")
	ErrChoiceNotFound       = errors.New("choice does not belong to the current chapter")
	ErrSessionCompleted     = errors.New("session is already completed")
	ErrGenerationInProgress = errors.New("a chapter is already being generated for this session")
	ErrNothingToRetry       = errors.New("session has no failed generation to retry")
)

// Length - выбранная длина истории.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

var lengthBudgets = map[Length]int{
	LengthShort:  3,
	LengthMedium: 6,
	LengthLong:   10,
}

// Lengths - допустимые длины в порядке возрастания.
var Lengths = []Length{LengthShort, LengthMedium, LengthLong}

// Budget - число глав для длины. 0 для неизвестной длины.
func (l Length) Budget() int { return lengthBudgets[l] }

// ParseLength разбирает длину без учёта регистра.
func ParseLength(s string) (Length, error) {
	l := Length(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := lengthBudgets[l]; !ok {
		return "", fmt.Errorf("%w: unknown length %q (expected short, medium or long)", ErrValidation, s)
	}
	return l, nil
}

const maxLabelRunes = 64

func normalizeLabel(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", ErrValidation, field)
	}
	if utf8.RuneCountInString(v) > maxLabelRunes {
		return "", fmt.Errorf("%w: %s must be at most %d characters", ErrValidation, field, maxLabelRunes)
	}
	return v, nil
}

// Status - состояние сессии.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusFailed     Status = "failed" // последняя генерация упала, доступен Retry
	StatusCompleted  Status = "completed"
)

// Session - последовательность глав, курсор и бюджет.
// Cursor указывает на текущую главу; len(Chapters) никогда не превышает Budget.
type Session struct {
	ID            uuid.UUID          `json:"id"`
	Genre         string             `json:"genre"`
	Tone          string             `json:"tone"`
	Length        Length             `json:"length"`
	Budget        int                `json:"budget"`
	Chapters      []storygen.Chapter `json:"chapters"`
	Cursor        int                `json:"cursor"`
	Status        Status             `json:"status"`
	PendingChoice *storygen.Choice   `json:"pending_choice,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// CurrentChapter возвращает главу под курсором.
func (s *Session) CurrentChapter() (storygen.Chapter, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Chapters) {
		return storygen.Chapter{}, false
	}
	return s.Chapters[s.Cursor], true
}

// StorySoFar - тексты всех глав через пробел, в порядке генерации.
func (s *Session) StorySoFar() string {
	texts := make([]string, len(s.Chapters))
	for i, ch := range s.Chapters {
		texts[i] = ch.Text
	}
	return strings.Join(texts, " ")
}

// IsFinalChapter - true, если выбор в текущей главе завершает историю.
func (s *Session) IsFinalChapter() bool {
	return s.Cursor+1 >= s.Budget
}

// Clone возвращает глубокую копию.
func (s *Session) Clone() *Session {
	c := *s
	c.Chapters = make([]storygen.Chapter, len(s.Chapters))
	for i, ch := range s.Chapters {
		ch.Choices = append([]storygen.Choice(nil), ch.Choices...)
		c.Chapters[i] = ch
	}
	if s.PendingChoice != nil {
		p := *s.PendingChoice
		c.PendingChoice = &p
	}
	return &c
}
