package session_test

import (
	"testing"

	"khrafet/internal/session"
	"khrafet/internal/storygen"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLength(t *testing.T) {
	for input, want := range map[string]session.Length{
		"short":    session.LengthShort,
		" Medium ": session.LengthMedium,
		"LONG":     session.LengthLong,
	} {
		got, err := session.ParseLength(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got)
	}

	_, err := session.ParseLength("novella")
	assert.ErrorIs(t, err, session.ErrValidation)
}

func TestLength_Budget(t *testing.T) {
	assert.Equal(t, 3, session.LengthShort.Budget())
	assert.Equal(t, 6, session.LengthMedium.Budget())
	assert.Equal(t, 10, session.LengthLong.Budget())
	assert.Zero(t, session.Length("epic").Budget())
}

func TestSession_CloneIsDeep(t *testing.T) {
	orig := &session.Session{
		Chapters: []storygen.Chapter{{
			ID: "1", Text: "One.", Choices: []storygen.Choice{{ID: "1a", Text: "Go"}},
		}},
		PendingChoice: &storygen.Choice{ID: "1a", Text: "Go"},
	}

	cp := orig.Clone()
	cp.Chapters[0].Choices[0].Text = "Stay"
	cp.Chapters = append(cp.Chapters, storygen.Chapter{ID: "2"})
	cp.PendingChoice.Text = "Stay"

	assert.Equal(t, "Go", orig.Chapters[0].Choices[0].Text)
	assert.Len(t, orig.Chapters, 1)
	assert.Equal(t, "Go", orig.PendingChoice.Text)
}

func TestSession_StorySoFarAndCursor(t *testing.T) {
	s := &session.Session{
		Budget: 3,
		Chapters: []storygen.Chapter{
			{ID: "1", Text: "First."},
			{ID: "2", Text: "Second."},
		},
		Cursor: 1,
	}
	assert.Equal(t, "First. Second.", s.StorySoFar())

	current, ok := s.CurrentChapter()
	require.True(t, ok)
	assert.Equal(t, "2", current.ID)
	assert.False(t, s.IsFinalChapter())

	s.Cursor = 2
	_, ok = s.CurrentChapter()
	assert.False(t, ok)
	assert.True(t, s.IsFinalChapter())
}

func TestDefaultCatalog(t *testing.T) {
	c := session.DefaultCatalog()
	assert.Len(t, c.Genres, 6)
	assert.Len(t, c.Tones, 6)
	require.Len(t, c.Lengths, 3)
	for _, l := range c.Lengths {
		assert.Equal(t, l.ID.Budget(), l.Chapters)
	}
}
