package quiz

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/storage"
)

// stubPicker returns a fixed card set and records the filter it was asked
// for.
type stubPicker struct {
	cards      []domain.Card
	lastFilter storage.QuizFilter
}

func (s *stubPicker) PickQuizCards(filter storage.QuizFilter) ([]domain.Card, error) {
	s.lastFilter = filter
	if len(s.cards) > filter.Limit {
		return s.cards[:filter.Limit], nil
	}
	return s.cards, nil
}

func threeCards() []domain.Card {
	return []domain.Card{
		{ID: 1, Question: "q1 _____", Answer: "ans1"},
		{ID: 2, Question: "q2 _____", Answer: "ans2"},
		{ID: 3, Question: "q3 _____", Answer: "ans3"},
	}
}

func startedSession(t *testing.T, cards []domain.Card) *Session {
	t.Helper()
	s := NewSession(&stubPicker{cards: cards}, rand.New(rand.NewSource(1)))
	require.NoError(t, s.Start(domain.QuizConfig{Bucket: domain.BucketAll, NumQuestions: 10}))
	return s
}

func TestSelectClampsRequestedCount(t *testing.T) {
	picker := &stubPicker{}

	_, err := Select(picker, domain.QuizConfig{Bucket: domain.BucketHard, DueOnly: true, NumQuestions: 100})
	require.NoError(t, err)
	require.Equal(t, domain.MaxQuizQuestions, picker.lastFilter.Limit)
	require.Equal(t, domain.BucketHard, picker.lastFilter.Bucket)
	require.True(t, picker.lastFilter.DueOnly)

	_, err = Select(picker, domain.QuizConfig{NumQuestions: 1})
	require.NoError(t, err)
	require.Equal(t, domain.MinQuizQuestions, picker.lastFilter.Limit)
}

func TestStartWithNoMatchingCards(t *testing.T) {
	s := NewSession(&stubPicker{}, rand.New(rand.NewSource(1)))
	err := s.Start(domain.QuizConfig{Bucket: domain.BucketMedium, NumQuestions: 10})
	require.ErrorIs(t, err, domain.ErrNoMatchingCards)
	require.Equal(t, NotStarted, s.State())
}

func TestSessionLifecycle(t *testing.T) {
	s := startedSession(t, threeCards())
	require.Equal(t, InProgress, s.State())
	require.Equal(t, 3, s.Len())
	require.Equal(t, 0, s.Index())

	// Answer out of order: question 2 first, then 0, then change 0.
	require.NoError(t, s.RecordAnswer(2, "ans3"))
	require.NoError(t, s.RecordAnswer(0, "wrong"))
	require.NoError(t, s.RecordAnswer(0, "ans1"))
	// Question 1 is never answered.

	s.Advance()
	require.Equal(t, 1, s.Index())
	s.Advance()
	require.Equal(t, 2, s.Index())
	require.Equal(t, InProgress, s.State())

	// Advance at the last index finishes the quiz and computes the score
	// once from the full choice map.
	s.Advance()
	require.Equal(t, Completed, s.State())
	require.Equal(t, 2, s.Score())
	require.InDelta(t, 66.7, s.Accuracy(), 0.1)
	require.Equal(t, "Good job!", s.Feedback())

	results := s.Results()
	require.Len(t, results, 3)
	require.True(t, results[0].Correct)
	require.False(t, results[1].Answered)
	require.False(t, results[1].Correct)
	require.True(t, results[2].Correct)
}

func TestRetreatBlockedAtFirstQuestion(t *testing.T) {
	s := startedSession(t, threeCards())

	s.Retreat()
	require.Equal(t, 0, s.Index())

	s.Advance()
	s.Retreat()
	require.Equal(t, 0, s.Index())
}

func TestOptionsAreCachedPerQuestion(t *testing.T) {
	s := startedSession(t, threeCards())

	first := s.Options(0)
	requireValidOptions(t, first, "ans1")

	// Navigating away and back must not reshuffle or redraw.
	s.Advance()
	s.Options(1)
	s.Retreat()
	require.Equal(t, first, s.Options(0))
}

func TestRecordAnswerValidation(t *testing.T) {
	s := startedSession(t, threeCards())
	require.Error(t, s.RecordAnswer(-1, "x"))
	require.Error(t, s.RecordAnswer(3, "x"))

	idle := NewSession(&stubPicker{}, rand.New(rand.NewSource(1)))
	require.Error(t, idle.RecordAnswer(0, "x"))
}

func TestUnansweredQuestionsCountAsIncorrect(t *testing.T) {
	s := startedSession(t, threeCards())
	for s.State() == InProgress {
		s.Advance()
	}
	require.Equal(t, Completed, s.State())
	require.Equal(t, 0, s.Score())
	require.Equal(t, "Keep practicing!", s.Feedback())
}

func TestPerfectScoreFeedback(t *testing.T) {
	s := startedSession(t, threeCards())
	for i, card := range threeCards() {
		require.NoError(t, s.RecordAnswer(i, card.Answer))
	}
	for s.State() == InProgress {
		s.Advance()
	}
	require.Equal(t, 3, s.Score())
	require.InDelta(t, 100, s.Accuracy(), 0.001)
	require.Equal(t, "Excellent!", s.Feedback())
}

func TestRestartClearsEverything(t *testing.T) {
	s := startedSession(t, threeCards())
	require.NoError(t, s.RecordAnswer(0, "ans1"))
	s.Options(0)
	for s.State() == InProgress {
		s.Advance()
	}

	s.Restart()
	require.Equal(t, NotStarted, s.State())
	require.Equal(t, 0, s.Len())
	require.Equal(t, 0, s.Score())

	// A restarted session can start again.
	require.NoError(t, s.Start(domain.QuizConfig{Bucket: domain.BucketAll, NumQuestions: 10}))
	require.Equal(t, InProgress, s.State())
	_, answered := s.Choice(0)
	require.False(t, answered)
}
