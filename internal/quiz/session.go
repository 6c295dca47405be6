package quiz

import (
	"fmt"
	"math/rand"

	"github.com/conorfennell/studydeck/internal/domain"
)

// State is the lifecycle phase of a quiz session.
type State int

const (
	NotStarted State = iota
	InProgress
	Completed
)

// Feedback thresholds on the final accuracy percentage.
const (
	excellentThreshold = 80
	goodThreshold      = 60
)

// Session runs one quiz over a fixed card subset. It is an explicit value
// owned by the caller; a single interactive session is expected at a time
// and the methods are not safe for concurrent use.
type Session struct {
	picker CardPicker
	rng    *rand.Rand

	state   State
	cards   []domain.Card
	index   int
	choices map[int]string
	options map[int][]string
	score   int
}

// NewSession creates an idle session. The rand source drives distractor
// sampling and option shuffling and is injectable for deterministic tests.
func NewSession(picker CardPicker, rng *rand.Rand) *Session {
	return &Session{picker: picker, rng: rng, choices: map[int]string{}, options: map[int][]string{}}
}

// Start selects the card subset for the config and begins the quiz at the
// first question. If nothing matches the session stays NotStarted and
// domain.ErrNoMatchingCards is returned.
func (s *Session) Start(config domain.QuizConfig) error {
	if s.state != NotStarted {
		return fmt.Errorf("quiz already started")
	}
	cards, err := Select(s.picker, config)
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		return domain.ErrNoMatchingCards
	}

	s.cards = cards
	s.index = 0
	s.score = 0
	s.choices = map[int]string{}
	s.options = map[int][]string{}
	s.state = InProgress
	return nil
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	return s.state
}

// Len returns the number of questions in the session.
func (s *Session) Len() int {
	return len(s.cards)
}

// Index returns the current question position.
func (s *Session) Index() int {
	return s.index
}

// Card returns the card behind question i.
func (s *Session) Card(i int) domain.Card {
	return s.cards[i]
}

// Options returns the multiple-choice option set for question i. The set
// is built on first request and cached, so revisiting a question never
// reshuffles or redraws it.
func (s *Session) Options(i int) []string {
	if opts, ok := s.options[i]; ok {
		return opts
	}
	opts := BuildOptions(s.rng, s.cards[i], s.cards)
	s.options[i] = opts
	return opts
}

// Choice returns the recorded answer for question i, if any.
func (s *Session) Choice(i int) (string, bool) {
	choice, ok := s.choices[i]
	return choice, ok
}

// RecordAnswer stores the user's choice for question i, overwriting any
// earlier choice. Any question may be answered, not just the current one.
func (s *Session) RecordAnswer(i int, choice string) error {
	if s.state != InProgress {
		return fmt.Errorf("quiz is not in progress")
	}
	if i < 0 || i >= len(s.cards) {
		return fmt.Errorf("question index %d out of range", i)
	}
	s.choices[i] = choice
	return nil
}

// Advance moves to the next question. On the final question it instead
// finishes the quiz: the score is computed once, here, from the full choice
// map, so answer changes and out-of-order revisits before this point are
// all reflected. Questions never answered count as incorrect.
func (s *Session) Advance() {
	if s.state != InProgress {
		return
	}
	if s.index < len(s.cards)-1 {
		s.index++
		return
	}
	s.score = 0
	for i, card := range s.cards {
		if s.choices[i] == card.Answer {
			s.score++
		}
	}
	s.state = Completed
}

// Retreat moves back one question. It does nothing at the first question.
func (s *Session) Retreat() {
	if s.state != InProgress || s.index == 0 {
		return
	}
	s.index--
}

// Restart clears all session state from any phase, back to NotStarted.
func (s *Session) Restart() {
	s.state = NotStarted
	s.cards = nil
	s.index = 0
	s.score = 0
	s.choices = map[int]string{}
	s.options = map[int][]string{}
}

// Score returns the number of correct answers. It is meaningful only once
// the session is Completed.
func (s *Session) Score() int {
	return s.score
}

// Accuracy returns the final score as a percentage of the question count.
func (s *Session) Accuracy() float64 {
	if len(s.cards) == 0 {
		return 0
	}
	return float64(s.score) / float64(len(s.cards)) * 100
}

// Feedback maps the final accuracy to a qualitative message.
func (s *Session) Feedback() string {
	switch accuracy := s.Accuracy(); {
	case accuracy >= excellentThreshold:
		return "Excellent!"
	case accuracy >= goodThreshold:
		return "Good job!"
	default:
		return "Keep practicing!"
	}
}

// Result is the per-question outcome shown in the completion review.
type Result struct {
	Card     domain.Card
	Choice   string // empty when the question was never answered
	Answered bool
	Correct  bool
}

// Results returns the per-question outcomes in question order. It is
// meaningful only once the session is Completed.
func (s *Session) Results() []Result {
	results := make([]Result, len(s.cards))
	for i, card := range s.cards {
		choice, answered := s.choices[i]
		results[i] = Result{
			Card:     card,
			Choice:   choice,
			Answered: answered,
			Correct:  answered && choice == card.Answer,
		}
	}
	return results
}
