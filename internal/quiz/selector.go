// Package quiz selects card subsets, builds multiple-choice option sets and
// runs a navigable, scorable quiz session.
package quiz

import (
	"fmt"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/storage"
)

// CardPicker supplies random card subsets for a quiz. *storage.DB
// implements it.
type CardPicker interface {
	PickQuizCards(filter storage.QuizFilter) ([]domain.Card, error)
}

// Select draws the card subset for the given config. The result is capped
// by how many cards match; an empty result is returned as-is, not as an
// error, and the caller decides whether a session can start.
func Select(picker CardPicker, config domain.QuizConfig) ([]domain.Card, error) {
	config = config.Clamped()
	cards, err := picker.PickQuizCards(storage.QuizFilter{
		Bucket:  config.Bucket,
		DueOnly: config.DueOnly,
		Limit:   config.NumQuestions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to select quiz cards: %w", err)
	}
	return cards, nil
}
