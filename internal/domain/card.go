package domain

// Card is a single fill-in-the-blank study card.
type Card struct {
	ID         int64
	Question   string
	Answer     string
	Difficulty int
	// NextReview is an ISO calendar date (YYYY-MM-DD). Empty means unset,
	// which counts as due.
	NextReview   string
	IsRead       bool
	DisplayOrder int
}

const (
	// MinDifficulty and MaxDifficulty bound the manual difficulty scale.
	MinDifficulty = 1
	MaxDifficulty = 5
)

// Due reports whether the card is due for review as of the given ISO date.
// A card with no review date is always due.
func (c Card) Due(asOf string) bool {
	return c.NextReview == "" || c.NextReview <= asOf
}
