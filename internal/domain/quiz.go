package domain

// DifficultyBucket selects a slice of the 1..5 difficulty scale for a quiz.
type DifficultyBucket string

const (
	BucketAll    DifficultyBucket = "all"
	BucketEasy   DifficultyBucket = "easy"   // difficulty 1-2
	BucketMedium DifficultyBucket = "medium" // difficulty 3
	BucketHard   DifficultyBucket = "hard"   // difficulty 4-5
)

// Range returns the inclusive difficulty range covered by the bucket.
// ok is false for BucketAll, which applies no difficulty filter.
func (b DifficultyBucket) Range() (lo, hi int, ok bool) {
	switch b {
	case BucketEasy:
		return 1, 2, true
	case BucketMedium:
		return 3, 3, true
	case BucketHard:
		return 4, 5, true
	default:
		return 0, 0, false
	}
}

const (
	// MinQuizQuestions and MaxQuizQuestions bound a quiz request.
	MinQuizQuestions = 5
	MaxQuizQuestions = 50
)

// QuizConfig holds the selection criteria for one quiz run.
type QuizConfig struct {
	Bucket       DifficultyBucket
	DueOnly      bool
	NumQuestions int
}

// Clamped returns a copy with NumQuestions forced into the allowed range.
func (c QuizConfig) Clamped() QuizConfig {
	if c.NumQuestions < MinQuizQuestions {
		c.NumQuestions = MinQuizQuestions
	}
	if c.NumQuestions > MaxQuizQuestions {
		c.NumQuestions = MaxQuizQuestions
	}
	return c
}
