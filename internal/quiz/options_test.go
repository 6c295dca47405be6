package quiz

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conorfennell/studydeck/internal/domain"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func answerPool(answers ...string) []domain.Card {
	cards := make([]domain.Card, len(answers))
	for i, answer := range answers {
		cards[i] = domain.Card{ID: int64(i + 1), Answer: answer}
	}
	return cards
}

func requireValidOptions(t *testing.T, options []string, answer string) {
	t.Helper()
	require.Len(t, options, OptionCount)
	seen := map[string]bool{}
	answerCount := 0
	for _, option := range options {
		require.False(t, seen[option], "duplicate option %q", option)
		seen[option] = true
		if option == answer {
			answerCount++
		}
	}
	require.Equal(t, 1, answerCount, "correct answer must appear exactly once")
}

func TestBuildOptionsFromLargePool(t *testing.T) {
	pool := answerPool("alpha", "beta", "gamma", "delta", "epsilon", "zeta")
	target := domain.Card{ID: 99, Answer: "omega"}

	options := BuildOptions(testRand(), target, pool)
	requireValidOptions(t, options, "omega")
	for _, option := range options {
		if option == "omega" {
			continue
		}
		require.Contains(t, []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta"}, option)
	}
}

func TestBuildOptionsPadsWithFillers(t *testing.T) {
	t.Run("empty pool", func(t *testing.T) {
		target := domain.Card{ID: 1, Answer: "lonely"}
		options := BuildOptions(testRand(), target, nil)
		requireValidOptions(t, options, "lonely")
		require.ElementsMatch(t, []string{"lonely", "All of the above", "None of the above", "Not sure"}, options)
	})

	t.Run("one distractor", func(t *testing.T) {
		pool := answerPool("other")
		target := domain.Card{ID: 99, Answer: "mine"}
		options := BuildOptions(testRand(), target, pool)
		requireValidOptions(t, options, "mine")
		require.ElementsMatch(t, []string{"mine", "other", "All of the above", "None of the above"}, options)
	})
}

func TestBuildOptionsFiltersPool(t *testing.T) {
	target := domain.Card{ID: 1, Answer: "shared"}
	pool := []domain.Card{
		{ID: 1, Answer: "target itself"},
		{ID: 2, Answer: "shared"}, // equals the correct answer
		{ID: 3, Answer: "   "},    // blank
		{ID: 4, Answer: "dup"},
		{ID: 5, Answer: "dup"},
	}

	options := BuildOptions(testRand(), target, pool)
	requireValidOptions(t, options, "shared")
	require.NotContains(t, options, "target itself")
	require.NotContains(t, options, "   ")
}

func TestBuildOptionsSkipsFillerAlreadyPresent(t *testing.T) {
	// A pool answer that matches a filler must not be added twice.
	pool := answerPool("Not sure")
	target := domain.Card{ID: 99, Answer: "real"}

	options := BuildOptions(testRand(), target, pool)
	requireValidOptions(t, options, "real")
	require.ElementsMatch(t, []string{"real", "Not sure", "All of the above", "None of the above"}, options)
}

func TestBuildOptionsDeterministicWithSeed(t *testing.T) {
	pool := answerPool("alpha", "beta", "gamma", "delta", "epsilon")
	target := domain.Card{ID: 99, Answer: "omega"}

	first := BuildOptions(rand.New(rand.NewSource(7)), target, pool)
	second := BuildOptions(rand.New(rand.NewSource(7)), target, pool)
	require.Equal(t, first, second)
}
