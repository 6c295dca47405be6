package quiz

import (
	"math/rand"
	"strings"

	"github.com/conorfennell/studydeck/internal/domain"
)

// OptionCount is the size of every multiple-choice option set.
const OptionCount = 4

// fillerOptions pad an option set when the pool cannot supply enough
// distinct distractors, tried in this order.
var fillerOptions = []string{"All of the above", "None of the above", "Not sure"}

// BuildOptions returns a shuffled set of OptionCount distinct options for
// the target card: its answer, up to three distractors drawn without
// replacement from the other cards' answers, and fillers if the pool runs
// short. The rand source is injectable so callers can pin option order in
// tests.
func BuildOptions(rng *rand.Rand, target domain.Card, pool []domain.Card) []string {
	seen := map[string]bool{target.Answer: true}
	var distractorPool []string
	for _, card := range pool {
		if card.ID == target.ID {
			continue
		}
		answer := card.Answer
		if strings.TrimSpace(answer) == "" || seen[answer] {
			continue
		}
		seen[answer] = true
		distractorPool = append(distractorPool, answer)
	}

	options := []string{target.Answer}
	for _, i := range rng.Perm(len(distractorPool)) {
		if len(options) == OptionCount {
			break
		}
		options = append(options, distractorPool[i])
	}

	for _, filler := range fillerOptions {
		if len(options) == OptionCount {
			break
		}
		if !seen[filler] {
			seen[filler] = true
			options = append(options, filler)
		}
	}

	rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}
