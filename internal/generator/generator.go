// Package generator turns prose into fill-in-the-blank question/answer
// pairs. Blank selection is a token heuristic based on length and position,
// not a semantic one.
package generator

import (
	"strings"
	"unicode/utf8"
)

// Blank is the placeholder substituted for the hidden answer token.
const Blank = "_____"

const (
	// minSentenceLen filters out sentences too short to quiz on.
	minSentenceLen = 50
	// minTokens filters out sentences without enough context around a blank.
	minTokens = 8
	// minTokenLen is the length a stripped token must exceed to qualify.
	minTokenLen = 4
)

// stopWords are common function words that make poor blanks.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "which": true, "from": true, "have": true, "has": true,
	"had": true,
}

const surroundingPunct = `.,!?;:"()[]{}`

// Pair is one generated flashcard: the blanked question, the answer token
// and the sentence it came from.
type Pair struct {
	Question string
	Answer   string
	Sentence string
}

// CleanText collapses all runs of whitespace into single spaces.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// SplitSentences splits text after runs of sentence-ending punctuation
// followed by whitespace, keeping the punctuation on the preceding sentence.
func SplitSentences(text string) []string {
	var (
		sentences []string
		start     int
	)
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if !isSentenceEnd(runes[i]) {
			continue
		}
		// Swallow the whole punctuation run ("..." or "?!").
		end := i
		for end+1 < len(runes) && isSentenceEnd(runes[end+1]) {
			end++
		}
		if end+1 < len(runes) && isSpace(runes[end+1]) {
			sentences = append(sentences, string(runes[start:end+1]))
			i = end + 1
			for i < len(runes) && isSpace(runes[i]) {
				i++
			}
			start = i
			i--
		} else {
			i = end
		}
	}
	if start < len(runes) {
		if rest := string(runes[start:]); rest != "" {
			sentences = append(sentences, rest)
		}
	}
	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// Generate produces up to k question/answer pairs from the text, taking
// qualifying sentences in document order. Sentences that are too short,
// have too few tokens or contain no suitable blank candidate are skipped
// without producing a pair. Empty input yields an empty result.
func Generate(text string, k int) []Pair {
	var candidates []string
	for _, s := range SplitSentences(text) {
		// Lengths are counted in runes, not bytes, so non-ASCII prose is
		// filtered the same as ASCII.
		if s := strings.TrimSpace(s); utf8.RuneCountInString(s) > minSentenceLen {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	var pairs []Pair
	for _, sentence := range candidates {
		if pair, ok := blankOut(sentence); ok {
			pairs = append(pairs, pair)
		}
	}
	return pairs
}

type tokenCandidate struct {
	index  int    // token position within the sentence
	raw    string // token as it appears, punctuation included
	clean  string // token with surrounding punctuation stripped
	length int    // rune count of clean
}

// blankOut picks the most important token of the sentence and replaces its
// first occurrence with the blank marker.
func blankOut(sentence string) (Pair, bool) {
	words := strings.Fields(sentence)
	if len(words) < minTokens {
		return Pair{}, false
	}

	var candidates []tokenCandidate
	for i, word := range words {
		clean := strings.Trim(word, surroundingPunct)
		length := utf8.RuneCountInString(clean)
		if length <= minTokenLen {
			continue
		}
		if stopWords[strings.ToLower(clean)] {
			continue
		}
		// Keep the blank strictly inside the sentence so the question
		// retains a readable lead-in and tail.
		if i <= 2 || i >= len(words)-2 {
			continue
		}
		candidates = append(candidates, tokenCandidate{index: i, raw: word, clean: clean, length: length})
	}
	if len(candidates) == 0 {
		return Pair{}, false
	}

	best := candidates[0]
	mid := len(words) / 2
	for _, c := range candidates[1:] {
		if betterBlank(c, best, mid) {
			best = c
		}
	}

	return Pair{
		Question: strings.Replace(sentence, best.raw, Blank, 1),
		Answer:   best.clean,
		Sentence: sentence,
	}, true
}

// betterBlank ranks candidates longest first, ties broken by proximity of
// the token's position to the sentence midpoint.
func betterBlank(a, b tokenCandidate, mid int) bool {
	if a.length != b.length {
		return a.length > b.length
	}
	return abs(a.index-mid) < abs(b.index-mid)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
