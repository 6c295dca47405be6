package source

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/studydeck/internal/generator"
)

// Fingerprint returns a stable SHA-256 hex digest of a generated pair so a
// re-imported document does not insert the same card twice. Fields are
// lowercased and whitespace-trimmed first, so cosmetic changes in the
// source document do not produce duplicates.
func Fingerprint(pair generator.Pair) string {
	normalize := func(part string) string {
		return strings.TrimSpace(strings.ToLower(part))
	}
	joined := strings.Join([]string{
		normalize(pair.Question),
		normalize(pair.Answer),
		normalize(pair.Sentence),
	}, "\n")
	return fmt.Sprintf("%x", sha256.Sum256([]byte(joined)))
}
