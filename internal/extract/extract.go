// Package extract defines the text-extraction collaborator: something that
// locates extractable text inside an uploaded document and returns it as a
// single string. Extraction of large documents can be slow, so it is
// cancellable and can report progress.
package extract

import (
	"context"
	"path/filepath"
	"strings"
)

// ProgressFunc receives extraction progress as bytes processed out of the
// total. It may be nil.
type ProgressFunc func(done, total int)

// Extractor turns document bytes into raw text. A failed extraction
// returns an error; callers feed the generator an empty string in that
// case, which it treats as a legitimate zero-result input.
type Extractor interface {
	Extract(ctx context.Context, data []byte, progress ProgressFunc) (string, error)
}

// ForPath returns the extractor responsible for the file's extension.
func ForPath(path string) (Extractor, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
		return PlainText{}, true
	default:
		return nil, false
	}
}

// chunkSize controls how often PlainText checks for cancellation and
// reports progress.
const chunkSize = 64 * 1024

// PlainText extracts text from plain-text and markdown documents. Invalid
// UTF-8 sequences are dropped rather than failing the whole document.
type PlainText struct{}

func (PlainText) Extract(ctx context.Context, data []byte, progress ProgressFunc) (string, error) {
	total := len(data)
	for done := 0; done < total; done += chunkSize {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		end := done + chunkSize
		if end > total {
			end = total
		}
		if progress != nil {
			progress(end, total)
		}
	}
	return strings.ToValidUTF8(string(data), ""), nil
}
