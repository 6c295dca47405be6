// Package source reconciles registered document sources with the card
// store: it walks local directories or cloned git repositories of notes,
// extracts their text, generates flashcards and inserts the ones not seen
// before.
package source

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/studydeck/internal/extract"
	"github.com/conorfennell/studydeck/internal/generator"
	"github.com/conorfennell/studydeck/internal/gitsource"
	"github.com/conorfennell/studydeck/internal/storage"
)

const (
	TypeLocal = "local"
	TypeGit   = "git"
)

// Syncer imports flashcards from registered document sources.
type Syncer struct {
	db              *storage.DB
	reposDir        string
	questionsPerDoc int
}

// NewSyncer creates a Syncer. Git sources are cloned under reposDir;
// questionsPerDoc caps how many cards one document can generate.
func NewSyncer(db *storage.DB, reposDir string, questionsPerDoc int) *Syncer {
	return &Syncer{db: db, reposDir: reposDir, questionsPerDoc: questionsPerDoc}
}

// DetectType classifies a source path as a git URL or a local directory.
func DetectType(path string) string {
	if strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		return TypeGit
	}
	return TypeLocal
}

// AddSource registers a new document source and returns its id.
func (s *Syncer) AddSource(path string) (int64, error) {
	return s.db.InsertSource(path, DetectType(path))
}

// SyncAll reconciles every registered source. Per-source failures are
// logged and skipped so one broken source does not block the rest.
func (s *Syncer) SyncAll(ctx context.Context) error {
	sources, err := s.db.GetAllSources()
	if err != nil {
		return fmt.Errorf("failed to get sources: %w", err)
	}
	if len(sources) == 0 {
		slog.Info("no sources configured")
		return nil
	}

	if err := os.MkdirAll(s.reposDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create repos directory: %w", err)
	}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		slog.Info("syncing source", "id", src.ID, "type", src.Type, "path", src.Path)
		if err := s.syncSource(ctx, src); err != nil {
			slog.Error("source sync failed", "id", src.ID, "path", src.Path, "error", err)
			continue
		}
		if err := s.db.UpdateSourceLastScanned(src.ID); err != nil {
			slog.Warn("failed to update last scanned", "id", src.ID, "error", err)
		}
	}
	return nil
}

func (s *Syncer) syncSource(ctx context.Context, src storage.Source) error {
	localPath := src.Path
	if src.Type == TypeGit {
		var err error
		localPath, err = gitURLToLocalPath(s.reposDir, src.Path)
		if err != nil {
			return err
		}
		if err := gitsource.Sync(src.Path, localPath); err != nil {
			return err
		}
	}

	var inserted, skipped int
	walkErr := filepath.WalkDir(localPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		extractor, ok := extract.ForPath(path)
		if !ok {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		text, err := extractor.Extract(ctx, data, nil)
		if err != nil {
			slog.Warn("extraction failed, skipping document", "path", path, "error", err)
			return nil
		}

		for _, pair := range generator.Generate(generator.CleanText(text), s.questionsPerDoc) {
			hash := Fingerprint(pair)
			exists, err := s.db.HasContentHash(hash)
			if err != nil {
				return err
			}
			if exists {
				skipped++
				continue
			}
			if _, err := s.db.InsertImportedCard(pair.Question, pair.Answer, hash); err != nil {
				return fmt.Errorf("inserting card from %s: %w", path, err)
			}
			inserted++
		}
		return nil
	})
	if walkErr != nil {
		return walkErr
	}

	slog.Info("source reconciled", "path", src.Path, "inserted", inserted, "already_known", skipped)
	return nil
}

// gitURLToLocalPath maps a git URL onto a stable clone directory under
// baseDir, handling both https and scp-like git@host:path forms.
func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
