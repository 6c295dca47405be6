package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conorfennell/studydeck/internal/generator"
	"github.com/conorfennell/studydeck/internal/storage"
)

const noteText = "The quick cat sat calm elephants near the old barn today. " +
	"Green plants rely on photosynthesis to convert captured sunlight into usable chemical energy."

func TestDetectType(t *testing.T) {
	testCases := []struct {
		path     string
		expected string
	}{
		{"/home/user/notes", TypeLocal},
		{"notes", TypeLocal},
		{"https://example.com/user/notes.git", TypeGit},
		{"https://example.com/user/notes", TypeGit},
		{"git@example.com:user/notes.git", TypeGit},
	}
	for _, tc := range testCases {
		if got := DetectType(tc.path); got != tc.expected {
			t.Errorf("DetectType(%q) = %q, expected %q", tc.path, got, tc.expected)
		}
	}
}

func TestFingerprint(t *testing.T) {
	pair := generator.Pair{Question: "A _____ question", Answer: "blank", Sentence: "A blank question"}

	require.Equal(t, Fingerprint(pair), Fingerprint(pair))

	cosmetic := generator.Pair{Question: "  a _____ QUESTION ", Answer: "Blank", Sentence: "A BLANK question"}
	require.Equal(t, Fingerprint(pair), Fingerprint(cosmetic))

	other := generator.Pair{Question: "A _____ question", Answer: "other", Sentence: "A blank question"}
	require.NotEqual(t, Fingerprint(pair), Fingerprint(other))
}

func TestSyncLocalSourceIsIdempotent(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "studydeck.db"))
	require.NoError(t, err)
	defer db.Close()

	notesDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(notesDir, "biology.txt"), []byte(noteText), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(notesDir, "ignored.pdf"), []byte("binary"), 0o644))

	syncer := NewSyncer(db, t.TempDir(), 8)
	_, err = syncer.AddSource(notesDir)
	require.NoError(t, err)

	require.NoError(t, syncer.SyncAll(context.Background()))
	cards, err := db.ListCards("")
	require.NoError(t, err)
	require.Len(t, cards, 2)

	// A second sync of the unchanged source inserts nothing.
	require.NoError(t, syncer.SyncAll(context.Background()))
	cards, err = db.ListCards("")
	require.NoError(t, err)
	require.Len(t, cards, 2)

	sources, err := db.GetAllSources()
	require.NoError(t, err)
	require.Len(t, sources, 1)
	require.True(t, sources[0].LastScanned.Valid)
}
