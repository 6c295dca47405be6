package storage

const schema = `
-- The 'cards' table stores one fill-in-the-blank flashcard per row.
-- display_order is the dense, human-facing numbering and is renumbered
-- after every delete; id is never reused.
CREATE TABLE IF NOT EXISTS cards (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    difficulty INTEGER DEFAULT 1,
    next_review TEXT,
    is_read BOOLEAN DEFAULT FALSE,
    display_order INTEGER,
    content_hash TEXT
);

-- The 'sources' table tracks document origins that cards were generated
-- from, either a local directory or a git repository of notes.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local',
    last_scanned DATETIME
);
`
